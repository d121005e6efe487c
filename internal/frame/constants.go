// go-serialmsg
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-serialmsg.
//
// go-serialmsg is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-serialmsg is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-serialmsg; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package frame provides the byte-level framing engine: escaping, CRC-32
// checksums, frame assembly from a byte stream and envelope encoding.
package frame

import "errors"

// Frame markers and control bytes
const (
	Flag       byte = 0x7E // Frame start/end delimiter
	Escape     byte = 0x7D // Next byte is masked with EscapeMask
	EscapeMask byte = 0x20 // XOR mask applied to escaped bytes
)

// Frame size limits
const (
	// MinFrameLength is flag + at least one body byte + flag.
	MinFrameLength = 3

	// MaxOverhead is the worst-case number of bytes a frame adds around
	// the serialized payload before escaping: two flags, a CBOR array
	// header, a uint32 checksum (up to 5 bytes) and a byte string header
	// (up to 9 bytes).
	MaxOverhead = 2 + 1 + 5 + 9

	// DefaultMaxFrameLength bounds frame assembly when no limit is set.
	DefaultMaxFrameLength = 64 * 1024
)

// Errors produced by the framing engine.
var (
	ErrTimeout         = errors.New("frame timeout")
	ErrFrameTooShort   = errors.New("frame too short")
	ErrFrameTooLarge   = errors.New("frame too large")
	ErrMalformedEscape = errors.New("malformed escape sequence")
	ErrDeserialization = errors.New("frame body deserialization failed")
)
