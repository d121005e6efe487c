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

// Package testing builds wire-level fixtures for framing tests.
package testing

import (
	"bytes"
	"fmt"

	"github.com/ZaparooProject/go-serialmsg/codec"
	"github.com/ZaparooProject/go-serialmsg/internal/frame"
)

// BuildFrame serializes v with CBOR and returns the raw frame. It panics on
// encoding errors since fixtures are built from known values.
func BuildFrame(v any) []byte {
	raw, err := frame.Pack(v, codec.CBOR{})
	if err != nil {
		panic(fmt.Sprintf("testing: failed to build frame: %v", err))
	}
	return raw
}

// BuildFrameWithChecksum frames payload with an arbitrary embedded
// checksum, as a sender with a corrupted checksum would.
func BuildFrameWithChecksum(payload []byte, checksum uint32) []byte {
	body, err := codec.Marshal(frame.Envelope{Payload: payload, Checksum: checksum})
	if err != nil {
		panic(fmt.Sprintf("testing: failed to build envelope: %v", err))
	}
	return WrapBody(body)
}

// WrapBody escapes body and adds the delimiters
func WrapBody(body []byte) []byte {
	out := []byte{frame.Flag}
	out = append(out, frame.EscapeBytes(body)...)
	return append(out, frame.Flag)
}

// WithGarbage prefixes a frame with line noise
func WithGarbage(raw []byte, garbage ...byte) []byte {
	out := append([]byte(nil), garbage...)
	return append(out, raw...)
}

// WithIdleFlags prefixes a frame with n extra flag bytes of idle fill
func WithIdleFlags(raw []byte, n int) []byte {
	out := bytes.Repeat([]byte{frame.Flag}, n)
	return append(out, raw...)
}

// FlipBit returns a copy of raw with one bit of the byte at index flipped
func FlipBit(raw []byte, index int, bit uint) []byte {
	out := append([]byte(nil), raw...)
	out[index] ^= 1 << bit
	return out
}

// Truncate returns the first n bytes of raw
func Truncate(raw []byte, n int) []byte {
	return append([]byte(nil), raw[:n]...)
}

// Common payloads
var (
	HelloWorld = "Hello World"

	// NestedMessage is the structured value used by the round-trip tests
	NestedMessage = map[string]any{
		"a": []any{1, 2, 3},
		"b": map[string]any{"c": "Hello World"},
	}

	// ReservedBytes exercises every byte that needs escaping
	ReservedBytes = []byte{frame.Flag, frame.Escape, frame.Flag ^ frame.EscapeMask, frame.Escape, frame.Flag}
)
