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

package frame

import "fmt"

// Marshaler encodes a value into bytes
type Marshaler interface {
	Marshal(v any) ([]byte, error)
}

// Unmarshaler decodes bytes produced by the matching Marshaler
type Unmarshaler interface {
	Unmarshal(data []byte, v any) error
}

// Envelope is the frame body before escaping: the serialized payload and
// its checksum, encoded as a two-element array.
type Envelope struct {
	_        struct{} `cbor:",toarray"`
	Payload  []byte
	Checksum uint32
}

// Encode wraps an already-serialized payload into a raw frame:
// flag, escaped envelope, flag.
func Encode(payload []byte, m Marshaler) ([]byte, error) {
	if payload == nil {
		payload = []byte{}
	}
	body, err := m.Marshal(Envelope{
		Payload:  payload,
		Checksum: CalculateChecksum(payload),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame envelope: %w", err)
	}

	escaped := EscapeBytes(body)
	out := make([]byte, 0, len(escaped)+2)
	out = append(out, Flag)
	out = append(out, escaped...)
	out = append(out, Flag)
	return out, nil
}

// Decode strips the delimiters from a raw frame, unescapes the body and
// splits it into payload and the checksum the sender embedded. The
// checksum is not verified here.
func Decode(raw []byte, u Unmarshaler) (payload []byte, received uint32, err error) {
	if len(raw) < 2 {
		return nil, 0, fmt.Errorf("%w: %d bytes", ErrFrameTooShort, len(raw))
	}

	body, err := UnescapeBytes(raw[1 : len(raw)-1])
	if err != nil {
		return nil, 0, err
	}

	// null and undefined decode into a nil pointer instead of an error
	var env *Envelope
	if err := u.Unmarshal(body, &env); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDeserialization, err)
	}
	if env == nil {
		return nil, 0, fmt.Errorf("%w: body is not a payload/checksum pair", ErrDeserialization)
	}
	return env.Payload, env.Checksum, nil
}

// Pack builds a raw frame from any value. Byte slices are framed as-is;
// anything else is serialized with m first.
func Pack(v any, m Marshaler) ([]byte, error) {
	payload, ok := v.([]byte)
	if !ok {
		var err error
		payload, err = m.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize payload: %w", err)
		}
	}
	return Encode(payload, m)
}
