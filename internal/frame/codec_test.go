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

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ZaparooProject/go-serialmsg/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingMarshaler struct{}

func (failingMarshaler) Marshal(any) ([]byte, error) {
	return nil, errors.New("cannot marshal")
}

func wrap(body []byte) []byte {
	out := append([]byte{Flag}, EscapeBytes(body)...)
	return append(out, Flag)
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()
	payloads := map[string][]byte{
		"empty":     {},
		"text":      []byte("Hello World"),
		"reserved":  {Flag, Escape, Flag, 0x5E, 0x5D},
		"all flags": bytes.Repeat([]byte{Flag}, 32),
	}

	for name, payload := range payloads {
		payload := payload
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			raw, err := Encode(payload, codec.CBOR{})
			require.NoError(t, err)

			require.GreaterOrEqual(t, len(raw), MinFrameLength)
			assert.Equal(t, Flag, raw[0])
			assert.Equal(t, Flag, raw[len(raw)-1])
			assert.NotContains(t, raw[1:len(raw)-1], Flag)

			got, sum, err := Decode(raw, codec.CBOR{})
			require.NoError(t, err)
			assert.Equal(t, payload, got)
			assert.Equal(t, CalculateChecksum(payload), sum)
		})
	}
}

func TestEncode_NilPayload(t *testing.T) {
	t.Parallel()
	raw, err := Encode(nil, codec.CBOR{})
	require.NoError(t, err)

	got, sum, err := Decode(raw, codec.CBOR{})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, sum)
}

func TestEncode_Overhead(t *testing.T) {
	t.Parallel()
	for _, size := range []int{0, 23, 24, 255, 256, 65535, 65536} {
		payload := bytes.Repeat([]byte{0x41}, size)
		raw, err := Encode(payload, codec.CBOR{})
		require.NoError(t, err)
		assert.LessOrEqual(t, len(raw)-size, MaxOverhead, "payload of %d bytes", size)
	}
}

func TestEncode_MarshalError(t *testing.T) {
	t.Parallel()
	_, err := Encode([]byte("x"), failingMarshaler{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "envelope")
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		wantErr error
		name    string
		raw     []byte
	}{
		{name: "empty", raw: []byte{}, wantErr: ErrFrameTooShort},
		{name: "single flag", raw: []byte{Flag}, wantErr: ErrFrameTooShort},
		{name: "trailing escape", raw: []byte{Flag, 0x82, Escape, Flag}, wantErr: ErrMalformedEscape},
		{name: "not an envelope", raw: wrap([]byte{0x01}), wantErr: ErrDeserialization},
		{name: "empty body", raw: []byte{Flag, Flag}, wantErr: ErrDeserialization},
		{name: "truncated envelope", raw: wrap([]byte{0x82, 0x45, 0x01}), wantErr: ErrDeserialization},
		{name: "null body", raw: []byte{Flag, 0xF6, Flag}, wantErr: ErrDeserialization},
		{name: "undefined body", raw: []byte{Flag, 0xF7, Flag}, wantErr: ErrDeserialization},
		{name: "one element array", raw: wrap([]byte{0x81, 0x40}), wantErr: ErrDeserialization},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := Decode(tt.raw, codec.CBOR{})
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDecode_DoesNotVerifyChecksum(t *testing.T) {
	t.Parallel()
	body, err := codec.Marshal(Envelope{Payload: []byte("abc"), Checksum: 1})
	require.NoError(t, err)

	payload, sum, err := Decode(wrap(body), codec.CBOR{})
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), payload)
	assert.Equal(t, uint32(1), sum)
}

func TestPack(t *testing.T) {
	t.Parallel()

	t.Run("bytes are framed as-is", func(t *testing.T) {
		t.Parallel()
		raw, err := Pack([]byte{0x01, 0x02}, codec.CBOR{})
		require.NoError(t, err)
		payload, _, err := Decode(raw, codec.CBOR{})
		require.NoError(t, err)
		assert.Equal(t, []byte{0x01, 0x02}, payload)
	})

	t.Run("values are serialized first", func(t *testing.T) {
		t.Parallel()
		raw, err := Pack("Hello World", codec.CBOR{})
		require.NoError(t, err)
		payload, sum, err := Decode(raw, codec.CBOR{})
		require.NoError(t, err)

		var got string
		require.NoError(t, codec.Unmarshal(payload, &got))
		assert.Equal(t, "Hello World", got)
		assert.True(t, ValidateChecksum(payload, sum))
	})

	t.Run("serializer error", func(t *testing.T) {
		t.Parallel()
		_, err := Pack(42, failingMarshaler{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "serialize payload")
	})
}
