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

package i2c

import (
	"bytes"
	"errors"
	"testing"
	"time"

	serialmsg "github.com/ZaparooProject/go-serialmsg"
	"github.com/ZaparooProject/go-serialmsg/internal/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func newPlaybackTransport(ops ...i2ctest.IO) (*Transport, *i2ctest.Playback) {
	pb := &i2ctest.Playback{Ops: ops, DontPanic: true}
	return &Transport{
		dev:     &i2c.Dev{Addr: DefaultAddress, Bus: pb},
		bus:     pb,
		busName: "playback",
		timeout: defaultTimeout,
	}, pb
}

func TestSplitChunks(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input []byte
		size  int
		want  []int
	}{
		{name: "empty", input: []byte{}, size: 4, want: nil},
		{name: "fits", input: []byte{1, 2, 3}, size: 4, want: []int{3}},
		{name: "exact multiple", input: []byte{1, 2, 3, 4, 5, 6, 7, 8}, size: 4, want: []int{4, 4}},
		{name: "remainder", input: []byte{1, 2, 3, 4, 5}, size: 4, want: []int{4, 1}},
		{
			name:  "escape not left at chunk end",
			input: []byte{1, 2, 3, frame.Escape, 0x5E, 6},
			size:  4,
			want:  []int{3, 3},
		},
		{
			name:  "escape as final byte of input",
			input: []byte{1, 2, 3, frame.Escape},
			size:  4,
			want:  []int{4},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			chunks := splitChunks(tt.input, tt.size)
			var sizes []int
			for _, c := range chunks {
				sizes = append(sizes, len(c))
			}
			assert.Equal(t, tt.want, sizes)
			assert.Equal(t, tt.input, bytes.Join(chunks, nil), "chunks cover the input in order")
		})
	}
}

func TestTransport_PollByte(t *testing.T) {
	t.Parallel()
	tr, _ := newPlaybackTransport(
		i2ctest.IO{Addr: DefaultAddress, R: []byte{frame.Flag}},
		i2ctest.IO{Addr: DefaultAddress, R: []byte{0x41}},
	)

	b, ok, err := tr.PollByte()
	require.NoError(t, err)
	assert.True(t, ok, "idle fill still reports a byte")
	assert.Equal(t, frame.Flag, b)

	b, ok, err = tr.PollByte()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, byte(0x41), b)

	require.NoError(t, tr.Close(), "every recorded transaction was used")
}

func TestTransport_Write(t *testing.T) {
	t.Parallel()
	payload := bytes.Repeat([]byte{0x41}, 40)
	payload[maxChunk-1] = frame.Escape

	tr, _ := newPlaybackTransport(
		i2ctest.IO{Addr: DefaultAddress, W: payload[:maxChunk-1]},
		i2ctest.IO{Addr: DefaultAddress, W: payload[maxChunk-1:]},
	)

	require.NoError(t, tr.Write(payload))
	require.NoError(t, tr.Close())
}

func TestTransport_WaitReady(t *testing.T) {
	t.Parallel()
	tr, _ := newPlaybackTransport(i2ctest.IO{Addr: DefaultAddress, R: []byte{frame.Flag}})
	require.NoError(t, tr.waitReady())
	require.NoError(t, tr.Close())
}

type failingBus struct {
	i2ctest.Playback
}

func (*failingBus) Tx(uint16, []byte, []byte) error {
	return errors.New("nack")
}

func TestTransport_BusErrors(t *testing.T) {
	t.Parallel()
	bus := &failingBus{}
	tr := &Transport{dev: &i2c.Dev{Addr: DefaultAddress, Bus: bus}, bus: bus, busName: "broken"}

	_, _, err := tr.PollByte()
	require.ErrorIs(t, err, serialmsg.ErrTransportRead)

	err = tr.Write([]byte{0x01})
	require.ErrorIs(t, err, serialmsg.ErrTransportWrite)
}

func TestTransport_Closed(t *testing.T) {
	t.Parallel()
	tr, _ := newPlaybackTransport()
	require.True(t, tr.IsConnected())
	require.NoError(t, tr.Close())
	assert.False(t, tr.IsConnected())
	require.NoError(t, tr.Close())

	_, _, err := tr.PollByte()
	require.ErrorIs(t, err, serialmsg.ErrTransportClosed)
	require.ErrorIs(t, tr.Write([]byte{0x01}), serialmsg.ErrTransportClosed)
}

func TestTransport_Settings(t *testing.T) {
	t.Parallel()
	tr, _ := newPlaybackTransport()
	assert.Equal(t, serialmsg.TransportI2C, tr.Type())
	assert.Equal(t, defaultTimeout, tr.Timeout())

	require.NoError(t, tr.SetTimeout(5*time.Millisecond))
	assert.Equal(t, 5*time.Millisecond, tr.Timeout())
	require.ErrorIs(t, tr.SetTimeout(0), serialmsg.ErrInvalidParameter)
}

func TestMessenger_OverI2C(t *testing.T) {
	t.Parallel()
	raw, err := frame.Pack("Hello World", serialmsg.DefaultConfig().Serializer)
	require.NoError(t, err)

	ops := []i2ctest.IO{
		{Addr: DefaultAddress, R: []byte{frame.Flag}},
		{Addr: DefaultAddress, R: []byte{frame.Flag}},
	}
	for _, b := range raw {
		ops = append(ops, i2ctest.IO{Addr: DefaultAddress, R: []byte{b}})
	}
	tr, _ := newPlaybackTransport(ops...)

	m, err := serialmsg.New(tr)
	require.NoError(t, err)

	var got string
	outcome, err := m.ReadValue(&got)
	require.NoError(t, err)
	assert.Equal(t, serialmsg.OutcomeAccepted, outcome)
	assert.Equal(t, "Hello World", got)
}
