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

package serialmsg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransportWithRetry_Write(t *testing.T) {
	t.Parallel()
	tests := []struct {
		failWith  error
		wantIs    error
		name      string
		failTimes int
		wantCalls int
		wantPort  string
		wantErr   bool
	}{
		{name: "success", wantCalls: 1},
		{name: "transient failures", failWith: ErrTransportTimeout, failTimes: 2, wantCalls: 3},
		{
			name:      "unclassified failure is permanent",
			failWith:  errors.New("unplugged"),
			failTimes: 1,
			wantCalls: 1,
			wantIs:    ErrTransportWrite,
			wantErr:   true,
		},
		{
			name:      "always failing",
			failWith:  ErrTransportWrite,
			failTimes: -1,
			wantCalls: 3,
			wantIs:    ErrTransportWrite,
			wantErr:   true,
		},
		{
			name:      "typed permanent error kept",
			failWith:  NewTransportError("Write", "COM3", ErrTransportClosed, ErrorTypePermanent),
			failTimes: -1,
			wantCalls: 1,
			wantPort:  "COM3",
			wantIs:    ErrTransportClosed,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mock := NewMockTransport()
			if tt.failWith != nil {
				mock.SetWriteError(tt.failWith, tt.failTimes)
			}
			rt := NewTransportWithRetry(mock, fastRetry(3))

			err := rt.Write([]byte{0x7E, 0x01, 0x7E})
			assert.Equal(t, tt.wantCalls, mock.WriteCalls())
			if tt.wantErr {
				var te *TransportError
				require.ErrorAs(t, err, &te)
				assert.Equal(t, "Write", te.Op)
				assert.Equal(t, tt.wantPort, te.Port)
				require.ErrorIs(t, err, tt.wantIs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []byte{0x7E, 0x01, 0x7E}, mock.Written())
		})
	}
}

func TestTransportWithRetry_WriteContextCancelled(t *testing.T) {
	t.Parallel()
	mock := NewMockTransport()
	rt := NewTransportWithRetry(mock, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, rt.WriteContext(ctx, []byte{0x01}), context.Canceled)
	assert.Zero(t, mock.WriteCalls())
}

func TestTransportWithRetry_Delegates(t *testing.T) {
	t.Parallel()
	mock := NewMockTransport()
	mock.Feed(0x42)
	rt := NewTransportWithRetry(mock, nil)

	b, ok, err := rt.PollByte()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, byte(0x42), b)

	_, ok, err = rt.PollByte()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, rt.SetTimeout(25*time.Millisecond))
	assert.Equal(t, 25*time.Millisecond, rt.Timeout())
	require.ErrorIs(t, rt.SetTimeout(0), ErrInvalidParameter)

	assert.Equal(t, TransportMock, rt.Type())
	assert.Same(t, mock, rt.Unwrap())
	assert.True(t, rt.IsConnected())
	require.NoError(t, rt.Close())
	assert.False(t, rt.IsConnected())
}

func TestTransportWithRetry_InMessenger(t *testing.T) {
	t.Parallel()
	mock := NewLoopbackTransport()
	rt := NewTransportWithRetry(mock, fastRetry(4))
	rt.SetRetryConfig(fastRetry(2))
	mock.SetWriteError(ErrTransportTimeout, 1)

	m, err := New(rt, WithClock(mock.Clock()))
	require.NoError(t, err)

	require.NoError(t, m.Write("Hello World"))
	assert.Equal(t, 2, mock.WriteCalls())

	var got string
	outcome, err := m.ReadValue(&got)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAccepted, outcome)
	assert.Equal(t, "Hello World", got)
}

func TestMockTransport(t *testing.T) {
	t.Parallel()
	mock := NewMockTransport()
	start := mock.Clock().Now()

	_, ok, err := mock.PollByte()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, mock.Timeout(), mock.Clock().Now().Sub(start))
	assert.Equal(t, 1, mock.EmptyPolls())

	mock.Feed(0x01, 0x02)
	assert.Equal(t, []byte{0x01, 0x02}, mock.Pending())
	b, ok, err := mock.PollByte()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, byte(0x01), b)

	mock.SetReadError(ErrTransportRead)
	_, _, err = mock.PollByte()
	require.ErrorIs(t, err, ErrTransportRead)

	require.NoError(t, mock.Close())
	_, _, err = mock.PollByte()
	require.ErrorIs(t, err, ErrTransportClosed)
	require.ErrorIs(t, mock.Write([]byte{0x01}), ErrTransportClosed)
}
