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

package transport

import (
	"errors"
	"testing"
	"time"

	serialmsg "github.com/ZaparooProject/go-serialmsg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry(t *testing.T) {
	t.Parallel()
	errNoDevice := errors.New("no such device")

	tests := []struct {
		wantErr   error
		name      string
		busyTimes int
		hardErr   bool
		wantCalls int
		wantTries []int
	}{
		{name: "opens first time", wantCalls: 1},
		{name: "busy then open", busyTimes: 2, wantCalls: 3, wantTries: []int{1, 2}},
		{
			name: "busy forever", busyTimes: 100, wantCalls: 4,
			wantTries: []int{1, 2, 3}, wantErr: serialmsg.ErrTransportTimeout,
		},
		{name: "hard error", hardErr: true, wantCalls: 1, wantErr: errNoDevice},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			calls := 0
			var tries []int
			got, err := WithRetry(RetryConfig{
				Description: "open",
				Port:        "/dev/ttyTEST",
				MaxRetries:  3,
				OnRetry:     func(attempt int) { tries = append(tries, attempt) },
			}, func() (string, bool, error) {
				calls++
				if tt.hardErr {
					return "", false, errNoDevice
				}
				if calls <= tt.busyTimes {
					return "", true, nil
				}
				return "port", false, nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			assert.Equal(t, tt.wantTries, tries)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "port", got)
		})
	}
}

func TestWithRetry_TransportError(t *testing.T) {
	t.Parallel()
	_, err := WithRetry(RetryConfig{Description: "open", Port: "COM7"}, func() (int, bool, error) {
		return 0, true, nil
	})

	var te *serialmsg.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "COM7", te.Port)
	assert.True(t, te.Retryable)
}

func TestTimeoutRetry(t *testing.T) {
	t.Parallel()

	calls := 0
	got, err := TimeoutRetry(time.Second, func() (int, bool, error) {
		calls++
		return calls, calls < 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	_, err = TimeoutRetry(5*time.Millisecond, func() (int, bool, error) {
		return 0, true, nil
	})
	require.ErrorIs(t, err, serialmsg.ErrTransportTimeout)
	assert.Equal(t, serialmsg.ErrorTypeTimeout, serialmsg.GetErrorType(err))

	errStop := errors.New("stop")
	_, err = TimeoutRetry(time.Second, func() (int, bool, error) {
		return 0, false, errStop
	})
	require.ErrorIs(t, err, errStop)
}
