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

package listen

import (
	"time"

	"github.com/rs/zerolog"
)

// Config holds listener configuration
type Config struct {
	Logger zerolog.Logger

	// ReadTimeout bounds each frame read; timeouts just start a new read
	ReadTimeout time.Duration

	// ErrorBackoff is the pause after a hard read error
	ErrorBackoff time.Duration

	// MaxConsecutiveErrors stops the listener after this many hard errors
	// in a row. Zero means never stop.
	MaxConsecutiveErrors int
}

// DefaultConfig returns default listener configuration
func DefaultConfig() *Config {
	return &Config{
		Logger:               zerolog.Nop(),
		ReadTimeout:          time.Second,
		ErrorBackoff:         50 * time.Millisecond,
		MaxConsecutiveErrors: 10,
	}
}
