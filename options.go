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
	"fmt"
	"time"

	"github.com/ZaparooProject/go-serialmsg/codec"
	"github.com/ZaparooProject/go-serialmsg/internal/frame"
	"github.com/rs/zerolog"
)

// DefaultTimeout is the read timeout used when none is configured
const DefaultTimeout = time.Second

// Serializer converts values to and from bytes. Decode(Encode(v)) must
// equal v, and the serializer must be able to nest raw byte strings.
type Serializer interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Clock supplies the time used for read deadlines
type Clock = frame.Clock

// Config is the immutable configuration of a Messenger
type Config struct {
	Serializer           Serializer
	Clock                Clock
	RetryConfig          *RetryConfig
	Logger               zerolog.Logger
	Timeout              time.Duration
	MaxFrameSize         int
	RequireChecksumMatch bool
}

// DefaultConfig returns the default messenger configuration
func DefaultConfig() Config {
	return Config{
		Serializer:           codec.CBOR{},
		Clock:                frame.SystemClock{},
		Logger:               zerolog.Nop(),
		Timeout:              DefaultTimeout,
		MaxFrameSize:         frame.DefaultMaxFrameLength,
		RequireChecksumMatch: true,
	}
}

// Option is a functional option for configuring a Messenger
type Option func(*Config) error

// WithTimeout sets the default read timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout <= 0 {
			return fmt.Errorf("%w: timeout must be positive, got %v", ErrInvalidParameter, timeout)
		}
		c.Timeout = timeout
		return nil
	}
}

// WithRequireChecksumMatch sets whether frames with a bad checksum are
// rejected (true) or returned unverified (false)
func WithRequireChecksumMatch(require bool) Option {
	return func(c *Config) error {
		c.RequireChecksumMatch = require
		return nil
	}
}

// WithSerializer replaces the default CBOR serializer
func WithSerializer(s Serializer) Option {
	return func(c *Config) error {
		if s == nil {
			return fmt.Errorf("%w: serializer is nil", ErrInvalidParameter)
		}
		c.Serializer = s
		return nil
	}
}

// WithClock sets the clock used for read deadlines
func WithClock(clock Clock) Option {
	return func(c *Config) error {
		if clock == nil {
			return fmt.Errorf("%w: clock is nil", ErrInvalidParameter)
		}
		c.Clock = clock
		return nil
	}
}

// WithLogger sets the logger for frame-level events
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

// WithRetryConfig enables retrying of transient write failures. The
// messenger keeps its own copy of config.
func WithRetryConfig(config *RetryConfig) Option {
	return func(c *Config) error {
		if config == nil {
			c.RetryConfig = nil
			return nil
		}
		rc := *config
		c.RetryConfig = &rc
		return nil
	}
}

// WithMaxRetries sets the maximum number of write attempts
func WithMaxRetries(maxAttempts int) Option {
	return func(c *Config) error {
		if maxAttempts < 1 {
			return fmt.Errorf("%w: max attempts must be at least 1, got %d", ErrInvalidParameter, maxAttempts)
		}
		rc := DefaultRetryConfig()
		if c.RetryConfig != nil {
			*rc = *c.RetryConfig
		}
		rc.MaxAttempts = maxAttempts
		c.RetryConfig = rc
		return nil
	}
}

// WithMaxFrameSize bounds the length of an incoming raw frame
func WithMaxFrameSize(n int) Option {
	return func(c *Config) error {
		if n < frame.MinFrameLength {
			return fmt.Errorf("%w: max frame size must be at least %d, got %d",
				ErrInvalidParameter, frame.MinFrameLength, n)
		}
		c.MaxFrameSize = n
		return nil
	}
}
