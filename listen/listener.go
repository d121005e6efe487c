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

// Package listen runs a continuous receive loop on a Messenger and hands
// each frame to callbacks.
package listen

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	serialmsg "github.com/ZaparooProject/go-serialmsg"
)

// Listener errors
var (
	ErrAlreadyRunning = errors.New("listener is already running")
	ErrNotRunning     = errors.New("listener is not running")
	ErrTooManyErrors  = errors.New("too many consecutive read errors")
)

// Callbacks defines callback functions for receive events.
// All callbacks run on the listener goroutine.
type Callbacks struct {
	// OnMessage receives accepted and unverified results
	OnMessage func(result *serialmsg.Result) error
	// OnRejected receives frames dropped for a checksum mismatch
	OnRejected func(result *serialmsg.Result)
	// OnError receives hard read errors; timeouts are not reported
	OnError func(err error)
}

// Metrics tracks operational metrics for a Listener
type Metrics struct {
	FramesAccepted   int64         // Frames with a matching checksum
	FramesUnverified int64         // Mismatched frames kept by policy
	FramesRejected   int64         // Mismatched frames dropped by policy
	Timeouts         int64         // Reads that ended with nothing
	ReadErrors       int64         // Hard read errors
	CallbackErrors   int64         // Errors returned by OnMessage
	LastReadLatency  time.Duration // Duration of the last completed read
}

// Listener reads frames in a loop until stopped
type Listener struct {
	messenger *serialmsg.Messenger
	config    *Config
	callbacks Callbacks
	cancel    context.CancelFunc
	done      chan struct{}
	runErr    error
	mu        sync.Mutex
	running   atomic.Bool

	framesAccepted   int64
	framesUnverified int64
	framesRejected   int64
	timeouts         int64
	readErrors       int64
	callbackErrors   int64
	lastReadLatency  int64 // in nanoseconds
}

// New creates a listener on messenger
func New(messenger *serialmsg.Messenger, config *Config, callbacks Callbacks) (*Listener, error) {
	if messenger == nil {
		return nil, errors.New("messenger cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.ReadTimeout <= 0 {
		return nil, fmt.Errorf("%w: read timeout must be positive", serialmsg.ErrInvalidParameter)
	}
	return &Listener{
		messenger: messenger,
		config:    config,
		callbacks: callbacks,
	}, nil
}

// Start runs the receive loop in a goroutine
func (l *Listener) Start(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	l.mu.Lock()
	l.cancel = cancel
	l.done = done
	l.runErr = nil
	l.mu.Unlock()

	go func() {
		defer close(done)
		defer l.running.Store(false)
		err := l.loop(runCtx)
		l.mu.Lock()
		l.runErr = err
		l.mu.Unlock()
	}()
	return nil
}

// Stop cancels the receive loop and waits for it to exit. It returns the
// error that ended the loop, if it was not the cancellation itself.
func (l *Listener) Stop() error {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.mu.Unlock()

	if cancel == nil {
		return ErrNotRunning
	}
	cancel()
	<-done

	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancel = nil
	if errors.Is(l.runErr, context.Canceled) {
		return nil
	}
	return l.runErr
}

// Done is closed when the loop started by Start exits
func (l *Listener) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

// Run runs the receive loop on the calling goroutine until ctx is done or
// too many consecutive errors occur.
func (l *Listener) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)
	return l.loop(ctx)
}

// IsRunning reports whether the receive loop is active
func (l *Listener) IsRunning() bool {
	return l.running.Load()
}

func (l *Listener) loop(ctx context.Context) error {
	logger := l.config.Logger
	consecutive := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		result, err := l.messenger.ReadContext(ctx, l.config.ReadTimeout)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if errors.Is(err, serialmsg.ErrTimeout) {
				atomic.AddInt64(&l.timeouts, 1)
				continue
			}

			atomic.AddInt64(&l.readErrors, 1)
			consecutive++
			logger.Debug().Err(err).Int("consecutive", consecutive).Msg("read failed")
			if l.callbacks.OnError != nil {
				l.callbacks.OnError(err)
			}
			if l.config.MaxConsecutiveErrors > 0 && consecutive >= l.config.MaxConsecutiveErrors {
				return fmt.Errorf("%w: %w", ErrTooManyErrors, err)
			}
			if err := l.backoff(ctx); err != nil {
				return err
			}
			continue
		}

		consecutive = 0
		atomic.StoreInt64(&l.lastReadLatency, time.Since(start).Nanoseconds())
		l.dispatch(result)
	}
}

func (l *Listener) dispatch(result *serialmsg.Result) {
	switch result.Outcome {
	case serialmsg.OutcomeRejected:
		atomic.AddInt64(&l.framesRejected, 1)
		if l.callbacks.OnRejected != nil {
			l.callbacks.OnRejected(result)
		}
		return
	case serialmsg.OutcomeUnverified:
		atomic.AddInt64(&l.framesUnverified, 1)
	case serialmsg.OutcomeAccepted:
		atomic.AddInt64(&l.framesAccepted, 1)
	default:
		return
	}

	if l.callbacks.OnMessage == nil {
		return
	}
	if err := l.callbacks.OnMessage(result); err != nil {
		atomic.AddInt64(&l.callbackErrors, 1)
		l.config.Logger.Debug().Err(err).Msg("message callback failed")
	}
}

func (l *Listener) backoff(ctx context.Context) error {
	if l.config.ErrorBackoff <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(l.config.ErrorBackoff):
		return nil
	}
}

// GetMetrics returns current operational metrics
func (l *Listener) GetMetrics() Metrics {
	return Metrics{
		FramesAccepted:   atomic.LoadInt64(&l.framesAccepted),
		FramesUnverified: atomic.LoadInt64(&l.framesUnverified),
		FramesRejected:   atomic.LoadInt64(&l.framesRejected),
		Timeouts:         atomic.LoadInt64(&l.timeouts),
		ReadErrors:       atomic.LoadInt64(&l.readErrors),
		CallbackErrors:   atomic.LoadInt64(&l.callbackErrors),
		LastReadLatency:  time.Duration(atomic.LoadInt64(&l.lastReadLatency)),
	}
}
