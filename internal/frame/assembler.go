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
	"context"
	"fmt"
	"time"
)

// ByteSource yields one byte per call. ok is false when nothing arrived
// within the source's own polling granularity.
type ByteSource interface {
	PollByte() (b byte, ok bool, err error)
}

// Clock supplies the time used for deadline checks.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now()
func (SystemClock) Now() time.Time {
	return time.Now()
}

// State is the assembler's position in the frame grammar
type State int

const (
	// StateSeekingStart discards bytes until a flag is seen
	StateSeekingStart State = iota
	// StateOpened has seen a flag and skips further consecutive flags
	StateOpened
	// StateInFrame collects body bytes until the closing flag
	StateInFrame
	// StateDone holds a complete frame
	StateDone
	// StateTimedOut means the deadline passed before the frame closed
	StateTimedOut
	// StateOverflow means the frame grew past the length limit
	StateOverflow
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateSeekingStart:
		return "seeking_start"
	case StateOpened:
		return "opened"
	case StateInFrame:
		return "in_frame"
	case StateDone:
		return "done"
	case StateTimedOut:
		return "timed_out"
	case StateOverflow:
		return "overflow"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Step is the result of advancing the assembler
type Step int

const (
	StepContinue Step = iota
	StepDone
	StepFailed
)

// Assembler is a byte-fed state machine that produces one raw frame,
// flags included. It holds no clock or transport; callers advance it with
// Tick before each read attempt and Feed for each byte received.
type Assembler struct {
	deadline time.Time
	err      error
	buf      []byte
	maxLen   int
	state    State
}

// NewAssembler creates an assembler that fails once deadline has passed.
// maxLen <= 0 selects DefaultMaxFrameLength.
func NewAssembler(deadline time.Time, maxLen int) *Assembler {
	if maxLen <= 0 {
		maxLen = DefaultMaxFrameLength
	}
	return &Assembler{
		deadline: deadline,
		maxLen:   maxLen,
		state:    StateSeekingStart,
	}
}

// State returns the current state
func (a *Assembler) State() State {
	return a.state
}

// Frame returns the assembled frame once Feed has returned StepDone
func (a *Assembler) Frame() []byte {
	if a.state != StateDone {
		return nil
	}
	return a.buf
}

// Err returns the failure reason once a step has returned StepFailed
func (a *Assembler) Err() error {
	return a.err
}

// Tick checks the deadline against now. It must be called before every
// read attempt so that a silent source cannot hold the assembler open.
func (a *Assembler) Tick(now time.Time) Step {
	if terminal, step := a.terminal(); terminal {
		return step
	}
	if now.Before(a.deadline) {
		return StepContinue
	}
	a.fail(StateTimedOut, fmt.Errorf("%w: %s after deadline", ErrTimeout, a.state))
	return StepFailed
}

// Feed advances the state machine by one received byte.
func (a *Assembler) Feed(b byte) Step {
	if terminal, step := a.terminal(); terminal {
		return step
	}

	switch a.state {
	case StateSeekingStart:
		if b == Flag {
			a.state = StateOpened
		}
		return StepContinue

	case StateOpened:
		if b == Flag {
			// idle fill or back-to-back frames
			return StepContinue
		}
		a.buf = append(a.buf[:0], Flag, b)
		a.state = StateInFrame
		return a.checkLength()

	case StateInFrame:
		a.buf = append(a.buf, b)
		if b == Flag {
			a.state = StateDone
			return StepDone
		}
		return a.checkLength()

	default:
		return StepFailed
	}
}

func (a *Assembler) checkLength() Step {
	if len(a.buf) < a.maxLen {
		return StepContinue
	}
	a.fail(StateOverflow, fmt.Errorf("%w: exceeded %d bytes", ErrFrameTooLarge, a.maxLen))
	return StepFailed
}

func (a *Assembler) fail(state State, err error) {
	a.state = state
	a.err = err
	a.buf = nil
}

func (a *Assembler) terminal() (bool, Step) {
	switch a.state {
	case StateDone:
		return true, StepDone
	case StateTimedOut, StateOverflow:
		return true, StepFailed
	default:
		return false, StepContinue
	}
}

// Assemble drives an Assembler from src until a frame closes, the
// deadline passes, ctx is done or src fails. Source errors are returned
// unwrapped so callers can classify them.
func Assemble(ctx context.Context, src ByteSource, clock Clock, deadline time.Time, maxLen int) ([]byte, error) {
	if clock == nil {
		clock = SystemClock{}
	}
	asm := NewAssembler(deadline, maxLen)

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("frame assembly cancelled: %w", ctx.Err())
		default:
		}

		if asm.Tick(clock.Now()) == StepFailed {
			return nil, asm.Err()
		}

		b, ok, err := src.PollByte()
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		switch asm.Feed(b) {
		case StepDone:
			return asm.Frame(), nil
		case StepFailed:
			return nil, asm.Err()
		case StepContinue:
		}
	}
}
