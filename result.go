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

import "fmt"

// Outcome describes what a successfully assembled frame turned into
type Outcome int

const (
	// OutcomeNone accompanies every error returned by Messenger.ReadValue
	OutcomeNone Outcome = iota
	// OutcomeAccepted means the checksum matched and the payload is valid
	OutcomeAccepted
	// OutcomeUnverified means the checksum did not match but the checksum
	// policy is disabled, so the payload is returned anyway
	OutcomeUnverified
	// OutcomeRejected means the checksum did not match and the frame was
	// dropped; the caller can simply read again
	OutcomeRejected
)

// String returns the outcome name
func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeAccepted:
		return "accepted"
	case OutcomeUnverified:
		return "unverified"
	case OutcomeRejected:
		return "rejected"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the record of one Read call
type Result struct {
	serializer Serializer

	// Payload holds the serialized payload bytes. Nil when rejected.
	Payload []byte
	// Frame holds the raw frame as read, flags included
	Frame []byte

	ReceivedChecksum uint32
	ComputedChecksum uint32
	Outcome          Outcome
}

// ChecksumOK reports whether the embedded checksum matched the payload
func (r *Result) ChecksumOK() bool {
	return r.ReceivedChecksum == r.ComputedChecksum
}

// Err returns ErrChecksumMismatch for rejected results and nil otherwise
func (r *Result) Err() error {
	if r.Outcome == OutcomeRejected {
		return fmt.Errorf("%w: received %08x, computed %08x",
			ErrChecksumMismatch, r.ReceivedChecksum, r.ComputedChecksum)
	}
	return nil
}

// Decode deserializes the payload into v
func (r *Result) Decode(v any) error {
	if err := r.Err(); err != nil {
		return err
	}
	if r.serializer == nil {
		return fmt.Errorf("%w: result has no serializer", ErrInvalidParameter)
	}
	if err := r.serializer.Unmarshal(r.Payload, v); err != nil {
		return fmt.Errorf("%w: payload: %w", ErrDeserialization, err)
	}
	return nil
}

// Value deserializes the payload into a generic value
func (r *Result) Value() (any, error) {
	var v any
	if err := r.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
