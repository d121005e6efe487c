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

/*
Package serialmsg sends structured values over unreliable byte streams such
as serial links, using a small HDLC-style framing protocol.

Each value is serialized (CBOR by default), paired with a CRC-32 of the
serialized bytes, serialized again as a two-element envelope, escaped so
that the reserved bytes 0x7E (flag) and 0x7D (escape) never appear inside
the body, and wrapped in flag bytes:

	0x7E <escaped cbor([payload, crc32])> 0x7E

On receive, bytes are polled one at a time. Noise before a frame and
repeated idle flags are skipped, and a read gives up once its timeout
passes. A frame is only accepted if its checksum matches.

Basic Usage:

	import (
	    "github.com/ZaparooProject/go-serialmsg"
	    "github.com/ZaparooProject/go-serialmsg/transport/uart"
	)

	transport, err := uart.New("/dev/ttyUSB0", uart.WithBaudRate(9600))
	if err != nil {
	    log.Fatal(err)
	}

	messenger, err := serialmsg.New(transport,
	    serialmsg.WithTimeout(2*time.Second),
	)
	if err != nil {
	    log.Fatal(err)
	}
	defer messenger.Close()

	if err := messenger.Write(map[string]any{"a": []int{1, 2, 3}}); err != nil {
	    log.Fatal(err)
	}

	result, err := messenger.Read()
	if err != nil {
	    log.Fatal(err)
	}

	var msg map[string]any
	if err := result.Decode(&msg); err != nil {
	    log.Fatal(err)
	}

Read Outcomes:

A Read either fails with an error or returns a Result. Results carry an
Outcome:

  - OutcomeAccepted: checksum matched
  - OutcomeUnverified: checksum mismatch, payload kept because the
    checksum policy is disabled (WithRequireChecksumMatch(false))
  - OutcomeRejected: checksum mismatch, payload dropped; read again

ReadValue reports OutcomeNone alongside any error.

Error Handling:

	if errors.Is(err, serialmsg.ErrTimeout) {
	    // nothing complete arrived
	}

Hard protocol errors (ErrFrameTooShort, ErrMalformedEscape,
ErrDeserialization) and read failures (*TransportError) are returned to
the caller. Writes are retried only when WithRetryConfig or
WithMaxRetries is set, and only for retryable transport errors.

Thread Safety:

Read and Write on one Messenger are serialized internally. A transport
must not be shared between Messengers.
*/
package serialmsg
