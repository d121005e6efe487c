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

import "fmt"

// EscapeBytes hides every Flag and Escape byte in data behind an Escape
// prefix, masking the original with EscapeMask.
func EscapeBytes(data []byte) []byte {
	out := make([]byte, 0, len(data)+len(data)/8)
	for _, b := range data {
		if b == Flag || b == Escape {
			out = append(out, Escape, b^EscapeMask)
			continue
		}
		out = append(out, b)
	}
	return out
}

// UnescapeBytes reverses EscapeBytes. Flags are expected to be stripped by
// the caller already. A trailing Escape byte is reported as
// ErrMalformedEscape.
func UnescapeBytes(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data))
	pending := false
	for _, b := range data {
		if pending {
			out = append(out, b^EscapeMask)
			pending = false
			continue
		}
		if b == Escape {
			pending = true
			continue
		}
		out = append(out, b)
	}
	if pending {
		return nil, fmt.Errorf("%w: escape byte at end of body", ErrMalformedEscape)
	}
	return out, nil
}
