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

package main

import (
	"fmt"
	"reflect"

	serialmsg "github.com/ZaparooProject/go-serialmsg"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// echoValues are written and read back on a looped-back link
func echoValues() []any {
	return []any{
		"Hello World",
		map[string]any{
			"a": []any{uint64(1), uint64(2), uint64(3)},
			"b": map[string]any{"c": "Hello World"},
		},
	}
}

// echoOnce writes v, reads the next frame and reports whether the decoded
// value equals v
func echoOnce(messenger *serialmsg.Messenger, v any) (any, bool, error) {
	if err := messenger.Write(v); err != nil {
		return nil, false, fmt.Errorf("write: %w", err)
	}

	result, err := messenger.Read()
	if err != nil {
		return nil, false, fmt.Errorf("read: %w", err)
	}
	if err := result.Err(); err != nil {
		return nil, false, err
	}

	got, err := result.Value()
	if err != nil {
		return nil, false, err
	}
	return got, reflect.DeepEqual(got, v) && messenger.CRCApproved(), nil
}

func newEchoCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "echo",
		Short: "Loopback self-test: write messages and read them back (wire TX to RX)",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			messenger, err := a.openMessenger()
			if err != nil {
				return err
			}
			defer func() { _ = messenger.Close() }()

			failed := 0
			for _, v := range echoValues() {
				got, ok, err := echoOnce(messenger, v)
				if err != nil {
					return err
				}
				if ok {
					pterm.Success.Printfln("%v", got)
				} else {
					failed++
					pterm.Error.Printfln("sent %v, read back %v", v, got)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d messages did not round-trip", failed, len(echoValues()))
			}
			return nil
		},
	}
}
