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
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	serialmsg "github.com/ZaparooProject/go-serialmsg"
	"github.com/ZaparooProject/go-serialmsg/listen"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var errCountReached = errors.New("message count reached")

// formatResult renders a payload as its decoded value, falling back to hex
// for payloads that were sent as raw bytes
func formatResult(result *serialmsg.Result) string {
	v, err := result.Value()
	if err != nil {
		return fmt.Sprintf("% X", result.Payload)
	}
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", v)
}

func newRecvCommand(a *app) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "recv",
		Short: "Print received messages until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			messenger, err := a.openMessenger()
			if err != nil {
				return err
			}
			defer func() { _ = messenger.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithCancelCause(ctx)
			defer cancel(nil)

			received := 0
			lcfg := listen.DefaultConfig()
			lcfg.ReadTimeout = a.cfg.Timeout
			lcfg.Logger = a.logger

			listener, err := listen.New(messenger, lcfg, listen.Callbacks{
				OnMessage: func(result *serialmsg.Result) error {
					if result.Outcome == serialmsg.OutcomeUnverified {
						pterm.Warning.Println("unverified: " + formatResult(result))
					} else {
						pterm.Success.Println(formatResult(result))
					}
					received++
					if count > 0 && received >= count {
						cancel(errCountReached)
					}
					return nil
				},
				OnRejected: func(result *serialmsg.Result) {
					a.logger.Warn().Err(result.Err()).Msg("frame dropped")
				},
				OnError: func(err error) {
					a.logger.Error().Err(err).Msg("read failed")
				},
			})
			if err != nil {
				return err
			}

			err = listener.Run(ctx)
			m := listener.GetMetrics()
			a.logger.Info().
				Int64("accepted", m.FramesAccepted).
				Int64("unverified", m.FramesUnverified).
				Int64("rejected", m.FramesRejected).
				Int64("errors", m.ReadErrors).
				Msg("receive stopped")

			if errors.Is(context.Cause(ctx), errCountReached) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Stop after this many messages (0 = unlimited)")
	return cmd
}
