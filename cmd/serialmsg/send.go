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
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type valueFormat string

const (
	formatText valueFormat = "text"
	formatJSON valueFormat = "json"
	formatHex  valueFormat = "hex"
)

// parseValue turns a command-line argument into the value to send.
// Hex values are sent as raw payload bytes without serialization.
func parseValue(arg string, format valueFormat) (any, error) {
	switch format {
	case formatText:
		return arg, nil
	case formatJSON:
		var v any
		if err := json.Unmarshal([]byte(arg), &v); err != nil {
			return nil, fmt.Errorf("invalid JSON value: %w", err)
		}
		return v, nil
	case formatHex:
		data, err := hex.DecodeString(strings.ReplaceAll(arg, " ", ""))
		if err != nil {
			return nil, fmt.Errorf("invalid hex value: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unknown format %q (want text, json or hex)", format)
	}
}

func newSendCommand(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "send VALUE...",
		Short: "Send each argument as one framed message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values := make([]any, 0, len(args))
			for _, arg := range args {
				v, err := parseValue(arg, valueFormat(format))
				if err != nil {
					return err
				}
				values = append(values, v)
			}

			messenger, err := a.openMessenger()
			if err != nil {
				return err
			}
			defer func() { _ = messenger.Close() }()

			for _, v := range values {
				if err := messenger.WriteContext(cmd.Context(), v); err != nil {
					return fmt.Errorf("send failed: %w", err)
				}
				a.logger.Info().Int("frame_bytes", len(messenger.LastFrameWritten())).Msg("message sent")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(formatText), "Value format: text, json or hex")
	return cmd
}
