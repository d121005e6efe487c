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

// Command serialmsg sends and receives framed messages over a serial port
// or a TCP serial server.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	serialmsg "github.com/ZaparooProject/go-serialmsg"
	"github.com/ZaparooProject/go-serialmsg/transport/stream"
	"github.com/ZaparooProject/go-serialmsg/transport/uart"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const dialTimeout = 5 * time.Second

type app struct {
	logger     zerolog.Logger
	configPath string
	cfg        config
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "serialmsg: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{cfg: defaultConfig()}

	root := &cobra.Command{
		Use:           "serialmsg",
		Short:         "Send and receive framed messages over a serial link",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "TOML config file")
	flags.StringVarP(&a.cfg.Port, "port", "p", a.cfg.Port, "Serial device path (e.g., /dev/ttyUSB0 or COM3)")
	flags.StringVar(&a.cfg.Address, "address", a.cfg.Address, "TCP serial server address (host:port), used instead of --port")
	flags.IntVarP(&a.cfg.Baud, "baud", "b", a.cfg.Baud, "Baud rate")
	flags.DurationVarP(&a.cfg.Timeout, "timeout", "t", a.cfg.Timeout, "Frame read timeout")
	flags.DurationVar(&a.cfg.PollTimeout, "poll-timeout", a.cfg.PollTimeout, "Single byte read timeout")
	flags.BoolVar(&a.cfg.RequireChecksum, "require-checksum", a.cfg.RequireChecksum,
		"Drop frames whose checksum does not match")
	flags.IntVar(&a.cfg.MaxAttempts, "max-write-attempts", a.cfg.MaxAttempts, "Attempts per frame write")
	flags.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "Log level (debug, info, warn, error)")

	root.AddCommand(
		newSendCommand(a),
		newRecvCommand(a),
		newPortsCommand(a),
		newEchoCommand(a),
	)
	return root
}

// init merges the config file under explicitly set flags and builds the logger
func (a *app) init(cmd *cobra.Command) error {
	if a.configPath != "" {
		fromFile, err := loadConfigFile(a.configPath, defaultConfig())
		if err != nil {
			return err
		}
		a.cfg = mergeFlags(cmd, a.cfg, fromFile)
	}

	level, err := zerolog.ParseLevel(a.cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", a.cfg.LogLevel, err)
	}
	a.logger = initLogger(level)
	return nil
}

// mergeFlags keeps flag values the user set and takes the rest from file
func mergeFlags(cmd *cobra.Command, fromFlags, fromFile config) config {
	merged := fromFile
	changed := func(name string) bool {
		return cmd.Flags().Changed(name)
	}
	if changed("port") {
		merged.Port = fromFlags.Port
	}
	if changed("address") {
		merged.Address = fromFlags.Address
	}
	if changed("baud") {
		merged.Baud = fromFlags.Baud
	}
	if changed("timeout") {
		merged.Timeout = fromFlags.Timeout
	}
	if changed("poll-timeout") {
		merged.PollTimeout = fromFlags.PollTimeout
	}
	if changed("require-checksum") {
		merged.RequireChecksum = fromFlags.RequireChecksum
	}
	if changed("max-write-attempts") {
		merged.MaxAttempts = fromFlags.MaxAttempts
	}
	if changed("log-level") {
		merged.LogLevel = fromFlags.LogLevel
	}
	return merged
}

func initLogger(level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(level).With().Timestamp().Str("app", "serialmsg").Logger()
}

// openTransport opens the TCP stream when an address is set, else the port
func (a *app) openTransport() (serialmsg.Transport, error) {
	if a.cfg.Address != "" {
		t, err := stream.Dial(a.cfg.Address, dialTimeout)
		if err != nil {
			return nil, err
		}
		if err := t.SetTimeout(a.cfg.PollTimeout); err != nil {
			_ = t.Close()
			return nil, err
		}
		return t, nil
	}

	if a.cfg.Port == "" {
		return nil, errors.New("no device: set --port or --address")
	}
	t, err := uart.New(a.cfg.Port,
		uart.WithBaudRate(a.cfg.Baud),
		uart.WithPollTimeout(a.cfg.PollTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create UART transport: %w", err)
	}
	return t, nil
}

func (a *app) openMessenger() (*serialmsg.Messenger, error) {
	transport, err := a.openTransport()
	if err != nil {
		return nil, err
	}

	messenger, err := serialmsg.New(transport,
		serialmsg.WithTimeout(a.cfg.Timeout),
		serialmsg.WithRequireChecksumMatch(a.cfg.RequireChecksum),
		serialmsg.WithMaxRetries(a.cfg.MaxAttempts),
		serialmsg.WithLogger(a.logger),
	)
	if err != nil {
		_ = transport.Close()
		return nil, err
	}

	a.logger.Debug().
		Str("transport", string(transport.Type())).
		Dur("timeout", a.cfg.Timeout).
		Bool("require_checksum", a.cfg.RequireChecksum).
		Msg("messenger ready")
	return messenger, nil
}
