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
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ZaparooProject/go-serialmsg/transport/uart"
)

type config struct {
	Port            string
	Address         string
	LogLevel        string
	Blocklist       []string
	Baud            int
	Timeout         time.Duration
	PollTimeout     time.Duration
	MaxAttempts     int
	RequireChecksum bool
}

type fileConfig struct {
	Port            string   `toml:"port"`
	Address         string   `toml:"address"`
	Baud            int      `toml:"baud"`
	Timeout         string   `toml:"timeout"`
	PollTimeout     string   `toml:"poll_timeout"`
	RequireChecksum bool     `toml:"require_checksum"`
	MaxAttempts     int      `toml:"max_write_attempts"`
	LogLevel        string   `toml:"log_level"`
	Blocklist       []string `toml:"blocklist"`
}

func defaultConfig() config {
	return config{
		Baud:            uart.DefaultBaudRate,
		Timeout:         time.Second,
		PollTimeout:     uart.DefaultPollTimeout,
		MaxAttempts:     3,
		RequireChecksum: true,
		LogLevel:        "info",
	}
}

// loadConfigFile overlays the keys defined in path onto cfg
func loadConfigFile(path string, cfg config) (config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load config: %w", err)
	}
	return applyFileConfig(meta, raw, cfg)
}

func applyFileConfig(meta toml.MetaData, raw fileConfig, cfg config) (config, error) {
	if meta.IsDefined("port") {
		cfg.Port = strings.TrimSpace(raw.Port)
	}

	if meta.IsDefined("address") {
		cfg.Address = strings.TrimSpace(raw.Address)
	}

	if meta.IsDefined("baud") {
		if raw.Baud <= 0 {
			return config{}, fmt.Errorf("baud must be positive, got %d", raw.Baud)
		}
		cfg.Baud = raw.Baud
	}

	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return config{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}

	if meta.IsDefined("poll_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.PollTimeout))
		if err != nil {
			return config{}, fmt.Errorf("parse poll_timeout: %w", err)
		}
		cfg.PollTimeout = d
	}

	if meta.IsDefined("require_checksum") {
		cfg.RequireChecksum = raw.RequireChecksum
	}

	if meta.IsDefined("max_write_attempts") {
		cfg.MaxAttempts = raw.MaxAttempts
	}

	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if meta.IsDefined("blocklist") {
		cfg.Blocklist = raw.Blocklist
	}

	return cfg, nil
}
