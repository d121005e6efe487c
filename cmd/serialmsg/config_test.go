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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeConfig(t *testing.T, doc string) (config, error) {
	t.Helper()
	var raw fileConfig
	meta, err := toml.Decode(doc, &raw)
	require.NoError(t, err)
	return applyFileConfig(meta, raw, defaultConfig())
}

func TestApplyFileConfig(t *testing.T) {
	t.Parallel()
	cfg, err := decodeConfig(t, `
port = " /dev/ttyUSB0 "
baud = 115200
timeout = "250ms"
poll_timeout = "20ms"
require_checksum = false
max_write_attempts = 5
log_level = "debug"
blocklist = ["1A86:7523"]
`)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB0", cfg.Port)
	assert.Equal(t, 115200, cfg.Baud)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
	assert.Equal(t, 20*time.Millisecond, cfg.PollTimeout)
	assert.False(t, cfg.RequireChecksum)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"1A86:7523"}, cfg.Blocklist)
}

func TestApplyFileConfig_KeepsDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := decodeConfig(t, `address = "10.0.0.5:2000"`)
	require.NoError(t, err)

	want := defaultConfig()
	want.Address = "10.0.0.5:2000"
	assert.Equal(t, want, cfg)
}

func TestApplyFileConfig_Invalid(t *testing.T) {
	t.Parallel()
	for name, doc := range map[string]string{
		"zero baud":        `baud = 0`,
		"bad timeout":      `timeout = "soon"`,
		"bad poll timeout": `poll_timeout = "10"`,
	} {
		doc := doc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := decodeConfig(t, doc)
			require.Error(t, err)
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "serialmsg.toml")
	require.NoError(t, os.WriteFile(path, []byte(`port = "COM3"`), 0o600))

	cfg, err := loadConfigFile(path, defaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "COM3", cfg.Port)

	_, err = loadConfigFile(filepath.Join(t.TempDir(), "missing.toml"), defaultConfig())
	require.Error(t, err)
}

func TestMergeFlags(t *testing.T) {
	t.Parallel()
	root := newRootCommand()
	require.NoError(t, root.ParseFlags([]string{"--port", "/dev/ttyACM0", "--timeout", "3s"}))

	fromFlags := defaultConfig()
	fromFlags.Port = "/dev/ttyACM0"
	fromFlags.Timeout = 3 * time.Second

	fromFile := defaultConfig()
	fromFile.Port = "/dev/ttyS0"
	fromFile.Baud = 57600

	merged := mergeFlags(root, fromFlags, fromFile)
	assert.Equal(t, "/dev/ttyACM0", merged.Port, "explicit flags win")
	assert.Equal(t, 3*time.Second, merged.Timeout)
	assert.Equal(t, 57600, merged.Baud, "file fills flags left at default")
}

func TestParseValue(t *testing.T) {
	t.Parallel()
	tests := []struct {
		want    any
		name    string
		arg     string
		format  valueFormat
		wantErr bool
	}{
		{name: "text", arg: "Hello World", format: formatText, want: "Hello World"},
		{
			name: "json", arg: `{"b":{"c":"Hello World"}}`, format: formatJSON,
			want: map[string]any{"b": map[string]any{"c": "Hello World"}},
		},
		{name: "hex", arg: "7e 7d 00", format: formatHex, want: []byte{0x7E, 0x7D, 0x00}},
		{name: "bad json", arg: "{", format: formatJSON, wantErr: true},
		{name: "bad hex", arg: "zz", format: formatHex, wantErr: true},
		{name: "unknown format", arg: "x", format: "yaml", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseValue(tt.arg, tt.format)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPortRows(t *testing.T) {
	t.Parallel()
	rows := portRows(nil)
	require.Len(t, rows, 1, "header only")
}
