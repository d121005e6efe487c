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
	"github.com/ZaparooProject/go-serialmsg/transport/uart"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func portRows(ports []uart.PortInfo) [][]string {
	rows := [][]string{{"Path", "VID:PID", "Product", "Serial"}}
	for _, p := range ports {
		vidpid := p.VIDPID
		if vidpid == "" {
			vidpid = "-"
		}
		rows = append(rows, []string{p.Path, vidpid, p.Product, p.SerialNumber})
	}
	return rows
}

func newPortsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ports, err := uart.ListPorts()
			if err != nil {
				return err
			}
			ports = uart.FilterPorts(ports, a.cfg.Blocklist)

			if len(ports) == 0 {
				pterm.Info.Println("No serial ports found")
				return nil
			}
			return pterm.DefaultTable.WithHasHeader().WithData(portRows(ports)).Render()
		},
	}
}
