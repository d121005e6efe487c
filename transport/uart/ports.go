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

package uart

import (
	"fmt"
	"sort"
	"strings"

	"go.bug.st/serial/enumerator"
)

// PortInfo describes a serial port found on the system
type PortInfo struct {
	Path         string
	VIDPID       string
	SerialNumber string
	Product      string
	IsUSB        bool
}

// ListPorts returns the serial ports present on the system, sorted by path
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	return toPortInfo(details), nil
}

func toPortInfo(details []*enumerator.PortDetails) []PortInfo {
	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		if d == nil {
			continue
		}
		info := PortInfo{
			Path:         d.Name,
			IsUSB:        d.IsUSB,
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
		}
		if d.IsUSB && d.VID != "" && d.PID != "" {
			info.VIDPID = strings.ToUpper(d.VID + ":" + d.PID)
		}
		ports = append(ports, info)
	}
	sort.Slice(ports, func(i, j int) bool {
		return ports[i].Path < ports[j].Path
	})
	return ports
}

// FilterPorts drops ports whose VID:PID appears in blocklist
// (case-insensitive, "1234:ABCD" format)
func FilterPorts(ports []PortInfo, blocklist []string) []PortInfo {
	if len(blocklist) == 0 {
		return ports
	}
	blocked := make(map[string]struct{}, len(blocklist))
	for _, entry := range blocklist {
		blocked[strings.ToUpper(strings.TrimSpace(entry))] = struct{}{}
	}

	kept := ports[:0:0]
	for _, p := range ports {
		if _, ok := blocked[p.VIDPID]; ok && p.VIDPID != "" {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}
