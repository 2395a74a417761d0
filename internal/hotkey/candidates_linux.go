//go:build linux

// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package hotkey

import "github.com/holdtotalk/daemon/internal/logger"

// candidateProviders orders evdev ahead of the D-Bus portal: evdev needs
// no desktop consent dialog and works in a plain TTY session, but
// requires the process to have access to /dev/input.
func candidateProviders(combo Combo, log logger.Logger) []Provider {
	return []Provider{
		NewEvdevProvider(combo, log),
		NewDbusProvider(combo, log),
		NewDummyProvider(),
	}
}
