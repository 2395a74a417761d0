// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

//go:build !linux

package lifecycle

// processCPUSeconds has no portable implementation without cgo on
// non-Linux platforms, so CPUUsagePercent is reported as 0 there.
func processCPUSeconds() (seconds float64, ok bool) {
	return 0, false
}
