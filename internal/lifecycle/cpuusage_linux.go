// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

//go:build linux

package lifecycle

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// clockTicksPerSec is sysconf(_SC_CLK_TCK), which is 100 on every Linux
// platform this daemon targets (x86_64, arm64); reading it from sysconf
// itself would need cgo, which this package otherwise avoids.
const clockTicksPerSec = 100

// processCPUSeconds reads this process's accumulated user+system CPU time
// from /proc/self/stat. ok is false if the file can't be read or parsed
// (e.g. a non-Linux /proc shim), in which case the caller reports 0.
func processCPUSeconds() (seconds float64, ok bool) {
	f, err := os.Open("/proc/self/stat")
	if err != nil {
		return 0, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return 0, false
	}
	line := scanner.Text()

	// The comm field is parenthesized and may itself contain spaces or
	// parens, so split on the last ')' rather than whitespace.
	paren := strings.LastIndex(line, ")")
	if paren < 0 || paren+2 >= len(line) {
		return 0, false
	}
	fields := strings.Fields(line[paren+2:])
	// fields[0] is proc(3) state; utime is proc(14) -> index 11, stime is
	// proc(15) -> index 12.
	if len(fields) < 13 {
		return 0, false
	}
	utime, err1 := strconv.ParseInt(fields[11], 10, 64)
	stime, err2 := strconv.ParseInt(fields[12], 10, 64)
	if err1 != nil || err2 != nil {
		return 0, false
	}
	return float64(utime+stime) / float64(clockTicksPerSec), true
}
