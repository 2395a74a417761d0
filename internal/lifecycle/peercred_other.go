// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

//go:build !linux

package lifecycle

import (
	"fmt"
	"net"
)

// peerUID is unavailable on non-Linux platforms in this build; the server
// falls back to trusting the filesystem permissions on the socket path.
func peerUID(conn net.Conn) (uint32, error) {
	return 0, fmt.Errorf("lifecycle: peer credential check unsupported on this platform")
}
