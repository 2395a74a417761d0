// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

//go:build linux

package lifecycle

import (
	"fmt"
	"net"
	"syscall"
)

// peerUID returns the effective UID of the process on the other end of a
// Unix domain socket connection, via SO_PEERCRED.
func peerUID(conn net.Conn) (uint32, error) {
	uc, ok := conn.(*net.UnixConn)
	if !ok {
		return 0, fmt.Errorf("lifecycle: connection is not a unix socket")
	}

	raw, err := uc.SyscallConn()
	if err != nil {
		return 0, fmt.Errorf("lifecycle: obtaining raw conn: %w", err)
	}

	var cred *syscall.Ucred
	var sockErr error
	err = raw.Control(func(fd uintptr) {
		cred, sockErr = syscall.GetsockoptUcred(int(fd), syscall.SOL_SOCKET, syscall.SO_PEERCRED)
	})
	if err != nil {
		return 0, err
	}
	if sockErr != nil {
		return 0, fmt.Errorf("lifecycle: SO_PEERCRED: %w", sockErr)
	}
	return cred.Uid, nil
}
