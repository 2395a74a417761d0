// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// DefaultLockFileName is the PID/lock file the daemon holds while it runs.
const DefaultLockFileName = "holdtotalkd.lock"

// LockFile is a flock-backed singleton guard: the daemon writes its PID
// under an exclusive lock, and a second instance sees EWOULDBLOCK.
type LockFile struct {
	path string
	file *os.File
}

func NewLockFile(path string) *LockFile {
	return &LockFile{path: path}
}

// GetDefaultLockPath places the lock under the per-user XDG runtime
// directory, the configured fallback directory, or the system temp dir,
// in that order.
func GetDefaultLockPath(fallbackDir string) string {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return filepath.Join(runtimeDir, DefaultLockFileName)
	}
	if fallbackDir != "" {
		return filepath.Join(fallbackDir, DefaultLockFileName)
	}
	return filepath.Join(os.TempDir(), DefaultLockFileName)
}

// TryLock acquires the exclusive lock and records the current PID, or
// fails if another live process holds it.
func (lf *LockFile) TryLock() error {
	if err := os.MkdirAll(filepath.Dir(lf.path), 0o700); err != nil {
		return fmt.Errorf("creating lock directory: %w", err)
	}

	file, err := os.OpenFile(lf.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating lock file: %w", err)
	}
	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = file.Close()
		if err == syscall.EWOULDBLOCK {
			return fmt.Errorf("another instance of holdtotalkd is already running")
		}
		return fmt.Errorf("acquiring lock: %w", err)
	}
	if _, err := file.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		_ = file.Close()
		return fmt.Errorf("writing PID to lock file: %w", err)
	}

	lf.file = file
	return nil
}

// Unlock releases the lock and removes the file. Safe to call when the
// lock was never acquired.
func (lf *LockFile) Unlock() error {
	if lf.file == nil {
		return nil
	}
	_ = syscall.Flock(int(lf.file.Fd()), syscall.LOCK_UN)
	if err := lf.file.Close(); err != nil {
		return fmt.Errorf("closing lock file: %w", err)
	}
	lf.file = nil

	if err := os.Remove(lf.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing lock file: %w", err)
	}
	return nil
}

// CheckExistingInstance reads the PID recorded in the lock file and
// reports whether that process is still a running holdtotalkd. A missing
// or stale lock file reads as "not running".
func (lf *LockFile) CheckExistingInstance() (bool, int, error) {
	data, err := os.ReadFile(lf.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("reading lock file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return false, 0, nil // stale or corrupt lock file
	}
	if isDaemonProcess(pid) {
		return true, pid, nil
	}
	return false, pid, nil
}

// isDaemonProcess reports whether pid is alive and its command line names
// this daemon (direct execution or an AppImage wrapper).
func isDaemonProcess(pid int) bool {
	if pid <= 0 || pid > 4194304 {
		return false
	}
	if err := syscall.Kill(pid, 0); err != nil {
		return false
	}
	cmdlineData, err := os.ReadFile(fmt.Sprintf("/proc/%d/cmdline", pid)) // #nosec G304 -- pid is range-checked above
	if err != nil {
		return false
	}
	cmdline := strings.TrimSpace(strings.ReplaceAll(string(cmdlineData), "\x00", " "))
	return strings.Contains(cmdline, "holdtotalkd") || strings.Contains(cmdline, "AppRun")
}
