// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

// Package indicator maintains a small state file describing the
// daemon's current activity (idle/recording/processing) for desktop
// shells or status bars to poll, written atomically so a reader never
// observes a partial write.
package indicator

import (
	"fmt"
	"os"
	"path/filepath"
)

// State is the daemon's current activity, as seen by external readers.
type State string

const (
	StateIdle       State = "idle"
	StateRecording  State = "recording"
	StateProcessing State = "processing"
)

// Indicator writes State to a file via a temp-file-then-rename so the
// file content is always one of the known states, never a torn write.
type Indicator struct {
	path string
}

// New returns an Indicator backed by a file at path. The containing
// directory must already exist.
func New(path string) *Indicator {
	return &Indicator{path: path}
}

// Set atomically overwrites the state file with s.
func (ind *Indicator) Set(s State) error {
	dir := filepath.Dir(ind.path)
	tmp, err := os.CreateTemp(dir, ".indicator-*")
	if err != nil {
		return fmt.Errorf("indicator: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(string(s)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("indicator: writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("indicator: closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("indicator: setting permissions: %w", err)
	}

	if err := os.Rename(tmpPath, ind.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("indicator: renaming into place: %w", err)
	}
	return nil
}

// Get reads the current state. A missing file reads as StateIdle, since
// that's the daemon's state before the first write.
func (ind *Indicator) Get() (State, error) {
	data, err := os.ReadFile(ind.path)
	if err != nil {
		if os.IsNotExist(err) {
			return StateIdle, nil
		}
		return "", fmt.Errorf("indicator: reading state file: %w", err)
	}
	return State(data), nil
}

// Remove deletes the state file, ignoring a not-exist error.
func (ind *Indicator) Remove() error {
	if err := os.Remove(ind.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("indicator: removing state file: %w", err)
	}
	return nil
}
