// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package indicator

import (
	"path/filepath"
	"testing"
)

func TestGetOnMissingFileReturnsIdle(t *testing.T) {
	ind := New(filepath.Join(t.TempDir(), "state"))
	s, err := ind.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s != StateIdle {
		t.Errorf("expected StateIdle for missing file, got %q", s)
	}
}

func TestSetThenGetRoundTrips(t *testing.T) {
	ind := New(filepath.Join(t.TempDir(), "state"))

	if err := ind.Set(StateRecording); err != nil {
		t.Fatalf("Set: %v", err)
	}
	s, err := ind.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s != StateRecording {
		t.Errorf("got %q, want %q", s, StateRecording)
	}
}

func TestSetOverwritesPreviousState(t *testing.T) {
	ind := New(filepath.Join(t.TempDir(), "state"))

	_ = ind.Set(StateRecording)
	if err := ind.Set(StateProcessing); err != nil {
		t.Fatalf("Set: %v", err)
	}
	s, _ := ind.Get()
	if s != StateProcessing {
		t.Errorf("got %q, want %q", s, StateProcessing)
	}
}

func TestRemoveOnMissingFileDoesNotError(t *testing.T) {
	ind := New(filepath.Join(t.TempDir(), "state"))
	if err := ind.Remove(); err != nil {
		t.Errorf("Remove on missing file should not error, got %v", err)
	}
}
