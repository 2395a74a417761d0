// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/holdtotalk/daemon/internal/errkind"
)

func writeFakeBinary(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-transcriber.sh")
	if err := os.WriteFile(path, []byte(script), 0o700); err != nil {
		t.Fatalf("writing fake binary: %v", err)
	}
	return path
}

func TestExternalCLILoadRejectsMissingBinary(t *testing.T) {
	e := NewExternalCLIRuntime()
	err := e.Load(Config{Binary: "/no/such/transcriber-binary"})
	if !errkind.Is(err, errkind.ModelUnavailable) {
		t.Fatalf("expected ModelUnavailable, got %v", err)
	}
}

func TestExternalCLITranscribeParsesTimestampedOutput(t *testing.T) {
	bin := writeFakeBinary(t, "#!/bin/sh\n"+
		"echo '[00:00:00.000 --> 00:00:01.500]   hello there'\n"+
		"echo '[00:00:01.500 --> 00:00:03.000]   world'\n")

	e := NewExternalCLIRuntime()
	if err := e.Load(Config{Binary: bin, TimeoutSec: 5}); err != nil {
		t.Fatalf("Load: %v", err)
	}

	tr, err := e.Transcribe(make([]float32, 1600), RequiredSampleRate)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if tr.Text != "hello there world" {
		t.Errorf("Text = %q, want %q", tr.Text, "hello there world")
	}
}

func TestExternalCLITranscribeKillsOnTimeout(t *testing.T) {
	bin := writeFakeBinary(t, "#!/bin/sh\nsleep 5\n")

	e := NewExternalCLIRuntime()
	if err := e.Load(Config{Binary: bin, TimeoutSec: 1}); err != nil {
		t.Fatalf("Load: %v", err)
	}

	_, err := e.Transcribe(make([]float32, 1600), RequiredSampleRate)
	if !errkind.Is(err, errkind.Transient) {
		t.Fatalf("expected a Transient error on timeout, got %v", err)
	}
}

func TestParseSegmentedOutputIgnoresBlankLines(t *testing.T) {
	out := "\n[00:00:00.000 --> 00:00:01.000] one\n\n[00:00:01.000 --> 00:00:02.000] two\n"
	got := parseSegmentedOutput(out)
	want := "one two "
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
