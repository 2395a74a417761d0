// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package resample

import (
	"math"
	"testing"
)

func TestNewPassthroughAtTargetRate(t *testing.T) {
	r, err := New(TargetSampleRate)
	if err != nil {
		t.Fatalf("New(%d) returned error: %v", TargetSampleRate, err)
	}
	in := []float32{0.1, 0.2, -0.3}
	out := r.Process(in, nil)
	if len(out) != len(in) {
		t.Fatalf("passthrough length = %d, want %d", len(out), len(in))
	}
}

func TestDownsampleProducesExpectedLength(t *testing.T) {
	r, err := New(48000)
	if err != nil {
		t.Fatalf("New(48000) returned error: %v", err)
	}
	in := make([]float32, 4800) // 100ms at 48kHz
	for i := range in {
		in[i] = float32(math.Sin(2 * math.Pi * 440 * float64(i) / 48000))
	}
	out := r.Process(in, nil)
	want := 1600 // 100ms at 16kHz
	if out == nil || abs(len(out)-want) > 2 {
		t.Errorf("downsample length = %d, want ~%d", len(out), want)
	}
}

func TestUpsampleProducesExpectedLength(t *testing.T) {
	r, err := New(8000)
	if err != nil {
		t.Fatalf("New(8000) returned error: %v", err)
	}
	in := make([]float32, 800) // 100ms at 8kHz
	out := r.Process(in, nil)
	want := 1600 // 100ms at 16kHz
	if abs(len(out)-want) > 2 {
		t.Errorf("upsample length = %d, want ~%d", len(out), want)
	}
}

func TestDegenerateConfigIsRejectedNotPassthrough(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Error("New(0) should return an error rather than a degraded passthrough")
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
