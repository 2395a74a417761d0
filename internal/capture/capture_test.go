// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package capture

import (
	"math"
	"testing"
	"time"
)

func TestConfigValidateRejectsBadSampleRate(t *testing.T) {
	cfg := Config{Device: "default", SampleRate: 12345, ChunkDurationMs: 100, RingBufferSecs: 2}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unsupported sample rate")
	}
}

func TestConfigValidateAcceptsDefaults(t *testing.T) {
	cfg := Config{Device: "default", SampleRate: 16000, ChunkDurationMs: 100, RingBufferSecs: 2}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestMockSourceProducesFixedSizeChunksAtTargetRate(t *testing.T) {
	sine := make([]float32, 48000*2) // 2s at 48kHz native
	for i := range sine {
		sine[i] = float32(math.Sin(2 * math.Pi * 440 * float64(i) / 48000))
	}

	src := NewMockSource(sine, 48000)
	cfg := Config{Device: "default", SampleRate: 16000, ChunkDurationMs: 100, RingBufferSecs: 2}
	r, err := src.Start(cfg)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer src.Stop()

	wantSamples := cfg.ChunkSamples()
	seen := 0
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		chunk, ok := r.Recv()
		if !ok {
			break
		}
		if len(chunk.Samples) == 0 {
			// ring open but momentarily empty
			time.Sleep(time.Millisecond)
			continue
		}
		if len(chunk.Samples) != wantSamples {
			t.Fatalf("chunk %d: got %d samples, want %d", seen, len(chunk.Samples), wantSamples)
		}
		if chunk.SampleRate != cfg.SampleRate {
			t.Fatalf("chunk %d: sample rate %d, want %d", seen, chunk.SampleRate, cfg.SampleRate)
		}
		seen++
	}
	if seen == 0 {
		t.Error("expected at least one chunk to be produced")
	}
}
