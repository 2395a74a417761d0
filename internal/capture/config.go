// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

// Package capture opens a mono audio input device, adapts its native
// sample format to 32-bit float, accumulates samples into fixed-duration
// chunks, resamples to the pipeline rate, and feeds a bounded SPSC ring.
package capture

import "fmt"

// Config is the validated capture configuration: device selector, target
// sample rate, chunk duration, and ring buffer sizing.
type Config struct {
	Device          string  `yaml:"device"`
	SampleRate      int     `yaml:"sample_rate"`
	ChunkDurationMs int     `yaml:"chunk_duration_ms"`
	RingBufferSecs  float64 `yaml:"ring_buffer_secs"`
}

// Validate checks Config's bounds per the data model: sample rate in the
// fixed set, chunk duration in [10, 1000]ms, ring capacity in [1, 60]s.
func (c Config) Validate() error {
	switch c.SampleRate {
	case 8000, 16000, 22050, 44100, 48000:
	default:
		return fmt.Errorf("capture: sample rate %d not in {8000,16000,22050,44100,48000}", c.SampleRate)
	}
	if c.ChunkDurationMs < 10 || c.ChunkDurationMs > 1000 {
		return fmt.Errorf("capture: chunk duration %dms out of [10,1000]", c.ChunkDurationMs)
	}
	if c.RingBufferSecs < 1 || c.RingBufferSecs > 60 {
		return fmt.Errorf("capture: ring buffer %vs out of [1,60]", c.RingBufferSecs)
	}
	if c.Device == "" {
		return fmt.Errorf("capture: device selector must not be empty")
	}
	return nil
}

// ChunkSamples returns the number of samples per chunk at the target rate.
func (c Config) ChunkSamples() int {
	return c.SampleRate * c.ChunkDurationMs / 1000
}
