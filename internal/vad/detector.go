// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

// Package vad classifies audio chunks as speech or silence and assembles
// classified chunks into speech segments with pre-roll and post-roll
// context.
package vad

import (
	"math"
	"sort"
)

// Decision is the per-chunk classification the detector produces.
type Decision int

const (
	Silence Decision = iota
	Speech
)

func (d Decision) String() string {
	if d == Speech {
		return "speech"
	}
	return "silence"
}

// EnergyConfig configures the energy-based VAD detector.
type EnergyConfig struct {
	Threshold          float64
	MinSpeechChunks    int
	MinSilenceChunks   int
	Adaptive           bool
	AdaptiveWindowSize int
}

// state the detector's two-state hysteresis machine can be in.
type state int

const (
	stateSilence state = iota
	stateSpeech
)

// EnergyDetector classifies chunks as Speech or Silence using RMS energy
// against an adaptive (median-of-recent-RMS) or fixed threshold, debounced
// by a hysteresis counter so a handful of above/below-threshold chunks in
// a row are required before the state flips.
type EnergyDetector struct {
	cfg EnergyConfig

	window       []float64 // sliding window of recent RMS values, oldest first
	windowSorted []float64 // scratch buffer reused for median computation

	st           state
	speechCount  int
	silenceCount int
}

// NewEnergyDetector constructs a detector from cfg. Zero MinSpeechChunks or
// MinSilenceChunks are treated as 1 (no hysteresis).
func NewEnergyDetector(cfg EnergyConfig) *EnergyDetector {
	if cfg.MinSpeechChunks <= 0 {
		cfg.MinSpeechChunks = 1
	}
	if cfg.MinSilenceChunks <= 0 {
		cfg.MinSilenceChunks = 1
	}
	if cfg.AdaptiveWindowSize <= 0 {
		cfg.AdaptiveWindowSize = 1
	}
	return &EnergyDetector{cfg: cfg}
}

// Classify computes RMS for samples, updates the adaptive background
// window, advances the hysteresis state machine, and returns the resulting
// decision for this chunk.
func (d *EnergyDetector) Classify(samples []float32) Decision {
	rms := rms(samples)
	d.pushWindow(rms)

	effective := d.cfg.Threshold
	if d.cfg.Adaptive {
		effective = d.backgroundEstimate() + d.cfg.Threshold
	}

	above := rms > effective

	switch d.st {
	case stateSilence:
		if above {
			d.speechCount++
			d.silenceCount = 0
			if d.speechCount >= d.cfg.MinSpeechChunks {
				d.st = stateSpeech
				return Speech
			}
		} else {
			d.speechCount = 0
		}
		return Silence
	case stateSpeech:
		if !above {
			d.silenceCount++
			d.speechCount = 0
			if d.silenceCount >= d.cfg.MinSilenceChunks {
				d.st = stateSilence
				return Silence
			}
			// still in speech: trailing quiet chunks are post-roll
		} else {
			d.silenceCount = 0
			d.speechCount++
		}
		return Speech
	default:
		return Silence
	}
}

// Reset clears counters, the adaptive window, and the hysteresis state.
func (d *EnergyDetector) Reset() {
	d.window = d.window[:0]
	d.st = stateSilence
	d.speechCount = 0
	d.silenceCount = 0
}

func (d *EnergyDetector) pushWindow(rms float64) {
	if cap(d.window) < d.cfg.AdaptiveWindowSize {
		d.window = make([]float64, 0, d.cfg.AdaptiveWindowSize)
	}
	if len(d.window) >= d.cfg.AdaptiveWindowSize {
		copy(d.window, d.window[1:])
		d.window = d.window[:len(d.window)-1]
	}
	d.window = append(d.window, rms)
}

// backgroundEstimate is the median of the sliding RMS window.
func (d *EnergyDetector) backgroundEstimate() float64 {
	if len(d.window) == 0 {
		return 0
	}
	if cap(d.windowSorted) < len(d.window) {
		d.windowSorted = make([]float64, len(d.window))
	}
	d.windowSorted = d.windowSorted[:len(d.window)]
	copy(d.windowSorted, d.window)
	sort.Float64s(d.windowSorted)

	n := len(d.windowSorted)
	if n%2 == 1 {
		return d.windowSorted[n/2]
	}
	return (d.windowSorted[n/2-1] + d.windowSorted[n/2]) / 2
}

func rms(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}
