// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

// Package model defines the pluggable transcription backend capability set
// and its four concrete variants: Mock, Native (whisper.cpp via cgo), ONNX
// (sherpa-onnx via cgo), and External-CLI (subprocess).
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/holdtotalk/daemon/internal/errkind"
	"github.com/holdtotalk/daemon/internal/ring"
	"github.com/holdtotalk/daemon/internal/vad"
)

// RequiredSampleRate is the only sample rate Transcribe accepts; the
// pipeline guarantees it via the resampler and capture source.
const RequiredSampleRate = 16000

// minModelFileBytes rejects obviously truncated/empty model files (a
// failed or interrupted download) before handing them to a cgo loader,
// which otherwise fails with an opaque native error.
const minModelFileBytes = 1 << 16

// Config configures a Runtime's Load call.
type Config struct {
	Path       string
	Binary     string // External-CLI only
	TimeoutSec int    // External-CLI only
	Language   string
}

// Transcription is the decoded result of one transcribe call.
type Transcription struct {
	Text             string
	Language         string
	Confidence       *float64
	ProcessingTimeMs int64
	Tokens           *int
}

// Runtime is the capability set every model variant implements. The
// dictation engine is polymorphic over this interface; no variant-specific
// behavior leaks through it.
type Runtime interface {
	Load(cfg Config) error
	IsLoaded() bool
	Transcribe(samples []float32, sampleRate int) (Transcription, error)
	TranscribeSegment(segment vad.Segment) (Transcription, error)
	Unload() error
	Name() string
	Info() string
}

// ValidatePreconditions enforces the shared transcribe preconditions: the
// model must be loaded, the sample rate must be 16kHz, and the input must
// be non-empty. Every variant calls this before doing real work.
func ValidatePreconditions(loaded bool, samples []float32, sampleRate int) error {
	if !loaded {
		return errkind.New(errkind.ModelUnavailable, "Transcribe", fmt.Errorf("model not loaded"))
	}
	if sampleRate != RequiredSampleRate {
		return errkind.New(errkind.ModelUnavailable, "Transcribe", fmt.Errorf("sample rate %d != required %d", sampleRate, RequiredSampleRate))
	}
	if len(samples) == 0 {
		return errkind.New(errkind.ModelUnavailable, "Transcribe", fmt.Errorf("empty sample input"))
	}
	return nil
}

// ConcatenateChunks flattens a sequence of chunks into one sample slice,
// the default TranscribeSegment strategy every variant can reuse.
func ConcatenateChunks(chunks []ring.Chunk) []float32 {
	total := 0
	for _, c := range chunks {
		total += len(c.Samples)
	}
	out := make([]float32, 0, total)
	for _, c := range chunks {
		out = append(out, c.Samples...)
	}
	return out
}

// TrimText applies the shared postcondition: returned text is trimmed of
// leading/trailing whitespace.
func TrimText(s string) string {
	return strings.TrimSpace(s)
}

func timeSince(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
