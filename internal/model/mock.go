// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package model

import (
	"fmt"
	"sync"
	"time"

	"github.com/holdtotalk/daemon/internal/vad"
)

// MockRuntime is the default test/development variant: it returns a canned
// transcription, or an echo of the sample count if CannedText is empty.
type MockRuntime struct {
	CannedText string

	mu     sync.Mutex
	loaded bool
}

func NewMockRuntime() *MockRuntime {
	return &MockRuntime{}
}

func (m *MockRuntime) Load(Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = true
	return nil
}

func (m *MockRuntime) IsLoaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

func (m *MockRuntime) Transcribe(samples []float32, sampleRate int) (Transcription, error) {
	start := time.Now()
	m.mu.Lock()
	loaded := m.loaded
	m.mu.Unlock()

	if err := ValidatePreconditions(loaded, samples, sampleRate); err != nil {
		return Transcription{}, err
	}

	text := m.CannedText
	if text == "" {
		text = fmt.Sprintf("[mock transcription of %d samples]", len(samples))
	}

	return Transcription{
		Text:             TrimText(text),
		Language:         "en",
		ProcessingTimeMs: timeSince(start),
	}, nil
}

func (m *MockRuntime) TranscribeSegment(segment vad.Segment) (Transcription, error) {
	samples := ConcatenateChunks(segment.Chunks)
	rate := 0
	if len(segment.Chunks) > 0 {
		rate = segment.Chunks[0].SampleRate
	}
	return m.Transcribe(samples, rate)
}

func (m *MockRuntime) Unload() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = false
	return nil
}

func (m *MockRuntime) Name() string { return "mock" }
func (m *MockRuntime) Info() string { return "canned/echo transcription for tests and development" }
