// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

//go:build cgo

package model

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/holdtotalk/daemon/internal/errkind"
	"github.com/holdtotalk/daemon/internal/utils"
	"github.com/holdtotalk/daemon/internal/vad"
)

// NativeRuntime runs whisper.cpp in-process via cgo bindings.
type NativeRuntime struct {
	mu       sync.Mutex
	model    whisper.Model
	language string
	path     string
}

func NewNativeRuntime() *NativeRuntime {
	return &NativeRuntime{}
}

func (n *NativeRuntime) Load(cfg Config) error {
	if !utils.IsValidFile(cfg.Path) {
		return errkind.New(errkind.ModelUnavailable, "NativeRuntime.Load", fmt.Errorf("model file not found: %s", cfg.Path))
	}
	if size, err := utils.GetFileSize(cfg.Path); err != nil || size < minModelFileBytes {
		return errkind.New(errkind.ModelUnavailable, "NativeRuntime.Load", fmt.Errorf("model file %s is missing or truncated", cfg.Path))
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	m, err := whisper.New(cfg.Path)
	if err != nil {
		return errkind.New(errkind.ModelUnavailable, "NativeRuntime.Load", err)
	}
	n.model = m
	n.path = cfg.Path
	n.language = cfg.Language
	if n.language == "" {
		n.language = "auto"
	}
	return nil
}

func (n *NativeRuntime) IsLoaded() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.model != nil
}

func (n *NativeRuntime) Transcribe(samples []float32, sampleRate int) (Transcription, error) {
	start := time.Now()

	n.mu.Lock()
	defer n.mu.Unlock()

	if err := ValidatePreconditions(n.model != nil, samples, sampleRate); err != nil {
		return Transcription{}, err
	}

	ctx, err := n.model.NewContext()
	if err != nil {
		return Transcription{}, errkind.New(errkind.Transient, "NativeRuntime.Transcribe", err)
	}
	if err := ctx.SetLanguage(n.language); err != nil {
		return Transcription{}, errkind.New(errkind.Transient, "NativeRuntime.Transcribe", err)
	}

	if err := ctx.Process(samples, nil, nil, nil); err != nil {
		return Transcription{}, errkind.New(errkind.Transient, "NativeRuntime.Transcribe", err)
	}

	var text strings.Builder
	for {
		seg, err := ctx.NextSegment()
		if err != nil {
			break
		}
		text.WriteString(seg.Text)
		text.WriteString(" ")
	}

	return Transcription{
		Text:             utils.SanitizeTranscript(TrimText(text.String())),
		Language:         n.language,
		ProcessingTimeMs: timeSince(start),
	}, nil
}

func (n *NativeRuntime) TranscribeSegment(segment vad.Segment) (Transcription, error) {
	samples := ConcatenateChunks(segment.Chunks)
	rate := 0
	if len(segment.Chunks) > 0 {
		rate = segment.Chunks[0].SampleRate
	}
	return n.Transcribe(samples, rate)
}

func (n *NativeRuntime) Unload() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.model == nil {
		return nil
	}
	err := n.model.Close()
	n.model = nil
	return err
}

func (n *NativeRuntime) Name() string { return "native-whisper" }
func (n *NativeRuntime) Info() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return fmt.Sprintf("whisper.cpp in-process (model: %s)", n.path)
}
