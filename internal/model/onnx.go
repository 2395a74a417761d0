// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package model

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/holdtotalk/daemon/internal/errkind"
	"github.com/holdtotalk/daemon/internal/sherpaonnx"
	"github.com/holdtotalk/daemon/internal/utils"
	"github.com/holdtotalk/daemon/internal/vad"
)

// ONNXRuntime runs a Whisper model through sherpa-onnx, offering an
// alternative to whisper.cpp with hardware-acceleration providers
// (CUDA, CoreML) sherpa-onnx exposes that whisper.cpp does not.
type ONNXRuntime struct {
	mu         sync.Mutex
	recognizer *sherpaonnx.OfflineRecognizer
	language   string
	encoder    string
	decoder    string
	tokens     string
}

func NewONNXRuntime() *ONNXRuntime {
	return &ONNXRuntime{}
}

// Load expects cfg.Path to be the directory containing encoder.onnx,
// decoder.onnx, and tokens.txt, following sherpa-onnx's Whisper layout.
func (o *ONNXRuntime) Load(cfg Config) error {
	encoder := filepath.Join(cfg.Path, "encoder.onnx")
	decoder := filepath.Join(cfg.Path, "decoder.onnx")
	tokens := filepath.Join(cfg.Path, "tokens.txt")

	for _, f := range []string{encoder, decoder, tokens} {
		if !utils.IsValidFile(f) {
			return errkind.New(errkind.ModelUnavailable, "ONNXRuntime.Load", fmt.Errorf("required model file not found: %s", f))
		}
	}
	if size, err := utils.GetFileSize(encoder); err != nil || size < minModelFileBytes {
		return errkind.New(errkind.ModelUnavailable, "ONNXRuntime.Load", fmt.Errorf("encoder file %s is missing or truncated", encoder))
	}

	language := cfg.Language
	if language == "auto" {
		language = ""
	}

	recCfg := &sherpaonnx.OfflineRecognizerConfig{DecodingMethod: "greedy_search"}
	recCfg.ModelConfig.Whisper.Encoder = encoder
	recCfg.ModelConfig.Whisper.Decoder = decoder
	recCfg.ModelConfig.Whisper.Language = language
	recCfg.ModelConfig.Whisper.Task = "transcribe"
	recCfg.ModelConfig.Whisper.TailPaddings = -1
	recCfg.ModelConfig.Tokens = tokens
	recCfg.ModelConfig.NumThreads = 1
	recCfg.ModelConfig.Provider = sherpaonnx.DefaultProvider()

	recognizer := sherpaonnx.NewOfflineRecognizer(recCfg)
	if recognizer == nil {
		return errkind.New(errkind.ModelUnavailable, "ONNXRuntime.Load", fmt.Errorf("sherpa-onnx failed to create offline recognizer (unavailable on this platform or invalid model files)"))
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.recognizer = recognizer
	o.language = cfg.Language
	o.encoder, o.decoder, o.tokens = encoder, decoder, tokens
	return nil
}

func (o *ONNXRuntime) IsLoaded() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.recognizer != nil
}

func (o *ONNXRuntime) Transcribe(samples []float32, sampleRate int) (Transcription, error) {
	start := time.Now()

	o.mu.Lock()
	defer o.mu.Unlock()

	if err := ValidatePreconditions(o.recognizer != nil, samples, sampleRate); err != nil {
		return Transcription{}, err
	}

	stream := sherpaonnx.NewOfflineStream(o.recognizer)
	if stream == nil {
		return Transcription{}, errkind.New(errkind.Transient, "ONNXRuntime.Transcribe", fmt.Errorf("failed to create offline stream"))
	}
	defer sherpaonnx.DeleteOfflineStream(stream)

	stream.AcceptWaveform(sampleRate, samples)
	o.recognizer.Decode(stream)
	result := stream.GetResult()

	return Transcription{
		Text:             utils.SanitizeTranscript(TrimText(result.Text)),
		Language:         o.language,
		ProcessingTimeMs: timeSince(start),
	}, nil
}

func (o *ONNXRuntime) TranscribeSegment(segment vad.Segment) (Transcription, error) {
	samples := ConcatenateChunks(segment.Chunks)
	rate := 0
	if len(segment.Chunks) > 0 {
		rate = segment.Chunks[0].SampleRate
	}
	return o.Transcribe(samples, rate)
}

func (o *ONNXRuntime) Unload() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.recognizer != nil {
		sherpaonnx.DeleteOfflineRecognizer(o.recognizer)
		o.recognizer = nil
	}
	return nil
}

func (o *ONNXRuntime) Name() string { return "onnx-whisper" }
func (o *ONNXRuntime) Info() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return fmt.Sprintf("sherpa-onnx Whisper (encoder: %s)", o.encoder)
}
