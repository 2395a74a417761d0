// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

//go:build !cgo || (!linux && !darwin)

package sherpaonnx

// whisperModelConfig mirrors the fields of sherpa-onnx's Whisper model
// config that this daemon sets, kept here so ONNXRuntime compiles on
// platforms without a prebuilt sherpa-onnx package.
type whisperModelConfig struct {
	Encoder      string
	Decoder      string
	Language     string
	Task         string
	TailPaddings int
}

type offlineModelConfig struct {
	Whisper    whisperModelConfig
	Tokens     string
	NumThreads int
	Provider   string
	Debug      int
}

type OfflineRecognizerConfig struct {
	ModelConfig    offlineModelConfig
	DecodingMethod string
}

type OfflineRecognizer struct{}
type OfflineStream struct{}

type OfflineRecognizerResult struct {
	Text string
}

// NewOfflineRecognizer always reports failure, matching the real
// binding's nil-on-failure convention, so callers take the same error
// path on every platform without a prebuilt sherpa-onnx package.
func NewOfflineRecognizer(*OfflineRecognizerConfig) *OfflineRecognizer { return nil }
func DeleteOfflineRecognizer(*OfflineRecognizer)                      {}
func NewOfflineStream(*OfflineRecognizer) *OfflineStream { return nil }
func DeleteOfflineStream(*OfflineStream)                 {}

func (s *OfflineStream) AcceptWaveform(sampleRate int, samples []float32) {}
func (r *OfflineRecognizer) Decode(s *OfflineStream)                     {}
func (s *OfflineStream) GetResult() *OfflineRecognizerResult             { return &OfflineRecognizerResult{} }

func DefaultProvider() string { return "cpu" }
