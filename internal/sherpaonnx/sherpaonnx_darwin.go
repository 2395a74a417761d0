// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

//go:build cgo && darwin

package sherpaonnx

import impl "github.com/k2-fsa/sherpa-onnx-go-macos"

type OfflineRecognizer = impl.OfflineRecognizer
type OfflineRecognizerConfig = impl.OfflineRecognizerConfig
type OfflineStream = impl.OfflineStream
type OfflineRecognizerResult = impl.OfflineRecognizerResult

var NewOfflineRecognizer = impl.NewOfflineRecognizer
var DeleteOfflineRecognizer = impl.DeleteOfflineRecognizer
var NewOfflineStream = impl.NewOfflineStream
var DeleteOfflineStream = impl.DeleteOfflineStream

// DefaultProvider returns the recommended sherpa-onnx execution provider.
// CoreML gives hardware acceleration via the Apple Neural Engine.
func DefaultProvider() string { return "coreml" }
