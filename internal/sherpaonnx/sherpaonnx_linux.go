// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

//go:build cgo && linux

// Package sherpaonnx re-exports the subset of sherpa-onnx's offline
// recognizer API this daemon uses, so callers stay platform-neutral while
// the actual cgo bindings come from a per-OS prebuilt package.
package sherpaonnx

import impl "github.com/k2-fsa/sherpa-onnx-go-linux"

type OfflineRecognizer = impl.OfflineRecognizer
type OfflineRecognizerConfig = impl.OfflineRecognizerConfig
type OfflineStream = impl.OfflineStream
type OfflineRecognizerResult = impl.OfflineRecognizerResult

var NewOfflineRecognizer = impl.NewOfflineRecognizer
var DeleteOfflineRecognizer = impl.DeleteOfflineRecognizer
var NewOfflineStream = impl.NewOfflineStream
var DeleteOfflineStream = impl.DeleteOfflineStream

// DefaultProvider returns the recommended sherpa-onnx execution provider.
func DefaultProvider() string { return "cpu" }
