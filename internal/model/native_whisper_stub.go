// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

//go:build !cgo

package model

import (
	"fmt"

	"github.com/holdtotalk/daemon/internal/errkind"
	"github.com/holdtotalk/daemon/internal/vad"
)

// NativeRuntime is unavailable in a cgo-disabled build; every call
// reports ModelUnavailable rather than panicking.
type NativeRuntime struct{}

func NewNativeRuntime() *NativeRuntime { return &NativeRuntime{} }

func (n *NativeRuntime) Load(Config) error {
	return errkind.New(errkind.ModelUnavailable, "NativeRuntime.Load", fmt.Errorf("built without cgo: whisper.cpp bindings unavailable"))
}
func (n *NativeRuntime) IsLoaded() bool { return false }
func (n *NativeRuntime) Transcribe(samples []float32, sampleRate int) (Transcription, error) {
	return Transcription{}, errkind.New(errkind.ModelUnavailable, "NativeRuntime.Transcribe", fmt.Errorf("built without cgo"))
}
func (n *NativeRuntime) TranscribeSegment(vad.Segment) (Transcription, error) {
	return Transcription{}, errkind.New(errkind.ModelUnavailable, "NativeRuntime.TranscribeSegment", fmt.Errorf("built without cgo"))
}
func (n *NativeRuntime) Unload() error { return nil }
func (n *NativeRuntime) Name() string  { return "native-whisper" }
func (n *NativeRuntime) Info() string  { return "unavailable (built without cgo)" }
