// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package vad

import "testing"

func silentChunk(n int) []float32 {
	return make([]float32, n)
}

func loudChunk(n int, amp float32) []float32 {
	s := make([]float32, n)
	for i := range s {
		if i%2 == 0 {
			s[i] = amp
		} else {
			s[i] = -amp
		}
	}
	return s
}

func TestSilenceNeverTransitionsToSpeech(t *testing.T) {
	d := NewEnergyDetector(EnergyConfig{Threshold: 0.01, MinSpeechChunks: 3, MinSilenceChunks: 3})
	for i := 0; i < 50; i++ {
		if got := d.Classify(silentChunk(160)); got != Silence {
			t.Fatalf("chunk %d: got %v, want Silence", i, got)
		}
	}
}

func TestHysteresisRequiresConsecutiveChunks(t *testing.T) {
	d := NewEnergyDetector(EnergyConfig{Threshold: 0.01, MinSpeechChunks: 3, MinSilenceChunks: 3})

	// Two above-threshold chunks shouldn't flip state yet.
	d.Classify(loudChunk(160, 0.5))
	if got := d.Classify(loudChunk(160, 0.5)); got != Silence {
		t.Fatalf("after 2 loud chunks, got %v, want Silence (need 3)", got)
	}
	// Third consecutive loud chunk should flip to Speech.
	if got := d.Classify(loudChunk(160, 0.5)); got != Speech {
		t.Fatalf("after 3 loud chunks, got %v, want Speech", got)
	}
}

func TestReturnsToSilenceAfterMinSilenceChunks(t *testing.T) {
	d := NewEnergyDetector(EnergyConfig{Threshold: 0.01, MinSpeechChunks: 2, MinSilenceChunks: 2})
	for i := 0; i < 2; i++ {
		d.Classify(loudChunk(160, 0.5))
	}
	if got := d.Classify(silentChunk(160)); got != Speech {
		t.Fatalf("single silent chunk in Speech state should still report Speech (post-roll), got %v", got)
	}
	if got := d.Classify(silentChunk(160)); got != Silence {
		t.Fatalf("second consecutive silent chunk should flip to Silence, got %v", got)
	}
}

func TestAdaptiveThresholdTracksBackground(t *testing.T) {
	d := NewEnergyDetector(EnergyConfig{Threshold: 0.05, MinSpeechChunks: 1, MinSilenceChunks: 1, Adaptive: true, AdaptiveWindowSize: 5})
	// Feed a noisy background with moderate energy, then a chunk clearly
	// above background+threshold should classify as Speech immediately.
	for i := 0; i < 10; i++ {
		d.Classify(loudChunk(160, 0.05))
	}
	if got := d.Classify(loudChunk(160, 0.9)); got != Speech {
		t.Errorf("loud chunk over adaptive threshold should classify Speech, got %v", got)
	}
}

func TestResetClearsState(t *testing.T) {
	d := NewEnergyDetector(EnergyConfig{Threshold: 0.01, MinSpeechChunks: 1, MinSilenceChunks: 3})
	d.Classify(loudChunk(160, 0.5))
	if d.st != stateSpeech {
		t.Fatal("expected detector to be in speech state before reset")
	}
	d.Reset()
	if d.st != stateSilence || d.speechCount != 0 || d.silenceCount != 0 || len(d.window) != 0 {
		t.Error("Reset did not fully clear detector state")
	}
}
