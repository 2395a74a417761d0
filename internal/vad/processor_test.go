// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package vad

import (
	"testing"
	"time"

	"github.com/holdtotalk/daemon/internal/ring"
)

func chunkAt(n int, rate int, amp float32, seq uint64) ring.Chunk {
	s := make([]float32, n)
	if amp != 0 {
		for i := range s {
			if i%2 == 0 {
				s[i] = amp
			} else {
				s[i] = -amp
			}
		}
	}
	return ring.Chunk{Samples: s, SampleRate: rate, SeqNum: seq, Captured: time.Now()}
}

func newTestProcessor(preRollMs int) *Processor {
	det := NewEnergyDetector(EnergyConfig{Threshold: 0.01, MinSpeechChunks: 3, MinSilenceChunks: 2})
	return NewProcessor(ProcessorConfig{PreRollMs: preRollMs, PostRollMs: 200}, det)
}

// S1 - silence yields nothing.
func TestS1SilenceYieldsNoSegment(t *testing.T) {
	p := newTestProcessor(200)
	for i := 0; i < 30; i++ {
		if _, ok := p.Feed(chunkAt(1600, 16000, 0, uint64(i))); ok {
			t.Fatalf("chunk %d: unexpected segment emitted from pure silence", i)
		}
	}
}

// S2 - single utterance in VAD mode.
func TestS2SingleUtteranceEmitsOneSegment(t *testing.T) {
	p := newTestProcessor(200) // 200ms pre-roll at 100ms chunks -> 2 chunks
	var seq uint64
	emitted := 0
	var lastSeg Segment

	// leading silence to populate pre-roll
	for i := 0; i < 3; i++ {
		p.Feed(chunkAt(1600, 16000, 0, seq))
		seq++
	}
	// 10 chunks of speech
	for i := 0; i < 10; i++ {
		if _, ok := p.Feed(chunkAt(1600, 16000, 0.5, seq)); ok {
			t.Fatalf("unexpected early emission during speech at chunk %d", i)
		}
		seq++
	}
	// trailing silence: hysteresis needs 2 consecutive below-threshold chunks
	for i := 0; i < 4; i++ {
		seg, ok := p.Feed(chunkAt(1600, 16000, 0, seq))
		seq++
		if ok {
			emitted++
			lastSeg = seg
		}
	}

	if emitted != 1 {
		t.Fatalf("expected exactly one emitted segment, got %d", emitted)
	}
	// >= 10 speech chunks + 2 silence-to-close + up to 2 pre-roll chunks
	if len(lastSeg.Chunks) < 10+2 {
		t.Errorf("segment too short: got %d chunks", len(lastSeg.Chunks))
	}
}

// S3 - two utterances separated by long silence, in capture order.
func TestS3TwoUtterancesInOrder(t *testing.T) {
	p := newTestProcessor(100)
	var seq uint64
	var segments []Segment

	feedN := func(n int, amp float32) {
		for i := 0; i < n; i++ {
			seg, ok := p.Feed(chunkAt(1600, 16000, amp, seq))
			seq++
			if ok {
				segments = append(segments, seg)
			}
		}
	}

	feedN(10, 0.5) // speech
	feedN(20, 0)   // silence
	feedN(10, 0.5) // speech
	feedN(5, 0)    // silence

	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].Chunks[0].SeqNum > segments[1].Chunks[0].SeqNum {
		t.Error("segments are not in capture order")
	}
}

func TestResetReturnsToIdle(t *testing.T) {
	p := newTestProcessor(100)
	p.Feed(chunkAt(1600, 16000, 0.5, 0))
	p.Feed(chunkAt(1600, 16000, 0.5, 1))
	p.Feed(chunkAt(1600, 16000, 0.5, 2))
	if p.st != procInSpeech {
		t.Fatal("expected InSpeech before reset")
	}
	p.Reset()
	if p.st != procIdle || len(p.inSegment) != 0 || len(p.preRoll) != 0 {
		t.Error("Reset did not clear processor state")
	}
}
