// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package vad

import (
	"time"

	"github.com/holdtotalk/daemon/internal/ring"
)

// ProcessorConfig configures pre-roll/post-roll buffering. PostRollMs is
// carried for configuration-schema completeness; post-roll chunks are not
// buffered separately by the processor, because the energy detector only
// reports Silence after min_silence_chunks below threshold, so those
// trailing chunks are naturally appended to the segment before it closes.
type ProcessorConfig struct {
	PreRollMs  int
	PostRollMs int
}

// Segment is an ordered, non-empty, contiguous run of chunks belonging to
// one utterance, including its pre-roll and post-roll context.
type Segment struct {
	Chunks     []ring.Chunk
	DurationMs int
	StartTime  time.Time // capture timestamp of the first chunk
}

type procState int

const (
	procIdle procState = iota
	procInSpeech
)

// Processor assembles per-chunk VAD decisions into SpeechSegments with
// pre-roll context. Pre-roll capacity is computed lazily from the first
// chunk's duration, since chunk duration in ms isn't known until then.
type Processor struct {
	cfg      ProcessorConfig
	detector *EnergyDetector

	preRoll    []ring.Chunk // bounded FIFO, oldest first
	preRollCap int
	inSegment  []ring.Chunk

	st procState
}

// NewProcessor builds a processor driving its own detector.
func NewProcessor(cfg ProcessorConfig, detector *EnergyDetector) *Processor {
	return &Processor{cfg: cfg, detector: detector}
}

// Feed classifies chunk and advances the pre-roll/in-segment state machine.
// Returns the closed segment and ok=true exactly when a segment is emitted.
func (p *Processor) Feed(chunk ring.Chunk) (Segment, bool) {
	p.ensurePreRollCapacity(chunk)

	decision := p.detector.Classify(chunk.Samples)

	switch p.st {
	case procIdle:
		if decision == Silence {
			p.pushPreRoll(chunk)
			return Segment{}, false
		}
		// Idle + Speech: promote pre-roll into the segment, then append.
		p.inSegment = append(p.inSegment, p.preRoll...)
		p.preRoll = p.preRoll[:0]
		p.inSegment = append(p.inSegment, chunk)
		p.st = procInSpeech
		return Segment{}, false

	case procInSpeech:
		p.inSegment = append(p.inSegment, chunk)
		if decision == Speech {
			return Segment{}, false
		}
		// InSpeech + Silence: this chunk is post-roll; close the segment.
		seg := p.buildSegment()
		p.inSegment = nil
		p.preRoll = p.preRoll[:0]
		p.st = procIdle
		return seg, true

	default:
		return Segment{}, false
	}
}

// Reset empties both buffers, returns to Idle, and resets the detector.
func (p *Processor) Reset() {
	p.preRoll = p.preRoll[:0]
	p.inSegment = nil
	p.st = procIdle
	p.detector.Reset()
}

func (p *Processor) ensurePreRollCapacity(chunk ring.Chunk) {
	if p.preRollCap != 0 || len(chunk.Samples) == 0 || chunk.SampleRate == 0 {
		return
	}
	chunkMs := len(chunk.Samples) * 1000 / chunk.SampleRate
	if chunkMs <= 0 {
		chunkMs = 1
	}
	slots := (p.cfg.PreRollMs + chunkMs - 1) / chunkMs
	if slots < 1 {
		slots = 1
	}
	p.preRollCap = slots
	p.preRoll = make([]ring.Chunk, 0, slots)
}

func (p *Processor) pushPreRoll(chunk ring.Chunk) {
	if p.preRollCap == 0 {
		p.preRollCap = 1
	}
	if len(p.preRoll) >= p.preRollCap {
		// evict oldest
		copy(p.preRoll, p.preRoll[1:])
		p.preRoll = p.preRoll[:len(p.preRoll)-1]
	}
	p.preRoll = append(p.preRoll, chunk)
}

func (p *Processor) buildSegment() Segment {
	totalSamples := 0
	rate := 0
	for _, c := range p.inSegment {
		totalSamples += len(c.Samples)
		rate = c.SampleRate
	}
	durationMs := 0
	if rate > 0 {
		durationMs = totalSamples * 1000 / rate
	}
	chunks := make([]ring.Chunk, len(p.inSegment))
	copy(chunks, p.inSegment)
	return Segment{
		Chunks:     chunks,
		DurationMs: durationMs,
		StartTime:  chunks[0].Captured,
	}
}
