// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package capture

import (
	"time"

	"github.com/holdtotalk/daemon/internal/resample"
	"github.com/holdtotalk/daemon/internal/ring"
)

// Source opens a capture session and feeds a ring until Stop is called.
// Start must not be called again until a prior session's Stop has
// returned; the returned Ring's producer half is closed on Stop so the
// consumer observes EOF.
type Source interface {
	// Start validates cfg, opens the device, and begins feeding chunks into
	// a freshly constructed ring sized from cfg. Errors: device-not-found,
	// unsupported-sample-format, config-invalid.
	Start(cfg Config) (*ring.Ring, error)
	// Stop pauses the stream and closes the ring's producer half. Idempotent.
	Stop()
}

// accumulator runs on the realtime callback goroutine: it buffers native
// samples into fixed chunk_samples-sized chunks, resamples if needed, and
// pushes each completed chunk to the ring. It never allocates after
// construction.
type accumulator struct {
	r          *ring.Ring
	resampler  *resample.Resampler
	chunkLen   int
	targetRate int

	buf      []float32 // accumulates resampled samples until a full chunk
	seq      uint64
	dropLog  func(dropped uint64)
	lastDrop time.Time
}

func newAccumulator(r *ring.Ring, resampler *resample.Resampler, chunkLen, targetRate int, dropLog func(uint64)) *accumulator {
	return &accumulator{
		r:          r,
		resampler:  resampler,
		chunkLen:   chunkLen,
		targetRate: targetRate,
		buf:        make([]float32, 0, chunkLen*2),
		dropLog:    dropLog,
	}
}

// feed converts a block of native-rate mono float32 samples, resamples
// them, and pushes any completed chunks to the ring. Runs on the realtime
// audio thread: no allocation beyond the pre-sized buf's capacity, no
// blocking, no locking.
func (a *accumulator) feed(native []float32, now time.Time) {
	a.buf = a.resampler.Process(native, a.buf)
	a.drainChunks(now)
}

func (a *accumulator) drainChunks(now time.Time) {
	for len(a.buf) >= a.chunkLen {
		chunk := ring.Chunk{
			Samples:    a.buf[:a.chunkLen],
			SampleRate: a.targetRate,
			SeqNum:     a.seq,
			Captured:   now,
		}
		if !a.r.TryPush(chunk) {
			if a.dropLog != nil && time.Since(a.lastDrop) >= 5*time.Second {
				a.dropLog(a.r.Dropped())
				a.lastDrop = now
			}
		}
		a.seq++
		remaining := copy(a.buf, a.buf[a.chunkLen:])
		a.buf = a.buf[:remaining]
	}
}
