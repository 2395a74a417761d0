// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package capture

import (
	"sync"
	"time"

	"github.com/holdtotalk/daemon/internal/resample"
	"github.com/holdtotalk/daemon/internal/ring"
)

// MockSource replays a pre-seeded in-memory sample feed through the same
// resample+chunk+ring path a real device would use, so tests can exercise
// the pipeline deterministically without touching hardware.
type MockSource struct {
	mu       sync.Mutex
	feed     []float32
	nativeHz int
	stopCh   chan struct{}
	stopped  bool
	r        *ring.Ring
	wg       sync.WaitGroup
}

// NewMockSource builds a source that will emit feed (at nativeHz) as if it
// were the raw device stream, to be resampled to the pipeline rate exactly
// like MalgoSource would.
func NewMockSource(feed []float32, nativeHz int) *MockSource {
	return &MockSource{feed: feed, nativeHz: nativeHz}
}

// Start implements Source. It feeds the entire sample set to the
// accumulator synchronously-in-a-goroutine, pacing isn't simulated: tests
// care about chunk/segment shape, not wall-clock timing.
func (s *MockSource) Start(cfg Config) (*ring.Ring, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	chunkSamples := cfg.ChunkSamples()
	r := ring.New(ring.Capacity(cfg.SampleRate, cfg.RingBufferSecs, chunkSamples), chunkSamples)

	resampler, err := resample.New(s.nativeHz)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.r = r
	s.stopCh = make(chan struct{})
	s.stopped = false
	s.mu.Unlock()

	acc := newAccumulator(r, resampler, chunkSamples, cfg.SampleRate, nil)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		const blockSize = 256
		now := time.Now()
		for i := 0; i < len(s.feed); i += blockSize {
			select {
			case <-s.stopCh:
				return
			default:
			}
			end := i + blockSize
			if end > len(s.feed) {
				end = len(s.feed)
			}
			acc.feed(s.feed[i:end], now)
		}
		s.Stop()
	}()

	return r, nil
}

// Stop implements Source. Idempotent.
func (s *MockSource) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stopCh)
	r := s.r
	s.mu.Unlock()

	if r != nil {
		r.Close()
	}
}

// Wait blocks until the feeder goroutine has finished (test helper).
func (s *MockSource) Wait() {
	s.wg.Wait()
}
