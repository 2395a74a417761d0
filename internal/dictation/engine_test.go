// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package dictation

import (
	"sync"
	"testing"
	"time"

	"github.com/holdtotalk/daemon/internal/capture"
	"github.com/holdtotalk/daemon/internal/model"
	"github.com/holdtotalk/daemon/internal/ring"
	"github.com/holdtotalk/daemon/internal/testutil"
	"github.com/holdtotalk/daemon/internal/vad"
)

// fakeSource implements capture.Source with direct chunk-level control, so
// tests can push exact chunks without going through the resampler.
type fakeSource struct {
	mu      sync.Mutex
	r       *ring.Ring
	stopped bool
}

func (f *fakeSource) Start(cfg capture.Config) (*ring.Ring, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	chunkSamples := cfg.ChunkSamples()
	r := ring.New(ring.Capacity(cfg.SampleRate, cfg.RingBufferSecs, chunkSamples), chunkSamples)

	f.mu.Lock()
	f.r = r
	f.stopped = false
	f.mu.Unlock()
	return r, nil
}

func (f *fakeSource) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return
	}
	f.stopped = true
	if f.r != nil {
		f.r.Close()
	}
}

func (f *fakeSource) push(samples []float32, rate int) bool {
	f.mu.Lock()
	r := f.r
	f.mu.Unlock()
	if r == nil {
		return false
	}
	return r.TryPush(ring.Chunk{Samples: samples, SampleRate: rate, Captured: time.Now()})
}

func chunkOf(n int, amp float32) []float32 {
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
	return s
}

// recordingInjector records every Inject call in arrival order.
type recordingInjector struct {
	mu    sync.Mutex
	texts []string
}

func (r *recordingInjector) Name() string { return "recording" }
func (r *recordingInjector) Inject(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return nil
}

func (r *recordingInjector) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.texts)
}

func testConfig(vadEnabled bool) Config {
	return Config{
		Capture: capture.Config{Device: "default", SampleRate: 16000, ChunkDurationMs: 100, RingBufferSecs: 2},
		Vad:     vad.ProcessorConfig{PreRollMs: 200, PostRollMs: 200},
		EnergyVad: vad.EnergyConfig{
			Threshold:        0.01,
			MinSpeechChunks:  3,
			MinSilenceChunks: 2,
		},
		VadEnabled:    vadEnabled,
		FocusSettleMs: 0,
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

// S1 - silence yields nothing.
func TestS1SilenceYieldsNoInjection(t *testing.T) {
	src := &fakeSource{}
	inj := &recordingInjector{}
	e := New(testConfig(true), src, model.NewMockRuntime(), inj, nil, nil, testutil.NewMockLogger())
	_ = e.model.Load(model.Config{})

	if err := e.StartDictation(); err != nil {
		t.Fatalf("StartDictation: %v", err)
	}
	for i := 0; i < 30; i++ {
		src.push(chunkOf(1600, 0), 16000)
	}
	time.Sleep(50 * time.Millisecond)
	if err := e.StopDictation(); err != nil {
		t.Fatalf("StopDictation: %v", err)
	}
	waitFor(t, time.Second, func() bool { return !e.IsDictating() })

	if got := inj.count(); got != 0 {
		t.Errorf("expected zero injections from pure silence, got %d", got)
	}
}

// S2 - single utterance in VAD mode produces exactly one injection.
func TestS2SingleUtteranceProducesOneInjection(t *testing.T) {
	src := &fakeSource{}
	inj := &recordingInjector{}
	m := model.NewMockRuntime()
	m.CannedText = "hello world"
	e := New(testConfig(true), src, m, inj, nil, nil, testutil.NewMockLogger())
	_ = m.Load(model.Config{})

	if err := e.StartDictation(); err != nil {
		t.Fatalf("StartDictation: %v", err)
	}
	for i := 0; i < 10; i++ {
		src.push(chunkOf(1600, 0.5), 16000)
	}
	for i := 0; i < 4; i++ {
		src.push(chunkOf(1600, 0), 16000)
	}
	waitFor(t, time.Second, func() bool { return inj.count() >= 1 })
	if err := e.StopDictation(); err != nil {
		t.Fatalf("StopDictation: %v", err)
	}
	waitFor(t, time.Second, func() bool { return !e.IsDictating() })

	if got := inj.count(); got != 1 {
		t.Fatalf("expected exactly one injection, got %d", got)
	}
	if inj.texts[0] != "hello world" {
		t.Errorf("unexpected injected text: %q", inj.texts[0])
	}
}

// S3 - two utterances separated by long silence, injected in order.
func TestS3TwoUtterancesInjectInOrder(t *testing.T) {
	src := &fakeSource{}
	inj := &recordingInjector{}
	m := model.NewMockRuntime()
	e := New(testConfig(true), src, m, inj, nil, nil, testutil.NewMockLogger())
	_ = m.Load(model.Config{})

	if err := e.StartDictation(); err != nil {
		t.Fatalf("StartDictation: %v", err)
	}

	feed := func(n int, amp float32) {
		for i := 0; i < n; i++ {
			// The ring holds 2s of audio; wait for the consumer to make
			// room instead of letting the overflow drop chunks.
			for !src.push(chunkOf(1600, amp), 16000) {
				time.Sleep(time.Millisecond)
			}
		}
	}
	feed(10, 0.5)
	feed(20, 0)
	feed(10, 0.5)
	feed(5, 0)

	waitFor(t, 2*time.Second, func() bool { return inj.count() >= 2 })
	if err := e.StopDictation(); err != nil {
		t.Fatalf("StopDictation: %v", err)
	}
	waitFor(t, time.Second, func() bool { return !e.IsDictating() })

	if got := inj.count(); got != 2 {
		t.Fatalf("expected exactly two injections, got %d", got)
	}
}

// S4 - hold-to-talk (VAD disabled): all pushed chunks become one segment.
func TestS4HoldToTalkProducesOneSegment(t *testing.T) {
	src := &fakeSource{}
	inj := &recordingInjector{}
	m := model.NewMockRuntime()
	e := New(testConfig(false), src, m, inj, nil, nil, testutil.NewMockLogger())
	_ = m.Load(model.Config{})

	if err := e.StartDictation(); err != nil {
		t.Fatalf("StartDictation: %v", err)
	}
	for i := 0; i < 30; i++ {
		src.push(chunkOf(1600, 0.3), 16000)
	}
	if err := e.StopDictation(); err != nil {
		t.Fatalf("StopDictation: %v", err)
	}
	waitFor(t, time.Second, func() bool { return inj.count() >= 1 })

	if got := inj.count(); got != 1 {
		t.Fatalf("expected exactly one injection for hold-to-talk, got %d", got)
	}
}

// Idempotence: StopDictation with nothing running is a no-op success, and
// StartDictation refuses while a session is already active.
func TestIdempotence(t *testing.T) {
	src := &fakeSource{}
	e := New(testConfig(true), src, model.NewMockRuntime(), &recordingInjector{}, nil, nil, testutil.NewMockLogger())
	_ = e.model.Load(model.Config{})

	if err := e.StopDictation(); err != nil {
		t.Errorf("StopDictation on idle engine should be a no-op success, got %v", err)
	}

	if err := e.StartDictation(); err != nil {
		t.Fatalf("StartDictation: %v", err)
	}
	if err := e.StartDictation(); err != ErrAlreadyDictating {
		t.Errorf("expected ErrAlreadyDictating, got %v", err)
	}
	_ = e.StopDictation()
	waitFor(t, time.Second, func() bool { return !e.IsDictating() })

	e.Shutdown()
	e.Shutdown() // must not panic or block
}
