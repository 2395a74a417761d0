// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

// Package dictation is the orchestrator: it owns the capture source, the
// VAD processor, the shared model handle, and the text injector, and it
// translates hotkey press/release (or IPC start/stop) into dictation
// sessions. Each session drains the audio ring, assembles speech segments
// (or, in hold-to-talk mode, one segment for the whole session), dispatches
// them to the model in capture order, and injects the resulting text.
package dictation

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/holdtotalk/daemon/internal/capture"
	"github.com/holdtotalk/daemon/internal/errkind"
	"github.com/holdtotalk/daemon/internal/indicator"
	"github.com/holdtotalk/daemon/internal/injector"
	"github.com/holdtotalk/daemon/internal/logger"
	"github.com/holdtotalk/daemon/internal/model"
	"github.com/holdtotalk/daemon/internal/notify"
	"github.com/holdtotalk/daemon/internal/ring"
	"github.com/holdtotalk/daemon/internal/utils"
	"github.com/holdtotalk/daemon/internal/vad"
)

// ErrAlreadyDictating is returned by StartDictation when a session is
// already in progress.
var ErrAlreadyDictating = errors.New("dictation: already dictating")

// pollInterval is how often the consumer loop retries Ring.Recv while the
// ring is open but momentarily empty.
const pollInterval = 2 * time.Millisecond

// shutdownWait bounds how long Shutdown waits for the current session's
// consumer and dispatcher goroutines to drain before giving up.
const shutdownWait = 5 * time.Second

// Config configures the pipeline a session builds for each dictation.
type Config struct {
	Capture       capture.Config
	Vad           vad.ProcessorConfig
	EnergyVad     vad.EnergyConfig
	VadEnabled    bool
	FocusSettleMs int
	Model         model.Config
}

// Engine is the dictation orchestrator described in the system design: it
// satisfies lifecycle.Engine so the daemon can drive it without importing
// this package's concrete types.
type Engine struct {
	cfg      Config
	source   capture.Source
	inject   injector.Injector
	ind      *indicator.Indicator
	notifier *notify.Manager
	log      logger.Logger

	modelMu sync.Mutex
	model   model.Runtime

	mu        sync.Mutex
	dictating bool

	shutdownOnce sync.Once
}

// New constructs an Engine. All dependencies must already be ready to use
// (the model loaded, the source idle); the engine does not own their
// construction, only their use within a session.
func New(cfg Config, source capture.Source, m model.Runtime, inject injector.Injector, ind *indicator.Indicator, notifier *notify.Manager, log logger.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		source:   source,
		model:    m,
		inject:   inject,
		ind:      ind,
		notifier: notifier,
		log:      log,
	}
}

// IsDictating reports whether a session is currently active.
func (e *Engine) IsDictating() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dictating
}

// ModelName returns the loaded model variant's name, under the shared
// single-writer mutex.
func (e *Engine) ModelName() string {
	e.modelMu.Lock()
	defer e.modelMu.Unlock()
	return e.model.Name()
}

// ModelLoaded reports whether the model is currently loaded.
func (e *Engine) ModelLoaded() bool {
	e.modelMu.Lock()
	defer e.modelMu.Unlock()
	return e.model.IsLoaded()
}

// LoadModel (re)loads the model runtime, from path if given, else from
// the configured model path. Serialized against in-flight transcriptions
// by the shared model mutex.
func (e *Engine) LoadModel(path string) error {
	cfg := e.cfg.Model
	if path != "" {
		cfg.Path = path
	}
	e.modelMu.Lock()
	defer e.modelMu.Unlock()
	return e.model.Load(cfg)
}

// UnloadModel releases the model runtime's resources. Transcriptions
// dispatched afterwards fail until LoadModel is called again.
func (e *Engine) UnloadModel() error {
	e.modelMu.Lock()
	defer e.modelMu.Unlock()
	return e.model.Unload()
}

// StartDictation begins a new session: it refuses if one is already
// running, shows the recording indicator, opens the capture source, and
// spawns the consumer and dispatcher goroutines that carry the session
// through to its final injection.
func (e *Engine) StartDictation() error {
	e.mu.Lock()
	if e.dictating {
		e.mu.Unlock()
		return ErrAlreadyDictating
	}
	e.dictating = true
	e.mu.Unlock()

	if e.ind != nil {
		if err := e.ind.Set(indicator.StateRecording); err != nil {
			e.log.Warning("dictation: failed to set recording indicator: %v", err)
		}
	}
	if e.notifier != nil {
		if err := e.notifier.NotifyStartRecording(); err != nil {
			e.log.Warning("dictation: start-recording notification failed: %v", err)
		}
	}

	r, err := e.source.Start(e.cfg.Capture)
	if err != nil {
		e.mu.Lock()
		e.dictating = false
		e.mu.Unlock()
		if e.ind != nil {
			_ = e.ind.Set(indicator.StateIdle)
		}
		return fmt.Errorf("dictation: starting capture: %w", err)
	}

	sessionID := uuid.NewString()
	e.log.Info("dictation: session %s started", sessionID)
	utils.Go(func() { e.runSession(sessionID, r) })

	return nil
}

// StopDictation ends the current session, if any. It is idempotent: when
// no session is running it is a no-op that returns success. Stopping
// closes the capture source, which the consumer goroutine observes as
// ring EOF; any segment already in flight is still transcribed and
// injected before the indicator returns to idle.
func (e *Engine) StopDictation() error {
	e.mu.Lock()
	if !e.dictating {
		e.mu.Unlock()
		return nil
	}
	e.dictating = false
	e.mu.Unlock()

	e.source.Stop()
	return nil
}

// Shutdown stops any in-flight session, waits for its final injection to
// finish, and unloads the model. Calling Shutdown twice is equivalent to
// calling it once.
func (e *Engine) Shutdown() {
	e.shutdownOnce.Do(func() {
		_ = e.StopDictation()
		if !utils.WaitAll(shutdownWait) {
			e.log.Warning("dictation: session goroutines did not settle within %v", shutdownWait)
		}

		e.modelMu.Lock()
		if err := e.model.Unload(); err != nil {
			e.log.Warning("dictation: model unload failed: %v", err)
		}
		e.modelMu.Unlock()
	})
}

// runSession drains r until it reports EOF, feeding chunks to the VAD
// processor (VAD mode) or accumulating them whole (hold-to-talk), and
// hands emitted segments to a dedicated dispatcher goroutine that
// transcribes and injects them one at a time in capture order.
func (e *Engine) runSession(sessionID string, r *ring.Ring) {
	segCh := make(chan vad.Segment, 8)
	dispatchDone := make(chan struct{})
	utils.Go(func() {
		defer close(dispatchDone)
		e.runDispatcher(segCh)
	})

	var proc *vad.Processor
	if e.cfg.VadEnabled {
		proc = vad.NewProcessor(e.cfg.Vad, vad.NewEnergyDetector(e.cfg.EnergyVad))
	}
	var holdBuf []ring.Chunk

	for {
		chunk, open := r.Recv()
		if len(chunk.Samples) == 0 {
			if !open {
				break
			}
			time.Sleep(pollInterval)
			continue
		}

		if e.cfg.VadEnabled {
			if seg, ok := proc.Feed(chunk); ok {
				segCh <- seg
			}
		} else {
			holdBuf = append(holdBuf, chunk)
		}
	}

	if !e.cfg.VadEnabled && len(holdBuf) > 0 {
		segCh <- buildSegment(holdBuf)
	}
	close(segCh)
	<-dispatchDone

	e.mu.Lock()
	e.dictating = false
	e.mu.Unlock()

	if e.ind != nil {
		if err := e.ind.Set(indicator.StateIdle); err != nil {
			e.log.Warning("dictation: failed to clear indicator: %v", err)
		}
	}
	if dropped := r.Dropped(); dropped > 0 {
		e.log.Warning("dictation: session %s dropped %d chunks under backpressure", sessionID, dropped)
	}
	e.log.Info("dictation: session %s finished", sessionID)
}

// runDispatcher transcribes and injects each segment serially, in the
// order segCh delivers them, so injection order matches emission order
// even though transcription itself runs off the consumer goroutine.
func (e *Engine) runDispatcher(segCh <-chan vad.Segment) {
	for seg := range segCh {
		if e.ind != nil {
			if err := e.ind.Set(indicator.StateProcessing); err != nil {
				e.log.Warning("dictation: failed to set processing indicator: %v", err)
			}
		}

		tr, err := e.transcribeSegment(seg)
		if err != nil {
			e.log.Error("dictation: transcription failed: %v", err)
			continue
		}
		if tr.Text == "" {
			continue
		}

		if e.cfg.FocusSettleMs > 0 {
			time.Sleep(time.Duration(e.cfg.FocusSettleMs) * time.Millisecond)
		}

		injected := e.inject.Inject(tr.Text) == nil
		if !injected {
			e.log.Error("dictation: text injection failed for segment starting at %v", seg.StartTime)
		}
		if e.notifier != nil {
			if err := e.notifier.NotifyTranscriptionComplete(injected); err != nil {
				e.log.Warning("dictation: completion notification failed: %v", err)
			}
		}
	}
}

// transcribeSegment calls the shared model handle under its single-writer
// mutex. A panic inside the model (a "poisoned lock" in spirit) is
// recovered and surfaced as a transient error rather than crashing the
// session.
func (e *Engine) transcribeSegment(seg vad.Segment) (result model.Transcription, err error) {
	e.modelMu.Lock()
	defer e.modelMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = errkind.New(errkind.Transient, "TranscribeSegment", fmt.Errorf("model panicked: %v", r))
		}
	}()

	return e.model.TranscribeSegment(seg)
}

// buildSegment wraps a flat run of chunks (the hold-to-talk accumulator)
// into a single SpeechSegment, mirroring vad.Processor's own segment
// construction.
func buildSegment(chunks []ring.Chunk) vad.Segment {
	totalSamples := 0
	rate := 0
	for _, c := range chunks {
		totalSamples += len(c.Samples)
		rate = c.SampleRate
	}
	durationMs := 0
	if rate > 0 {
		durationMs = totalSamples * 1000 / rate
	}
	out := make([]ring.Chunk, len(chunks))
	copy(out, chunks)
	return vad.Segment{
		Chunks:     out,
		DurationMs: durationMs,
		StartTime:  out[0].Captured,
	}
}
