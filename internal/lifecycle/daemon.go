// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package lifecycle

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/holdtotalk/daemon/internal/logger"
)

// Version is the daemon's reported version string.
var Version = "dev"

// Engine is the subset of the dictation engine's behavior the lifecycle
// needs to drive start/stop and report status, kept abstract so lifecycle
// never imports the dictation package directly.
type Engine interface {
	StartDictation() error
	StopDictation() error
	IsDictating() bool
	ModelName() string
	ModelLoaded() bool
	LoadModel(path string) error
	UnloadModel() error
	Shutdown()
}

// DeviceLister enumerates capture devices for the list_devices command.
// The capture source implements it; a daemon without audio support may
// leave it nil.
type DeviceLister interface {
	ListDevices() ([]string, error)
}

// HotkeyRegistrar starts the hotkey listener thread and reports whether
// registration ultimately succeeded (Open Question (b): surfaced as a
// status field distinct from State).
type HotkeyRegistrar interface {
	Start() error
}

const (
	defaultMaxRetries   = 3
	defaultRetryBackoff = 500 * time.Millisecond
)

// Daemon owns the process-level state machine, the control socket, and
// the dictation thread's supervised lifetime.
type Daemon struct {
	log        logger.Logger
	socketPath string
	engine     Engine
	hotkeys    HotkeyRegistrar

	// ConfigYAML, when set before Run, serves the active configuration
	// back over the get_config command. Devices, when set, backs
	// list_devices. Both optional.
	ConfigYAML func() (string, error)
	Devices    DeviceLister

	server *Server

	mu               sync.RWMutex
	state            State
	hotkeysAvailable bool
	startedAt        time.Time

	shutdownOnce sync.Once
	doneCh       chan struct{}
}

// New constructs a Daemon. engine and hotkeys may be wired after
// construction is not supported; both must be ready to use immediately.
func New(socketPath string, engine Engine, hotkeys HotkeyRegistrar, log logger.Logger) *Daemon {
	return &Daemon{
		log:        log,
		socketPath: socketPath,
		engine:     engine,
		hotkeys:    hotkeys,
		state:      StateStarting,
		doneCh:     make(chan struct{}),
	}
}

// Run executes the full startup sequence, blocks until shutdown is
// requested (signal or control command), then runs the shutdown sequence.
// Returns a process exit code: 0 for clean shutdown, non-zero for a fatal
// startup failure.
func (d *Daemon) Run() int {
	d.startedAt = time.Now()

	if err := d.startControlSocket(); err != nil {
		d.log.Error("fatal: %v", err)
		return 1
	}
	defer d.server.Stop()

	d.setState(StateIdle)

	d.launchDictationThread()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
		d.log.Info("received shutdown signal")
	case <-d.doneCh:
		d.log.Info("shutdown requested via control socket")
	}

	d.shutdown()
	return 0
}

func (d *Daemon) startControlSocket() error {
	d.server = NewServer(d.socketPath, d.log)
	d.server.Register(CmdGetStatus, d.handleGetStatus)
	d.server.Register(CmdShutdown, d.handleShutdown)
	d.server.Register(CmdStartDictation, d.handleStartDictation)
	d.server.Register(CmdStopDictation, d.handleStopDictation)
	d.server.Register(CmdGetConfig, d.handleGetConfig)
	d.server.Register(CmdReloadConfig, d.handleUnsupported)
	d.server.Register(CmdListDevices, d.handleListDevices)
	d.server.Register(CmdListModels, d.handleUnsupported)
	d.server.Register(CmdLoadModel, d.handleLoadModel)
	d.server.Register(CmdUnloadModel, d.handleUnloadModel)
	d.server.Register(CmdGetHistory, d.handleUnsupported)
	d.server.Register(CmdDeleteHistoryItem, d.handleUnsupported)
	d.server.Register(CmdClearHistory, d.handleUnsupported)

	return d.server.Start()
}

// launchDictationThread registers the hotkey listener on its own
// goroutine (the thread, in Go's cooperative scheduler, that may pin to
// an OS thread for platform APIs requiring it), retrying with a fixed
// backoff before giving up and continuing without hotkey support.
func (d *Daemon) launchDictationThread() {
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		var err error
		for attempt := 0; attempt <= defaultMaxRetries; attempt++ {
			err = d.hotkeys.Start()
			if err == nil {
				d.mu.Lock()
				d.hotkeysAvailable = true
				d.mu.Unlock()
				return
			}
			d.log.Warning("hotkey registration attempt %d failed: %v", attempt+1, err)
			time.Sleep(defaultRetryBackoff)
		}
		d.log.Error("hotkey registration failed after %d attempts, continuing without hotkey support: %v", defaultMaxRetries+1, err)
		d.log.Info("hotkeys need read access to input devices: on Linux, add your user to the 'input' group (usermod -aG input $USER) and log in again, or use a desktop that offers the GlobalShortcuts portal; dictation remains available via the control socket")
		d.mu.Lock()
		d.hotkeysAvailable = false
		d.mu.Unlock()
	}()
}

func (d *Daemon) shutdown() {
	d.setState(StateShuttingDown)
	d.engine.Shutdown()
	d.log.Info("shutdown complete")
}

func (d *Daemon) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

func (d *Daemon) status() DaemonStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	uptime := time.Since(d.startedAt).Seconds()
	var cpuPercent float64
	if cpuSeconds, ok := processCPUSeconds(); ok && uptime > 0 {
		// Average CPU utilization over the process's lifetime so far, not
		// an instantaneous sample: cheap to compute and needs no second
		// timestamped reading.
		cpuPercent = (cpuSeconds / uptime) * 100
	}

	isDictating := d.engine.IsDictating()
	state := d.state
	if state == StateIdle && isDictating {
		state = StateActive
	}

	return DaemonStatus{
		Version:          Version,
		PID:              os.Getpid(),
		UptimeSecs:       int64(uptime),
		State:            state,
		ModelLoaded:      d.engine.ModelLoaded(),
		ModelName:        d.engine.ModelName(),
		IsDictating:      isDictating,
		MemoryUsageBytes: memStats.Sys,
		CPUUsagePercent:  cpuPercent,
		HotkeysAvailable: d.hotkeysAvailable,
	}
}

func (d *Daemon) handleGetStatus(Request) Response {
	st := d.status()
	return Response{Kind: RespStatus, Status: &st}
}

func (d *Daemon) handleShutdown(Request) Response {
	d.shutdownOnce.Do(func() { close(d.doneCh) })
	return okResponse("shutting down")
}

func (d *Daemon) handleStartDictation(Request) Response {
	if err := d.engine.StartDictation(); err != nil {
		return errorResponse(err.Error())
	}
	return okResponse("dictation started")
}

func (d *Daemon) handleStopDictation(Request) Response {
	if err := d.engine.StopDictation(); err != nil {
		return errorResponse(err.Error())
	}
	return okResponse("dictation stopped")
}

func (d *Daemon) handleGetConfig(Request) Response {
	if d.ConfigYAML == nil {
		return errorResponse("no configuration source attached")
	}
	yaml, err := d.ConfigYAML()
	if err != nil {
		return errorResponse(err.Error())
	}
	return Response{Kind: RespConfig, Config: yaml}
}

func (d *Daemon) handleListDevices(Request) Response {
	if d.Devices == nil {
		return errorResponse("audio capture is unavailable")
	}
	names, err := d.Devices.ListDevices()
	if err != nil {
		return errorResponse(err.Error())
	}
	return Response{Kind: RespList, List: names}
}

func (d *Daemon) handleLoadModel(req Request) Response {
	if err := d.engine.LoadModel(req.Params["path"]); err != nil {
		return errorResponse(err.Error())
	}
	return okResponse("model loaded")
}

func (d *Daemon) handleUnloadModel(Request) Response {
	if err := d.engine.UnloadModel(); err != nil {
		return errorResponse(err.Error())
	}
	return okResponse("model unloaded")
}

// handleUnsupported answers commands whose implementation lives in an
// external collaborator (config persistence, model download/catalog,
// transcription history store) that this daemon does not carry.
func (d *Daemon) handleUnsupported(req Request) Response {
	return errorResponse(fmt.Sprintf("%s is handled by an external collaborator, not the daemon core", req.Command))
}
