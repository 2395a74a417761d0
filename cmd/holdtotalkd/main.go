// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

// holdtotalkd is the background dictation daemon: it wires configuration,
// audio capture, VAD, the model runtime, text injection, and the hotkey
// listener into a dictation.Engine, then hands the engine to the
// lifecycle daemon for control-socket exposure and signal handling.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/holdtotalk/daemon/internal/capture"
	"github.com/holdtotalk/daemon/internal/config"
	"github.com/holdtotalk/daemon/internal/dictation"
	"github.com/holdtotalk/daemon/internal/errkind"
	"github.com/holdtotalk/daemon/internal/hotkey"
	"github.com/holdtotalk/daemon/internal/indicator"
	"github.com/holdtotalk/daemon/internal/injector"
	"github.com/holdtotalk/daemon/internal/lifecycle"
	"github.com/holdtotalk/daemon/internal/logger"
	"github.com/holdtotalk/daemon/internal/model"
	"github.com/holdtotalk/daemon/internal/notify"
	"github.com/holdtotalk/daemon/internal/ring"
	"github.com/holdtotalk/daemon/internal/utils"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("holdtotalkd", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigPath(), "path to the daemon's YAML configuration file")
	debug := fs.Bool("debug", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logLevel := logger.InfoLevel
	if *debug {
		logLevel = logger.DebugLevel
	}
	var log logger.Logger = logger.NewDefaultLogger(logLevel)

	cfg, corrections, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config: %v", err)
		return 1
	}
	for _, c := range corrections {
		log.Warning("config: %s was %q, corrected to %q", c.Field, c.Was, c.Became)
	}

	if !*debug {
		logLevel = logger.ParseLevel(cfg.Logging.Level)
	}
	if configured, err := logger.Configure(logger.Config{Level: logLevel, File: cfg.Logging.File}); err != nil {
		log.Warning("failed to configure log file sink, continuing on stderr: %v", err)
	} else {
		log = configured
	}

	lockPath := utils.GetDefaultLockPath(cfg.Paths.RuntimeDir)
	lock := utils.NewLockFile(lockPath)
	if running, pid, err := lock.CheckExistingInstance(); err != nil {
		log.Warning("failed to check for an existing instance: %v", err)
	} else if running {
		fmt.Fprintf(os.Stderr, "holdtotalkd is already running (pid %d)\n", pid)
		return 1
	}
	if err := lock.TryLock(); err != nil {
		log.Error("failed to acquire lock: %v", err)
		return 1
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warning("failed to release lock: %v", err)
		}
	}()

	engine, hotkeyMgr, devices, err := buildEngine(cfg, log)
	if err != nil {
		log.Error("failed to build dictation engine: %v", err)
		return 1
	}

	go forwardHotkeyEvents(hotkeyMgr, engine, log)

	socketPath := config.DefaultSocketPath(cfg)
	daemon := lifecycle.New(socketPath, engine, hotkeyMgr, log)
	daemon.ConfigYAML = func() (string, error) { return config.ToYAML(cfg) }
	daemon.Devices = devices
	return daemon.Run()
}

// buildEngine constructs every collaborator the dictation engine needs
// from cfg: the capture source, model runtime, injector chain, indicator,
// notifications, and hotkey manager.
func buildEngine(cfg *config.DaemonConfig, log logger.Logger) (*dictation.Engine, *hotkey.Manager, lifecycle.DeviceLister, error) {
	var source capture.Source
	var devices lifecycle.DeviceLister
	malgoSrc, err := capture.NewMalgoSource(log)
	if err != nil {
		log.Warning("audio capture unavailable, dictation will fail to start until resolved: %v", err)
		source = unavailableSource{cause: err}
	} else {
		source = malgoSrc
		devices = malgoSrc
	}

	modelCfg := model.Config{
		Path:       cfg.Model.Path,
		Binary:     cfg.Model.Binary,
		TimeoutSec: cfg.Model.TimeoutSec,
		Language:   cfg.Model.Language,
	}
	runtime, err := buildModelRuntime(cfg.Model)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("model runtime: %w", err)
	}
	if err := runtime.Load(modelCfg); err != nil {
		log.Warning("model failed to load at startup, will report unloaded until reconfigured: %v", err)
	}

	runtimeDir := runtimeDirFor(cfg)
	if err := os.MkdirAll(runtimeDir, 0o700); err != nil {
		log.Warning("failed to create runtime directory %s: %v", runtimeDir, err)
	}
	ind := indicator.New(filepath.Join(runtimeDir, "indicator"))
	notifier := notify.NewManager("holdtotalk", cfg.Notifications.EnableWorkflowNotifications, cfg)
	inj := injector.Default(cfg, cfg.Output.PreferClipboard)

	hotkeyMgr, err := hotkey.NewManager(cfg.Hotkey, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("hotkey: %w", err)
	}

	engineCfg := dictation.Config{
		Capture:       cfg.Capture,
		Vad:           cfg.Vad,
		EnergyVad:     cfg.EnergyVad,
		VadEnabled:    cfg.VadEnabled,
		FocusSettleMs: cfg.Output.FocusSettleMs,
		Model:         modelCfg,
	}
	engine := dictation.New(engineCfg, source, runtime, inj, ind, notifier, log)
	return engine, hotkeyMgr, devices, nil
}

// unavailableSource satisfies capture.Source when the real audio backend
// failed to initialize, so StartDictation returns a clean error instead of
// the engine holding a nil capture.Source.
type unavailableSource struct {
	cause error
}

func (u unavailableSource) Start(capture.Config) (*ring.Ring, error) {
	return nil, errkind.New(errkind.DeviceUnavailable, "capture.Start", u.cause)
}

func (u unavailableSource) Stop() {}

func buildModelRuntime(cfg config.ModelConfig) (model.Runtime, error) {
	switch cfg.Variant {
	case "native":
		return model.NewNativeRuntime(), nil
	case "onnx":
		return model.NewONNXRuntime(), nil
	case "external_cli":
		return model.NewExternalCLIRuntime(), nil
	case "mock", "":
		return model.NewMockRuntime(), nil
	default:
		return nil, fmt.Errorf("unknown model variant %q", cfg.Variant)
	}
}

// forwardHotkeyEvents bridges the hotkey manager's Pressed/Released
// stream to the engine's start/stop calls for the lifetime of the
// process; a failed start is logged, not propagated, so the engine stays
// usable for the next press.
func forwardHotkeyEvents(mgr *hotkey.Manager, engine *dictation.Engine, log logger.Logger) {
	for ev := range mgr.Events() {
		switch ev.Kind {
		case hotkey.Pressed:
			if err := engine.StartDictation(); err != nil {
				log.Warning("start-dictation failed: %v", err)
			}
		case hotkey.Released:
			if err := engine.StopDictation(); err != nil {
				log.Warning("stop-dictation failed: %v", err)
			}
		}
	}
}

// runtimeDirFor resolves the per-user runtime directory the same way
// config.DefaultSocketPath does, so the indicator file and control socket
// always land in the same place.
func runtimeDirFor(cfg *config.DaemonConfig) string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir
	}
	if cfg.Paths.RuntimeDir != "" {
		return cfg.Paths.RuntimeDir
	}
	return os.TempDir()
}

func defaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "holdtotalk", "config.yaml")
	}
	return "config.yaml"
}
