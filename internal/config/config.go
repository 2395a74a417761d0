// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

// Package config loads and validates the daemon's YAML configuration file.
// Validation corrects rather than rejects: out-of-range values are clamped
// to a known-good default and reported rather than aborting startup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/holdtotalk/daemon/internal/capture"
	"github.com/holdtotalk/daemon/internal/vad"
)

// ModelConfig selects and configures the transcription backend.
type ModelConfig struct {
	Variant    string `yaml:"variant"` // mock | native | onnx | external_cli
	Path       string `yaml:"path"`
	Binary     string `yaml:"binary,omitempty"`      // external_cli only
	TimeoutSec int    `yaml:"timeout_sec,omitempty"` // external_cli only
	Language   string `yaml:"language,omitempty"`
}

// OutputConfig selects the text-injection strategy.
type OutputConfig struct {
	PreferClipboard bool `yaml:"prefer_clipboard"`
	FocusSettleMs   int  `yaml:"focus_settle_ms"`
}

// PathsConfig enumerates the per-user directories the daemon reads/writes.
type PathsConfig struct {
	ConfigDir  string `yaml:"config_dir"`
	DataDir    string `yaml:"data_dir"`
	CacheDir   string `yaml:"cache_dir"`
	RuntimeDir string `yaml:"runtime_dir"`
}

// SecurityConfig allowlists external commands the daemon is permitted to
// exec (notify-send, clipboard/typing tools, external-CLI model binary).
type SecurityConfig struct {
	AllowedCommands []string `yaml:"allowed_commands"`
}

// NotificationsConfig gates desktop notifications on dictation events.
type NotificationsConfig struct {
	EnableWorkflowNotifications bool `yaml:"enable_workflow_notifications"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

// DaemonConfig is the top-level YAML-backed configuration. VadEnabled
// selects between the two dictation modes: true streams continuous
// speech-segment detection for the whole hotkey-held session, false
// (hold-to-talk) treats everything captured between press and release as
// a single segment.
type DaemonConfig struct {
	Capture       capture.Config      `yaml:"capture"`
	Vad           vad.ProcessorConfig `yaml:"vad"`
	VadEnabled    bool                `yaml:"vad_enabled"`
	EnergyVad     vad.EnergyConfig    `yaml:"energy_vad"`
	Model         ModelConfig         `yaml:"model"`
	Hotkey        string              `yaml:"hotkey"`
	Output        OutputConfig        `yaml:"output"`
	Paths         PathsConfig         `yaml:"paths"`
	Security      SecurityConfig      `yaml:"security"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Logging       LoggingConfig       `yaml:"logging"`
}

var hostnameRe = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

// SetDefaults fills cfg with the daemon's known-good defaults. Called
// before a YAML file is read, so any field absent from the file keeps its
// default.
func SetDefaults(cfg *DaemonConfig) {
	cfg.Capture = capture.Config{
		Device:          "default",
		SampleRate:      16000,
		ChunkDurationMs: 100,
		RingBufferSecs:  2.0,
	}
	cfg.Vad = vad.ProcessorConfig{PreRollMs: 300, PostRollMs: 300}
	cfg.VadEnabled = true
	cfg.EnergyVad = vad.EnergyConfig{
		Threshold:          0.02,
		MinSpeechChunks:    3,
		MinSilenceChunks:   5,
		Adaptive:           true,
		AdaptiveWindowSize: 20,
	}
	cfg.Model = ModelConfig{
		Variant:    "mock",
		TimeoutSec: 30,
		Language:   "auto",
	}
	cfg.Hotkey = "ctrl+shift+space"
	cfg.Output = OutputConfig{PreferClipboard: false, FocusSettleMs: 50}
	cfg.Security = SecurityConfig{
		AllowedCommands: []string{"notify-send", "xdotool", "wtype", "ydotool", "xsel", "wl-copy"},
	}
	cfg.Notifications = NotificationsConfig{EnableWorkflowNotifications: true}
	cfg.Logging = LoggingConfig{Level: "info"}
}

// Correction records one auto-corrected out-of-range field.
type Correction struct {
	Field  string
	Was    string
	Became string
}

// Validate checks cfg against the bounds in the data model and clamps
// invalid values to defaults in place, returning the corrections made
// (never an error — a config file is never rejected outright).
func Validate(cfg *DaemonConfig) []Correction {
	var corrections []Correction
	note := func(field, was, became string) {
		corrections = append(corrections, Correction{Field: field, Was: was, Became: became})
	}

	if !validSampleRate(cfg.Capture.SampleRate) {
		note("capture.sample_rate", fmt.Sprintf("%d", cfg.Capture.SampleRate), "16000")
		cfg.Capture.SampleRate = 16000
	}
	if cfg.Capture.ChunkDurationMs < 10 || cfg.Capture.ChunkDurationMs > 1000 {
		note("capture.chunk_duration_ms", fmt.Sprintf("%d", cfg.Capture.ChunkDurationMs), "100")
		cfg.Capture.ChunkDurationMs = 100
	}
	if cfg.Capture.RingBufferSecs < 1 || cfg.Capture.RingBufferSecs > 60 {
		note("capture.ring_buffer_secs", fmt.Sprintf("%v", cfg.Capture.RingBufferSecs), "2")
		cfg.Capture.RingBufferSecs = 2
	}
	if strings.TrimSpace(cfg.Capture.Device) == "" {
		note("capture.device", cfg.Capture.Device, "default")
		cfg.Capture.Device = "default"
	}

	if cfg.EnergyVad.MinSpeechChunks <= 0 {
		note("energy_vad.min_speech_chunks", fmt.Sprintf("%d", cfg.EnergyVad.MinSpeechChunks), "3")
		cfg.EnergyVad.MinSpeechChunks = 3
	}
	if cfg.EnergyVad.MinSilenceChunks <= 0 {
		note("energy_vad.min_silence_chunks", fmt.Sprintf("%d", cfg.EnergyVad.MinSilenceChunks), "5")
		cfg.EnergyVad.MinSilenceChunks = 5
	}
	if cfg.EnergyVad.Adaptive && cfg.EnergyVad.AdaptiveWindowSize <= 0 {
		note("energy_vad.adaptive_window_size", fmt.Sprintf("%d", cfg.EnergyVad.AdaptiveWindowSize), "20")
		cfg.EnergyVad.AdaptiveWindowSize = 20
	}

	switch cfg.Model.Variant {
	case "mock", "native", "onnx", "external_cli":
	default:
		note("model.variant", cfg.Model.Variant, "mock")
		cfg.Model.Variant = "mock"
	}
	if cfg.Model.TimeoutSec <= 0 {
		note("model.timeout_sec", fmt.Sprintf("%d", cfg.Model.TimeoutSec), "30")
		cfg.Model.TimeoutSec = 30
	}

	if strings.TrimSpace(cfg.Hotkey) == "" {
		note("hotkey", cfg.Hotkey, "ctrl+shift+space")
		cfg.Hotkey = "ctrl+shift+space"
	}

	if cfg.Output.FocusSettleMs < 0 {
		note("output.focus_settle_ms", fmt.Sprintf("%d", cfg.Output.FocusSettleMs), "50")
		cfg.Output.FocusSettleMs = 50
	}

	if len(cfg.Security.AllowedCommands) == 0 {
		note("security.allowed_commands", "[]", "defaults")
		cfg.Security.AllowedCommands = []string{"notify-send", "xdotool", "wtype", "ydotool", "xsel", "wl-copy"}
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warning", "error":
	default:
		note("logging.level", cfg.Logging.Level, "info")
		cfg.Logging.Level = "info"
	}

	return corrections
}

func validSampleRate(rate int) bool {
	switch rate {
	case 8000, 16000, 22050, 44100, 48000:
		return true
	default:
		return false
	}
}

// Load reads and parses the YAML file at path, applying defaults first so
// any field missing from the file still has a known-good value, then
// validates/corrects the result. A missing file is not an error: defaults
// are returned as-is, so a fresh install runs without writing a config
// file first.
func Load(path string) (*DaemonConfig, []Correction, error) {
	cfg := &DaemonConfig{}
	SetDefaults(cfg)

	data, err := os.ReadFile(path) // #nosec G304 -- path is operator-supplied config location
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil, nil
		}
		return cfg, nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	corrections := Validate(cfg)
	return cfg, corrections, nil
}

// Save writes cfg as YAML to path, creating the parent directory with
// owner-only permissions if needed.
func Save(path string, cfg *DaemonConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("config: creating directory %s: %w", dir, err)
	}

	clean := filepath.Clean(path)
	if clean != path {
		return fmt.Errorf("config: refusing suspicious path %q", path)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

// ToYAML renders cfg as YAML, the form get_config serves back to clients.
func ToYAML(cfg *DaemonConfig) (string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("config: marshaling: %w", err)
	}
	return string(data), nil
}

// IsCommandAllowed reports whether name is present in the security
// allowlist.
func IsCommandAllowed(cfg *DaemonConfig, name string) bool {
	for _, allowed := range cfg.Security.AllowedCommands {
		if allowed == name {
			return true
		}
	}
	return false
}

// IsCommandAllowed implements notify.CommandChecker and injector's
// equivalent interface so *DaemonConfig can be passed directly to both.
func (cfg *DaemonConfig) IsCommandAllowed(name string) bool {
	return IsCommandAllowed(cfg, name)
}

// SanitizeArgs implements notify.CommandChecker / injector's equivalent.
func (cfg *DaemonConfig) SanitizeArgs(args []string) []string {
	return SanitizeCommandArgs(args)
}

// SanitizeCommandArgs strips arguments containing shell metacharacters or
// control bytes before they reach exec.Command, which never invokes a
// shell itself but this defends against arguments that embed a hostname
// users might paste from elsewhere.
func SanitizeCommandArgs(args []string) []string {
	safe := make([]string, 0, len(args))
	for _, a := range args {
		if strings.ContainsAny(a, "\x00\n\r") {
			continue
		}
		safe = append(safe, a)
	}
	return safe
}

// ValidHostname reports whether s looks like a safe bare hostname/token
// (used to validate device-name-like config values before they reach an
// external command).
func ValidHostname(s string) bool {
	return hostnameRe.MatchString(s)
}

// DefaultSocketPath returns the control socket path under the per-user XDG
// runtime directory, falling back to the configured runtime dir or the
// system temp directory.
func DefaultSocketPath(cfg *DaemonConfig) string {
	const socketFile = "holdtotalkd.sock"
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return filepath.Join(runtimeDir, socketFile)
	}
	if cfg != nil && cfg.Paths.RuntimeDir != "" {
		return filepath.Join(cfg.Paths.RuntimeDir, socketFile)
	}
	return filepath.Join(os.TempDir(), socketFile)
}
