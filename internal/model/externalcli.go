// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package model

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/holdtotalk/daemon/internal/errkind"
	"github.com/holdtotalk/daemon/internal/utils"
	"github.com/holdtotalk/daemon/internal/vad"
)

const defaultExternalTimeout = 30 * time.Second

// segmentLineRE matches whisper.cpp-CLI-style output lines:
// [00:00:00.000 --> 00:00:02.500]   hello there
var segmentLineRE = regexp.MustCompile(`^\[(\d{2}):(\d{2}):(\d{2})[.,](\d{3}) --> \d{2}:\d{2}:\d{2}[.,]\d{3}\]\s*(.*)$`)

// ExternalCLIRuntime shells out to a transcription binary per segment,
// feeding it a temporary 16-bit mono WAV file and parsing timestamped
// text lines from stdout. This is the variant of last resort: it works
// with any CLI tool that follows the whisper.cpp output convention,
// trading latency and process overhead for zero in-process dependency.
type ExternalCLIRuntime struct {
	mu        sync.Mutex
	loaded    bool
	binary    string
	modelPath string
	timeout   time.Duration
	language  string
}

func NewExternalCLIRuntime() *ExternalCLIRuntime {
	return &ExternalCLIRuntime{}
}

func (e *ExternalCLIRuntime) Load(cfg Config) error {
	if cfg.Binary == "" {
		return errkind.New(errkind.ConfigInvalid, "ExternalCLIRuntime.Load", fmt.Errorf("no binary configured"))
	}
	if _, err := exec.LookPath(cfg.Binary); err != nil {
		return errkind.New(errkind.ModelUnavailable, "ExternalCLIRuntime.Load", fmt.Errorf("binary %q not found in PATH: %w", cfg.Binary, err))
	}

	timeout := defaultExternalTimeout
	if cfg.TimeoutSec > 0 {
		timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.binary = cfg.Binary
	e.modelPath = cfg.Path
	e.timeout = timeout
	e.language = cfg.Language
	e.loaded = true
	return nil
}

func (e *ExternalCLIRuntime) IsLoaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded
}

func (e *ExternalCLIRuntime) Transcribe(samples []float32, sampleRate int) (Transcription, error) {
	start := time.Now()

	e.mu.Lock()
	loaded, binary, modelPath, timeout, language := e.loaded, e.binary, e.modelPath, e.timeout, e.language
	e.mu.Unlock()

	if err := ValidatePreconditions(loaded, samples, sampleRate); err != nil {
		return Transcription{}, err
	}

	wavPath, err := writeTempWAV(samples, sampleRate)
	if err != nil {
		return Transcription{}, errkind.New(errkind.Transient, "ExternalCLIRuntime.Transcribe", err)
	}
	defer func() { _ = os.Remove(wavPath) }()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	args := []string{"-f", wavPath}
	if modelPath != "" {
		args = append(args, "-m", modelPath)
	}
	if language != "" && language != "auto" {
		args = append(args, "-l", language)
	}

	// #nosec G204 -- binary is validated against PATH at Load time, args are fixed flags plus our own temp file path
	cmd := exec.CommandContext(ctx, binary, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stdout

	runErr := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return Transcription{}, errkind.New(errkind.Transient, "ExternalCLIRuntime.Transcribe", fmt.Errorf("transcription binary timed out after %s and was killed", timeout))
	}
	if runErr != nil {
		return Transcription{}, errkind.New(errkind.Transient, "ExternalCLIRuntime.Transcribe", fmt.Errorf("%s exited with error: %w", binary, runErr))
	}

	text := parseSegmentedOutput(stdout.String())
	return Transcription{
		Text:             TrimText(text),
		Language:         language,
		ProcessingTimeMs: timeSince(start),
	}, nil
}

func (e *ExternalCLIRuntime) TranscribeSegment(segment vad.Segment) (Transcription, error) {
	samples := ConcatenateChunks(segment.Chunks)
	rate := 0
	if len(segment.Chunks) > 0 {
		rate = segment.Chunks[0].SampleRate
	}
	return e.Transcribe(samples, rate)
}

func (e *ExternalCLIRuntime) Unload() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loaded = false
	return nil
}

func (e *ExternalCLIRuntime) Name() string { return "external-cli" }
func (e *ExternalCLIRuntime) Info() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fmt.Sprintf("external CLI transcriber (%s)", e.binary)
}

// writeTempWAV encodes samples as a 16-bit mono PCM WAV file with owner-only
// permissions, since it briefly holds raw speech audio on disk.
func writeTempWAV(samples []float32, sampleRate int) (string, error) {
	if err := utils.CheckDiskSpace(filepath.Join(os.TempDir(), "probe")); err != nil {
		return "", errkind.New(errkind.Transient, "writeTempWAV", fmt.Errorf("disk space check: %w", err))
	}

	f, err := os.CreateTemp("", "holdtotalk-segment-*.wav")
	if err != nil {
		return "", fmt.Errorf("creating temp wav file: %w", err)
	}
	path := f.Name()

	if err := os.Chmod(path, 0o600); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("setting temp wav permissions: %w", err)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{SampleRate: sampleRate, NumChannels: 1},
		Data:   make([]int, len(samples)),
	}
	for i, s := range samples {
		buf.Data[i] = int(s * 32767)
	}
	if err := enc.Write(buf); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("encoding wav data: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("finalizing wav file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("closing wav file: %w", err)
	}
	return path, nil
}

// parseSegmentedOutput extracts and concatenates the text portion of
// every "[hh:mm:ss.fff --> hh:mm:ss.fff] text" line, skipping anything
// else (progress output, warnings from the child's stderr).
func parseSegmentedOutput(output string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if m := segmentLineRE.FindStringSubmatch(line); m != nil {
			b.WriteString(m[5])
			b.WriteString(" ")
			continue
		}
	}
	return b.String()
}
