// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

// Package logger is the daemon's leveled logging facade: stderr by
// default, optionally mirrored to a file sink configured in the daemon's
// logging section.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// LogLevel orders message severities; messages below the configured
// level are discarded.
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarningLevel
	ErrorLevel
)

// ParseLevel maps a configuration string to its LogLevel, defaulting to
// InfoLevel for anything unrecognized.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "warning":
		return WarningLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Logger is the interface every component logs through.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warning(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// Config selects the level threshold and an optional file sink.
type Config struct {
	Level LogLevel
	File  string
}

// DefaultLogger writes leveled, timestamped lines to its own sink; it
// never touches the process-global log state.
type DefaultLogger struct {
	level LogLevel
	out   *log.Logger
}

// NewDefaultLogger builds a stderr logger at the given level.
func NewDefaultLogger(level LogLevel) *DefaultLogger {
	return newLogger(level, os.Stderr)
}

func newLogger(level LogLevel, w io.Writer) *DefaultLogger {
	return &DefaultLogger{
		level: level,
		out:   log.New(w, "", log.LstdFlags|log.Lshortfile),
	}
}

// Configure builds a logger from config: stderr always, plus the file
// sink when one is configured. The file and its directory are created
// with owner-only permissions since log lines can include transcribed
// text.
func Configure(config Config) (*DefaultLogger, error) {
	w := io.Writer(os.Stderr)
	if config.File != "" {
		dir := filepath.Dir(config.File)
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("logger: creating log directory %s: %w", dir, err)
		}
		f, err := os.OpenFile(config.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("logger: opening log file %s: %w", config.File, err)
		}
		w = io.MultiWriter(os.Stderr, f)
	}
	return newLogger(config.Level, w), nil
}

func (l *DefaultLogger) logf(threshold LogLevel, tag, format string, args ...interface{}) {
	if l.level > threshold {
		return
	}
	_ = l.out.Output(3, tag+" "+fmt.Sprintf(format, args...))
}

func (l *DefaultLogger) Debug(format string, args ...interface{}) {
	l.logf(DebugLevel, "[DEBUG]", format, args...)
}

func (l *DefaultLogger) Info(format string, args ...interface{}) {
	l.logf(InfoLevel, "[INFO]", format, args...)
}

func (l *DefaultLogger) Warning(format string, args ...interface{}) {
	l.logf(WarningLevel, "[WARNING]", format, args...)
}

func (l *DefaultLogger) Error(format string, args ...interface{}) {
	l.logf(ErrorLevel, "[ERROR]", format, args...)
}
