// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

// Package testutil holds small test doubles shared across package tests.
package testutil

import (
	"fmt"
	"sync"
)

// MockLogger implements logger.Logger, recording messages for assertions.
type MockLogger struct {
	mu       sync.Mutex
	messages []string
}

func NewMockLogger() *MockLogger {
	return &MockLogger{messages: make([]string, 0)}
}

func (m *MockLogger) Debug(format string, args ...interface{}) {
	m.append("[DEBUG] " + fmt.Sprintf(format, args...))
}

func (m *MockLogger) Info(format string, args ...interface{}) {
	m.append("[INFO] " + fmt.Sprintf(format, args...))
}

func (m *MockLogger) Warning(format string, args ...interface{}) {
	m.append("[WARNING] " + fmt.Sprintf(format, args...))
}

func (m *MockLogger) Error(format string, args ...interface{}) {
	m.append("[ERROR] " + fmt.Sprintf(format, args...))
}

func (m *MockLogger) append(line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, line)
}

// Messages returns a copy of all logged lines.
func (m *MockLogger) Messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.messages))
	copy(out, m.messages)
	return out
}

// Clear discards all recorded messages.
func (m *MockLogger) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = m.messages[:0]
}
