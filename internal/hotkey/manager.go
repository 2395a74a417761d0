// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package hotkey

import (
	"fmt"

	"github.com/holdtotalk/daemon/internal/logger"
)

// Manager selects the first supported Provider and forwards its events,
// implementing the lifecycle package's HotkeyRegistrar contract.
type Manager struct {
	combo      Combo
	log        logger.Logger
	active     Provider
	events     chan Event
	candidates func(combo Combo, log logger.Logger) []Provider
}

// NewManager builds a Manager for the given hotkey string (e.g.
// "ctrl+shift+space"). Candidate providers are platform-specific; see
// candidateProviders in the linux/other build-tagged files.
func NewManager(hotkeyString string, log logger.Logger) (*Manager, error) {
	combo := ParseCombo(Normalize(hotkeyString))
	if err := Validate(hotkeyString); err != nil {
		return nil, err
	}
	return &Manager{combo: combo, log: log, events: make(chan Event, 8), candidates: candidateProviders}, nil
}

// Start tries each candidate provider in order and keeps the first one
// that both claims support and starts successfully.
func (m *Manager) Start() error {
	if m.active != nil {
		return fmt.Errorf("hotkey: manager already started")
	}

	var lastErr error
	for _, p := range m.candidates(m.combo, m.log) {
		if !p.IsSupported() {
			continue
		}
		if err := p.Start(); err != nil {
			lastErr = err
			m.log.Warning("hotkey: provider failed to start: %v", err)
			continue
		}
		m.active = p
		go m.forward(p)
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("hotkey: no provider started, last error: %w", lastErr)
	}
	return fmt.Errorf("hotkey: no supported provider found")
}

func (m *Manager) forward(p Provider) {
	for ev := range p.Events() {
		m.events <- ev
	}
}

// Events returns the channel Pressed/Released transitions arrive on.
func (m *Manager) Events() <-chan Event { return m.events }

// Stop stops the active provider, if any.
func (m *Manager) Stop() {
	if m.active != nil {
		m.active.Stop()
		m.active = nil
	}
}
