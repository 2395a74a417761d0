// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package hotkey

import (
	"errors"
	"testing"
	"time"

	"github.com/holdtotalk/daemon/internal/logger"
	"github.com/holdtotalk/daemon/internal/testutil"
)

func TestNormalizeOrdersAndDeduplicatesModifiers(t *testing.T) {
	got := Normalize("Shift+leftctrl+SPACE")
	want := "ctrl+shift+space"
	if got != want {
		t.Errorf("Normalize() = %q, want %q", got, want)
	}
}

func TestParseComboSplitsModifiersAndKey(t *testing.T) {
	combo := ParseCombo("ctrl+shift+space")
	if combo.Key != "space" {
		t.Errorf("Key = %q, want space", combo.Key)
	}
	if len(combo.Modifiers) != 2 || combo.Modifiers[0] != "ctrl" || combo.Modifiers[1] != "shift" {
		t.Errorf("Modifiers = %v, want [ctrl shift]", combo.Modifiers)
	}
}

func TestValidateRejectsEmptyAndModifierOnlyCombos(t *testing.T) {
	if err := Validate(""); err == nil {
		t.Error("expected error for empty hotkey")
	}
	if err := Validate("ctrl"); err == nil {
		t.Error("expected error when the key itself is a modifier")
	}
	if err := Validate("ctrl+shift+space"); err != nil {
		t.Errorf("expected a valid combo to pass, got %v", err)
	}
}

type fakeProvider struct {
	supported bool
	startErr  error
	events    chan Event
	started   bool
}

func newFakeProvider(supported bool, startErr error) *fakeProvider {
	return &fakeProvider{supported: supported, startErr: startErr, events: make(chan Event, 4)}
}

func (f *fakeProvider) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started = true
	return nil
}
func (f *fakeProvider) Stop()                { close(f.events) }
func (f *fakeProvider) Events() <-chan Event { return f.events }
func (f *fakeProvider) IsSupported() bool    { return f.supported }

func TestManagerSkipsUnsupportedAndFailingProviders(t *testing.T) {
	unsupported := newFakeProvider(false, nil)
	failing := newFakeProvider(true, errors.New("boom"))
	good := newFakeProvider(true, nil)

	m := &Manager{
		combo:  ParseCombo("ctrl+shift+space"),
		log:    testutil.NewMockLogger(),
		events: make(chan Event, 4),
		candidates: func(Combo, logger.Logger) []Provider {
			return []Provider{unsupported, failing, good}
		},
	}

	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if unsupported.started {
		t.Error("unsupported provider should never have Start called")
	}
	if !good.started {
		t.Error("the first supported provider should have been started")
	}
	m.Stop()
}

func TestManagerForwardsEventsFromActiveProvider(t *testing.T) {
	good := newFakeProvider(true, nil)
	m := &Manager{
		combo:      ParseCombo("ctrl+shift+space"),
		log:        testutil.NewMockLogger(),
		events:     make(chan Event, 4),
		candidates: func(Combo, logger.Logger) []Provider { return []Provider{good} },
	}

	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	good.events <- Event{Kind: Pressed, At: time.Now()}
	select {
	case ev := <-m.Events():
		if ev.Kind != Pressed {
			t.Errorf("got %v, want Pressed", ev.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for forwarded event")
	}
	m.Stop()
}
