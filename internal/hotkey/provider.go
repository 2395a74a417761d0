// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

// Package hotkey listens for a single configured key combination and
// reports its press/release transitions, decoupling the dictation
// engine from the platform-specific way a key combo is observed
// (raw evdev devices vs a desktop portal).
package hotkey

import (
	"fmt"
	"strings"
	"time"
)

// EventKind distinguishes a press from a release of the configured combo.
type EventKind int

const (
	Pressed EventKind = iota
	Released
)

func (k EventKind) String() string {
	if k == Pressed {
		return "pressed"
	}
	return "released"
}

// Event reports one transition of the configured hotkey combination.
type Event struct {
	Kind EventKind
	At   time.Time
}

// Combo is a parsed hotkey combination: zero or more modifiers plus one
// non-modifier key.
type Combo struct {
	Modifiers []string
	Key       string
}

// Provider is a platform-specific source of Pressed/Released events for
// one configured Combo.
type Provider interface {
	// Start begins listening. Emitted events arrive on Events().
	Start() error
	// Stop ends listening and closes the Events channel.
	Stop()
	// Events returns the channel events are delivered on. Valid after Start.
	Events() <-chan Event
	// IsSupported reports whether this provider can work in the current
	// environment, without actually starting it.
	IsSupported() bool
}

// ParseCombo splits a "ctrl+shift+space"-style string into modifiers and
// a trailing key.
func ParseCombo(s string) Combo {
	parts := strings.Split(s, "+")
	if len(parts) == 1 {
		return Combo{Key: strings.TrimSpace(parts[0])}
	}
	combo := Combo{Key: strings.TrimSpace(parts[len(parts)-1])}
	for _, p := range parts[:len(parts)-1] {
		combo.Modifiers = append(combo.Modifiers, strings.ToLower(strings.TrimSpace(p)))
	}
	return combo
}

// Normalize renders s in canonical form: lowercase, modifiers deduplicated
// and ordered ctrl,shift,alt,altgr,super, key last.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	var cleaned []string
	for _, p := range strings.Split(s, "+") {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		return ""
	}

	key := cleaned[len(cleaned)-1]
	seen := make(map[string]bool)
	for _, m := range cleaned[:len(cleaned)-1] {
		seen[canonicalModifier(m)] = true
	}

	order := []string{"ctrl", "shift", "alt", "altgr", "super"}
	var ordered []string
	for _, o := range order {
		if seen[o] {
			ordered = append(ordered, o)
		}
	}
	if len(ordered) == 0 {
		return key
	}
	return strings.Join(ordered, "+") + "+" + key
}

func canonicalModifier(m string) string {
	switch m {
	case "win", "meta", "leftmeta", "rightmeta":
		return "super"
	case "rightalt", "altgr":
		return "altgr"
	case "leftalt":
		return "alt"
	case "leftctrl", "rightctrl":
		return "ctrl"
	case "leftshift", "rightshift":
		return "shift"
	default:
		return m
	}
}

// Validate rejects an empty combo or one whose key is itself a modifier.
func Validate(s string) error {
	n := Normalize(s)
	if n == "" {
		return fmt.Errorf("hotkey: empty combination")
	}
	combo := ParseCombo(n)
	if combo.Key == "" {
		return fmt.Errorf("hotkey: missing key")
	}
	if IsModifier(combo.Key) {
		return fmt.Errorf("hotkey: key %q cannot itself be a modifier", combo.Key)
	}
	return nil
}
