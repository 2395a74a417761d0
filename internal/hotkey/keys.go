// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package hotkey

import "strings"

// evdevKeyNames maps a subset of Linux evdev key codes to lowercase
// names, covering the keys a push-to-talk combo would plausibly use:
// letters, digits, function keys, whitespace, and modifiers.
var evdevKeyNames = map[int]string{
	1: "esc", 2: "1", 3: "2", 4: "3", 5: "4", 6: "5", 7: "6", 8: "7", 9: "8", 10: "9", 11: "0",
	14: "backspace", 15: "tab",
	16: "q", 17: "w", 18: "e", 19: "r", 20: "t", 21: "y", 22: "u", 23: "i", 24: "o", 25: "p",
	28: "enter", 29: "leftctrl",
	30: "a", 31: "s", 32: "d", 33: "f", 34: "g", 35: "h", 36: "j", 37: "k", 38: "l",
	42: "leftshift",
	44: "z", 45: "x", 46: "c", 47: "v", 48: "b", 49: "n", 50: "m",
	54: "rightshift", 56: "leftalt", 57: "space",
	59: "f1", 60: "f2", 61: "f3", 62: "f4", 63: "f5", 64: "f6",
	65: "f7", 66: "f8", 67: "f9", 68: "f10",
	87: "f11", 88: "f12",
	97: "rightctrl", 100: "rightalt", 125: "leftmeta", 126: "rightmeta",
}

// KeyName returns the lowercase key name for an evdev key code, or an
// empty string if the code isn't in the known table.
func KeyName(evdevCode int) string {
	return evdevKeyNames[evdevCode]
}

// IsModifier reports whether name is any recognized modifier key,
// generic ("ctrl") or side-specific ("leftctrl").
func IsModifier(name string) bool {
	switch strings.ToLower(name) {
	case "ctrl", "alt", "shift", "super", "meta", "win", "altgr", "hyper",
		"leftctrl", "rightctrl", "leftalt", "rightalt", "leftshift", "rightshift",
		"leftmeta", "rightmeta":
		return true
	default:
		return false
	}
}

// modifierHeld reports whether the named modifier (generic or
// side-specific) is currently held, given a map of evdev modifier key
// names to their pressed state.
func modifierHeld(name string, held map[string]bool) bool {
	switch strings.ToLower(name) {
	case "ctrl":
		return held["leftctrl"] || held["rightctrl"]
	case "alt":
		return held["leftalt"] || held["rightalt"]
	case "altgr", "rightalt":
		return held["rightalt"]
	case "shift":
		return held["leftshift"] || held["rightshift"]
	case "super", "meta", "win":
		return held["leftmeta"] || held["rightmeta"]
	default:
		return held[strings.ToLower(name)]
	}
}

// allModifiersHeld reports whether every modifier in combo is held.
func allModifiersHeld(combo Combo, held map[string]bool) bool {
	for _, m := range combo.Modifiers {
		if !modifierHeld(m, held) {
			return false
		}
	}
	return true
}
