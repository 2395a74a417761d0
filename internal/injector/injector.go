// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

// Package injector implements the "type this string at the focused input"
// contract via allowlisted subprocess tools: xdotool/wtype/ydotool for
// direct keystroke injection, xsel/wl-copy for clipboard-based injection.
package injector

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/holdtotalk/daemon/internal/platform"
)

// CommandChecker gates and sanitizes subprocess invocations, implemented
// by *config.DaemonConfig.
type CommandChecker interface {
	IsCommandAllowed(name string) bool
	SanitizeArgs(args []string) []string
}

// Injector delivers text to the currently focused input.
type Injector interface {
	Inject(text string) error
	Name() string
}

// sessionType describes the detected display server, used to pick the
// right tool.
type sessionType int

const (
	sessionX11 sessionType = iota
	sessionWayland
)

func detectSession() sessionType {
	if platform.DetectEnvironment() == platform.EnvironmentWayland {
		return sessionWayland
	}
	return sessionX11
}

// TypeInjector synthesizes keystrokes via xdotool (X11) or wtype, falling
// back to ydotool, on Wayland.
type TypeInjector struct {
	checker CommandChecker
}

func NewTypeInjector(checker CommandChecker) *TypeInjector {
	return &TypeInjector{checker: checker}
}

func (t *TypeInjector) Name() string { return "type" }

func (t *TypeInjector) Inject(text string) error {
	if detectSession() == sessionWayland {
		return t.injectWayland(text)
	}
	return t.runTool("xdotool", []string{"type", "--clearmodifiers", "--", text})
}

func (t *TypeInjector) injectWayland(text string) error {
	if toolExists("wtype") {
		if err := t.runTool("wtype", []string{text}); err == nil {
			return nil
		}
	}
	// ydotool cannot reliably type non-ASCII on Wayland; callers should
	// prefer the clipboard injector for such text.
	if !isASCII(text) {
		return fmt.Errorf("injector: non-ASCII text requires the clipboard injector under ydotool")
	}
	return t.runTool("ydotool", []string{"type", text})
}

func (t *TypeInjector) runTool(name string, args []string) error {
	if !toolExists(name) {
		return fmt.Errorf("injector: %s not found in PATH", name)
	}
	if t.checker != nil && !t.checker.IsCommandAllowed(name) {
		return fmt.Errorf("injector: %s not allowlisted", name)
	}
	if t.checker != nil {
		args = t.checker.SanitizeArgs(args)
	}
	// #nosec G204 -- tool name and args are allowlisted/sanitized above
	return exec.Command(name, args...).Run()
}

// ClipboardInjector copies text to the system clipboard via xsel (X11) or
// wl-copy (Wayland); pairing it with a paste keystroke is the caller's
// responsibility (e.g. via a TypeInjector for Ctrl+V), since a raw paste
// outside the focused app's control is out of scope here.
type ClipboardInjector struct {
	checker CommandChecker
}

func NewClipboardInjector(checker CommandChecker) *ClipboardInjector {
	return &ClipboardInjector{checker: checker}
}

func (c *ClipboardInjector) Name() string { return "clipboard" }

func (c *ClipboardInjector) Inject(text string) error {
	if detectSession() == sessionWayland {
		return c.copyVia("wl-copy", nil, text)
	}
	return c.copyVia("xsel", []string{"--clipboard", "--input"}, text)
}

// copyVia runs name with args, feeding text on stdin. wl-copy takes the
// text as an argument too, but piping on stdin works for both tools and
// avoids putting clipboard contents on the process command line.
func (c *ClipboardInjector) copyVia(name string, args []string, text string) error {
	if !toolExists(name) {
		return fmt.Errorf("injector: %s not found in PATH", name)
	}
	if c.checker != nil && !c.checker.IsCommandAllowed(name) {
		return fmt.Errorf("injector: %s not allowlisted", name)
	}
	if c.checker != nil {
		args = c.checker.SanitizeArgs(args)
	}

	cmd := exec.Command(name, args...) // #nosec G204 -- allowlisted tool
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}

func toolExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > 127 {
			return false
		}
	}
	return true
}
