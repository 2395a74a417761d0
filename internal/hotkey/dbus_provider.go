//go:build linux

// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package hotkey

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/holdtotalk/daemon/internal/logger"
	dbus "github.com/godbus/dbus/v5"
)

const shortcutID = "holdtotalk-ptt"

// DbusProvider uses the freedesktop GlobalShortcuts portal, which
// reports true press/release transitions via Activated/Deactivated
// signals (unlike evdev, no local modifier tracking is needed).
type DbusProvider struct {
	combo  Combo
	log    logger.Logger
	events chan Event

	mu            sync.Mutex
	conn          *dbus.Conn
	sessionHandle string
}

func NewDbusProvider(combo Combo, log logger.Logger) *DbusProvider {
	return &DbusProvider{combo: combo, log: log, events: make(chan Event, 8)}
}

func (p *DbusProvider) Events() <-chan Event { return p.events }

func (p *DbusProvider) IsSupported() bool {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return false
	}
	defer func() { _ = conn.Close() }()

	obj := conn.Object("org.freedesktop.portal.Desktop", "/org/freedesktop/portal/desktop")
	var introspectData string
	if err := obj.Call("org.freedesktop.DBus.Introspectable.Introspect", 0).Store(&introspectData); err != nil {
		return false
	}
	return strings.Contains(introspectData, "GlobalShortcuts")
}

func (p *DbusProvider) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil {
		return fmt.Errorf("hotkey: dbus provider already started")
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("hotkey: connecting to session bus: %w", err)
	}
	p.conn = conn

	if err := p.bindShortcut(); err != nil {
		_ = conn.Close()
		p.conn = nil
		return fmt.Errorf("hotkey: binding GlobalShortcuts portal: %w", err)
	}

	go p.listen()
	return nil
}

func (p *DbusProvider) bindShortcut() error {
	obj := p.conn.Object("org.freedesktop.portal.Desktop", "/org/freedesktop/portal/desktop")

	sessionOpts := map[string]dbus.Variant{
		"handle_token":         dbus.MakeVariant("holdtotalk_session"),
		"session_handle_token": dbus.MakeVariant("holdtotalk_session_handle"),
	}
	call := obj.Call("org.freedesktop.portal.GlobalShortcuts.CreateSession", 0, sessionOpts)
	if call.Err != nil {
		return call.Err
	}
	if len(call.Body) == 0 {
		return fmt.Errorf("no request handle returned from CreateSession")
	}
	requestHandle, ok := call.Body[0].(dbus.ObjectPath)
	if !ok {
		return fmt.Errorf("unexpected CreateSession reply type")
	}

	sessionHandle, err := p.awaitSessionHandle(requestHandle)
	if err != nil {
		return err
	}
	p.sessionHandle = sessionHandle

	shortcuts := []struct {
		ID   string
		Data map[string]dbus.Variant
	}{{
		ID: shortcutID,
		Data: map[string]dbus.Variant{
			"description":       dbus.MakeVariant("Push-to-talk dictation"),
			"preferred_trigger": dbus.MakeVariant(comboToAccelerator(p.combo)),
		},
	}}

	call = obj.Call("org.freedesktop.portal.GlobalShortcuts.BindShortcuts", 0,
		dbus.ObjectPath(sessionHandle), shortcuts, "", map[string]dbus.Variant{})
	return call.Err
}

func (p *DbusProvider) awaitSessionHandle(requestHandle dbus.ObjectPath) (string, error) {
	rule := fmt.Sprintf("type='signal',interface='org.freedesktop.portal.Request',member='Response',path='%s'", requestHandle)
	if err := p.conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, rule).Err; err != nil {
		return "", err
	}

	c := make(chan *dbus.Signal, 1)
	p.conn.Signal(c)

	select {
	case sig := <-c:
		if sig.Name != "org.freedesktop.portal.Request.Response" || sig.Path != requestHandle || len(sig.Body) < 2 {
			return "", fmt.Errorf("unexpected response signal")
		}
		if code, ok := sig.Body[0].(uint32); !ok || code != 0 {
			return "", fmt.Errorf("CreateSession failed with code %v", sig.Body[0])
		}
		results, ok := sig.Body[1].(map[string]dbus.Variant)
		if !ok {
			return "", fmt.Errorf("unexpected results type in Response signal")
		}
		handle, ok := results["session_handle"].Value().(string)
		if !ok {
			return "", fmt.Errorf("session_handle missing from Response results")
		}
		return handle, nil
	case <-time.After(5 * time.Second):
		return "", fmt.Errorf("timed out waiting for CreateSession response")
	}
}

func (p *DbusProvider) listen() {
	rule := fmt.Sprintf("type='signal',interface='org.freedesktop.portal.GlobalShortcuts',path='%s'", p.sessionHandle)
	_ = p.conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, rule)

	c := make(chan *dbus.Signal, 10)
	p.conn.Signal(c)

	for sig := range c {
		if len(sig.Body) < 2 {
			continue
		}
		session, ok := sig.Body[0].(dbus.ObjectPath)
		if !ok || string(session) != p.sessionHandle {
			continue
		}
		id, ok := sig.Body[1].(string)
		if !ok || id != shortcutID {
			continue
		}
		switch sig.Name {
		case "org.freedesktop.portal.GlobalShortcuts.Activated":
			p.emit(Pressed)
		case "org.freedesktop.portal.GlobalShortcuts.Deactivated":
			p.emit(Released)
		}
	}
}

func (p *DbusProvider) emit(kind EventKind) {
	select {
	case p.events <- Event{Kind: kind, At: time.Now()}:
	default:
		p.log.Warning("hotkey: event channel full, dropping %s event", kind)
	}
}

func (p *DbusProvider) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return
	}
	_ = p.conn.Close()
	p.conn = nil
	close(p.events)
}

// comboToAccelerator renders combo in the desktop-portal accelerator
// syntax, e.g. "ctrl+shift+space" -> "<Ctrl><Shift>space".
func comboToAccelerator(combo Combo) string {
	var b strings.Builder
	for _, m := range combo.Modifiers {
		switch m {
		case "ctrl":
			b.WriteString("<Ctrl>")
		case "alt":
			b.WriteString("<Alt>")
		case "altgr":
			b.WriteString("<AltGr>")
		case "shift":
			b.WriteString("<Shift>")
		case "super":
			b.WriteString("<Super>")
		}
	}
	switch combo.Key {
	case "enter":
		b.WriteString("Return")
	case "esc":
		b.WriteString("Escape")
	default:
		b.WriteString(combo.Key)
	}
	return b.String()
}
