//go:build linux

// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package hotkey

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/holdtotalk/daemon/internal/logger"
	evdev "github.com/holoplot/go-evdev"
)

// EvdevProvider watches raw Linux input devices for a configured combo,
// tracking modifier state itself since evdev reports individual keys.
type EvdevProvider struct {
	combo  Combo
	log    logger.Logger
	events chan Event

	mu       sync.RWMutex
	devices  []*evdev.InputDevice
	held     map[string]bool
	comboHot bool // whether the non-modifier key of combo is currently down

	stopCh   chan struct{}
	wg       sync.WaitGroup
	stopping int32
}

func NewEvdevProvider(combo Combo, log logger.Logger) *EvdevProvider {
	return &EvdevProvider{
		combo:  combo,
		log:    log,
		events: make(chan Event, 8),
		held:   make(map[string]bool),
	}
}

func (p *EvdevProvider) Events() <-chan Event { return p.events }

func (p *EvdevProvider) IsSupported() bool {
	devices, err := findKeyboardDevices(p.log)
	if err != nil || len(devices) == 0 {
		return false
	}
	for _, d := range devices {
		_ = d.Close()
	}
	return true
}

func findKeyboardDevices(log logger.Logger) ([]*evdev.InputDevice, error) {
	paths, err := filepath.Glob("/dev/input/event*")
	if err != nil {
		return nil, fmt.Errorf("hotkey: listing input devices: %w", err)
	}

	var devices []*evdev.InputDevice
	for _, path := range paths {
		dev, err := evdev.Open(path)
		if err != nil {
			continue
		}
		name, _ := dev.Name()
		if strings.Contains(strings.ToLower(name), "keyboard") || looksLikeKeyboard(dev) {
			devices = append(devices, dev)
		} else {
			_ = dev.Close()
		}
	}
	return devices, nil
}

func looksLikeKeyboard(dev *evdev.InputDevice) bool {
	hasKeyType := false
	for _, t := range dev.CapableTypes() {
		if t == evdev.EV_KEY {
			hasKeyType = true
			break
		}
	}
	if !hasKeyType {
		return false
	}
	common := map[uint16]bool{16: true, 30: true, 44: true, 57: true} // q, a, z, space
	for _, code := range dev.CapableEvents(evdev.EV_KEY) {
		if common[uint16(code)] {
			return true
		}
	}
	return false
}

func (p *EvdevProvider) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.devices != nil {
		return fmt.Errorf("hotkey: evdev provider already started")
	}

	devices, err := findKeyboardDevices(p.log)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		return fmt.Errorf("hotkey: no keyboard devices found")
	}

	p.devices = devices
	p.stopCh = make(chan struct{})
	atomic.StoreInt32(&p.stopping, 0)

	for i := range p.devices {
		idx := i
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.listen(idx)
		}()
	}
	return nil
}

func (p *EvdevProvider) listen(idx int) {
	p.mu.RLock()
	if idx >= len(p.devices) {
		p.mu.RUnlock()
		return
	}
	dev := p.devices[idx]
	p.mu.RUnlock()

	for {
		select {
		case <-p.stopCh:
			return
		default:
		}
		event, err := dev.ReadOne()
		if err != nil {
			if atomic.LoadInt32(&p.stopping) == 0 {
				p.log.Warning("hotkey: device read error: %v", err)
			}
			return
		}
		if event.Type == evdev.EV_KEY {
			p.handleKeyEvent(event)
		}
	}
}

func (p *EvdevProvider) handleKeyEvent(ev *evdev.InputEvent) {
	name := KeyName(int(ev.Code))
	if name == "" {
		return
	}
	down := ev.Value == 1

	p.mu.Lock()
	defer p.mu.Unlock()

	if IsModifier(name) {
		p.held[name] = down
		return
	}
	if !strings.EqualFold(name, p.combo.Key) {
		return
	}

	if down && !p.comboHot && allModifiersHeld(p.combo, p.held) {
		p.comboHot = true
		p.emit(Pressed)
	} else if !down && p.comboHot {
		p.comboHot = false
		p.emit(Released)
	}
}

// emit is called with p.mu held; it must never block indefinitely, so the
// channel is buffered and a full buffer just drops the stale event.
func (p *EvdevProvider) emit(kind EventKind) {
	select {
	case p.events <- Event{Kind: kind, At: time.Now()}:
	default:
		p.log.Warning("hotkey: event channel full, dropping %s event", kind)
	}
}

func (p *EvdevProvider) Stop() {
	p.mu.Lock()
	if p.devices == nil {
		p.mu.Unlock()
		return
	}
	atomic.StoreInt32(&p.stopping, 1)
	for _, d := range p.devices {
		_ = d.Close()
	}
	close(p.stopCh)
	p.devices = nil
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		p.log.Warning("hotkey: evdev stop timed out waiting for listener goroutines")
	}
	close(p.events)
}
