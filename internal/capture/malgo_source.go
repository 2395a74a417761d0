// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

//go:build cgo

package capture

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gen2brain/malgo"

	"github.com/holdtotalk/daemon/internal/errkind"
	"github.com/holdtotalk/daemon/internal/logger"
	"github.com/holdtotalk/daemon/internal/resample"
	"github.com/holdtotalk/daemon/internal/ring"
)

// MalgoSource captures from the default or a named input device via
// miniaudio (github.com/gen2brain/malgo). The Data callback it installs
// runs on miniaudio's realtime thread and must not allocate, block, or
// call into the model or UI.
type MalgoSource struct {
	malgoCtx *malgo.AllocatedContext
	log      logger.Logger

	mu      sync.Mutex
	device  *malgo.Device
	r       *ring.Ring
	running bool
}

// NewMalgoSource initializes the underlying miniaudio context.
func NewMalgoSource(log logger.Logger) (*MalgoSource, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(string) {})
	if err != nil {
		return nil, fmt.Errorf("capture: init audio context: %w", err)
	}
	return &MalgoSource{malgoCtx: ctx, log: log}, nil
}

// ListDevices returns the names of all capture devices miniaudio can see,
// with the system default first.
func (s *MalgoSource) ListDevices() ([]string, error) {
	infos, err := s.malgoCtx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("capture: enumerating devices: %w", err)
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		name := info.Name()
		if info.IsDefault != 0 {
			names = append([]string{name}, names...)
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// resolveDeviceID maps the config's device selector to a concrete device
// ID. "default" returns nil, which tells miniaudio to use the system
// default; an exact name must match an enumerated capture device.
func (s *MalgoSource) resolveDeviceID(selector string) (*malgo.DeviceID, error) {
	if selector == "default" {
		return nil, nil
	}
	infos, err := s.malgoCtx.Devices(malgo.Capture)
	if err != nil {
		return nil, errkind.New(errkind.DeviceUnavailable, "capture.Start", fmt.Errorf("enumerating devices: %w", err))
	}
	for _, info := range infos {
		if info.Name() == selector {
			id := info.ID
			return &id, nil
		}
	}
	return nil, errkind.New(errkind.DeviceUnavailable, "capture.Start", fmt.Errorf("device %q not found", selector))
}

// Start implements Source.
func (s *MalgoSource) Start(cfg Config) (*ring.Ring, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil, fmt.Errorf("capture: source already started")
	}

	deviceID, err := s.resolveDeviceID(cfg.Device)
	if err != nil {
		return nil, err
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	if deviceID != nil {
		deviceConfig.Capture.DeviceID = deviceID.Pointer()
	}
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	chunkSamples := cfg.ChunkSamples()
	r := ring.New(ring.Capacity(cfg.SampleRate, cfg.RingBufferSecs, chunkSamples), chunkSamples)

	// Requesting the pipeline rate directly lets the backend resample in
	// hardware where possible; our resampler is then a passthrough.
	resampler, err := resample.New(int(deviceConfig.SampleRate))
	if err != nil {
		return nil, fmt.Errorf("capture: building resampler: %w", err)
	}

	dropLog := func(dropped uint64) {
		s.log.Warning("capture: ring buffer full, %d chunks dropped so far", dropped)
	}
	acc := newAccumulator(r, resampler, chunkSamples, cfg.SampleRate, dropLog)

	// scratch is owned by the single callback thread and only grows, so
	// conversion is allocation-free once it reaches the driver's block size.
	var scratch []float32
	onRecvFrames := func(_, in []byte, frameCount uint32) {
		if cap(scratch) < int(frameCount) {
			scratch = make([]float32, frameCount)
		}
		scratch = scratch[:frameCount]
		bytesToFloat32(in, scratch)
		acc.feed(scratch, time.Now())
	}

	device, err := malgo.InitDevice(s.malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onRecvFrames,
	})
	if err != nil {
		return nil, fmt.Errorf("capture: init device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, fmt.Errorf("capture: start device: %w", err)
	}

	s.device = device
	s.r = r
	s.running = true
	return r, nil
}

// Stop implements Source. Idempotent.
func (s *MalgoSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	if s.device != nil {
		_ = s.device.Stop()
		s.device.Uninit()
		s.device = nil
	}
	// Closing the ring's producer half is what the consumer observes as EOF.
	if s.r != nil {
		s.r.Close()
		s.r = nil
	}
	s.running = false
}

// Close releases the miniaudio context. Call after the Source is no longer
// needed (daemon shutdown).
func (s *MalgoSource) Close() {
	s.Stop()
	if s.malgoCtx != nil {
		_ = s.malgoCtx.Uninit()
		s.malgoCtx.Free()
	}
}

func bytesToFloat32(buf []byte, out []float32) {
	for i := range out {
		bits := uint32(buf[i*4]) | uint32(buf[i*4+1])<<8 | uint32(buf[i*4+2])<<16 | uint32(buf[i*4+3])<<24
		out[i] = math.Float32frombits(bits)
	}
}
