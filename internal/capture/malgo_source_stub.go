// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

//go:build !cgo

package capture

import (
	"github.com/holdtotalk/daemon/internal/errkind"
	"github.com/holdtotalk/daemon/internal/logger"
	"github.com/holdtotalk/daemon/internal/ring"
)

// MalgoSource is unavailable in a build without cgo (miniaudio requires
// cgo). Every method fails with a DeviceUnavailable error so callers can
// fall back or report the condition in status.
type MalgoSource struct{}

func NewMalgoSource(logger.Logger) (*MalgoSource, error) {
	return nil, errkind.New(errkind.DeviceUnavailable, "capture.NewMalgoSource", errUnsupportedNoCGO)
}

func (s *MalgoSource) Start(Config) (*ring.Ring, error) {
	return nil, errkind.New(errkind.DeviceUnavailable, "capture.Start", errUnsupportedNoCGO)
}

func (s *MalgoSource) ListDevices() ([]string, error) {
	return nil, errkind.New(errkind.DeviceUnavailable, "capture.ListDevices", errUnsupportedNoCGO)
}

func (s *MalgoSource) Stop() {}

func (s *MalgoSource) Close() {}
