// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package lifecycle

import (
	"bytes"
	"testing"
	"time"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	want := Envelope{ID: 42, Request: &Request{Command: CmdGetStatus, Params: map[string]string{"a": "b"}}}

	if err := WriteEnvelope(&buf, want); err != nil {
		t.Fatalf("WriteEnvelope: %v", err)
	}

	got, err := ReadEnvelope(&buf)
	if err != nil {
		t.Fatalf("ReadEnvelope: %v", err)
	}
	if got.ID != want.ID || got.Request.Command != want.Request.Command {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestRateLimiterBlocksBurstsPerPeer(t *testing.T) {
	rl := newRateLimiter(50 * time.Millisecond)
	now := time.Now()

	if !rl.Allow(1000, CmdGetStatus, now) {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow(1000, CmdGetStatus, now.Add(1*time.Millisecond)) {
		t.Fatal("immediate second request from same peer should be rate limited")
	}
	if !rl.Allow(1000, CmdGetStatus, now.Add(60*time.Millisecond)) {
		t.Fatal("request after min interval should be allowed")
	}
	if !rl.Allow(2000, CmdGetStatus, now.Add(1*time.Millisecond)) {
		t.Fatal("a different peer should not be affected by peer 1000's limiter state")
	}
}

func TestCriticalCommandsBypassRateLimiter(t *testing.T) {
	rl := newRateLimiter(time.Hour)
	now := time.Now()
	rl.Allow(1, CmdPing, now)
	if !rl.Allow(1, CmdPing, now) {
		t.Error("ping should always bypass the rate limiter")
	}
	if !rl.Allow(1, CmdShutdown, now) {
		t.Error("shutdown should always bypass the rate limiter")
	}
}
