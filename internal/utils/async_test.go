// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package utils

import (
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestWaitAllSettlesAfterTrackedGoroutinesFinish(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var ran int32
	for i := 0; i < 10; i++ {
		Go(func() {
			atomic.AddInt32(&ran, 1)
			time.Sleep(5 * time.Millisecond)
		})
	}

	if !WaitAll(time.Second) {
		t.Fatal("WaitAll timed out waiting for short-lived goroutines")
	}
	if got := atomic.LoadInt32(&ran); got != 10 {
		t.Errorf("expected 10 tracked goroutines to run, got %d", got)
	}
}

func TestWaitAllTimesOutAndAbandonsGeneration(t *testing.T) {
	release := make(chan struct{})
	Go(func() { <-release })

	start := time.Now()
	if WaitAll(50 * time.Millisecond) {
		t.Error("WaitAll should have timed out while the goroutine is blocked")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("WaitAll overshot its timeout: %v", elapsed)
	}

	// The abandoned generation must not leak into the next wait.
	if !WaitAll(time.Second) {
		t.Error("a fresh generation with no goroutines should settle immediately")
	}
	close(release)
}

func TestConcurrentGoLaunches(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var ran int32
	var spawners int32 = 5
	done := make(chan struct{}, 5)
	for i := int32(0); i < spawners; i++ {
		go func() {
			for j := 0; j < 10; j++ {
				Go(func() { atomic.AddInt32(&ran, 1) })
			}
			done <- struct{}{}
		}()
	}
	for i := int32(0); i < spawners; i++ {
		<-done
	}

	if !WaitAll(2 * time.Second) {
		t.Fatal("WaitAll timed out")
	}
	if got := atomic.LoadInt32(&ran); got != 50 {
		t.Errorf("expected 50 tracked goroutines, got %d", got)
	}
}
