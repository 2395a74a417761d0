// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package lifecycle

import (
	"sync"
	"time"
)

// defaultMinInterval is the minimum spacing between accepted commands from
// a single peer UID.
const defaultMinInterval = 10 * time.Millisecond

// criticalCommands bypass the rate limiter entirely.
var criticalCommands = map[string]bool{
	CmdPing:     true,
	CmdShutdown: true,
}

// rateLimiter tracks the last-accepted-command time per peer UID.
type rateLimiter struct {
	minInterval time.Duration

	mu       sync.Mutex
	lastSeen map[uint32]time.Time
}

func newRateLimiter(minInterval time.Duration) *rateLimiter {
	if minInterval <= 0 {
		minInterval = defaultMinInterval
	}
	return &rateLimiter{
		minInterval: minInterval,
		lastSeen:    make(map[uint32]time.Time),
	}
}

// Allow reports whether a command from uid should proceed, recording the
// attempt's timestamp when it does. Critical commands always proceed.
func (rl *rateLimiter) Allow(uid uint32, command string, now time.Time) bool {
	if criticalCommands[command] {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	last, ok := rl.lastSeen[uid]
	if ok && now.Sub(last) < rl.minInterval {
		return false
	}
	rl.lastSeen[uid] = now
	return true
}
