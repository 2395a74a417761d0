//go:build !linux

// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package hotkey

import "github.com/holdtotalk/daemon/internal/logger"

func candidateProviders(_ Combo, _ logger.Logger) []Provider {
	return []Provider{NewDummyProvider()}
}
