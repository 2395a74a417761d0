// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package model

import (
	"testing"

	"github.com/holdtotalk/daemon/internal/errkind"
)

func TestONNXRuntimeLoadRejectsMissingModelFiles(t *testing.T) {
	o := NewONNXRuntime()
	err := o.Load(Config{Path: "/no/such/model/dir", Language: "en"})
	if !errkind.Is(err, errkind.ModelUnavailable) {
		t.Fatalf("expected ModelUnavailable for a missing model directory, got %v", err)
	}
	if o.IsLoaded() {
		t.Error("IsLoaded should be false after a failed Load")
	}
}
