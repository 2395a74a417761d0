// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package capture

import "errors"

var errUnsupportedNoCGO = errors.New("audio capture built without cgo: miniaudio bindings unavailable")
