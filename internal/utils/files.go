// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package utils

import (
	"os"
	"path/filepath"
)

// IsValidFile reports whether path names an existing regular file, after
// rejecting anything that doesn't survive a filepath.Clean round trip
// (relative traversal fragments in config-supplied paths).
func IsValidFile(path string) bool {
	if filepath.Clean(path) != path {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// GetFileSize returns the size of the file at path in bytes. Model
// loaders use it to reject truncated downloads before handing the file
// to a native loader.
func GetFileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
