// Copyright (c) 2025 Asher Buk
// SPDX-License-Identifier: MIT

package utils

import "testing"

func TestSanitizeTranscript(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain text untouched", "Hello world", "Hello world"},
		{"strips placeholder token", "[music] Hello", "Hello"},
		{"strips multiple tokens", "[noise] one [BLANK_AUDIO] two", "one two"},
		{"normalizes whitespace", "  spaced   out\ttext ", "spaced out text"},
		{"unicode token", "[музыка] привет", "привет"},
		{"token-only input collapses to empty", "[silence]", ""},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := SanitizeTranscript(c.in); got != c.want {
				t.Errorf("SanitizeTranscript(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}
