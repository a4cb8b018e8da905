// SPDX-FileCopyrightText: 2024 The go-mailpost Authors
//
// SPDX-License-Identifier: MIT

package mailpost

import (
	"regexp"
	"testing"
)

func TestRandomBoundary(t *testing.T) {
	hexPattern := regexp.MustCompile(`^[0-9a-f]{32}$`)
	t.Run("randomBoundary returning valid values", func(t *testing.T) {
		boundary, err := randomBoundary()
		if err != nil {
			t.Errorf("random boundary generation failed: %s", err)
		}
		if !hexPattern.MatchString(boundary) {
			t.Errorf("random boundary %q is not 32 lowercase hex characters", boundary)
		}
	})
	t.Run("randomBoundary returns unique values", func(t *testing.T) {
		seen := make(map[string]struct{})
		for i := 0; i < 100; i++ {
			boundary, err := randomBoundary()
			if err != nil {
				t.Fatalf("random boundary generation failed: %s", err)
			}
			if _, ok := seen[boundary]; ok {
				t.Fatalf("random boundary %q generated twice", boundary)
			}
			seen[boundary] = struct{}{}
		}
	})
}

func BenchmarkRandomBoundary(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := randomBoundary(); err != nil {
			b.Errorf("randomBoundary() failed: %s", err)
		}
	}
}
