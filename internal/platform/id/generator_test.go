package id

import (
	"strings"
	"testing"
	"time"
)

type fixedGenerator struct{ v string }

func (g fixedGenerator) Suffix() (string, error) { return g.v, nil }

func TestRunID_Shape(t *testing.T) {
	at := time.Date(2026, 8, 24, 8, 30, 15, 0, time.UTC)

	got, err := RunID(fixedGenerator{v: "a1b2c3"}, "daily", at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "daily_20260824_083015_a1b2c3" {
		t.Fatalf("got %q", got)
	}
}

func TestRunID_SanitizesPrefix(t *testing.T) {
	at := time.Date(2026, 8, 24, 8, 30, 15, 0, time.UTC)

	got, err := RunID(fixedGenerator{v: "ffffff"}, " Full Run! ", at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(got, "full_run__") {
		t.Fatalf("got %q, want sanitized prefix", got)
	}

	got, err = RunID(fixedGenerator{v: "ffffff"}, "", at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(got, "run_") {
		t.Fatalf("got %q, want fallback prefix", got)
	}
}

func TestRandomGenerator_SuffixLengthAndUniqueness(t *testing.T) {
	g := NewRandomGenerator()

	seen := make(map[string]struct{}, 32)
	for i := 0; i < 32; i++ {
		suffix, err := g.Suffix()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(suffix) != 6 {
			t.Fatalf("suffix %q, want 6 hex chars", suffix)
		}
		seen[suffix] = struct{}{}
	}
	if len(seen) < 2 {
		t.Fatal("expected random suffixes to vary")
	}
}
