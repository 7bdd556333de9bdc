package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Generator produces the random component of run identifiers.
type Generator interface {
	Suffix() (string, error)
}

type RandomGenerator struct{}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

func (g *RandomGenerator) Suffix() (string, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	return hex.EncodeToString(buf), nil
}

// RunID builds a pipeline run identifier like "daily_20260824_083015_a1b2c3".
// The prefix is lowercased and reduced to [a-z0-9_] so ids stay URL-safe.
func RunID(g Generator, prefix string, at time.Time) (string, error) {
	suffix, err := g.Suffix()
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s_%s_%s", sanitizePrefix(prefix), at.UTC().Format("20060102_150405"), suffix), nil
}

func sanitizePrefix(prefix string) string {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return "run"
	}

	var b strings.Builder
	for _, r := range prefix {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	return b.String()
}
