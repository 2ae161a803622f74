package domain

import (
	"fmt"
	"testing"
	"time"
)

// seqIDs returns a deterministic identifier source: prefix-1, prefix-2, ...
func seqIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, ok := ParseDate(s)
	if !ok {
		t.Fatalf("ParseDate(%q) failed", s)
	}
	return d
}

func labels(periods []GeneratedPeriod) []string {
	out := make([]string, len(periods))
	for i, p := range periods {
		out[i] = p.Label
	}
	return out
}

func isoStarts(periods []GeneratedPeriod) []string {
	out := make([]string, len(periods))
	for i, p := range periods {
		out[i] = FormatISODate(p.StartDate)
	}
	return out
}
