package timeutil

import (
	"testing"
	"time"
)

func TestParseIntervalDefault(t *testing.T) {
	dur, label, err := ParseInterval("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dur != 15*time.Minute {
		t.Fatalf("expected 15m, got %v", dur)
	}
	if label != "15m" {
		t.Fatalf("expected label 15m, got %s", label)
	}
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		in    string
		want  time.Duration
		label string
	}{
		{"36h30m", 36*time.Hour + 30*time.Minute, "36h30m"},
		{"2 hours 15 mins", 2*time.Hour + 15*time.Minute, "2h15m"},
		{"90 minutes", 90 * time.Minute, "1h30m"},
		{"1h0m0s", time.Hour, "1h"},
		{"45s", 45 * time.Second, "45s"},
	}
	for _, tt := range tests {
		dur, label, err := ParseInterval(tt.in)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tt.in, err)
		}
		if dur != tt.want || label != tt.label {
			t.Fatalf("%q: expected %v (%s), got %v (%s)", tt.in, tt.want, tt.label, dur, label)
		}
	}
}

func TestParseIntervalInvalid(t *testing.T) {
	for _, in := range []string{"noop", "0m", "3 fortnights", "1d"} {
		if _, _, err := ParseInterval(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}
