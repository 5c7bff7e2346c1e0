package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	for _, in := range []string{"debug", "INFO", "", "warning", "error"} {
		if _, err := ParseLevel(in); err != nil {
			t.Fatalf("%q: %v", in, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "spreads.log")
	logger, closer, err := New(Options{File: path, Level: "warn", MaxSizeMB: 1, MaxBackups: 1})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Info("quiet")
	logger.Warn("loud", "component", "sync")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	out := string(b)
	if strings.Contains(out, "quiet") || !strings.Contains(out, "msg=loud component=sync") {
		t.Fatalf("unexpected log output %q", out)
	}
}
