package info

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/spreads/pkg/config"
	"tableflip.dev/spreads/pkg/journal"
	"tableflip.dev/spreads/pkg/store"
)

func TestInfo(t *testing.T) {
	color.NoColor = true
	ctx := context.Background()
	cfg := &config.Config{
		Path:         "/tmp/journal",
		FirstWeekday: time.Monday,
		Mode:         journal.Traditional,
		Sync:         config.Sync{Enabled: true, Remote: "/tmp/remote.db", Interval: 90 * time.Minute},
	}
	s := store.NewMemory("laptop")
	j, err := journal.New(ctx, s, cfg.Journal())
	if err != nil {
		t.Fatalf("journal: %v", err)
	}

	var buf bytes.Buffer
	n := Info{Config: cfg, Store: s, Journal: j, Out: &buf}
	if err := n.Do(ctx); err != nil {
		t.Fatalf("info: %v", err)
	}
	for _, want := range []string{"/tmp/journal", "laptop", "traditional", "Monday", "localOnly", "/tmp/remote.db", "1h30m"} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("expected %q in\n%s", want, buf.String())
		}
	}

	if err := (&Info{}).Do(ctx); err == nil {
		t.Fatal("expected error without config")
	}
}
