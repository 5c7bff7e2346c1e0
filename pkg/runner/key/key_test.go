package key

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"tableflip.dev/spreads/pkg/glyph"
)

func TestKeyListsEveryBullet(t *testing.T) {
	var buf bytes.Buffer
	k := Key{Out: &buf}
	if err := k.Do(context.Background()); err != nil {
		t.Fatalf("key: %v", err)
	}
	for _, g := range glyph.Legend() {
		if !strings.Contains(buf.String(), g.Symbol) || !strings.Contains(buf.String(), g.Meaning) {
			t.Fatalf("missing %q in\n%s", g.Meaning, buf.String())
		}
	}
}
