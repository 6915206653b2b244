package memory

import (
	"context"
	"testing"
	"time"
)

func TestDeduplicatorWindow(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	d := NewDeduplicator(time.Minute)
	d.now = func() time.Time { return now }
	ctx := context.Background()

	ok, _ := d.MarkNew(ctx, "wamid.1")
	if !ok {
		t.Fatal("first delivery must be new")
	}
	ok, _ = d.MarkNew(ctx, "wamid.1")
	if ok {
		t.Fatal("replay within window must be rejected")
	}
	if d.Hits() != 1 {
		t.Fatalf("expected 1 hit, got %d", d.Hits())
	}

	now = now.Add(2 * time.Minute)
	ok, _ = d.MarkNew(ctx, "wamid.1")
	if !ok {
		t.Fatal("entry must expire after the window")
	}
}

func TestDeduplicatorGC(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	d := NewDeduplicator(time.Minute)
	d.now = func() time.Time { return now }
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, _ = d.MarkNew(ctx, id)
	}

	now = now.Add(90 * time.Second)
	_, _ = d.MarkNew(ctx, "d")
	if d.Len() != 1 {
		t.Fatalf("expired entries not collected, len=%d", d.Len())
	}
}

func TestDeduplicatorEmptyID(t *testing.T) {
	d := NewDeduplicator(0)
	for i := 0; i < 2; i++ {
		if ok, _ := d.MarkNew(context.Background(), ""); !ok {
			t.Fatal("empty id is never treated as duplicate")
		}
	}
}
