package persistence

import (
	"context"
	"testing"
	"time"
)

func TestMemoryDeduperFirstAndRepeat(t *testing.T) {
	d := NewMemoryDeduper(time.Minute)
	ctx := context.Background()

	first, err := d.FirstSeen(ctx, "wamid-1")
	if err != nil || !first {
		t.Fatalf("first delivery: first=%v err=%v", first, err)
	}

	again, err := d.FirstSeen(ctx, "wamid-1")
	if err != nil || again {
		t.Fatalf("repeat delivery: first=%v err=%v", again, err)
	}

	other, err := d.FirstSeen(ctx, "wamid-2")
	if err != nil || !other {
		t.Fatalf("distinct id: first=%v err=%v", other, err)
	}
}

func TestMemoryDeduperExpiresAfterTTL(t *testing.T) {
	d := NewMemoryDeduper(10 * time.Millisecond)
	ctx := context.Background()

	if first, _ := d.FirstSeen(ctx, "wamid-1"); !first {
		t.Fatal("first delivery rejected")
	}
	time.Sleep(25 * time.Millisecond)
	if first, _ := d.FirstSeen(ctx, "wamid-1"); !first {
		t.Fatal("id not forgotten after the TTL")
	}
}

func TestMemoryDeduperIgnoresEmptyID(t *testing.T) {
	d := NewMemoryDeduper(time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if first, err := d.FirstSeen(ctx, ""); err != nil || !first {
			t.Fatalf("empty id must always pass: first=%v err=%v", first, err)
		}
	}
}
