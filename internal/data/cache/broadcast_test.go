package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/curriculum-backend/internal/platform/logger"
	"github.com/yungbote/curriculum-backend/internal/realtime/bus"
)

func TestBroadcastEvictsOtherInstances(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := func() time.Time { return now }
	shared := bus.NewMemoryBus()

	a := NewBroadcast(logger.NewNop(), NewMemory(0, clk), shared)
	b := NewBroadcast(logger.NewNop(), NewMemory(0, clk), shared)
	for _, c := range []*Broadcast{a, b} {
		if err := c.Start(ctx); err != nil {
			t.Fatalf("Start: %v", err)
		}
	}

	id := uuid.New()
	for _, c := range []*Broadcast{a, b} {
		_, gen, _ := c.Get(ctx, id)
		if stored, err := c.Put(ctx, testEntry(t, id, now), gen); err != nil || !stored {
			t.Fatalf("Put: stored=%v err=%v", stored, err)
		}
	}

	if err := a.Invalidate(ctx, id); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if got, _, _ := a.Get(ctx, id); got != nil {
		t.Fatalf("origin kept its entry")
	}
	if got, _, _ := b.Get(ctx, id); got != nil {
		t.Fatalf("peer kept its entry")
	}
}
