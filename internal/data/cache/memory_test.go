package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/curriculum-backend/internal/domain/content"
)

func testEntry(t *testing.T, courseID uuid.UUID, at time.Time) *Entry {
	t.Helper()
	snap := &content.PackagedSnapshot{
		Course:         content.CourseView{ID: courseID, Title: "c", UpdatedAt: at},
		Levels:         []content.LevelView{},
		PackageVersion: content.FormatPackageVersion(at),
	}
	e, err := NewEntry(snap, at)
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	return e
}

func TestMemoryGetPutInvalidate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemory(0, func() time.Time { return now })
	id := uuid.New()

	e, gen, err := c.Get(ctx, id)
	if err != nil || e != nil {
		t.Fatalf("empty Get: e=%v err=%v", e, err)
	}
	stored, err := c.Put(ctx, testEntry(t, id, now), gen)
	if err != nil || !stored {
		t.Fatalf("Put: stored=%v err=%v", stored, err)
	}
	got, _, err := c.Get(ctx, id)
	if err != nil || got == nil || !got.Version.Equal(now) {
		t.Fatalf("Get after Put: %+v err=%v", got, err)
	}
	snap, err := got.Snapshot()
	if err != nil || snap.Course.ID != id {
		t.Fatalf("Snapshot: %+v err=%v", snap, err)
	}

	if err := c.Invalidate(ctx, id); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if got, _, _ := c.Get(ctx, id); got != nil {
		t.Fatalf("entry survived invalidation")
	}
}

// An assembly that read its generation before an invalidation must not be
// able to cache what it assembled.
func TestMemoryPutFencedByInvalidate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemory(0, func() time.Time { return now })
	id := uuid.New()

	_, staleGen, _ := c.Get(ctx, id)
	if err := c.Invalidate(ctx, id); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	stored, err := c.Put(ctx, testEntry(t, id, now), staleGen)
	if err != nil || stored {
		t.Fatalf("stale Put must be dropped: stored=%v err=%v", stored, err)
	}
	if got, _, _ := c.Get(ctx, id); got != nil {
		t.Fatalf("stale entry was cached")
	}

	_, gen, _ := c.Get(ctx, id)
	if stored, _ := c.Put(ctx, testEntry(t, id, now), gen); !stored {
		t.Fatalf("fresh Put should be stored")
	}
}

func TestMemoryGenerationTableStaysBounded(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemory(0, func() time.Time { return now })
	c.maxGens = 4

	watched := uuid.New()
	_, staleGen, _ := c.Get(ctx, watched)
	if err := c.Invalidate(ctx, watched); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	_, midGen, _ := c.Get(ctx, watched)

	for i := 0; i < 50; i++ {
		if err := c.Invalidate(ctx, uuid.New()); err != nil {
			t.Fatalf("Invalidate: %v", err)
		}
		if len(c.gens) > c.maxGens {
			t.Fatalf("generation table grew to %d", len(c.gens))
		}
	}

	// Neither generation read before the resets may store anything now.
	for _, gen := range []Generation{staleGen, midGen} {
		if stored, _ := c.Put(ctx, testEntry(t, watched, now), gen); stored {
			t.Fatalf("Put with generation %d stored after table reset", gen)
		}
	}
	_, gen, _ := c.Get(ctx, watched)
	if stored, _ := c.Put(ctx, testEntry(t, watched, now), gen); !stored {
		t.Fatalf("fresh Put should be stored")
	}
}

func TestMemoryTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemory(time.Minute, func() time.Time { return now })
	id := uuid.New()

	if stored, _ := c.Put(ctx, testEntry(t, id, now), 0); !stored {
		t.Fatalf("Put failed")
	}
	now = now.Add(59 * time.Second)
	if got, _, _ := c.Get(ctx, id); got == nil {
		t.Fatalf("entry expired early")
	}
	now = now.Add(time.Second)
	if got, _, _ := c.Get(ctx, id); got != nil {
		t.Fatalf("entry outlived its ttl")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry not dropped")
	}
}

func TestNewEntryRejectsBadVersion(t *testing.T) {
	snap := &content.PackagedSnapshot{Course: content.CourseView{ID: uuid.New()}, PackageVersion: "yesterday"}
	if _, err := NewEntry(snap, time.Now()); err == nil {
		t.Fatalf("expected version parse error")
	}
}
