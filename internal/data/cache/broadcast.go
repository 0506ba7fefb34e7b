package cache

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/curriculum-backend/internal/platform/logger"
	"github.com/yungbote/curriculum-backend/internal/realtime/bus"
)

// Broadcast keeps entries in a per-instance cache and fans invalidations out
// to every other instance over a bus.
type Broadcast struct {
	local    VersionCache
	bus      bus.Bus
	instance string
	log      *logger.Logger
}

var _ VersionCache = (*Broadcast)(nil)

func NewBroadcast(log *logger.Logger, local VersionCache, b bus.Bus) *Broadcast {
	return &Broadcast{
		local:    local,
		bus:      b,
		instance: uuid.NewString(),
		log:      log.With("service", "BroadcastCache"),
	}
}

// Start subscribes to invalidations from other instances until ctx ends.
func (c *Broadcast) Start(ctx context.Context) error {
	return c.bus.StartForwarder(ctx, func(m bus.InvalidationMessage) {
		if m.Origin == c.instance || m.CourseID == uuid.Nil {
			return
		}
		if err := c.local.Invalidate(ctx, m.CourseID); err != nil {
			c.log.Error("remote invalidation failed", "course_id", m.CourseID, "origin", m.Origin, "error", err)
		}
	})
}

func (c *Broadcast) Get(ctx context.Context, courseID uuid.UUID) (*Entry, Generation, error) {
	return c.local.Get(ctx, courseID)
}

func (c *Broadcast) Put(ctx context.Context, e *Entry, gen Generation) (bool, error) {
	return c.local.Put(ctx, e, gen)
}

// Invalidate evicts locally first so this instance never serves the stale
// entry, then publishes.
func (c *Broadcast) Invalidate(ctx context.Context, courseID uuid.UUID) error {
	if err := c.local.Invalidate(ctx, courseID); err != nil {
		return err
	}
	if err := c.bus.Publish(ctx, bus.InvalidationMessage{Origin: c.instance, CourseID: courseID}); err != nil {
		return fmt.Errorf("publish invalidation %s: %w", courseID, err)
	}
	return nil
}
