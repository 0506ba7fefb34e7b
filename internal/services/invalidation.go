package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/curriculum-backend/internal/data/cache"
	domainagg "github.com/yungbote/curriculum-backend/internal/domain/aggregates"
	"github.com/yungbote/curriculum-backend/internal/domain/content"
	"github.com/yungbote/curriculum-backend/internal/observability"
	"github.com/yungbote/curriculum-backend/internal/platform/ctxutil"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

const (
	invalidationTimeout     = 5 * time.Second
	invalidationConcurrency = 8
)

// InvalidationHub evicts cached packages after committed writes. It is best
// effort: failures are logged and counted, never returned to the writer.
type InvalidationHub interface {
	domainagg.MutationNotifier
	InvalidateCourses(ctx context.Context, courseIDs ...uuid.UUID)
}

type invalidationHub struct {
	log      *logger.Logger
	resolver HierarchyResolver
	cache    cache.VersionCache
	metrics  *observability.Metrics
}

func NewInvalidationHub(baseLog *logger.Logger, resolver HierarchyResolver, c cache.VersionCache, metrics *observability.Metrics) InvalidationHub {
	return &invalidationHub{
		log:      baseLog.With("service", "InvalidationHub"),
		resolver: resolver,
		cache:    c,
		metrics:  metrics,
	}
}

func (h *invalidationHub) OnMutation(ctx context.Context, kind content.NodeKind, id uuid.UUID) {
	// The write already committed; a cancelled request must not skip eviction.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctxutil.Default(ctx)), invalidationTimeout)
	defer cancel()

	var courseIDs []uuid.UUID
	if kind == content.KindExercise {
		ids, err := h.resolver.CoursesReferencingExercise(ctx, id)
		if err != nil {
			h.fail(ctx, "resolve", kind, id, err)
			return
		}
		courseIDs = ids
	} else {
		courseID, err := h.resolver.FindOwningCourse(ctx, kind, id)
		if err != nil {
			h.fail(ctx, "resolve", kind, id, err)
			return
		}
		courseIDs = []uuid.UUID{courseID}
	}
	h.invalidate(ctx, kind, courseIDs)
}

func (h *invalidationHub) InvalidateCourses(ctx context.Context, courseIDs ...uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctxutil.Default(ctx)), invalidationTimeout)
	defer cancel()
	h.invalidate(ctx, content.KindCourse, courseIDs)
}

func (h *invalidationHub) invalidate(ctx context.Context, kind content.NodeKind, courseIDs []uuid.UUID) {
	var g errgroup.Group
	g.SetLimit(invalidationConcurrency)
	for _, courseID := range courseIDs {
		if courseID == uuid.Nil {
			continue
		}
		g.Go(func() error {
			if err := h.cache.Invalidate(ctx, courseID); err != nil {
				h.fail(ctx, "evict", content.KindCourse, courseID, err)
				return nil
			}
			h.metrics.IncInvalidation(string(kind))
			h.log.Debug("package invalidated", append(ctxutil.LogFields(ctx), "course_id", courseID, "cause", kind)...)
			return nil
		})
	}
	_ = g.Wait()
}

func (h *invalidationHub) fail(ctx context.Context, stage string, kind content.NodeKind, id uuid.UUID, err error) {
	wrapped := domainagg.Wrap(domainagg.CodeCacheInvalidation, "content.invalidate."+stage, err)
	h.metrics.IncInvalidationFailure(stage)
	h.log.Error("package invalidation failed", append(ctxutil.LogFields(ctx),
		"stage", stage,
		"kind", kind,
		"id", id,
		"code", domainagg.CodeCacheInvalidation,
		"error", wrapped,
	)...)
}
