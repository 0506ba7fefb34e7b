package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/yungbote/curriculum-backend/internal/data/cache"
	domainagg "github.com/yungbote/curriculum-backend/internal/domain/aggregates"
	"github.com/yungbote/curriculum-backend/internal/observability"
	"github.com/yungbote/curriculum-backend/internal/platform/clock"
	"github.com/yungbote/curriculum-backend/internal/platform/ctxutil"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

const assembleTimeout = 30 * time.Second

// Conditions are the client's validators for a package request.
type Conditions struct {
	IfModifiedSince *time.Time
	// Granularity truncates the package version before it is compared with
	// IfModifiedSince. HTTP dates carry whole seconds; zero compares exactly.
	Granularity time.Duration
	// IfNoneMatch is the raw If-None-Match header. When present it takes
	// precedence over IfModifiedSince.
	IfNoneMatch string
}

type RetrievalStatus string

const (
	RetrievalFull        RetrievalStatus = "full"
	RetrievalNotModified RetrievalStatus = "not_modified"
)

// Retrieval carries the entry in both outcomes so callers can emit validators
// on a not-modified response too.
type Retrieval struct {
	Status    RetrievalStatus
	Entry     *cache.Entry
	FromCache bool
}

// ETag is the strong entity tag of the retrieved package version.
func (r *Retrieval) ETag() string {
	if r == nil || r.Entry == nil {
		return ""
	}
	return ETagFor(r.Entry.PackageVersion)
}

func ETagFor(packageVersion string) string {
	return `"` + packageVersion + `"`
}

type PackageRetrieval interface {
	Retrieve(ctx context.Context, courseID uuid.UUID, cond Conditions) (*Retrieval, error)
}

type packageRetrieval struct {
	log       *logger.Logger
	cache     cache.VersionCache
	assembler PackageAssembler
	metrics   *observability.Metrics
	now       clock.Clock
	group     singleflight.Group
}

func NewPackageRetrieval(baseLog *logger.Logger, c cache.VersionCache, assembler PackageAssembler, metrics *observability.Metrics, now clock.Clock) PackageRetrieval {
	return &packageRetrieval{
		log:       baseLog.With("service", "PackageRetrieval"),
		cache:     c,
		assembler: assembler,
		metrics:   metrics,
		now:       now,
	}
}

func (r *packageRetrieval) Retrieve(ctx context.Context, courseID uuid.UUID, cond Conditions) (*Retrieval, error) {
	ctx, span := observability.Tracer().Start(ctx, "content.package.retrieve")
	defer span.End()
	span.SetAttributes(attribute.String("course.id", courseID.String()))

	entry, fromCache, err := r.entry(ctx, courseID)
	if err != nil {
		if domainagg.IsCode(err, domainagg.CodeNotFound) {
			r.metrics.IncPackageRequest("not_found")
		} else {
			r.metrics.IncPackageRequest("error")
			span.RecordError(err)
		}
		return nil, err
	}

	res := &Retrieval{Status: RetrievalFull, Entry: entry, FromCache: fromCache}
	if notModified(entry, cond) {
		res.Status = RetrievalNotModified
	}
	r.metrics.IncPackageRequest(string(res.Status))
	span.SetAttributes(
		attribute.String("package.version", entry.PackageVersion),
		attribute.String("package.status", string(res.Status)),
		attribute.Bool("package.cache_hit", fromCache),
	)
	return res, nil
}

func (r *packageRetrieval) entry(ctx context.Context, courseID uuid.UUID) (*cache.Entry, bool, error) {
	cached, gen, err := r.cache.Get(ctx, courseID)
	canPut := true
	switch {
	case err != nil:
		// A broken cache degrades to assembling every request.
		canPut = false
		r.metrics.IncCacheLookup("error")
		r.log.Warn("package cache read failed", append(ctxutil.LogFields(ctx), "course_id", courseID, "error", err)...)
	case cached != nil:
		r.metrics.IncCacheLookup("hit")
		return cached, true, nil
	default:
		r.metrics.IncCacheLookup("miss")
	}

	v, err, _ := r.group.Do(courseID.String(), func() (interface{}, error) {
		// Shared by every waiter, so one caller's cancellation must not fail the rest.
		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), assembleTimeout)
		defer cancel()

		snap, err := r.assembler.Assemble(actx, courseID)
		if err != nil {
			return nil, err
		}
		e, err := cache.NewEntry(snap, r.now.Now())
		if err != nil {
			return nil, domainagg.Wrap(domainagg.CodeInternal, "content.package.encode", err)
		}
		if canPut {
			stored, err := r.cache.Put(actx, e, gen)
			if err != nil {
				r.log.Warn("package cache write failed", append(ctxutil.LogFields(ctx), "course_id", courseID, "error", err)...)
			} else if !stored {
				r.log.Debug("package cache write skipped after invalidation", "course_id", courseID)
			}
		}
		return e, nil
	})
	if err != nil {
		return nil, false, err
	}
	e, ok := v.(*cache.Entry)
	if !ok {
		return nil, false, fmt.Errorf("unexpected assembly result %T", v)
	}
	return e, false, nil
}

// notModified applies If-None-Match when present, otherwise If-Modified-Since
// at the requested granularity.
func notModified(e *cache.Entry, cond Conditions) bool {
	if strings.TrimSpace(cond.IfNoneMatch) != "" {
		return etagMatches(cond.IfNoneMatch, ETagFor(e.PackageVersion))
	}
	if cond.IfModifiedSince == nil {
		return false
	}
	version := e.Version
	if cond.Granularity > 0 {
		version = version.Truncate(cond.Granularity)
	}
	return !cond.IfModifiedSince.Before(version)
}

// etagMatches uses the weak comparison If-None-Match calls for.
func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		if strings.TrimPrefix(candidate, "W/") == strings.TrimPrefix(etag, "W/") {
			return true
		}
	}
	return false
}
