package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/curriculum-backend/internal/data/aggregates"
	"github.com/yungbote/curriculum-backend/internal/data/cache"
	"github.com/yungbote/curriculum-backend/internal/data/repos"
	"github.com/yungbote/curriculum-backend/internal/data/repos/testutil"
	"github.com/yungbote/curriculum-backend/internal/platform/clock"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
	"github.com/yungbote/curriculum-backend/internal/services"
)

// stepClock advances one second per reading so successive writes get
// strictly increasing timestamps.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock(start time.Time) *stepClock { return &stepClock{t: start} }

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

// setClock returns a settable reading; it never moves on its own.
type setClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *setClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *setClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

type harness struct {
	ctx       context.Context
	db        *gorm.DB
	log       *logger.Logger
	repos     repos.Content
	clock     interface{ Now() time.Time }
	cache     *cache.Memory
	resolver  services.HierarchyResolver
	hub       services.InvalidationHub
	assembler services.PackageAssembler
	retrieval services.PackageRetrieval
	content   services.ContentService
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	log   *logger.Logger
	cache cache.VersionCache
	clock interface{ Now() time.Time }
}

func withClock(c interface{ Now() time.Time }) harnessOption {
	return func(cfg *harnessConfig) { cfg.clock = c }
}

func withLogger(l *logger.Logger) harnessOption {
	return func(c *harnessConfig) { c.log = l }
}

func withCache(vc cache.VersionCache) harnessOption {
	return func(c *harnessConfig) { c.cache = vc }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	cfg := harnessConfig{log: logger.NewNop()}
	for _, o := range opts {
		o(&cfg)
	}

	h := &harness{
		ctx:   context.Background(),
		db:    testutil.DB(t),
		log:   cfg.log,
		clock: cfg.clock,
		cache: cache.NewMemory(0, clock.System),
	}
	if h.clock == nil {
		h.clock = newStepClock(testutil.Base.Add(time.Hour))
	}
	vc := cfg.cache
	if vc == nil {
		vc = h.cache
	}
	h.repos = repos.NewContent(h.db, h.log)
	h.resolver = services.NewHierarchyResolver(h.db, h.log, h.repos.Assignment)
	h.hub = services.NewInvalidationHub(h.log, h.resolver, vc, nil)
	h.assembler = services.NewPackageAssembler(h.db, h.log, h.repos, nil)
	h.retrieval = services.NewPackageRetrieval(h.log, vc, h.assembler, nil, h.clock.Now)

	order := aggregates.NewSiblingOrderAggregate(aggregates.SiblingOrderAggregateDeps{
		Base:     aggregates.BaseDeps{DB: h.db, Log: h.log, Clock: h.clock.Now},
		Siblings: h.repos.Sibling,
		Versions: h.repos.Version,
		Notifier: h.hub,
	})
	h.content = services.NewContentService(h.db, h.log, h.repos, order, h.hub, h.clock.Now)
	return h
}

func (h *harness) seedTree(t *testing.T) *testutil.Tree {
	t.Helper()
	return testutil.SeedTree(t, h.ctx, h.db, testutil.Base)
}
