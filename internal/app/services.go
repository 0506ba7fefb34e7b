package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/curriculum-backend/internal/data/aggregates"
	"github.com/yungbote/curriculum-backend/internal/data/cache"
	"github.com/yungbote/curriculum-backend/internal/observability"
	"github.com/yungbote/curriculum-backend/internal/platform/clock"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
	"github.com/yungbote/curriculum-backend/internal/realtime/bus"
	"github.com/yungbote/curriculum-backend/internal/services"
)

type Services struct {
	Cache cache.VersionCache
	// Broadcast is set only for the broadcast backend; its forwarder is
	// started with the app.
	Broadcast *cache.Broadcast

	Resolver  services.HierarchyResolver
	Hub       services.InvalidationHub
	Assembler services.PackageAssembler
	Retrieval services.PackageRetrieval
	Order     *aggregates.SiblingOrderAggregate
	Content   services.ContentService
	Seed      *services.SeedImporter
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	vc, broadcast, err := wireCache(log, cfg, clients)
	if err != nil {
		return Services{}, err
	}

	r := repos.Content
	resolver := services.NewHierarchyResolver(db, log, r.Assignment)
	hub := services.NewInvalidationHub(log, resolver, vc, metrics)
	assembler := services.NewPackageAssembler(db, log, r, metrics)
	retrieval := services.NewPackageRetrieval(log, vc, assembler, metrics, clock.System)

	var hooks aggregates.Hooks
	if metrics != nil {
		hooks = aggregates.NewObservabilityHooks(metrics)
	}
	order := aggregates.NewSiblingOrderAggregate(aggregates.SiblingOrderAggregateDeps{
		Base: aggregates.BaseDeps{
			DB:    db,
			Log:   log,
			Hooks: hooks,
			Clock: clock.System,
		},
		Siblings: r.Sibling,
		Versions: r.Version,
		Notifier: hub,
	})
	contentSvc := services.NewContentService(db, log, r, order, hub, clock.System)

	return Services{
		Cache:     vc,
		Broadcast: broadcast,
		Resolver:  resolver,
		Hub:       hub,
		Assembler: assembler,
		Retrieval: retrieval,
		Order:     order,
		Content:   contentSvc,
		Seed:      services.NewSeedImporter(log, contentSvc),
	}, nil
}

func wireCache(log *logger.Logger, cfg Config, clients Clients) (cache.VersionCache, *cache.Broadcast, error) {
	switch cfg.CacheBackend {
	case CacheRedis:
		if clients.Redis == nil {
			return nil, nil, fmt.Errorf("redis package cache requires a redis client")
		}
		log.Info("Package cache: redis", "ttl", cfg.CacheTTL, "prefix", cfg.CachePrefix)
		return cache.NewRedis(clients.Redis, cfg.CacheTTL, cfg.CachePrefix), nil, nil
	case CacheBroadcast:
		if clients.Redis == nil {
			return nil, nil, fmt.Errorf("broadcast package cache requires a redis client")
		}
		b, err := bus.NewRedisBus(log, clients.Redis, cfg.InvalidationChannel)
		if err != nil {
			return nil, nil, fmt.Errorf("init invalidation bus: %w", err)
		}
		log.Info("Package cache: broadcast", "ttl", cfg.CacheTTL, "channel", cfg.InvalidationChannel)
		bc := cache.NewBroadcast(log, cache.NewMemory(cfg.CacheTTL, clock.System), b)
		return bc, bc, nil
	default:
		log.Info("Package cache: memory", "ttl", cfg.CacheTTL)
		return cache.NewMemory(cfg.CacheTTL, clock.System), nil, nil
	}
}
