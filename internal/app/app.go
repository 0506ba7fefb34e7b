package app

import (
	"context"
	"fmt"
	"net"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/curriculum-backend/internal/data/db"
	apphttp "github.com/yungbote/curriculum-backend/internal/http"
	"github.com/yungbote/curriculum-backend/internal/observability"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

const collectorInterval = 15 * time.Second

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services
	Metrics  *observability.Metrics
	Server   *apphttp.Server

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New(ctx context.Context) (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a, err := NewWithConfig(ctx, log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}

// NewWithConfig wires the app from an already loaded config.
func NewWithConfig(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Otel.Enabled,
		ServiceName: cfg.Otel.ServiceName,
		Environment: cfg.Otel.Environment,
		Version:     cfg.Version,
		Endpoint:    cfg.Otel.Endpoint,
		Headers:     cfg.Otel.Headers,
		Insecure:    cfg.Otel.Insecure,
		SampleRatio: cfg.Otel.SampleRatio,
	})

	theDB, err := openDB(log, cfg)
	if err != nil {
		return nil, err
	}

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		closeDB(theDB)
		return nil, fmt.Errorf("init clients: %w", err)
	}

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.New()
	}

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, clients, metrics)
	if err != nil {
		clients.Close()
		closeDB(theDB)
		return nil, err
	}
	handlerset := wireHandlers(log, theDB, serviceset, cfg.PackageMaxAge)
	server := wireServer(log, cfg, handlerset, metrics)

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		Metrics:      metrics,
		Server:       server,
		otelShutdown: otelShutdown,
	}, nil
}

func openDB(log *logger.Logger, cfg Config) (*gorm.DB, error) {
	var theDB *gorm.DB
	switch cfg.DBDriver {
	case DriverSQLite:
		log.Info("Opening sqlite database", "path", cfg.SQLitePath)
		sqlite, err := db.NewSQLite(cfg.SQLitePath, false)
		if err != nil {
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
		theDB = sqlite
	default:
		pg, err := db.NewPostgresService(log, db.PostgresConfig{
			Host:         cfg.Postgres.Host,
			Port:         cfg.Postgres.Port,
			User:         cfg.Postgres.User,
			Password:     cfg.Postgres.Password,
			Name:         cfg.Postgres.Name,
			SSLMode:      cfg.Postgres.SSLMode,
			DSN:          cfg.Postgres.DSN,
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
			MaxIdleConns: cfg.Postgres.MaxIdleConns,
		})
		if err != nil {
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		theDB = pg.DB()
	}
	if cfg.AutoMigrate {
		if err := db.AutoMigrateAll(theDB); err != nil {
			closeDB(theDB)
			return nil, fmt.Errorf("automigrate: %w", err)
		}
	}
	return theDB, nil
}

func closeDB(gdb *gorm.DB) {
	if gdb == nil {
		return
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Start launches background work: metrics collectors and the remote
// invalidation forwarder of the broadcast cache.
func (a *App) Start(ctx context.Context) error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if a.Metrics != nil {
		a.Metrics.StartDBCollector(ctx, a.Log, collectorInterval, a.DB)
		a.Metrics.StartRedisCollector(ctx, a.Log, collectorInterval, a.Clients.Redis)
	}
	if a.Services.Broadcast != nil {
		if err := a.Services.Broadcast.Start(ctx); err != nil {
			return fmt.Errorf("start invalidation forwarder: %w", err)
		}
	}
	return nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := net.JoinHostPort("", a.Cfg.Port)
	a.Log.Info("Serving HTTP", "addr", addr)
	return a.Server.Run(ctx, addr, a.Cfg.ShutdownTimeout)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	a.Clients.Close()
	closeDB(a.DB)
	if a.Log != nil {
		a.Log.Sync()
	}
}
