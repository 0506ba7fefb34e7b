package app

import (
	apphttp "github.com/yungbote/curriculum-backend/internal/http"
	"github.com/yungbote/curriculum-backend/internal/observability"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *apphttp.Server {
	tracing := ""
	if cfg.Otel.Enabled {
		tracing = cfg.Otel.ServiceName
	}
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
		TracingService: tracing,
		HealthHandler:  handlers.Health,
		PackageHandler: handlers.Package,
		ReorderHandler: handlers.Reorder,
		ContentHandler: handlers.Content,
	})
}
