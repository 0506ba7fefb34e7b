package app

import (
	"time"

	"gorm.io/gorm"

	httpH "github.com/yungbote/curriculum-backend/internal/http/handlers"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

type Handlers struct {
	Health  *httpH.HealthHandler
	Package *httpH.PackageHandler
	Reorder *httpH.ReorderHandler
	Content *httpH.ContentHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services, packageMaxAge time.Duration) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:  httpH.NewHealthHandler(log, db),
		Package: httpH.NewPackageHandler(log, services.Retrieval, packageMaxAge),
		Reorder: httpH.NewReorderHandler(log, services.Content),
		Content: httpH.NewContentHandler(log, services.Content),
	}
}
