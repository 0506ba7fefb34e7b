package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/curriculum-backend/internal/data/repos"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

type Repos struct {
	Content repos.Content
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Content: repos.NewContent(db, log),
	}
}
