package db

import (
	"gorm.io/gorm"

	"github.com/yungbote/curriculum-backend/internal/domain/content"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(content.Models()...)
}
