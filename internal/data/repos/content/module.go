package content

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/curriculum-backend/internal/domain/content"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

type ModuleRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *content.Module) (*content.Module, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*content.Module, error)
	GetBySectionIDs(ctx context.Context, tx *gorm.DB, sectionIDs []uuid.UUID) ([]*content.Module, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type moduleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewModuleRepo(db *gorm.DB, baseLog *logger.Logger) ModuleRepo {
	repoLog := baseLog.With("repo", "ModuleRepo")
	return &moduleRepo{db: db, log: repoLog}
}

func (r *moduleRepo) Create(ctx context.Context, tx *gorm.DB, row *content.Module) (*content.Module, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *moduleRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*content.Module, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row content.Module
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *moduleRepo) GetBySectionIDs(ctx context.Context, tx *gorm.DB, sectionIDs []uuid.UUID) ([]*content.Module, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*content.Module
	if len(sectionIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("section_id IN ?", sectionIDs).
		Order("section_id, sort_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *moduleRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).Model(&content.Module{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *moduleRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Where("id IN ?", ids).Delete(&content.Module{}).Error
}
