package content

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/curriculum-backend/internal/domain/content"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

type SectionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *content.Section) (*content.Section, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*content.Section, error)
	GetByLevelIDs(ctx context.Context, tx *gorm.DB, levelIDs []uuid.UUID) ([]*content.Section, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type sectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSectionRepo(db *gorm.DB, baseLog *logger.Logger) SectionRepo {
	repoLog := baseLog.With("repo", "SectionRepo")
	return &sectionRepo{db: db, log: repoLog}
}

func (r *sectionRepo) Create(ctx context.Context, tx *gorm.DB, row *content.Section) (*content.Section, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *sectionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*content.Section, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row content.Section
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *sectionRepo) GetByLevelIDs(ctx context.Context, tx *gorm.DB, levelIDs []uuid.UUID) ([]*content.Section, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*content.Section
	if len(levelIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("level_id IN ?", levelIDs).
		Order("level_id, sort_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *sectionRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).Model(&content.Section{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *sectionRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Where("id IN ?", ids).Delete(&content.Section{}).Error
}
