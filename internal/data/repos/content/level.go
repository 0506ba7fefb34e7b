package content

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/curriculum-backend/internal/domain/content"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

type LevelRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *content.Level) (*content.Level, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*content.Level, error)
	GetByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*content.Level, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type levelRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLevelRepo(db *gorm.DB, baseLog *logger.Logger) LevelRepo {
	repoLog := baseLog.With("repo", "LevelRepo")
	return &levelRepo{db: db, log: repoLog}
}

func (r *levelRepo) Create(ctx context.Context, tx *gorm.DB, row *content.Level) (*content.Level, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *levelRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*content.Level, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row content.Level
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *levelRepo) GetByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*content.Level, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*content.Level
	if len(courseIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("course_id IN ?", courseIDs).
		Order("course_id, sort_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *levelRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).Model(&content.Level{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *levelRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Where("id IN ?", ids).Delete(&content.Level{}).Error
}
