package content

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/curriculum-backend/internal/domain/content"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

type LessonRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *content.Lesson) (*content.Lesson, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*content.Lesson, error)
	GetByModuleIDs(ctx context.Context, tx *gorm.DB, moduleIDs []uuid.UUID) ([]*content.Lesson, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type lessonRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	repoLog := baseLog.With("repo", "LessonRepo")
	return &lessonRepo{db: db, log: repoLog}
}

func (r *lessonRepo) Create(ctx context.Context, tx *gorm.DB, row *content.Lesson) (*content.Lesson, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *lessonRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*content.Lesson, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row content.Lesson
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *lessonRepo) GetByModuleIDs(ctx context.Context, tx *gorm.DB, moduleIDs []uuid.UUID) ([]*content.Lesson, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*content.Lesson
	if len(moduleIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("module_id IN ?", moduleIDs).
		Order("module_id, sort_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *lessonRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).Model(&content.Lesson{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *lessonRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Where("id IN ?", ids).Delete(&content.Lesson{}).Error
}
