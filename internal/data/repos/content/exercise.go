package content

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/curriculum-backend/internal/domain/content"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

type ExerciseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, exercise *content.Exercise) (*content.Exercise, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*content.Exercise, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*content.Exercise, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type exerciseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExerciseRepo(db *gorm.DB, baseLog *logger.Logger) ExerciseRepo {
	repoLog := baseLog.With("repo", "ExerciseRepo")
	return &exerciseRepo{db: db, log: repoLog}
}

func (r *exerciseRepo) Create(ctx context.Context, tx *gorm.DB, exercise *content.Exercise) (*content.Exercise, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(exercise).Error; err != nil {
		return nil, err
	}
	return exercise, nil
}

func (r *exerciseRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*content.Exercise, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var exercise content.Exercise
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&exercise).Error; err != nil {
		return nil, err
	}
	return &exercise, nil
}

func (r *exerciseRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*content.Exercise, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*content.Exercise
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *exerciseRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).Model(&content.Exercise{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *exerciseRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Where("id IN ?", ids).Delete(&content.Exercise{}).Error
}
