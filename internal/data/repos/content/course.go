package content

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/curriculum-backend/internal/domain/content"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

type CourseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, course *content.Course) (*content.Course, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*content.Course, error)
	List(ctx context.Context, tx *gorm.DB) ([]*content.Course, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	repoLog := baseLog.With("repo", "CourseRepo")
	return &courseRepo{db: db, log: repoLog}
}

func (r *courseRepo) Create(ctx context.Context, tx *gorm.DB, course *content.Course) (*content.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(course).Error; err != nil {
		return nil, err
	}
	return course, nil
}

// GetByID returns gorm.ErrRecordNotFound when the course does not exist.
func (r *courseRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*content.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var course content.Course
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) List(ctx context.Context, tx *gorm.DB) ([]*content.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*content.Course
	if err := transaction.WithContext(ctx).Order("created_at ASC, id ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *courseRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).Model(&content.Course{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *courseRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Where("id IN ?", ids).Delete(&content.Course{}).Error
}
