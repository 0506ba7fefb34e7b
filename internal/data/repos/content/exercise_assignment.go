package content

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/curriculum-backend/internal/domain/content"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

type ExerciseAssignmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, assignment *content.ExerciseAssignment) (*content.ExerciseAssignment, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*content.ExerciseAssignment, error)
	GetByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uuid.UUID) ([]*content.ExerciseAssignment, error)
	GetByExerciseID(ctx context.Context, tx *gorm.DB, exerciseID uuid.UUID) ([]*content.ExerciseAssignment, error)
	// CourseIDsByExercise reads the reverse index: every course with at least one
	// lesson referencing the exercise.
	CourseIDsByExercise(ctx context.Context, tx *gorm.DB, exerciseID uuid.UUID) ([]uuid.UUID, error)
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	DeleteByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uuid.UUID) error
}

type exerciseAssignmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExerciseAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) ExerciseAssignmentRepo {
	repoLog := baseLog.With("repo", "ExerciseAssignmentRepo")
	return &exerciseAssignmentRepo{db: db, log: repoLog}
}

func (r *exerciseAssignmentRepo) Create(ctx context.Context, tx *gorm.DB, assignment *content.ExerciseAssignment) (*content.ExerciseAssignment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(assignment).Error; err != nil {
		return nil, err
	}
	return assignment, nil
}

func (r *exerciseAssignmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*content.ExerciseAssignment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var assignment content.ExerciseAssignment
	if err := transaction.WithContext(ctx).Where("id = ?", id).First(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *exerciseAssignmentRepo) GetByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uuid.UUID) ([]*content.ExerciseAssignment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*content.ExerciseAssignment
	if len(lessonIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("lesson_id IN ?", lessonIDs).
		Order("lesson_id, sort_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *exerciseAssignmentRepo) GetByExerciseID(ctx context.Context, tx *gorm.DB, exerciseID uuid.UUID) ([]*content.ExerciseAssignment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*content.ExerciseAssignment
	if err := transaction.WithContext(ctx).
		Where("exercise_id = ?", exerciseID).
		Order("lesson_id, sort_order ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *exerciseAssignmentRepo) CourseIDsByExercise(ctx context.Context, tx *gorm.DB, exerciseID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&content.ExerciseAssignment{}).
		Where("exercise_id = ?", exerciseID).
		Distinct().
		Pluck("course_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *exerciseAssignmentRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Where("id IN ?", ids).Delete(&content.ExerciseAssignment{}).Error
}

func (r *exerciseAssignmentRepo) DeleteByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(lessonIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Where("lesson_id IN ?", lessonIDs).Delete(&content.ExerciseAssignment{}).Error
}
