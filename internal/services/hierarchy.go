package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/curriculum-backend/internal/data/repos"
	domainagg "github.com/yungbote/curriculum-backend/internal/domain/aggregates"
	"github.com/yungbote/curriculum-backend/internal/domain/content"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

// HierarchyResolver maps any node to the course(s) whose package contains it.
type HierarchyResolver interface {
	// FindOwningCourse walks parent links up to the course. Exercises have no
	// single owner; use CoursesReferencingExercise for them.
	FindOwningCourse(ctx context.Context, kind content.NodeKind, id uuid.UUID) (uuid.UUID, error)
	CoursesReferencingExercise(ctx context.Context, exerciseID uuid.UUID) ([]uuid.UUID, error)
}

type hierarchyResolver struct {
	db          *gorm.DB
	log         *logger.Logger
	assignments repos.ExerciseAssignmentRepo
}

func NewHierarchyResolver(db *gorm.DB, baseLog *logger.Logger, assignments repos.ExerciseAssignmentRepo) HierarchyResolver {
	return &hierarchyResolver{
		db:          db,
		log:         baseLog.With("service", "HierarchyResolver"),
		assignments: assignments,
	}
}

func (r *hierarchyResolver) FindOwningCourse(ctx context.Context, kind content.NodeKind, id uuid.UUID) (uuid.UUID, error) {
	const op = "content.hierarchy.find_owning_course"
	if kind == content.KindExercise {
		return uuid.Nil, domainagg.NewError(domainagg.CodeValidation, op, "exercises are shared; resolve them by reference", nil)
	}

	// Depth is bounded by the hierarchy: assignment, lesson, module, section, level, course.
	for kind != content.KindCourse {
		scope, ok := content.ScopeFor(kind)
		if !ok {
			return uuid.Nil, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("unknown node kind %q", kind), nil)
		}
		var parents []uuid.UUID
		if err := r.db.WithContext(ctx).
			Table(scope.Table).
			Where("id = ?", id).
			Limit(1).
			Pluck(scope.ParentColumn, &parents).Error; err != nil {
			return uuid.Nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
		}
		if len(parents) == 0 {
			return uuid.Nil, domainagg.NotFound(op, string(kind), id.String())
		}
		kind, id = scope.ParentKind, parents[0]
	}

	var course content.Course
	err := r.db.WithContext(ctx).Select("id").Where("id = ?", id).First(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, domainagg.NotFound(op, string(content.KindCourse), id.String())
	}
	if err != nil {
		return uuid.Nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	return course.ID, nil
}

func (r *hierarchyResolver) CoursesReferencingExercise(ctx context.Context, exerciseID uuid.UUID) ([]uuid.UUID, error) {
	const op = "content.hierarchy.courses_referencing_exercise"
	ids, err := r.assignments.CourseIDsByExercise(ctx, nil, exerciseID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	return ids, nil
}
