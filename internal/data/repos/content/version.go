package content

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/curriculum-backend/internal/domain/content"
	"github.com/yungbote/curriculum-backend/internal/platform/dbctx"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

// VersionRepo reads and locks what a course package version is derived from.
type VersionRepo interface {
	// OwningCourse walks parent links from an ordered node up to its course.
	// found is false when any row on the way is missing.
	OwningCourse(ctx context.Context, tx *gorm.DB, kind content.NodeKind, id uuid.UUID) (uuid.UUID, bool, error)
	// LockCourses locks the course rows in ascending id order and returns the
	// ids that exist, in that order.
	LockCourses(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]uuid.UUID, error)
	LockExercise(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
	// Latest returns the newest updated_at of everything the course package
	// includes, or the zero time when the course does not exist.
	Latest(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (time.Time, error)
}

type versionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVersionRepo(db *gorm.DB, baseLog *logger.Logger) VersionRepo {
	repoLog := baseLog.With("repo", "VersionRepo")
	return &versionRepo{db: db, log: repoLog}
}

func (r *versionRepo) OwningCourse(ctx context.Context, tx *gorm.DB, kind content.NodeKind, id uuid.UUID) (uuid.UUID, bool, error) {
	q := dbctx.Context{Ctx: ctx, Tx: tx}.DB(r.db)
	if kind == content.KindExercise {
		return uuid.Nil, false, fmt.Errorf("%s rows have no owning course", kind)
	}
	for kind != content.KindCourse {
		scope, ok := content.ScopeFor(kind)
		if !ok {
			return uuid.Nil, false, fmt.Errorf("unknown node kind %q", kind)
		}
		var parents []uuid.UUID
		if err := q.Table(scope.Table).Where("id = ?", id).Limit(1).Pluck(scope.ParentColumn, &parents).Error; err != nil {
			return uuid.Nil, false, err
		}
		if len(parents) == 0 {
			return uuid.Nil, false, nil
		}
		kind, id = scope.ParentKind, parents[0]
	}

	var ids []uuid.UUID
	if err := q.Table("course").Where("id = ?", id).Limit(1).Pluck("id", &ids).Error; err != nil {
		return uuid.Nil, false, err
	}
	if len(ids) == 0 {
		return uuid.Nil, false, nil
	}
	return ids[0], true, nil
}

func (r *versionRepo) LockCourses(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := dbctx.Context{Ctx: ctx, Tx: tx}.DB(r.db)
	sorted := append(([]uuid.UUID)(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].String() < sorted[j].String() })

	stmt := q.Table("course").Where("id IN ?", sorted).Order("id ASC")
	if lockable(q) {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var found []uuid.UUID
	if err := stmt.Pluck("id", &found).Error; err != nil {
		return nil, err
	}
	return found, nil
}

func (r *versionRepo) LockExercise(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	q := dbctx.Context{Ctx: ctx, Tx: tx}.DB(r.db)
	stmt := q.Table("exercise").Where("id = ?", id)
	if lockable(q) {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var ids []uuid.UUID
	if err := stmt.Limit(1).Pluck("id", &ids).Error; err != nil {
		return false, err
	}
	return len(ids) == 1, nil
}

func (r *versionRepo) Latest(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (time.Time, error) {
	q := dbctx.Context{Ctx: ctx, Tx: tx}.DB(r.db)
	queries := []struct {
		column string
		stmt   *gorm.DB
	}{
		{"course.updated_at", q.Table("course").Where("course.id = ?", courseID)},
		{"level.updated_at", q.Table("level").Where("level.course_id = ?", courseID)},
		{"section.updated_at", q.Table("section").
			Joins("JOIN level ON level.id = section.level_id").
			Where("level.course_id = ?", courseID)},
		{"module.updated_at", q.Table("module").
			Joins("JOIN section ON section.id = module.section_id").
			Joins("JOIN level ON level.id = section.level_id").
			Where("level.course_id = ?", courseID)},
		{"lesson.updated_at", q.Table("lesson").
			Joins("JOIN module ON module.id = lesson.module_id").
			Joins("JOIN section ON section.id = module.section_id").
			Joins("JOIN level ON level.id = section.level_id").
			Where("level.course_id = ?", courseID)},
		{"exercise.updated_at", q.Table("exercise").
			Joins("JOIN exercise_assignment ON exercise_assignment.exercise_id = exercise.id").
			Where("exercise_assignment.course_id = ?", courseID)},
	}

	var latest time.Time
	for _, item := range queries {
		// Plucked rather than MAX()ed so every driver hands back a typed time.
		var stamps []time.Time
		if err := item.stmt.Pluck(item.column, &stamps).Error; err != nil {
			return time.Time{}, fmt.Errorf("latest %s: %w", item.column, err)
		}
		for _, t := range stamps {
			if t.After(latest) {
				latest = t
			}
		}
	}
	return latest.UTC(), nil
}
