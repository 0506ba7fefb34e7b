package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/curriculum-backend/internal/data/aggregates"
	"github.com/yungbote/curriculum-backend/internal/data/repos"
	domainagg "github.com/yungbote/curriculum-backend/internal/domain/aggregates"
	"github.com/yungbote/curriculum-backend/internal/domain/content"
	"github.com/yungbote/curriculum-backend/internal/platform/clock"
	"github.com/yungbote/curriculum-backend/internal/platform/dbctx"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

// SiblingOrder is the order aggregate as the content service uses it: the
// public reorder plus the in-transaction helpers for appends and deletes.
type SiblingOrder interface {
	domainagg.SiblingOrderAggregate
	LockParent(dbc dbctx.Context, kind content.NodeKind, parentID uuid.UUID) error
	NextPosition(dbc dbctx.Context, kind content.NodeKind, parentID uuid.UUID) (int, error)
	Compact(dbc dbctx.Context, kind content.NodeKind, parentID uuid.UUID, at time.Time) (int, error)
}

type NodeInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type LessonInput struct {
	Title            string          `json:"title"`
	Kind             string          `json:"kind"`
	ContentMD        string          `json:"content_md"`
	Content          json.RawMessage `json:"content"`
	EstimatedMinutes int             `json:"estimated_minutes"`
}

type ExerciseInput struct {
	Kind    string          `json:"kind"`
	Prompt  string          `json:"prompt"`
	Payload json.RawMessage `json:"payload"`
}

// Patch carries a partial update. Fields that do not apply to the target kind
// are rejected.
type Patch struct {
	Title            *string          `json:"title"`
	Description      *string          `json:"description"`
	Kind             *string          `json:"kind"`
	ContentMD        *string          `json:"content_md"`
	Content          *json.RawMessage `json:"content"`
	EstimatedMinutes *int             `json:"estimated_minutes"`
	Prompt           *string          `json:"prompt"`
	Payload          *json.RawMessage `json:"payload"`
}

// ContentService is the write side of the hierarchy. Every committed write
// ends with an invalidation of the affected course packages.
type ContentService interface {
	ListCourses(ctx context.Context) ([]*content.Course, error)
	Get(ctx context.Context, kind content.NodeKind, id uuid.UUID) (interface{}, error)

	CreateCourse(ctx context.Context, in NodeInput) (*content.Course, error)
	CreateLevel(ctx context.Context, courseID uuid.UUID, in NodeInput) (*content.Level, error)
	CreateSection(ctx context.Context, levelID uuid.UUID, in NodeInput) (*content.Section, error)
	CreateModule(ctx context.Context, sectionID uuid.UUID, in NodeInput) (*content.Module, error)
	CreateLesson(ctx context.Context, moduleID uuid.UUID, in LessonInput) (*content.Lesson, error)
	CreateExercise(ctx context.Context, in ExerciseInput) (*content.Exercise, error)
	AssignExercise(ctx context.Context, lessonID, exerciseID uuid.UUID) (*content.ExerciseAssignment, error)

	Update(ctx context.Context, kind content.NodeKind, id uuid.UUID, p Patch) (interface{}, error)
	Delete(ctx context.Context, kind content.NodeKind, id uuid.UUID) error

	Reorder(ctx context.Context, in domainagg.ReorderInput) (domainagg.ReorderResult, error)
}

// contentService stamps every write through the version fence, so updated_at
// values it sets are strictly newer than the package version they replace.
type contentService struct {
	log    *logger.Logger
	runner aggregates.TxRunner
	repos  repos.Content
	order  SiblingOrder
	fence  *aggregates.VersionFence
	hub    InvalidationHub
	now    clock.Clock
}

func NewContentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	r repos.Content,
	order SiblingOrder,
	hub InvalidationHub,
	now clock.Clock,
) ContentService {
	return &contentService{
		log:    baseLog.With("service", "ContentService"),
		runner: aggregates.NewGormTxRunner(db),
		repos:  r,
		order:  order,
		fence:  aggregates.NewVersionFence(r.Version),
		hub:    hub,
		now:    now,
	}
}

func (s *contentService) inTx(ctx context.Context, op string, fn func(dbc dbctx.Context) error) error {
	return aggregates.MapError(op, s.runner.InTx(ctx, fn))
}

func (s *contentService) ListCourses(ctx context.Context) ([]*content.Course, error) {
	courses, err := s.repos.Course.List(ctx, nil)
	if err != nil {
		return nil, aggregates.MapError("content.course.list", err)
	}
	return courses, nil
}

func (s *contentService) Get(ctx context.Context, kind content.NodeKind, id uuid.UUID) (interface{}, error) {
	op := "content." + string(kind) + ".get"
	row, err := s.get(ctx, nil, kind, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainagg.NotFound(op, string(kind), id.String())
	}
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return row, nil
}

func (s *contentService) get(ctx context.Context, tx *gorm.DB, kind content.NodeKind, id uuid.UUID) (interface{}, error) {
	switch kind {
	case content.KindCourse:
		return s.repos.Course.GetByID(ctx, tx, id)
	case content.KindLevel:
		return s.repos.Level.GetByID(ctx, tx, id)
	case content.KindSection:
		return s.repos.Section.GetByID(ctx, tx, id)
	case content.KindModule:
		return s.repos.Module.GetByID(ctx, tx, id)
	case content.KindLesson:
		return s.repos.Lesson.GetByID(ctx, tx, id)
	case content.KindExercise:
		return s.repos.Exercise.GetByID(ctx, tx, id)
	case content.KindExerciseAssignment:
		return s.repos.Assignment.GetByID(ctx, tx, id)
	}
	return nil, domainagg.NewError(domainagg.CodeValidation, "content.get", fmt.Sprintf("unknown node kind %q", kind), nil)
}

func (s *contentService) CreateCourse(ctx context.Context, in NodeInput) (*content.Course, error) {
	const op = "content.course.create"
	if err := requireText(op, "title", in.Title); err != nil {
		return nil, err
	}
	now := s.now.Now()
	row := &content.Course{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := s.inTx(ctx, op, func(dbc dbctx.Context) error {
		_, err := s.repos.Course.Create(dbc.Ctx, dbc.Tx, row)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.hub.InvalidateCourses(ctx, row.ID)
	return row, nil
}

func (s *contentService) CreateLevel(ctx context.Context, courseID uuid.UUID, in NodeInput) (*content.Level, error) {
	const op = "content.level.create"
	if err := requireText(op, "title", in.Title); err != nil {
		return nil, err
	}
	row := &content.Level{
		CourseID:    courseID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
	}
	owner, err := s.appendChild(ctx, op, content.KindLevel, courseID, func(dbc dbctx.Context, pos int, at time.Time) error {
		row.Order, row.CreatedAt, row.UpdatedAt = pos, at, at
		_, err := s.repos.Level.Create(dbc.Ctx, dbc.Tx, row)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.hub.InvalidateCourses(ctx, owner)
	return row, nil
}

func (s *contentService) CreateSection(ctx context.Context, levelID uuid.UUID, in NodeInput) (*content.Section, error) {
	const op = "content.section.create"
	if err := requireText(op, "title", in.Title); err != nil {
		return nil, err
	}
	row := &content.Section{
		LevelID:     levelID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
	}
	owner, err := s.appendChild(ctx, op, content.KindSection, levelID, func(dbc dbctx.Context, pos int, at time.Time) error {
		row.Order, row.CreatedAt, row.UpdatedAt = pos, at, at
		_, err := s.repos.Section.Create(dbc.Ctx, dbc.Tx, row)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.hub.InvalidateCourses(ctx, owner)
	return row, nil
}

func (s *contentService) CreateModule(ctx context.Context, sectionID uuid.UUID, in NodeInput) (*content.Module, error) {
	const op = "content.module.create"
	if err := requireText(op, "title", in.Title); err != nil {
		return nil, err
	}
	row := &content.Module{
		SectionID:   sectionID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
	}
	owner, err := s.appendChild(ctx, op, content.KindModule, sectionID, func(dbc dbctx.Context, pos int, at time.Time) error {
		row.Order, row.CreatedAt, row.UpdatedAt = pos, at, at
		_, err := s.repos.Module.Create(dbc.Ctx, dbc.Tx, row)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.hub.InvalidateCourses(ctx, owner)
	return row, nil
}

func (s *contentService) CreateLesson(ctx context.Context, moduleID uuid.UUID, in LessonInput) (*content.Lesson, error) {
	const op = "content.lesson.create"
	if err := requireText(op, "title", in.Title); err != nil {
		return nil, err
	}
	body, err := jsonColumn(op, "content", in.Content)
	if err != nil {
		return nil, err
	}
	kind := strings.TrimSpace(in.Kind)
	if kind == "" {
		kind = "reading"
	}
	row := &content.Lesson{
		ModuleID:         moduleID,
		Title:            strings.TrimSpace(in.Title),
		Kind:             kind,
		ContentMD:        in.ContentMD,
		Content:          body,
		EstimatedMinutes: in.EstimatedMinutes,
	}
	owner, err := s.appendChild(ctx, op, content.KindLesson, moduleID, func(dbc dbctx.Context, pos int, at time.Time) error {
		row.Order, row.CreatedAt, row.UpdatedAt = pos, at, at
		_, err := s.repos.Lesson.Create(dbc.Ctx, dbc.Tx, row)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.hub.InvalidateCourses(ctx, owner)
	return row, nil
}

// appendChild places a new child at N+1 under the course and parent locks and
// returns the owning course.
func (s *contentService) appendChild(ctx context.Context, op string, kind content.NodeKind, parentID uuid.UUID, create func(dbc dbctx.Context, pos int, at time.Time) error) (uuid.UUID, error) {
	scope, _ := content.ScopeFor(kind)
	var courseID uuid.UUID
	err := s.inTx(ctx, op, func(dbc dbctx.Context) error {
		var err error
		if courseID, err = s.fence.CourseOf(dbc, op, scope.ParentKind, parentID); err != nil {
			return err
		}
		at, err := s.fence.Stamp(dbc, op, []uuid.UUID{courseID}, s.now.Now())
		if err != nil {
			return err
		}
		pos, err := s.order.NextPosition(dbc, kind, parentID)
		if err != nil {
			return err
		}
		return create(dbc, pos, at)
	})
	return courseID, err
}

func (s *contentService) CreateExercise(ctx context.Context, in ExerciseInput) (*content.Exercise, error) {
	const op = "content.exercise.create"
	if err := requireText(op, "prompt", in.Prompt); err != nil {
		return nil, err
	}
	payload, err := jsonColumn(op, "payload", in.Payload)
	if err != nil {
		return nil, err
	}
	kind := strings.TrimSpace(in.Kind)
	if kind == "" {
		kind = "multiple_choice"
	}
	now := s.now.Now()
	row := &content.Exercise{
		Kind:      kind,
		Prompt:    in.Prompt,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	// Unreferenced until assigned, so no package can contain it yet.
	err = s.inTx(ctx, op, func(dbc dbctx.Context) error {
		_, err := s.repos.Exercise.Create(dbc.Ctx, dbc.Tx, row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *contentService) AssignExercise(ctx context.Context, lessonID, exerciseID uuid.UUID) (*content.ExerciseAssignment, error) {
	const op = "content.exercise_assignment.create"
	row := &content.ExerciseAssignment{
		LessonID:   lessonID,
		ExerciseID: exerciseID,
	}
	err := s.inTx(ctx, op, func(dbc dbctx.Context) error {
		if err := s.fence.LockExercise(dbc, op, exerciseID); err != nil {
			return err
		}
		courseID, err := s.fence.CourseOf(dbc, op, content.KindLesson, lessonID)
		if err != nil {
			return err
		}
		at, err := s.fence.Stamp(dbc, op, []uuid.UUID{courseID}, s.now.Now())
		if err != nil {
			return err
		}
		pos, err := s.order.NextPosition(dbc, content.KindExerciseAssignment, lessonID)
		if err != nil {
			return err
		}
		row.CourseID, row.Order, row.CreatedAt = courseID, pos, at
		if _, err := s.repos.Assignment.Create(dbc.Ctx, dbc.Tx, row); err != nil {
			return err
		}
		return s.repos.Sibling.Touch(dbc.Ctx, dbc.Tx, content.KindLesson, []uuid.UUID{lessonID}, at)
	})
	if err != nil {
		return nil, err
	}
	s.hub.InvalidateCourses(ctx, row.CourseID)
	return row, nil
}

func (s *contentService) Update(ctx context.Context, kind content.NodeKind, id uuid.UUID, p Patch) (interface{}, error) {
	op := "content." + string(kind) + ".update"
	updates, err := p.updates(op, kind)
	if err != nil {
		return nil, err
	}

	var out interface{}
	var courseIDs []uuid.UUID
	err = s.inTx(ctx, op, func(dbc dbctx.Context) error {
		var err error
		if courseIDs, err = s.coursesOf(dbc, op, kind, id); err != nil {
			return err
		}
		at, err := s.fence.Stamp(dbc, op, courseIDs, s.now.Now())
		if err != nil {
			return err
		}
		updates["updated_at"] = at
		switch kind {
		case content.KindCourse:
			err = s.repos.Course.UpdateFields(dbc.Ctx, dbc.Tx, id, updates)
		case content.KindLevel:
			err = s.repos.Level.UpdateFields(dbc.Ctx, dbc.Tx, id, updates)
		case content.KindSection:
			err = s.repos.Section.UpdateFields(dbc.Ctx, dbc.Tx, id, updates)
		case content.KindModule:
			err = s.repos.Module.UpdateFields(dbc.Ctx, dbc.Tx, id, updates)
		case content.KindLesson:
			err = s.repos.Lesson.UpdateFields(dbc.Ctx, dbc.Tx, id, updates)
		case content.KindExercise:
			err = s.repos.Exercise.UpdateFields(dbc.Ctx, dbc.Tx, id, updates)
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainagg.NotFound(op, string(kind), id.String())
		}
		if err != nil {
			return err
		}
		out, err = s.get(dbc.Ctx, dbc.Tx, kind, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.hub.InvalidateCourses(ctx, courseIDs...)
	return out, nil
}

// coursesOf locks a shared exercise and lists the courses referencing it, or
// resolves the single owning course of any other node.
func (s *contentService) coursesOf(dbc dbctx.Context, op string, kind content.NodeKind, id uuid.UUID) ([]uuid.UUID, error) {
	if kind != content.KindExercise {
		courseID, err := s.fence.CourseOf(dbc, op, kind, id)
		if err != nil {
			return nil, err
		}
		return []uuid.UUID{courseID}, nil
	}
	if err := s.fence.LockExercise(dbc, op, id); err != nil {
		return nil, err
	}
	return s.repos.Assignment.CourseIDsByExercise(dbc.Ctx, dbc.Tx, id)
}

func (s *contentService) Delete(ctx context.Context, kind content.NodeKind, id uuid.UUID) error {
	switch kind {
	case content.KindCourse:
		return s.deleteCourse(ctx, id)
	case content.KindLevel, content.KindSection, content.KindModule, content.KindLesson:
		return s.deleteChild(ctx, kind, id)
	case content.KindExercise:
		return s.deleteExercise(ctx, id)
	case content.KindExerciseAssignment:
		return s.deleteAssignment(ctx, id)
	}
	return domainagg.NewError(domainagg.CodeValidation, "content.delete", fmt.Sprintf("unknown node kind %q", kind), nil)
}

func (s *contentService) deleteCourse(ctx context.Context, id uuid.UUID) error {
	const op = "content.course.delete"
	err := s.inTx(ctx, op, func(dbc dbctx.Context) error {
		if _, err := s.fence.Stamp(dbc, op, []uuid.UUID{id}, s.now.Now()); err != nil {
			return err
		}
		return s.deleteSubtree(dbc, content.KindCourse, []uuid.UUID{id})
	})
	if err != nil {
		return err
	}
	s.hub.InvalidateCourses(ctx, id)
	return nil
}

// deleteChild removes an ordered node with its subtree, closes the gap it
// leaves and touches the parent so the package version still advances.
func (s *contentService) deleteChild(ctx context.Context, kind content.NodeKind, id uuid.UUID) error {
	op := "content." + string(kind) + ".delete"
	scope, _ := content.ScopeFor(kind)

	var courseID uuid.UUID
	err := s.inTx(ctx, op, func(dbc dbctx.Context) error {
		var err error
		// Resolved before the delete: once the row is gone there is no path to its course.
		if courseID, err = s.fence.CourseOf(dbc, op, kind, id); err != nil {
			return err
		}
		at, err := s.fence.Stamp(dbc, op, []uuid.UUID{courseID}, s.now.Now())
		if err != nil {
			return err
		}
		parentID, err := s.parentOf(dbc, kind, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainagg.NotFound(op, string(kind), id.String())
		}
		if err != nil {
			return err
		}
		if err := s.order.LockParent(dbc, kind, parentID); err != nil {
			return err
		}
		if err := s.deleteSubtree(dbc, kind, []uuid.UUID{id}); err != nil {
			return err
		}
		if _, err := s.order.Compact(dbc, kind, parentID, at); err != nil {
			return err
		}
		return s.repos.Sibling.Touch(dbc.Ctx, dbc.Tx, scope.ParentKind, []uuid.UUID{parentID}, at)
	})
	if err != nil {
		return err
	}
	s.hub.InvalidateCourses(ctx, courseID)
	return nil
}

func (s *contentService) parentOf(dbc dbctx.Context, kind content.NodeKind, id uuid.UUID) (uuid.UUID, error) {
	switch kind {
	case content.KindLevel:
		row, err := s.repos.Level.GetByID(dbc.Ctx, dbc.Tx, id)
		if err != nil {
			return uuid.Nil, err
		}
		return row.CourseID, nil
	case content.KindSection:
		row, err := s.repos.Section.GetByID(dbc.Ctx, dbc.Tx, id)
		if err != nil {
			return uuid.Nil, err
		}
		return row.LevelID, nil
	case content.KindModule:
		row, err := s.repos.Module.GetByID(dbc.Ctx, dbc.Tx, id)
		if err != nil {
			return uuid.Nil, err
		}
		return row.SectionID, nil
	case content.KindLesson:
		row, err := s.repos.Lesson.GetByID(dbc.Ctx, dbc.Tx, id)
		if err != nil {
			return uuid.Nil, err
		}
		return row.ModuleID, nil
	}
	return uuid.Nil, fmt.Errorf("%q has no parent", kind)
}

// deleteSubtree removes ids of kind and everything below them, deepest first.
func (s *contentService) deleteSubtree(dbc dbctx.Context, kind content.NodeKind, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	ctx, tx := dbc.Ctx, dbc.Tx
	switch kind {
	case content.KindCourse:
		levels, err := s.repos.Level.GetByCourseIDs(ctx, tx, ids)
		if err != nil {
			return err
		}
		if err := s.deleteSubtree(dbc, content.KindLevel, idsOf(levels, func(l *content.Level) uuid.UUID { return l.ID })); err != nil {
			return err
		}
		return s.repos.Course.DeleteByIDs(ctx, tx, ids)
	case content.KindLevel:
		sections, err := s.repos.Section.GetByLevelIDs(ctx, tx, ids)
		if err != nil {
			return err
		}
		if err := s.deleteSubtree(dbc, content.KindSection, idsOf(sections, func(x *content.Section) uuid.UUID { return x.ID })); err != nil {
			return err
		}
		return s.repos.Level.DeleteByIDs(ctx, tx, ids)
	case content.KindSection:
		modules, err := s.repos.Module.GetBySectionIDs(ctx, tx, ids)
		if err != nil {
			return err
		}
		if err := s.deleteSubtree(dbc, content.KindModule, idsOf(modules, func(m *content.Module) uuid.UUID { return m.ID })); err != nil {
			return err
		}
		return s.repos.Section.DeleteByIDs(ctx, tx, ids)
	case content.KindModule:
		lessons, err := s.repos.Lesson.GetByModuleIDs(ctx, tx, ids)
		if err != nil {
			return err
		}
		if err := s.deleteSubtree(dbc, content.KindLesson, idsOf(lessons, func(l *content.Lesson) uuid.UUID { return l.ID })); err != nil {
			return err
		}
		return s.repos.Module.DeleteByIDs(ctx, tx, ids)
	case content.KindLesson:
		if err := s.repos.Assignment.DeleteByLessonIDs(ctx, tx, ids); err != nil {
			return err
		}
		return s.repos.Lesson.DeleteByIDs(ctx, tx, ids)
	}
	return fmt.Errorf("cannot cascade delete %q", kind)
}

// deleteExercise drops the exercise and every assignment of it, then renumbers
// the affected lessons.
func (s *contentService) deleteExercise(ctx context.Context, id uuid.UUID) error {
	const op = "content.exercise.delete"
	var courseIDs []uuid.UUID
	err := s.inTx(ctx, op, func(dbc dbctx.Context) error {
		if err := s.fence.LockExercise(dbc, op, id); err != nil {
			return err
		}
		assignments, err := s.repos.Assignment.GetByExerciseID(dbc.Ctx, dbc.Tx, id)
		if err != nil {
			return err
		}
		courseIDs = uniqueIDs(idsOf(assignments, func(a *content.ExerciseAssignment) uuid.UUID { return a.CourseID }))
		lessonIDs := sortedIDs(uniqueIDs(idsOf(assignments, func(a *content.ExerciseAssignment) uuid.UUID { return a.LessonID })))
		at, err := s.fence.Stamp(dbc, op, courseIDs, s.now.Now())
		if err != nil {
			return err
		}
		for _, lessonID := range lessonIDs {
			if err := s.order.LockParent(dbc, content.KindExerciseAssignment, lessonID); err != nil {
				return err
			}
		}

		if err := s.repos.Assignment.DeleteByIDs(dbc.Ctx, dbc.Tx, idsOf(assignments, func(a *content.ExerciseAssignment) uuid.UUID { return a.ID })); err != nil {
			return err
		}
		if err := s.repos.Exercise.DeleteByIDs(dbc.Ctx, dbc.Tx, []uuid.UUID{id}); err != nil {
			return err
		}
		for _, lessonID := range lessonIDs {
			if _, err := s.order.Compact(dbc, content.KindExerciseAssignment, lessonID, at); err != nil {
				return err
			}
		}
		return s.repos.Sibling.Touch(dbc.Ctx, dbc.Tx, content.KindLesson, lessonIDs, at)
	})
	if err != nil {
		return err
	}
	s.hub.InvalidateCourses(ctx, courseIDs...)
	return nil
}

func (s *contentService) deleteAssignment(ctx context.Context, id uuid.UUID) error {
	const op = "content.exercise_assignment.delete"
	var courseID uuid.UUID
	err := s.inTx(ctx, op, func(dbc dbctx.Context) error {
		row, err := s.repos.Assignment.GetByID(dbc.Ctx, dbc.Tx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainagg.NotFound(op, string(content.KindExerciseAssignment), id.String())
		}
		if err != nil {
			return err
		}
		courseID = row.CourseID
		at, err := s.fence.Stamp(dbc, op, []uuid.UUID{courseID}, s.now.Now())
		if err != nil {
			return err
		}
		if err := s.order.LockParent(dbc, content.KindExerciseAssignment, row.LessonID); err != nil {
			return err
		}
		if err := s.repos.Assignment.DeleteByIDs(dbc.Ctx, dbc.Tx, []uuid.UUID{id}); err != nil {
			return err
		}
		if _, err := s.order.Compact(dbc, content.KindExerciseAssignment, row.LessonID, at); err != nil {
			return err
		}
		return s.repos.Sibling.Touch(dbc.Ctx, dbc.Tx, content.KindLesson, []uuid.UUID{row.LessonID}, at)
	})
	if err != nil {
		return err
	}
	s.hub.InvalidateCourses(ctx, courseID)
	return nil
}

// Reorder delegates to the order aggregate, which fences the stamp and notifies
// the hub itself.
func (s *contentService) Reorder(ctx context.Context, in domainagg.ReorderInput) (domainagg.ReorderResult, error) {
	if in.At.IsZero() {
		in.At = s.now.Now()
	}
	return s.order.Reorder(ctx, in)
}

func (p Patch) updates(op string, kind content.NodeKind) (map[string]interface{}, error) {
	updates := map[string]interface{}{}
	var rejected []string
	allow := func(field string, ok bool) bool {
		if !ok {
			rejected = append(rejected, field)
		}
		return ok
	}
	container := kind == content.KindCourse || kind == content.KindLevel || kind == content.KindSection || kind == content.KindModule
	lesson := kind == content.KindLesson
	exercise := kind == content.KindExercise

	if p.Title != nil && allow("title", container || lesson) {
		if strings.TrimSpace(*p.Title) == "" {
			return nil, domainagg.NewError(domainagg.CodeValidation, op, "title must not be empty", nil)
		}
		updates["title"] = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil && allow("description", container) {
		updates["description"] = *p.Description
	}
	if p.Kind != nil && allow("kind", lesson || exercise) {
		updates["kind"] = strings.TrimSpace(*p.Kind)
	}
	if p.ContentMD != nil && allow("content_md", lesson) {
		updates["content_md"] = *p.ContentMD
	}
	if p.Content != nil && allow("content", lesson) {
		v, err := jsonColumn(op, "content", *p.Content)
		if err != nil {
			return nil, err
		}
		updates["content"] = v
	}
	if p.EstimatedMinutes != nil && allow("estimated_minutes", lesson) {
		updates["estimated_minutes"] = *p.EstimatedMinutes
	}
	if p.Prompt != nil && allow("prompt", exercise) {
		if strings.TrimSpace(*p.Prompt) == "" {
			return nil, domainagg.NewError(domainagg.CodeValidation, op, "prompt must not be empty", nil)
		}
		updates["prompt"] = *p.Prompt
	}
	if p.Payload != nil && allow("payload", exercise) {
		v, err := jsonColumn(op, "payload", *p.Payload)
		if err != nil {
			return nil, err
		}
		updates["payload"] = v
	}

	if len(rejected) > 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op,
			fmt.Sprintf("fields not valid for %s: %s", kind, strings.Join(rejected, ", ")), nil)
	}
	if len(updates) == 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "no fields to update", nil)
	}
	return updates, nil
}

// sortedIDs orders ids the way the store locks them.
func sortedIDs(ids []uuid.UUID) []uuid.UUID {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func requireText(op, field, v string) error {
	if strings.TrimSpace(v) == "" {
		return domainagg.NewError(domainagg.CodeValidation, op, field+" is required", nil)
	}
	return nil
}

func jsonColumn(op, field string, raw json.RawMessage) (datatypes.JSON, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if !json.Valid(raw) {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, field+" must be valid JSON", nil)
	}
	return datatypes.JSON(raw), nil
}
