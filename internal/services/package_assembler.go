package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/curriculum-backend/internal/data/aggregates"
	"github.com/yungbote/curriculum-backend/internal/data/repos"
	domainagg "github.com/yungbote/curriculum-backend/internal/domain/aggregates"
	"github.com/yungbote/curriculum-backend/internal/domain/content"
	"github.com/yungbote/curriculum-backend/internal/observability"
	"github.com/yungbote/curriculum-backend/internal/platform/dbctx"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

// PackageAssembler builds the full packaged snapshot of one course from the store.
type PackageAssembler interface {
	Assemble(ctx context.Context, courseID uuid.UUID) (*content.PackagedSnapshot, error)
}

type packageAssembler struct {
	log     *logger.Logger
	runner  aggregates.TxRunner
	repos   repos.Content
	metrics *observability.Metrics
}

// NewPackageAssembler reads every collection inside one snapshot transaction
// so the package never mixes states from before and after a concurrent write.
func NewPackageAssembler(db *gorm.DB, baseLog *logger.Logger, r repos.Content, metrics *observability.Metrics) PackageAssembler {
	return &packageAssembler{
		log:     baseLog.With("service", "PackageAssembler"),
		runner:  aggregates.NewSnapshotTxRunner(db),
		repos:   r,
		metrics: metrics,
	}
}

func (a *packageAssembler) Assemble(ctx context.Context, courseID uuid.UUID) (*content.PackagedSnapshot, error) {
	const op = "content.package.assemble"
	ctx, span := observability.Tracer().Start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.String("course.id", courseID.String()))

	start := time.Now()
	var snap *content.PackagedSnapshot
	err := a.runner.InTx(ctx, func(dbc dbctx.Context) error {
		var err error
		snap, err = a.load(dbc, op, courseID)
		return err
	})
	if err != nil {
		err = aggregates.MapError(op, err)
		a.metrics.ObservePackageAssembly(string(domainagg.CodeOf(err)), time.Since(start))
		span.RecordError(err)
		return nil, err
	}
	a.metrics.ObservePackageAssembly("success", time.Since(start))
	span.SetAttributes(attribute.String("package.version", snap.PackageVersion))
	return snap, nil
}

func (a *packageAssembler) load(dbc dbctx.Context, op string, courseID uuid.UUID) (*content.PackagedSnapshot, error) {
	ctx, tx := dbc.Ctx, dbc.Tx

	course, err := a.repos.Course.GetByID(ctx, tx, courseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainagg.NotFound(op, string(content.KindCourse), courseID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	levels, err := a.repos.Level.GetByCourseIDs(ctx, tx, []uuid.UUID{courseID})
	if err != nil {
		return nil, fmt.Errorf("load levels: %w", err)
	}
	sections, err := a.repos.Section.GetByLevelIDs(ctx, tx, idsOf(levels, func(l *content.Level) uuid.UUID { return l.ID }))
	if err != nil {
		return nil, fmt.Errorf("load sections: %w", err)
	}
	modules, err := a.repos.Module.GetBySectionIDs(ctx, tx, idsOf(sections, func(s *content.Section) uuid.UUID { return s.ID }))
	if err != nil {
		return nil, fmt.Errorf("load modules: %w", err)
	}
	lessons, err := a.repos.Lesson.GetByModuleIDs(ctx, tx, idsOf(modules, func(m *content.Module) uuid.UUID { return m.ID }))
	if err != nil {
		return nil, fmt.Errorf("load lessons: %w", err)
	}
	assignments, err := a.repos.Assignment.GetByLessonIDs(ctx, tx, idsOf(lessons, func(l *content.Lesson) uuid.UUID { return l.ID }))
	if err != nil {
		return nil, fmt.Errorf("load exercise assignments: %w", err)
	}
	exerciseIDs := uniqueIDs(idsOf(assignments, func(x *content.ExerciseAssignment) uuid.UUID { return x.ExerciseID }))
	exercises, err := a.repos.Exercise.GetByIDs(ctx, tx, exerciseIDs)
	if err != nil {
		return nil, fmt.Errorf("load exercises: %w", err)
	}

	return buildSnapshot(op, course, levels, sections, modules, lessons, assignments, exercises)
}

// buildSnapshot nests the flat, order-sorted collections and computes
// package_version as the newest updated_at of everything included.
func buildSnapshot(
	op string,
	course *content.Course,
	levels []*content.Level,
	sections []*content.Section,
	modules []*content.Module,
	lessons []*content.Lesson,
	assignments []*content.ExerciseAssignment,
	exercises []*content.Exercise,
) (*content.PackagedSnapshot, error) {
	version := course.UpdatedAt
	bump := func(t time.Time) {
		if t.After(version) {
			version = t
		}
	}

	exerciseByID := make(map[uuid.UUID]content.ExerciseView, len(exercises))
	for _, e := range exercises {
		bump(e.UpdatedAt)
		exerciseByID[e.ID] = content.ExerciseView{
			ID:        e.ID,
			Kind:      e.Kind,
			Prompt:    e.Prompt,
			Payload:   rawJSON(e.Payload),
			UpdatedAt: e.UpdatedAt,
		}
	}

	assignmentsByLesson := map[uuid.UUID][]content.AssignmentView{}
	for _, x := range assignments {
		ex, ok := exerciseByID[x.ExerciseID]
		if !ok {
			return nil, domainagg.NewError(domainagg.CodeInvariantViolation, op,
				fmt.Sprintf("exercise assignment %s references missing exercise %s", x.ID, x.ExerciseID), nil)
		}
		assignmentsByLesson[x.LessonID] = append(assignmentsByLesson[x.LessonID], content.AssignmentView{
			ID:       x.ID,
			Order:    x.Order,
			Exercise: ex,
		})
	}

	lessonsByModule := map[uuid.UUID][]content.LessonView{}
	for _, l := range lessons {
		bump(l.UpdatedAt)
		lessonsByModule[l.ModuleID] = append(lessonsByModule[l.ModuleID], content.LessonView{
			ID:                  l.ID,
			Order:               l.Order,
			Title:               l.Title,
			Kind:                l.Kind,
			ContentMD:           l.ContentMD,
			Content:             rawJSON(l.Content),
			EstimatedMinutes:    l.EstimatedMinutes,
			UpdatedAt:           l.UpdatedAt,
			ExerciseAssignments: nonNil(assignmentsByLesson[l.ID]),
		})
	}

	modulesBySection := map[uuid.UUID][]content.ModuleView{}
	for _, m := range modules {
		bump(m.UpdatedAt)
		modulesBySection[m.SectionID] = append(modulesBySection[m.SectionID], content.ModuleView{
			ID:          m.ID,
			Order:       m.Order,
			Title:       m.Title,
			Description: m.Description,
			UpdatedAt:   m.UpdatedAt,
			Lessons:     nonNil(lessonsByModule[m.ID]),
		})
	}

	sectionsByLevel := map[uuid.UUID][]content.SectionView{}
	for _, s := range sections {
		bump(s.UpdatedAt)
		sectionsByLevel[s.LevelID] = append(sectionsByLevel[s.LevelID], content.SectionView{
			ID:          s.ID,
			Order:       s.Order,
			Title:       s.Title,
			Description: s.Description,
			UpdatedAt:   s.UpdatedAt,
			Modules:     nonNil(modulesBySection[s.ID]),
		})
	}

	levelViews := make([]content.LevelView, 0, len(levels))
	for _, l := range levels {
		bump(l.UpdatedAt)
		levelViews = append(levelViews, content.LevelView{
			ID:          l.ID,
			Order:       l.Order,
			Title:       l.Title,
			Description: l.Description,
			UpdatedAt:   l.UpdatedAt,
			Sections:    nonNil(sectionsByLevel[l.ID]),
		})
	}

	return &content.PackagedSnapshot{
		Course: content.CourseView{
			ID:          course.ID,
			Title:       course.Title,
			Description: course.Description,
			CreatedAt:   course.CreatedAt,
			UpdatedAt:   course.UpdatedAt,
		},
		Levels:         levelViews,
		PackageVersion: content.FormatPackageVersion(version),
	}, nil
}

func idsOf[T any](rows []*T, id func(*T) uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		out = append(out, id(r))
	}
	return out
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// nonNil keeps empty collections as [] in the package instead of null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func rawJSON(b []byte) json.RawMessage {
	if len(b) == 0 {
		return nil
	}
	return json.RawMessage(b)
}
