package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/curriculum-backend/internal/domain/content"
)

// Base is the fixed timestamp fixtures are created at.
var Base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, title string, at time.Time) *content.Course {
	tb.Helper()
	c := &content.Course{ID: uuid.New(), Title: title, CreatedAt: at, UpdatedAt: at}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedLevel(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, order int, at time.Time) *content.Level {
	tb.Helper()
	l := &content.Level{ID: uuid.New(), CourseID: courseID, Order: order, Title: fmt.Sprintf("L%d", order), CreatedAt: at, UpdatedAt: at}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed level: %v", err)
	}
	return l
}

func SeedSection(tb testing.TB, ctx context.Context, tx *gorm.DB, levelID uuid.UUID, order int, at time.Time) *content.Section {
	tb.Helper()
	s := &content.Section{ID: uuid.New(), LevelID: levelID, Order: order, Title: fmt.Sprintf("S%d", order), CreatedAt: at, UpdatedAt: at}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed section: %v", err)
	}
	return s
}

func SeedModule(tb testing.TB, ctx context.Context, tx *gorm.DB, sectionID uuid.UUID, order int, at time.Time) *content.Module {
	tb.Helper()
	m := &content.Module{ID: uuid.New(), SectionID: sectionID, Order: order, Title: fmt.Sprintf("M%d", order), CreatedAt: at, UpdatedAt: at}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed module: %v", err)
	}
	return m
}

func SeedLesson(tb testing.TB, ctx context.Context, tx *gorm.DB, moduleID uuid.UUID, order int, at time.Time) *content.Lesson {
	tb.Helper()
	l := &content.Lesson{
		ID:        uuid.New(),
		ModuleID:  moduleID,
		Order:     order,
		Title:     fmt.Sprintf("Lesson %d", order),
		Kind:      "reading",
		ContentMD: "# body",
		Content:   datatypes.JSON([]byte("{}")),
		CreatedAt: at,
		UpdatedAt: at,
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed lesson: %v", err)
	}
	return l
}

func SeedExercise(tb testing.TB, ctx context.Context, tx *gorm.DB, prompt string, at time.Time) *content.Exercise {
	tb.Helper()
	e := &content.Exercise{
		ID:        uuid.New(),
		Kind:      "multiple_choice",
		Prompt:    prompt,
		Payload:   datatypes.JSON([]byte(`{"choices":["a","b"]}`)),
		CreatedAt: at,
		UpdatedAt: at,
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed exercise: %v", err)
	}
	return e
}

func SeedAssignment(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID, lessonID, exerciseID uuid.UUID, order int, at time.Time) *content.ExerciseAssignment {
	tb.Helper()
	a := &content.ExerciseAssignment{
		ID:         uuid.New(),
		LessonID:   lessonID,
		ExerciseID: exerciseID,
		CourseID:   courseID,
		Order:      order,
		CreatedAt:  at,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed assignment: %v", err)
	}
	return a
}

// Tree is one fully populated course path used across package tests.
type Tree struct {
	Course     *content.Course
	Levels     []*content.Level
	Section    *content.Section
	Module     *content.Module
	Lesson     *content.Lesson
	Exercise   *content.Exercise
	Assignment *content.ExerciseAssignment
}

// SeedTree creates a course with three levels; the first level holds one
// section, module and lesson, and the lesson references one exercise. Every
// row is stamped at.
func SeedTree(tb testing.TB, ctx context.Context, tx *gorm.DB, at time.Time) *Tree {
	tb.Helper()
	t := &Tree{}
	t.Course = SeedCourse(tb, ctx, tx, "course", at)
	for i := 1; i <= 3; i++ {
		t.Levels = append(t.Levels, SeedLevel(tb, ctx, tx, t.Course.ID, i, at))
	}
	t.Section = SeedSection(tb, ctx, tx, t.Levels[0].ID, 1, at)
	t.Module = SeedModule(tb, ctx, tx, t.Section.ID, 1, at)
	t.Lesson = SeedLesson(tb, ctx, tx, t.Module.ID, 1, at)
	t.Exercise = SeedExercise(tb, ctx, tx, "2+2?", at)
	t.Assignment = SeedAssignment(tb, ctx, tx, t.Course.ID, t.Lesson.ID, t.Exercise.ID, 1, at)
	return t
}
