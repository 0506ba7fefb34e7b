package services_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/curriculum-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/curriculum-backend/internal/domain/aggregates"
	"github.com/yungbote/curriculum-backend/internal/domain/content"
)

func TestFindOwningCourse(t *testing.T) {
	h := newHarness(t)
	tree := h.seedTree(t)

	nodes := []struct {
		kind content.NodeKind
		id   uuid.UUID
	}{
		{content.KindCourse, tree.Course.ID},
		{content.KindLevel, tree.Levels[2].ID},
		{content.KindSection, tree.Section.ID},
		{content.KindModule, tree.Module.ID},
		{content.KindLesson, tree.Lesson.ID},
		{content.KindExerciseAssignment, tree.Assignment.ID},
	}
	for _, n := range nodes {
		got, err := h.resolver.FindOwningCourse(h.ctx, n.kind, n.id)
		require.NoError(t, err, n.kind)
		require.Equal(t, tree.Course.ID, got, n.kind)
	}
}

func TestFindOwningCourseErrors(t *testing.T) {
	h := newHarness(t)
	tree := h.seedTree(t)

	_, err := h.resolver.FindOwningCourse(h.ctx, content.KindLesson, uuid.New())
	require.True(t, domainagg.IsCode(err, domainagg.CodeNotFound), "got %v", err)

	_, err = h.resolver.FindOwningCourse(h.ctx, content.KindExercise, tree.Exercise.ID)
	require.True(t, domainagg.IsCode(err, domainagg.CodeValidation), "got %v", err)

	// An orphaned module resolves to a course that no longer exists.
	require.NoError(t, h.db.Where("id = ?", tree.Course.ID).Delete(&content.Course{}).Error)
	_, err = h.resolver.FindOwningCourse(h.ctx, content.KindModule, tree.Module.ID)
	require.True(t, domainagg.IsCode(err, domainagg.CodeNotFound), "got %v", err)
}

func TestCoursesReferencingExercise(t *testing.T) {
	h := newHarness(t)
	a := h.seedTree(t)
	b := h.seedTree(t)
	testutil.SeedAssignment(t, h.ctx, h.db, b.Course.ID, b.Lesson.ID, a.Exercise.ID, 2, testutil.Base)

	ids, err := h.resolver.CoursesReferencingExercise(h.ctx, a.Exercise.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []uuid.UUID{a.Course.ID, b.Course.ID}, ids)

	ids, err = h.resolver.CoursesReferencingExercise(h.ctx, uuid.New())
	require.NoError(t, err)
	require.Empty(t, ids)
}
