package services_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/curriculum-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/curriculum-backend/internal/domain/aggregates"
	"github.com/yungbote/curriculum-backend/internal/domain/content"
)

func TestAssembleNestsTreeInOrder(t *testing.T) {
	h := newHarness(t)
	tree := h.seedTree(t)

	snap, err := h.assembler.Assemble(h.ctx, tree.Course.ID)
	require.NoError(t, err)
	require.Equal(t, tree.Course.ID, snap.Course.ID)
	require.Len(t, snap.Levels, 3)
	for i, l := range snap.Levels {
		require.Equal(t, tree.Levels[i].ID, l.ID)
		require.Equal(t, i+1, l.Order)
	}
	require.Empty(t, snap.Levels[1].Sections)
	require.NotNil(t, snap.Levels[1].Sections)

	lessons := snap.Levels[0].Sections[0].Modules[0].Lessons
	require.Len(t, lessons, 1)
	require.Equal(t, tree.Lesson.ID, lessons[0].ID)
	require.Len(t, lessons[0].ExerciseAssignments, 1)
	require.Equal(t, tree.Exercise.ID, lessons[0].ExerciseAssignments[0].Exercise.ID)
	require.Equal(t, "2+2?", lessons[0].ExerciseAssignments[0].Exercise.Prompt)
	require.True(t, snap.Version().Equal(testutil.Base))
}

func TestAssembleVersionIsSubtreeMax(t *testing.T) {
	h := newHarness(t)
	tree := h.seedTree(t)

	cases := []struct {
		name  string
		table string
		id    uuid.UUID
		at    time.Time
	}{
		{"section", "section", tree.Section.ID, testutil.Base.Add(2 * time.Second)},
		{"lesson", "lesson", tree.Lesson.ID, testutil.Base.Add(3 * time.Second)},
		{"referenced exercise", "exercise", tree.Exercise.ID, testutil.Base.Add(5 * time.Second)},
	}
	for _, tc := range cases {
		require.NoError(t, h.db.Table(tc.table).Where("id = ?", tc.id).Update("updated_at", tc.at).Error)
		snap, err := h.assembler.Assemble(h.ctx, tree.Course.ID)
		require.NoError(t, err, tc.name)
		require.True(t, snap.Version().Equal(tc.at), "%s: got %s want %s", tc.name, snap.PackageVersion, tc.at)
	}
}

func TestAssembleIgnoresUnreferencedExercise(t *testing.T) {
	h := newHarness(t)
	tree := h.seedTree(t)
	testutil.SeedExercise(t, h.ctx, h.db, "unrelated", testutil.Base.Add(time.Hour))

	snap, err := h.assembler.Assemble(h.ctx, tree.Course.ID)
	require.NoError(t, err)
	require.True(t, snap.Version().Equal(testutil.Base))
}

func TestAssembleUnknownCourse(t *testing.T) {
	h := newHarness(t)
	_, err := h.assembler.Assemble(h.ctx, uuid.New())
	require.True(t, domainagg.IsCode(err, domainagg.CodeNotFound), "got %v", err)
}

func TestAssembleRejectsDanglingAssignment(t *testing.T) {
	h := newHarness(t)
	tree := h.seedTree(t)
	require.NoError(t, h.db.Where("id = ?", tree.Exercise.ID).Delete(&content.Exercise{}).Error)

	_, err := h.assembler.Assemble(h.ctx, tree.Course.ID)
	require.True(t, domainagg.IsCode(err, domainagg.CodeInvariantViolation), "got %v", err)
}
