package content

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/curriculum-backend/internal/data/repos/testutil"
)

func TestLevelRepoOrdersByParentThenPosition(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewLevelRepo(db, testutil.Logger(t))

	a := testutil.SeedCourse(t, ctx, db, "a", testutil.Base)
	b := testutil.SeedCourse(t, ctx, db, "b", testutil.Base)
	testutil.SeedLevel(t, ctx, db, a.ID, 2, testutil.Base)
	testutil.SeedLevel(t, ctx, db, a.ID, 1, testutil.Base)
	testutil.SeedLevel(t, ctx, db, b.ID, 1, testutil.Base)

	rows, err := repo.GetByCourseIDs(ctx, db, []uuid.UUID{a.ID})
	if err != nil || len(rows) != 2 {
		t.Fatalf("GetByCourseIDs: err=%v len=%d", err, len(rows))
	}
	if rows[0].Order != 1 || rows[1].Order != 2 {
		t.Fatalf("unexpected order: %d,%d", rows[0].Order, rows[1].Order)
	}
	if rows, err := repo.GetByCourseIDs(ctx, db, nil); err != nil || len(rows) != 0 {
		t.Fatalf("GetByCourseIDs(nil): err=%v len=%d", err, len(rows))
	}
}

func TestLevelRepoRejectsDuplicatePosition(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewLevelRepo(db, testutil.Logger(t))

	c := testutil.SeedCourse(t, ctx, db, "c", testutil.Base)
	testutil.SeedLevel(t, ctx, db, c.ID, 1, testutil.Base)
	dup := testutil.SeedLevel(t, ctx, db, c.ID, 2, testutil.Base)
	dup.ID = uuid.New()
	if _, err := repo.Create(ctx, db, dup); err == nil {
		t.Fatalf("expected unique violation on (course_id, sort_order)")
	}
}

func TestCourseRepoUpdateAndDelete(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewCourseRepo(db, testutil.Logger(t))

	c := testutil.SeedCourse(t, ctx, db, "before", testutil.Base)
	if err := repo.UpdateFields(ctx, db, c.ID, map[string]interface{}{"title": "after"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, err := repo.GetByID(ctx, db, c.ID)
	if err != nil || got.Title != "after" {
		t.Fatalf("GetByID: %+v err=%v", got, err)
	}
	if err := repo.UpdateFields(ctx, db, uuid.New(), map[string]interface{}{"title": "x"}); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("UpdateFields missing: want ErrRecordNotFound, got %v", err)
	}
	if err := repo.DeleteByIDs(ctx, db, []uuid.UUID{c.ID}); err != nil {
		t.Fatalf("DeleteByIDs: %v", err)
	}
	if _, err := repo.GetByID(ctx, db, c.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("GetByID after delete: %v", err)
	}
}

func TestExerciseAssignmentRepoReverseIndex(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewExerciseAssignmentRepo(db, testutil.Logger(t))

	first := testutil.SeedTree(t, ctx, db, testutil.Base)
	second := testutil.SeedTree(t, ctx, db, testutil.Base)
	// second course also references the first tree's exercise, twice.
	testutil.SeedAssignment(t, ctx, db, second.Course.ID, second.Lesson.ID, first.Exercise.ID, 2, testutil.Base)
	testutil.SeedAssignment(t, ctx, db, second.Course.ID, second.Lesson.ID, first.Exercise.ID, 3, testutil.Base)

	ids, err := repo.CourseIDsByExercise(ctx, db, first.Exercise.ID)
	if err != nil {
		t.Fatalf("CourseIDsByExercise: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("want 2 distinct courses, got %v", ids)
	}
	seen := map[uuid.UUID]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if !seen[first.Course.ID] || !seen[second.Course.ID] {
		t.Fatalf("unexpected courses %v", ids)
	}

	rows, err := repo.GetByLessonIDs(ctx, db, []uuid.UUID{second.Lesson.ID})
	if err != nil || len(rows) != 3 {
		t.Fatalf("GetByLessonIDs: err=%v len=%d", err, len(rows))
	}
	if err := repo.DeleteByLessonIDs(ctx, db, []uuid.UUID{second.Lesson.ID}); err != nil {
		t.Fatalf("DeleteByLessonIDs: %v", err)
	}
	ids, err = repo.CourseIDsByExercise(ctx, db, first.Exercise.ID)
	if err != nil || len(ids) != 1 || ids[0] != first.Course.ID {
		t.Fatalf("after delete: ids=%v err=%v", ids, err)
	}
}
