package content

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/curriculum-backend/internal/data/repos/testutil"
	"github.com/yungbote/curriculum-backend/internal/domain/content"
)

func TestSiblingRepo(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewSiblingRepo(db, testutil.Logger(t))

	tree := testutil.SeedTree(t, ctx, db, testutil.Base)
	scope, _ := content.ScopeFor(content.KindLevel)

	ok, err := repo.LockParent(ctx, db, scope, tree.Course.ID)
	if err != nil || !ok {
		t.Fatalf("LockParent existing: ok=%v err=%v", ok, err)
	}
	ok, err = repo.LockParent(ctx, db, scope, uuid.New())
	if err != nil || ok {
		t.Fatalf("LockParent missing: ok=%v err=%v", ok, err)
	}

	rows, err := repo.ListChildren(ctx, db, scope, tree.Course.ID)
	if err != nil || len(rows) != 3 {
		t.Fatalf("ListChildren: err=%v len=%d", err, len(rows))
	}
	for i, row := range rows {
		if row.Order != i+1 || row.ID != tree.Levels[i].ID {
			t.Fatalf("row %d: %+v", i, row)
		}
	}

	max, err := repo.MaxOrder(ctx, db, scope, tree.Course.ID)
	if err != nil || max != 3 {
		t.Fatalf("MaxOrder: max=%d err=%v", max, err)
	}
	max, err = repo.MaxOrder(ctx, db, scope, uuid.New())
	if err != nil || max != 0 {
		t.Fatalf("MaxOrder empty parent: max=%d err=%v", max, err)
	}

	stamp := testutil.Base.Add(time.Minute)
	if err := repo.SetOrder(ctx, db, scope, tree.Levels[0].ID, -1, &stamp); err != nil {
		t.Fatalf("SetOrder: %v", err)
	}
	var lvl content.Level
	if err := db.First(&lvl, "id = ?", tree.Levels[0].ID).Error; err != nil {
		t.Fatalf("reload level: %v", err)
	}
	if lvl.Order != -1 || !lvl.UpdatedAt.Equal(stamp) {
		t.Fatalf("SetOrder did not apply: %+v", lvl)
	}
	if err := repo.SetOrder(ctx, db, scope, uuid.New(), 1, nil); err == nil {
		t.Fatalf("SetOrder on unknown row should fail")
	}

	later := stamp.Add(time.Minute)
	if err := repo.Touch(ctx, db, content.KindCourse, []uuid.UUID{tree.Course.ID}, later); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	var course content.Course
	if err := db.First(&course, "id = ?", tree.Course.ID).Error; err != nil {
		t.Fatalf("reload course: %v", err)
	}
	if !course.UpdatedAt.Equal(later) {
		t.Fatalf("Touch: updated_at=%v want %v", course.UpdatedAt, later)
	}
	if err := repo.Touch(ctx, db, content.KindExerciseAssignment, []uuid.UUID{tree.Assignment.ID}, later); err == nil {
		t.Fatalf("Touch on assignments should fail")
	}
}

func TestAssignmentScopeDoesNotStampRows(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewSiblingRepo(db, testutil.Logger(t))
	tree := testutil.SeedTree(t, ctx, db, testutil.Base)

	scope, _ := content.ScopeFor(content.KindExerciseAssignment)
	stamp := testutil.Base.Add(time.Hour)
	if err := repo.SetOrder(ctx, db, scope, tree.Assignment.ID, 5, &stamp); err != nil {
		t.Fatalf("SetOrder: %v", err)
	}
	rows, err := repo.ListChildren(ctx, db, scope, tree.Lesson.ID)
	if err != nil || len(rows) != 1 || rows[0].Order != 5 {
		t.Fatalf("ListChildren: rows=%+v err=%v", rows, err)
	}
}
