package aggregates_test

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/curriculum-backend/internal/data/aggregates"
	"github.com/yungbote/curriculum-backend/internal/data/repos"
	"github.com/yungbote/curriculum-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/curriculum-backend/internal/domain/aggregates"
	"github.com/yungbote/curriculum-backend/internal/domain/content"
)

// Concurrent full rewrites of one parent serialize on the parent row lock:
// every call succeeds and the final state is one of the submitted permutations.
func TestReorderConcurrentSameParentPostgres(t *testing.T) {
	db := testutil.PostgresContainer(t)
	ctx := context.Background()
	log := testutil.Logger(t)

	course := testutil.SeedCourse(t, ctx, db, "concurrent", testutil.Base)
	var ids []uuid.UUID
	for i := 1; i <= 5; i++ {
		ids = append(ids, testutil.SeedLevel(t, ctx, db, course.ID, i, testutil.Base).ID)
	}
	t.Cleanup(func() {
		db.Where("course_id = ?", course.ID).Delete(&content.Level{})
		db.Where("id = ?", course.ID).Delete(&content.Course{})
	})

	agg := aggregates.NewSiblingOrderAggregate(aggregates.SiblingOrderAggregateDeps{
		Base:     aggregates.BaseDeps{DB: db, Log: log},
		Siblings: repos.NewContent(db, log).Sibling,
		Versions: repos.NewContent(db, log).Version,
	})

	const workers = 8
	perms := make([][]uuid.UUID, workers)
	rng := rand.New(rand.NewSource(42))
	for i := range perms {
		p := append([]uuid.UUID(nil), ids...)
		rng.Shuffle(len(p), func(a, b int) { p[a], p[b] = p[b], p[a] })
		perms[i] = p
	}

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(p []uuid.UUID) {
			defer wg.Done()
			_, err := agg.Reorder(ctx, domainagg.ReorderInput{
				ChildKind:  content.KindLevel,
				ParentID:   course.ID,
				OrderedIDs: p,
			})
			errs <- err
		}(perms[i])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent Reorder: %v", err)
		}
	}

	var rows []content.Level
	if err := db.Where("course_id = ?", course.ID).Order("sort_order ASC").Find(&rows).Error; err != nil {
		t.Fatalf("load levels: %v", err)
	}
	if len(rows) != len(ids) {
		t.Fatalf("want %d levels, got %d", len(ids), len(rows))
	}
	matched := false
	for _, p := range perms {
		ok := true
		for i, row := range rows {
			if row.Order != i+1 || row.ID != p[i] {
				ok = false
				break
			}
		}
		if ok {
			matched = true
			break
		}
	}
	if !matched {
		t.Fatalf("final order is not any submitted permutation")
	}
}
