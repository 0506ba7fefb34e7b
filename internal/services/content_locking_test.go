package services_test

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/curriculum-backend/internal/data/aggregates"
	"github.com/yungbote/curriculum-backend/internal/data/cache"
	"github.com/yungbote/curriculum-backend/internal/data/repos"
	"github.com/yungbote/curriculum-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/curriculum-backend/internal/domain/aggregates"
	"github.com/yungbote/curriculum-backend/internal/domain/content"
	"github.com/yungbote/curriculum-backend/internal/platform/clock"
	"github.com/yungbote/curriculum-backend/internal/platform/dbctx"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
	"github.com/yungbote/curriculum-backend/internal/services"
)

type lockTrail struct {
	mu     sync.Mutex
	events []string
}

func (l *lockTrail) add(e string) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

// first returns the index of the first event with prefix, or -1.
func (l *lockTrail) first(prefix string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.events {
		if strings.HasPrefix(e, prefix) {
			return i
		}
	}
	return -1
}

func (l *lockTrail) reset() {
	l.mu.Lock()
	l.events = nil
	l.mu.Unlock()
}

type trailOrder struct {
	services.SiblingOrder
	trail *lockTrail
}

func (o trailOrder) LockParent(dbc dbctx.Context, kind content.NodeKind, parentID uuid.UUID) error {
	o.trail.add("lock_parent:" + string(kind))
	return o.SiblingOrder.LockParent(dbc, kind, parentID)
}

type trailLevels struct {
	repos.LevelRepo
	trail *lockTrail
}

func (r trailLevels) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	r.trail.add("delete:level")
	return r.LevelRepo.DeleteByIDs(ctx, tx, ids)
}

type trailAssignments struct {
	repos.ExerciseAssignmentRepo
	trail *lockTrail
}

func (r trailAssignments) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	r.trail.add("delete:exercise_assignment")
	return r.ExerciseAssignmentRepo.DeleteByIDs(ctx, tx, ids)
}

func (r trailAssignments) DeleteByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uuid.UUID) error {
	r.trail.add("delete:exercise_assignment")
	return r.ExerciseAssignmentRepo.DeleteByLessonIDs(ctx, tx, lessonIDs)
}

func TestDeletesLockParentBeforeRemovingChildren(t *testing.T) {
	h := newHarness(t)
	trail := &lockTrail{}
	r := h.repos
	r.Level = trailLevels{LevelRepo: r.Level, trail: trail}
	r.Assignment = trailAssignments{ExerciseAssignmentRepo: r.Assignment, trail: trail}
	order := aggregates.NewSiblingOrderAggregate(aggregates.SiblingOrderAggregateDeps{
		Base:     aggregates.BaseDeps{DB: h.db, Log: h.log, Clock: h.clock.Now},
		Siblings: r.Sibling,
		Versions: r.Version,
		Notifier: h.hub,
	})
	svc := services.NewContentService(h.db, h.log, r, trailOrder{SiblingOrder: order, trail: trail}, h.hub, h.clock.Now)

	cases := []struct {
		name string
		run  func(tree *testutil.Tree) error
	}{
		{"level", func(tree *testutil.Tree) error { return svc.Delete(h.ctx, content.KindLevel, tree.Levels[0].ID) }},
		{"assignment", func(tree *testutil.Tree) error {
			return svc.Delete(h.ctx, content.KindExerciseAssignment, tree.Assignment.ID)
		}},
		{"exercise", func(tree *testutil.Tree) error { return svc.Delete(h.ctx, content.KindExercise, tree.Exercise.ID) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			trail.reset()
			tree := h.seedTree(t)
			require.NoError(t, tc.run(tree))

			lock, del := trail.first("lock_parent:"), trail.first("delete:")
			require.GreaterOrEqual(t, lock, 0, "no parent lock: %v", trail.events)
			require.GreaterOrEqual(t, del, 0, "no delete: %v", trail.events)
			require.Less(t, lock, del, "child deleted before parent lock: %v", trail.events)
		})
	}
}

// Reorders and deletes under one lesson take their locks in the same order,
// so running them together never surfaces a deadlock.
func TestReorderAndDeleteSameParentPostgres(t *testing.T) {
	db := testutil.PostgresContainer(t)
	ctx := context.Background()
	log := logger.NewNop()

	tree := testutil.SeedTree(t, ctx, db, testutil.Base)
	for i := 2; i <= 8; i++ {
		ex := testutil.SeedExercise(t, ctx, db, "ex", testutil.Base)
		testutil.SeedAssignment(t, ctx, db, tree.Course.ID, tree.Lesson.ID, ex.ID, i, testutil.Base)
	}

	r := repos.NewContent(db, log)
	resolver := services.NewHierarchyResolver(db, log, r.Assignment)
	hub := services.NewInvalidationHub(log, resolver, cache.NewMemory(0, clock.System), nil)
	order := aggregates.NewSiblingOrderAggregate(aggregates.SiblingOrderAggregateDeps{
		Base:     aggregates.BaseDeps{DB: db, Log: log},
		Siblings: r.Sibling,
		Versions: r.Version,
		Notifier: hub,
	})
	svc := services.NewContentService(db, log, r, order, hub, clock.System)

	current := func() ([]uuid.UUID, error) {
		rows, err := r.Assignment.GetByLessonIDs(ctx, nil, []uuid.UUID{tree.Lesson.ID})
		if err != nil {
			return nil, err
		}
		ids := make([]uuid.UUID, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ID)
		}
		return ids, nil
	}
	all, err := current()
	require.NoError(t, err)
	victims := all[:4]

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < 5; i++ {
				ids, err := current()
				if err != nil {
					errs <- err
					return
				}
				rng.Shuffle(len(ids), func(a, b int) { ids[a], ids[b] = ids[b], ids[a] })
				_, err = svc.Reorder(ctx, domainagg.ReorderInput{
					ChildKind:  content.KindExerciseAssignment,
					ParentID:   tree.Lesson.ID,
					OrderedIDs: ids,
				})
				// A delete landing between the read and the reorder is a stale list.
				if err != nil && !domainagg.IsCode(err, domainagg.CodeValidation) {
					errs <- err
				}
			}
		}(int64(w))
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, id := range victims {
			if err := svc.Delete(ctx, content.KindExerciseAssignment, id); err != nil {
				errs <- err
			}
		}
	}()
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent write failed: %v", err)
	}

	rows, err := r.Assignment.GetByLessonIDs(ctx, nil, []uuid.UUID{tree.Lesson.ID})
	require.NoError(t, err)
	require.Len(t, rows, 4)
	orders := make([]int, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, row.Order)
	}
	require.ElementsMatch(t, []int{1, 2, 3, 4}, orders)
}
