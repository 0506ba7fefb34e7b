package aggregates

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/curriculum-backend/internal/data/repos"
	domainagg "github.com/yungbote/curriculum-backend/internal/domain/aggregates"
	"github.com/yungbote/curriculum-backend/internal/domain/content"
	"github.com/yungbote/curriculum-backend/internal/platform/dbctx"
)

type SiblingOrderAggregateDeps struct {
	Base     BaseDeps
	Siblings repos.SiblingRepo
	Versions repos.VersionRepo
	Notifier domainagg.MutationNotifier
}

type SiblingOrderAggregate struct {
	deps     BaseDeps
	siblings repos.SiblingRepo
	fence    *VersionFence
	notifier domainagg.MutationNotifier
}

var _ domainagg.SiblingOrderAggregate = (*SiblingOrderAggregate)(nil)

func NewSiblingOrderAggregate(deps SiblingOrderAggregateDeps) *SiblingOrderAggregate {
	base := deps.Base.withDefaults()
	return &SiblingOrderAggregate{
		deps:     base,
		siblings: deps.Siblings,
		fence:    NewVersionFence(deps.Versions),
		notifier: deps.Notifier,
	}
}

func (a *SiblingOrderAggregate) Contract() domainagg.Contract {
	return domainagg.SiblingOrderAggregateContract
}

func (a *SiblingOrderAggregate) Reorder(ctx context.Context, in domainagg.ReorderInput) (domainagg.ReorderResult, error) {
	const op = "content.sibling_order.reorder"
	start := time.Now()

	scope, dup, err := a.validate(op, in)
	if err != nil {
		a.deps.Hooks.ObserveOperation(op, aggregateErrorStatus(err), time.Since(start))
		return domainagg.ReorderResult{}, err
	}
	at := in.At
	if at.IsZero() {
		at = a.deps.Clock.Now()
	}

	var out domainagg.ReorderResult
	err = executeWrite(ctx, a.deps, op, func(dbc dbctx.Context) error {
		res, err := a.reorderTx(dbc, op, scope, in.ParentID, in.OrderedIDs, dup, at)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		a.deps.Log.Debug("reorder rejected",
			"kind", scope.Kind,
			"parent_id", in.ParentID,
			"code", domainagg.CodeOf(err),
			"error", err,
		)
		return domainagg.ReorderResult{}, err
	}

	if out.Moved > 0 && a.notifier != nil {
		a.notifier.OnMutation(ctx, scope.ParentKind, in.ParentID)
	}
	return out, nil
}

// validate runs the checks that need no store access and collects duplicated
// ids, which are reported together with the membership diff.
func (a *SiblingOrderAggregate) validate(op string, in domainagg.ReorderInput) (content.Scope, []string, error) {
	scope, ok := content.ScopeFor(in.ChildKind)
	if !ok {
		return content.Scope{}, nil, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("%q has no sibling order", in.ChildKind), nil)
	}
	if in.ParentID == uuid.Nil {
		return content.Scope{}, nil, domainagg.NewError(domainagg.CodeValidation, op, "parent id is required", nil)
	}
	return scope, duplicateIDs(in.OrderedIDs), nil
}

func (a *SiblingOrderAggregate) reorderTx(dbc dbctx.Context, op string, scope content.Scope, parentID uuid.UUID, ids []uuid.UUID, dup []string, at time.Time) (domainagg.ReorderResult, error) {
	courseID, err := a.fence.CourseOf(dbc, op, scope.ParentKind, parentID)
	if err != nil {
		return domainagg.ReorderResult{}, err
	}
	if at, err = a.fence.Stamp(dbc, op, []uuid.UUID{courseID}, at); err != nil {
		return domainagg.ReorderResult{}, err
	}
	if err := a.lockParent(dbc, op, scope, parentID); err != nil {
		return domainagg.ReorderResult{}, err
	}
	current, err := a.siblings.ListChildren(dbc.Ctx, dbc.Tx, scope, parentID)
	if err != nil {
		return domainagg.ReorderResult{}, err
	}
	m := compareMembers(current, ids)
	m.Duplicate = dup
	if !m.Empty() {
		return domainagg.ReorderResult{}, mismatchError(op, m)
	}

	moved, err := a.rewrite(dbc, scope, parentID, current, ids, at)
	if err != nil {
		return domainagg.ReorderResult{}, err
	}

	res := domainagg.ReorderResult{
		ChildKind: scope.Kind,
		ParentID:  parentID,
		Children:  make([]domainagg.OrderedChild, 0, len(ids)),
		Moved:     moved,
	}
	for i, id := range ids {
		res.Children = append(res.Children, domainagg.OrderedChild{ID: id, Order: i + 1})
	}
	return res, nil
}

// NextPosition locks the parent and returns the order a new last child gets.
// It runs inside the caller's transaction.
func (a *SiblingOrderAggregate) NextPosition(dbc dbctx.Context, kind content.NodeKind, parentID uuid.UUID) (int, error) {
	const op = "content.sibling_order.next_position"
	scope, ok := content.ScopeFor(kind)
	if !ok {
		return 0, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("%q has no sibling order", kind), nil)
	}
	if err := a.lockParent(dbc, op, scope, parentID); err != nil {
		return 0, err
	}
	max, err := a.siblings.MaxOrder(dbc.Ctx, dbc.Tx, scope, parentID)
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// Compact renumbers the parent's remaining children to 1..N keeping their
// relative order, e.g. after a delete left a gap. It runs inside the caller's
// transaction and returns how many children moved.
func (a *SiblingOrderAggregate) Compact(dbc dbctx.Context, kind content.NodeKind, parentID uuid.UUID, at time.Time) (int, error) {
	const op = "content.sibling_order.compact"
	scope, ok := content.ScopeFor(kind)
	if !ok {
		return 0, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("%q has no sibling order", kind), nil)
	}
	if err := a.lockParent(dbc, op, scope, parentID); err != nil {
		return 0, err
	}
	current, err := a.siblings.ListChildren(dbc.Ctx, dbc.Tx, scope, parentID)
	if err != nil {
		return 0, err
	}
	ids := make([]uuid.UUID, 0, len(current))
	dense := true
	for i, row := range current {
		ids = append(ids, row.ID)
		if row.Order != i+1 {
			dense = false
		}
	}
	if dense {
		return 0, nil
	}
	return a.rewrite(dbc, scope, parentID, current, ids, at)
}

// LockParent takes the parent row lock for a child collection. Writes that
// delete children call it before touching any child row.
func (a *SiblingOrderAggregate) LockParent(dbc dbctx.Context, kind content.NodeKind, parentID uuid.UUID) error {
	const op = "content.sibling_order.lock_parent"
	scope, ok := content.ScopeFor(kind)
	if !ok {
		return domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("%q has no sibling order", kind), nil)
	}
	return a.lockParent(dbc, op, scope, parentID)
}

func (a *SiblingOrderAggregate) lockParent(dbc dbctx.Context, op string, scope content.Scope, parentID uuid.UUID) error {
	found, err := a.siblings.LockParent(dbc.Ctx, dbc.Tx, scope, parentID)
	if err != nil {
		return err
	}
	if !found {
		return domainagg.NotFound(op, string(scope.ParentKind), parentID.String())
	}
	return nil
}

// rewrite applies target in two phases. Phase 1 parks every child on
// -(target position), which can never collide with a live positive order;
// phase 2 writes the final 1..N. Rows whose order changed get at as
// updated_at; scopes without a timestamp stamp their parent instead.
func (a *SiblingOrderAggregate) rewrite(dbc dbctx.Context, scope content.Scope, parentID uuid.UUID, current []repos.SiblingRow, target []uuid.UUID, at time.Time) (int, error) {
	before := make(map[uuid.UUID]int, len(current))
	for _, row := range current {
		before[row.ID] = row.Order
	}

	for i, id := range target {
		if err := a.siblings.SetOrder(dbc.Ctx, dbc.Tx, scope, id, -(i + 1), nil); err != nil {
			return 0, fmt.Errorf("park %s %s: %w", scope.Kind, id, err)
		}
	}

	moved := 0
	for i, id := range target {
		var stamp *time.Time
		if before[id] != i+1 {
			stamp = &at
			moved++
		}
		if err := a.siblings.SetOrder(dbc.Ctx, dbc.Tx, scope, id, i+1, stamp); err != nil {
			return 0, fmt.Errorf("place %s %s: %w", scope.Kind, id, err)
		}
	}

	if moved > 0 && !scope.Timestamped {
		if err := a.siblings.Touch(dbc.Ctx, dbc.Tx, scope.ParentKind, []uuid.UUID{parentID}, at); err != nil {
			return 0, err
		}
	}
	return moved, nil
}

func duplicateIDs(ids []uuid.UUID) []string {
	seen := make(map[uuid.UUID]int, len(ids))
	var dup []string
	for _, id := range ids {
		seen[id]++
		if seen[id] == 2 {
			dup = append(dup, id.String())
		}
	}
	return dup
}

func compareMembers(current []repos.SiblingRow, ids []uuid.UUID) *domainagg.OrderMismatch {
	want := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	have := make(map[uuid.UUID]struct{}, len(current))
	m := &domainagg.OrderMismatch{}
	for _, row := range current {
		have[row.ID] = struct{}{}
		if _, ok := want[row.ID]; !ok {
			m.Missing = append(m.Missing, row.ID.String())
		}
	}
	for _, id := range ids {
		if _, ok := have[id]; !ok {
			m.Extra = append(m.Extra, id.String())
		}
	}
	return m
}
