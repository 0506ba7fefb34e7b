package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/curriculum-backend/internal/domain/content"
)

var SiblingOrderAggregateContract = Contract{
	Name:             "Content.SiblingOrderAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	Notes:            "Owns the dense 1..N sort_order of every child collection; full rewrites run as a two-phase update in one transaction.",
}

// SiblingOrderAggregate owns sibling order invariants.
//
// Write method failures should return *aggregates.Error with codes:
// CodeValidation (with *OrderMismatch cause), CodeNotFound, CodeConflict, CodeRetryable, CodeInternal.
type SiblingOrderAggregate interface {
	Aggregate

	// Reorder rewrites every child's order to its position in OrderedIDs. The
	// list must be a permutation of the parent's current children; otherwise
	// nothing is written.
	Reorder(ctx context.Context, in ReorderInput) (ReorderResult, error)
}

// MutationNotifier is told about committed writes so derived state (the
// packaged course cache) can be evicted.
type MutationNotifier interface {
	OnMutation(ctx context.Context, kind content.NodeKind, id uuid.UUID)
}

type ReorderInput struct {
	// ChildKind selects the collection: levels, sections, modules, lessons or exercise assignments.
	ChildKind  content.NodeKind
	ParentID   uuid.UUID
	OrderedIDs []uuid.UUID
	// At stamps updated_at on rows whose order changes. Zero means now.
	At time.Time
}

type OrderedChild struct {
	ID    uuid.UUID `json:"id"`
	Order int       `json:"order"`
}

type ReorderResult struct {
	ChildKind content.NodeKind `json:"kind"`
	ParentID  uuid.UUID        `json:"parent_id"`
	Children  []OrderedChild   `json:"children"`
	// Moved counts children whose order actually changed.
	Moved int `json:"moved"`
}
