package testutil

import (
	"context"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/curriculum-backend/internal/domain/aggregates"
	"github.com/yungbote/curriculum-backend/internal/domain/content"
)

var _ domainagg.MutationNotifier = (*NotifierRecorder)(nil)

func (n *NotifierRecorder) OnMutation(_ context.Context, kind content.NodeKind, id uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Calls = append(n.Calls, Mutation{Kind: string(kind), ID: id.String()})
}

func (n *NotifierRecorder) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Calls)
}
