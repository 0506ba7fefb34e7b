package testutil

import (
	"sync"
	"time"

	"github.com/yungbote/curriculum-backend/internal/data/aggregates"
)

// HooksRecorder captures aggregate hook signals in tests.
type HooksRecorder struct {
	mu sync.Mutex

	Operations []OperationEvent
	Conflicts  []string
	Retries    []string
}

type OperationEvent struct {
	Name     string
	Status   string
	Duration time.Duration
}

var _ aggregates.Hooks = (*HooksRecorder)(nil)

func (h *HooksRecorder) ObserveOperation(name, status string, dur time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Operations = append(h.Operations, OperationEvent{
		Name:     name,
		Status:   status,
		Duration: dur,
	})
}

func (h *HooksRecorder) IncConflict(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Conflicts = append(h.Conflicts, name)
}

func (h *HooksRecorder) IncRetry(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Retries = append(h.Retries, name)
}

// Statuses returns the recorded statuses for name in call order.
func (h *HooksRecorder) Statuses(name string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, op := range h.Operations {
		if op.Name == name {
			out = append(out, op.Status)
		}
	}
	return out
}

// NotifierRecorder records MutationNotifier calls.
type NotifierRecorder struct {
	mu    sync.Mutex
	Calls []Mutation
}

type Mutation struct {
	Kind string
	ID   string
}
