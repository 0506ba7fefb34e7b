package aggregates

import (
	"strings"
	"time"

	domainagg "github.com/yungbote/curriculum-backend/internal/domain/aggregates"
	"github.com/yungbote/curriculum-backend/internal/observability"
)

// Hooks captures aggregate-level observability events.
//
// Operation names follow "content.<component>.<verb>", e.g.
// "content.sibling_order.reorder" or "content.sibling_order.compact". Status
// is "success" or the domain error code the write failed with.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
	IncRetry(name string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncRetry(string)                                {}

type observabilityHooks struct {
	metrics *observability.Metrics
}

// NewObservabilityHooks creates aggregate hooks backed by observability metrics.
func NewObservabilityHooks(metrics *observability.Metrics) Hooks {
	if metrics == nil {
		return noopHooks{}
	}
	return &observabilityHooks{metrics: metrics}
}

func (h *observabilityHooks) ObserveOperation(name, status string, dur time.Duration) {
	if h == nil || h.metrics == nil {
		return
	}
	h.metrics.ObserveAggregateOperation(operationLabel(name), statusLabel(status), dur)
}

func (h *observabilityHooks) IncConflict(name string) {
	if h == nil || h.metrics == nil {
		return
	}
	h.metrics.IncAggregateConflict(operationLabel(name))
}

func (h *observabilityHooks) IncRetry(name string) {
	if h == nil || h.metrics == nil {
		return
	}
	h.metrics.IncAggregateRetry(operationLabel(name))
}

var knownStatuses = map[string]struct{}{
	"success":                                {},
	string(domainagg.CodeValidation):         {},
	string(domainagg.CodeNotFound):           {},
	string(domainagg.CodeConflict):           {},
	string(domainagg.CodeRetryable):          {},
	string(domainagg.CodeInvariantViolation): {},
	string(domainagg.CodeInternal):           {},
}

func operationLabel(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "aggregate.write"
	}
	return name
}

// statusLabel keeps the status label to the fixed code set.
func statusLabel(status string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	if _, ok := knownStatuses[status]; ok {
		return status
	}
	return "failure"
}
