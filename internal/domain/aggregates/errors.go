package aggregates

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode standardizes aggregate failure semantics across the content hierarchy.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "validation"
	CodeNotFound           ErrorCode = "not_found"
	CodeConflict           ErrorCode = "conflict"
	CodeInvariantViolation ErrorCode = "invariant_violation"
	CodeRetryable          ErrorCode = "retryable"
	CodeInternal           ErrorCode = "internal"
	// CodeCacheInvalidation marks a failed package eviction. These are logged,
	// never returned to callers of a write.
	CodeCacheInvalidation ErrorCode = "cache_invalidation"
)

// Error is the canonical aggregate error wrapper.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds an aggregate error with explicit code + operation.
func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Wrap annotates an existing error with aggregate error semantics.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

// IsCode checks whether err (or wrapped err) carries the given aggregate code.
func IsCode(err error, code ErrorCode) bool {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return false
	}
	return aggErr.Code == code
}

// CodeOf extracts the aggregate error code when available.
func CodeOf(err error) ErrorCode {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return ""
	}
	return aggErr.Code
}

// NotFound builds a CodeNotFound error for a missing node.
func NotFound(op, kind, id string) error {
	return NewError(CodeNotFound, op, fmt.Sprintf("%s %s not found", kind, id), nil)
}

// OrderMismatch describes why a submitted sibling order is not a permutation of
// the parent's current children. It travels as the Cause of a CodeValidation error.
type OrderMismatch struct {
	Missing   []string `json:"missing,omitempty"`
	Extra     []string `json:"extra,omitempty"`
	Duplicate []string `json:"duplicate,omitempty"`
	Invalid   []string `json:"invalid,omitempty"`
}

func (m *OrderMismatch) Empty() bool {
	return m == nil || len(m.Missing)+len(m.Extra)+len(m.Duplicate)+len(m.Invalid) == 0
}

func (m *OrderMismatch) Error() string {
	if m.Empty() {
		return "order list matches children"
	}
	parts := make([]string, 0, 4)
	add := func(label string, ids []string) {
		if len(ids) == 0 {
			return
		}
		sorted := append([]string(nil), ids...)
		sort.Strings(sorted)
		parts = append(parts, fmt.Sprintf("%s=[%s]", label, strings.Join(sorted, ",")))
	}
	add("missing", m.Missing)
	add("extra", m.Extra)
	add("duplicate", m.Duplicate)
	add("invalid", m.Invalid)
	return "order list is not a permutation of current children: " + strings.Join(parts, " ")
}

// MismatchOf extracts order mismatch details from err, if any.
func MismatchOf(err error) (*OrderMismatch, bool) {
	var m *OrderMismatch
	if errors.As(err, &m) && m != nil {
		return m, true
	}
	return nil, false
}
