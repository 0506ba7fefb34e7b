package aggregates

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/curriculum-backend/internal/domain/aggregates"
)

func TestMapError_Validation(t *testing.T) {
	err := MapError("op", ValidationError("bad input"))
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_Conflict(t *testing.T) {
	err := MapError("op", ConflictError("stale"))
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_NotFound(t *testing.T) {
	err := MapError("op", gorm.ErrRecordNotFound)
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected not_found code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_PassthroughAggregateError(t *testing.T) {
	in := domainagg.NewError(domainagg.CodeRetryable, "op", "retry", errors.New("boom"))
	out := MapError("other", in)
	if out != in {
		t.Fatalf("expected passthrough aggregate error")
	}
	wrapped := fmt.Errorf("outer: %w", in)
	if got := MapError("other", wrapped); !domainagg.IsCode(got, domainagg.CodeRetryable) {
		t.Fatalf("wrapped aggregate error lost its code: %v", got)
	}
}

func TestMapError_PostgresCodes(t *testing.T) {
	cases := map[string]domainagg.ErrorCode{
		"23505": domainagg.CodeConflict,
		"40001": domainagg.CodeRetryable,
		"40P01": domainagg.CodeRetryable,
		"55P03": domainagg.CodeRetryable,
	}
	for code, want := range cases {
		err := MapError("op", fmt.Errorf("exec: %w", &pgconn.PgError{Code: code, Message: "x"}))
		if !domainagg.IsCode(err, want) {
			t.Fatalf("pg %s: want %s got %q", code, want, domainagg.CodeOf(err))
		}
	}
}

func TestMapError_SQLiteUnique(t *testing.T) {
	err := MapError("op", errors.New("UNIQUE constraint failed: level.course_id, level.sort_order"))
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict, got %q", domainagg.CodeOf(err))
	}
}

func TestMapError_ContextIsRetryable(t *testing.T) {
	if err := MapError("op", context.DeadlineExceeded); !domainagg.IsCode(err, domainagg.CodeRetryable) {
		t.Fatalf("expected retryable, got %q", domainagg.CodeOf(err))
	}
}

func TestMapError_UnknownIsInternal(t *testing.T) {
	if err := MapError("op", errors.New("disk on fire")); !domainagg.IsCode(err, domainagg.CodeInternal) {
		t.Fatalf("expected internal, got %q", domainagg.CodeOf(err))
	}
}
