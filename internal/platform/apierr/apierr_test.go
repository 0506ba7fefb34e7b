package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	domainagg "github.com/yungbote/curriculum-backend/internal/domain/aggregates"
)

func TestFromError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domainagg.NewError(domainagg.CodeValidation, "op", "bad", nil), http.StatusBadRequest, "validation"},
		{domainagg.NotFound("op", "course", "x"), http.StatusNotFound, "not_found"},
		{domainagg.NewError(domainagg.CodeConflict, "op", "dup", nil), http.StatusConflict, "conflict"},
		{domainagg.NewError(domainagg.CodeRetryable, "op", "serialization", nil), http.StatusInternalServerError, "retryable"},
		{fmt.Errorf("wrapped: %w", domainagg.NotFound("op", "level", "y")), http.StatusNotFound, "not_found"},
		{domainagg.Wrap(domainagg.CodeRetryable, "op", context.DeadlineExceeded), http.StatusGatewayTimeout, "timeout"},
		{New(http.StatusTeapot, "teapot", nil), http.StatusTeapot, "teapot"},
		{errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		got := FromError(tc.err)
		if got.Status != tc.status || got.Code != tc.code {
			t.Fatalf("%v: got %d/%s want %d/%s", tc.err, got.Status, got.Code, tc.status, tc.code)
		}
	}
	if FromError(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}
