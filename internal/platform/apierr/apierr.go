package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	domainagg "github.com/yungbote/curriculum-backend/internal/domain/aggregates"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// FromError maps aggregate error codes onto HTTP statuses. Errors without a
// code are internal.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return New(http.StatusGatewayTimeout, "timeout", err)
	}
	switch code := domainagg.CodeOf(err); code {
	case domainagg.CodeValidation:
		return New(http.StatusBadRequest, string(code), err)
	case domainagg.CodeNotFound:
		return New(http.StatusNotFound, string(code), err)
	case domainagg.CodeConflict:
		return New(http.StatusConflict, string(code), err)
	case domainagg.CodeRetryable, domainagg.CodeInvariantViolation, domainagg.CodeInternal:
		return New(http.StatusInternalServerError, string(code), err)
	}
	return New(http.StatusInternalServerError, string(domainagg.CodeInternal), err)
}
