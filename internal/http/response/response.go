package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/curriculum-backend/internal/domain/aggregates"
	"github.com/yungbote/curriculum-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	apiErr := APIError{Message: msg, Code: code}
	if m, ok := domainagg.MismatchOf(err); ok {
		apiErr.Details = m
	}
	c.JSON(status, ErrorEnvelope{Error: apiErr})
}

// RespondErrorFrom renders err with the status its code maps to and returns
// that status.
func RespondErrorFrom(c *gin.Context, err error) int {
	ae := apierr.FromError(err)
	RespondError(c, ae.Status, ae.Code, err)
	return ae.Status
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
