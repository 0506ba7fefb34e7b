package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/curriculum-backend/internal/http/response"
	"github.com/yungbote/curriculum-backend/internal/platform/ctxutil"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid", fmt.Errorf("invalid %s %q", name, raw))
		return uuid.Nil, false
	}
	return id, true
}

// fail renders err and logs it when it is a server-side failure.
func fail(c *gin.Context, log *logger.Logger, msg string, err error, kv ...interface{}) {
	status := response.RespondErrorFrom(c, err)
	if status >= http.StatusInternalServerError {
		fields := append(ctxutil.LogFields(c.Request.Context()), kv...)
		log.Error(msg, append(fields, "error", err)...)
	}
}
