package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/yungbote/curriculum-backend/internal/domain/aggregates"
	"github.com/yungbote/curriculum-backend/internal/domain/content"
	"github.com/yungbote/curriculum-backend/internal/http/response"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
	"github.com/yungbote/curriculum-backend/internal/services"
)

type ReorderHandler struct {
	log     *logger.Logger
	content services.ContentService
}

func NewReorderHandler(log *logger.Logger, svc services.ContentService) *ReorderHandler {
	return &ReorderHandler{
		log:     log.With("handler", "ReorderHandler"),
		content: svc,
	}
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

// Reorder returns the handler that rewrites the order of child kind under
// the parent named by :id.
func (h *ReorderHandler) Reorder(kind content.NodeKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		parentID, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req reorderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid", err)
			return
		}
		if req.IDs == nil {
			response.RespondError(c, http.StatusBadRequest, "invalid", errors.New("ids is required"))
			return
		}

		ids := make([]uuid.UUID, 0, len(req.IDs))
		var invalid []string
		for _, raw := range req.IDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				invalid = append(invalid, raw)
				continue
			}
			ids = append(ids, id)
		}
		if len(invalid) > 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid", &domainagg.OrderMismatch{Invalid: invalid})
			return
		}

		res, err := h.content.Reorder(c.Request.Context(), domainagg.ReorderInput{
			ChildKind:  kind,
			ParentID:   parentID,
			OrderedIDs: ids,
		})
		if err != nil {
			fail(c, h.log, "reorder failed", err, "kind", kind, "parent_id", parentID)
			return
		}
		response.RespondOK(c, res)
	}
}
