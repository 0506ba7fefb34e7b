package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/curriculum-backend/internal/domain/content"
	"github.com/yungbote/curriculum-backend/internal/http/response"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
	"github.com/yungbote/curriculum-backend/internal/services"
)

type ContentHandler struct {
	log     *logger.Logger
	content services.ContentService
}

func NewContentHandler(log *logger.Logger, svc services.ContentService) *ContentHandler {
	return &ContentHandler{
		log:     log.With("handler", "ContentHandler"),
		content: svc,
	}
}

func (h *ContentHandler) ListCourses(c *gin.Context) {
	courses, err := h.content.ListCourses(c.Request.Context())
	if err != nil {
		fail(c, h.log, "ListCourses failed", err)
		return
	}
	response.RespondOK(c, gin.H{"courses": courses})
}

func (h *ContentHandler) CreateCourse(c *gin.Context) {
	var in services.NodeInput
	if !bind(c, &in) {
		return
	}
	course, err := h.content.CreateCourse(c.Request.Context(), in)
	if err != nil {
		fail(c, h.log, "CreateCourse failed", err)
		return
	}
	response.RespondCreated(c, course)
}

func (h *ContentHandler) CreateExercise(c *gin.Context) {
	var in services.ExerciseInput
	if !bind(c, &in) {
		return
	}
	exercise, err := h.content.CreateExercise(c.Request.Context(), in)
	if err != nil {
		fail(c, h.log, "CreateExercise failed", err)
		return
	}
	response.RespondCreated(c, exercise)
}

// CreateChild returns the handler that appends a child of kind under the
// parent named by :id.
func (h *ContentHandler) CreateChild(kind content.NodeKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		parentID, ok := pathID(c, "id")
		if !ok {
			return
		}
		ctx := c.Request.Context()

		var (
			row interface{}
			err error
		)
		switch kind {
		case content.KindLesson:
			var in services.LessonInput
			if !bind(c, &in) {
				return
			}
			row, err = h.content.CreateLesson(ctx, parentID, in)
		case content.KindLevel, content.KindSection, content.KindModule:
			var in services.NodeInput
			if !bind(c, &in) {
				return
			}
			switch kind {
			case content.KindLevel:
				row, err = h.content.CreateLevel(ctx, parentID, in)
			case content.KindSection:
				row, err = h.content.CreateSection(ctx, parentID, in)
			default:
				row, err = h.content.CreateModule(ctx, parentID, in)
			}
		default:
			response.RespondError(c, http.StatusBadRequest, "invalid", fmt.Errorf("cannot create %s", kind))
			return
		}
		if err != nil {
			fail(c, h.log, "create failed", err, "kind", kind, "parent_id", parentID)
			return
		}
		response.RespondCreated(c, row)
	}
}

type assignRequest struct {
	ExerciseID string `json:"exercise_id"`
}

func (h *ContentHandler) AssignExercise(c *gin.Context) {
	lessonID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req assignRequest
	if !bind(c, &req) {
		return
	}
	exerciseID, err := uuid.Parse(req.ExerciseID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid", fmt.Errorf("invalid exercise_id %q", req.ExerciseID))
		return
	}
	a, err := h.content.AssignExercise(c.Request.Context(), lessonID, exerciseID)
	if err != nil {
		fail(c, h.log, "AssignExercise failed", err, "lesson_id", lessonID, "exercise_id", exerciseID)
		return
	}
	response.RespondCreated(c, a)
}

func (h *ContentHandler) Get(kind content.NodeKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		row, err := h.content.Get(c.Request.Context(), kind, id)
		if err != nil {
			fail(c, h.log, "get failed", err, "kind", kind, "id", id)
			return
		}
		response.RespondOK(c, row)
	}
}

func (h *ContentHandler) Update(kind content.NodeKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var p services.Patch
		if !bind(c, &p) {
			return
		}
		row, err := h.content.Update(c.Request.Context(), kind, id, p)
		if err != nil {
			fail(c, h.log, "update failed", err, "kind", kind, "id", id)
			return
		}
		response.RespondOK(c, row)
	}
}

func (h *ContentHandler) Delete(kind content.NodeKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := h.content.Delete(c.Request.Context(), kind, id); err != nil {
			fail(c, h.log, "delete failed", err, "kind", kind, "id", id)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid", err)
		return false
	}
	return true
}
