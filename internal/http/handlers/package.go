package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/curriculum-backend/internal/platform/logger"
	"github.com/yungbote/curriculum-backend/internal/services"
)

type PackageHandler struct {
	log       *logger.Logger
	retrieval services.PackageRetrieval
	maxAge    time.Duration
}

func NewPackageHandler(log *logger.Logger, retrieval services.PackageRetrieval, maxAge time.Duration) *PackageHandler {
	if maxAge < 0 {
		maxAge = 0
	}
	return &PackageHandler{
		log:       log.With("handler", "PackageHandler"),
		retrieval: retrieval,
		maxAge:    maxAge,
	}
}

// GetPackage serves the whole course as one JSON document and honors
// If-None-Match / If-Modified-Since.
func (h *PackageHandler) GetPackage(c *gin.Context) {
	courseID, ok := pathID(c, "id")
	if !ok {
		return
	}

	// Last-Modified only carries whole seconds, so a client echoing it back
	// is compared at that granularity.
	cond := services.Conditions{
		IfNoneMatch: strings.TrimSpace(c.GetHeader("If-None-Match")),
		Granularity: time.Second,
	}
	if raw := strings.TrimSpace(c.GetHeader("If-Modified-Since")); raw != "" {
		if t, err := http.ParseTime(raw); err == nil {
			cond.IfModifiedSince = &t
		}
	}

	res, err := h.retrieval.Retrieve(c.Request.Context(), courseID, cond)
	if err != nil {
		fail(c, h.log, "package retrieval failed", err, "course_id", courseID)
		return
	}

	header := c.Writer.Header()
	header.Set("ETag", res.ETag())
	header.Set("Last-Modified", res.Entry.Version.UTC().Format(http.TimeFormat))
	header.Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(h.maxAge.Seconds())))
	if res.Status == services.RetrievalNotModified {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/json", res.Entry.Body)
}
