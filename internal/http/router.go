package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/curriculum-backend/internal/domain/content"
	httpH "github.com/yungbote/curriculum-backend/internal/http/handlers"
	httpMW "github.com/yungbote/curriculum-backend/internal/http/middleware"
	"github.com/yungbote/curriculum-backend/internal/observability"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	CORSOrigins    []string
	RequestTimeout time.Duration
	// TracingService names the otelgin server spans; empty disables them.
	TracingService string

	HealthHandler  *httpH.HealthHandler
	PackageHandler *httpH.PackageHandler
	ReorderHandler *httpH.ReorderHandler
	ContentHandler *httpH.ContentHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingService != "" {
		r.Use(otelgin.Middleware(cfg.TracingService))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.Use(httpMW.Timeout(cfg.RequestTimeout))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Course packages
		if cfg.PackageHandler != nil {
			api.GET("/courses/:id/package", cfg.PackageHandler.GetPackage)
		}

		// Sibling order
		if cfg.ReorderHandler != nil {
			api.PUT("/courses/:id/levels/reorder", cfg.ReorderHandler.Reorder(content.KindLevel))
			api.PUT("/levels/:id/sections/reorder", cfg.ReorderHandler.Reorder(content.KindSection))
			api.PUT("/sections/:id/modules/reorder", cfg.ReorderHandler.Reorder(content.KindModule))
			api.PUT("/modules/:id/lessons/reorder", cfg.ReorderHandler.Reorder(content.KindLesson))
			api.PUT("/lessons/:id/exercise-assignments/reorder", cfg.ReorderHandler.Reorder(content.KindExerciseAssignment))
		}

		// Content writes
		if h := cfg.ContentHandler; h != nil {
			api.GET("/courses", h.ListCourses)
			api.POST("/courses", h.CreateCourse)
			api.GET("/courses/:id", h.Get(content.KindCourse))
			api.PATCH("/courses/:id", h.Update(content.KindCourse))
			api.DELETE("/courses/:id", h.Delete(content.KindCourse))

			api.POST("/courses/:id/levels", h.CreateChild(content.KindLevel))
			api.GET("/levels/:id", h.Get(content.KindLevel))
			api.PATCH("/levels/:id", h.Update(content.KindLevel))
			api.DELETE("/levels/:id", h.Delete(content.KindLevel))

			api.POST("/levels/:id/sections", h.CreateChild(content.KindSection))
			api.GET("/sections/:id", h.Get(content.KindSection))
			api.PATCH("/sections/:id", h.Update(content.KindSection))
			api.DELETE("/sections/:id", h.Delete(content.KindSection))

			api.POST("/sections/:id/modules", h.CreateChild(content.KindModule))
			api.GET("/modules/:id", h.Get(content.KindModule))
			api.PATCH("/modules/:id", h.Update(content.KindModule))
			api.DELETE("/modules/:id", h.Delete(content.KindModule))

			api.POST("/modules/:id/lessons", h.CreateChild(content.KindLesson))
			api.GET("/lessons/:id", h.Get(content.KindLesson))
			api.PATCH("/lessons/:id", h.Update(content.KindLesson))
			api.DELETE("/lessons/:id", h.Delete(content.KindLesson))

			api.POST("/exercises", h.CreateExercise)
			api.GET("/exercises/:id", h.Get(content.KindExercise))
			api.PATCH("/exercises/:id", h.Update(content.KindExercise))
			api.DELETE("/exercises/:id", h.Delete(content.KindExercise))

			api.POST("/lessons/:id/exercise-assignments", h.AssignExercise)
			api.DELETE("/exercise-assignments/:id", h.Delete(content.KindExerciseAssignment))
		}
	}

	return r
}
