package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"coursechat/src/core/coursechat"
	"coursechat/src/core/coursestore"
)

// RAGService is the orchestrator surface the HTTP layer exposes
type RAGService interface {
	Query(ctx context.Context, query string, sessionID string) (string, []coursechat.Source, string, error)
	Analytics(ctx context.Context) (*coursechat.Analytics, error)
	CheckHealth(ctx context.Context) *coursechat.HealthStatus
}

type Handler struct {
	ragService RAGService
}

func NewHandler(ragService RAGService) *Handler {
	return &Handler{
		ragService: ragService,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")

	api.POST("/query", h.Query)
	api.GET("/courses", h.GetCourseStats)
	api.GET("/health", h.CheckHealth)
}

// Common error response structure
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func sendError(c *gin.Context, status int, err error) {
	code := "INTERNAL_ERROR"

	var modelErr *coursechat.ModelAPIError
	var storageErr *coursestore.StorageError
	switch {
	case status == http.StatusBadRequest:
		code = "BAD_REQUEST"
	case errors.As(err, &modelErr):
		switch modelErr.Kind {
		case coursechat.ModelErrRateLimited:
			code = "RATE_LIMITED"
			status = http.StatusTooManyRequests
		case coursechat.ModelErrBadRequest:
			code = "MODEL_BAD_REQUEST"
			status = http.StatusBadGateway
		default:
			code = "MODEL_UNAVAILABLE"
			status = http.StatusBadGateway
		}
	case errors.As(err, &storageErr):
		code = "STORAGE_ERROR"
		status = http.StatusInternalServerError
	default:
		status = http.StatusInternalServerError
	}

	c.JSON(status, ErrorResponse{
		Code:    code,
		Message: err.Error(),
	})
}

func sendJSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}
