package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"coursechat/src/core/coursechat"
)

type queryRequest struct {
	Query     string `json:"query" binding:"required"`
	SessionID string `json:"session_id"`
}

type queryResponse struct {
	Answer    string             `json:"answer"`
	Sources   []coursechat.Source `json:"sources"`
	SessionID string             `json:"session_id"`
}

// Query godoc
// @Summary Answer a question about the course materials
// @Tags chat
// @Accept json
// @Produce json
// @Param body body queryRequest true "Question and optional session id"
// @Success 200 {object} queryResponse
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /query [post]
func (h *Handler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, err)
		return
	}

	answer, sources, sessionID, err := h.ragService.Query(c.Request.Context(), req.Query, req.SessionID)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	if sources == nil {
		sources = []coursechat.Source{}
	}
	sendJSON(c, http.StatusOK, queryResponse{
		Answer:    answer,
		Sources:   sources,
		SessionID: sessionID,
	})
}
