package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetCourseStats godoc
// @Summary List cataloged courses
// @Tags courses
// @Produce json
// @Success 200 {object} coursechat.Analytics
// @Failure 500 {object} ErrorResponse
// @Router /courses [get]
func (h *Handler) GetCourseStats(c *gin.Context) {
	analytics, err := h.ragService.Analytics(c.Request.Context())
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	sendJSON(c, http.StatusOK, analytics)
}
