package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// TeachRequest asks the AI to teach a topic
type TeachRequest struct {
	Prompt string `json:"prompt"`
}

// Teach runs a lesson and replies when playback has finished. The lesson
// is not tied to the HTTP connection; POST /teach/cancel stops it.
func (h *Handlers) Teach(c *gin.Context) {
	var req TeachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.board.RequestAITeaching(context.WithoutCancel(c.Request.Context()), req.Prompt)
	if err != nil {
		respondTeachingError(c, result, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// TeachStatus reports whether a lesson is running
func (h *Handlers) TeachStatus(c *gin.Context) {
	status := h.board.Status()
	c.JSON(http.StatusOK, gin.H{
		"session":    status.Session,
		"configured": status.Configured,
		"stats":      h.board.SessionStats(),
	})
}

// TeachCancel stops the running lesson
func (h *Handlers) TeachCancel(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"canceled": h.board.CancelTeaching()})
}

// Sessions lists recently finished lessons, newest first
func (h *Handlers) Sessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"sessions": h.board.Sessions(),
		"stats":    h.board.SessionStats(),
	})
}
