package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/scene"
	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/teaching"
	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/tools"
)

// statusClientClosed is the nginx convention for a request the client
// abandoned
const statusClientClosed = 499

// statusOf maps a board error to an HTTP status
func statusOf(err error) int {
	var te *teaching.Error
	if errors.As(err, &te) {
		switch te.Kind {
		case teaching.KindInvalid:
			return http.StatusBadRequest
		case teaching.KindBusy:
			return http.StatusConflict
		case teaching.KindConfiguration, teaching.KindResource:
			return http.StatusServiceUnavailable
		case teaching.KindCollaborator:
			return http.StatusBadGateway
		case teaching.KindCanceled:
			return statusClientClosed
		default:
			return http.StatusInternalServerError
		}
	}

	switch {
	case errors.Is(err, tools.ErrInvalidTool),
		errors.Is(err, tools.ErrInvalidBrushSize),
		errors.Is(err, tools.ErrInvalidColor),
		errors.Is(err, tools.ErrNotEditable):
		return http.StatusBadRequest
	case errors.Is(err, tools.ErrToolsLocked):
		return http.StatusLocked
	case errors.Is(err, scene.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled):
		return statusClientClosed
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusOf(err), gin.H{"error": err.Error()})
}

// respondTeachingError includes the classified error and any partial result
func respondTeachingError(c *gin.Context, result *teaching.Result, err error) {
	_ = c.Error(err)
	body := gin.H{"error": err.Error()}

	var te *teaching.Error
	if errors.As(err, &te) {
		body["kind"] = te.Kind
		body["title"] = te.Title
		body["message"] = te.Message
		if te.Code != "" {
			body["code"] = te.Code
		}
	}
	if result != nil {
		body["result"] = result
	}
	c.JSON(statusOf(err), body)
}
