package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/scene"
	"github.com/GriffinCanCode/whiteboard/backend/internal/shared/id"
	"github.com/GriffinCanCode/whiteboard/backend/internal/shared/utils"
)

// ToolRequest selects the active tool
type ToolRequest struct {
	Tool string `json:"tool" binding:"required"`
}

// ColorRequest sets the brush color
type ColorRequest struct {
	Color string `json:"color" binding:"required"`
}

// SizeRequest sets the brush size
type SizeRequest struct {
	Size int `json:"size" binding:"required"`
}

// ThemeRequest switches the theme
type ThemeRequest struct {
	Theme string `json:"theme"`
}

// TextRequest replaces the content of a text block
type TextRequest struct {
	Content string `json:"content"`
}

// GetBoard returns the scene snapshot and tool state
func (h *Handlers) GetBoard(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"scene":  h.board.Snapshot(),
		"status": h.board.Status(),
	})
}

// SetTool selects the active tool
func (h *Handlers) SetTool(c *gin.Context) {
	var req ToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.board.SetActiveTool(req.Tool); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tool": h.board.Status().Tool})
}

// SetBrushColor sets the color of new user primitives
func (h *Handlers) SetBrushColor(c *gin.Context) {
	var req ColorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.board.SetBrushColor(req.Color); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tool": h.board.Status().Tool})
}

// SetBrushSize sets the stroke width of new user primitives
func (h *Handlers) SetBrushSize(c *gin.Context) {
	var req SizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.board.SetBrushSize(req.Size); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tool": h.board.Status().Tool})
}

// SetTheme switches the palette
func (h *Handlers) SetTheme(c *gin.Context) {
	var req ThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.board.SetTheme(req.Theme); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": h.board.Status().Theme})
}

// PointerDown starts a gesture
func (h *Handlers) PointerDown(c *gin.Context) {
	var p scene.Point
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.board.PointerDown(p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// PointerMove extends the gesture in progress
func (h *Handlers) PointerMove(c *gin.Context) {
	var p scene.Point
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.board.PointerMove(p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// PointerUp finishes the gesture in progress
func (h *Handlers) PointerUp(c *gin.Context) {
	var p scene.Point
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.board.PointerUp(p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// EditText replaces the content of a user text block
func (h *Handlers) EditText(c *gin.Context) {
	pid := c.Param("id")
	if err := utils.ValidateID(pid, "primitive_id"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !id.IsPrefixed(pid, id.PrimitivePrefix) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "primitive_id is not a primitive identifier"})
		return
	}

	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.board.EditText(id.PrimitiveID(pid), req.Content); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": pid})
}

// Clear removes every primitive. The caller must confirm with ?confirm=true
// since the operation cannot be undone.
func (h *Handlers) Clear(c *gin.Context) {
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	if !confirmed {
		c.JSON(http.StatusPreconditionRequired, gin.H{
			"error": "clearing the board cannot be undone; repeat with ?confirm=true",
		})
		return
	}
	h.board.Clear()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Export downloads the board as PNG
func (h *Handlers) Export(c *gin.Context) {
	img, err := h.board.Export(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+img.Filename+`"`)
	c.Data(http.StatusOK, img.MIME, img.Data)
}
