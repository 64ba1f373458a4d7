package http

import "github.com/gin-gonic/gin"

// Register mounts every REST route on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.POST("/logs", h.StreamLogs)

	b := r.Group("/board")
	{
		b.GET("", h.GetBoard)
		b.POST("/tool", h.SetTool)
		b.POST("/brush/color", h.SetBrushColor)
		b.POST("/brush/size", h.SetBrushSize)
		b.POST("/theme", h.SetTheme)
		b.POST("/pointer/down", h.PointerDown)
		b.POST("/pointer/move", h.PointerMove)
		b.POST("/pointer/up", h.PointerUp)
		b.PUT("/text/:id", h.EditText)
		b.POST("/clear", h.Clear)
		b.GET("/export", h.Export)
	}

	t := r.Group("/teach")
	{
		t.POST("", h.Teach)
		t.GET("/status", h.TeachStatus)
		t.POST("/cancel", h.TeachCancel)
		t.GET("/sessions", h.Sessions)
	}
}
