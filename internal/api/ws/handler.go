package ws

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/board"
	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/scene"
	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/teaching"
	"github.com/GriffinCanCode/whiteboard/backend/internal/shared/utils"
)

// Board is the part of the board the stream drives
type Board interface {
	RequestAITeaching(ctx context.Context, prompt string) (*teaching.Result, error)
	CancelTeaching() bool
	Snapshot() scene.Snapshot
	Status() board.Status
}

// Message is an inbound client message
type Message struct {
	Type   string `json:"type"`
	Prompt string `json:"prompt,omitempty"`
}

// Handler upgrades connections and serves inbound messages
type Handler struct {
	hub      *Hub
	board    Board
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler. Until WithOrigins is called
// only same-host origins may connect.
func NewHandler(hub *Hub, b Board) *Handler {
	return &Handler{
		hub:   hub,
		board: b,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// WithOrigins admits browser connections from the given origins, the same
// list the CORS middleware is configured with. "*" admits every origin.
func (h *Handler) WithOrigins(origins []string) *Handler {
	if len(origins) > 0 {
		h.upgrader.CheckOrigin = checkOrigin(origins)
	}
	return h
}

func checkOrigin(origins []string) func(r *http.Request) bool {
	if slices.Contains(origins, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return slices.ContainsFunc(origins, func(allowed string) bool {
			return strings.EqualFold(allowed, origin)
		})
	}
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	cl := newClient(conn)
	h.hub.register(cl)
	go cl.writePump()

	h.reply(cl, TypeSystem, gin.H{
		"message":  "Connected to whiteboard",
		"client":   cl.id,
		"snapshot": h.board.Snapshot(),
		"status":   h.board.Status(),
	})

	h.readPump(cl)
}

func (h *Handler) readPump(cl *client) {
	defer h.hub.unregister(cl)

	cl.conn.SetReadLimit(utils.MaxMessageLength)
	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.hub.logger.Debug("WebSocket read error", zap.String("client", cl.id.String()), zap.Error(err))
			}
			return
		}

		var msg Message
		if err := sonic.Unmarshal(data, &msg); err != nil {
			h.replyError(cl, "malformed message")
			continue
		}
		h.hub.recordIn(msg.Type)

		switch msg.Type {
		case "ping":
			h.reply(cl, TypePong, nil)
		case "status":
			h.reply(cl, "status", h.board.Status())
		case "teach":
			go h.teach(cl, msg.Prompt)
		case "cancel":
			h.reply(cl, "cancel_result", gin.H{"canceled": h.board.CancelTeaching()})
		default:
			h.replyError(cl, "unknown message type")
		}
	}
}

// teach runs a lesson for cl. The lesson outlives the connection; only
// an explicit cancel stops it.
func (h *Handler) teach(cl *client, prompt string) {
	result, err := h.board.RequestAITeaching(context.Background(), prompt)
	if err != nil {
		h.replyError(cl, err.Error())
		return
	}
	h.reply(cl, TypeTeachResult, result)
}

func (h *Handler) reply(cl *client, msgType string, data any) {
	msg, err := encode(msgType, data)
	if err != nil {
		h.hub.logger.Error("Failed to encode reply", zap.String("type", msgType), zap.Error(err))
		return
	}
	if cl.enqueue(msg) {
		h.hub.recordOut(msgType)
	}
}

func (h *Handler) replyError(cl *client, message string) {
	h.reply(cl, TypeError, gin.H{"message": message})
}
