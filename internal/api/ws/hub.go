package ws

import (
	"encoding/base64"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/board"
	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/teaching"
	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/whiteboard/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/whiteboard/backend/internal/shared/id"
)

// Outbound event types
const (
	TypeSystem       = "system"
	TypeAudio        = "audio"
	TypeNotification = "notification"
	TypeTeachResult  = "teach_result"
	TypeError        = "error"
	TypePong         = "pong"
)

// Envelope is the wire form of every outbound event
type Envelope struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// AudioEvent carries narration audio for the browser to play
type AudioEvent struct {
	MIME string `json:"mime"`
	Data string `json:"data"` // base64
	Size int    `json:"size"`
}

// Hub fans board events out to every connected client. It is also the
// board's Player and Notifier.
type Hub struct {
	mu      sync.RWMutex
	clients map[id.ClientID]*client // Protected by mu

	metrics *monitoring.Metrics
	logger  *logging.Logger
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[id.ClientID]*client),
		logger:  logging.NewNop(),
	}
}

// WithMetrics adds metrics tracking to the hub
func (h *Hub) WithMetrics(metrics *monitoring.Metrics) *Hub {
	h.metrics = metrics
	return h
}

// WithLogger sets the hub logger
func (h *Hub) WithLogger(l *logging.Logger) *Hub {
	h.logger = l.Component("ws")
	return h
}

// Len returns the number of connected clients
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends an event to every client. Clients whose buffers are full
// are dropped.
func (h *Hub) Broadcast(eventType string, data any) {
	msg, err := encode(eventType, data)
	if err != nil {
		h.logger.Error("Failed to encode event", zap.String("type", eventType), zap.Error(err))
		return
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.enqueue(msg) {
			h.logger.Warn("Dropping slow client", zap.String("client", c.id.String()))
			h.unregister(c)
			continue
		}
		h.recordOut(eventType)
	}
}

// Publish forwards a board event
func (h *Hub) Publish(ev board.Event) {
	h.Broadcast(string(ev.Type), ev.Data)
}

// Play broadcasts narration audio
func (h *Hub) Play(audio []byte) {
	h.Broadcast(TypeAudio, AudioEvent{
		MIME: mimetype.Detect(audio).String(),
		Data: base64.StdEncoding.EncodeToString(audio),
		Size: len(audio),
	})
}

// Notify broadcasts a notification and logs it
func (h *Hub) Notify(n teaching.Notification) {
	fields := []zap.Field{zap.String("title", n.Title), zap.String("description", n.Description)}
	if n.Severity == teaching.SeverityError {
		h.logger.Warn("Notification", fields...)
	} else {
		h.logger.Info("Notification", fields...)
	}
	h.Broadcast(TypeNotification, n)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.IncWSConnections()
	}
	h.logger.Info("Client connected", zap.String("client", c.id.String()))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	delete(h.clients, c.id)
	h.mu.Unlock()

	if !ok {
		return
	}
	c.close()
	if h.metrics != nil {
		h.metrics.DecWSConnections()
	}
	h.logger.Info("Client disconnected", zap.String("client", c.id.String()))
}

func (h *Hub) recordIn(msgType string) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage("in", msgType)
	}
}

func (h *Hub) recordOut(msgType string) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage("out", msgType)
	}
}

func encode(eventType string, data any) ([]byte, error) {
	return sonic.Marshal(Envelope{Type: eventType, Data: data, Timestamp: time.Now().Unix()})
}
