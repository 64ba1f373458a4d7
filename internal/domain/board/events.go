package board

import (
	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/scene"
	"github.com/GriffinCanCode/whiteboard/backend/internal/shared/id"
)

// EventType names what changed on the board
type EventType string

const (
	EventScene   EventType = "scene"
	EventSession EventType = "session"
	EventTool    EventType = "tool"
)

// Event is published to subscribers after each committed change
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// Listener receives board events. It runs on the goroutine that made the
// change and must not block.
type Listener func(Event)

// SceneChange is the wire form of a scene event
type SceneChange struct {
	Change     scene.EventType `json:"change"`
	Primitive  scene.Primitive `json:"primitive,omitempty"`
	RemovedID  id.PrimitiveID  `json:"removed_id,omitempty"`
	Background string          `json:"background"`
	Version    uint64          `json:"version"`
	Size       int             `json:"size"`
}

func newSceneChange(ev scene.Event) SceneChange {
	return SceneChange{
		Change:     ev.Type,
		Primitive:  ev.Primitive,
		RemovedID:  ev.RemovedID,
		Background: ev.Background,
		Version:    ev.Version,
		Size:       ev.Size,
	}
}
