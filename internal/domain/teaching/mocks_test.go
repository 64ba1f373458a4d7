package teaching

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/scene"
	"github.com/GriffinCanCode/whiteboard/backend/internal/shared/id"
)

// MockCompleter is a mock implementation of Completer for testing.
type MockCompleter struct {
	mock.Mock
}

// Complete mocks the Complete method.
func (m *MockCompleter) Complete(ctx context.Context, messages []Message, temperature float64) (string, error) {
	args := m.Called(ctx, messages, temperature)
	return args.String(0), args.Error(1)
}

// MockSynthesizer is a mock implementation of Synthesizer for testing.
type MockSynthesizer struct {
	mock.Mock
	mu     sync.Mutex
	called time.Time
}

// Synthesize mocks the Synthesize method.
func (m *MockSynthesizer) Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error) {
	m.mu.Lock()
	m.called = time.Now()
	m.mu.Unlock()

	args := m.Called(ctx, text, voice)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockSynthesizer) calledAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.called
}

// MockPlayer is a mock implementation of Player for testing.
type MockPlayer struct {
	mock.Mock
}

// Play mocks the Play method.
func (m *MockPlayer) Play(audio []byte) {
	m.Called(audio)
}

// recordingNotifier keeps every notification
type recordingNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

func (n *recordingNotifier) Notify(note Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, note)
}

func (n *recordingNotifier) titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.Title)
	}
	return out
}

// recordingCanvas stores primitives in a real scene and timestamps each add
type recordingCanvas struct {
	*scene.Scene

	mu    sync.Mutex
	adds  []time.Time
	onAdd func(n int)
}

func newRecordingCanvas() *recordingCanvas {
	return &recordingCanvas{Scene: scene.New(scene.Options{})}
}

func (c *recordingCanvas) Add(p scene.Primitive) id.PrimitiveID {
	pid := c.Scene.Add(p)

	c.mu.Lock()
	c.adds = append(c.adds, time.Now())
	n := len(c.adds)
	c.mu.Unlock()

	if c.onAdd != nil {
		c.onAdd(n)
	}
	return pid
}

func (c *recordingCanvas) addTimes() []time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Time(nil), c.adds...)
}
