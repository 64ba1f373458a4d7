package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/whiteboard/backend/internal/shared/id"
)

// ErrBusy is returned by Begin while another session is processing
var ErrBusy = errors.New("a teaching session is already in progress")

// Phase is the step a processing session is in
type Phase string

const (
	PhaseThinking Phase = "thinking"
	PhaseDrawing  Phase = "drawing"
	PhaseSpeaking Phase = "speaking"
)

// Outcome records how a session ended
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeCanceled  Outcome = "canceled"
)

// EventType names a session lifecycle change
type EventType string

const (
	EventStarted EventType = "session_started"
	EventEnded   EventType = "session_ended"
)

// Session describes one teaching request
type Session struct {
	ID           id.SessionID `json:"id"`
	Prompt       string       `json:"prompt"`
	Phase        Phase        `json:"phase,omitempty"`
	StartedAt    time.Time    `json:"started_at"`
	EndedAt      *time.Time   `json:"ended_at,omitempty"`
	Outcome      Outcome      `json:"outcome,omitempty"`
	Instructions int          `json:"instructions"`
	Error        string       `json:"error,omitempty"`
}

// Status is the externally visible guard state
type Status struct {
	IsActive     bool     `json:"is_active"`
	IsProcessing bool     `json:"is_processing"`
	Current      *Session `json:"current,omitempty"`
}

// Stats summarizes guard activity
type Stats struct {
	Started     uint64     `json:"started"`
	Completed   uint64     `json:"completed"`
	Failed      uint64     `json:"failed"`
	Canceled    uint64     `json:"canceled"`
	Rejected    uint64     `json:"rejected"`
	LastStarted *time.Time `json:"last_started,omitempty"`
	LastEnded   *time.Time `json:"last_ended,omitempty"`
}

// Event is delivered to observers on start and end
type Event struct {
	Type    EventType `json:"type"`
	Session Session   `json:"session"`
}

// Observer receives lifecycle events outside the guard lock
type Observer func(Event)

// Guard admits at most one teaching session at a time.
// Both the tool machine and the playback scheduler consult it.
type Guard struct {
	processing atomic.Bool

	mu        sync.RWMutex
	current   *Session
	cancel    context.CancelFunc
	history   []Session // Protected by mu, oldest first
	maxRecent int
	stats     Stats

	observers []Observer
}

// NewGuard creates a guard that remembers up to maxRecent finished sessions
func NewGuard(maxRecent int) *Guard {
	if maxRecent <= 0 {
		maxRecent = 20
	}
	return &Guard{maxRecent: maxRecent}
}

// WithObserver registers an observer; call before the guard is shared
func (g *Guard) WithObserver(o Observer) *Guard {
	g.observers = append(g.observers, o)
	return g
}

// Begin claims the guard for a new session. The flag flips before Begin
// returns, so a caller that awaits anything afterwards is already covered.
// The returned context is canceled by Cancel or when End runs.
func (g *Guard) Begin(parent context.Context, prompt string) (context.Context, Session, error) {
	if !g.processing.CompareAndSwap(false, true) {
		g.mu.Lock()
		g.stats.Rejected++
		g.mu.Unlock()
		return nil, Session{}, ErrBusy
	}

	ctx, cancel := context.WithCancel(parent)
	now := time.Now()
	s := &Session{
		ID:        id.NewSessionID(),
		Prompt:    prompt,
		Phase:     PhaseThinking,
		StartedAt: now,
	}

	g.mu.Lock()
	g.current = s
	g.cancel = cancel
	g.stats.Started++
	g.stats.LastStarted = &now
	snapshot := *s
	g.mu.Unlock()

	g.emit(Event{Type: EventStarted, Session: snapshot})
	return ctx, snapshot, nil
}

// SetPhase records progress of the current session
func (g *Guard) SetPhase(sid id.SessionID, phase Phase) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current != nil && g.current.ID == sid {
		g.current.Phase = phase
	}
}

// AddInstructions counts instructions applied by the current session
func (g *Guard) AddInstructions(sid id.SessionID, n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current != nil && g.current.ID == sid {
		g.current.Instructions += n
	}
}

// End releases the guard. Ending a session that is not current is a no-op,
// which makes End safe to defer alongside an explicit call.
func (g *Guard) End(sid id.SessionID, outcome Outcome, cause error) {
	g.mu.Lock()
	if g.current == nil || g.current.ID != sid {
		g.mu.Unlock()
		return
	}

	now := time.Now()
	finished := *g.current
	finished.Phase = ""
	finished.EndedAt = &now
	finished.Outcome = outcome
	if cause != nil {
		finished.Error = cause.Error()
	}

	switch outcome {
	case OutcomeCompleted:
		g.stats.Completed++
	case OutcomeCanceled:
		g.stats.Canceled++
	default:
		g.stats.Failed++
	}
	g.stats.LastEnded = &now

	g.history = append(g.history, finished)
	if len(g.history) > g.maxRecent {
		g.history = g.history[len(g.history)-g.maxRecent:]
	}

	cancel := g.cancel
	g.current = nil
	g.cancel = nil
	g.processing.Store(false)
	g.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	g.emit(Event{Type: EventEnded, Session: finished})
}

// Cancel stops the current session; it reports whether one was running
func (g *Guard) Cancel() bool {
	g.mu.RLock()
	cancel := g.cancel
	g.mu.RUnlock()

	if cancel == nil {
		return false
	}
	cancel()
	return true
}

// Busy reports whether a session is processing
func (g *Guard) Busy() bool {
	return g.processing.Load()
}

// Status returns a copy of the current state
func (g *Guard) Status() Status {
	g.mu.RLock()
	defer g.mu.RUnlock()

	st := Status{
		IsActive:     g.current != nil,
		IsProcessing: g.processing.Load(),
	}
	if g.current != nil {
		cur := *g.current
		st.Current = &cur
	}
	return st
}

// Recent returns finished sessions, newest first
func (g *Guard) Recent() []Session {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Session, len(g.history))
	for i, s := range g.history {
		out[len(g.history)-1-i] = s
	}
	return out
}

// Stats returns guard statistics
func (g *Guard) Stats() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.stats
}

func (g *Guard) emit(ev Event) {
	for _, o := range g.observers {
		o(ev)
	}
}
