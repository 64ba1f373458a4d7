package teaching

import (
	"context"
	"fmt"
)

// Role of a chat message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat turn sent to the language model
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Completer produces a reply for a conversation
type Completer interface {
	Complete(ctx context.Context, messages []Message, temperature float64) (string, error)
}

// Voice selects the speaker and speech model
type Voice struct {
	ID    string `json:"voice_id"`
	Model string `json:"model_id"`
}

// Synthesizer converts narration to encoded audio
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error)
}

// Player starts audio playback; it must not block until playback ends
type Player interface {
	Play(audio []byte)
}

// Severity of a user notification
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification is a short message for the user
type Notification struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

// Notifier shows notifications to the user
type Notifier interface {
	Notify(n Notification)
}

// APIError is returned by provider adapters when the upstream API rejects
// a call. Code carries the provider's machine-readable error code.
type APIError struct {
	Provider string `json:"provider"`
	Status   int    `json:"status"`
	Code     string `json:"code,omitempty"`
	Type     string `json:"type,omitempty"`
	Message  string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s API error %d (%s): %s", e.Provider, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%s API error %d: %s", e.Provider, e.Status, e.Message)
}
