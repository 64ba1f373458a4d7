package teaching

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/GriffinCanCode/whiteboard/backend/internal/domain/session"
)

// ErrNoSurface is returned when no scene is mounted
var ErrNoSurface = errors.New("drawing surface not available")

// Kind classifies a teaching failure
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindCollaborator  Kind = "collaborator"
	KindResource      Kind = "resource"
	KindBusy          Kind = "busy"
	KindCanceled      Kind = "canceled"
	KindInternal      Kind = "internal"
	KindInvalid       Kind = "invalid_request"
)

// Known provider error codes with specific guidance
const (
	CodeInsufficientQuota     = "insufficient_quota"
	CodeInvalidAPIKey         = "invalid_api_key"
	CodeModelNotFound         = "model_not_found"
	CodeRateLimitExceeded     = "rate_limit_exceeded"
	CodeContextLengthExceeded = "context_length_exceeded"
)

// Error is a classified teaching failure with user-facing text
type Error struct {
	Kind    Kind   `json:"kind"`
	Code    string `json:"code,omitempty"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Title, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Title)
}

func (e *Error) Unwrap() error { return e.Err }

// Notification renders the error for the user
func (e *Error) Notification() Notification {
	return Notification{Title: e.Title, Description: e.Message, Severity: SeverityError}
}

// KindOf returns the kind of a classified error, or KindInternal
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindInternal
}

func configurationError() *Error {
	return &Error{
		Kind:    KindConfiguration,
		Title:   "Setup Required",
		Message: "Please configure a language model API key to use AI whiteboard features.",
	}
}

func resourceError() *Error {
	return &Error{
		Kind:    KindResource,
		Title:   "Error",
		Message: "Canvas not available.",
		Err:     ErrNoSurface,
	}
}

func busyError(err error) *Error {
	return &Error{
		Kind:    KindBusy,
		Title:   "Busy",
		Message: "The AI is already teaching. Wait for it to finish or cancel it.",
		Err:     err,
	}
}

func canceledError(err error) *Error {
	return &Error{
		Kind:    KindCanceled,
		Title:   "Canceled",
		Message: "The lesson was stopped.",
		Err:     err,
	}
}

var knownCodes = []string{
	CodeInsufficientQuota,
	CodeInvalidAPIKey,
	CodeModelNotFound,
	CodeRateLimitExceeded,
	CodeContextLengthExceeded,
}

// guidance holds user-facing text for known provider error codes
var guidance = map[string]struct{ title, message string }{
	CodeInsufficientQuota: {
		"Quota Exceeded",
		"Your AI provider account has no available credits. Check your usage and add billing if needed.",
	},
	CodeInvalidAPIKey: {
		"Invalid API Key",
		"Your API key is invalid. Generate a new one in your provider's dashboard.",
	},
	CodeModelNotFound: {
		"Model Not Available",
		"The AI model is not available for your account. This might be due to account limitations.",
	},
	CodeRateLimitExceeded: {
		"Rate Limited",
		"Too many requests were sent to the AI provider. Wait a moment and try again.",
	},
	CodeContextLengthExceeded: {
		"Request Too Long",
		"The request is too long for the AI model. Try a shorter question.",
	},
}

// classify wraps a collaborator failure. Context cancellation wins over
// whatever error the collaborator reported for it.
func classify(ctx context.Context, err error) *Error {
	var te *Error
	if errors.As(err, &te) {
		return te
	}
	if errors.Is(err, session.ErrBusy) {
		return busyError(err)
	}
	if errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled) {
		return canceledError(err)
	}

	out := &Error{
		Kind:    KindCollaborator,
		Title:   "Error",
		Message: err.Error(),
		Err:     err,
	}

	code := providerCode(err)
	if g, ok := guidance[code]; ok {
		out.Code = code
		out.Title = g.title
		out.Message = g.message
	}
	return out
}

// providerCode prefers the structured code and falls back to scanning the
// message, since some providers only put the code in free text.
func providerCode(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if _, ok := guidance[apiErr.Code]; ok {
			return apiErr.Code
		}
		if _, ok := guidance[apiErr.Type]; ok {
			return apiErr.Type
		}
	}
	msg := err.Error()
	for _, code := range knownCodes {
		if strings.Contains(msg, code) {
			return code
		}
	}
	return ""
}
