// Package completion wraps the external AI chat-completion service.
// The gateway is stateless and single-request: text in, text out. A
// non-2xx status or an empty completion body is a soft failure the
// caller is expected to drop, not retry.
package completion

import (
	"context"
	"errors"
	"log/slog"
)

// LevelTrace is below Debug, used for wire-level payload logging.
const LevelTrace = slog.Level(-8)

// ErrEmptyCompletion is returned when the service responds 2xx but the
// completion content is empty. Callers treat it like any other failure.
var ErrEmptyCompletion = errors.New("completion: empty response content")

// Message is one chat turn sent to the completion service.
type Message struct {
	Role    string `json:"role"` // "system" or "user"
	Content string `json:"content"`
}

// Request is a single completion call.
type Request struct {
	Model     string
	Messages  []Message
	MaxTokens int
}

// Client is the interface the reaction engine depends on. The concrete
// HTTP client lives in this package; tests substitute fakes.
type Client interface {
	// Complete sends one chat completion request and returns the
	// assistant text. Implementations must respect ctx cancellation.
	Complete(ctx context.Context, req Request) (string, error)
}
