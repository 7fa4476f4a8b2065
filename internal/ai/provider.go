package ai

import (
	"context"
	"encoding/json"
	"errors"
)

// Reply is the normalized replica response. Raw keeps the upstream payload
// for audit storage alongside the assistant message.
type Reply struct {
	Content string
	Raw     json.RawMessage
}

// Provider is a conversational replica backend. externalUserID scopes the
// replica's own memory of the conversation to one end user.
type Provider interface {
	Chat(ctx context.Context, externalUserID string, prompt string) (*Reply, error)
}

// Error kinds reported by providers. Callers pick user-facing wording by
// errors.Is over these.
var (
	ErrTimeout      = errors.New("ai: request timed out")
	ErrUnauthorized = errors.New("ai: unauthorized")
	ErrRateLimited  = errors.New("ai: rate limited")
	ErrNetwork      = errors.New("ai: network error")
)
