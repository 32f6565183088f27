package core

import (
	"time"

	"github.com/google/uuid"
)

// Request is the uniform, provider independent input of a routing call.
//
// A Request is treated as immutable once created. Governance produces a
// sanitized copy via WithPrompt instead of mutating the original.
type Request struct {
	ID         string          `json:"id"`
	Prompt     string          `json:"prompt"`
	Context    string          `json:"context,omitempty"`    // optional system / context text
	ProviderID ProviderKind    `json:"providerId,omitempty"` // optional explicit provider choice
	Routing    RoutingStrategy `json:"routing,omitempty"`    // empty means StrategyPrimary
	Metadata   map[string]any  `json:"metadata,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// NewRequest creates a request with a fresh id and creation timestamp.
func NewRequest(prompt string) Request {
	return Request{
		ID:        uuid.NewString(),
		Prompt:    prompt,
		Metadata:  map[string]any{},
		CreatedAt: time.Now(),
	}
}

// WithPrompt returns a copy of the request carrying a different prompt.
// Metadata is copied so the two values can diverge safely.
func (r Request) WithPrompt(prompt string) Request {
	clone := r
	clone.Prompt = prompt
	if r.Metadata != nil {
		clone.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			clone.Metadata[k] = v
		}
	}
	return clone
}

// Strategy returns the routing strategy, defaulting to StrategyPrimary.
func (r Request) Strategy() RoutingStrategy {
	if r.Routing == "" {
		return StrategyPrimary
	}
	return r.Routing
}

// Response is produced exactly once per successful provider call.
type Response struct {
	ID         string         `json:"id"`
	RequestID  string         `json:"requestId"`
	ProviderID ProviderKind   `json:"providerId"`
	Content    string         `json:"content"`
	TokensUsed int64          `json:"tokensUsed"`
	Latency    int64          `json:"latency"`              // milliseconds
	Confidence *float64       `json:"confidence,omitempty"` // 0..1 when the backend reports one
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// NewResponse creates a response for the given request and provider.
func NewResponse(requestID string, providerID ProviderKind, content string, tokens int64) *Response {
	return &Response{
		ID:         uuid.NewString(),
		RequestID:  requestID,
		ProviderID: providerID,
		Content:    content,
		TokensUsed: tokens,
		CreatedAt:  time.Now(),
	}
}

// WithContent returns a copy of the response carrying different content.
func (r Response) WithContent(content string) *Response {
	clone := r
	clone.Content = content
	if r.Metadata != nil {
		clone.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}

// Float returns a pointer to v. Handy for optional fields such as Confidence.
func Float(v float64) *float64 { return &v }
