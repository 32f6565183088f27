package core

import (
	"time"
)

// ProviderKind identifies one AI backend family.
type ProviderKind string

const (
	// ProviderChatGPT is the OpenAI-compatible kind.
	ProviderChatGPT ProviderKind = "chatgpt"
	// ProviderClaude is the Anthropic-compatible kind.
	ProviderClaude ProviderKind = "claude"
	// ProviderGemini is the Google-compatible kind.
	ProviderGemini ProviderKind = "gemini"
)

// DefaultProviders is the candidate trio used when a request names no provider.
var DefaultProviders = []ProviderKind{ProviderChatGPT, ProviderClaude, ProviderGemini}

// ParseProviderKind validates a provider identifier.
func ParseProviderKind(s string) (ProviderKind, error) {
	switch k := ProviderKind(s); k {
	case ProviderChatGPT, ProviderClaude, ProviderGemini:
		return k, nil
	default:
		return "", NewValidationError("Unknown provider: "+s, nil)
	}
}

// DefaultProviderTimeout bounds a provider call when ProviderConfig.Timeout is zero.
const DefaultProviderTimeout = 30 * time.Second

// ProviderConfig is supplied per call and never persisted by the core.
type ProviderConfig struct {
	APIKey      string        `json:"-" toml:"api_key"`
	Endpoint    string        `json:"endpoint" toml:"endpoint"`
	Model       string        `json:"model" toml:"model"`
	MaxTokens   int64         `json:"maxTokens" toml:"max_tokens"`
	Temperature float64       `json:"temperature" toml:"temperature"`
	Timeout     time.Duration `json:"timeout" toml:"timeout"`

	// RequestsPerSecond throttles calls on one adapter. Zero disables throttling.
	RequestsPerSecond float64 `json:"requestsPerSecond,omitempty" toml:"requests_per_second"`
}

// CallTimeout returns the configured timeout or DefaultProviderTimeout.
func (c ProviderConfig) CallTimeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultProviderTimeout
	}
	return c.Timeout
}

// Candidate is a provider kind paired with the configuration to reach it.
type Candidate struct {
	Kind   ProviderKind
	Config ProviderConfig
}

// ProviderMetrics is a value snapshot of one adapter's bookkeeping.
type ProviderMetrics struct {
	Reliability  float64   `json:"reliability"` // 0..100
	Latency      float64   `json:"latency"`     // moving average in ms
	TokenUsage   int64     `json:"tokenUsage"`
	RequestCount int64     `json:"requestCount"`
	ErrorRate    float64   `json:"errorRate"`
	LastUpdated  time.Time `json:"lastUpdated"`
}

// NewProviderMetrics returns the initial metrics of a fresh adapter.
func NewProviderMetrics() ProviderMetrics {
	return ProviderMetrics{Reliability: 100, LastUpdated: time.Now()}
}
