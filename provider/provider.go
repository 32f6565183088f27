package provider

import (
	"context"
	"time"

	"github.com/Shards-inc/AiPowerHouse/core"
)

// HealthCheckTimeout bounds every HealthCheck probe.
const HealthCheckTimeout = 5 * time.Second

// DefaultTemperature is sent when a ProviderConfig leaves Temperature at zero.
const DefaultTemperature = 0.7

// Provider is the uniform interface to one AI backend instance.
//
// Implementations translate a core.Request into one vendor wire call and
// back into a core.Response, and own the metrics of that instance. A single
// Provider may be invoked concurrently by independent requests.
type Provider interface {
	// Kind returns the backend family of this adapter.
	Kind() core.ProviderKind

	// Name returns a human readable display name (e.g. "ChatGPT").
	Name() string

	// Send performs one call under the configured timeout. Failures are
	// either *core.ProviderError or *core.TimeoutError.
	Send(ctx context.Context, req core.Request) (*core.Response, error)

	// HealthCheck performs a lightweight probe bounded by HealthCheckTimeout.
	// It never returns an error; any failure yields false.
	HealthCheck(ctx context.Context) bool

	// Metrics returns a snapshot of the adapter's bookkeeping.
	Metrics() core.ProviderMetrics

	// ResetMetrics restores the initial metrics.
	ResetMetrics()
}

// ValidateConfig rejects configurations missing a credential or endpoint.
// It runs before any network activity.
func ValidateConfig(name string, cfg core.ProviderConfig) error {
	if cfg.APIKey == "" {
		return core.NewValidationError(name+": API key is required", map[string]any{"provider": name})
	}
	if cfg.Endpoint == "" {
		return core.NewValidationError(name+": Endpoint is required", map[string]any{"provider": name})
	}
	return nil
}

// Temperature returns cfg.Temperature or DefaultTemperature when unset.
func Temperature(cfg core.ProviderConfig) float64 {
	if cfg.Temperature == 0 {
		return DefaultTemperature
	}
	return cfg.Temperature
}
