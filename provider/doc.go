// Package provider defines the vendor-neutral Provider interface and the
// bookkeeping shared by every backend adapter.
//
// Core pieces:
//   - Provider: Send / HealthCheck / Metrics capability set
//   - Tracker: the per-adapter metrics region (moving-average latency,
//     cumulative tokens, request count, error rate, reliability)
//   - Executor: runs one vendor call under a deadline, optionally throttled,
//     and re-signals failures as core.ProviderError or core.TimeoutError
//
// Vendor adapters (openai, anthropic, gemini) live in sub-packages and compose
// an Executor rather than embedding a base type, so higher layers (registry,
// router) stay decoupled from vendor SDKs.
package provider
