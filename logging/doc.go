// Package logging provides a minimal logging interface and adapters for AiPowerHouse.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the router, providers, governance and pipeline use for observability. This
// package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - PowerHouseLogger with component/request context and provider-call helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	ph := aipowerhouse.New(func(o *aipowerhouse.Options) { o.Logger = logger })
//
// Components tag their output via ForComponent; request-scoped lines carry
// request_id when the logger is a *PowerHouseLogger.
package logging
