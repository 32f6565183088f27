// Package core provides the foundational domain types and contracts shared by
// every AiPowerHouse component. It defines:
//
//   - Requests and Responses (the uniform shape exchanged with providers)
//   - Provider kinds, per-call provider configuration and metric snapshots
//   - Routing strategies and ordered routing candidates
//   - Sessions and the SessionStore contract
//   - The error taxonomy (validation, provider, timeout, aggregate, not found)
//
// Transport, vendor SDKs and orchestration live in other packages; adapters,
// the router and governance depend on core but not on each other.
package core
