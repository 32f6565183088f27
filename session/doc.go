// Package session houses concrete implementations of the core.SessionStore.
// The interface itself (and the Session struct) live in the core package so
// the pipeline depends only on the contract.
//
// InMemoryStore keeps sessions for the lifetime of the process. Durable
// backends can be added in sub‑packages without changing calling code; only
// the wiring layer decides which implementation to instantiate.
package session
