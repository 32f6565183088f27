// Package router dispatches one request across an ordered list of provider
// candidates.
//
// The Dispatcher implements six strategies:
//
//   - primary: the first candidate only.
//   - fallback: candidates in order until one succeeds.
//   - consensus: every candidate concurrently; the most confident (or
//     fastest) success wins.
//   - load-balance: one uniformly random candidate, retried up to
//     LoadBalanceAttempts times.
//   - latency-optimized / cost-optimized: the candidate with the lowest
//     cached latency or token usage.
//
// Playbooks bundle a strategy with a provider list under a stable id.
package router
