// Package testutil contains helper builders and utilities used across tests
// to reduce boilerplate when exercising providers, the router and the
// pipeline: a recording HTTP backend that speaks canned vendor JSON, and a
// scriptable in-memory FakeProvider. They are not intended for production usage.
package testutil
