// Package governance screens requests and responses for personally
// identifiable information and unsafe content, and keeps an audit trail of
// every decision.
//
// Outgoing requests may be redacted and, in strict compliance mode, blocked.
// Incoming responses are redacted but never blocked.
package governance
