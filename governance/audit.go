package governance

import (
	"sync"
	"time"
)

// Audit actions recorded by the Screen.
const (
	ActionPIIDetected         = "pii_detected"
	ActionRequestBlocked      = "request_blocked"
	ActionRequestValidated    = "request_validated"
	ActionPIIInResponse       = "pii_in_response"
	ActionHumanReviewRequired = "human_review_required"
)

// ReportRecentEvents caps Report.RecentEvents.
const ReportRecentEvents = 100

// AuditEvent is one append-only audit record.
type AuditEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	RequestID string         `json:"requestId"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details"`
}

// Report summarizes governance state and activity.
type Report struct {
	Config       Config         `json:"config"`
	TotalEvents  int            `json:"totalEvents"`
	RecentEvents []AuditEvent   `json:"recentEvents"`
	Summary      map[string]int `json:"summary"`
}

// auditLog is an append-only, mutex-guarded event list.
type auditLog struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (a *auditLog) append(ev AuditEvent) {
	a.mu.Lock()
	a.events = append(a.events, ev)
	a.mu.Unlock()
}

// tail returns a copy of the last n events (all when n <= 0), oldest first.
func (a *auditLog) tail(n int) []AuditEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	start := 0
	if n > 0 && n < len(a.events) {
		start = len(a.events) - n
	}
	out := make([]AuditEvent, len(a.events)-start)
	copy(out, a.events[start:])
	return out
}

func (a *auditLog) clear() {
	a.mu.Lock()
	a.events = nil
	a.mu.Unlock()
}
