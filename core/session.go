package core

import (
	"time"
)

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

const (
	SessionActive     SessionStatus = "active"
	SessionCompleted  SessionStatus = "completed"
	SessionTerminated SessionStatus = "terminated"
)

// Session groups the requests a caller issued during one conversation.
//
// Contract:
//   - Requests hold the original (unsanitized) request as submitted
//   - EndedAt is nil while the session is active
//   - Clone performs deep copies of slices for safe divergence
type Session struct {
	ID        string        `json:"id"`
	UserID    string        `json:"userId"`
	Requests  []Request     `json:"requests"`
	StartedAt time.Time     `json:"startedAt"`
	EndedAt   *time.Time    `json:"endedAt,omitempty"`
	Status    SessionStatus `json:"status"`
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	clone := *s
	clone.Requests = make([]Request, len(s.Requests))
	copy(clone.Requests, s.Requests)
	if s.EndedAt != nil {
		ended := *s.EndedAt
		clone.EndedAt = &ended
	}
	return &clone
}

// SessionStats summarizes the sessions held by a store.
type SessionStats struct {
	Total                     int     `json:"total"`
	Active                    int     `json:"active"`
	Completed                 int     `json:"completed"`
	Terminated                int     `json:"terminated"`
	AverageRequestsPerSession float64 `json:"averageRequestsPerSession"`
}

// SessionStore keeps sessions for the lifetime of the process.
type SessionStore interface {
	Create(userID string) (*Session, error)
	Get(sessionID string) (*Session, error)
	AppendRequest(sessionID string, req Request) error
}
