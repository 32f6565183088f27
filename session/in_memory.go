package session

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shards-inc/AiPowerHouse/core"
	"github.com/Shards-inc/AiPowerHouse/logging"
)

// DefaultMaxAge is the age past which ended sessions are removed by Cleanup.
const DefaultMaxAge = 24 * time.Hour

// Options configure an InMemoryStore.
type Options struct {
	Logger logging.Logger
	// Now is the clock used for timestamps. Defaults to time.Now.
	Now func() time.Time
}

// InMemoryStore is a volatile SessionStore implementation storing
// sessions in a process local map. It is safe for concurrent access. Each
// returned session is cloned to prevent external mutation of internal state.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
	logger   logging.Logger
	now      func() time.Time
}

var _ core.SessionStore = (*InMemoryStore)(nil)

// NewInMemoryStore constructs an empty in‑memory session store.
func NewInMemoryStore(optFns ...func(o *Options)) *InMemoryStore {
	opts := Options{Logger: logging.NoOpLogger{}, Now: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &InMemoryStore{
		sessions: make(map[string]*core.Session),
		logger:   logging.OrNoOp(opts.Logger),
		now:      opts.Now,
	}
}

func notFound() error { return &core.NotFoundError{Resource: "Session"} }

// Create starts an active session for userID.
func (s *InMemoryStore) Create(userID string) (*core.Session, error) {
	sess := &core.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Requests:  []core.Request{},
		StartedAt: s.now(),
		Status:    core.SessionActive,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.logger.Info("session created", "session_id", sess.ID, "user_id", userID)
	return sess.Clone(), nil
}

// Get returns a clone of the session or a NotFoundError.
func (s *InMemoryStore) Get(sessionID string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, notFound()
	}
	return sess.Clone(), nil
}

// AppendRequest records req on an existing session.
func (s *InMemoryStore) AppendRequest(sessionID string, req core.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return notFound()
	}
	sess.Requests = append(sess.Requests, req)
	s.logger.Debug("request added to session", "session_id", sessionID, "request_id", req.ID)
	return nil
}

// UserSessions returns the sessions of userID ordered by start time.
func (s *InMemoryStore) UserSessions(userID string) []*core.Session {
	return s.filter(func(sess *core.Session) bool { return sess.UserID == userID })
}

// Active returns every active session ordered by start time.
func (s *InMemoryStore) Active() []*core.Session {
	return s.filter(func(sess *core.Session) bool { return sess.Status == core.SessionActive })
}

func (s *InMemoryStore) filter(keep func(*core.Session) bool) []*core.Session {
	s.mu.RLock()
	out := make([]*core.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if keep(sess) {
			out = append(out, sess.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// End marks the session completed.
func (s *InMemoryStore) End(sessionID string) (*core.Session, error) {
	return s.finish(sessionID, core.SessionCompleted)
}

// Terminate marks the session terminated.
func (s *InMemoryStore) Terminate(sessionID string) (*core.Session, error) {
	return s.finish(sessionID, core.SessionTerminated)
}

func (s *InMemoryStore) finish(sessionID string, status core.SessionStatus) (*core.Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return nil, notFound()
	}
	ended := s.now()
	sess.Status = status
	sess.EndedAt = &ended
	clone := sess.Clone()
	s.mu.Unlock()

	s.logger.Info("session "+string(status), "session_id", sessionID)
	return clone, nil
}

// Delete removes a session, reporting whether it existed.
func (s *InMemoryStore) Delete(sessionID string) bool {
	s.mu.Lock()
	_, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if ok {
		s.logger.Info("session deleted", "session_id", sessionID)
	}
	return ok
}

// Cleanup removes ended sessions whose EndedAt is older than maxAge and
// returns how many were removed. maxAge <= 0 uses DefaultMaxAge. Active
// sessions are never removed.
func (s *InMemoryStore) Cleanup(maxAge time.Duration) int {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	cutoff := s.now().Add(-maxAge)

	s.mu.Lock()
	cleaned := 0
	for id, sess := range s.sessions {
		if sess.EndedAt != nil && sess.EndedAt.Before(cutoff) {
			delete(s.sessions, id)
			cleaned++
		}
	}
	s.mu.Unlock()

	if cleaned > 0 {
		s.logger.Info("old sessions cleaned up", "count", cleaned)
	}
	return cleaned
}

// Stats summarizes every session in the store.
func (s *InMemoryStore) Stats() core.SessionStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats core.SessionStats
	requests := 0
	for _, sess := range s.sessions {
		stats.Total++
		requests += len(sess.Requests)
		switch sess.Status {
		case core.SessionActive:
			stats.Active++
		case core.SessionCompleted:
			stats.Completed++
		case core.SessionTerminated:
			stats.Terminated++
		}
	}
	if stats.Total > 0 {
		stats.AverageRequestsPerSession = float64(requests) / float64(stats.Total)
	}
	return stats
}
