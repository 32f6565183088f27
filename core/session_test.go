package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSession_Clone(t *testing.T) {
	ended := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s := &Session{
		ID:       "s1",
		UserID:   "u1",
		Requests: []Request{NewRequest("hi")},
		EndedAt:  &ended,
		Status:   SessionCompleted,
	}

	clone := s.Clone()
	assert.Equal(t, s, clone)
	assert.NotSame(t, s, clone)

	clone.Requests[0].Prompt = "changed"
	clone.Requests = append(clone.Requests, NewRequest("more"))
	*clone.EndedAt = ended.Add(time.Hour)

	assert.Equal(t, "hi", s.Requests[0].Prompt)
	assert.Len(t, s.Requests, 1)
	assert.Equal(t, ended, *s.EndedAt)
}

func TestSession_CloneActive(t *testing.T) {
	s := &Session{ID: "s2", Status: SessionActive}
	clone := s.Clone()
	assert.Nil(t, clone.EndedAt)
	assert.Empty(t, clone.Requests)
}
