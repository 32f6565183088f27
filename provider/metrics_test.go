package provider

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTracker_InitialMetrics(t *testing.T) {
	m := NewTracker().Snapshot()
	assert.Equal(t, 100.0, m.Reliability)
	assert.Zero(t, m.Latency)
	assert.Zero(t, m.RequestCount)
	assert.Zero(t, m.ErrorRate)
	assert.False(t, m.LastUpdated.IsZero())
}

func TestTracker_RecordSuccess_MovingAverage(t *testing.T) {
	tr := NewTracker()
	tr.RecordSuccess(100*time.Millisecond, 10)
	tr.RecordSuccess(200*time.Millisecond, 5)

	m := tr.Snapshot()
	// (0+100)/2 = 50, (50+200)/2 = 125
	assert.Equal(t, 125.0, m.Latency)
	assert.EqualValues(t, 15, m.TokenUsage)
	assert.EqualValues(t, 2, m.RequestCount)
	assert.Equal(t, 100.0, m.Reliability)
}

func TestTracker_RecordFailure_ErrorRate(t *testing.T) {
	tr := NewTracker()
	tr.RecordSuccess(10*time.Millisecond, 1)
	tr.RecordFailure()

	m := tr.Snapshot()
	// (0*1 + 1) / 2
	assert.EqualValues(t, 2, m.RequestCount)
	assert.InDelta(t, 0.5, m.ErrorRate, 1e-9)
	assert.InDelta(t, 50.0, m.Reliability, 1e-9)

	tr.RecordFailure()
	m = tr.Snapshot()
	// (0.5*2 + 1) / 3
	assert.InDelta(t, 2.0/3.0, m.ErrorRate, 1e-9)
	assert.InDelta(t, 100-200.0/3.0, m.Reliability, 1e-9)
}

func TestTracker_ReliabilityNeverNegative(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 5; i++ {
		tr.RecordFailure()
	}
	m := tr.Snapshot()
	assert.InDelta(t, 1.0, m.ErrorRate, 1e-9)
	assert.GreaterOrEqual(t, m.Reliability, 0.0)
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker()
	tr.RecordFailure()
	tr.Reset()
	m := tr.Snapshot()
	assert.Zero(t, m.RequestCount)
	assert.Equal(t, 100.0, m.Reliability)
}

func TestTracker_ConcurrentUpdates(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			tr.RecordSuccess(time.Millisecond, 2)
		}()
		go func() {
			defer wg.Done()
			tr.RecordFailure()
		}()
	}
	wg.Wait()

	m := tr.Snapshot()
	assert.EqualValues(t, 100, m.RequestCount)
	assert.EqualValues(t, 100, m.TokenUsage)
}
