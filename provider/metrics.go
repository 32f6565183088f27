package provider

import (
	"math"
	"sync"
	"time"

	"github.com/Shards-inc/AiPowerHouse/core"
)

// Tracker owns the metrics record of one adapter. Every update is applied
// under a single mutex so concurrent calls cannot lose updates.
type Tracker struct {
	mu      sync.Mutex
	metrics core.ProviderMetrics
	now     func() time.Time
}

// NewTracker returns a tracker holding fresh metrics.
func NewTracker() *Tracker {
	return &Tracker{metrics: core.NewProviderMetrics(), now: time.Now}
}

// RecordSuccess folds a successful call into the metrics:
// latency = (old + sample) / 2, tokens accumulate, request count increments.
func (t *Tracker) RecordSuccess(latency time.Duration, tokens int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.metrics.RequestCount++
	t.metrics.Latency = (t.metrics.Latency + float64(latency.Milliseconds())) / 2
	t.metrics.TokenUsage += tokens
	t.metrics.LastUpdated = t.now()
}

// RecordFailure folds a failed call into the metrics:
// errorRate = (oldRate*oldCount + 1) / newCount, reliability = max(0, 100 - errorRate*100).
func (t *Tracker) RecordFailure() {
	t.mu.Lock()
	defer t.mu.Unlock()

	oldCount := float64(t.metrics.RequestCount)
	t.metrics.RequestCount++
	t.metrics.ErrorRate = (t.metrics.ErrorRate*oldCount + 1) / float64(t.metrics.RequestCount)
	t.metrics.Reliability = math.Max(0, 100-t.metrics.ErrorRate*100)
	t.metrics.LastUpdated = t.now()
}

// Snapshot returns a copy of the current metrics.
func (t *Tracker) Snapshot() core.ProviderMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.metrics
}

// Reset restores the initial metrics.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.metrics = core.NewProviderMetrics()
}
