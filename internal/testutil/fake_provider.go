package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Shards-inc/AiPowerHouse/core"
	"github.com/Shards-inc/AiPowerHouse/provider"
)

// FakeResult scripts the outcome of one FakeProvider call.
type FakeResult struct {
	Content    string
	Tokens     int64
	Confidence *float64
	Err        error
	Delay      time.Duration
}

// FakeProvider is a scriptable provider.Provider. Results are consumed in
// order; the last result repeats once the script is exhausted. Calls go
// through a real provider.Executor so metrics and error classification
// behave like a vendor adapter.
//
// Example:
//
//	fp := NewFakeProvider("chatgpt").Fail(errors.New("down")).Succeed("ok")
type FakeProvider struct {
	kind core.ProviderKind
	exec *provider.Executor

	mu       sync.Mutex
	script   []FakeResult
	requests []core.Request
	healthy  bool
}

// NewFakeProvider creates a healthy fake that answers "ok" until scripted.
func NewFakeProvider(kind core.ProviderKind) *FakeProvider {
	return &FakeProvider{kind: kind, exec: provider.NewExecutor(string(kind)), healthy: true}
}

// Then appends a scripted result (chainable).
func (f *FakeProvider) Then(r FakeResult) *FakeProvider {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script = append(f.script, r)
	return f
}

// Succeed appends a successful result with the given content (chainable).
func (f *FakeProvider) Succeed(content string) *FakeProvider {
	return f.Then(FakeResult{Content: content, Tokens: 10})
}

// Fail appends a failing result (chainable).
func (f *FakeProvider) Fail(err error) *FakeProvider {
	if err == nil {
		err = errors.New(string(f.kind) + " unavailable")
	}
	return f.Then(FakeResult{Err: err})
}

// WithAverageLatency seeds the metrics so that Metrics().Latency == ms.
func (f *FakeProvider) WithAverageLatency(ms int64) *FakeProvider {
	f.exec.Tracker().RecordSuccess(time.Duration(2*ms)*time.Millisecond, 0)
	return f
}

// WithTokenUsage seeds the cumulative token usage metric.
func (f *FakeProvider) WithTokenUsage(tokens int64) *FakeProvider {
	f.exec.Tracker().RecordSuccess(0, tokens)
	return f
}

// SetHealthy controls the HealthCheck answer.
func (f *FakeProvider) SetHealthy(ok bool) *FakeProvider {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.healthy = ok
	return f
}

func (f *FakeProvider) next(req core.Request) FakeResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.requests)
	f.requests = append(f.requests, req)
	switch {
	case len(f.script) == 0:
		return FakeResult{Content: "ok", Tokens: 10}
	case n < len(f.script):
		return f.script[n]
	default:
		return f.script[len(f.script)-1]
	}
}

// Kind implements provider.Provider.
func (f *FakeProvider) Kind() core.ProviderKind { return f.kind }

// Name implements provider.Provider.
func (f *FakeProvider) Name() string { return string(f.kind) }

// Send implements provider.Provider.
func (f *FakeProvider) Send(ctx context.Context, req core.Request) (*core.Response, error) {
	res := f.next(req)
	return f.exec.Exec(ctx, time.Second, func(ctx context.Context) (*core.Response, error) {
		if res.Delay > 0 {
			select {
			case <-time.After(res.Delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if res.Err != nil {
			return nil, res.Err
		}
		resp := core.NewResponse(req.ID, f.kind, res.Content, res.Tokens)
		resp.Confidence = res.Confidence
		return resp, nil
	})
}

// HealthCheck implements provider.Provider.
func (f *FakeProvider) HealthCheck(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.healthy
}

// Metrics implements provider.Provider.
func (f *FakeProvider) Metrics() core.ProviderMetrics { return f.exec.Tracker().Snapshot() }

// ResetMetrics implements provider.Provider.
func (f *FakeProvider) ResetMetrics() { f.exec.Tracker().Reset() }

// Calls returns how many times Send was invoked.
func (f *FakeProvider) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// Requests returns a copy of every request passed to Send.
func (f *FakeProvider) Requests() []core.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]core.Request, len(f.requests))
	copy(out, f.requests)
	return out
}
