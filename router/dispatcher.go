package router

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/Shards-inc/AiPowerHouse/core"
	"github.com/Shards-inc/AiPowerHouse/logging"
	"github.com/Shards-inc/AiPowerHouse/provider"
)

// LoadBalanceAttempts is the number of sequential attempts LoadBalance makes
// on the candidate it picked.
const LoadBalanceAttempts = 3

// ProviderSource resolves a candidate to a provider instance. *registry.Registry
// satisfies it.
type ProviderSource interface {
	Get(kind core.ProviderKind, cfg core.ProviderConfig) (provider.Provider, error)
}

// Options configure a Dispatcher.
type Options struct {
	Logger logging.Logger
	// Rand picks the LoadBalance candidate. Defaults to a time seeded source.
	Rand *rand.Rand
}

// WithLogger sets the dispatcher logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithRand injects the randomness used by LoadBalance.
func WithRand(r *rand.Rand) func(o *Options) {
	return func(o *Options) { o.Rand = r }
}

// Dispatcher routes one request across an ordered candidate list according
// to the request's routing strategy.
type Dispatcher struct {
	source ProviderSource
	logger logging.Logger

	randMu sync.Mutex
	rand   *rand.Rand
}

// NewDispatcher creates a dispatcher resolving candidates through source.
func NewDispatcher(source ProviderSource, optFns ...func(o *Options)) *Dispatcher {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Dispatcher{
		source: source,
		logger: logging.OrNoOp(opts.Logger),
		rand:   opts.Rand,
	}
}

// Route dispatches req to candidates. The strategy comes from req.Routing,
// Primary when unset. Candidate order is significant for Primary, Fallback
// and tie-breaking.
func (d *Dispatcher) Route(ctx context.Context, req core.Request, candidates []core.Candidate) (*core.Response, error) {
	strategy := req.Strategy()
	if len(candidates) == 0 {
		return nil, core.NewValidationError("No provider configuration available", map[string]any{"strategy": string(strategy)})
	}

	start := time.Now()
	d.logger.Info("routing request", "request_id", req.ID, "strategy", string(strategy), "candidates", len(candidates))

	var (
		resp *core.Response
		err  error
	)
	switch strategy {
	case core.StrategyPrimary:
		resp, err = d.primary(ctx, req, candidates)
	case core.StrategyFallback:
		resp, err = d.fallback(ctx, req, candidates)
	case core.StrategyConsensus:
		resp, err = d.consensus(ctx, req, candidates)
	case core.StrategyLoadBalance:
		resp, err = d.loadBalance(ctx, req, candidates)
	case core.StrategyLatencyOptimized:
		resp, err = d.bestByMetric(ctx, req, candidates, func(m core.ProviderMetrics) float64 { return m.Latency })
	case core.StrategyCostOptimized:
		resp, err = d.bestByMetric(ctx, req, candidates, func(m core.ProviderMetrics) float64 { return float64(m.TokenUsage) })
	default:
		return nil, core.NewValidationError("Unknown routing strategy: "+string(strategy), map[string]any{"strategy": string(strategy)})
	}

	if l, ok := d.logger.(*logging.PowerHouseLogger); ok {
		l.LogRouting(string(strategy), len(candidates), time.Since(start), err == nil, err)
	} else if err != nil {
		d.logger.Warn("routing failed", "strategy", string(strategy), "error", err)
	}
	return resp, err
}

func (d *Dispatcher) send(ctx context.Context, req core.Request, c core.Candidate) (*core.Response, error) {
	p, err := d.source.Get(c.Kind, c.Config)
	if err != nil {
		return nil, err
	}
	return p.Send(ctx, req)
}

func (d *Dispatcher) primary(ctx context.Context, req core.Request, candidates []core.Candidate) (*core.Response, error) {
	return d.send(ctx, req, candidates[0])
}

func (d *Dispatcher) fallback(ctx context.Context, req core.Request, candidates []core.Candidate) (*core.Response, error) {
	errs := make([]error, 0, len(candidates))
	for _, c := range candidates {
		d.logger.Debug("trying provider", "provider", string(c.Kind))
		resp, err := d.send(ctx, req, c)
		if err == nil {
			return resp, nil
		}
		d.logger.Warn("provider failed", "provider", string(c.Kind), "error", err)
		errs = append(errs, err)
	}
	return nil, core.NewAggregateError("All providers", "All providers failed", errs)
}

type result struct {
	resp *core.Response
	err  error
}

func (d *Dispatcher) consensus(ctx context.Context, req core.Request, candidates []core.Candidate) (*core.Response, error) {
	results := make([]result, len(candidates))

	var wg sync.WaitGroup
	for i, c := range candidates {
		wg.Add(1)
		go func(i int, c core.Candidate) {
			defer wg.Done()
			resp, err := d.send(ctx, req, c)
			results[i] = result{resp: resp, err: err}
		}(i, c)
	}
	wg.Wait()

	responses := make([]*core.Response, 0, len(results))
	var errs []error
	for i, r := range results {
		if r.err != nil {
			d.logger.Warn("provider failed in consensus routing", "provider", string(candidates[i].Kind), "error", r.err)
			errs = append(errs, r.err)
			continue
		}
		responses = append(responses, r.resp)
	}
	if len(responses) == 0 {
		return nil, core.NewAggregateError("Consensus", "All providers failed in consensus routing", errs)
	}

	sort.SliceStable(responses, func(i, j int) bool {
		a, b := responses[i], responses[j]
		if a.Confidence != nil && b.Confidence != nil {
			return *a.Confidence > *b.Confidence
		}
		return a.Latency < b.Latency
	})
	return responses[0], nil
}

func (d *Dispatcher) loadBalance(ctx context.Context, req core.Request, candidates []core.Candidate) (*core.Response, error) {
	d.randMu.Lock()
	idx := d.rand.Intn(len(candidates))
	d.randMu.Unlock()

	c := candidates[idx]
	p, err := d.source.Get(c.Kind, c.Config)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= LoadBalanceAttempts; attempt++ {
		resp, err := p.Send(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		d.logger.Warn("load balanced attempt failed", "provider", string(c.Kind), "attempt", attempt, "error", err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

// bestByMetric sends to the candidate with the lowest cached metric value.
// Ties keep candidate order. Selection makes no network calls.
func (d *Dispatcher) bestByMetric(ctx context.Context, req core.Request, candidates []core.Candidate, metric func(core.ProviderMetrics) float64) (*core.Response, error) {
	var (
		best      provider.Provider
		bestValue float64
	)
	for _, c := range candidates {
		p, err := d.source.Get(c.Kind, c.Config)
		if err != nil {
			return nil, err
		}
		v := metric(p.Metrics())
		if best == nil || v < bestValue {
			best, bestValue = p, v
		}
	}
	return best.Send(ctx, req)
}
