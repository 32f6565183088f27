package provider

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/Shards-inc/AiPowerHouse/core"
	"github.com/Shards-inc/AiPowerHouse/logging"
)

// CallFunc performs the vendor specific part of a call. The context it
// receives already carries the call deadline.
type CallFunc func(ctx context.Context) (*core.Response, error)

// Executor runs vendor calls under a deadline, classifies their failures and
// feeds the outcome into a Tracker. Adapters hold one Executor each.
type Executor struct {
	name    string
	tracker *Tracker
	limiter *rate.Limiter
	logger  logging.Logger
}

// ExecutorOptions configures an Executor.
type ExecutorOptions struct {
	// RequestsPerSecond throttles calls. Zero disables throttling.
	RequestsPerSecond float64
	// Logger receives call outcomes. Defaults to NoOp.
	Logger logging.Logger
}

// NewExecutor creates an Executor for the named adapter.
func NewExecutor(name string, optFns ...func(o *ExecutorOptions)) *Executor {
	opts := ExecutorOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	e := &Executor{
		name:    name,
		tracker: NewTracker(),
		logger:  logging.OrNoOp(opts.Logger),
	}
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		e.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return e
}

// Tracker exposes the metrics owned by this executor.
func (e *Executor) Tracker() *Tracker { return e.tracker }

// Exec runs call bounded by timeout. On success the response latency is set
// to the measured duration and metrics are updated; on failure the error rate
// is updated and the error is re-signaled as a ProviderError or TimeoutError.
func (e *Executor) Exec(ctx context.Context, timeout time.Duration, call CallFunc) (*core.Response, error) {
	if timeout <= 0 {
		timeout = core.DefaultProviderTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	if e.limiter != nil {
		if err := e.limiter.Wait(callCtx); err != nil {
			e.tracker.RecordFailure()
			e.logger.Error(e.name+" request throttled past deadline", "error", err)
			return nil, core.NewTimeoutError(e.name + " request timed out")
		}
	}

	resp, err := call(callCtx)
	elapsed := time.Since(start)
	if err == nil && resp == nil {
		err = core.NewProviderError(e.name, "empty response")
	}
	if err != nil {
		e.tracker.RecordFailure()
		classified := e.classify(callCtx, err)
		e.logCall(0, elapsed, classified)
		return nil, classified
	}

	resp.Latency = elapsed.Milliseconds()
	e.tracker.RecordSuccess(elapsed, resp.TokensUsed)
	e.logCall(resp.TokensUsed, elapsed, nil)

	return resp, nil
}

func (e *Executor) logCall(tokens int64, elapsed time.Duration, err error) {
	if l, ok := e.logger.(*logging.PowerHouseLogger); ok {
		l.LogProviderCall(e.name, tokens, elapsed, err == nil, err)
		return
	}
	if err != nil {
		e.logger.Error(e.name+" request failed", "error", err, "duration", elapsed)
		return
	}
	e.logger.Debug(e.name+" request completed", "duration", elapsed, "tokens", tokens)
}

func (e *Executor) classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return core.NewTimeoutError(e.name + " request timed out")
	}

	var timeoutErr *core.TimeoutError
	if errors.As(err, &timeoutErr) {
		return timeoutErr
	}

	var providerErr *core.ProviderError
	if errors.As(err, &providerErr) {
		return providerErr
	}

	return core.NewProviderError(e.name, err.Error())
}

// Probe runs a health check function bounded by HealthCheckTimeout. It never
// touches metrics and reports false on any failure, including a panic inside probe.
func Probe(ctx context.Context, probe func(ctx context.Context) error) (ok bool) {
	probeCtx, cancel := context.WithTimeout(ctx, HealthCheckTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	if err := probe(probeCtx); err != nil {
		return false
	}
	return probeCtx.Err() == nil
}
