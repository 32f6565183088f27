package router

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shards-inc/AiPowerHouse/core"
	"github.com/Shards-inc/AiPowerHouse/internal/testutil"
	"github.com/Shards-inc/AiPowerHouse/provider"
)

// fakeSource resolves kinds to pre-built providers; unknown kinds fail the
// way the registry does.
type fakeSource map[core.ProviderKind]provider.Provider

func (s fakeSource) Get(kind core.ProviderKind, _ core.ProviderConfig) (provider.Provider, error) {
	p, ok := s[kind]
	if !ok {
		return nil, core.NewValidationError("unsupported provider type: "+string(kind), nil)
	}
	return p, nil
}

func candidates(kinds ...core.ProviderKind) []core.Candidate {
	out := make([]core.Candidate, len(kinds))
	for i, k := range kinds {
		out[i] = core.Candidate{Kind: k}
	}
	return out
}

func request(strategy core.RoutingStrategy) core.Request {
	req := core.NewRequest("hello")
	req.Routing = strategy
	return req
}

func TestRoute_EmptyCandidates(t *testing.T) {
	d := NewDispatcher(fakeSource{})
	_, err := d.Route(context.Background(), request(core.StrategyFallback), nil)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestRoute_UnknownStrategy(t *testing.T) {
	a := testutil.NewFakeProvider("a")
	d := NewDispatcher(fakeSource{"a": a})

	_, err := d.Route(context.Background(), request("round-robin"), candidates("a"))
	require.ErrorIs(t, err, core.ErrValidation)
	assert.Contains(t, err.Error(), "round-robin")
	assert.Zero(t, a.Calls())
}

func TestRoute_PrimaryUsesFirstCandidateOnly(t *testing.T) {
	a := testutil.NewFakeProvider("a").Fail(nil)
	b := testutil.NewFakeProvider("b")
	d := NewDispatcher(fakeSource{"a": a, "b": b})

	_, err := d.Route(context.Background(), request(""), candidates("a", "b"))
	require.ErrorIs(t, err, core.ErrProvider)
	assert.Equal(t, 1, a.Calls())
	assert.Zero(t, b.Calls())
}

func TestRoute_FallbackSkipsFailures(t *testing.T) {
	a := testutil.NewFakeProvider("a").Fail(nil)
	b := testutil.NewFakeProvider("b").Fail(nil)
	c := testutil.NewFakeProvider("c").Succeed("from c")
	d := NewDispatcher(fakeSource{"a": a, "b": b, "c": c})

	resp, err := d.Route(context.Background(), request(core.StrategyFallback), candidates("a", "b", "c"))
	require.NoError(t, err)
	assert.Equal(t, "from c", resp.Content)
	assert.Equal(t, 1, a.Calls())
	assert.Equal(t, 1, b.Calls())
	assert.Equal(t, 1, c.Calls())
}

func TestRoute_FallbackStopsAtFirstSuccess(t *testing.T) {
	a := testutil.NewFakeProvider("a").Succeed("from a")
	b := testutil.NewFakeProvider("b")
	d := NewDispatcher(fakeSource{"a": a, "b": b})

	resp, err := d.Route(context.Background(), request(core.StrategyFallback), candidates("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, "from a", resp.Content)
	assert.Zero(t, b.Calls())
}

func TestRoute_FallbackAllFailAggregatesEveryMessage(t *testing.T) {
	a := testutil.NewFakeProvider("a").Fail(errors.New("quota exceeded"))
	b := testutil.NewFakeProvider("b").Fail(errors.New("bad gateway"))
	d := NewDispatcher(fakeSource{"a": a, "b": b})

	// "missing" is not resolvable and counts as a failed candidate.
	_, err := d.Route(context.Background(), request(core.StrategyFallback), candidates("a", "missing", "b"))
	require.Error(t, err)

	var agg *core.AggregateError
	require.ErrorAs(t, err, &agg)
	msgs := agg.Messages()
	require.Len(t, msgs, 3)
	assert.Contains(t, msgs[0], "quota exceeded")
	assert.Contains(t, msgs[1], "unsupported provider type: missing")
	assert.Contains(t, msgs[2], "bad gateway")
	assert.ErrorIs(t, err, core.ErrProvider)
	assert.Equal(t, http.StatusBadGateway, core.StatusCode(err), "an unresolvable candidate does not turn exhaustion into bad input")
}

func TestRoute_ConsensusIgnoresFailures(t *testing.T) {
	a := testutil.NewFakeProvider("a").Fail(nil)
	b := testutil.NewFakeProvider("b").Succeed("only success")
	c := testutil.NewFakeProvider("c").Fail(nil)
	d := NewDispatcher(fakeSource{"a": a, "b": b, "c": c})

	resp, err := d.Route(context.Background(), request(core.StrategyConsensus), candidates("a", "b", "c"))
	require.NoError(t, err)
	assert.Equal(t, "only success", resp.Content)
	assert.Equal(t, 1, a.Calls())
	assert.Equal(t, 1, c.Calls())
}

func TestRoute_ConsensusPicksHighestConfidence(t *testing.T) {
	a := testutil.NewFakeProvider("a").Then(testutil.FakeResult{Content: "a", Confidence: core.Float(0.9)})
	b := testutil.NewFakeProvider("b").Then(testutil.FakeResult{Content: "b", Confidence: core.Float(0.5)})
	c := testutil.NewFakeProvider("c").Then(testutil.FakeResult{Content: "c", Confidence: core.Float(0.7)})
	d := NewDispatcher(fakeSource{"a": a, "b": b, "c": c})

	resp, err := d.Route(context.Background(), request(core.StrategyConsensus), candidates("b", "c", "a"))
	require.NoError(t, err)
	assert.Equal(t, "a", resp.Content)
}

func TestRoute_ConsensusWithoutConfidencePrefersLowLatency(t *testing.T) {
	slow := testutil.NewFakeProvider("slow").Then(testutil.FakeResult{Content: "slow", Delay: 80 * time.Millisecond})
	fast := testutil.NewFakeProvider("fast").Succeed("fast")
	d := NewDispatcher(fakeSource{"slow": slow, "fast": fast})

	resp, err := d.Route(context.Background(), request(core.StrategyConsensus), candidates("slow", "fast"))
	require.NoError(t, err)
	assert.Equal(t, "fast", resp.Content)
}

func TestRoute_ConsensusWaitsForSlowerHigherConfidence(t *testing.T) {
	fast := testutil.NewFakeProvider("fast").Then(testutil.FakeResult{Content: "fast", Confidence: core.Float(0.4)})
	slow := testutil.NewFakeProvider("slow").Then(testutil.FakeResult{Content: "slow", Confidence: core.Float(0.95), Delay: 100 * time.Millisecond})
	d := NewDispatcher(fakeSource{"fast": fast, "slow": slow})

	resp, err := d.Route(context.Background(), request(core.StrategyConsensus), candidates("fast", "slow"))
	require.NoError(t, err)
	assert.Equal(t, "slow", resp.Content)
	assert.Equal(t, 1, fast.Calls())
	assert.Equal(t, 1, slow.Calls())
	assert.EqualValues(t, 1, slow.Metrics().RequestCount, "the slow call completed instead of being cancelled")
	assert.Zero(t, slow.Metrics().ErrorRate)
}

func TestRoute_ConsensusAllFail(t *testing.T) {
	a := testutil.NewFakeProvider("a").Fail(nil)
	b := testutil.NewFakeProvider("b").Fail(nil)
	d := NewDispatcher(fakeSource{"a": a, "b": b})

	_, err := d.Route(context.Background(), request(core.StrategyConsensus), candidates("a", "b"))
	var agg *core.AggregateError
	require.ErrorAs(t, err, &agg)
	assert.Equal(t, "Consensus", agg.Provider)
	assert.Len(t, agg.Errors, 2)
}

func TestRoute_LoadBalanceRetriesUpToThreeTimes(t *testing.T) {
	a := testutil.NewFakeProvider("a").Fail(nil)
	d := NewDispatcher(fakeSource{"a": a}, WithRand(rand.New(rand.NewSource(1))))

	_, err := d.Route(context.Background(), request(core.StrategyLoadBalance), candidates("a"))
	require.ErrorIs(t, err, core.ErrProvider)
	assert.Equal(t, LoadBalanceAttempts, a.Calls())
}

func TestRoute_LoadBalanceRecoversWithinAttempts(t *testing.T) {
	a := testutil.NewFakeProvider("a").Fail(nil).Fail(nil).Succeed("third time")
	d := NewDispatcher(fakeSource{"a": a})

	resp, err := d.Route(context.Background(), request(core.StrategyLoadBalance), candidates("a"))
	require.NoError(t, err)
	assert.Equal(t, "third time", resp.Content)
	assert.Equal(t, 3, a.Calls())
}

func TestRoute_LoadBalanceSpreadsAcrossCandidates(t *testing.T) {
	src := fakeSource{
		"a": testutil.NewFakeProvider("a"),
		"b": testutil.NewFakeProvider("b"),
		"c": testutil.NewFakeProvider("c"),
	}
	d := NewDispatcher(src, WithRand(rand.New(rand.NewSource(42))))

	for i := 0; i < 300; i++ {
		_, err := d.Route(context.Background(), request(core.StrategyLoadBalance), candidates("a", "b", "c"))
		require.NoError(t, err)
	}
	for kind, p := range src {
		assert.Positive(t, p.(*testutil.FakeProvider).Calls(), "candidate %s never picked", kind)
	}
}

func TestRoute_LatencyOptimized(t *testing.T) {
	a := testutil.NewFakeProvider("a").WithAverageLatency(120)
	b := testutil.NewFakeProvider("b").WithAverageLatency(80)
	c := testutil.NewFakeProvider("c").WithAverageLatency(200)
	d := NewDispatcher(fakeSource{"a": a, "b": b, "c": c})

	resp, err := d.Route(context.Background(), request(core.StrategyLatencyOptimized), candidates("a", "b", "c"))
	require.NoError(t, err)
	assert.Equal(t, core.ProviderKind("b"), resp.ProviderID)
	assert.Zero(t, a.Calls())
	assert.Zero(t, c.Calls())
}

func TestRoute_LatencyTieKeepsCandidateOrder(t *testing.T) {
	a := testutil.NewFakeProvider("a")
	b := testutil.NewFakeProvider("b")
	d := NewDispatcher(fakeSource{"a": a, "b": b})

	resp, err := d.Route(context.Background(), request(core.StrategyLatencyOptimized), candidates("b", "a"))
	require.NoError(t, err)
	assert.Equal(t, core.ProviderKind("b"), resp.ProviderID)
}

func TestRoute_CostOptimized(t *testing.T) {
	a := testutil.NewFakeProvider("a").WithTokenUsage(5000)
	b := testutil.NewFakeProvider("b").WithTokenUsage(900)
	c := testutil.NewFakeProvider("c").WithTokenUsage(1200)
	d := NewDispatcher(fakeSource{"a": a, "b": b, "c": c})

	resp, err := d.Route(context.Background(), request(core.StrategyCostOptimized), candidates("a", "b", "c"))
	require.NoError(t, err)
	assert.Equal(t, core.ProviderKind("b"), resp.ProviderID)
}
