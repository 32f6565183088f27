// Package aipowerhouse provides the request pipeline façade over the
// provider registry, routing dispatcher, governance screen and session store.
// Most applications interact with this package by:
//  1. Creating a PowerHouse via New() or FromConfig()
//  2. Calling Prompt with a prompt and optional routing hints
//  3. Inspecting the governance issues and provider metrics on the result
//
// Every collaborator defaults to an in-memory implementation, so a
// PowerHouse is usable in tests without further wiring.
package aipowerhouse

import (
	"context"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/Shards-inc/AiPowerHouse/config"
	"github.com/Shards-inc/AiPowerHouse/core"
	"github.com/Shards-inc/AiPowerHouse/governance"
	"github.com/Shards-inc/AiPowerHouse/logging"
	"github.com/Shards-inc/AiPowerHouse/provider"
	"github.com/Shards-inc/AiPowerHouse/provider/anthropic"
	"github.com/Shards-inc/AiPowerHouse/provider/gemini"
	"github.com/Shards-inc/AiPowerHouse/provider/openai"
	"github.com/Shards-inc/AiPowerHouse/registry"
	"github.com/Shards-inc/AiPowerHouse/router"
	"github.com/Shards-inc/AiPowerHouse/session"
)

// ConfigSource supplies the configuration of each provider kind.
// *config.Config implements it.
type ConfigSource interface {
	ProviderConfig(kind core.ProviderKind) (core.ProviderConfig, error)
}

// Options configures the PowerHouse instance.
type Options struct {
	// Config supplies provider configurations. Defaults to config.Default().
	Config ConfigSource

	// DefaultStrategy applies when neither the input nor a playbook names one.
	DefaultStrategy core.RoutingStrategy

	// Governance is the policy of the default Screen. Ignored when Screen is set.
	Governance governance.Config

	// Collaborators (defaults to in-memory implementations if not provided)
	Registry  *registry.Registry
	Screen    *governance.Screen
	Sessions  core.SessionStore
	Playbooks *router.Playbooks

	// HTTPClient is passed to the default registry's adapters.
	HTTPClient *http.Client
	// Rand drives LoadBalance candidate selection.
	Rand *rand.Rand

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// PowerHouse runs prompts through governance, routing and session tracking.
type PowerHouse struct {
	cfg        ConfigSource
	strategy   core.RoutingStrategy
	registry   *registry.Registry
	dispatcher *router.Dispatcher
	screen     *governance.Screen
	sessions   core.SessionStore
	playbooks  *router.Playbooks
	logger     logging.Logger
}

// New creates a PowerHouse with optional overrides.
func New(optFns ...func(o *Options)) *PowerHouse {
	opts := Options{
		DefaultStrategy: core.StrategyPrimary,
		Governance:      governance.DefaultConfig(),
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	logger := logging.OrNoOp(opts.Logger)

	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Registry == nil {
		opts.Registry = registry.New(
			registry.WithHTTPClient(opts.HTTPClient),
			registry.WithLogger(logging.ForComponent(logger, "provider")),
		)
	}
	if opts.Screen == nil {
		opts.Screen = governance.NewScreen(opts.Governance, func(o *governance.Options) {
			o.Logger = logging.ForComponent(logger, "governance")
		})
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewInMemoryStore(func(o *session.Options) {
			o.Logger = logging.ForComponent(logger, "session")
		})
	}
	if opts.Playbooks == nil {
		opts.Playbooks = router.NewPlaybooks(logging.ForComponent(logger, "router"), router.DefaultPlaybooks()...)
	}

	dispatcherOpts := []func(o *router.Options){router.WithLogger(logging.ForComponent(logger, "router"))}
	if opts.Rand != nil {
		dispatcherOpts = append(dispatcherOpts, router.WithRand(opts.Rand))
	}

	return &PowerHouse{
		cfg:        opts.Config,
		strategy:   opts.DefaultStrategy,
		registry:   opts.Registry,
		dispatcher: router.NewDispatcher(opts.Registry, dispatcherOpts...),
		screen:     opts.Screen,
		sessions:   opts.Sessions,
		playbooks:  opts.Playbooks,
		logger:     logging.ForComponent(logger, "pipeline"),
	}
}

// FromConfig creates a PowerHouse whose providers, governance policy and
// default strategy come from cfg.
func FromConfig(cfg *config.Config, optFns ...func(o *Options)) *PowerHouse {
	return New(append([]func(o *Options){func(o *Options) {
		o.Config = cfg
		o.DefaultStrategy = cfg.Routing.DefaultStrategy
		o.Governance = cfg.GovernanceConfig()
	}}, optFns...)...)
}

// PromptInput is one caller submission.
type PromptInput struct {
	Prompt     string
	Context    string
	ProviderID string
	Routing    string
	PlaybookID string
	SessionID  string
	UserID     string
	IP         string
}

// RequestInfo identifies the submitted request.
type RequestInfo struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// GovernanceInfo carries the issues found on both sides of the call.
type GovernanceInfo struct {
	RequestIssues  []string `json:"requestIssues"`
	ResponseIssues []string `json:"responseIssues"`
}

// PromptResult is the outcome of a successful Prompt.
type PromptResult struct {
	Request    RequestInfo    `json:"request"`
	Response   *core.Response `json:"response"`
	Governance GovernanceInfo `json:"governance"`
}

// Prompt screens, routes and records one prompt. Failures are
// *core.ValidationError (bad input or a governance block),
// *core.ProviderError, *core.TimeoutError or *core.AggregateError.
func (p *PowerHouse) Prompt(ctx context.Context, in PromptInput) (*PromptResult, error) {
	if in.Prompt == "" {
		return nil, core.NewValidationError("prompt is required", nil)
	}

	req := core.NewRequest(in.Prompt)
	req.Context = in.Context
	req.Metadata["userId"] = in.UserID
	req.Metadata["ip"] = in.IP

	if in.ProviderID != "" {
		kind, err := core.ParseProviderKind(in.ProviderID)
		if err != nil {
			return nil, err
		}
		req.ProviderID = kind
	}

	var playbook *router.Playbook
	if in.PlaybookID != "" {
		pb, err := p.playbooks.Resolve(in.PlaybookID)
		if err != nil {
			return nil, err
		}
		playbook = &pb
	}

	strategy, err := p.resolveStrategy(in.Routing, playbook)
	if err != nil {
		return nil, err
	}
	req.Routing = strategy

	logger := p.logger
	if pl, ok := logger.(*logging.PowerHouseLogger); ok {
		logger = pl.WithRequest(req.ID)
	}

	screened := p.screen.ScreenOutgoing(req)
	if !screened.Permitted {
		logger.Warn("request blocked by governance", "issues", screened.Issues)
		return nil, core.NewValidationError("Request validation failed", map[string]any{"issues": screened.Issues})
	}

	candidates, err := p.candidates(req.ProviderID, playbook)
	if err != nil {
		return nil, err
	}

	resp, err := p.dispatcher.Route(ctx, *screened.Sanitized, candidates)
	if err != nil {
		return nil, err
	}

	incoming := p.screen.ScreenIncoming(*resp)

	if in.SessionID != "" {
		if err := p.sessions.AppendRequest(in.SessionID, req); err != nil {
			logger.Warn("failed to add request to session", "session_id", in.SessionID, "error", err)
		}
	}

	return &PromptResult{
		Request:  RequestInfo{ID: req.ID, Timestamp: req.CreatedAt},
		Response: incoming.Sanitized,
		Governance: GovernanceInfo{
			RequestIssues:  nonNil(screened.Issues),
			ResponseIssues: nonNil(incoming.Issues),
		},
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (p *PowerHouse) resolveStrategy(routing string, playbook *router.Playbook) (core.RoutingStrategy, error) {
	switch {
	case routing != "":
		return core.ParseRoutingStrategy(routing)
	case playbook != nil && playbook.Strategy != "":
		return playbook.Strategy, nil
	case p.strategy != "":
		return p.strategy, nil
	default:
		return core.StrategyPrimary, nil
	}
}

// candidates resolves the ordered candidate list: an explicit provider, the
// playbook's providers, or the default trio.
func (p *PowerHouse) candidates(explicit core.ProviderKind, playbook *router.Playbook) ([]core.Candidate, error) {
	kinds := core.DefaultProviders
	switch {
	case explicit != "":
		kinds = []core.ProviderKind{explicit}
	case playbook != nil:
		kinds = playbook.Providers
	}

	out := make([]core.Candidate, 0, len(kinds))
	for _, kind := range kinds {
		cfg, err := p.cfg.ProviderConfig(kind)
		if err != nil {
			return nil, err
		}
		out = append(out, core.Candidate{Kind: kind, Config: cfg})
	}
	return out, nil
}

// ProviderInfo describes one provider kind.
type ProviderInfo struct {
	ID        core.ProviderKind `json:"id"`
	Name      string            `json:"name"`
	Available bool              `json:"available"`
}

var displayNames = map[core.ProviderKind]string{
	core.ProviderChatGPT: openai.Name,
	core.ProviderClaude:  anthropic.Name,
	core.ProviderGemini:  gemini.Name,
}

// Providers lists every supported kind; a kind is available when its
// configuration carries a credential.
func (p *PowerHouse) Providers() []ProviderInfo {
	out := make([]ProviderInfo, 0, len(core.DefaultProviders))
	for _, kind := range core.DefaultProviders {
		cfg, err := p.cfg.ProviderConfig(kind)
		out = append(out, ProviderInfo{
			ID:        kind,
			Name:      displayNames[kind],
			Available: err == nil && cfg.APIKey != "",
		})
	}
	return out
}

// AggregateMetrics summarizes every adapter the registry has created.
type AggregateMetrics struct {
	TotalRequests  int64   `json:"totalRequests"`
	AverageLatency float64 `json:"averageLatency"`
	TotalTokens    int64   `json:"totalTokens"`
	ErrorRate      float64 `json:"errorRate"`
}

// Metrics aggregates adapter metrics. Latency and error rate are averaged
// over adapters that served at least one request.
func (p *PowerHouse) Metrics() AggregateMetrics {
	var (
		agg    AggregateMetrics
		active int
	)
	for _, prov := range p.registry.All() {
		m := prov.Metrics()
		agg.TotalRequests += m.RequestCount
		agg.TotalTokens += m.TokenUsage
		if m.RequestCount == 0 {
			continue
		}
		active++
		agg.AverageLatency += m.Latency
		agg.ErrorRate += m.ErrorRate
	}
	if active > 0 {
		agg.AverageLatency /= float64(active)
		agg.ErrorRate /= float64(active)
	}
	return agg
}

// HealthCheck probes every configured provider concurrently. Kinds that
// cannot be constructed (missing credential) report false.
func (p *PowerHouse) HealthCheck(ctx context.Context) map[core.ProviderKind]bool {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make(map[core.ProviderKind]bool, len(core.DefaultProviders))
	)
	for _, kind := range core.DefaultProviders {
		wg.Add(1)
		go func(kind core.ProviderKind) {
			defer wg.Done()
			ok := false
			if prov, err := p.provider(kind); err == nil {
				ok = prov.HealthCheck(ctx)
			}
			mu.Lock()
			out[kind] = ok
			mu.Unlock()
		}(kind)
	}
	wg.Wait()
	return out
}

func (p *PowerHouse) provider(kind core.ProviderKind) (provider.Provider, error) {
	cfg, err := p.cfg.ProviderConfig(kind)
	if err != nil {
		return nil, err
	}
	return p.registry.Get(kind, cfg)
}

// Governance returns the governance screen.
func (p *PowerHouse) Governance() *governance.Screen { return p.screen }

// Sessions returns the session store.
func (p *PowerHouse) Sessions() core.SessionStore { return p.sessions }

// Playbooks returns the playbook book.
func (p *PowerHouse) Playbooks() *router.Playbooks { return p.playbooks }

// Registry returns the provider registry.
func (p *PowerHouse) Registry() *registry.Registry { return p.registry }
