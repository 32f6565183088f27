package registry

import (
	"net/http"
	"sort"
	"sync"

	"github.com/Shards-inc/AiPowerHouse/core"
	"github.com/Shards-inc/AiPowerHouse/logging"
	"github.com/Shards-inc/AiPowerHouse/provider"
	"github.com/Shards-inc/AiPowerHouse/provider/anthropic"
	"github.com/Shards-inc/AiPowerHouse/provider/gemini"
	"github.com/Shards-inc/AiPowerHouse/provider/openai"
)

// Factory constructs a provider for a configuration.
type Factory func(cfg core.ProviderConfig) (provider.Provider, error)

// Options configure a Registry.
type Options struct {
	// HTTPClient is handed to every built-in adapter. Nil keeps the SDK defaults.
	HTTPClient *http.Client
	Logger     logging.Logger
	// Factories override or extend the built-in kind constructors.
	Factories map[core.ProviderKind]Factory
}

// WithFactory registers fn as the constructor for kind.
func WithFactory(kind core.ProviderKind, fn Factory) func(o *Options) {
	return func(o *Options) {
		if o.Factories == nil {
			o.Factories = make(map[core.ProviderKind]Factory)
		}
		o.Factories[kind] = fn
	}
}

// WithHTTPClient sets the transport shared by built-in adapters.
func WithHTTPClient(c *http.Client) func(o *Options) {
	return func(o *Options) { o.HTTPClient = c }
}

// WithLogger sets the logger used by the registry and its adapters.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// Registry memoizes provider instances by kind and endpoint so repeated
// requests reuse one adapter and its metrics.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]provider.Provider
	factories map[core.ProviderKind]Factory
	logger    logging.Logger
}

// New creates an empty registry with the built-in factories.
func New(optFns ...func(o *Options)) *Registry {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	logger := logging.OrNoOp(opts.Logger)

	r := &Registry{
		providers: make(map[string]provider.Provider),
		factories: builtinFactories(opts.HTTPClient, logger),
		logger:    logger,
	}
	for kind, fn := range opts.Factories {
		r.factories[kind] = fn
	}
	return r
}

func builtinFactories(httpClient *http.Client, logger logging.Logger) map[core.ProviderKind]Factory {
	return map[core.ProviderKind]Factory{
		core.ProviderChatGPT: func(cfg core.ProviderConfig) (provider.Provider, error) {
			return openai.New(cfg, func(o *openai.Options) {
				o.HTTPClient = httpClient
				o.Logger = logger
			})
		},
		core.ProviderClaude: func(cfg core.ProviderConfig) (provider.Provider, error) {
			return anthropic.New(cfg, func(o *anthropic.Options) {
				o.HTTPClient = httpClient
				o.Logger = logger
			})
		},
		core.ProviderGemini: func(cfg core.ProviderConfig) (provider.Provider, error) {
			return gemini.New(cfg, func(o *gemini.Options) {
				o.HTTPClient = httpClient
				o.Logger = logger
			})
		},
	}
}

func key(kind core.ProviderKind, endpoint string) string {
	return string(kind) + "-" + endpoint
}

// Get returns the provider registered for kind and cfg.Endpoint, creating it
// on first use. Later calls ignore the rest of cfg and return the cached
// instance.
func (r *Registry) Get(kind core.ProviderKind, cfg core.ProviderConfig) (provider.Provider, error) {
	k := key(kind, cfg.Endpoint)

	r.mu.RLock()
	p, ok := r.providers[k]
	r.mu.RUnlock()
	if ok {
		return p, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check: another goroutine may have created it meanwhile.
	if p, ok := r.providers[k]; ok {
		return p, nil
	}

	factory, ok := r.factories[kind]
	if !ok {
		return nil, core.NewValidationError("unsupported provider type: "+string(kind), map[string]any{"provider": string(kind)})
	}
	p, err := factory(cfg)
	if err != nil {
		return nil, err
	}
	r.providers[k] = p
	r.logger.Debug("provider registered", "provider", string(kind), "endpoint", cfg.Endpoint)
	return p, nil
}

// Remove evicts one provider. It reports whether an entry existed.
func (r *Registry) Remove(kind core.ProviderKind, endpoint string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(kind, endpoint)
	if _, ok := r.providers[k]; !ok {
		return false
	}
	delete(r.providers, k)
	return true
}

// RemoveAll evicts every provider.
func (r *Registry) RemoveAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = make(map[string]provider.Provider)
}

// All returns every registered provider ordered by registry key.
func (r *Registry) All() []provider.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.providers))
	for k := range r.providers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]provider.Provider, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.providers[k])
	}
	return out
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
