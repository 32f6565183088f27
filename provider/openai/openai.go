// Package openai provides an implementation of provider.Provider using the
// OpenAI Chat Completions API. It adapts AiPowerHouse's uniform Request into
// the SDK's message array (bearer auth, optional system message) and the
// completion back into a core.Response.
package openai

import (
	"context"
	"errors"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tidwall/gjson"

	"github.com/Shards-inc/AiPowerHouse/core"
	"github.com/Shards-inc/AiPowerHouse/logging"
	"github.com/Shards-inc/AiPowerHouse/provider"
)

// Name is the display name of this adapter.
const Name = "ChatGPT"

// DefaultModel is used when the config leaves Model empty.
const DefaultModel = "gpt-4"

const fallbackErrorMessage = "OpenAI API request failed"

// Options configure the OpenAI adapter beyond the per-call ProviderConfig.
type Options struct {
	// HTTPClient overrides the SDK's default client (tests, proxies).
	HTTPClient *http.Client
	Logger     logging.Logger
}

// Model wraps the OpenAI Chat Completions API behind provider.Provider.
type Model struct {
	client openai.Client
	cfg    core.ProviderConfig
	exec   *provider.Executor
}

// New creates an adapter for the endpoint in cfg. It fails with a
// ValidationError when the credential or endpoint is missing.
func New(cfg core.ProviderConfig, optFns ...func(o *Options)) (*Model, error) {
	if err := provider.ValidateConfig(Name, cfg); err != nil {
		return nil, err
	}

	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.Endpoint),
		// Retries are owned by the router's LoadBalance strategy.
		option.WithMaxRetries(0),
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	return &Model{
		client: openai.NewClient(clientOpts...),
		cfg:    cfg,
		exec: provider.NewExecutor(Name, func(o *provider.ExecutorOptions) {
			o.RequestsPerSecond = cfg.RequestsPerSecond
			o.Logger = opts.Logger
		}),
	}, nil
}

// Kind implements provider.Provider.
func (m *Model) Kind() core.ProviderKind { return core.ProviderChatGPT }

// Name implements provider.Provider.
func (m *Model) Name() string { return Name }

// Send implements provider.Provider.
func (m *Model) Send(ctx context.Context, req core.Request) (*core.Response, error) {
	return m.exec.Exec(ctx, m.cfg.CallTimeout(), func(ctx context.Context) (*core.Response, error) {
		resp, err := m.client.Chat.Completions.New(ctx, m.buildParams(req))
		if err != nil {
			return nil, m.wrapError(err)
		}
		if len(resp.Choices) == 0 {
			return nil, core.NewProviderError(Name, "no choices returned")
		}
		return core.NewResponse(req.ID, core.ProviderChatGPT, resp.Choices[0].Message.Content, resp.Usage.TotalTokens), nil
	})
}

// buildMessages places the optional context as a system message ahead of the prompt.
func buildMessages(req core.Request) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.Context != "" {
		messages = append(messages, openai.SystemMessage(req.Context))
	}
	return append(messages, openai.UserMessage(req.Prompt))
}

func (m *Model) buildParams(req core.Request) openai.ChatCompletionNewParams {
	model := m.cfg.Model
	if model == "" {
		model = DefaultModel
	}
	params := openai.ChatCompletionNewParams{
		Model:       model,
		Messages:    buildMessages(req),
		Temperature: openai.Float(provider.Temperature(m.cfg)),
	}
	if m.cfg.MaxTokens > 0 {
		params.MaxTokens = openai.Int(m.cfg.MaxTokens)
	}
	return params
}

// wrapError surfaces the backend's embedded error message when present.
func (m *Model) wrapError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	msg := apiErr.Message
	if msg == "" {
		raw := apiErr.RawJSON()
		msg = gjson.Get(raw, "error.message").String()
		if msg == "" {
			msg = gjson.Get(raw, "message").String()
		}
	}
	if msg == "" {
		msg = fallbackErrorMessage
	}
	pe := core.NewProviderError(Name, msg)
	pe.Details = map[string]any{"status": apiErr.StatusCode}
	return pe
}

// HealthCheck lists models as a lightweight probe.
func (m *Model) HealthCheck(ctx context.Context) bool {
	return provider.Probe(ctx, func(ctx context.Context) error {
		_, err := m.client.Models.List(ctx)
		return err
	})
}

// Metrics implements provider.Provider.
func (m *Model) Metrics() core.ProviderMetrics { return m.exec.Tracker().Snapshot() }

// ResetMetrics implements provider.Provider.
func (m *Model) ResetMetrics() { m.exec.Tracker().Reset() }
