// Package anthropic provides an implementation of provider.Provider using the
// Anthropic Messages API. The optional request context travels in the
// dedicated system field rather than as a message.
package anthropic

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/tidwall/gjson"

	"github.com/Shards-inc/AiPowerHouse/core"
	"github.com/Shards-inc/AiPowerHouse/logging"
	"github.com/Shards-inc/AiPowerHouse/provider"
)

// Name is the display name of this adapter.
const Name = "Claude"

// DefaultModel is used when the config leaves Model empty.
const DefaultModel = "claude-3-opus-20240229"

// DefaultMaxTokens is sent when the config leaves MaxTokens at zero; the
// Messages API requires the field.
const DefaultMaxTokens int64 = 4096

const fallbackErrorMessage = "Anthropic API request failed"

// Options configure the Anthropic adapter.
type Options struct {
	HTTPClient *http.Client
	Logger     logging.Logger
}

// Model wraps the Anthropic Messages API behind provider.Provider.
type Model struct {
	client anthropic.Client
	cfg    core.ProviderConfig
	exec   *provider.Executor
}

// New creates an adapter for the endpoint in cfg.
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
		option.WithBaseURL(baseURL(cfg.Endpoint)),
		option.WithMaxRetries(0),
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	return &Model{
		client: anthropic.NewClient(clientOpts...),
		cfg:    cfg,
		exec: provider.NewExecutor(Name, func(o *provider.ExecutorOptions) {
			o.RequestsPerSecond = cfg.RequestsPerSecond
			o.Logger = opts.Logger
		}),
	}, nil
}

// baseURL strips the version segment; the SDK appends "v1/messages" itself.
func baseURL(endpoint string) string {
	return strings.TrimSuffix(strings.TrimSuffix(endpoint, "/"), "/v1")
}

// Kind implements provider.Provider.
func (m *Model) Kind() core.ProviderKind { return core.ProviderClaude }

// Name implements provider.Provider.
func (m *Model) Name() string { return Name }

// Send implements provider.Provider.
func (m *Model) Send(ctx context.Context, req core.Request) (*core.Response, error) {
	return m.exec.Exec(ctx, m.cfg.CallTimeout(), func(ctx context.Context) (*core.Response, error) {
		msg, err := m.client.Messages.New(ctx, m.buildParams(req))
		if err != nil {
			return nil, wrapError(err)
		}

		text, ok := firstText(msg)
		if !ok {
			return nil, core.NewProviderError(Name, "no text content returned")
		}
		tokens := msg.Usage.InputTokens + msg.Usage.OutputTokens
		return core.NewResponse(req.ID, core.ProviderClaude, text, tokens), nil
	})
}

func (m *Model) buildParams(req core.Request) anthropic.MessageNewParams {
	model := m.cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := m.cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		Temperature: anthropic.Float(provider.Temperature(m.cfg)),
	}
	if req.Context != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.Context}}
	}
	return params
}

func firstText(msg *anthropic.Message) (string, bool) {
	if msg == nil {
		return "", false
	}
	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, true
		}
	}
	return "", false
}

func wrapError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	raw := apiErr.RawJSON()
	msg := gjson.Get(raw, "error.message").String()
	if msg == "" {
		msg = gjson.Get(raw, "message").String()
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
		_, err := m.client.Models.List(ctx, anthropic.ModelListParams{})
		return err
	})
}

// Metrics implements provider.Provider.
func (m *Model) Metrics() core.ProviderMetrics { return m.exec.Tracker().Snapshot() }

// ResetMetrics implements provider.Provider.
func (m *Model) ResetMetrics() { m.exec.Tracker().Reset() }
