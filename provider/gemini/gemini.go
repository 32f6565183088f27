// Package gemini provides an implementation of provider.Provider for the
// Google Generative Language API (generateContent). There is no SDK in use:
// the payload is assembled with sjson and read back with gjson.
package gemini

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/Shards-inc/AiPowerHouse/core"
	"github.com/Shards-inc/AiPowerHouse/logging"
	"github.com/Shards-inc/AiPowerHouse/provider"
)

// Name is the display name of this adapter.
const Name = "Gemini"

// DefaultModel is used when the config leaves Model empty.
const DefaultModel = "gemini-pro"

const fallbackErrorMessage = "Google API request failed"

// DefaultMaxResponseBytes caps how much of a response body is read.
const DefaultMaxResponseBytes int64 = 10 << 20

// Options configure the Gemini adapter.
type Options struct {
	HTTPClient *http.Client
	Logger     logging.Logger
	// MaxResponseBytes caps the body read per response. Larger bodies are
	// truncated and fail to parse. Defaults to DefaultMaxResponseBytes.
	MaxResponseBytes int64
}

// Model talks to the generateContent endpoint behind provider.Provider.
type Model struct {
	httpClient *http.Client
	cfg        core.ProviderConfig
	exec       *provider.Executor
	maxBody    int64
}

// New creates an adapter for the endpoint in cfg.
func New(cfg core.ProviderConfig, optFns ...func(o *Options)) (*Model, error) {
	if err := provider.ValidateConfig(Name, cfg); err != nil {
		return nil, err
	}

	opts := Options{Logger: logging.NoOpLogger{}, MaxResponseBytes: DefaultMaxResponseBytes}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.MaxResponseBytes <= 0 {
		opts.MaxResponseBytes = DefaultMaxResponseBytes
	}

	return &Model{
		httpClient: opts.HTTPClient,
		cfg:        cfg,
		maxBody:    opts.MaxResponseBytes,
		exec: provider.NewExecutor(Name, func(o *provider.ExecutorOptions) {
			o.RequestsPerSecond = cfg.RequestsPerSecond
			o.Logger = opts.Logger
		}),
	}, nil
}

// Kind implements provider.Provider.
func (m *Model) Kind() core.ProviderKind { return core.ProviderGemini }

// Name implements provider.Provider.
func (m *Model) Name() string { return Name }

func (m *Model) model() string {
	if m.cfg.Model == "" {
		return DefaultModel
	}
	return m.cfg.Model
}

func (m *Model) endpoint(path string) string {
	return strings.TrimSuffix(m.cfg.Endpoint, "/") + path + "?key=" + url.QueryEscape(m.cfg.APIKey)
}

// Send implements provider.Provider.
func (m *Model) Send(ctx context.Context, req core.Request) (*core.Response, error) {
	return m.exec.Exec(ctx, m.cfg.CallTimeout(), func(ctx context.Context) (*core.Response, error) {
		payload, err := m.buildPayload(req)
		if err != nil {
			return nil, core.NewProviderError(Name, fmt.Sprintf("failed to encode request: %v", err))
		}

		target := m.endpoint("/models/" + m.model() + ":generateContent")
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
		if err != nil {
			return nil, core.NewProviderError(Name, fmt.Sprintf("failed to create request: %v", err))
		}
		httpReq.Header.Set("Content-Type", "application/json")

		httpResp, err := m.httpClient.Do(httpReq)
		if err != nil {
			return nil, err
		}
		defer httpResp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(httpResp.Body, m.maxBody))
		if err != nil {
			return nil, err
		}

		if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
			return nil, errorFromBody(httpResp.StatusCode, body)
		}
		if !gjson.ValidBytes(body) {
			return nil, core.NewProviderError(Name, "malformed response payload")
		}

		content := gjson.GetBytes(body, "candidates.0.content.parts.0.text").String()
		tokens := gjson.GetBytes(body, "usageMetadata.totalTokenCount").Int()
		return core.NewResponse(req.ID, core.ProviderGemini, content, tokens), nil
	})
}

// buildPayload renders the contents array: the optional context as a leading
// user turn, then the prompt.
func (m *Model) buildPayload(req core.Request) ([]byte, error) {
	payload := []byte(`{"contents":[]}`)
	var err error

	if req.Context != "" {
		if payload, err = appendTurn(payload, req.Context); err != nil {
			return nil, err
		}
	}
	if payload, err = appendTurn(payload, req.Prompt); err != nil {
		return nil, err
	}

	if m.cfg.MaxTokens > 0 {
		if payload, err = sjson.SetBytes(payload, "generationConfig.maxOutputTokens", m.cfg.MaxTokens); err != nil {
			return nil, err
		}
	}
	return sjson.SetBytes(payload, "generationConfig.temperature", provider.Temperature(m.cfg))
}

func appendTurn(payload []byte, text string) ([]byte, error) {
	return sjson.SetBytes(payload, "contents.-1", map[string]any{
		"role":  "user",
		"parts": []map[string]string{{"text": text}},
	})
}

func errorFromBody(status int, body []byte) error {
	msg := gjson.GetBytes(body, "error.message").String()
	if msg == "" {
		msg = fallbackErrorMessage
	}
	pe := core.NewProviderError(Name, msg)
	pe.Details = map[string]any{"status": status}
	return pe
}

// HealthCheck lists models as a lightweight probe.
func (m *Model) HealthCheck(ctx context.Context) bool {
	return provider.Probe(ctx, func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, m.endpoint("/models"), nil)
		if err != nil {
			return err
		}
		resp, err := m.httpClient.Do(httpReq)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		return nil
	})
}

// Metrics implements provider.Provider.
func (m *Model) Metrics() core.ProviderMetrics { return m.exec.Tracker().Snapshot() }

// ResetMetrics implements provider.Provider.
func (m *Model) ResetMetrics() { m.exec.Tracker().Reset() }
