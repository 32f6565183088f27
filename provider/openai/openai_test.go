package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shards-inc/AiPowerHouse/core"
	"github.com/Shards-inc/AiPowerHouse/internal/testutil"
	"github.com/Shards-inc/AiPowerHouse/provider"
)

// Interface compliance (compile-time assertion)
var _ provider.Provider = (*Model)(nil)

func newModel(t *testing.T, be *testutil.Backend, mutate func(*core.ProviderConfig)) *Model {
	t.Helper()
	cfg := core.ProviderConfig{APIKey: "test-key", Endpoint: be.Endpoint(), Model: "gpt-4o", MaxTokens: 256}
	if mutate != nil {
		mutate(&cfg)
	}
	m, err := New(cfg, func(o *Options) { o.HTTPClient = be.Client() })
	require.NoError(t, err)
	return m
}

func TestNew_RequiresCredentialAndEndpoint(t *testing.T) {
	_, err := New(core.ProviderConfig{Endpoint: "http://localhost"})
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = New(core.ProviderConfig{APIKey: "k"})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestSend_WireContract(t *testing.T) {
	be := testutil.NewBackend(t).Reply(http.StatusOK, testutil.OpenAICompletion("hello there", 21))
	m := newModel(t, be, nil)

	req := core.NewRequest("What is Go?")
	req.Context = "You are terse."

	resp, err := m.Send(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "hello there", resp.Content)
	assert.EqualValues(t, 21, resp.TokensUsed)
	assert.Equal(t, req.ID, resp.RequestID)
	assert.Equal(t, core.ProviderChatGPT, resp.ProviderID)
	assert.Nil(t, resp.Confidence)

	got := be.Last(t)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/v1/chat/completions", got.Path)
	assert.Equal(t, "Bearer test-key", got.Header.Get("Authorization"))

	var body struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		MaxTokens   int64   `json:"max_tokens"`
		Temperature float64 `json:"temperature"`
	}
	require.NoError(t, json.Unmarshal(got.Body, &body))
	assert.Equal(t, "gpt-4o", body.Model)
	require.Len(t, body.Messages, 2)
	assert.Equal(t, "system", body.Messages[0].Role)
	assert.Equal(t, "You are terse.", body.Messages[0].Content)
	assert.Equal(t, "user", body.Messages[1].Role)
	assert.Equal(t, "What is Go?", body.Messages[1].Content)
	assert.EqualValues(t, 256, body.MaxTokens)
	assert.Equal(t, provider.DefaultTemperature, body.Temperature)

	metrics := m.Metrics()
	assert.EqualValues(t, 1, metrics.RequestCount)
	assert.EqualValues(t, 21, metrics.TokenUsage)
}

func TestSend_DefaultModelWithoutContext(t *testing.T) {
	be := testutil.NewBackend(t).Reply(http.StatusOK, testutil.OpenAICompletion("ok", 2))
	m := newModel(t, be, func(c *core.ProviderConfig) { c.Model = "" })

	_, err := m.Send(context.Background(), core.NewRequest("hi"))
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(be.Last(t).Body, &body))
	assert.Equal(t, DefaultModel, body["model"])
	assert.Len(t, body["messages"], 1)
}

func TestSend_NonSuccessUsesEmbeddedMessage(t *testing.T) {
	be := testutil.NewBackend(t).Reply(http.StatusUnauthorized, testutil.VendorError("Incorrect API key provided"))
	m := newModel(t, be, nil)

	_, err := m.Send(context.Background(), core.NewRequest("hi"))
	require.Error(t, err)

	var perr *core.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, Name, perr.Provider)
	assert.Contains(t, perr.Message, "Incorrect API key provided")
	assert.Len(t, be.Requests(), 1, "SDK retries must be disabled")

	metrics := m.Metrics()
	assert.EqualValues(t, 1, metrics.RequestCount)
	assert.InDelta(t, 1.0, metrics.ErrorRate, 1e-9)
	assert.InDelta(t, 0.0, metrics.Reliability, 1e-9)
}

func TestSend_EmptyChoicesIsProviderError(t *testing.T) {
	be := testutil.NewBackend(t).Reply(http.StatusOK, `{"id":"x","choices":[],"usage":{"total_tokens":0}}`)
	m := newModel(t, be, nil)

	_, err := m.Send(context.Background(), core.NewRequest("hi"))
	assert.ErrorIs(t, err, core.ErrProvider)
}

func TestSend_Timeout(t *testing.T) {
	be := testutil.NewBackend(t).Delay(500 * time.Millisecond).Reply(http.StatusOK, testutil.OpenAICompletion("late", 1))
	m := newModel(t, be, func(c *core.ProviderConfig) { c.Timeout = 30 * time.Millisecond })

	_, err := m.Send(context.Background(), core.NewRequest("hi"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrTimeout)
}

func TestHealthCheck(t *testing.T) {
	be := testutil.NewBackend(t).Reply(http.StatusOK, `{"object":"list","data":[]}`)
	m := newModel(t, be, nil)
	assert.True(t, m.HealthCheck(context.Background()))
	assert.Equal(t, "/v1/models", be.Last(t).Path)
	assert.Zero(t, m.Metrics().RequestCount)

	be.Reply(http.StatusInternalServerError, testutil.VendorError("down"))
	assert.False(t, m.HealthCheck(context.Background()))
}

func TestResetMetrics(t *testing.T) {
	be := testutil.NewBackend(t).Reply(http.StatusOK, testutil.OpenAICompletion("ok", 3))
	m := newModel(t, be, nil)
	_, err := m.Send(context.Background(), core.NewRequest("hi"))
	require.NoError(t, err)

	m.ResetMetrics()
	assert.Zero(t, m.Metrics().TokenUsage)
}
