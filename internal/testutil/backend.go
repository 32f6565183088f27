package testutil

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"
)

// RecordedRequest is a snapshot of one request received by a Backend.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Backend is an httptest server that records every request and answers with
// a scripted status and body. It speaks whatever vendor JSON the test feeds it.
//
// Example:
//
//	be := NewBackend(t).Reply(http.StatusOK, OpenAICompletion("hi", 12))
//	cfg := core.ProviderConfig{APIKey: "k", Endpoint: be.Endpoint()}
type Backend struct {
	server *httptest.Server

	mu       sync.Mutex
	requests []RecordedRequest
	status   int
	body     string
	delay    time.Duration
}

// NewBackend starts a backend that answers 200 with an empty JSON object
// until Reply is called. The server is closed via t.Cleanup.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{status: http.StatusOK, body: "{}"}
	b.server = httptest.NewServer(http.HandlerFunc(b.handle))
	t.Cleanup(b.server.Close)
	return b
}

func (b *Backend) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	b.mu.Lock()
	b.requests = append(b.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	status, respBody, delay := b.status, b.body, b.delay
	b.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, respBody)
}

// Reply scripts the status and body of every following response (chainable).
func (b *Backend) Reply(status int, body string) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = status
	b.body = body
	return b
}

// Delay makes every following response wait d before answering (chainable).
func (b *Backend) Delay(d time.Duration) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delay = d
	return b
}

// URL returns the server root URL.
func (b *Backend) URL() string { return b.server.URL }

// Endpoint returns the "/v1" base endpoint every vendor config uses.
func (b *Backend) Endpoint() string { return b.server.URL + "/v1" }

// Client returns an HTTP client wired to the server.
func (b *Backend) Client() *http.Client { return b.server.Client() }

// Requests returns a copy of all recorded requests.
func (b *Backend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]RecordedRequest, len(b.requests))
	copy(out, b.requests)
	return out
}

// Last returns the most recent request, failing the test when none arrived.
func (b *Backend) Last(t *testing.T) RecordedRequest {
	t.Helper()
	reqs := b.Requests()
	if len(reqs) == 0 {
		t.Fatalf("backend received no requests")
	}
	return reqs[len(reqs)-1]
}

// OpenAICompletion renders a minimal Chat Completions response body.
func OpenAICompletion(content string, totalTokens int64) string {
	return fmt.Sprintf(`{"id":"chatcmpl-1","object":"chat.completion","created":1700000000,"model":"gpt-4",`+
		`"choices":[{"index":0,"message":{"role":"assistant","content":%q},"finish_reason":"stop"}],`+
		`"usage":{"prompt_tokens":1,"completion_tokens":%d,"total_tokens":%d}}`, content, totalTokens-1, totalTokens)
}

// AnthropicMessage renders a minimal Messages API response body.
func AnthropicMessage(content string, inputTokens, outputTokens int64) string {
	return fmt.Sprintf(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-opus-20240229",`+
		`"content":[{"type":"text","text":%q}],"stop_reason":"end_turn","stop_sequence":null,`+
		`"usage":{"input_tokens":%d,"output_tokens":%d}}`, content, inputTokens, outputTokens)
}

// GeminiContent renders a minimal generateContent response body.
func GeminiContent(content string, totalTokens int64) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"role":"model","parts":[{"text":%q}]},"finishReason":"STOP"}],`+
		`"usageMetadata":{"promptTokenCount":1,"candidatesTokenCount":%d,"totalTokenCount":%d}}`, content, totalTokens-1, totalTokens)
}

// VendorError renders the {"error":{"message":...}} body all three vendors use.
func VendorError(message string) string {
	return fmt.Sprintf(`{"type":"error","error":{"type":"invalid_request_error","message":%q}}`, message)
}
