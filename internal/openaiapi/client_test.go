package openaiapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

const chatCompletionOK = `{
	"id": "chatcmpl-test",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "test-model",
	"choices": [
		{
			"index": 0,
			"message": {"role": "assistant", "content": "refined prompt text"},
			"finish_reason": "stop"
		}
	]
}`

type recordingServer struct {
	mu     sync.Mutex
	bodies []string
	paths  []string
	auths  []string
}

func (r *recordingServer) record(req *http.Request) {
	body, _ := io.ReadAll(req.Body)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bodies = append(r.bodies, string(body))
	r.paths = append(r.paths, req.URL.Path)
	r.auths = append(r.auths, req.Header.Get("Authorization"))
}

func (r *recordingServer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bodies)
}

func newTestClient(t *testing.T, srv *httptest.Server, cfg Config) *Client {
	t.Helper()
	if cfg.Model == "" {
		cfg.Model = "test-model"
	}
	cfg.BaseURL = srv.URL
	if cfg.APIKey == "" {
		cfg.APIKey = "test-api-key"
	}
	client, err := NewClient(cfg, srv.Client())
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client
}

func TestClientComplete_SendsExpectedPayloadAndParsesOutput(t *testing.T) {
	rec := &recordingServer{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatCompletionOK))
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv, Config{Temperature: 0.7, MaxTokens: 256})

	out, err := client.Complete(context.Background(), CompletionRequest{
		System: "You are terse.",
		Prompt: "plan a trip",
	})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if out.OutputText != "refined prompt text" {
		t.Fatalf("output text = %q, want %q", out.OutputText, "refined prompt text")
	}

	if got := rec.count(); got != 1 {
		t.Fatalf("request count = %d, want 1", got)
	}
	if rec.auths[0] != "Bearer test-api-key" {
		t.Fatalf("authorization header = %q, want bearer auth", rec.auths[0])
	}
	if rec.paths[0] != "/chat/completions" {
		t.Fatalf("path = %q, want %q", rec.paths[0], "/chat/completions")
	}

	var body map[string]any
	if err := json.Unmarshal([]byte(rec.bodies[0]), &body); err != nil {
		t.Fatalf("unmarshal request body: %v", err)
	}
	if body["model"] != "test-model" {
		t.Fatalf("model = %v, want %q", body["model"], "test-model")
	}
	if body["temperature"] != 0.7 {
		t.Fatalf("temperature = %v, want 0.7", body["temperature"])
	}
	if body["max_tokens"] != float64(256) {
		t.Fatalf("max_tokens = %v, want 256", body["max_tokens"])
	}
	msgs, ok := body["messages"].([]any)
	if !ok || len(msgs) != 2 {
		t.Fatalf("messages = %v, want system + user", body["messages"])
	}
}

func TestClientComplete_AuthFailureIsFatalAfterOneAttempt(t *testing.T) {
	rec := &recordingServer{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid api key", "type": "invalid_request_error"}}`))
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv, Config{MaxAttempts: 5})

	_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "x"})
	if err == nil {
		t.Fatal("Complete should fail on 401")
	}
	f, ok := AsFailure(err)
	if !ok {
		t.Fatalf("error %v is not a classified failure", err)
	}
	if f.Kind != FailureAuth {
		t.Fatalf("failure kind = %v, want auth", f.Kind)
	}
	if f.Transient() {
		t.Fatal("auth failure must not be transient")
	}
	if got := rec.count(); got != 1 {
		t.Fatalf("request count = %d, want exactly 1 (no retry)", got)
	}
}

func TestClientComplete_UnexpectedStatusIsProtocolFailure(t *testing.T) {
	rec := &recordingServer{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "boom"}}`))
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv, Config{MaxAttempts: 5})

	_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "x"})
	f, ok := AsFailure(err)
	if !ok {
		t.Fatalf("error %v is not a classified failure", err)
	}
	if f.Kind != FailureProtocol {
		t.Fatalf("failure kind = %v, want protocol", f.Kind)
	}
	if got := rec.count(); got != 1 {
		t.Fatalf("request count = %d, want exactly 1 (no retry)", got)
	}
}

func TestClientComplete_EmptyOutputIsProtocolFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "x", "object": "chat.completion", "choices": [{"index": 0, "message": {"role": "assistant", "content": "   "}, "finish_reason": "stop"}]}`))
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv, Config{})

	_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "x"})
	f, ok := AsFailure(err)
	if !ok {
		t.Fatalf("error %v is not a classified failure", err)
	}
	if f.Kind != FailureProtocol {
		t.Fatalf("failure kind = %v, want protocol", f.Kind)
	}
}

func TestClientComplete_TimeoutRetriesWithIdenticalRequest(t *testing.T) {
	rec := &recordingServer{}
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			time.Sleep(500 * time.Millisecond)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatCompletionOK))
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv, Config{
		Timeout:        100 * time.Millisecond,
		MaxAttempts:    3,
		InitialBackoff: 10 * time.Millisecond,
		MaxElapsed:     5 * time.Second,
	})

	out, err := client.Complete(context.Background(), CompletionRequest{
		System: "You are terse.",
		Prompt: "plan a trip",
	})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if out.OutputText != "refined prompt text" {
		t.Fatalf("output text = %q", out.OutputText)
	}
	if got := rec.count(); got != 2 {
		t.Fatalf("request count = %d, want 2 (one timeout, one success)", got)
	}
	if rec.bodies[0] != rec.bodies[1] {
		t.Fatalf("retried request body differs from the first attempt:\n%s\n%s", rec.bodies[0], rec.bodies[1])
	}
}

func TestClientComplete_ConnectionFailureExhaustsRetryBudget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	httpClient := srv.Client()
	url := srv.URL
	srv.Close()

	client, err := NewClient(Config{
		Model:          "test-model",
		BaseURL:        url,
		APIKey:         "k",
		MaxAttempts:    2,
		InitialBackoff: 10 * time.Millisecond,
		MaxElapsed:     5 * time.Second,
	}, httpClient)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_, err = client.Complete(context.Background(), CompletionRequest{Prompt: "x"})
	f, ok := AsFailure(err)
	if !ok {
		t.Fatalf("error %v is not a classified failure", err)
	}
	if f.Kind != FailureConnection {
		t.Fatalf("failure kind = %v, want connection", f.Kind)
	}
	if !f.Transient() {
		t.Fatal("connection failure must be transient")
	}
}

func TestNewClient_RequiresModel(t *testing.T) {
	if _, err := NewClient(Config{}, nil); err == nil {
		t.Fatal("NewClient should reject an empty model")
	}
}
