package litellm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Strob0t/TripCrew/internal/adapter/litellm"
	"github.com/Strob0t/TripCrew/internal/port/llm"
	"github.com/Strob0t/TripCrew/internal/resilience"
)

func newClient(url string) *litellm.Client {
	return litellm.NewClient(litellm.Options{
		Name:        "groq",
		BaseURL:     url + "/",
		APIKey:      "test-key",
		Model:       "llama-3.3-70b-versatile",
		Temperature: 0.7,
	})
}

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Fatalf("unexpected auth: %q", auth)
		}

		var req struct {
			Model       string  `json:"model"`
			Temperature float64 `json:"temperature"`
			Messages    []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.Model != "llama-3.3-70b-versatile" || req.Temperature != 0.7 {
			t.Fatalf("unexpected model/temperature: %s %v", req.Model, req.Temperature)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Fatalf("unexpected messages: %+v", req.Messages)
		}
		if req.Messages[1].Content != "Plan Paris" {
			t.Fatalf("unexpected prompt: %q", req.Messages[1].Content)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Day 1: Louvre"}}]}`))
	}))
	defer srv.Close()

	out, err := newClient(srv.URL).Complete(context.Background(), llm.Request{System: "You are a planner.", Prompt: "Plan Paris"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if out != "Day 1: Louvre" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestComplete_NoSystemMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []json.RawMessage `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) != 1 {
			t.Fatalf("expected only the user message, got %d", len(req.Messages))
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	if _, err := newClient(srv.URL).Complete(context.Background(), llm.Request{Prompt: "hi"}); err != nil {
		t.Fatal(err)
	}
}

func TestComplete_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Complete(context.Background(), llm.Request{Prompt: "hi"})
	if !errors.Is(err, litellm.ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestComplete_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit reached"}}`))
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Complete(context.Background(), llm.Request{Prompt: "hi"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "groq API error 429") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestComplete_BreakerOpens(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newClient(srv.URL)
	c.SetBreaker(resilience.NewBreaker("groq", 2, time.Minute))

	for i := 0; i < 2; i++ {
		_, _ = c.Complete(context.Background(), llm.Request{Prompt: "hi"})
	}
	_, err := c.Complete(context.Background(), llm.Request{Prompt: "hi"})
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", calls)
	}
}

func TestListModelsAndHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" || r.Method != http.MethodGet {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"llama-3.3-70b-versatile","owned_by":"Meta"},{"id":"gemma2-9b-it"}]}`))
	}))
	defer srv.Close()

	c := newClient(srv.URL)
	models, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels failed: %v", err)
	}
	if len(models) != 2 || models[0].OwnedBy != "Meta" {
		t.Fatalf("unexpected models: %+v", models)
	}
	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health failed: %v", err)
	}

	other := litellm.NewClient(litellm.Options{BaseURL: srv.URL, Model: "missing-model"})
	if err := other.Health(context.Background()); err == nil {
		t.Fatal("expected health error for unserved model")
	}
	if other.Name() != "litellm:missing-model" {
		t.Fatalf("unexpected name %q", other.Name())
	}
}
