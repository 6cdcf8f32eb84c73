// Package litellm provides an HTTP client for OpenAI-compatible chat
// completion endpoints: a LiteLLM proxy or Groq's hosted API.
package litellm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Strob0t/TripCrew/internal/port/llm"
	"github.com/Strob0t/TripCrew/internal/resilience"
)

// GroqBaseURL is Groq's OpenAI-compatible API root.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// maxErrorBody bounds how much of an error response is kept in the error text.
const maxErrorBody = 2048

// ErrEmptyCompletion is returned when the provider answers without any content.
var ErrEmptyCompletion = errors.New("empty completion")

// Model is one entry of the /models listing.
type Model struct {
	ID      string `json:"id"`
	OwnedBy string `json:"owned_by,omitempty"`
}

// Options configures a Client.
type Options struct {
	Name        string // provider label used in logs and records, e.g. "groq"
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Client talks to an OpenAI-compatible chat completion API.
type Client struct {
	name        string
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	httpClient  *http.Client
	breaker     *resilience.Breaker
}

var _ llm.Client = (*Client)(nil)

// NewClient creates a new chat completion client.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	name := opts.Name
	if name == "" {
		name = "litellm"
	}
	return &Client{
		name:        name,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		apiKey:      opts.APIKey,
		model:       opts.Model,
		temperature: opts.Temperature,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// Name returns "<provider>:<model>".
func (c *Client) Name() string { return c.name + ":" + c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the persona as the system message and the task prompt as
// the user message, and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	msgs := make([]chatMessage, 0, 2)
	if req.System != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: req.System})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/chat/completions", body)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	var out chatResponse
	if err := json.Unmarshal(resp, &out); err != nil {
		return "", fmt.Errorf("unmarshal chat response: %w", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}
	return out.Choices[0].Message.Content, nil
}

// ListModels returns the models the endpoint serves.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/models", nil)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}

	var result struct {
		Data []Model `json:"data"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("unmarshal models: %w", err)
	}
	return result.Data, nil
}

// Health checks that the endpoint answers and serves the configured model.
func (c *Client) Health(ctx context.Context) error {
	models, err := c.ListModels(ctx)
	if err != nil {
		return err
	}
	for _, m := range models {
		if m.ID == c.model {
			return nil
		}
	}
	return fmt.Errorf("model %q not served by %s", c.model, c.name)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var result []byte
	call := func() error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= 400 {
			if len(data) > maxErrorBody {
				data = data[:maxErrorBody]
			}
			return fmt.Errorf("%s API error %d: %s", c.name, resp.StatusCode, string(data))
		}

		result = data
		return nil
	}

	if c.breaker != nil {
		if err := c.breaker.Execute(call); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := call(); err != nil {
		return nil, err
	}
	return result, nil
}
