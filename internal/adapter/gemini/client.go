// Package gemini implements the llm.Client port on Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/Strob0t/TripCrew/internal/port/llm"
	"github.com/Strob0t/TripCrew/internal/resilience"
)

// ErrEmptyCompletion is returned when Gemini answers without any text.
var ErrEmptyCompletion = errors.New("gemini: empty completion")

// Client is a thin wrapper around the official genai client.
type Client struct {
	cli         *genai.Client
	model       string
	temperature float32
	breaker     *resilience.Breaker
}

var _ llm.Client = (*Client)(nil)

// NewClient creates a Gemini client. An empty apiKey lets genai fall back to
// GOOGLE_API_KEY / GEMINI_API_KEY from the environment.
func NewClient(ctx context.Context, apiKey, model string, temperature float64) (*Client, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Client{cli: cli, model: model, temperature: float32(temperature)}, nil
}

// SetBreaker attaches a circuit breaker to all outgoing calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

func (c *Client) Name() string { return "gemini:" + c.model }

// Complete sends the persona as system instruction and the prompt as the
// single user turn.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.temperature),
	}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{{Text: req.Prompt}}}}

	var out string
	call := func() error {
		resp, err := c.cli.Models.GenerateContent(ctx, c.model, contents, cfg)
		if err != nil {
			return fmt.Errorf("gemini generate: %w", err)
		}
		out = responseText(resp)
		return nil
	}

	var err error
	if c.breaker != nil {
		err = c.breaker.Execute(call)
	} else {
		err = call()
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", ErrEmptyCompletion
	}
	return out, nil
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && !p.Thought {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}
