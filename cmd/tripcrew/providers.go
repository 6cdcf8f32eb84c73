package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Strob0t/TripCrew/internal/adapter/fakellm"
	"github.com/Strob0t/TripCrew/internal/adapter/gemini"
	"github.com/Strob0t/TripCrew/internal/adapter/litellm"
	cfotel "github.com/Strob0t/TripCrew/internal/adapter/otel"
	"github.com/Strob0t/TripCrew/internal/config"
	"github.com/Strob0t/TripCrew/internal/port/llm"
	"github.com/Strob0t/TripCrew/internal/resilience"
)

var errMissingKey = errors.New("missing API key")

// newLLMClient builds the one client shared by every agent: the provider
// adapter behind a circuit breaker, wrapped with logging and tracing. The
// returned health check is nil when the provider has none.
func newLLMClient(ctx context.Context, cfg *config.Config, metrics *cfotel.Metrics) (llm.Client, func(context.Context) error, error) {
	l := &cfg.LLM
	breaker := resilience.NewBreaker(l.Provider, cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)

	var (
		client llm.Client
		health func(context.Context) error
	)
	switch l.Provider {
	case config.ProviderGroq, config.ProviderLiteLLM:
		baseURL := l.BaseURL
		if l.Provider == config.ProviderGroq {
			if l.GroqAPIKey == "" {
				return nil, nil, fmt.Errorf("groq: %w (set GROQ_API_KEY)", errMissingKey)
			}
			if baseURL == "" {
				baseURL = litellm.GroqBaseURL
			}
		}
		if baseURL == "" {
			return nil, nil, errors.New("litellm: base url is required (set LITELLM_URL)")
		}
		c := litellm.NewClient(litellm.Options{
			Name:        l.Provider,
			BaseURL:     baseURL,
			APIKey:      l.APIKey(),
			Model:       l.Model,
			Temperature: l.Temperature,
			Timeout:     l.Timeout,
		})
		c.SetBreaker(breaker)
		client, health = c, c.Health

	case config.ProviderGemini:
		if l.GeminiAPIKey == "" {
			return nil, nil, fmt.Errorf("gemini: %w (set GOOGLE_API_KEY)", errMissingKey)
		}
		c, err := gemini.NewClient(ctx, l.GeminiAPIKey, l.Model, l.Temperature)
		if err != nil {
			return nil, nil, fmt.Errorf("gemini: %w", err)
		}
		c.SetBreaker(breaker)
		client = c

	case config.ProviderFake:
		client = fakellm.New()

	default:
		return nil, nil, fmt.Errorf("unknown llm provider %q", l.Provider)
	}

	slog.Info("llm client ready", "client", client.Name(), "temperature", l.Temperature)
	return llm.Wrap(client, llm.WithLogging(slog.Default()), cfotel.LLMMiddleware(metrics)), health, nil
}
