package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/simon020286/promptchain/config"
	"github.com/simon020286/promptchain/slogger"
)

// NewGenerator creates the text backend selected by cfg. A missing credential
// is reported as BackendAuthFailure.
func NewGenerator(ctx context.Context, cfg config.TextBackend) (Generator, error) {
	apiKey := cfg.APIKey()
	if apiKey == "" {
		return nil, authFailure(cfg.Provider, fmt.Errorf("%s is not set", apiKeyEnv(cfg.APIKeyEnv, cfg.Provider)))
	}
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	httpClient := &http.Client{Timeout: timeout}

	switch cfg.Provider {
	case config.ProviderGroq:
		return NewOpenAIGenerator(OpenAIOptions{
			Name:        config.ProviderGroq,
			APIKey:      apiKey,
			BaseURL:     orDefault(cfg.Endpoint, GroqBaseURL),
			Model:       orDefault(cfg.Model, GroqDefaultModel),
			Temperature: Float(cfg.Temperature),
			HTTPClient:  httpClient,
		}), nil
	case config.ProviderOpenAI:
		return NewOpenAIGenerator(OpenAIOptions{
			Name:        config.ProviderOpenAI,
			APIKey:      apiKey,
			BaseURL:     orDefault(cfg.Endpoint, OpenAIBaseURL),
			Model:       orDefault(cfg.Model, OpenAIDefaultModel),
			Temperature: Float(cfg.Temperature),
			HTTPClient:  httpClient,
		}), nil
	case config.ProviderGemini:
		return NewGeminiGenerator(ctx, GeminiOptions{
			APIKey:      apiKey,
			BaseURL:     cfg.Endpoint,
			Model:       cfg.Model,
			Temperature: Float(cfg.Temperature),
			HTTPClient:  httpClient,
		})
	default:
		return nil, fmt.Errorf("unknown text provider %q", cfg.Provider)
	}
}

// NewVideoGenerator creates the video backend selected by cfg
func NewVideoGenerator(ctx context.Context, cfg config.VideoBackend, logger slogger.Logger) (VideoGenerator, error) {
	provider := orDefault(cfg.Provider, config.ProviderVeo)
	if provider != config.ProviderVeo {
		return nil, fmt.Errorf("unknown video provider %q", cfg.Provider)
	}
	apiKey := cfg.APIKey()
	if apiKey == "" {
		return nil, authFailure(provider, fmt.Errorf("%s is not set", apiKeyEnv(cfg.APIKeyEnv, provider)))
	}
	poll, err := cfg.PollIntervalDuration()
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	return NewVeoGenerator(ctx, VeoOptions{
		APIKey:       apiKey,
		Model:        cfg.Model,
		PollInterval: poll,
		Timeout:      timeout,
		Logger:       logger,
	})
}

func apiKeyEnv(env, provider string) string {
	if env != "" {
		return env
	}
	return config.DefaultAPIKeyEnv(provider)
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}

// DefaultModel returns the model used by a text provider when none is configured
func DefaultModel(provider string) string {
	switch provider {
	case config.ProviderOpenAI:
		return OpenAIDefaultModel
	case config.ProviderGemini:
		return GeminiDefaultModel
	default:
		return GroqDefaultModel
	}
}
