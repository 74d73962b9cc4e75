package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

var GeminiDefaultModel = "gemini-2.5-flash"

// GeminiOptions configures a GeminiGenerator
type GeminiOptions struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature *float64 // nil selects DefaultTemperature
	HTTPClient  *http.Client
}

// GeminiGenerator generates text with the Gemini API
type GeminiGenerator struct {
	model       string
	temperature float64
	client      *genai.Client
}

// NewGeminiGenerator creates a generator backed by a genai client
func NewGeminiGenerator(ctx context.Context, opts GeminiOptions) (*GeminiGenerator, error) {
	if opts.Model == "" {
		opts.Model = GeminiDefaultModel
	}
	temperature := DefaultTemperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	client, err := newGenAIClient(ctx, opts.APIKey, opts.BaseURL, opts.HTTPClient)
	if err != nil {
		return nil, err
	}
	return &GeminiGenerator{
		model:       opts.Model,
		temperature: temperature,
		client:      client,
	}, nil
}

func newGenAIClient(ctx context.Context, apiKey, baseURL string, httpClient *http.Client) (*genai.Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create google genai client: %w", err)
	}
	return client, nil
}

func (g *GeminiGenerator) Name() string {
	return "gemini"
}

func (g *GeminiGenerator) Generate(ctx context.Context, req *GenerationRequest) (*GenerationResult, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}
	temperature := g.temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(temperature)),
	}
	if req.JSON {
		genConfig.ResponseMIMEType = "application/json"
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), genConfig)
	if err != nil {
		return nil, classify(g.Name(), err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, callFailure(g.Name(), errors.New("response contained no candidates"))
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		msg := "response contained no text"
		if reason := resp.Candidates[0].FinishReason; reason != "" {
			msg += fmt.Sprintf(" (finish reason %s)", reason)
		}
		return nil, callFailure(g.Name(), errors.New(msg))
	}

	return &GenerationResult{
		Text:  text,
		Model: model,
	}, nil
}
