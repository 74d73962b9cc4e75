package backend

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

var (
	GroqBaseURL      = "https://api.groq.com/openai/v1"
	GroqDefaultModel = "llama-3.3-70b-versatile"

	OpenAIBaseURL      = "https://api.openai.com/v1"
	OpenAIDefaultModel = "gpt-4o-mini"

	DefaultTemperature = 0.7
)

// OpenAIOptions configures an OpenAIGenerator
type OpenAIOptions struct {
	// Name identifies the backend in errors and logs, e.g. "groq"
	Name        string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature *float64 // nil selects DefaultTemperature
	HTTPClient  *http.Client
}

// OpenAIGenerator generates text with an OpenAI compatible chat completions
// API. Groq exposes the same API under its own base URL.
type OpenAIGenerator struct {
	name        string
	model       string
	temperature float64
	client      openai.Client
}

// NewOpenAIGenerator creates a generator. The client never retries: a failed
// call aborts the run.
func NewOpenAIGenerator(opts OpenAIOptions) *OpenAIGenerator {
	if opts.Name == "" {
		opts.Name = "openai"
	}
	temperature := DefaultTemperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	clientOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	return &OpenAIGenerator{
		name:        opts.Name,
		model:       opts.Model,
		temperature: temperature,
		client:      openai.NewClient(clientOpts...),
	}
}

// NewGroqGenerator creates a generator for the Groq API
func NewGroqGenerator(apiKey, model string, httpClient *http.Client) *OpenAIGenerator {
	if model == "" {
		model = GroqDefaultModel
	}
	return NewOpenAIGenerator(OpenAIOptions{
		Name:       "groq",
		APIKey:     apiKey,
		BaseURL:    GroqBaseURL,
		Model:      model,
		HTTPClient: httpClient,
	})
}

func (g *OpenAIGenerator) Name() string {
	return g.name
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req *GenerationRequest) (*GenerationResult, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}
	temperature := g.temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
		Temperature: openai.Float(temperature),
	}
	if req.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classify(g.name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, callFailure(g.name, errors.New("response contained no choices"))
	}

	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return nil, callFailure(g.name, errors.New("response contained no text"))
	}

	return &GenerationResult{
		Text:  text,
		Model: resp.Model,
	}, nil
}
