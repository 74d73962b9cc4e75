// Package backend talks to the text generation and text-to-video services a
// pipeline dispatches its stages to.
package backend

import "context"

// Generator turns a fully substituted prompt into text
type Generator interface {
	Generate(ctx context.Context, req *GenerationRequest) (*GenerationResult, error)
}

// GenerationRequest is the input of a single backend call
type GenerationRequest struct {
	Prompt string
	// Model overrides the default model of the backend when set
	Model string
	// Temperature overrides the default temperature of the backend when set
	Temperature *float64
	// JSON asks the backend to answer with a JSON object. The answer is not
	// guaranteed to parse.
	JSON bool
}

// GenerationResult is the answer of a backend call
type GenerationResult struct {
	Text  string
	Model string
}

// GeneratorFunc adapts a function to the Generator interface
type GeneratorFunc func(ctx context.Context, req *GenerationRequest) (*GenerationResult, error)

func (f GeneratorFunc) Generate(ctx context.Context, req *GenerationRequest) (*GenerationResult, error) {
	return f(ctx, req)
}

// Float returns a pointer to v, for GenerationRequest.Temperature
func Float(v float64) *float64 {
	return &v
}
