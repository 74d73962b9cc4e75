package models

import "context"

// Step represents the interface for executable logic of a single stage.
// A step receives the bindings resolved for its stage and returns one output.
// Steps are invoked strictly one after another: Run is never called for the
// next stage before the previous call has returned.
type Step interface {
	// Run executes the step. The returned output is bound to the stage ID and is
	// visible to every later stage.
	Run(ctx context.Context, input *StepInput) (*StepOutput, error)
}

// StepFunc is an adapter to use plain functions as a Step
type StepFunc func(ctx context.Context, input *StepInput) (*StepOutput, error)

func (f StepFunc) Run(ctx context.Context, input *StepInput) (*StepOutput, error) {
	return f(ctx, input)
}
