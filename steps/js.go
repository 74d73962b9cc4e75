package steps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/simon020286/promptchain/builder"
	"github.com/simon020286/promptchain/config"
	"github.com/simon020286/promptchain/models"
)

// JsStep transforms the run state with JavaScript. Besides the globals of
// config.NewRuntime the code sees $text, the text the stage is bound to, and
// $bindings.
type JsStep struct {
	code string
}

func (s *JsStep) Run(ctx context.Context, input *models.StepInput) (*models.StepOutput, error) {
	runtime, err := config.NewRuntime(input)
	if err != nil {
		return nil, err
	}
	if err := runtime.Set("$text", input.Text()); err != nil {
		return nil, fmt.Errorf("failed to set text in JavaScript runtime: %w", err)
	}
	bindings := input.Bindings
	if bindings == nil {
		bindings = map[string]string{}
	}
	if err := runtime.Set("$bindings", bindings); err != nil {
		return nil, fmt.Errorf("failed to set bindings in JavaScript runtime: %w", err)
	}

	// Stop runaway scripts when the run is cancelled
	stop := context.AfterFunc(ctx, func() {
		runtime.Interrupt("step cancelled")
	})
	defer stop()

	// Wrap the code in an anonymous function to allow return usage
	// The user can write: return $text.toUpperCase();
	result, err := runtime.RunString("(function() {\n" + s.code + "\n})()")
	if err != nil {
		return nil, fmt.Errorf("JavaScript execution error: %w", err)
	}

	return &models.StepOutput{
		Data:      models.CreateDefaultResultData(result.Export()),
		RunID:     input.RunID,
		Timestamp: time.Now(),
	}, nil
}

func init() {
	builder.RegisterStepType("js", func(cfg map[string]any, deps *builder.Deps) (models.Step, error) {
		code, ok := cfg["code"].(string)
		if !ok {
			return nil, errors.New("missing 'code' in js step")
		}

		return &JsStep{
			code: code,
		}, nil
	})
}
