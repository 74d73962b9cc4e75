package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/simon020286/promptchain/builder"
	"github.com/simon020286/promptchain/config"
	"github.com/simon020286/promptchain/format"
	"github.com/simon020286/promptchain/models"
)

// JsonStep parses text as JSON on a best-effort basis. Text that does not
// parse is passed through unchanged and flagged as malformed.
type JsonStep struct {
	data config.ValueSpec
	deps *builder.Deps
}

func (s *JsonStep) Run(_ context.Context, input *models.StepInput) (*models.StepOutput, error) {
	text := input.Text()
	if s.data != nil {
		resolved, err := config.ResolveString(s.data, input, "")
		if err != nil {
			return nil, fmt.Errorf("failed to resolve data: %w", err)
		}
		text = resolved
	}

	output := &models.StepOutput{
		Data:      models.CreateDefaultResultData(text),
		RunID:     input.RunID,
		Timestamp: time.Now(),
	}

	pretty, ok := format.PrettyJSONStrict(text)
	if !ok {
		s.deps.Log().Warn("input is not valid JSON, passing it through unchanged", "stage", input.StageID)
		return output.Set(models.MalformedJSONKey, true), nil
	}

	// Parse objects, arrays and primitive values
	var value any
	if err := json.Unmarshal([]byte(pretty), &value); err != nil {
		return output.Set(models.MalformedJSONKey, true), nil
	}

	return output.
		Set(models.DefaultKey, pretty).
		Set(models.RawKey, text).
		Set("value", value), nil
}

func init() {
	builder.RegisterStepType("json", func(cfg map[string]any, deps *builder.Deps) (models.Step, error) {
		return &JsonStep{
			data: builder.OptionalValue(cfg, "data"),
			deps: deps,
		}, nil
	})
}
