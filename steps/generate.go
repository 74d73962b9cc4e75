package steps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/simon020286/promptchain/backend"
	"github.com/simon020286/promptchain/builder"
	"github.com/simon020286/promptchain/config"
	"github.com/simon020286/promptchain/format"
	"github.com/simon020286/promptchain/models"
	"github.com/simon020286/promptchain/templates"
)

// GenerateStep substitutes the stage bindings into a template and sends the
// result to the text backend
type GenerateStep struct {
	template    *templates.Template
	model       config.ValueSpec
	temperature config.ValueSpec
	json        config.ValueSpec
	pretty      config.ValueSpec
	deps        *builder.Deps
}

func (s *GenerateStep) Run(ctx context.Context, input *models.StepInput) (*models.StepOutput, error) {
	prompt := s.template.Render(s.bindings(input))

	model, err := config.ResolveString(s.model, input, s.deps.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve model: %w", err)
	}
	temperature := s.deps.Temperature
	if s.temperature != nil {
		t, err := config.ResolveFloat(s.temperature, input, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve temperature: %w", err)
		}
		temperature = &t
	}
	jsonHint, err := config.ResolveBool(s.json, input, false)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve json: %w", err)
	}
	pretty, err := config.ResolveBool(s.pretty, input, false)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve pretty: %w", err)
	}

	logger := s.deps.Log().With("stage", input.StageID, "template", s.template.ID())
	logger.Debug("sending prompt", "model", model, "json", jsonHint, "prompt", prompt)

	result, err := s.deps.Generator.Generate(ctx, &backend.GenerationRequest{
		Prompt:      prompt,
		Model:       model,
		Temperature: temperature,
		JSON:        jsonHint,
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(result.Text) == "" {
		return nil, &models.BackendError{
			Backend: generatorName(s.deps.Generator),
			Kind:    models.BackendCallFailure,
			Err:     errors.New("response contained no text"),
		}
	}

	output := models.NewTextOutput(input, result.Text)
	if !jsonHint && !pretty {
		return output, nil
	}

	// Text that should be JSON and is not is passed through and flagged
	formatted, ok := format.PrettyJSONStrict(result.Text)
	if !ok {
		logger.Warn("backend output is not valid JSON, passing it through unchanged")
		return output.Set(models.MalformedJSONKey, true), nil
	}
	if pretty {
		output.Set(models.RawKey, result.Text)
		output.Set(models.DefaultKey, formatted)
	}
	return output.Set(models.PrettyKey, formatted), nil
}

// bindings returns the stage bindings. A stage that declares none fills the
// only placeholder of its template with the previous output.
func (s *GenerateStep) bindings(input *models.StepInput) map[string]string {
	if len(input.Bindings) > 0 {
		return input.Bindings
	}
	placeholders := s.template.Placeholders()
	if len(placeholders) != 1 {
		return nil
	}
	return map[string]string{placeholders[0]: input.Previous}
}

func generatorName(g backend.Generator) string {
	if named, ok := g.(interface{ Name() string }); ok {
		return named.Name()
	}
	return "text"
}

func init() {
	builder.RegisterStepType("generate", func(cfg map[string]any, deps *builder.Deps) (models.Step, error) {
		templateID, ok := cfg["template"].(string)
		if !ok || templateID == "" {
			return nil, errors.New("missing 'template' in generate step")
		}
		if deps.Templates == nil {
			return nil, errors.New("generate step requires a template store")
		}
		if deps.Generator == nil {
			return nil, errors.New("generate step requires a text generator")
		}
		tmpl, err := deps.Templates.Get(templateID)
		if err != nil {
			return nil, err
		}

		return &GenerateStep{
			template:    tmpl,
			model:       builder.OptionalValue(cfg, "model"),
			temperature: builder.OptionalValue(cfg, "temperature"),
			json:        builder.OptionalValue(cfg, "json"),
			pretty:      builder.OptionalValue(cfg, "pretty"),
			deps:        deps,
		}, nil
	})
}
