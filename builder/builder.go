package builder

import (
	"strings"

	"github.com/google/uuid"
	"github.com/simon020286/promptchain/config"
	"github.com/simon020286/promptchain/models"
)

// CreateStep creates a step based on type and configuration
func CreateStep(stepType string, stepConfig map[string]any, deps *Deps) (models.Step, error) {
	factory, err := GetStepFactory(stepType)
	if err != nil {
		return nil, err
	}
	if stepConfig == nil {
		stepConfig = map[string]any{}
	}
	if deps == nil {
		deps = &Deps{}
	}
	return factory(stepConfig, deps)
}

// GenerateRunID generates a unique ID for a pipeline run
func GenerateRunID() string {
	return uuid.NewString()
}

// ParseConfigValue converts a configuration value to config.ValueSpec.
// Strings may carry a prefix:
//   - "$js: expr" evaluates a JavaScript expression when the stage runs
//   - "$var:name" reads a pipeline or run variable
//   - "$secret:name" reads a pipeline secret
//   - "$env:NAME" reads an environment variable
//
// Values that are already a ValueSpec are returned unchanged.
func ParseConfigValue(v any) config.ValueSpec {
	if spec, ok := v.(config.ValueSpec); ok {
		return spec
	}

	str, ok := v.(string)
	if !ok {
		return config.StaticValue{Value: v}
	}

	switch {
	case strings.HasPrefix(str, "$js:"):
		return config.DynamicValue{Expression: strings.TrimSpace(strings.TrimPrefix(str, "$js:"))}
	case strings.HasPrefix(str, "$var:"):
		return config.VariableReference{Name: strings.TrimSpace(strings.TrimPrefix(str, "$var:"))}
	case strings.HasPrefix(str, "$secret:"):
		return config.SecretReference{Name: strings.TrimSpace(strings.TrimPrefix(str, "$secret:"))}
	case strings.HasPrefix(str, "$env:"):
		return config.EnvReference{Name: strings.TrimSpace(strings.TrimPrefix(str, "$env:"))}
	}
	return config.StaticValue{Value: v}
}

// OptionalValue parses cfg[key], or returns nil when the key is absent
func OptionalValue(cfg map[string]any, key string) config.ValueSpec {
	v, ok := cfg[key]
	if !ok || v == nil {
		return nil
	}
	return ParseConfigValue(v)
}

// RequiredValue parses cfg[key], or returns a MissingConfigError
func RequiredValue(cfg map[string]any, key string) (config.ValueSpec, error) {
	spec := OptionalValue(cfg, key)
	if spec == nil {
		return nil, models.ErrMissingConfig(key)
	}
	return spec, nil
}

// ValidatePipeline checks cfg against the registered step types and, when
// deps carries a template store, the templates it references
func ValidatePipeline(cfg *config.PipelineConfig, deps *Deps) *config.ValidationReport {
	opts := config.ValidateOptions{StepTypes: ListStepTypes()}
	if deps != nil && deps.Templates != nil {
		store := deps.Templates
		opts.Placeholders = func(id string) ([]string, error) {
			t, err := store.Get(id)
			if err != nil {
				return nil, err
			}
			return t.Placeholders(), nil
		}
	}
	return config.ValidatePipeline(cfg, opts)
}
