package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dop251/goja"
	"github.com/simon020286/promptchain/models"
)

// ValueSpec represents a step configuration value that can be static or
// resolved when the stage runs
type ValueSpec interface {
	IsStatic() bool
	GetStaticValue() (any, bool)
	// Resolve resolves the value against the state of the run
	Resolve(state *models.StepInput) (any, error)
}

// StaticValue represents a literal value (number, string, bool, etc.)
type StaticValue struct {
	Value any
}

func NewStaticValue(value any) StaticValue {
	return StaticValue{Value: value}
}

func (s StaticValue) IsStatic() bool {
	return true
}

func (s StaticValue) GetStaticValue() (any, bool) {
	return s.Value, true
}

func (s StaticValue) Resolve(*models.StepInput) (any, error) {
	return s.Value, nil
}

// DynamicValue represents a JavaScript expression evaluated when the stage runs
type DynamicValue struct {
	Expression string
}

func (d DynamicValue) IsStatic() bool {
	return false
}

func (d DynamicValue) GetStaticValue() (any, bool) {
	return nil, false
}

func (d DynamicValue) Resolve(state *models.StepInput) (any, error) {
	vm, err := NewRuntime(state)
	if err != nil {
		return nil, err
	}

	result, err := vm.RunString("(function() {\n return " + d.Expression + "\n})()")
	if err != nil {
		return nil, fmt.Errorf("failed to execute JS expression '%s': %w", d.Expression, err)
	}
	return result.Export(), nil
}

// NewRuntime returns a goja runtime exposing the state of the run:
//
//	ctx.<stage>   output text of a completed stage, or a map of its values
//	ctx.input     initial input of the run
//	ctx._run      run and stage IDs
//	$vars         pipeline and run variables
//	$secrets      pipeline secrets
func NewRuntime(state *models.StepInput) (*goja.Runtime, error) {
	vm := goja.New()
	if state == nil {
		state = &models.StepInput{}
	}

	ctx := make(map[string]any, len(state.Data)+2)
	for stageID, outputs := range state.Data {
		// A stage that produced only text is exposed as that text
		if len(outputs) == 1 {
			if data, ok := outputs[models.DefaultKey]; ok {
				ctx[stageID] = data.Value
				continue
			}
		}
		values := make(map[string]any, len(outputs))
		for key, data := range outputs {
			values[key] = data.Value
		}
		ctx[stageID] = values
	}
	ctx["input"] = state.Input
	ctx["_run"] = map[string]any{
		"id":    state.RunID,
		"stage": state.StageID,
	}

	if err := vm.Set("ctx", ctx); err != nil {
		return nil, fmt.Errorf("failed to set context: %w", err)
	}

	vars := state.GlobalVariables
	if vars == nil {
		vars = map[string]any{}
	}
	if err := vm.Set("$vars", vars); err != nil {
		return nil, fmt.Errorf("failed to set global variables: %w", err)
	}

	if state.GlobalSecrets != nil {
		if err := vm.Set("$secrets", state.GlobalSecrets); err != nil {
			return nil, fmt.Errorf("failed to set global secrets: %w", err)
		}
	}
	return vm, nil
}

// VariableReference represents a reference to a pipeline or run variable ($var:name)
type VariableReference struct {
	Name string
}

func (v VariableReference) IsStatic() bool {
	return false
}

func (v VariableReference) GetStaticValue() (any, bool) {
	return nil, false
}

func (v VariableReference) Resolve(state *models.StepInput) (any, error) {
	if state == nil || state.GlobalVariables == nil {
		return nil, fmt.Errorf("variable '%s' not found: no variables defined", v.Name)
	}
	value, exists := state.GlobalVariables[v.Name]
	if !exists {
		return nil, fmt.Errorf("variable '%s' not found", v.Name)
	}
	return value, nil
}

// SecretReference represents a reference to a pipeline secret ($secret:name)
type SecretReference struct {
	Name string
}

func (s SecretReference) IsStatic() bool {
	return false
}

func (s SecretReference) GetStaticValue() (any, bool) {
	return nil, false
}

func (s SecretReference) Resolve(state *models.StepInput) (any, error) {
	if state == nil || state.GlobalSecrets == nil {
		return nil, fmt.Errorf("secret '%s' not found: no secrets defined", s.Name)
	}
	value, exists := state.GlobalSecrets[s.Name]
	if !exists {
		return nil, fmt.Errorf("secret '%s' not found", s.Name)
	}
	return value, nil
}

// String masks the secret for logging
func (s SecretReference) String() string {
	return fmt.Sprintf("$secret:%s=***", s.Name)
}

// EnvReference represents a reference to an environment variable ($env:NAME)
type EnvReference struct {
	Name string
}

func (e EnvReference) IsStatic() bool {
	return false
}

func (e EnvReference) GetStaticValue() (any, bool) {
	return nil, false
}

func (e EnvReference) Resolve(*models.StepInput) (any, error) {
	value := os.Getenv(e.Name)
	if value == "" {
		return nil, fmt.Errorf("environment variable '%s' is not set or is empty", e.Name)
	}
	return value, nil
}

// ResolveString resolves spec and converts the result to a string.
// A nil spec resolves to def.
func ResolveString(spec ValueSpec, state *models.StepInput, def string) (string, error) {
	if spec == nil {
		return def, nil
	}
	v, err := spec.Resolve(state)
	if err != nil {
		return "", err
	}
	switch val := v.(type) {
	case nil:
		return def, nil
	case string:
		return val, nil
	default:
		return fmt.Sprint(val), nil
	}
}

// ResolveFloat resolves spec to a float64
func ResolveFloat(spec ValueSpec, state *models.StepInput, def float64) (float64, error) {
	if spec == nil {
		return def, nil
	}
	v, err := spec.Resolve(state)
	if err != nil {
		return 0, err
	}
	switch val := v.(type) {
	case nil:
		return def, nil
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q: %w", val, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

// ResolveInt resolves spec to an int
func ResolveInt(spec ValueSpec, state *models.StepInput, def int) (int, error) {
	if spec == nil {
		return def, nil
	}
	v, err := spec.Resolve(state)
	if err != nil {
		return 0, err
	}
	switch val := v.(type) {
	case nil:
		return def, nil
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		return int(val), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("invalid integer %q: %w", val, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}

// ResolveBool resolves spec to a bool
func ResolveBool(spec ValueSpec, state *models.StepInput, def bool) (bool, error) {
	if spec == nil {
		return def, nil
	}
	v, err := spec.Resolve(state)
	if err != nil {
		return false, err
	}
	switch val := v.(type) {
	case nil:
		return def, nil
	case bool:
		return val, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			return false, fmt.Errorf("invalid boolean %q: %w", val, err)
		}
		return b, nil
	default:
		return false, fmt.Errorf("expected a boolean, got %T", v)
	}
}
