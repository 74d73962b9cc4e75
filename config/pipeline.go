package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// PipelineConfig represents the complete pipeline configuration from YAML
type PipelineConfig struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Parameters  []ParameterConfig `yaml:"parameters,omitempty"` // Run parameters accepted from the caller
	Variables   map[string]any    `yaml:"variables,omitempty"`  // Global reusable variables
	Secrets     map[string]any    `yaml:"secrets,omitempty"`    // Sensitive values (API keys, tokens)
	Stages      []StageConfig     `yaml:"stages"`
}

// ParameterConfig declares an integer run parameter, e.g. the number of
// prompts the numbered pipeline asks for.
type ParameterConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Default     int    `yaml:"default"`
	Min         *int   `yaml:"min,omitempty"`
	Max         *int   `yaml:"max,omitempty"`
}

// Check returns an error when value is outside the declared range
func (p ParameterConfig) Check(value int) error {
	if p.Min != nil && value < *p.Min {
		return fmt.Errorf("%s must be between %s, got %d", p.Name, p.rangeString(), value)
	}
	if p.Max != nil && value > *p.Max {
		return fmt.Errorf("%s must be between %s, got %d", p.Name, p.rangeString(), value)
	}
	return nil
}

func (p ParameterConfig) rangeString() string {
	lo, hi := "-inf", "+inf"
	if p.Min != nil {
		lo = fmt.Sprint(*p.Min)
	}
	if p.Max != nil {
		hi = fmt.Sprint(*p.Max)
	}
	return lo + " and " + hi
}

// StageConfig represents the configuration of a stage from YAML
type StageConfig struct {
	ID         string         `yaml:"id"`
	Title      string         `yaml:"title,omitempty"`   // Heading shown above the stage output
	Progress   string         `yaml:"progress,omitempty"` // Caption shown while the stage runs
	StepType   string         `yaml:"step_type"`         // Type of step to instantiate
	StepConfig map[string]any `yaml:"step_config"`       // Specific step configuration
	Inputs     []string       `yaml:"inputs,omitempty"`  // Placeholder bindings, see ParseBinding
}

// Binding sources
const (
	SourcePrevious = ""
	SourceInput    = "input"
	varPrefix      = "var:"
)

// BindingRef represents a parsed stage input binding
// Format: "placeholder" or "placeholder:source"
// Examples:
//   - "details" -> {{details}} receives the output of the previous stage
//   - "context:input" -> {{context}} receives the initial input of the run
//   - "beats:beats" -> {{beats}} receives the output of stage "beats"
//   - "count:var:count" -> {{count}} receives the run variable "count"
type BindingRef struct {
	Placeholder string
	Source      string
}

// ParseBinding parses a binding string into a BindingRef. The string is split
// on the first colon so that sources may contain colons themselves.
func ParseBinding(binding string) BindingRef {
	binding = strings.TrimSpace(binding)
	placeholder, source, _ := strings.Cut(binding, ":")
	return BindingRef{
		Placeholder: strings.TrimSpace(placeholder),
		Source:      strings.TrimSpace(source),
	}
}

// IsPrevious reports whether the binding reads the output of the preceding stage
func (b BindingRef) IsPrevious() bool {
	return b.Source == SourcePrevious
}

// IsInput reports whether the binding reads the initial input
func (b BindingRef) IsInput() bool {
	return b.Source == SourceInput
}

// Variable returns the run variable name of a "var:<name>" source
func (b BindingRef) Variable() (string, bool) {
	if !strings.HasPrefix(b.Source, varPrefix) {
		return "", false
	}
	return strings.TrimPrefix(b.Source, varPrefix), true
}

// StageID returns the stage read by the binding, if it names one
func (b BindingRef) StageID() (string, bool) {
	if b.IsPrevious() || b.IsInput() {
		return "", false
	}
	if _, ok := b.Variable(); ok {
		return "", false
	}
	return b.Source, true
}

func (b BindingRef) String() string {
	if b.Source == "" {
		return b.Placeholder
	}
	return b.Placeholder + ":" + b.Source
}

// ParsePipeline decodes a pipeline definition
func ParsePipeline(data []byte) (*PipelineConfig, error) {
	var cfg PipelineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline YAML: %w", err)
	}
	return &cfg, nil
}

// LoadPipeline reads a pipeline definition from a file. The file name is
// used when the definition has no name.
func LoadPipeline(path string) (*PipelineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline file %s: %w", path, err)
	}
	cfg, err := ParsePipeline(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Name == "" {
		cfg.Name = pipelineNameFromPath(path)
	}
	return cfg, nil
}

func pipelineNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Parameter returns the declared parameter with the given name
func (c *PipelineConfig) Parameter(name string) (ParameterConfig, bool) {
	for _, p := range c.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return ParameterConfig{}, false
}
