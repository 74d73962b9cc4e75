package config

import (
	"errors"
	"fmt"
	"strings"
)

// Issue is a single validation finding
type Issue struct {
	StageID string
	Message string
}

func (i Issue) String() string {
	if i.StageID == "" {
		return i.Message
	}
	return fmt.Sprintf("stage '%s': %s", i.StageID, i.Message)
}

// ValidationReport collects the errors and warnings found in a pipeline
// definition. Warnings never prevent a pipeline from running.
type ValidationReport struct {
	Errors   []Issue
	Warnings []Issue
}

func (r *ValidationReport) errorf(stageID, format string, args ...any) {
	r.Errors = append(r.Errors, Issue{StageID: stageID, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationReport) warnf(stageID, format string, args ...any) {
	r.Warnings = append(r.Warnings, Issue{StageID: stageID, Message: fmt.Sprintf(format, args...)})
}

// OK reports whether no errors were found
func (r *ValidationReport) OK() bool {
	return len(r.Errors) == 0
}

// Err joins all errors, or returns nil
func (r *ValidationReport) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, 0, len(r.Errors))
	for _, issue := range r.Errors {
		errs = append(errs, errors.New(issue.String()))
	}
	return fmt.Errorf("invalid pipeline: %w", errors.Join(errs...))
}

// ValidateOptions supplies what the validator cannot know on its own
type ValidateOptions struct {
	// StepTypes lists the known step types. When empty step types are not checked.
	StepTypes []string
	// Placeholders returns the placeholders of a template. When nil templates
	// are not checked.
	Placeholders func(templateID string) ([]string, error)
}

// ValidatePipeline checks stage IDs, step types, bindings and templates
func ValidatePipeline(cfg *PipelineConfig, opts ValidateOptions) *ValidationReport {
	report := &ValidationReport{}
	if cfg == nil {
		report.errorf("", "pipeline is nil")
		return report
	}
	if len(cfg.Stages) == 0 {
		report.errorf("", "pipeline has no stages")
	}

	knownTypes := make(map[string]bool, len(opts.StepTypes))
	for _, t := range opts.StepTypes {
		knownTypes[t] = true
	}

	params := make(map[string]bool, len(cfg.Parameters))
	for _, p := range cfg.Parameters {
		if p.Name == "" {
			report.errorf("", "parameter without name")
			continue
		}
		if params[p.Name] {
			report.errorf("", "duplicate parameter '%s'", p.Name)
		}
		params[p.Name] = true
		if p.Min != nil && p.Max != nil && *p.Min > *p.Max {
			report.errorf("", "parameter '%s' has min greater than max", p.Name)
		}
		if err := p.Check(p.Default); err != nil {
			report.errorf("", "default of %v", err)
		}
	}

	seen := make(map[string]bool, len(cfg.Stages))
	for i, stage := range cfg.Stages {
		id := stage.ID
		if id == "" {
			report.errorf("", "stage %d has no id", i+1)
			continue
		}
		if seen[id] {
			report.errorf(id, "duplicate stage id")
		}

		if stage.StepType == "" {
			report.errorf(id, "missing step_type")
		} else if len(knownTypes) > 0 && !knownTypes[stage.StepType] {
			report.errorf(id, "unknown step type '%s'", stage.StepType)
		}

		bound := make(map[string]bool, len(stage.Inputs))
		for _, raw := range stage.Inputs {
			ref := ParseBinding(raw)
			if ref.Placeholder == "" {
				report.errorf(id, "binding '%s' has no placeholder name", raw)
				continue
			}
			if bound[ref.Placeholder] {
				report.errorf(id, "placeholder '%s' is bound twice", ref.Placeholder)
			}
			bound[ref.Placeholder] = true

			if name, ok := ref.Variable(); ok {
				if name == "" {
					report.errorf(id, "binding '%s' names no variable", raw)
				} else if !params[name] && !hasKey(cfg.Variables, name) {
					report.warnf(id, "variable '%s' is neither a parameter nor a pipeline variable and must be supplied at run time", name)
				}
				continue
			}
			if source, ok := ref.StageID(); ok {
				switch {
				case source == id:
					report.errorf(id, "binding '%s' refers to the stage itself", raw)
				case !seen[source]:
					report.errorf(id, "binding '%s' refers to '%s', which is not an earlier stage", raw, source)
				}
			}
		}

		if opts.Placeholders != nil {
			validateTemplate(report, stage, bound, opts.Placeholders)
		}
		seen[id] = true
	}

	return report
}

func validateTemplate(report *ValidationReport, stage StageConfig, bound map[string]bool, lookup func(string) ([]string, error)) {
	templateID, ok := stage.StepConfig["template"].(string)
	if !ok || templateID == "" || strings.HasPrefix(templateID, "$") {
		return
	}

	placeholders, err := lookup(templateID)
	if err != nil {
		report.errorf(stage.ID, "%v", err)
		return
	}

	present := make(map[string]bool, len(placeholders))
	for _, p := range placeholders {
		present[p] = true
	}

	for _, binding := range stage.Inputs {
		ref := ParseBinding(binding)
		if ref.Placeholder != "" && !present[ref.Placeholder] {
			report.warnf(stage.ID, "placeholder '{{%s}}' is bound but template '%s' does not contain it; the binding has no effect", ref.Placeholder, templateID)
		}
	}

	// A stage without bindings fills the only placeholder of its template
	if len(stage.Inputs) == 0 && len(placeholders) <= 1 {
		return
	}
	for _, p := range placeholders {
		if !bound[p] {
			report.warnf(stage.ID, "placeholder '{{%s}}' of template '%s' is not bound and stays in the prompt", p, templateID)
		}
	}
}

func hasKey(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}
