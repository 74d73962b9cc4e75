// Package promptchain drives a short idea through an ordered chain of
// template substitution and text generation stages.
package promptchain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/simon020286/promptchain/builder"
	"github.com/simon020286/promptchain/config"
	"github.com/simon020286/promptchain/models"
	"github.com/simon020286/promptchain/slogger"
	_ "github.com/simon020286/promptchain/steps"
)

// Stage represents a pipeline step together with the bindings that fill the
// placeholders of its template
type Stage struct {
	ID       string      // Unique identifier of the stage
	Title    string      // Heading shown above the stage output
	Progress string      // Caption shown while the stage runs
	Step     models.Step // The step to execute
	bindings []config.BindingRef
}

// NewStage creates a new stage without bindings. Bindings are added via
// pipeline.AddStage(stage).Bind(...)
func NewStage(id string, step models.Step) *Stage {
	return &Stage{
		ID:   id,
		Step: step,
	}
}

// Bindings returns the bindings of the stage
func (s *Stage) Bindings() []config.BindingRef {
	out := make([]config.BindingRef, len(s.bindings))
	copy(out, s.bindings)
	return out
}

// Pipeline runs its stages strictly in the order they were added. The stage
// list is fixed once runs start; a Pipeline keeps no state between runs, so
// it can serve concurrent runs.
type Pipeline struct {
	name   string
	stages []*Stage
	mutex  sync.RWMutex

	eventBus *eventBus
	logger   slogger.Logger

	// Global configuration
	globalVariables map[string]any // Variables accessible to all stages
	globalSecrets   map[string]any // Secrets accessible to all stages
	parameters      []config.ParameterConfig
}

// StageBuilder allows configuring a stage with fluent API
type StageBuilder struct {
	pipeline *Pipeline
	stage    *Stage
}

// Bind declares which text fills each placeholder of the stage, using the
// "placeholder" or "placeholder:source" syntax of config.ParseBinding.
// Returns error if a source stage was not added before this stage.
func (sb *StageBuilder) Bind(bindings ...string) error {
	sb.pipeline.mutex.Lock()
	defer sb.pipeline.mutex.Unlock()

	for _, raw := range bindings {
		ref := config.ParseBinding(raw)
		if ref.Placeholder == "" {
			return fmt.Errorf("stage '%s': binding '%s' has no placeholder name", sb.stage.ID, raw)
		}
		if source, ok := ref.StageID(); ok && !sb.pipeline.isBefore(source, sb.stage) {
			return fmt.Errorf("stage '%s': binding '%s' refers to '%s', which is not an earlier stage", sb.stage.ID, raw, source)
		}
		sb.stage.bindings = append(sb.stage.bindings, ref)
	}
	return nil
}

// Title sets the heading of the stage
func (sb *StageBuilder) Title(title string) *StageBuilder {
	sb.stage.Title = title
	return sb
}

// isBefore reports whether a stage with the given ID precedes stage
func (p *Pipeline) isBefore(id string, stage *Stage) bool {
	for _, s := range p.stages {
		if s == stage {
			return false
		}
		if s.ID == id {
			return true
		}
	}
	return false
}

// NewPipeline creates a new pipeline
func NewPipeline() *Pipeline {
	return &Pipeline{
		stages:   make([]*Stage, 0),
		eventBus: newEventBus(),
		logger:   slogger.DefaultLogger,
	}
}

// SetName sets the name reported in run events
func (p *Pipeline) SetName(name string) {
	p.name = name
}

func (p *Pipeline) Name() string {
	return p.name
}

// AddListener adds a listener to receive events from the pipeline
func (p *Pipeline) AddListener(listener models.EventListener) {
	p.eventBus.addListener(listener)
}

// RemoveListeners removes all listeners
func (p *Pipeline) RemoveListeners() {
	p.eventBus.removeAllListeners()
}

// SetLogger sets the logger used by runs
func (p *Pipeline) SetLogger(logger slogger.Logger) {
	if logger == nil {
		logger = slogger.DefaultLogger
	}
	p.logger = logger
}

// SetGlobalVariables sets the variables accessible to all stages
func (p *Pipeline) SetGlobalVariables(variables map[string]any) {
	p.globalVariables = variables
}

// SetGlobalSecrets sets the secrets accessible to all stages
func (p *Pipeline) SetGlobalSecrets(secrets map[string]any) {
	p.globalSecrets = secrets
}

// SetParameters declares the integer parameters a run accepts. Their
// defaults become run variables and values passed with WithVariable are
// checked against their range.
func (p *Pipeline) SetParameters(params []config.ParameterConfig) {
	p.parameters = params
}

// Parameters returns the declared parameters
func (p *Pipeline) Parameters() []config.ParameterConfig {
	return p.parameters
}

// AddStage adds a stage at the end of the pipeline and returns a StageBuilder
// to configure its bindings
func (p *Pipeline) AddStage(stage *Stage) *StageBuilder {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.stages = append(p.stages, stage)
	return &StageBuilder{pipeline: p, stage: stage}
}

// GetStage returns a stage by ID
func (p *Pipeline) GetStage(id string) (*Stage, bool) {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	for _, s := range p.stages {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// Stages returns the stages in execution order
func (p *Pipeline) Stages() []*Stage {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	out := make([]*Stage, len(p.stages))
	copy(out, p.stages)
	return out
}

// Validate checks that the pipeline can run
func (p *Pipeline) Validate() error {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	if len(p.stages) == 0 {
		return errors.New("pipeline has no stages")
	}

	seen := make(map[string]bool, len(p.stages))
	for i, stage := range p.stages {
		if stage.ID == "" {
			return fmt.Errorf("stage %d has no id", i+1)
		}
		if seen[stage.ID] {
			return fmt.Errorf("duplicate stage id '%s'", stage.ID)
		}
		if stage.Step == nil {
			return fmt.Errorf("stage '%s' has no step", stage.ID)
		}
		for _, ref := range stage.bindings {
			if source, ok := ref.StageID(); ok && !seen[source] {
				return fmt.Errorf("stage '%s': binding '%s' refers to '%s', which is not an earlier stage", stage.ID, ref, source)
			}
		}
		seen[stage.ID] = true
	}
	return nil
}

// RunOption configures a single run
type RunOption func(*runOptions)

type runOptions struct {
	runID     string
	variables map[string]any
}

// WithVariable sets a run variable, e.g. the count of the numbered pipeline
func WithVariable(name string, value any) RunOption {
	return func(o *runOptions) {
		o.variables[name] = value
	}
}

// WithVariables sets several run variables
func WithVariables(vars map[string]any) RunOption {
	return func(o *runOptions) {
		for k, v := range vars {
			o.variables[k] = v
		}
	}
}

// WithRunID sets the ID of the run instead of generating one
func WithRunID(id string) RunOption {
	return func(o *runOptions) {
		o.runID = id
	}
}

// Run drives input through every stage in order and returns one output per
// stage. Stages never overlap: each backend call returns before the next
// stage starts.
//
// An input that is empty after trimming is rejected with an InvalidInputError
// before any stage runs. When stage k fails the run aborts: the result keeps
// the outputs of the stages before k, FailedStage names stage k and the
// returned error is a *models.StageError wrapping the cause.
func (p *Pipeline) Run(ctx context.Context, input string, opts ...RunOption) (*RunResult, error) {
	o := &runOptions{variables: make(map[string]any)}
	for _, opt := range opts {
		opt(o)
	}
	if o.runID == "" {
		o.runID = builder.GenerateRunID()
	}

	result := &RunResult{RunID: o.runID, Input: input}
	if strings.TrimSpace(input) == "" {
		result.Err = models.ErrInvalid("input is empty")
		return result, result.Err
	}

	if err := p.Validate(); err != nil {
		result.Err = fmt.Errorf("pipeline validation failed: %w", err)
		return result, result.Err
	}

	vars, err := p.runVariables(o.variables)
	if err != nil {
		result.Err = err
		return result, err
	}
	result.Variables = vars

	stages := p.Stages()
	logger := p.logger.With("run_id", o.runID)
	if p.name != "" {
		logger = logger.With("pipeline", p.name)
	}

	startTime := time.Now()
	p.eventBus.emitRunStarted(o.runID, p.name, len(stages))
	logger.Debug("run started", "stages", len(stages))

	completed := make(map[string]map[string]*models.Data, len(stages))
	previous := input

	for i, stage := range stages {
		stageStart := time.Now()
		p.eventBus.emitStageStarted(o.runID, stage, i, len(stages))
		logger.Debug("stage started", "stage", stage.ID, "index", i+1, "total", len(stages))

		output, err := p.runStage(ctx, stage, &models.StepInput{
			Input:           input,
			Previous:        previous,
			Data:            snapshot(completed),
			RunID:           o.runID,
			StageID:         stage.ID,
			Timestamp:       stageStart,
			GlobalVariables: vars,
			GlobalSecrets:   p.globalSecrets,
		})
		if err != nil {
			stageErr := &models.StageError{StageID: stage.ID, Index: i, Err: err}
			p.eventBus.emitStageError(o.runID, stage, i, err)
			p.eventBus.emitRunAborted(o.runID, stage.ID, stageErr)
			logger.Warn("run aborted", "stage", stage.ID, "error", err)

			result.FailedStage = stage.ID
			result.Err = stageErr
			return result, stageErr
		}

		duration := time.Since(stageStart)
		result.Stages = append(result.Stages, StageResult{
			StageID:  stage.ID,
			Title:    stage.Title,
			Output:   output,
			Duration: duration,
		})
		completed[stage.ID] = output.Data
		previous = output.Text()

		p.eventBus.emitStageOutput(o.runID, stage, output)
		p.eventBus.emitStageCompleted(o.runID, stage, i, duration)
		logger.Debug("stage completed", "stage", stage.ID, "duration", duration)
	}

	result.Completed = true
	p.eventBus.emitRunCompleted(o.runID, time.Since(startTime))
	logger.Debug("run completed", "duration", time.Since(startTime))
	return result, nil
}

// runStage resolves the bindings of stage and executes its step
func (p *Pipeline) runStage(ctx context.Context, stage *Stage, in *models.StepInput) (*models.StepOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bindings, err := resolveBindings(stage.bindings, in)
	if err != nil {
		return nil, err
	}
	in.Bindings = bindings

	output, err := stage.Step.Run(ctx, in)
	if err != nil {
		return nil, err
	}
	if output == nil {
		return nil, errors.New("step returned no output")
	}
	if output.RunID == "" {
		output.RunID = in.RunID
	}
	return output, nil
}

// resolveBindings maps every placeholder of a stage to its text
func resolveBindings(refs []config.BindingRef, in *models.StepInput) (map[string]string, error) {
	bindings := make(map[string]string, len(refs))
	for _, ref := range refs {
		switch {
		case ref.IsPrevious():
			bindings[ref.Placeholder] = in.Previous
		case ref.IsInput():
			bindings[ref.Placeholder] = in.Input
		default:
			if name, ok := ref.Variable(); ok {
				value, exists := in.GlobalVariables[name]
				if !exists {
					return nil, fmt.Errorf("binding '%s': variable '%s' is not set", ref, name)
				}
				bindings[ref.Placeholder] = fmt.Sprint(value)
				continue
			}
			source, _ := ref.StageID()
			data, exists := in.Data[source]
			if !exists {
				return nil, fmt.Errorf("binding '%s': stage '%s' has no output", ref, source)
			}
			bindings[ref.Placeholder] = data[models.DefaultKey].String()
		}
	}
	return bindings, nil
}

// runVariables merges pipeline variables, parameter defaults and run
// variables, checking run values against the declared parameters
func (p *Pipeline) runVariables(overrides map[string]any) (map[string]any, error) {
	vars := make(map[string]any, len(p.globalVariables)+len(p.parameters)+len(overrides))
	for k, v := range p.globalVariables {
		vars[k] = v
	}
	for _, param := range p.parameters {
		vars[param.Name] = param.Default
	}
	for k, v := range overrides {
		vars[k] = v
	}

	for _, param := range p.parameters {
		value, err := toInt(vars[param.Name])
		if err != nil {
			return nil, models.ErrInvalid("%s: %v", param.Name, err)
		}
		if err := param.Check(value); err != nil {
			return nil, models.ErrInvalid("%v", err)
		}
		vars[param.Name] = value
	}
	return vars, nil
}

func toInt(v any) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		if val != math.Trunc(val) {
			return 0, fmt.Errorf("%v is not an integer", val)
		}
		return int(val), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", val)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%v is not an integer", v)
	}
}

// snapshot copies the stage map so that a step never sees later additions
func snapshot(completed map[string]map[string]*models.Data) map[string]map[string]*models.Data {
	out := make(map[string]map[string]*models.Data, len(completed))
	for k, v := range completed {
		out[k] = v
	}
	return out
}
