package promptchain

import (
	"fmt"

	"github.com/simon020286/promptchain/builder"
	"github.com/simon020286/promptchain/config"
)

// BuildFromConfig builds a pipeline from a configuration. Structural errors
// fail the build; warnings, such as a placeholder bound but absent from its
// template, are logged and the binding stays a no-op.
func BuildFromConfig(cfg *config.PipelineConfig, deps *builder.Deps) (*Pipeline, error) {
	if deps == nil {
		deps = &builder.Deps{}
	}
	logger := deps.Log()

	report := builder.ValidatePipeline(cfg, deps)
	if err := report.Err(); err != nil {
		return nil, err
	}
	for _, w := range report.Warnings {
		logger.Warn("pipeline definition", "pipeline", cfg.Name, "warning", w.String())
	}

	pipeline := NewPipeline()
	pipeline.SetName(cfg.Name)
	pipeline.SetLogger(logger)
	pipeline.SetGlobalVariables(cfg.Variables)
	pipeline.SetGlobalSecrets(cfg.Secrets)
	pipeline.SetParameters(cfg.Parameters)

	for _, stageConfig := range cfg.Stages {
		// Create the step using the factory
		step, err := builder.CreateStep(stageConfig.StepType, stageConfig.StepConfig, deps)
		if err != nil {
			return nil, fmt.Errorf("stage '%s': %w", stageConfig.ID, err)
		}

		stage := NewStage(stageConfig.ID, step)
		stage.Title = stageConfig.Title
		stage.Progress = stageConfig.Progress

		if err := pipeline.AddStage(stage).Bind(stageConfig.Inputs...); err != nil {
			return nil, err
		}
	}

	return pipeline, nil
}
