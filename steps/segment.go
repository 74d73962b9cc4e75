package steps

import (
	"context"
	"fmt"

	"github.com/simon020286/promptchain/builder"
	"github.com/simon020286/promptchain/config"
	"github.com/simon020286/promptchain/format"
	"github.com/simon020286/promptchain/models"
)

// SegmentStep splits a numbered list into its items. The requested count is
// only reported next to the number of items found, never enforced.
type SegmentStep struct {
	countVar string
	count    config.ValueSpec
	deps     *builder.Deps
}

func (s *SegmentStep) Run(_ context.Context, input *models.StepInput) (*models.StepOutput, error) {
	text := input.Text()

	requested, err := s.requested(input)
	if err != nil {
		return nil, err
	}

	seg := format.Segment(text, requested)
	if seg.Mismatch() {
		s.deps.Log().Warn("segment count mismatch",
			"stage", input.StageID, "requested", seg.Requested, "found", seg.Found())
	}

	return models.NewTextOutput(input, text).
		Set(models.SegmentsKey, seg.Items).
		Set(models.RequestedKey, seg.Requested).
		Set(models.FoundKey, seg.Found()), nil
}

func (s *SegmentStep) requested(input *models.StepInput) (int, error) {
	spec := s.count
	if spec == nil && s.countVar != "" {
		if _, ok := input.GlobalVariables[s.countVar]; !ok {
			return 0, nil
		}
		spec = config.VariableReference{Name: s.countVar}
	}
	n, err := config.ResolveInt(spec, input, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve requested count: %w", err)
	}
	return n, nil
}

func init() {
	builder.RegisterStepType("segment", func(cfg map[string]any, deps *builder.Deps) (models.Step, error) {
		countVar, _ := cfg["count_var"].(string)
		return &SegmentStep{
			countVar: countVar,
			count:    builder.OptionalValue(cfg, "count"),
			deps:     deps,
		}, nil
	})
}
