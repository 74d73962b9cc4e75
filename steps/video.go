package steps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/simon020286/promptchain/backend"
	"github.com/simon020286/promptchain/builder"
	"github.com/simon020286/promptchain/config"
	"github.com/simon020286/promptchain/models"
)

// VideoStep forwards the text it is bound to, unchanged, to the video backend
// and outputs the returned payload
type VideoStep struct {
	model           config.ValueSpec
	aspectRatio     config.ValueSpec
	durationSeconds config.ValueSpec
	negativePrompt  config.ValueSpec
	deps            *builder.Deps
}

func (s *VideoStep) Run(ctx context.Context, input *models.StepInput) (*models.StepOutput, error) {
	req := &backend.VideoRequest{Prompt: input.Text()}

	var err error
	if req.Model, err = config.ResolveString(s.model, input, ""); err != nil {
		return nil, fmt.Errorf("failed to resolve model: %w", err)
	}
	if req.AspectRatio, err = config.ResolveString(s.aspectRatio, input, ""); err != nil {
		return nil, fmt.Errorf("failed to resolve aspect_ratio: %w", err)
	}
	if req.DurationSeconds, err = config.ResolveInt(s.durationSeconds, input, 0); err != nil {
		return nil, fmt.Errorf("failed to resolve duration_seconds: %w", err)
	}
	if req.NegativePrompt, err = config.ResolveString(s.negativePrompt, input, ""); err != nil {
		return nil, fmt.Errorf("failed to resolve negative_prompt: %w", err)
	}

	s.deps.Log().Debug("sending prompt to video backend", "stage", input.StageID, "model", req.Model)

	result, err := s.deps.Video.GenerateVideo(ctx, req)
	if err != nil {
		return nil, err
	}

	output := &models.StepOutput{
		Data:      models.CreateDefaultResultData(result.Data),
		RunID:     input.RunID,
		Timestamp: time.Now(),
	}
	output.Set(models.MIMETypeKey, result.MIMEType)
	if result.URI != "" {
		output.Set(models.URIKey, result.URI)
	}
	return output, nil
}

func init() {
	builder.RegisterStepType("video", func(cfg map[string]any, deps *builder.Deps) (models.Step, error) {
		if deps.Video == nil {
			return nil, errors.New("video step requires a video generator")
		}
		return &VideoStep{
			model:           builder.OptionalValue(cfg, "model"),
			aspectRatio:     builder.OptionalValue(cfg, "aspect_ratio"),
			durationSeconds: builder.OptionalValue(cfg, "duration_seconds"),
			negativePrompt:  builder.OptionalValue(cfg, "negative_prompt"),
			deps:            deps,
		}, nil
	})
}
