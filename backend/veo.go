package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/simon020286/promptchain/slogger"
	"google.golang.org/genai"
)

var (
	VeoDefaultModel        = "veo-3.0-generate-001"
	VeoDefaultPollInterval = 10 * time.Second
)

// videoAPI is the part of the genai client used by VeoGenerator
type videoAPI interface {
	GenerateVideos(ctx context.Context, model, prompt string, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error)
	GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error)
	Download(ctx context.Context, video *genai.GeneratedVideo) ([]byte, error)
}

type genaiVideoAPI struct {
	client *genai.Client
}

func (a *genaiVideoAPI) GenerateVideos(ctx context.Context, model, prompt string, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	return a.client.Models.GenerateVideos(ctx, model, prompt, nil, config)
}

func (a *genaiVideoAPI) GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	return a.client.Operations.GetVideosOperation(ctx, op, nil)
}

func (a *genaiVideoAPI) Download(ctx context.Context, video *genai.GeneratedVideo) ([]byte, error) {
	return a.client.Files.Download(ctx, genai.NewDownloadURIFromGeneratedVideo(video), nil)
}

// VeoOptions configures a VeoGenerator
type VeoOptions struct {
	APIKey       string
	BaseURL      string
	Model        string
	PollInterval time.Duration
	// Timeout bounds a whole generation including polling. Zero means none.
	Timeout      time.Duration
	HTTPClient   *http.Client
	Logger       slogger.Logger
}

// VeoGenerator generates videos with Veo. Generation is a long-running
// operation that is polled until it is done or ctx ends.
type VeoGenerator struct {
	api          videoAPI
	model        string
	pollInterval time.Duration
	timeout      time.Duration
	logger       slogger.Logger
}

// NewVeoGenerator creates a video generator backed by a genai client
func NewVeoGenerator(ctx context.Context, opts VeoOptions) (*VeoGenerator, error) {
	client, err := newGenAIClient(ctx, opts.APIKey, opts.BaseURL, opts.HTTPClient)
	if err != nil {
		return nil, err
	}
	return newVeoGenerator(&genaiVideoAPI{client: client}, opts), nil
}

func newVeoGenerator(api videoAPI, opts VeoOptions) *VeoGenerator {
	if opts.Model == "" {
		opts.Model = VeoDefaultModel
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = VeoDefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = slogger.DefaultLogger
	}
	return &VeoGenerator{
		api:          api,
		model:        opts.Model,
		pollInterval: opts.PollInterval,
		timeout:      opts.Timeout,
		logger:       opts.Logger,
	}
}

func (g *VeoGenerator) Name() string {
	return "veo"
}

func (g *VeoGenerator) GenerateVideo(ctx context.Context, req *VideoRequest) (*VideoResult, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	config := &genai.GenerateVideosConfig{
		AspectRatio:    req.AspectRatio,
		NegativePrompt: req.NegativePrompt,
	}
	if req.DurationSeconds > 0 {
		config.DurationSeconds = genai.Ptr(int32(req.DurationSeconds))
	}

	op, err := g.api.GenerateVideos(ctx, model, req.Prompt, config)
	if err != nil {
		return nil, classify(g.Name(), err)
	}
	g.logger.Debug("video generation started", "operation", op.Name, "model", model)

	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for !op.Done {
		select {
		case <-ctx.Done():
			return nil, callFailure(g.Name(), ctx.Err())
		case <-ticker.C:
		}
		op, err = g.api.GetVideosOperation(ctx, op)
		if err != nil {
			return nil, classify(g.Name(), err)
		}
		g.logger.Debug("video generation polled", "operation", op.Name, "done", op.Done)
	}

	if len(op.Error) > 0 {
		return nil, callFailure(g.Name(), fmt.Errorf("operation failed: %v", op.Error["message"]))
	}
	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 {
		reason := "no video returned"
		if op.Response != nil && len(op.Response.RAIMediaFilteredReasons) > 0 {
			reason += ": " + strings.Join(op.Response.RAIMediaFilteredReasons, "; ")
		}
		return nil, callFailure(g.Name(), errors.New(reason))
	}

	generated := op.Response.GeneratedVideos[0]
	if generated == nil || generated.Video == nil {
		return nil, callFailure(g.Name(), errors.New("no video returned"))
	}

	result := &VideoResult{
		Data:     generated.Video.VideoBytes,
		MIMEType: generated.Video.MIMEType,
		URI:      generated.Video.URI,
		Model:    model,
	}
	if len(result.Data) == 0 {
		data, err := g.api.Download(ctx, generated)
		if err != nil {
			return nil, classify(g.Name(), err)
		}
		result.Data = data
	}
	if len(result.Data) == 0 {
		return nil, callFailure(g.Name(), errors.New("video payload is empty"))
	}
	if result.MIMEType == "" {
		result.MIMEType = "video/mp4"
	}
	return result, nil
}
