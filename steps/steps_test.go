package steps

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/simon020286/promptchain/backend"
	"github.com/simon020286/promptchain/builder"
	"github.com/simon020286/promptchain/models"
	"github.com/simon020286/promptchain/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingGenerator struct {
	mu       sync.Mutex
	requests []*backend.GenerationRequest
	reply    func(req *backend.GenerationRequest) (string, error)
}

func (g *recordingGenerator) Generate(_ context.Context, req *backend.GenerationRequest) (*backend.GenerationResult, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()
	text, err := g.reply(req)
	if err != nil {
		return nil, err
	}
	return &backend.GenerationResult{Text: text, Model: req.Model}, nil
}

func echo(req *backend.GenerationRequest) (string, error) {
	return "ECHO: " + req.Prompt, nil
}

func testDeps(t *testing.T, gen backend.Generator) *builder.Deps {
	t.Helper()
	store := templates.NewStore()
	store.Add(templates.Parse("single", "Details: {{details}}"), "test")
	store.Add(templates.Parse("pair", "G={{global}} S={{scenes}}"), "test")
	store.Add(templates.Parse("context", "{{context}}"), "test")
	return &builder.Deps{Templates: store, Generator: gen, Model: "default-model"}
}

func newStep(t *testing.T, stepType string, cfg map[string]any, deps *builder.Deps) models.Step {
	t.Helper()
	step, err := builder.CreateStep(stepType, cfg, deps)
	require.NoError(t, err)
	return step
}

func TestGenerateStep_RendersBindings(t *testing.T) {
	gen := &recordingGenerator{reply: echo}
	step := newStep(t, "generate", map[string]any{"template": "pair"}, testDeps(t, gen))

	out, err := step.Run(context.Background(), &models.StepInput{
		StageID:  "final",
		Bindings: map[string]string{"global": "noir", "scenes": "{{global}}"},
	})
	require.NoError(t, err)

	// Bound values are never re-scanned for placeholders
	assert.Equal(t, "ECHO: G=noir S={{global}}", out.Text())
	require.Len(t, gen.requests, 1)
	assert.Equal(t, "default-model", gen.requests[0].Model)
	assert.Nil(t, gen.requests[0].Temperature)
	assert.False(t, gen.requests[0].JSON)
}

func TestGenerateStep_SinglePlaceholderTakesPrevious(t *testing.T) {
	gen := &recordingGenerator{reply: echo}
	step := newStep(t, "generate", map[string]any{"template": "single"}, testDeps(t, gen))

	out, err := step.Run(context.Background(), &models.StepInput{Previous: "a red kite"})
	require.NoError(t, err)
	assert.Equal(t, "ECHO: Details: a red kite", out.Text())
}

func TestGenerateStep_AbsentPlaceholderIsNoOp(t *testing.T) {
	gen := &recordingGenerator{reply: echo}
	step := newStep(t, "generate", map[string]any{"template": "single"}, testDeps(t, gen))

	_, err := step.Run(context.Background(), &models.StepInput{
		Bindings: map[string]string{"detail": "ignored"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Details: {{details}}", gen.requests[0].Prompt)
}

func TestGenerateStep_Overrides(t *testing.T) {
	gen := &recordingGenerator{reply: echo}
	step := newStep(t, "generate", map[string]any{
		"template":    "context",
		"model":       "$var:model",
		"temperature": 0.3,
	}, testDeps(t, gen))

	_, err := step.Run(context.Background(), &models.StepInput{
		Bindings:        map[string]string{"context": "x"},
		GlobalVariables: map[string]any{"model": "llama-3.1-8b-instant"},
	})
	require.NoError(t, err)
	assert.Equal(t, "llama-3.1-8b-instant", gen.requests[0].Model)
	require.NotNil(t, gen.requests[0].Temperature)
	assert.Equal(t, 0.3, *gen.requests[0].Temperature)
}

func TestGenerateStep_JSONPretty(t *testing.T) {
	gen := &recordingGenerator{reply: func(*backend.GenerationRequest) (string, error) {
		return `{"a":1}`, nil
	}}
	step := newStep(t, "generate", map[string]any{"template": "context", "json": true, "pretty": true}, testDeps(t, gen))

	out, err := step.Run(context.Background(), &models.StepInput{Bindings: map[string]string{"context": "x"}})
	require.NoError(t, err)
	assert.True(t, gen.requests[0].JSON)
	assert.Equal(t, "{\n  \"a\": 1\n}", out.Text())
	raw, ok := out.Get(models.RawKey)
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, raw)
	_, malformed := out.Get(models.MalformedJSONKey)
	assert.False(t, malformed)
}

func TestGenerateStep_MalformedJSONPassesThrough(t *testing.T) {
	gen := &recordingGenerator{reply: func(*backend.GenerationRequest) (string, error) {
		return "not json", nil
	}}
	step := newStep(t, "generate", map[string]any{"template": "context", "json": true, "pretty": true}, testDeps(t, gen))

	out, err := step.Run(context.Background(), &models.StepInput{Bindings: map[string]string{"context": "x"}})
	require.NoError(t, err)
	assert.Equal(t, "not json", out.Text())
	flag, ok := out.Get(models.MalformedJSONKey)
	require.True(t, ok)
	assert.Equal(t, true, flag)
}

func TestGenerateStep_BackendErrorSurfaced(t *testing.T) {
	backendErr := &models.BackendError{Backend: "groq", Kind: models.BackendAuthFailure, Err: errors.New("invalid api key")}
	gen := &recordingGenerator{reply: func(*backend.GenerationRequest) (string, error) {
		return "", backendErr
	}}
	step := newStep(t, "generate", map[string]any{"template": "context"}, testDeps(t, gen))

	_, err := step.Run(context.Background(), &models.StepInput{Bindings: map[string]string{"context": "x"}})
	require.ErrorIs(t, err, backendErr)
	assert.True(t, models.IsAuthFailure(err))
}

func TestGenerateStep_EmptyResponseFails(t *testing.T) {
	for _, reply := range []string{"", " \n\t"} {
		gen := &recordingGenerator{reply: func(*backend.GenerationRequest) (string, error) { return reply, nil }}
		step := newStep(t, "generate", map[string]any{"template": "context"}, testDeps(t, gen))

		out, err := step.Run(context.Background(), &models.StepInput{Bindings: map[string]string{"context": "x"}})
		require.Error(t, err)
		assert.Nil(t, out)
		var be *models.BackendError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, models.BackendCallFailure, be.Kind)
		assert.Contains(t, err.Error(), "no text")
	}
}

func TestGenerateStep_FactoryErrors(t *testing.T) {
	deps := testDeps(t, &recordingGenerator{reply: echo})

	_, err := builder.CreateStep("generate", map[string]any{}, deps)
	require.Error(t, err)

	_, err = builder.CreateStep("generate", map[string]any{"template": "missing"}, deps)
	var loadErr *models.TemplateLoadError
	require.ErrorAs(t, err, &loadErr)

	_, err = builder.CreateStep("generate", map[string]any{"template": "single"}, &builder.Deps{Templates: deps.Templates})
	require.Error(t, err)
}

func TestSegmentStep(t *testing.T) {
	step := newStep(t, "segment", map[string]any{"count_var": "count"}, &builder.Deps{})

	out, err := step.Run(context.Background(), &models.StepInput{
		Previous:        "1. a\n2. b\n3. c",
		GlobalVariables: map[string]any{"count": 5},
	})
	require.NoError(t, err)

	segments, _ := out.Get(models.SegmentsKey)
	assert.Equal(t, []string{"a", "b", "c"}, segments)
	requested, _ := out.Get(models.RequestedKey)
	assert.Equal(t, 5, requested)
	found, _ := out.Get(models.FoundKey)
	assert.Equal(t, 3, found)
	assert.Equal(t, "1. a\n2. b\n3. c", out.Text())
}

func TestSegmentStep_NoMarkers(t *testing.T) {
	step := newStep(t, "segment", map[string]any{}, &builder.Deps{})

	out, err := step.Run(context.Background(), &models.StepInput{Previous: "no markers here"})
	require.NoError(t, err)
	segments, _ := out.Get(models.SegmentsKey)
	assert.Equal(t, []string{}, segments)
	requested, _ := out.Get(models.RequestedKey)
	assert.Equal(t, 0, requested)
}

func TestVideoStep(t *testing.T) {
	var got *backend.VideoRequest
	video := backend.VideoGeneratorFunc(func(_ context.Context, req *backend.VideoRequest) (*backend.VideoResult, error) {
		got = req
		return &backend.VideoResult{Data: []byte("mp4"), MIMEType: "video/mp4", URI: "files/1"}, nil
	})
	step := newStep(t, "video", map[string]any{"aspect_ratio": "16:9", "duration_seconds": 8}, &builder.Deps{Video: video})

	prompt := "  Final prompt, kept exactly as is.\n"
	out, err := step.Run(context.Background(), &models.StepInput{Previous: prompt})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, prompt, got.Prompt)
	assert.Equal(t, "16:9", got.AspectRatio)
	assert.Equal(t, 8, got.DurationSeconds)

	data, _ := out.Get(models.DefaultKey)
	assert.Equal(t, []byte("mp4"), data)
	mime, _ := out.Get(models.MIMETypeKey)
	assert.Equal(t, "video/mp4", mime)
	assert.Equal(t, "<3 bytes>", out.Text())
}

func TestVideoStep_ErrorSurfacedVerbatim(t *testing.T) {
	cause := errors.New("veo backend: quota exceeded")
	video := backend.VideoGeneratorFunc(func(context.Context, *backend.VideoRequest) (*backend.VideoResult, error) {
		return nil, cause
	})
	step := newStep(t, "video", map[string]any{}, &builder.Deps{Video: video})

	_, err := step.Run(context.Background(), &models.StepInput{Previous: "p"})
	assert.Equal(t, cause, err)

	_, err = builder.CreateStep("video", map[string]any{}, &builder.Deps{})
	require.Error(t, err)
}

func TestJsonStep(t *testing.T) {
	step := newStep(t, "json", map[string]any{}, &builder.Deps{})

	out, err := step.Run(context.Background(), &models.StepInput{Previous: `{"scenes":[1,2]}`})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"scenes\": [\n    1,\n    2\n  ]\n}", out.Text())
	value, ok := out.Get("value")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"scenes": []any{1.0, 2.0}}, value)

	out, err = step.Run(context.Background(), &models.StepInput{Previous: "not json"})
	require.NoError(t, err)
	assert.Equal(t, "not json", out.Text())
	flag, _ := out.Get(models.MalformedJSONKey)
	assert.Equal(t, true, flag)
}

func TestJsStep(t *testing.T) {
	step := newStep(t, "js", map[string]any{
		"code": "return $text.toUpperCase() + ' x' + $vars.count + ' ' + ctx.input",
	}, &builder.Deps{})

	out, err := step.Run(context.Background(), &models.StepInput{
		Input:           "idea",
		Previous:        "scene",
		GlobalVariables: map[string]any{"count": 3},
	})
	require.NoError(t, err)
	assert.Equal(t, "SCENE x3 idea", out.Text())

	_, err = builder.CreateStep("js", map[string]any{}, &builder.Deps{})
	require.Error(t, err)
}

func TestJsStep_Error(t *testing.T) {
	step := newStep(t, "js", map[string]any{"code": "throw new Error('bad')"}, &builder.Deps{})
	_, err := step.Run(context.Background(), &models.StepInput{})
	require.Error(t, err)
}
