package promptchain

import (
	"context"
	"strings"
	"testing"

	"github.com/simon020286/promptchain/backend"
	"github.com/simon020286/promptchain/builder"
	"github.com/simon020286/promptchain/config"
	"github.com/simon020286/promptchain/models"
	"github.com/simon020286/promptchain/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultDeps(t *testing.T, gen backend.Generator, video backend.VideoGenerator) *builder.Deps {
	t.Helper()
	store, err := templates.Defaults()
	require.NoError(t, err)
	return &builder.Deps{Templates: store, Generator: gen, Video: video}
}

func fakeVideo(prompts *[]string) backend.VideoGenerator {
	return backend.VideoGeneratorFunc(func(_ context.Context, req *backend.VideoRequest) (*backend.VideoResult, error) {
		*prompts = append(*prompts, req.Prompt)
		return &backend.VideoResult{Data: []byte("mp4data"), MIMEType: "video/mp4"}, nil
	})
}

func TestBuildFromConfig_BuiltInCatalog(t *testing.T) {
	catalog, err := builder.DefaultCatalog()
	require.NoError(t, err)

	var videos []string
	deps := defaultDeps(t, &recordingGenerator{}, fakeVideo(&videos))

	for _, name := range catalog.List() {
		t.Run(name, func(t *testing.T) {
			cfg, ok := catalog.Get(name)
			require.True(t, ok)

			report := builder.ValidatePipeline(cfg, deps)
			assert.True(t, report.OK(), "%v", report.Err())
			assert.Empty(t, report.Warnings)

			p, err := BuildFromConfig(cfg, deps)
			require.NoError(t, err)
			assert.Equal(t, name, p.Name())
			assert.Len(t, p.Stages(), len(cfg.Stages))
		})
	}
}

func TestBuildFromConfig_VeoRun(t *testing.T) {
	catalog, err := builder.DefaultCatalog()
	require.NoError(t, err)
	cfg, _ := catalog.Get("veo")

	gen := &recordingGenerator{reply: func(call int, _ string) (string, error) {
		return []string{"", "DETAILS", "ENHANCED", "FINAL PROMPT"}[call], nil
	}}
	p, err := BuildFromConfig(cfg, defaultDeps(t, gen, nil))
	require.NoError(t, err)

	result, err := p.Run(context.Background(), "a lighthouse keeper at dawn")
	require.NoError(t, err)

	calls := gen.calls()
	require.Len(t, calls, 3)
	assert.Contains(t, calls[0], "a lighthouse keeper at dawn")
	assert.Contains(t, calls[1], "DETAILS")
	assert.NotContains(t, calls[1], "a lighthouse keeper at dawn")
	assert.Contains(t, calls[2], "ENHANCED")
	for _, c := range calls {
		assert.NotContains(t, c, "{{")
	}

	assert.Equal(t, "FINAL PROMPT", result.Final())
	assert.Equal(t, []string{"Extracted Details", "Enhanced Version", "Final Veo Prompt"}, []string{
		result.Stages[0].Title, result.Stages[1].Title, result.Stages[2].Title,
	})
}

func TestBuildFromConfig_VideoStageReceivesFinalPromptUnchanged(t *testing.T) {
	catalog, err := builder.DefaultCatalog()
	require.NoError(t, err)
	cfg, _ := catalog.Get("veo-video")

	gen := &recordingGenerator{reply: func(call int, _ string) (string, error) {
		return []string{"", "d", "e", "  final prompt\n"}[call], nil
	}}
	var videos []string
	p, err := BuildFromConfig(cfg, defaultDeps(t, gen, fakeVideo(&videos)))
	require.NoError(t, err)

	result, err := p.Run(context.Background(), "idea")
	require.NoError(t, err)
	assert.Equal(t, []string{"  final prompt\n"}, videos)

	out, ok := result.Output("video")
	require.True(t, ok)
	data, _ := out.Get(models.DefaultKey)
	assert.Equal(t, []byte("mp4data"), data)
	mime, _ := out.Get(models.MIMETypeKey)
	assert.Equal(t, "video/mp4", mime)
	assert.Equal(t, "  final prompt\n", result.Final())
	assert.Equal(t, "<7 bytes>", result.Texts()[3])
}

func TestBuildFromConfig_NumberedRun(t *testing.T) {
	catalog, err := builder.DefaultCatalog()
	require.NoError(t, err)
	cfg, _ := catalog.Get("numbered")

	list := "1. first shot\n2. second shot\nspans two lines\n3. third shot"
	gen := &recordingGenerator{reply: func(int, string) (string, error) { return list, nil }}
	p, err := BuildFromConfig(cfg, defaultDeps(t, gen, nil))
	require.NoError(t, err)

	result, err := p.Run(context.Background(), "city at night", WithVariable("count", 5))
	require.NoError(t, err)
	require.Len(t, gen.calls(), 1)
	assert.Contains(t, gen.calls()[0], "exactly 5 distinct")
	assert.Contains(t, gen.calls()[0], "city at night")

	out, ok := result.Output("split")
	require.True(t, ok)
	segments, _ := out.Get(models.SegmentsKey)
	assert.Equal(t, []string{"first shot", "second shot\nspans two lines", "third shot"}, segments)
	requested, _ := out.Get(models.RequestedKey)
	found, _ := out.Get(models.FoundKey)
	assert.Equal(t, 5, requested)
	assert.Equal(t, 3, found)
}

func TestBuildFromConfig_NumberedCountOutOfRange(t *testing.T) {
	catalog, err := builder.DefaultCatalog()
	require.NoError(t, err)
	cfg, _ := catalog.Get("numbered")

	gen := &recordingGenerator{}
	p, err := BuildFromConfig(cfg, defaultDeps(t, gen, nil))
	require.NoError(t, err)

	for _, count := range []int{0, 4, 41, 100} {
		_, err := p.Run(context.Background(), "idea", WithVariable("count", count))
		assert.ErrorIs(t, err, models.ErrInvalidInput, "count %d", count)
	}
	assert.Empty(t, gen.calls())
}

func TestBuildFromConfig_LongformRun(t *testing.T) {
	catalog, err := builder.DefaultCatalog()
	require.NoError(t, err)
	cfg, _ := catalog.Get("longform")

	gen := &recordingGenerator{reply: func(call int, _ string) (string, error) {
		return []string{"", "GLOBAL", "BEATS", "SCENES", "```json\n{\"scenes\":[{\"id\":1}]}\n```"}[call], nil
	}}
	p, err := BuildFromConfig(cfg, defaultDeps(t, gen, nil))
	require.NoError(t, err)

	result, err := p.Run(context.Background(), "a heist in Venice")
	require.NoError(t, err)

	calls := gen.calls()
	require.Len(t, calls, 4)
	assert.Contains(t, calls[2], "GLOBAL")
	assert.Contains(t, calls[2], "BEATS")
	assert.Contains(t, calls[3], "GLOBAL")
	assert.Contains(t, calls[3], "SCENES")
	assert.NotContains(t, calls[3], "BEATS")

	final, _ := result.Output("final")
	_, malformed := final.Get(models.MalformedJSONKey)
	assert.False(t, malformed)
	assert.True(t, strings.HasPrefix(result.Final(), "{\n"))
	assert.Contains(t, result.Final(), `"scenes"`)
}

func TestBuildFromConfig_Errors(t *testing.T) {
	deps := defaultDeps(t, &recordingGenerator{}, nil)

	tests := []struct {
		name string
		yaml string
	}{
		{"no stages", "name: x\nstages: []\n"},
		{"unknown step type", "name: x\nstages:\n  - id: a\n    step_type: nope\n"},
		{"forward reference", "name: x\nstages:\n  - id: a\n    step_type: generate\n    step_config: {template: enhancer}\n    inputs: [details:b]\n  - id: b\n    step_type: generate\n    step_config: {template: extractor}\n"},
		{"missing template", "name: x\nstages:\n  - id: a\n    step_type: generate\n    step_config: {template: nope}\n"},
		{"video without backend", "name: x\nstages:\n  - id: a\n    step_type: video\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.ParsePipeline([]byte(tt.yaml))
			require.NoError(t, err)
			_, err = BuildFromConfig(cfg, deps)
			assert.Error(t, err)
		})
	}
}

func TestBuildFromConfig_AbsentPlaceholderOnlyWarns(t *testing.T) {
	deps := defaultDeps(t, &recordingGenerator{}, nil)
	cfg, err := config.ParsePipeline([]byte(`name: x
stages:
  - id: a
    step_type: generate
    step_config: {template: extractor}
    inputs: [context:input, mood:input]
`))
	require.NoError(t, err)

	report := builder.ValidatePipeline(cfg, deps)
	assert.True(t, report.OK())
	assert.NotEmpty(t, report.Warnings)

	p, err := BuildFromConfig(cfg, deps)
	require.NoError(t, err)
	_, err = p.Run(context.Background(), "idea")
	assert.NoError(t, err)
}
