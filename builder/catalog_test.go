package builder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	assert.Equal(t, []string{"longform", "numbered", "veo", "veo-video"}, c.List())

	veo, ok := c.Get("veo")
	require.True(t, ok)
	require.Len(t, veo.Stages, 3)
	assert.Equal(t, "extract", veo.Stages[0].ID)
	assert.Equal(t, "Extracted Details", veo.Stages[0].Title)
	assert.Equal(t, "Final Veo Prompt", veo.Stages[2].Title)
	assert.Equal(t, "embedded/veo.yaml", c.Source("veo"))

	numbered, ok := c.Get("numbered")
	require.True(t, ok)
	p, ok := numbered.Parameter("count")
	require.True(t, ok)
	assert.Equal(t, 10, p.Default)
	require.NotNil(t, p.Min)
	require.NotNil(t, p.Max)
	assert.Equal(t, 5, *p.Min)
	assert.Equal(t, 40, *p.Max)

	longform, ok := c.Get("longform")
	require.True(t, ok)
	final := longform.Stages[len(longform.Stages)-1]
	assert.Equal(t, true, final.StepConfig["json"])
	assert.Equal(t, []string{"global:global", "scenes:scenes"}, final.Inputs)
}

func TestLoadCatalog_OverrideAndExtend(t *testing.T) {
	dir := t.TempDir()
	override := "name: veo\ndescription: custom\nstages:\n  - id: only\n    step_type: generate\n"
	extra := "stages:\n  - id: one\n    step_type: generate\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "veo.yaml"), []byte(override), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "teaser.yml"), []byte(extra), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	c, err := LoadCatalog(filepath.Join(dir, "missing"), dir)
	require.NoError(t, err)

	veo, ok := c.Get("veo")
	require.True(t, ok)
	assert.Equal(t, "custom", veo.Description)
	assert.Len(t, veo.Stages, 1)
	assert.Equal(t, filepath.Join(dir, "veo.yaml"), c.Source("veo"))

	_, ok = c.Get("teaser")
	assert.True(t, ok)
	assert.Equal(t, 5, c.Count())
}

func TestLoadCatalog_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("stages: [unclosed"), 0o644))

	_, err := LoadCatalog(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml")
}

func TestPipelinePaths(t *testing.T) {
	t.Setenv("PROMPTCHAIN_PIPELINES_PATH", "/tmp/custom-pipelines")
	paths := PipelinePaths()
	require.NotEmpty(t, paths)
	assert.Equal(t, "/tmp/custom-pipelines", paths[len(paths)-1])
	assert.Contains(t, paths, filepath.Join(".promptchain", "pipelines"))
}
