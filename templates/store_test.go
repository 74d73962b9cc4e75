package templates

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/simon020286/promptchain/models"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	s, err := Defaults()
	require.NoError(t, err)

	for _, id := range []string{"extractor", "enhancer", "assembler", "numbered", "longform_global", "longform_scenes"} {
		_, err := s.Get(id)
		require.NoError(t, err, id)
	}

	extractor, _ := s.Get("extractor")
	require.Equal(t, []string{"context"}, extractor.Placeholders())

	scenes, _ := s.Get("longform_scenes")
	require.Equal(t, []string{"global", "beats"}, scenes.Placeholders())

	numbered, _ := s.Get("numbered")
	require.ElementsMatch(t, []string{"count", "context"}, numbered.Placeholders())
}

func TestStore_GetMissing(t *testing.T) {
	s := NewStore()
	_, err := s.Get("nope")
	require.Error(t, err)

	var loadErr *models.TemplateLoadError
	require.True(t, errors.As(err, &loadErr))
	require.Equal(t, "nope", loadErr.Name)
}

func TestLoad_OverrideDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extractor.txt"), []byte("custom {{context}}"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "extra"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra", "teaser.md"), []byte("teaser {{final}}"), 0o644))

	s, err := Load(dir, filepath.Join(dir, "missing"))
	require.NoError(t, err)

	extractor, err := s.Get("extractor")
	require.NoError(t, err)
	require.Equal(t, "custom {{context}}", extractor.Text())
	require.Equal(t, filepath.Join(dir, "extractor.txt"), s.Source("extractor"))

	teaser, err := s.Get("extra/teaser")
	require.NoError(t, err)
	require.Equal(t, []string{"final"}, teaser.Placeholders())

	// Built-ins that were not overridden are still there
	_, err = s.Get("enhancer")
	require.NoError(t, err)
}

func TestLoadDir_Missing(t *testing.T) {
	s := NewStore()
	err := s.LoadDir(filepath.Join(t.TempDir(), "missing"))

	var loadErr *models.TemplateLoadError
	require.ErrorAs(t, err, &loadErr)
}

func TestLoadDir_NotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	err := NewStore().LoadDir(file)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not a directory")
}

func TestStore_List(t *testing.T) {
	s := NewStore()
	s.Add(Parse("b", ""), "mem")
	s.Add(Parse("a", ""), "mem")
	require.Equal(t, []string{"a", "b"}, s.List())
	require.Equal(t, 2, s.Count())
}
