package builder

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/simon020286/promptchain/config"
)

//go:embed pipelines/*.yaml
var embeddedPipelines embed.FS

// Catalog holds the pipeline definitions available by name
type Catalog struct {
	pipelines map[string]*config.PipelineConfig
	sources   map[string]string
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		pipelines: make(map[string]*config.PipelineConfig),
		sources:   make(map[string]string),
	}
}

// DefaultCatalog returns a catalog holding the built-in pipelines
func DefaultCatalog() (*Catalog, error) {
	c := NewCatalog()
	if err := c.LoadFS(embeddedPipelines, "pipelines", "embedded"); err != nil {
		return nil, fmt.Errorf("failed to load embedded pipelines: %w", err)
	}
	return c, nil
}

// LoadCatalog returns the built-in pipelines overridden and extended by the
// definitions found in dirs, in order
func LoadCatalog(dirs ...string) (*Catalog, error) {
	c, err := DefaultCatalog()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := c.LoadDir(dir); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register adds a pipeline, replacing any pipeline with the same name
func (c *Catalog) Register(cfg *config.PipelineConfig, source string) error {
	if cfg.Name == "" {
		return fmt.Errorf("pipeline from %s has no name", source)
	}
	c.pipelines[cfg.Name] = cfg
	c.sources[cfg.Name] = source
	return nil
}

// LoadFS loads every .yaml or .yml file directly below root in fsys
func (c *Catalog) LoadFS(fsys fs.FS, root, label string) error {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return fmt.Errorf("failed to read pipelines directory %s: %w", label, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(root, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}
		if err := c.loadBytes(data, entry.Name(), path.Join(label, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// LoadDir loads the pipelines of a directory. A directory that does not
// exist holds no pipelines.
func (c *Catalog) LoadDir(dir string) error {
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	return c.LoadFS(os.DirFS(dir), ".", dir)
}

func (c *Catalog) loadBytes(data []byte, filename, source string) error {
	cfg, err := config.ParsePipeline(data)
	if err != nil {
		return fmt.Errorf("failed to load pipeline %s: %w", source, err)
	}
	// If name is not specified, use the filename
	if cfg.Name == "" {
		cfg.Name = strings.TrimSuffix(filename, filepath.Ext(filename))
	}
	return c.Register(cfg, source)
}

// Get returns a pipeline definition by name
func (c *Catalog) Get(name string) (*config.PipelineConfig, bool) {
	cfg, ok := c.pipelines[name]
	return cfg, ok
}

// Source returns where a pipeline was loaded from
func (c *Catalog) Source(name string) string {
	return c.sources[name]
}

// List returns all pipeline names, sorted
func (c *Catalog) List() []string {
	names := make([]string, 0, len(c.pipelines))
	for name := range c.pipelines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of pipelines
func (c *Catalog) Count() int {
	return len(c.pipelines)
}

// PipelinePaths returns the directories searched for pipeline definitions,
// lowest priority first: ~/.promptchain/pipelines, .promptchain/pipelines and
// the directory in PROMPTCHAIN_PIPELINES_PATH
func PipelinePaths() []string {
	var dirs []string
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".promptchain", "pipelines"))
	}
	dirs = append(dirs, filepath.Join(".promptchain", "pipelines"))
	if env := os.Getenv("PROMPTCHAIN_PIPELINES_PATH"); env != "" {
		dirs = append(dirs, env)
	}
	return dirs
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
