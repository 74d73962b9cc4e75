package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/simon020286/promptchain/backend"
	"github.com/simon020286/promptchain/builder"
	"github.com/simon020286/promptchain/config"
	"github.com/simon020286/promptchain/slogger"
	"github.com/simon020286/promptchain/templates"
	"github.com/spf13/cobra"
)

// Backend constructors, replaced in tests
var (
	newGenerator      = backend.NewGenerator
	newVideoGenerator = backend.NewVideoGenerator
)

// environment is what every command needs besides its own flags
type environment struct {
	settings  *config.Settings
	logger    slogger.Logger
	templates *templates.Store
	catalog   *builder.Catalog
}

func loadEnvironment(cmd *cobra.Command) (*environment, error) {
	settings, err := config.LoadSettings(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		settings.LogLevel = logLevel
	}

	stderr := cmd.ErrOrStderr()
	logger := slogger.NewWithWriter(stderr, slogger.LevelFromString(settings.LogLevel), !isTerminal(stderr))

	store, err := templates.Load(filepath.Join(".promptchain", "templates"), settings.TemplateDir)
	if err != nil {
		return nil, err
	}
	catalog, err := builder.LoadCatalog(builder.PipelinePaths()...)
	if err != nil {
		return nil, err
	}

	return &environment{
		settings:  settings,
		logger:    logger,
		templates: store,
		catalog:   catalog,
	}, nil
}

// pipeline returns the pipeline named ref, or the one defined in the file ref
// points to
func (e *environment) pipeline(ref string) (*config.PipelineConfig, error) {
	if cfg, ok := e.catalog.Get(ref); ok {
		return cfg, nil
	}
	if strings.HasSuffix(ref, ".yaml") || strings.HasSuffix(ref, ".yml") {
		return config.LoadPipeline(ref)
	}
	return nil, fmt.Errorf("unknown pipeline %q (available: %s)", ref, strings.Join(e.catalog.List(), ", "))
}

// isTerminal reports whether v is a file attached to a terminal
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
