package builder

import (
	"github.com/simon020286/promptchain/backend"
	"github.com/simon020286/promptchain/slogger"
	"github.com/simon020286/promptchain/templates"
)

// Deps carries everything a step needs besides its own configuration.
// Backends and credentials are passed in explicitly, never read from globals.
type Deps struct {
	Templates *templates.Store
	Generator backend.Generator
	Video     backend.VideoGenerator
	Logger    slogger.Logger

	// Defaults for generate steps that do not set model or temperature.
	// Empty values leave the choice to the backend.
	Model       string
	Temperature *float64
}

// Log returns the configured logger, or slogger.DefaultLogger
func (d *Deps) Log() slogger.Logger {
	if d == nil || d.Logger == nil {
		return slogger.DefaultLogger
	}
	return d.Logger
}
