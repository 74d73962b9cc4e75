package builder

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/simon020286/promptchain/models"
)

// StepFactory creates a Step from its configuration and the dependencies
// shared by the stages of a pipeline
type StepFactory func(config map[string]any, deps *Deps) (models.Step, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]StepFactory)
)

// RegisterStepType makes a step type available to pipeline definitions. It is
// called from the init functions of the steps package and panics when the
// same type is registered twice.
func RegisterStepType(stepType string, factory StepFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	if factory == nil {
		panic("builder: RegisterStepType factory is nil for " + stepType)
	}
	if _, dup := factories[stepType]; dup {
		panic("builder: RegisterStepType called twice for " + stepType)
	}
	factories[stepType] = factory
}

// GetStepFactory returns the factory registered for stepType
func GetStepFactory(stepType string) (StepFactory, error) {
	factoriesMu.RLock()
	factory, ok := factories[stepType]
	factoriesMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown step type '%s' (known: %s)", stepType, strings.Join(ListStepTypes(), ", "))
	}
	return factory, nil
}

// ListStepTypes returns the registered step types, sorted
func ListStepTypes() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	types := make([]string, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
