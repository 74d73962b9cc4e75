package models

import (
	"time"
)

// StepInput contains the input data for a step
type StepInput struct {
	Bindings        map[string]string           // Placeholder name -> bound text
	Input           string                      // Initial user input of the run
	Previous        string                      // Output of the preceding stage, or Input for the first stage
	Data            map[string]map[string]*Data // Outputs of the stages completed so far, by stage ID
	RunID           string                      // Unique run ID (propagated through the run)
	StageID         string                      // ID of the stage being executed
	Timestamp       time.Time                   // Stage start time
	GlobalVariables map[string]any              // Pipeline and run variables
	GlobalSecrets   map[string]any              // Pipeline secrets
}

// Binding returns the text bound to a placeholder
func (si *StepInput) Binding(name string) (string, bool) {
	v, ok := si.Bindings[name]
	return v, ok
}

// Text returns the value of the only binding of the stage, or Previous when
// the stage binds zero or several placeholders
func (si *StepInput) Text() string {
	if len(si.Bindings) == 1 {
		for _, v := range si.Bindings {
			return v
		}
	}
	return si.Previous
}
