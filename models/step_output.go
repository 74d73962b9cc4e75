package models

import "time"

// StepOutput contains the data produced by a step
type StepOutput struct {
	Data      map[string]*Data // Step result, the "default" key holds the text
	RunID     string           // Same RunID as the input
	Timestamp time.Time        // Output timestamp
}

// NewTextOutput creates an output whose default value is text
func NewTextOutput(input *StepInput, text string) *StepOutput {
	out := &StepOutput{
		Data:      CreateDefaultResultData(text),
		Timestamp: time.Now(),
	}
	if input != nil {
		out.RunID = input.RunID
	}
	return out
}

// Set stores an additional named value
func (o *StepOutput) Set(key string, value any) *StepOutput {
	if o.Data == nil {
		o.Data = make(map[string]*Data)
	}
	o.Data[key] = &Data{Value: value}
	return o
}

// Get returns a named value
func (o *StepOutput) Get(key string) (any, bool) {
	if o == nil || o.Data == nil {
		return nil, false
	}
	d, ok := o.Data[key]
	if !ok || d == nil {
		return nil, false
	}
	return d.Value, true
}

// Text returns the default value as text
func (o *StepOutput) Text() string {
	if o == nil || o.Data == nil {
		return ""
	}
	return o.Data[DefaultKey].String()
}
