package promptchain

import (
	"time"

	"github.com/simon020286/promptchain/models"
)

// StageResult is the output of one completed stage
type StageResult struct {
	StageID  string
	Title    string
	Output   *models.StepOutput
	Duration time.Duration
}

// Text returns the text output of the stage
func (r StageResult) Text() string {
	return r.Output.Text()
}

func (r StageResult) binary() bool {
	v, _ := r.Output.Get(models.DefaultKey)
	_, ok := v.([]byte)
	return ok
}

// RunResult holds the outputs of a run in stage order. An aborted run keeps
// the outputs of the stages that completed before the failure.
type RunResult struct {
	RunID       string
	Input       string
	Variables   map[string]any
	Stages      []StageResult
	Completed   bool
	FailedStage string
	Err         error
}

// Output returns the output of a completed stage
func (r *RunResult) Output(stageID string) (*models.StepOutput, bool) {
	for _, s := range r.Stages {
		if s.StageID == stageID {
			return s.Output, true
		}
	}
	return nil, false
}

// Final returns the text of the last stage with a text output, the prompt a
// run delivers. Binary outputs such as a generated video are skipped. It is
// empty unless the run completed.
func (r *RunResult) Final() string {
	if !r.Completed {
		return ""
	}
	for i := len(r.Stages) - 1; i >= 0; i-- {
		if r.Stages[i].binary() {
			continue
		}
		return r.Stages[i].Text()
	}
	return ""
}

// Texts returns the text output of every completed stage, in order
func (r *RunResult) Texts() []string {
	texts := make([]string, len(r.Stages))
	for i, s := range r.Stages {
		texts[i] = s.Text()
	}
	return texts
}
