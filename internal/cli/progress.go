package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/simon020286/promptchain/models"
)

// progressListener prints the caption of each stage while it runs
type progressListener struct {
	w io.Writer
}

func newProgressListener(w io.Writer) *progressListener {
	return &progressListener{w: w}
}

func (l *progressListener) OnEvent(event models.Event) {
	switch event.Type {
	case models.EventStageStarted:
		index, _ := event.Data["index"].(int)
		total, _ := event.Data["total"].(int)
		caption := event.String("progress")
		if caption == "" {
			caption = fmt.Sprintf("Running %s...", event.String("stage_id"))
		}
		fmt.Fprintf(l.w, "%s %s\n", mutedStyle.Sprintf("[%d/%d]", index+1, total), infoStyle.Sprint(caption))
	case models.EventStageCompleted:
		duration, _ := event.Data["duration"].(time.Duration)
		mutedStyle.Fprintf(l.w, "  %s %s (%s)\n", checkmark, event.String("stage_id"), formatDuration(duration))
	case models.EventStageError:
		errorStyle.Fprintf(l.w, "  %s %s: %s\n", xmark, event.String("stage_id"), event.String("error"))
	}
}
