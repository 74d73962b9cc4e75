package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/simon020286/promptchain"
	"github.com/simon020286/promptchain/models"
)

var (
	headerStyle  = color.New(color.FgCyan, color.Bold)
	warningStyle = color.New(color.FgYellow, color.Bold)
	errorStyle   = color.New(color.FgRed, color.Bold)
	successStyle = color.New(color.FgGreen, color.Bold)
	infoStyle    = color.New(color.FgCyan)
	mutedStyle   = color.New(color.FgHiBlack)
)

const (
	checkmark = "✓"
	xmark     = "✗"
	bullet    = "•"
)

// printStage renders one stage output under its title
func printStage(w io.Writer, stage promptchain.StageResult) {
	title := stage.Title
	if title == "" {
		title = stage.StageID
	}
	headerStyle.Fprintln(w, title)
	mutedStyle.Fprintln(w, strings.Repeat("─", runewidth.StringWidth(title)))

	if items, ok := stage.Output.Get(models.SegmentsKey); ok {
		printSegments(w, stage.Output, items)
		fmt.Fprintln(w)
		return
	}

	text := stage.Text()
	if _, ok := stage.Output.Get(models.MalformedJSONKey); ok {
		warningStyle.Fprintln(w, "warning: the output is not valid JSON and is shown unchanged")
	}
	fmt.Fprintln(w, strings.TrimRight(text, "\n"))
	fmt.Fprintln(w)
}

// printSegments lists the items of a numbered list and reports when their
// number differs from the requested count
func printSegments(w io.Writer, out *models.StepOutput, items any) {
	segments, _ := items.([]string)
	for i, s := range segments {
		fmt.Fprintf(w, "%s %s\n", infoStyle.Sprintf("%d.", i+1), s)
	}

	requested, _ := out.Get(models.RequestedKey)
	found, _ := out.Get(models.FoundKey)
	r, _ := requested.(int)
	f, _ := found.(int)
	if r > 0 && r != f {
		warningStyle.Fprintf(w, "warning: asked for %d prompts, found %d\n", r, f)
	} else {
		mutedStyle.Fprintf(w, "%d prompts\n", f)
	}
}

// printRun renders every completed stage, then the outcome of the run
func printRun(w io.Writer, result *promptchain.RunResult, videoPath string) {
	for _, stage := range result.Stages {
		if _, ok := stage.Output.Get(models.MIMETypeKey); ok {
			continue
		}
		printStage(w, stage)
	}
	if videoPath != "" {
		successStyle.Fprintf(w, "%s Video saved to %s\n", checkmark, videoPath)
	}

	if !result.Completed {
		if result.FailedStage != "" {
			errorStyle.Fprintf(w, "%s Run stopped at stage %s\n", xmark, result.FailedStage)
		}
		return
	}
	successStyle.Fprintf(w, "%s Done! Copy your final prompt above.\n", checkmark)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
