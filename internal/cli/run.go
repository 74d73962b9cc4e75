package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/simon020286/promptchain"
	"github.com/simon020286/promptchain/backend"
	"github.com/simon020286/promptchain/builder"
	"github.com/simon020286/promptchain/config"
	"github.com/simon020286/promptchain/models"
	"github.com/spf13/cobra"
)

var (
	runPipeline    string
	runCount       int
	runVideo       bool
	runVideoOut    string
	runJSON        bool
	runModel       string
	runProvider    string
	runTemperature float64
	runVars        []string
)

var runCmd = &cobra.Command{
	Use:   "run [idea...]",
	Short: "Run a pipeline on an idea",
	Long: `Run a pipeline on an idea. The idea is taken from the arguments, or read
from standard input when no argument is given.`,
	Example: `  promptchain run "a lighthouse keeper feeding seagulls at dawn"
  promptchain run --pipeline numbered --count 15 "neon city in the rain"
  echo "a fox crossing a frozen river" | promptchain run --video`,
	SilenceUsage: true,
	RunE:         runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runPipeline, "pipeline", "p", "veo", "Pipeline name or path to a pipeline file")
	runCmd.Flags().IntVarP(&runCount, "count", "n", 0, "Number of prompts for pipelines with a count parameter")
	runCmd.Flags().BoolVar(&runVideo, "video", false, "Send the final prompt to the video backend")
	runCmd.Flags().StringVar(&runVideoOut, "video-out", "", "Video file to write (default <output_dir>/video.mp4)")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Print the run as JSON")
	runCmd.Flags().StringVarP(&runModel, "model", "m", "", "Text model to use")
	runCmd.Flags().StringVar(&runProvider, "provider", "", "Text provider to use (groq, openai, gemini)")
	runCmd.Flags().Float64Var(&runTemperature, "temperature", 0, "Sampling temperature")
	runCmd.Flags().StringArrayVar(&runVars, "var", nil, "Set a run variable (format: key=value). Can be specified multiple times")
}

func runRun(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}

	idea, err := readIdea(cmd, args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(idea) == "" {
		return models.ErrInvalid("input is empty")
	}

	cfg, err := env.pipeline(runPipeline)
	if err != nil {
		return err
	}
	if runVideo && !hasVideoStage(cfg) {
		cfg = withVideoStage(cfg)
	}

	text := env.settings.Text
	if runProvider != "" && runProvider != text.Provider {
		text.Provider = runProvider
		text.Model = backend.DefaultModel(runProvider)
		text.APIKeyEnv = ""
	}
	if runModel != "" {
		text.Model = runModel
	}
	if cmd.Flags().Changed("temperature") {
		text.Temperature = runTemperature
	}
	env.settings.Text = text
	if err := env.settings.Validate(); err != nil {
		return err
	}

	opts, err := runOptions(cmd, cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	deps := &builder.Deps{
		Templates: env.templates,
		Logger:    env.logger,
	}
	if deps.Generator, err = newGenerator(ctx, text); err != nil {
		return err
	}
	if hasVideoStage(cfg) {
		if deps.Video, err = newVideoGenerator(ctx, env.settings.Video, env.logger); err != nil {
			return err
		}
	}

	p, err := promptchain.BuildFromConfig(cfg, deps)
	if err != nil {
		return err
	}
	if !runJSON {
		p.AddListener(newProgressListener(cmd.ErrOrStderr()))
	}

	result, runErr := p.Run(ctx, idea, opts...)

	videoPath, err := saveVideo(result, runVideoOut, env.settings.OutputDir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if runJSON {
		if err := writeReport(out, cfg.Name, result, videoPath); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(cmd.ErrOrStderr())
		printRun(out, result, videoPath)
	}
	return runErr
}

// readIdea joins the arguments, or reads standard input when there are none
func readIdea(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	in := cmd.InOrStdin()
	if isTerminal(in) {
		return "", errors.New("no idea given: pass it as an argument or on standard input")
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("reading standard input: %w", err)
	}
	return string(data), nil
}

// runOptions turns --count and --var into run variables
func runOptions(cmd *cobra.Command, cfg *config.PipelineConfig) ([]promptchain.RunOption, error) {
	vars := make(map[string]any, len(runVars)+1)
	for _, v := range runVars {
		key, value, ok := strings.Cut(v, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --var %q, expected key=value", v)
		}
		vars[strings.TrimSpace(key)] = value
	}
	if cmd.Flags().Changed("count") {
		if _, ok := cfg.Parameter("count"); !ok {
			return nil, fmt.Errorf("pipeline %q has no count parameter", cfg.Name)
		}
		vars["count"] = runCount
	}
	return []promptchain.RunOption{promptchain.WithVariables(vars)}, nil
}

func hasVideoStage(cfg *config.PipelineConfig) bool {
	for _, s := range cfg.Stages {
		if s.StepType == "video" {
			return true
		}
	}
	return false
}

// withVideoStage returns a copy of cfg ending with a video stage that
// receives the final prompt
func withVideoStage(cfg *config.PipelineConfig) *config.PipelineConfig {
	c := *cfg
	c.Stages = append(append([]config.StageConfig(nil), cfg.Stages...), config.StageConfig{
		ID:       "video",
		Title:    "Video",
		Progress: "Generating video, this can take a few minutes...",
		StepType: "video",
	})
	return &c
}

// saveVideo writes the payload of the first video stage of result
func saveVideo(result *promptchain.RunResult, path, outputDir string) (string, error) {
	if result == nil {
		return "", nil
	}
	for _, stage := range result.Stages {
		data, ok := stage.Output.Get(models.DefaultKey)
		if !ok {
			continue
		}
		payload, ok := data.([]byte)
		if !ok {
			continue
		}
		if path == "" {
			path = filepath.Join(outputDir, "video.mp4")
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("creating %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(path, payload, 0o644); err != nil {
			return "", fmt.Errorf("writing video: %w", err)
		}
		return path, nil
	}
	return "", nil
}

type runReport struct {
	RunID       string        `json:"run_id"`
	Pipeline    string        `json:"pipeline"`
	Input       string        `json:"input"`
	Completed   bool          `json:"completed"`
	FailedStage string        `json:"failed_stage,omitempty"`
	Error       string        `json:"error,omitempty"`
	Stages      []stageReport `json:"stages"`
	Final       string        `json:"final,omitempty"`
	Video       string        `json:"video,omitempty"`
}

type stageReport struct {
	ID         string   `json:"id"`
	Title      string   `json:"title,omitempty"`
	Output     string   `json:"output"`
	Segments   []string `json:"segments,omitempty"`
	Requested  *int     `json:"requested,omitempty"`
	Found      *int     `json:"found,omitempty"`
	Malformed  bool     `json:"malformed_json,omitempty"`
	DurationMS int64    `json:"duration_ms"`
}

func writeReport(w io.Writer, pipeline string, result *promptchain.RunResult, videoPath string) error {
	report := runReport{
		RunID:       result.RunID,
		Pipeline:    pipeline,
		Input:       result.Input,
		Completed:   result.Completed,
		FailedStage: result.FailedStage,
		Stages:      make([]stageReport, 0, len(result.Stages)),
		Final:       result.Final(),
		Video:       videoPath,
	}
	if result.Err != nil {
		report.Error = result.Err.Error()
	}
	for _, s := range result.Stages {
		sr := stageReport{
			ID:         s.StageID,
			Title:      s.Title,
			Output:     s.Text(),
			DurationMS: s.Duration.Milliseconds(),
		}
		if v, ok := s.Output.Get(models.SegmentsKey); ok {
			sr.Segments, _ = v.([]string)
		}
		if v, ok := s.Output.Get(models.RequestedKey); ok {
			n, _ := v.(int)
			sr.Requested = &n
		}
		if v, ok := s.Output.Get(models.FoundKey); ok {
			n, _ := v.(int)
			sr.Found = &n
		}
		if _, ok := s.Output.Get(models.MalformedJSONKey); ok {
			sr.Malformed = true
		}
		report.Stages = append(report.Stages, sr)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
