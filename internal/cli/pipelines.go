package cli

import (
	"fmt"
	"strings"

	"github.com/simon020286/promptchain/builder"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var pipelinesCmd = &cobra.Command{
	Use:     "pipelines",
	Aliases: []string{"pipeline"},
	Short:   "List, show and validate pipelines",
}

var pipelinesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available pipelines",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, name := range env.catalog.List() {
			cfg, _ := env.catalog.Get(name)
			fmt.Fprintf(out, "%s %s\n", headerStyle.Sprintf("%-12s", name), cfg.Description)
			mutedStyle.Fprintf(out, "%-12s %d stages, %s\n", "", len(cfg.Stages), env.catalog.Source(name))
		}
		return nil
	},
}

var pipelinesShowCmd = &cobra.Command{
	Use:   "show <name|file>",
	Short: "Print a pipeline definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}
		cfg, err := env.pipeline(args[0])
		if err != nil {
			return err
		}
		shown := *cfg
		if len(cfg.Secrets) > 0 {
			shown.Secrets = make(map[string]any, len(cfg.Secrets))
			for k := range cfg.Secrets {
				shown.Secrets[k] = "***"
			}
		}
		data, err := yaml.Marshal(&shown)
		if err != nil {
			return fmt.Errorf("encoding pipeline: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var pipelinesValidateCmd = &cobra.Command{
	Use:   "validate <name|file>",
	Short: "Check a pipeline against the step types and templates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}
		cfg, err := env.pipeline(args[0])
		if err != nil {
			return err
		}

		report := builder.ValidatePipeline(cfg, &builder.Deps{Templates: env.templates})
		out := cmd.OutOrStdout()
		for _, issue := range report.Errors {
			errorStyle.Fprintf(out, "%s %s\n", xmark, issue)
		}
		for _, issue := range report.Warnings {
			warningStyle.Fprintf(out, "%s %s\n", bullet, issue)
		}
		if !report.OK() {
			return fmt.Errorf("pipeline %q has %d error(s)", cfg.Name, len(report.Errors))
		}

		stages := make([]string, len(cfg.Stages))
		for i, s := range cfg.Stages {
			stages[i] = s.ID
		}
		successStyle.Fprintf(out, "%s %s is valid: %s\n", checkmark, cfg.Name, strings.Join(stages, " → "))
		return nil
	},
}

func init() {
	pipelinesCmd.AddCommand(pipelinesListCmd)
	pipelinesCmd.AddCommand(pipelinesShowCmd)
	pipelinesCmd.AddCommand(pipelinesValidateCmd)
}
