package cli

import (
	"fmt"
	"strings"

	"github.com/simon020286/promptchain/templates"
	"github.com/spf13/cobra"
)

var templatesCmd = &cobra.Command{
	Use:     "templates",
	Aliases: []string{"template"},
	Short:   "List and show prompt templates",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the loaded templates and their placeholders",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, id := range env.templates.List() {
			t := env.templates.MustGet(id)
			tokens := make([]string, 0, len(t.Placeholders()))
			for _, p := range t.Placeholders() {
				tokens = append(tokens, templates.Token(p))
			}
			fmt.Fprintf(out, "%s %s %s\n",
				headerStyle.Sprintf("%-18s", id),
				strings.Join(tokens, " "),
				mutedStyle.Sprintf("(%s)", env.templates.Source(id)))
		}
		return nil
	},
}

var templatesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}
		t, err := env.templates.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(t.Text(), "\n"))
		return nil
	},
}

func init() {
	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesShowCmd)
}
