package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dialogsim/dialogsim/internal/models"
	"github.com/dialogsim/dialogsim/internal/wizard"
)

var (
	initOutput string
	initForce  bool
)

func newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [name]",
		Short: "Create a new eval spec interactively",
		Long: `Walk through an interactive wizard and write a starter eval spec.
The generated file needs a pass to flesh out metric descriptions before the
first run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: initCommandE,
	}

	cmd.Flags().StringVarP(&initOutput, "output", "o", "", "Output path (default: <name>.yaml)")
	cmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing file")

	return cmd
}

func initCommandE(cmd *cobra.Command, args []string) error {
	initialName := ""
	if len(args) > 0 {
		initialName = args[0]
	}

	draft, err := wizard.RunSpecWizard(cmd.InOrStdin(), cmd.OutOrStdout(), initialName)
	if err != nil {
		return err
	}

	contents, err := wizard.GenerateSpecYAML(draft)
	if err != nil {
		return err
	}

	path := initOutput
	if path == "" {
		path = draft.Name + ".yaml"
	}
	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return fmt.Errorf("failed to write spec: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	if len(draft.Metrics) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Fill in the metric descriptions before running.")
	}
	if draft.Mode == models.TurnModeRange {
		fmt.Fprintln(cmd.OutOrStdout(), "Adjust the turn range in the generated file if 2-5 does not fit.")
	}
	return nil
}
