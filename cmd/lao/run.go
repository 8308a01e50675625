package main

import (
	"os"

	"github.com/aretw0/lao/internal/cli"
	"github.com/aretw0/lao/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <workflow.yaml>",
	Short: "Run a workflow",
	Long: `Validates the workflow, then runs every node in dependency order and prints
progress. Exits non-zero when any node ends in error.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.RunOptions{
			Options:      commonOptions(cmd),
			WorkflowPath: args[0],
		}
		opts.Parallel, _ = cmd.Flags().GetBool("parallel")
		opts.Workers, _ = cmd.Flags().GetInt("workers")
		opts.Output, _ = cmd.Flags().GetString("out")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Summary, _ = cmd.Flags().GetBool("summary")
		opts.Quiet, _ = cmd.Flags().GetBool("quiet")
		if cmd.Flags().Changed("retries") {
			n, _ := cmd.Flags().GetInt("retries")
			opts.Retries = &n
		}

		if !opts.JSON && !opts.Quiet && tui.IsTerminal(os.Stdout) {
			tui.PrintBanner(cmd.OutOrStdout())
		}
		return cli.Execute(cmd.Context(), opts, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("parallel", "p", false, "Run independent nodes concurrently")
	runCmd.Flags().Int("workers", 0, "Maximum concurrent plugin calls (default GOMAXPROCS)")
	runCmd.Flags().Int("retries", 0, "Retries after a failed plugin call (overrides config)")
	runCmd.Flags().StringP("out", "o", "", "Save the final graph to this file (.yaml or .json)")
	runCmd.Flags().Bool("json", false, "Print events as JSON lines")
	runCmd.Flags().Bool("summary", false, "Render a result table at the end")
	runCmd.Flags().BoolP("quiet", "q", false, "Print nothing; use the exit code")
}
