package main

import (
	"github.com/aretw0/lao/internal/cli"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <workflow.yaml>",
	Short: "Export the workflow graph visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the workflow. With --status, nodes
are coloured by the statuses stored in the file, e.g. one saved by 'lao run --out'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		overlay, _ := cmd.Flags().GetBool("status")
		return cli.ExportGraph(args[0], overlay, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Bool("status", false, "Colour nodes by status")
}
