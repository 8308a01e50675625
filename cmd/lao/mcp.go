package main

import (
	"context"

	"github.com/aretw0/lao/internal/cli"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes LAO to AI agents as MCP tools: list_plugins, validate_workflow,
run_workflow and get_result.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.MCPOptions{Options: commonOptions(cmd)}
		opts.Transport, _ = cmd.Flags().GetString("transport")
		opts.Addr, _ = cmd.Flags().GetString("addr")

		sc := cli.NewSignalContext(context.Background())
		defer sc.Cancel()
		return cli.ServeMCP(sc, opts)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringP("transport", "t", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().String("addr", ":8081", "Address for the sse transport")
}
