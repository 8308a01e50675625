package main

import (
	"github.com/aretw0/lao/internal/cli"
	"github.com/spf13/cobra"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List the plugins found in the plugin directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		return cli.ListPlugins(cmd.Context(), commonOptions(cmd), cmd.OutOrStdout(), asJSON)
	},
}

func init() {
	rootCmd.AddCommand(pluginsCmd)
	pluginsCmd.Flags().Bool("json", false, "Print descriptors as JSON")
}
