package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/lao"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of lao",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "lao version %s\n", strings.TrimSpace(lao.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
