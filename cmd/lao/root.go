package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/lao/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lao",
	Short: "LAO runs plugin workflows locally",
	Long: `LAO executes workflows described as directed acyclic graphs. Each node
invokes a plugin (speech-to-text, summarization, ...) and passes its output
downstream. Independent nodes can run in parallel.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var failed *cli.FailedError
		if !errors.As(err, &failed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./lao.yaml if present)")
	rootCmd.PersistentFlags().String("plugins", "", "Plugin directory (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("debug", false, "Verbose output and debug logs")
}

// commonOptions reads the persistent flags.
func commonOptions(cmd *cobra.Command) cli.Options {
	configPath, _ := cmd.Flags().GetString("config")
	plugins, _ := cmd.Flags().GetString("plugins")
	level, _ := cmd.Flags().GetString("log-level")
	debug, _ := cmd.Flags().GetBool("debug")
	return cli.Options{
		ConfigPath: configPath,
		PluginsDir: plugins,
		LogLevel:   level,
		Debug:      debug,
	}
}
