package main

import (
	"context"

	"github.com/aretw0/lao/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves the workflow API: start runs, follow them over server-sent events,
read results and Prometheus metrics. The OpenAPI document is at /openapi.yaml.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.ServeOptions{Options: commonOptions(cmd)}
		opts.Addr, _ = cmd.Flags().GetString("addr")
		opts.RedisURL, _ = cmd.Flags().GetString("redis-url")

		sc := cli.NewSignalContext(context.Background())
		defer sc.Cancel()
		return cli.Serve(sc, opts, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (default :8080)")
	serveCmd.Flags().String("redis-url", "", "Redis URL for shared results and run locks")
}
