package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/aretw0/lao/internal/presentation/graph"
	laohttp "github.com/aretw0/lao/pkg/adapters/http"
	"github.com/aretw0/lao/pkg/adapters/mcp"
	"github.com/aretw0/lao/pkg/domain"
	validate "github.com/aretw0/lao/pkg/graph"
	"github.com/aretw0/lao/pkg/workflowfile"
)

// ListPlugins prints the plugins found in the configured directory.
func ListPlugins(ctx context.Context, opts Options, out io.Writer, asJSON bool) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger, err := createLogger(cfg, opts.Debug)
	if err != nil {
		return err
	}
	plugins := loadRegistry(ctx, cfg, logger).List()

	if asJSON {
		if plugins == nil {
			plugins = []domain.PluginDescriptor{}
		}
		return writeJSONLine(out, plugins)
	}
	if len(plugins) == 0 {
		printSystemMessage(out, "No plugins found in %s", cfg.PluginsDir)
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tVERSION\tCAPABILITIES\tTAGS\tSOURCE")
	for _, p := range plugins {
		caps := make([]string, 0, len(p.Capabilities))
		for _, c := range p.Capabilities {
			caps = append(caps, c.Name)
		}
		sort.Strings(caps)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.Name, p.Version, strings.Join(caps, ","), strings.Join(p.Tags, ","), p.Source)
	}
	return tw.Flush()
}

// Validate checks a workflow file. Unknown plugins are reported as warnings
// when a plugin directory is available, since a run would fail those nodes.
func Validate(ctx context.Context, opts Options, path string, out io.Writer) error {
	g, err := workflowfile.Load(path)
	if err != nil {
		return err
	}
	plan, err := validate.Validate(g)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts)
	if err == nil {
		if logger, lerr := createLogger(cfg, opts.Debug); lerr == nil {
			reg := loadRegistry(ctx, cfg, logger)
			if reg.Len() > 0 {
				for _, n := range g.Nodes {
					if _, ok := reg.Get(n.Run); !ok {
						printSystemMessage(out, "warning: node %q uses unknown plugin %q", n.ID, n.Run)
					}
				}
			}
		}
	}

	printSystemMessage(out, "Workflow %q is valid: %d nodes in %d levels.", g.Name, plan.Len(), len(plan.Levels))
	return nil
}

// ExportGraph prints the Mermaid flowchart of a workflow file. With overlay,
// nodes are coloured by the statuses stored in the file.
func ExportGraph(path string, overlay bool, out io.Writer) error {
	g, err := workflowfile.Load(path)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, graph.GenerateMermaid(g, overlay))
	return err
}

// ServeOptions configures the HTTP server.
type ServeOptions struct {
	Options
	Addr string
}

// Serve runs the HTTP API until ctx is done.
func Serve(ctx context.Context, opts ServeOptions, out io.Writer) error {
	cfg, err := loadConfig(opts.Options)
	if err != nil {
		return err
	}
	logger, err := createLogger(cfg, opts.Debug)
	if err != nil {
		return err
	}
	addr := cfg.HTTP.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}

	metrics, promReg := newMetrics()
	manager, cleanup, err := createManager(ctx, cfg, logger, opts.Debug, metrics)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr:    addr,
		Handler: laohttp.NewHandler(manager, laohttp.WithMetrics(promReg), laohttp.WithLogger(logger)),
	}

	serverErrors := make(chan error, 1)
	go func() {
		printSystemMessage(out, "Starting LAO server on %s", addr)
		printSystemMessage(out, "Plugins from: %s (%d loaded)", cfg.PluginsDir, len(manager.Plugins()))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "err", err)
			_ = srv.Close()
		}
		manager.Wait()
		printSystemMessage(out, "LAO server stopped gracefully")
		return nil
	}
}

// MCPOptions configures the MCP server.
type MCPOptions struct {
	Options
	Transport string // stdio or sse
	Addr      string
}

// ServeMCP runs the MCP server until ctx is done or stdin closes.
func ServeMCP(ctx context.Context, opts MCPOptions) error {
	cfg, err := loadConfig(opts.Options)
	if err != nil {
		return err
	}
	logger, err := createLogger(cfg, opts.Debug)
	if err != nil {
		return err
	}

	manager, cleanup, err := createManager(ctx, cfg, logger, opts.Debug, nil)
	if err != nil {
		return err
	}
	defer cleanup()
	srv := mcp.NewServer(manager, mcp.WithLogger(logger))

	switch opts.Transport {
	case "", "stdio":
		logger.Info("Starting LAO MCP server (stdio)")
		return srv.ServeStdio()
	case "sse":
		addr := opts.Addr
		if addr == "" {
			addr = ":8081"
		}
		baseURL := "http://localhost" + addr
		if !strings.HasPrefix(addr, ":") {
			baseURL = "http://" + addr
		}
		err := srv.ServeSSE(ctx, addr, baseURL)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
	return fmt.Errorf("unknown transport %q", opts.Transport)
}
