package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/lao/internal/presentation/tui"
	"github.com/aretw0/lao/pkg/workflowfile"
)

// RunOptions configures the run command.
type RunOptions struct {
	Options
	WorkflowPath string
	Parallel     bool
	Output       string // Where to save the final graph; empty to skip
	JSON         bool   // Print events as JSON lines
	Summary      bool   // Render a markdown summary at the end
	Quiet        bool
}

// Execute runs a workflow file to completion, printing progress to out.
// It returns an error when the workflow fails.
func Execute(ctx context.Context, opts RunOptions, out io.Writer) error {
	cfg, err := loadConfig(opts.Options)
	if err != nil {
		return err
	}
	logger, err := createLogger(cfg, opts.Debug)
	if err != nil {
		return err
	}

	g, err := workflowfile.Load(opts.WorkflowPath)
	if err != nil {
		return err
	}

	orch, err := createOrchestrator(ctx, cfg, logger, opts.Debug)
	if err != nil {
		return err
	}

	sc := NewSignalContext(ctx)
	defer sc.Cancel()

	run, err := orch.Run(sc, g, opts.Parallel)
	if err != nil {
		return err
	}

	color := !opts.JSON && tui.IsTerminal(os.Stdout)
	printer := NewRunPrinter(out, tui.NewStyle(color), opts.Debug)
	for e := range run.Events() {
		switch {
		case opts.Quiet:
		case opts.JSON:
			if err := writeJSONLine(out, e); err != nil {
				logger.Error("Event encode failed", "err", err)
			}
		default:
			printer.Print(e)
		}
	}

	res, err := run.Wait(context.Background())
	if err != nil {
		return err
	}
	if sig := sc.Signal(); sig != nil && !opts.JSON && !opts.Quiet {
		printSystemMessage(out, "Interrupted by %v; pending nodes were not started.", sig)
	}

	if opts.Summary && !opts.JSON {
		render := tui.NewRenderer()
		md := Summary(res.Graph)
		if rendered, err := render(md); err == nil {
			md = rendered
		}
		fmt.Fprint(out, md)
	}

	if opts.Output != "" {
		if err := workflowfile.Save(opts.Output, res.Graph); err != nil {
			return err
		}
		logger.Info("Result saved", "path", opts.Output)
	}

	if !res.Success {
		return &FailedError{Failed: res.Graph.Failed()}
	}
	return nil
}

// FailedError reports nodes that ended in error.
type FailedError struct {
	Failed []string
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("workflow failed at %v", e.Failed)
}
