package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/lao/internal/presentation/tui"
	"github.com/aretw0/lao/pkg/domain"
)

// RunPrinter writes one line per run event.
type RunPrinter struct {
	w       io.Writer
	style   tui.Style
	verbose bool
}

// NewRunPrinter creates a printer. Verbose also prints running transitions.
func NewRunPrinter(w io.Writer, style tui.Style, verbose bool) *RunPrinter {
	return &RunPrinter{w: w, style: style, verbose: verbose}
}

// Print writes e.
func (p *RunPrinter) Print(e domain.Event) {
	switch e.Type {
	case domain.EventNodeStatus:
		p.node(e.Node)
	case domain.EventWorkflowCompleted:
		p.workflow(e.Workflow)
	}
}

func (p *RunPrinter) node(e *domain.NodeEvent) {
	progress := p.style.Faint(fmt.Sprintf("[%3.0f%%]", e.Progress*100))
	switch e.Status {
	case domain.StatusRunning:
		if !p.verbose && e.Attempt <= 1 {
			return
		}
		line := fmt.Sprintf("▶ %s (%s)", e.NodeID, e.Plugin)
		if e.Attempt > 1 {
			line = fmt.Sprintf("↻ %s (%s) %s", e.NodeID, e.Plugin, e.Message)
		}
		fmt.Fprintf(p.w, "%s %s\n", progress, p.style.Status(e.Status, line))
	case domain.StatusSuccess:
		fmt.Fprintf(p.w, "%s %s %s\n", progress, p.style.Status(e.Status, "✓ DONE"), e.NodeID)
	case domain.StatusCache:
		fmt.Fprintf(p.w, "%s %s %s %s\n", progress, p.style.Status(e.Status, "✓ DONE"), e.NodeID, p.style.Faint("(cached)"))
	case domain.StatusError:
		fmt.Fprintf(p.w, "%s %s %s: %s\n", progress, p.style.Status(e.Status, "✗ ERROR"), e.NodeID, firstLine(e.Error))
	}
}

func (p *RunPrinter) workflow(e *domain.WorkflowEvent) {
	if e.Success {
		printSystemMessage(p.w, "%s", p.style.Bold("Workflow succeeded."))
		return
	}
	printSystemMessage(p.w, "%s", p.style.Bold(fmt.Sprintf("Workflow failed: %s", strings.Join(e.Failed, ", "))))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}

// Summary renders the final graph as a markdown table.
func Summary(g *domain.WorkflowGraph) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", nonEmpty(g.Name, "Workflow"))
	sb.WriteString("| Node | Plugin | Status | Attempts | Result |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, n := range g.Nodes {
		result := n.Output
		if n.Status == domain.StatusError {
			result = n.Error
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %d | %s |\n", n.ID, n.Run, n.Status, n.Attempt, cell(result))
	}
	return sb.String()
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// cell flattens s into a short table cell.
func cell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ReplaceAll(s, "|", "\\|")
	const max = 60
	if r := []rune(s); len(r) > max {
		return string(r[:max]) + "…"
	}
	return s
}
