package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/lao/pkg/domain"
)

// statusStyles colours nodes by run status. Text is forced black for contrast
// on light fills regardless of theme.
var statusStyles = []struct {
	status domain.Status
	style  string
}{
	{domain.StatusPending, "fill:#eeeeee,stroke:#9e9e9e,color:#000"},
	{domain.StatusRunning, "fill:#e1f5fe,stroke:#01579b,stroke-width:3px,color:#000"},
	{domain.StatusSuccess, "fill:#c8e6c9,stroke:#2e7d32,color:#000"},
	{domain.StatusCache, "fill:#e1bee7,stroke:#6a1b9a,color:#000"},
	{domain.StatusError, "fill:#ffcdd2,stroke:#c62828,stroke-width:3px,color:#000"},
}

// GenerateMermaid produces a Mermaid flowchart of g.
// Primary input edges are solid; ordering-only edges are dotted. Nodes show
// their plugin and, with overlay, are coloured by status.
func GenerateMermaid(g *domain.WorkflowGraph, overlay bool) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, n := range g.Nodes {
		label := n.ID
		if n.Run != "" {
			label = fmt.Sprintf("%s <br/> %s", n.ID, n.Run)
		}
		if overlay && n.Attempt > 1 {
			label = fmt.Sprintf("%s <br/> attempt %d", label, n.Attempt)
		}
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", sanitizeMermaidID(n.ID), escapeLabel(label))
	}

	for _, e := range g.Edges {
		arrow := "-.->"
		if primary, ok := g.PrimaryInput(e.To); ok && primary == e.From {
			arrow = "-->"
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(e.From), arrow, sanitizeMermaidID(e.To))
	}

	if overlay {
		sb.WriteString("\n    %% Status\n")
		for _, s := range statusStyles {
			fmt.Fprintf(&sb, "    classDef %s %s;\n", s.status, s.style)
		}
		for _, n := range g.Nodes {
			status := n.Status
			if status == "" {
				status = domain.StatusPending
			}
			fmt.Fprintf(&sb, "    class %s %s;\n", sanitizeMermaidID(n.ID), status)
		}
	}

	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
