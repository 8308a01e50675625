package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/lao/internal/presentation/graph"
	"github.com/aretw0/lao/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	g := &domain.WorkflowGraph{
		Nodes: []domain.GraphNode{
			{ID: "transcribe", Run: "Whisper", Status: domain.StatusSuccess},
			{ID: "summarize", Run: "Summarizer", Status: domain.StatusError, Attempt: 3},
			{ID: "tag-it", Run: "Tagger", InputFrom: "transcribe"},
		},
		Edges: []domain.GraphEdge{
			{From: "transcribe", To: "summarize"},
			{From: "summarize", To: "tag-it"},
			{From: "transcribe", To: "tag-it"},
		},
	}

	tests := []struct {
		name        string
		overlay     bool
		contains    []string
		notContains []string
	}{
		{
			name:    "Structure",
			overlay: false,
			contains: []string{
				"graph TD",
				"transcribe[\"transcribe <br/> Whisper\"]",
				"transcribe --> summarize",
				"summarize -.-> tag_it",
				"transcribe --> tag_it",
			},
			notContains: []string{"classDef", "attempt"},
		},
		{
			name:    "Status Overlay",
			overlay: true,
			contains: []string{
				"classDef error",
				"class transcribe success;",
				"class summarize error;",
				"class tag_it pending;",
				"attempt 3",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := graph.GenerateMermaid(g, tt.overlay)
			for _, s := range tt.contains {
				if !strings.Contains(out, s) {
					t.Errorf("expected output to contain %q\ngot:\n%s", s, out)
				}
			}
			for _, s := range tt.notContains {
				if strings.Contains(out, s) {
					t.Errorf("expected output not to contain %q\ngot:\n%s", s, out)
				}
			}
		})
	}
}

func TestGenerateMermaid_EscapesQuotes(t *testing.T) {
	g := &domain.WorkflowGraph{Nodes: []domain.GraphNode{{ID: "a", Run: `Say "hi"`}}}
	out := graph.GenerateMermaid(g, false)
	if !strings.Contains(out, `a["a <br/> Say 'hi'"]`) {
		t.Errorf("quotes not escaped:\n%s", out)
	}
}
