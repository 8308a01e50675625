package dsl

import (
	"fmt"

	"github.com/aretw0/lao/pkg/domain"
	"github.com/aretw0/lao/pkg/graph"
)

// Builder manages the graph construction. Nodes and edges keep the order in
// which they were declared, which decides the primary input edge.
type Builder struct {
	name  string
	order []string
	nodes map[string]*NodeBuilder
	edges []domain.GraphEdge
}

// New creates a new graph builder.
func New(name string) *Builder {
	return &Builder{
		name:  name,
		nodes: make(map[string]*NodeBuilder),
	}
}

// Add creates a new node in the graph.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node: domain.GraphNode{
			ID:     id,
			Status: domain.StatusPending,
		},
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Edge declares that to depends on from.
func (b *Builder) Edge(from, to string) *Builder {
	b.edges = append(b.edges, domain.GraphEdge{From: from, To: to})
	return b
}

// Graph returns the declared graph without validating it.
func (b *Builder) Graph() *domain.WorkflowGraph {
	g := &domain.WorkflowGraph{
		Name:  b.name,
		Nodes: make([]domain.GraphNode, 0, len(b.order)),
		Edges: append([]domain.GraphEdge(nil), b.edges...),
	}
	for _, id := range b.order {
		g.Nodes = append(g.Nodes, b.nodes[id].node)
	}
	return g
}

// Build returns the graph after checking it with graph.Validate.
func (b *Builder) Build() (*domain.WorkflowGraph, error) {
	g := b.Graph()
	if _, err := graph.Validate(g); err != nil {
		return nil, fmt.Errorf("invalid workflow %q: %w", b.name, err)
	}
	return g, nil
}

// MustBuild is like Build but panics on an invalid graph.
func (b *Builder) MustBuild() *domain.WorkflowGraph {
	g, err := b.Build()
	if err != nil {
		panic(err)
	}
	return g
}
