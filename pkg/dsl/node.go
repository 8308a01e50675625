package dsl

import "github.com/aretw0/lao/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    domain.GraphNode
	builder *Builder
}

// Run sets the plugin the node invokes.
func (n *NodeBuilder) Run(plugin string) *NodeBuilder {
	n.node.Run = plugin
	return n
}

// Input sets the seed text used when nothing is piped in.
func (n *NodeBuilder) Input(text string) *NodeBuilder {
	n.node.Input = text
	return n
}

// Types declares the node's input and output types.
func (n *NodeBuilder) Types(in, out string) *NodeBuilder {
	n.node.InputType = in
	n.node.OutputType = out
	return n
}

// After adds an edge from each of ids to this node, in order.
// The first becomes the primary input unless InputFrom says otherwise.
func (n *NodeBuilder) After(ids ...string) *NodeBuilder {
	for _, id := range ids {
		n.builder.Edge(id, n.node.ID)
	}
	return n
}

// InputFrom pipes the output of predecessor id into this node.
func (n *NodeBuilder) InputFrom(id string) *NodeBuilder {
	n.node.InputFrom = id
	return n
}

// Then adds a node that runs after this one and returns its builder.
func (n *NodeBuilder) Then(id string) *NodeBuilder {
	next := n.builder.Add(id)
	n.builder.Edge(n.node.ID, id)
	return next
}
