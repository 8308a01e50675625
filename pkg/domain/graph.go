package domain

// GraphNode is one plugin invocation within a workflow.
//
// Output is meaningful only when Status is success or cache; Error is non-empty
// exactly when Status is error.
type GraphNode struct {
	ID  string `json:"id" yaml:"id"`
	Run string `json:"run" yaml:"run"` // Plugin name

	// Input is the seed text used when no upstream output is piped in.
	Input string `json:"input,omitempty" yaml:"input,omitempty"`

	// InputFrom names the predecessor whose output becomes this node's input.
	// When empty, the first incoming edge (list order) is the primary input edge.
	InputFrom string `json:"input_from,omitempty" yaml:"input_from,omitempty"`

	InputType  string `json:"input_type,omitempty" yaml:"input_type,omitempty"`
	OutputType string `json:"output_type,omitempty" yaml:"output_type,omitempty"`

	Status  Status `json:"status,omitempty" yaml:"status,omitempty"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
	Output  string `json:"output,omitempty" yaml:"output,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
	Attempt int    `json:"attempt,omitempty" yaml:"attempt,omitempty"`
}

// GraphEdge records that To must not run before From reaches a terminal state.
type GraphEdge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// WorkflowGraph is the ordered node and edge lists of a workflow.
type WorkflowGraph struct {
	Name  string      `json:"name,omitempty" yaml:"name,omitempty"`
	Nodes []GraphNode `json:"nodes" yaml:"nodes"`
	Edges []GraphEdge `json:"edges" yaml:"edges"`
}

// Clone returns a deep copy. A run works on a clone so concurrent edits to the
// caller's graph never reach the engine.
func (g *WorkflowGraph) Clone() *WorkflowGraph {
	if g == nil {
		return nil
	}
	c := &WorkflowGraph{
		Name:  g.Name,
		Nodes: make([]GraphNode, len(g.Nodes)),
		Edges: make([]GraphEdge, len(g.Edges)),
	}
	copy(c.Nodes, g.Nodes)
	copy(c.Edges, g.Edges)
	return c
}

// Reset puts every node back to pending and clears run results.
func (g *WorkflowGraph) Reset() {
	for i := range g.Nodes {
		n := &g.Nodes[i]
		n.Status = StatusPending
		n.Message = ""
		n.Output = ""
		n.Error = ""
		n.Attempt = 0
	}
}

// Node returns a pointer to the node with the given id, or nil.
func (g *WorkflowGraph) Node(id string) *GraphNode {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// Predecessors lists the distinct sources of edges into id, in edge order.
func (g *WorkflowGraph) Predecessors(id string) []string {
	var preds []string
	seen := make(map[string]bool)
	for _, e := range g.Edges {
		if e.To == id && !seen[e.From] {
			seen[e.From] = true
			preds = append(preds, e.From)
		}
	}
	return preds
}

// PrimaryInput returns the node whose output is piped into id.
// An explicit InputFrom wins over edge order.
func (g *WorkflowGraph) PrimaryInput(id string) (string, bool) {
	if n := g.Node(id); n != nil && n.InputFrom != "" {
		return n.InputFrom, true
	}
	for _, e := range g.Edges {
		if e.To == id {
			return e.From, true
		}
	}
	return "", false
}

// Failed lists the ids of nodes that ended in error.
func (g *WorkflowGraph) Failed() []string {
	var ids []string
	for _, n := range g.Nodes {
		if n.Status == StatusError {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// WorkflowResult is the aggregate outcome of a run. Per-node results live on Graph.
type WorkflowResult struct {
	RunID   string         `json:"run_id"`
	Success bool           `json:"success"`
	Graph   *WorkflowGraph `json:"graph,omitempty"`
}
