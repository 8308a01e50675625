package graph

import (
	"fmt"

	"github.com/aretw0/lao/pkg/domain"
)

// Plan is the cached result of a successful validation.
type Plan struct {
	// Levels groups node ids into waves, in node-list order within a wave.
	Levels [][]string

	level   map[string]int
	preds   map[string][]string
	primary map[string]string
}

// Order flattens Levels into one topological order.
func (p *Plan) Order() []string {
	var order []string
	for _, wave := range p.Levels {
		order = append(order, wave...)
	}
	return order
}

// Len is the number of nodes in the plan.
func (p *Plan) Len() int { return len(p.level) }

// Level returns the wave index of id, or -1 for an unknown id.
func (p *Plan) Level(id string) int {
	if l, ok := p.level[id]; ok {
		return l
	}
	return -1
}

// Predecessors returns the distinct sources of edges into id, in edge order.
func (p *Plan) Predecessors(id string) []string { return p.preds[id] }

// PrimaryInput returns the node whose output is piped into id.
func (p *Plan) PrimaryInput(id string) (string, bool) {
	src, ok := p.primary[id]
	return src, ok
}

// Validate checks g and returns its execution plan. On failure the error is
// a *ValidationError, or an *AggregateError when several checks fail.
// Structural errors (duplicates, dangling references) are reported together;
// the cycle check only runs on a structurally sound graph.
func Validate(g *domain.WorkflowGraph) (*Plan, error) {
	if g == nil {
		g = &domain.WorkflowGraph{}
	}

	var errs []error

	// 1. Unique ids
	count := make(map[string]int, len(g.Nodes))
	var dupes []string
	for _, n := range g.Nodes {
		count[n.ID]++
		if count[n.ID] == 2 {
			dupes = append(dupes, n.ID)
		}
	}
	for _, id := range dupes {
		errs = append(errs, &ValidationError{
			Kind:    KindDuplicateNode,
			NodeIDs: []string{id},
			Detail:  fmt.Sprintf("declared %d times", count[id]),
		})
	}

	// 2. Edge endpoints
	for i, e := range g.Edges {
		var missing []string
		if count[e.From] == 0 {
			missing = append(missing, e.From)
		}
		if count[e.To] == 0 && e.To != e.From {
			missing = append(missing, e.To)
		}
		if len(missing) > 0 {
			errs = append(errs, &ValidationError{
				Kind:    KindDanglingEdge,
				NodeIDs: missing,
				Detail:  fmt.Sprintf("edge %d: %s -> %s", i, e.From, e.To),
			})
		}
	}

	preds := make(map[string][]string, len(g.Nodes))
	for _, n := range g.Nodes {
		preds[n.ID] = g.Predecessors(n.ID)
	}

	// 3. Explicit primary input must be an actual predecessor
	for _, n := range g.Nodes {
		if n.InputFrom == "" {
			continue
		}
		if !contains(preds[n.ID], n.InputFrom) {
			errs = append(errs, &ValidationError{
				Kind:    KindInvalidInputFrom,
				NodeIDs: []string{n.ID},
				Detail:  fmt.Sprintf("input_from %q has no edge into %q", n.InputFrom, n.ID),
			})
		}
	}

	if len(errs) > 0 {
		return nil, join(errs)
	}

	// 4. Acyclicity, computing waves on the way
	levels, level, leftover := waves(g, preds)
	if len(leftover) > 0 {
		return nil, &ValidationError{
			Kind:    KindCycle,
			NodeIDs: cycleMembers(g, leftover),
		}
	}

	plan := &Plan{
		Levels:  levels,
		level:   level,
		preds:   preds,
		primary: make(map[string]string),
	}
	for _, n := range g.Nodes {
		if src, ok := g.PrimaryInput(n.ID); ok {
			plan.primary[n.ID] = src
		}
	}
	return plan, nil
}

// waves is Kahn's algorithm run one frontier at a time. Nodes that never
// reach in-degree zero are returned as leftover.
func waves(g *domain.WorkflowGraph, preds map[string][]string) ([][]string, map[string]int, map[string]bool) {
	indeg := make(map[string]int, len(g.Nodes))
	succs := make(map[string][]string, len(g.Nodes))
	for _, n := range g.Nodes {
		for _, p := range preds[n.ID] {
			indeg[n.ID]++
			succs[p] = append(succs[p], n.ID)
		}
	}

	level := make(map[string]int, len(g.Nodes))
	var levels [][]string
	var frontier []string
	for _, n := range g.Nodes {
		if indeg[n.ID] == 0 {
			frontier = append(frontier, n.ID)
		}
	}

	for len(frontier) > 0 {
		wave := len(levels)
		levels = append(levels, frontier)
		ready := make(map[string]bool)
		for _, id := range frontier {
			level[id] = wave
			for _, s := range succs[id] {
				indeg[s]--
				if indeg[s] == 0 {
					ready[s] = true
				}
			}
		}
		// Keep node-list order inside the next wave.
		frontier = nil
		for _, n := range g.Nodes {
			if ready[n.ID] {
				frontier = append(frontier, n.ID)
			}
		}
	}

	leftover := make(map[string]bool)
	for _, n := range g.Nodes {
		if _, ok := level[n.ID]; !ok {
			leftover[n.ID] = true
		}
	}
	return levels, level, leftover
}

// cycleMembers trims nodes that are merely downstream of a cycle from the
// Kahn leftover: repeatedly drop leftover nodes with no successor left.
func cycleMembers(g *domain.WorkflowGraph, leftover map[string]bool) []string {
	outdeg := make(map[string]int)
	for _, e := range g.Edges {
		if leftover[e.From] && leftover[e.To] {
			outdeg[e.From]++
		}
	}

	remaining := make(map[string]bool, len(leftover))
	for id := range leftover {
		remaining[id] = true
	}
	for changed := true; changed; {
		changed = false
		for id := range remaining {
			if outdeg[id] > 0 {
				continue
			}
			delete(remaining, id)
			changed = true
			for _, e := range g.Edges {
				if e.To == id && remaining[e.From] {
					outdeg[e.From]--
				}
			}
		}
	}

	var ids []string
	for _, n := range g.Nodes {
		if remaining[n.ID] {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

func join(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	return &AggregateError{Errors: errs}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
