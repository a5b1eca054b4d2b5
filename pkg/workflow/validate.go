package workflow

import (
	"fmt"

	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
)

// Validate checks the single-path invariant: one start with no incoming edge, one end
// with no outgoing edge, every other node entered exactly once, and every node leaving
// once except conditions, which leave through exactly one true and one false edge.
func Validate(g domain.Workflow) error {
	ids := make(map[string]domain.Node, len(g.Nodes))
	starts, ends := 0, 0
	for _, n := range g.Nodes {
		if _, dup := ids[n.ID]; dup {
			return fmt.Errorf("%w: duplicate node %q", domain.ErrInvalidGraph, n.ID)
		}
		ids[n.ID] = n
		switch n.Kind {
		case domain.NodeStart:
			starts++
		case domain.NodeEnd:
			ends++
		}
	}
	if starts != 1 || ends != 1 {
		return fmt.Errorf("%w: want one start and one end, got %d and %d", domain.ErrInvalidGraph, starts, ends)
	}

	in := make(map[string]int)
	out := make(map[string][]domain.Edge)
	edgeIDs := make(map[string]bool)
	for _, e := range g.Edges {
		if edgeIDs[e.ID] {
			return fmt.Errorf("%w: duplicate edge %q", domain.ErrInvalidGraph, e.ID)
		}
		edgeIDs[e.ID] = true
		if _, ok := ids[e.From]; !ok {
			return fmt.Errorf("%w: edge %q leaves unknown node %q", domain.ErrInvalidGraph, e.ID, e.From)
		}
		if _, ok := ids[e.To]; !ok {
			return fmt.Errorf("%w: edge %q enters unknown node %q", domain.ErrInvalidGraph, e.ID, e.To)
		}
		in[e.To]++
		out[e.From] = append(out[e.From], e)
	}

	for _, n := range g.Nodes {
		switch n.Kind {
		case domain.NodeStart:
			if in[n.ID] != 0 || len(out[n.ID]) != 1 {
				return fmt.Errorf("%w: start must have in 0 and out 1, got %d and %d", domain.ErrInvalidGraph, in[n.ID], len(out[n.ID]))
			}
		case domain.NodeEnd:
			if in[n.ID] == 0 || len(out[n.ID]) != 0 {
				return fmt.Errorf("%w: end must be entered and have no outgoing edge", domain.ErrInvalidGraph)
			}
		case domain.NodeCondition:
			if in[n.ID] != 1 {
				return fmt.Errorf("%w: node %q has in-degree %d", domain.ErrInvalidGraph, n.ID, in[n.ID])
			}
			if err := checkBranches(n.ID, out[n.ID]); err != nil {
				return err
			}
		default:
			if in[n.ID] != 1 || len(out[n.ID]) != 1 {
				return fmt.Errorf("%w: node %q must have in 1 and out 1, got %d and %d", domain.ErrInvalidGraph, n.ID, in[n.ID], len(out[n.ID]))
			}
			if out[n.ID][0].Branch != "" {
				return fmt.Errorf("%w: node %q is not a condition but has a branch edge", domain.ErrInvalidGraph, n.ID)
			}
		}
	}

	return checkReachable(g, len(ids))
}

func checkBranches(id string, edges []domain.Edge) error {
	if len(edges) != 2 {
		return fmt.Errorf("%w: condition %q has out-degree %d", domain.ErrInvalidGraph, id, len(edges))
	}
	seen := map[string]bool{}
	for _, e := range edges {
		if e.Branch != domain.BranchTrue && e.Branch != domain.BranchFalse {
			return fmt.Errorf("%w: condition %q has unlabeled edge %q", domain.ErrInvalidGraph, id, e.ID)
		}
		seen[e.Branch] = true
	}
	if len(seen) != 2 {
		return fmt.Errorf("%w: condition %q needs one true and one false branch", domain.ErrInvalidGraph, id)
	}
	return nil
}

func checkReachable(g domain.Workflow, total int) error {
	visited := map[string]bool{domain.StartNodeID: true}
	queue := []string{domain.StartNodeID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, e := range g.Outgoing(id) {
			if !visited[e.To] {
				visited[e.To] = true
				queue = append(queue, e.To)
			}
		}
	}
	if len(visited) != total {
		return fmt.Errorf("%w: %d of %d nodes unreachable from start", domain.ErrInvalidGraph, total-len(visited), total)
	}
	return nil
}
