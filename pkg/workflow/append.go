package workflow

import (
	"fmt"
	"maps"

	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
)

// NodeConfig describes a node to append.
type NodeConfig struct {
	ID       string
	Kind     domain.NodeKind
	Platform string
	Config   map[string]string
}

// AppendStep adds one node after the current tail of the main path and moves the edge
// into end so it leaves the new node. An empty graph gains its start and end sentinels.
// A condition is appended with both branches going to end; later steps continue its
// true branch.
func AppendStep(g domain.Workflow, cfg NodeConfig) domain.Workflow {
	out := g.Clone()
	if out.Empty() {
		out = sentinels()
		out.Edges = append(out.Edges, edge(domain.StartNodeID, domain.EndNodeID, ""))
	}

	id := cfg.ID
	if id == "" {
		id = fmt.Sprintf("%s-%d", cfg.Kind, len(out.Nodes)-1)
	}
	node := domain.Node{ID: id, Kind: cfg.Kind, Platform: cfg.Platform, Config: maps.Clone(cfg.Config)}

	tail, tailEdge := mainTail(out)
	branch := ""
	if tailEdge >= 0 {
		branch = out.Edges[tailEdge].Branch
		out.Edges = append(out.Edges[:tailEdge], out.Edges[tailEdge+1:]...)
	}

	// Keep end as the last node.
	end := out.Nodes[len(out.Nodes)-1]
	out.Nodes = append(out.Nodes[:len(out.Nodes)-1], node, end)
	out.Edges = append(out.Edges, edge(tail, id, branch))
	if cfg.Kind == domain.NodeCondition {
		out.Edges = append(out.Edges,
			edge(id, domain.EndNodeID, domain.BranchTrue),
			edge(id, domain.EndNodeID, domain.BranchFalse))
	} else {
		out.Edges = append(out.Edges, edge(id, domain.EndNodeID, ""))
	}
	return out
}

// mainTail walks the main path from start, taking the true branch at conditions, and
// returns the node whose edge enters end together with that edge's index.
func mainTail(g domain.Workflow) (string, int) {
	current := domain.StartNodeID
	seen := map[string]bool{}
	for !seen[current] {
		seen[current] = true
		idx := -1
		for i, e := range g.Edges {
			if e.From != current {
				continue
			}
			if e.Branch == "" || e.Branch == domain.BranchTrue {
				idx = i
				break
			}
		}
		if idx < 0 {
			return current, -1
		}
		if g.Edges[idx].To == domain.EndNodeID {
			return current, idx
		}
		current = g.Edges[idx].To
	}
	return current, -1
}

func sentinels() domain.Workflow {
	return domain.Workflow{
		Nodes: []domain.Node{
			{ID: domain.StartNodeID, Kind: domain.NodeStart},
			{ID: domain.EndNodeID, Kind: domain.NodeEnd},
		},
	}
}

// EdgeID returns the deterministic id of an edge.
func EdgeID(from, to, branch string) string {
	id := "e-" + from + "-" + to
	if branch != "" {
		id += "-" + branch
	}
	return id
}

func edge(from, to, branch string) domain.Edge {
	return domain.Edge{ID: EdgeID(from, to, branch), From: from, To: to, Branch: branch}
}
