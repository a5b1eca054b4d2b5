package workflow

import (
	"maps"
	"slices"

	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
)

// Linearize flattens the graph depth-first for the campaign payload. The true branch of
// a condition is walked before its false branch; steps on a false branch carry the
// branch label and the id of their condition.
func Linearize(g domain.Workflow) []domain.CampaignStep {
	var steps []domain.CampaignStep
	visited := map[string]bool{}

	var walk func(id, branch, parent string)
	walk = func(id, branch, parent string) {
		if visited[id] {
			return
		}
		visited[id] = true

		n, ok := g.Node(id)
		if !ok {
			return
		}
		if n.Kind != domain.NodeStart && n.Kind != domain.NodeEnd {
			steps = append(steps, domain.CampaignStep{
				Order:    len(steps) + 1,
				NodeID:   n.ID,
				Kind:     n.Kind,
				Platform: n.Platform,
				Config:   maps.Clone(n.Config),
				Branch:   branch,
				Parent:   parent,
			})
		}

		edges := g.Outgoing(id)
		slices.SortStableFunc(edges, func(a, b domain.Edge) int {
			return branchRank(a.Branch) - branchRank(b.Branch)
		})
		for _, e := range edges {
			if e.To == domain.EndNodeID {
				continue
			}
			switch e.Branch {
			case domain.BranchFalse:
				walk(e.To, domain.BranchFalse, id)
			case domain.BranchTrue:
				walk(e.To, "", "")
			default:
				walk(e.To, branch, parent)
			}
		}
	}
	walk(domain.StartNodeID, "", "")
	return steps
}

func branchRank(b string) int {
	if b == domain.BranchFalse {
		return 1
	}
	return 0
}
