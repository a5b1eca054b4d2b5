package domain

import (
	"maps"
	"slices"
)

// NodeKind classifies a workflow node.
type NodeKind string

const (
	NodeStart         NodeKind = "start"
	NodeEnd           NodeKind = "end"
	NodeChannelAction NodeKind = "channel_action"
	NodeDelay         NodeKind = "delay"
	NodeCondition     NodeKind = "condition"
)

// Sentinel node IDs.
const (
	StartNodeID = "start"
	EndNodeID   = "end"
)

// Branch labels of condition edges.
const (
	BranchTrue  = "true"
	BranchFalse = "false"
)

// Config keys used by node configuration maps.
const (
	ConfigFeature   = "feature"
	ConfigLabel     = "label"
	ConfigTemplate  = "template"
	ConfigSchedule  = "schedule"
	ConfigUnit      = "unit"
	ConfigValue     = "value"
	ConfigPredicate = "predicate"
)

// Node is one vertex of the workflow graph.
// Config is kind-specific (see Config* keys).
type Node struct {
	ID       string            `json:"id"`
	Kind     NodeKind          `json:"kind"`
	Platform string            `json:"platform,omitempty"`
	Config   map[string]string `json:"config,omitempty"`
}

// Edge links two nodes. Branch is set only on edges leaving a condition node.
type Edge struct {
	ID     string `json:"id"`
	From   string `json:"from"`
	To     string `json:"to"`
	Branch string `json:"branch,omitempty"`
}

// Workflow is the automation graph. Node and edge order is significant and deterministic.
type Workflow struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Empty reports whether the workflow has no nodes.
func (w Workflow) Empty() bool {
	return len(w.Nodes) == 0
}

// Node returns the node with the given id.
func (w Workflow) Node(id string) (Node, bool) {
	for _, n := range w.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Outgoing returns the edges leaving id, in insertion order.
func (w Workflow) Outgoing(id string) []Edge {
	var out []Edge
	for _, e := range w.Edges {
		if e.From == id {
			out = append(out, e)
		}
	}
	return out
}

// Incoming returns the edges entering id, in insertion order.
func (w Workflow) Incoming(id string) []Edge {
	var in []Edge
	for _, e := range w.Edges {
		if e.To == id {
			in = append(in, e)
		}
	}
	return in
}

// Clone returns a deep copy.
func (w Workflow) Clone() Workflow {
	cp := Workflow{
		Nodes: make([]Node, len(w.Nodes)),
		Edges: slices.Clone(w.Edges),
	}
	for i, n := range w.Nodes {
		n.Config = maps.Clone(n.Config)
		cp.Nodes[i] = n
	}
	if w.Nodes == nil {
		cp.Nodes = nil
	}
	return cp
}
