package graph

import (
	"fmt"
	"strings"

	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
	"github.com/techiemaya-admin/lad-onboarding/pkg/workflow"
)

// GraphOverlay contains dynamic session data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// OverlayFor highlights the configured steps of s and the one under its cursor.
// It returns nil once the session is complete.
func OverlayFor(s *domain.Session) *GraphOverlay {
	if s == nil || s.State == domain.StateComplete {
		return nil
	}
	o := &GraphOverlay{}
	for pi, p := range s.Platforms {
		for fi, f := range s.Features[p] {
			if pi < s.PlatformCursor || (pi == s.PlatformCursor && fi < s.FeatureCursor) {
				o.VisitedNodes = append(o.VisitedNodes, workflow.NodeID(p, f))
			}
		}
	}
	if p, f := s.CurrentPlatform(), s.CurrentFeature(); p != "" && f != "" {
		o.CurrentNode = workflow.NodeID(p, f)
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart for a workflow graph.
// It applies semantic styling:
// - Start/End: ((Circle))
// - Delay: [/Parallelogram/]
// - Condition: {Rhombus}
// - Channel action: [Rectangle]
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(wf domain.Workflow, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range wf.Nodes {
		opener, closer := "[", "]"
		switch node.Kind {
		case domain.NodeStart, domain.NodeEnd:
			opener, closer = "((", "))"
		case domain.NodeDelay:
			opener, closer = "[/", "/]"
		case domain.NodeCondition:
			opener, closer = "{", "}"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeMermaidID(node.ID), opener, escape(nodeLabel(node)), closer)
	}

	for _, e := range wf.Edges {
		arrow := "-->"
		switch e.Branch {
		case domain.BranchTrue:
			arrow = "-- \"yes\" -->"
		case domain.BranchFalse:
			arrow = "-. \"no\" .->"
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(e.From), arrow, sanitizeMermaidID(e.To))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on both light and dark themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			if _, ok := wf.Node(id); !ok {
				continue
			}
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if _, ok := wf.Node(overlay.CurrentNode); ok {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

func nodeLabel(n domain.Node) string {
	switch n.Kind {
	case domain.NodeStart:
		return "Start"
	case domain.NodeEnd:
		return "End"
	case domain.NodeDelay:
		return fmt.Sprintf("Wait %s %s", n.Config[domain.ConfigValue], n.Config[domain.ConfigUnit])
	case domain.NodeCondition:
		return n.Config[domain.ConfigPredicate] + "?"
	}
	label := n.Config[domain.ConfigLabel]
	if label == "" {
		label = n.Config[domain.ConfigFeature]
	}
	if n.Platform != "" {
		label = n.Platform + ": " + label
	}
	return label
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

// sanitizeMermaidID also renames "end", which Mermaid reserves for closing subgraphs.
func sanitizeMermaidID(id string) string {
	if id == domain.EndNodeID {
		return "end_"
	}
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
