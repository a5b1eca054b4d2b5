package graph_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techiemaya-admin/lad-onboarding/internal/presentation/graph"
	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
)

func sampleWorkflow() domain.Workflow {
	return domain.Workflow{
		Nodes: []domain.Node{
			{ID: domain.StartNodeID, Kind: domain.NodeStart},
			{ID: "linkedin-visit_profile", Kind: domain.NodeChannelAction, Platform: "linkedin",
				Config: map[string]string{domain.ConfigFeature: "visit_profile", domain.ConfigLabel: "Visit profile"}},
			{ID: "linkedin-visit_profile-delay", Kind: domain.NodeDelay,
				Config: map[string]string{domain.ConfigValue: "1", domain.ConfigUnit: "day"}},
			{ID: "linkedin-visit_profile-condition", Kind: domain.NodeCondition,
				Config: map[string]string{domain.ConfigPredicate: "profile_visited"}},
			{ID: "email-send_email", Kind: domain.NodeChannelAction, Platform: "email",
				Config: map[string]string{domain.ConfigFeature: "send_email"}},
			{ID: domain.EndNodeID, Kind: domain.NodeEnd},
		},
		Edges: []domain.Edge{
			{ID: "e1", From: domain.StartNodeID, To: "linkedin-visit_profile"},
			{ID: "e2", From: "linkedin-visit_profile", To: "linkedin-visit_profile-delay"},
			{ID: "e3", From: "linkedin-visit_profile-delay", To: "linkedin-visit_profile-condition"},
			{ID: "e4", From: "linkedin-visit_profile-condition", To: domain.EndNodeID, Branch: domain.BranchTrue},
			{ID: "e5", From: "linkedin-visit_profile-condition", To: "email-send_email", Branch: domain.BranchFalse},
			{ID: "e6", From: "email-send_email", To: domain.EndNodeID},
		},
	}
}

func TestGenerateMermaid_Shapes(t *testing.T) {
	out := graph.GenerateMermaid(sampleWorkflow(), nil)

	assert.Contains(t, out, "graph TD\n")
	assert.Contains(t, out, `start(("Start"))`)
	assert.Contains(t, out, `end_(("End"))`)
	assert.Contains(t, out, `linkedin_visit_profile["linkedin: Visit profile"]`)
	assert.Contains(t, out, `linkedin_visit_profile_delay[/"Wait 1 day"/]`)
	assert.Contains(t, out, `linkedin_visit_profile_condition{"profile_visited?"}`)
	assert.Contains(t, out, `email_send_email["email: send_email"]`)
	assert.NotContains(t, out, "classDef")
}

func TestGenerateMermaid_Edges(t *testing.T) {
	out := graph.GenerateMermaid(sampleWorkflow(), nil)

	assert.Contains(t, out, "start --> linkedin_visit_profile")
	assert.Contains(t, out, `linkedin_visit_profile_condition -- "yes" --> end_`)
	assert.Contains(t, out, `linkedin_visit_profile_condition -. "no" .-> email_send_email`)
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	overlay := &graph.GraphOverlay{
		VisitedNodes: []string{"linkedin-visit_profile", "linkedin-visit_profile", "ghost"},
		CurrentNode:  "email-send_email",
	}
	out := graph.GenerateMermaid(sampleWorkflow(), overlay)

	assert.Contains(t, out, "classDef visited")
	assert.Contains(t, out, "classDef current")
	assert.Equal(t, 1, strings.Count(out, "class linkedin_visit_profile visited;"))
	assert.Contains(t, out, "class email_send_email current;")
	assert.NotContains(t, out, "ghost")
}

func TestGenerateMermaid_EscapesQuotes(t *testing.T) {
	wf := domain.Workflow{Nodes: []domain.Node{{
		ID: "x", Kind: domain.NodeChannelAction,
		Config: map[string]string{domain.ConfigLabel: `Say "hi"`},
	}}}
	assert.Contains(t, graph.GenerateMermaid(wf, nil), `x["Say 'hi'"]`)
}

func TestOverlayFor(t *testing.T) {
	s := domain.NewSession("a", time.Unix(0, 0))
	s.State = domain.StatePlatformFeatures
	s.Platforms = []string{"linkedin", "email"}
	s.Features = map[string][]string{
		"linkedin": {"visit_profile", "send_message"},
		"email":    {"send_email"},
	}
	s.PlatformCursor = 0
	s.FeatureCursor = 1

	o := graph.OverlayFor(s)
	require.NotNil(t, o)
	assert.Equal(t, []string{"linkedin-visit_profile"}, o.VisitedNodes)
	assert.Equal(t, "linkedin-send_message", o.CurrentNode)

	s.PlatformCursor = 1
	s.FeatureCursor = 0
	o = graph.OverlayFor(s)
	assert.Equal(t, []string{"linkedin-visit_profile", "linkedin-send_message"}, o.VisitedNodes)
	assert.Equal(t, "email-send_email", o.CurrentNode)

	s.State = domain.StateComplete
	assert.Nil(t, graph.OverlayFor(s))
	assert.Nil(t, graph.OverlayFor(nil))
}
