package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techiemaya-admin/lad-onboarding/pkg/catalog"
	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
	"github.com/techiemaya-admin/lad-onboarding/pkg/workflow"
)

func fullAnswers() domain.AnswerMap {
	return domain.AnswerMap{
		domain.KeyPlatforms:                                  {"linkedin", "email"},
		"linkedin.features":                                  {"send_message_after_accepted", "visit_profile", "connection_request_with_message"},
		"linkedin.visit_profile.delay":                       {"1 day"},
		"linkedin.connection_request_with_message.template":  {"Hi {{name}}"},
		"linkedin.connection_request_with_message.condition": {"Connection accepted"},
		"linkedin.connection_request_with_message.on_false":  {"email.send_email"},
		"email.features":                                     {"send_email"},
		"email.send_email.delay":                             {"No delay"},
		"email.send_email.condition":                         {"No condition"},
		"email.send_email.template":                          {"Hello"},
	}
}

func nodeIDs(g domain.Workflow) []string {
	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	return ids
}

func TestRegenerate_Layout(t *testing.T) {
	a := workflow.New(catalog.Default())
	g := a.Regenerate(fullAnswers(), -1)

	require.NoError(t, workflow.Validate(g))
	assert.Equal(t, []string{
		"start",
		"linkedin-visit_profile",
		"linkedin-visit_profile-delay",
		"linkedin-connection_request_with_message",
		"linkedin-connection_request_with_message-condition",
		"linkedin-connection_request_with_message-condition-email-send_email",
		"linkedin-send_message_after_accepted",
		"email-send_email",
		"end",
	}, nodeIDs(g))

	var branches []string
	for _, e := range g.Outgoing("linkedin-connection_request_with_message-condition") {
		branches = append(branches, e.ID)
	}
	assert.ElementsMatch(t, []string{
		"e-linkedin-connection_request_with_message-condition-linkedin-connection_request_with_message-condition-email-send_email-false",
		"e-linkedin-connection_request_with_message-condition-linkedin-send_message_after_accepted-true",
	}, branches)

	cr, ok := g.Node("linkedin-connection_request_with_message")
	require.True(t, ok)
	assert.Equal(t, "Hi {{name}}", cr.Config[domain.ConfigTemplate])
	assert.Equal(t, workflow.ScheduleDelayed, cr.Config[domain.ConfigSchedule])

	delay, _ := g.Node("linkedin-visit_profile-delay")
	assert.Equal(t, "days", delay.Config[domain.ConfigUnit])
	assert.Equal(t, "1", delay.Config[domain.ConfigValue])

	assert.Len(t, g.Incoming(domain.EndNodeID), 2)
}

func TestRegenerate_Idempotent(t *testing.T) {
	a := workflow.New(catalog.Default())
	for cursor := -1; cursor <= 5; cursor++ {
		first := a.Regenerate(fullAnswers(), cursor)
		second := a.Regenerate(fullAnswers(), cursor)
		assert.Equal(t, first, second, "cursor %d", cursor)
	}
}

func TestRegenerate_PathInvariantAtEveryCursor(t *testing.T) {
	a := workflow.New(catalog.Default())
	for cursor := -1; cursor <= 5; cursor++ {
		assert.NoError(t, workflow.Validate(a.Regenerate(fullAnswers(), cursor)), "cursor %d", cursor)
	}
}

func TestRegenerate_Cursor(t *testing.T) {
	a := workflow.New(catalog.Default())

	empty := a.Regenerate(fullAnswers(), 0)
	assert.Equal(t, []string{"start", "end"}, nodeIDs(empty))
	assert.Equal(t, []domain.Edge{{ID: "e-start-end", From: "start", To: "end"}}, empty.Edges)

	one := a.Regenerate(fullAnswers(), 1)
	assert.Equal(t, []string{"start", "linkedin-visit_profile", "linkedin-visit_profile-delay", "end"}, nodeIDs(one))
	assert.Equal(t, "e-linkedin-visit_profile-delay-end", one.Edges[len(one.Edges)-1].ID)
}

func TestRegenerate_SkipsUnknown(t *testing.T) {
	a := workflow.New(catalog.Default())
	answers := domain.AnswerMap{
		domain.KeyPlatforms:         {"fax", "email"},
		"fax.features":              {"send_fax"},
		"email.features":            {"send_email", "teleport"},
		"email.send_email.condition": {"yes"},
		"email.send_email.on_false":  {"fax.send_fax", "End sequence"},
	}
	g := a.Regenerate(answers, -1)

	require.NoError(t, workflow.Validate(g))
	assert.Equal(t, []string{"start", "email-send_email", "email-send_email-condition", "end"}, nodeIDs(g))

	cond, _ := g.Node("email-send_email-condition")
	assert.Equal(t, "email opened", cond.Config[domain.ConfigPredicate])
}

func TestSteps_PrecedenceOrder(t *testing.T) {
	a := workflow.New(catalog.Default())
	steps := a.Steps(fullAnswers())

	var got []string
	for _, s := range steps {
		got = append(got, workflow.Ref{Platform: s.Platform, Feature: s.Feature}.String())
	}
	assert.Equal(t, []string{
		"linkedin.visit_profile",
		"linkedin.connection_request_with_message",
		"linkedin.send_message_after_accepted",
		"email.send_email",
	}, got)
}

func TestAppendStep(t *testing.T) {
	var g domain.Workflow
	g = workflow.AppendStep(g, workflow.NodeConfig{ID: "a", Kind: domain.NodeChannelAction})
	require.NoError(t, workflow.Validate(g))
	assert.Equal(t, []string{"start", "a", "end"}, nodeIDs(g))

	g = workflow.AppendStep(g, workflow.NodeConfig{ID: "c", Kind: domain.NodeCondition})
	require.NoError(t, workflow.Validate(g))

	g = workflow.AppendStep(g, workflow.NodeConfig{ID: "b", Kind: domain.NodeChannelAction})
	require.NoError(t, workflow.Validate(g))
	assert.Equal(t, []string{"start", "a", "c", "b", "end"}, nodeIDs(g))

	var ids []string
	for _, e := range g.Edges {
		ids = append(ids, e.ID)
	}
	assert.ElementsMatch(t, []string{"e-start-a", "e-a-c", "e-c-end-false", "e-c-b-true", "e-b-end"}, ids)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name string
		g    domain.Workflow
	}{
		{
			name: "missing end",
			g:    domain.Workflow{Nodes: []domain.Node{{ID: "start", Kind: domain.NodeStart}}},
		},
		{
			name: "dangling edge",
			g: domain.Workflow{
				Nodes: []domain.Node{{ID: "start", Kind: domain.NodeStart}, {ID: "end", Kind: domain.NodeEnd}},
				Edges: []domain.Edge{{ID: "e1", From: "start", To: "end"}, {ID: "e2", From: "start", To: "ghost"}},
			},
		},
		{
			name: "condition with one branch",
			g: domain.Workflow{
				Nodes: []domain.Node{
					{ID: "start", Kind: domain.NodeStart},
					{ID: "c", Kind: domain.NodeCondition},
					{ID: "end", Kind: domain.NodeEnd},
				},
				Edges: []domain.Edge{{ID: "e1", From: "start", To: "c"}, {ID: "e2", From: "c", To: "end", Branch: "true"}},
			},
		},
		{
			name: "action entered twice",
			g: domain.Workflow{
				Nodes: []domain.Node{
					{ID: "start", Kind: domain.NodeStart},
					{ID: "c", Kind: domain.NodeCondition},
					{ID: "a", Kind: domain.NodeChannelAction},
					{ID: "end", Kind: domain.NodeEnd},
				},
				Edges: []domain.Edge{
					{ID: "e1", From: "start", To: "c"},
					{ID: "e2", From: "c", To: "a", Branch: "true"},
					{ID: "e3", From: "c", To: "a", Branch: "false"},
					{ID: "e4", From: "a", To: "end"},
				},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, workflow.Validate(tt.g), domain.ErrInvalidGraph)
		})
	}
}

func TestLinearize(t *testing.T) {
	a := workflow.New(catalog.Default())
	steps := workflow.Linearize(a.Regenerate(fullAnswers(), -1))

	var ids []string
	for i, s := range steps {
		assert.Equal(t, i+1, s.Order)
		ids = append(ids, s.NodeID)
	}
	assert.Equal(t, []string{
		"linkedin-visit_profile",
		"linkedin-visit_profile-delay",
		"linkedin-connection_request_with_message",
		"linkedin-connection_request_with_message-condition",
		"linkedin-send_message_after_accepted",
		"email-send_email",
		"linkedin-connection_request_with_message-condition-email-send_email",
	}, ids)

	last := steps[len(steps)-1]
	assert.Equal(t, domain.BranchFalse, last.Branch)
	assert.Equal(t, "linkedin-connection_request_with_message-condition", last.Parent)
}
