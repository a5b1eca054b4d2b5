package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techiemaya-admin/lad-onboarding/pkg/catalog"
)

func TestDefault_IsValid(t *testing.T) {
	c := catalog.Default()
	require.NotNil(t, c)
	assert.Equal(t, []string{"linkedin", "email", "whatsapp", "instagram", "voice"}, c.PlatformIDs())

	li, ok := c.Platform("linkedin")
	require.True(t, ok)
	assert.Equal(t, []string{"connection_request_with_message", "connection_request_without_message"}, li.Variants("connection_request"))
	assert.Equal(t, "connection_request", li.FamilyOf("connection_request_with_message"))
	assert.Equal(t, "", li.FamilyOf("visit_profile"))
}

func TestParse_RejectsCycles(t *testing.T) {
	data := []byte(`
platforms:
  - id: p
    label: P
    features:
      - id: a
        label: A
        requires: [b]
      - id: b
        label: B
        requires: [a]
`)
	_, err := catalog.Parse(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dependency cycle")
}

func TestParse_RejectsCycleThroughFamily(t *testing.T) {
	data := []byte(`
platforms:
  - id: p
    label: P
    families:
      - id: fam
        label: Fam
        default: v1
    features:
      - id: v1
        label: V1
        variant_of: fam
        requires: [x]
      - id: x
        label: X
        requires: [fam]
`)
	_, err := catalog.Parse(data)
	require.Error(t, err)
}

func TestParse_RejectsUnknownRequirement(t *testing.T) {
	data := []byte(`
platforms:
  - id: p
    label: P
    features:
      - id: a
        label: A
        requires: [ghost]
`)
	_, err := catalog.Parse(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestMatchPlatforms(t *testing.T) {
	c := catalog.Default()

	tests := []struct {
		input string
		want  []string
	}{
		{"LinkedIn and email please", []string{"linkedin", "email"}},
		{"email, then LinkedIn", []string{"email", "linkedin"}},
		{"whats app", []string{"whatsapp"}},
		{"nothing relevant", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, c.MatchPlatforms(tt.input))
		})
	}
}

func TestMatchFeature(t *testing.T) {
	li, _ := catalog.Default().Platform("linkedin")

	id, ok := li.MatchFeature("Send message (after accepted)")
	require.True(t, ok)
	assert.Equal(t, "send_message_after_accepted", id)

	id, ok = li.MatchFeature("send connection request")
	require.True(t, ok)
	assert.Equal(t, "connection_request", id)

	_, ok = li.MatchFeature("fly to the moon")
	assert.False(t, ok)
}

func TestSortByOrder(t *testing.T) {
	li, _ := catalog.Default().Platform("linkedin")
	got := li.SortByOrder([]string{"send_message_after_accepted", "visit_profile", "unknown", "connection_request_with_message"})
	assert.Equal(t, []string{"visit_profile", "connection_request_with_message", "send_message_after_accepted", "unknown"}, got)
}

func TestPlatform_Rules(t *testing.T) {
	li, ok := catalog.Default().Platform("linkedin")
	require.True(t, ok)

	rules := li.Rules()
	require.Len(t, rules, len(li.Features))
	assert.Equal(t, catalog.Rule{Platform: "linkedin", Action: "visit_profile"}, rules[0])
	assert.Contains(t, rules, catalog.Rule{
		Platform: "linkedin",
		Action:   "send_message_after_accepted",
		Requires: []string{"connection_request"},
	})
	assert.Contains(t, rules, catalog.Rule{
		Platform:  "linkedin",
		Action:    "connection_request_with_message",
		VariantOf: "connection_request",
	})
}
