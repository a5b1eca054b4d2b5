package deps_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techiemaya-admin/lad-onboarding/pkg/catalog"
	"github.com/techiemaya-admin/lad-onboarding/pkg/deps"
	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
)

const chainCatalog = `
platforms:
  - id: p
    label: P
    features:
      - id: a
        label: A
      - id: b
        label: B
        requires: [a]
      - id: c
        label: C
        requires: [b]
`

func TestAutoSelect_VariantDefault(t *testing.T) {
	r := deps.New(catalog.Default())

	added, err := r.AutoSelect("linkedin", "send_message_after_accepted", []string{"visit_profile"})
	require.NoError(t, err)
	assert.Equal(t, []string{"connection_request_without_message"}, added)
}

func TestAutoSelect_SiblingSatisfiesRequirement(t *testing.T) {
	r := deps.New(catalog.Default())

	added, err := r.AutoSelect("linkedin", "send_message_after_accepted", []string{"connection_request_with_message"})
	require.NoError(t, err)
	assert.Empty(t, added)
}

func TestAutoSelect_Closure(t *testing.T) {
	c, err := catalog.Parse([]byte(chainCatalog))
	require.NoError(t, err)
	r := deps.New(c)

	added, err := r.AutoSelect("p", "c", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, added)
}

func TestAutoSelect_Unknown(t *testing.T) {
	r := deps.New(catalog.Default())

	_, err := r.AutoSelect("fax", "send", nil)
	assert.ErrorIs(t, err, domain.ErrUnknownAction)

	_, err = r.AutoSelect("linkedin", "teleport", nil)
	assert.ErrorIs(t, err, domain.ErrUnknownAction)
}

func TestRemove_OneLevelByDefault(t *testing.T) {
	c, err := catalog.Parse([]byte(chainCatalog))
	require.NoError(t, err)

	removed, err := deps.New(c).Remove("p", "a", []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, removed)
}

func TestRemove_Transitive(t *testing.T) {
	c, err := catalog.Parse([]byte(chainCatalog))
	require.NoError(t, err)

	removed, err := deps.New(c, deps.WithTransitive()).Remove("p", "a", []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, removed)
}

func TestRemove_VariantCascades(t *testing.T) {
	r := deps.New(catalog.Default())
	selected := []string{"connection_request_with_message", "send_message_after_accepted"}

	removed, err := r.Remove("linkedin", "connection_request_with_message", selected)
	require.NoError(t, err)
	assert.Equal(t, []string{"send_message_after_accepted"}, removed)
}

func TestToggle_AutoAddWithWarning(t *testing.T) {
	r := deps.New(catalog.Default())

	res, err := r.Toggle("linkedin", "send_message_after_accepted", []string{"visit_profile"}, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"visit_profile", "send_message_after_accepted", "connection_request_without_message"}, res.Selected)
	assert.Equal(t, []string{"send_message_after_accepted", "connection_request_without_message"}, res.Added)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t,
		`"Send message (after accepted)" requires "Send connection request (without message)", so "Send connection request (without message)" was added automatically.`,
		res.Warnings[0].Text)
	assert.Equal(t, "linkedin:send_message_after_accepted>connection_request_without_message", res.Warnings[0].Key("linkedin"))
	assert.True(t, res.NeedsTemplate)
}

func TestToggle_VariantReplacesSibling(t *testing.T) {
	r := deps.New(catalog.Default())
	selected := []string{"connection_request_without_message", "send_message_after_accepted"}

	res, err := r.Toggle("linkedin", "connection_request_with_message", selected, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"send_message_after_accepted", "connection_request_with_message"}, res.Selected)
	assert.Equal(t, []string{"connection_request_without_message"}, res.Replaced)
	assert.Empty(t, res.Removed)
	assert.True(t, res.NeedsTemplate)
}

func TestToggle_FamilyMetaOption(t *testing.T) {
	r := deps.New(catalog.Default())

	res, err := r.Toggle("linkedin", "connection_request", nil, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"connection_request_without_message"}, res.Selected)
	assert.False(t, res.NeedsTemplate)

	res, err = r.Toggle("linkedin", "connection_request", []string{"connection_request_with_message"}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"connection_request_with_message"}, res.Selected)
	assert.Empty(t, res.Added)

	res, err = r.Toggle("linkedin", "connection_request",
		[]string{"connection_request_with_message", "send_message_after_accepted"}, false)
	require.NoError(t, err)
	assert.Empty(t, res.Selected)
	assert.Equal(t, []string{"connection_request_with_message", "send_message_after_accepted"}, res.Removed)
}

func TestToggle_OffUnselectedIsNoop(t *testing.T) {
	r := deps.New(catalog.Default())

	res, err := r.Toggle("email", "follow_up_email", []string{"send_email"}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"send_email"}, res.Selected)
	assert.Empty(t, res.Removed)
}

func TestNeedsTemplate(t *testing.T) {
	tests := []struct {
		label string
		want  bool
	}{
		{"Send connection request (with message)", true},
		{"Send connection request (without message)", false},
		{"Send message (after accepted)", true},
		{"Send follow-up email", true},
		{"Place call with script", true},
		{"Comment on recent post", true},
		{"Send DM", true},
		{"Visit profile", false},
		{"Follow account", false},
		{"Admin dashboard", false},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, deps.NeedsTemplate(tt.label))
		})
	}
}
