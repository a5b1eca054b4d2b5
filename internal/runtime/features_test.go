package runtime_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techiemaya-admin/lad-onboarding/internal/runtime"
	"github.com/techiemaya-admin/lad-onboarding/internal/testutils"
	"github.com/techiemaya-admin/lad-onboarding/pkg/catalog"
	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
)

const chainCatalog = `
delays: [No delay, 1 day]
platforms:
  - id: p
    label: Pager
    keywords: [pager]
    features:
      - id: a
        label: Alpha
        order: 10
      - id: b
        label: Bravo
        order: 20
        requires: [a]
      - id: c
        label: Charlie
        order: 30
        requires: [b]
      - id: d
        label: Delta
        order: 40
`

// atFeatures returns a session asking for the actions of platform, with current
// already selected.
func atFeatures(e *runtime.Engine, platform string, current ...string) *domain.Session {
	s := e.Start("s1")
	s.State = domain.StatePlatformFeatures
	s.Platforms = []string{platform}
	s.PlatformsConfirmed = true
	s.Answers.Set(domain.KeyPlatforms, s.Platforms)
	s.Features[platform] = current
	s.Answers.Set(domain.FeaturesKey(platform), current)
	return s
}

func chainEngine(t *testing.T, opts ...runtime.EngineOption) *runtime.Engine {
	t.Helper()
	c, err := catalog.Parse([]byte(chainCatalog))
	require.NoError(t, err)
	return runtime.NewEngine(c, append([]runtime.EngineOption{runtime.WithClock(testutils.FixedClock(fixedNow))}, opts...)...)
}

func TestReply_UncheckedRequirementRemovesDirectDependents(t *testing.T) {
	e := chainEngine(t)
	s := atFeatures(e, "p", "a", "b", "c", "d")

	s = reply(t, e, s, []string{"Bravo", "Charlie", "Delta"})

	assert.Equal(t, []string{"c", "d"}, s.Features["p"])
	assert.Equal(t, []string{"c", "d"}, s.Answers.Get(domain.FeaturesKey("p")))
	assert.Equal(t, domain.StateFeatureUtilities, s.State)
	assert.Contains(t, lastText(s), `Removed "Bravo" because`)
}

func TestReply_UncheckedRequirementCascadesTransitively(t *testing.T) {
	e := chainEngine(t, runtime.WithTransitiveCascade())
	s := atFeatures(e, "p", "a", "b", "c", "d")

	s = reply(t, e, s, []string{"Bravo", "Charlie", "Delta"})

	assert.Equal(t, []string{"d"}, s.Features["p"])
	assert.Contains(t, lastText(s), `Removed "Bravo", "Charlie" because`)
}

func TestReply_UncheckedRequirementIsNotAddedBack(t *testing.T) {
	for name, e := range map[string]*runtime.Engine{
		"one level":  newEngine(),
		"transitive": newEngine(runtime.WithTransitiveCascade()),
	} {
		t.Run(name, func(t *testing.T) {
			s := atFeatures(e, "linkedin", "connection_request_without_message", "send_message_after_accepted")

			s = reply(t, e, s, []string{"Send message (after accepted)"})

			assert.Empty(t, s.Features["linkedin"])
			assert.Equal(t, domain.StatePlatformFeatures, s.State, "nothing left to configure, so the question is asked again")
			assert.Contains(t, lastText(s), `Removed "Send message (after accepted)"`)
			require.True(t, s.LastTurn().HasOptions())
			assert.Empty(t, s.LastTurn().Hints.Options.Prechecked)
		})
	}
}

func TestReply_SwitchingVariantKeepsDependents(t *testing.T) {
	e := newEngine()
	s := atFeatures(e, "linkedin", "connection_request_without_message", "send_message_after_accepted")

	s = reply(t, e, s, []string{"Send connection request (with message)", "Send message (after accepted)"})

	assert.Equal(t, []string{"connection_request_with_message", "send_message_after_accepted"}, s.Features["linkedin"])
	assert.Equal(t, domain.StateFeatureUtilities, s.State)
}

func TestReply_NewChoiceStillPullsRequirement(t *testing.T) {
	e := newEngine()
	s := atFeatures(e, "linkedin", "visit_profile")

	s = reply(t, e, s, []string{"Visit profile", "Send message (after accepted)"})

	assert.Equal(t, []string{"visit_profile", "connection_request_without_message", "send_message_after_accepted"}, s.Features["linkedin"])
}
