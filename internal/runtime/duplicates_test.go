package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techiemaya-admin/lad-onboarding/internal/runtime"
	"github.com/techiemaya-admin/lad-onboarding/internal/testutils"
	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
)

var batch = []domain.Lead{
	{Name: "Ada", Email: "ada@example.com"},
	{Name: "Bob", Email: "bob@example.com"},
}

func leadStore() *testutils.LeadStore {
	return &testutils.LeadStore{Existing: map[string]domain.Duplicate{
		"ada@example.com": {
			ExistingLead: domain.Lead{ID: "lead-1", Email: "ada@example.com"},
			MatchedOn:    "email",
			Bookings:     []domain.Booking{{ID: "bk-1", LeadID: "lead-1"}},
		},
	}}
}

func submitted(t *testing.T) (*runtime.Engine, *testutils.LeadStore, *domain.Session) {
	t.Helper()
	store := leadStore()
	e := newEngine(runtime.WithLeadStore(store))
	s, err := e.SubmitLeads(context.Background(), e.Start("s1"), batch)
	require.NoError(t, err)
	require.NotNil(t, s.Checkpoint)
	return e, store, s
}

func TestSubmitLeads_OpensCheckpoint(t *testing.T) {
	_, store, s := submitted(t)

	require.Len(t, store.Saves, 1)
	assert.False(t, store.Saves[0].SkipDuplicates)
	assert.False(t, store.Saves[0].IncludeDuplicates)

	assert.False(t, s.Checkpoint.Resolved)
	assert.Equal(t, 1, s.Checkpoint.NewLeadsCount)
	last := s.LastTurn()
	require.True(t, last.HasOptions())
	assert.Equal(t, []string{"Skip duplicates", "Include all", "Follow up now"}, last.Hints.Options.Choices)
}

func TestSubmitLeads_NoDuplicates(t *testing.T) {
	store := &testutils.LeadStore{}
	e := newEngine(runtime.WithLeadStore(store))

	s, err := e.SubmitLeads(context.Background(), e.Start("s1"), batch)
	require.NoError(t, err)
	assert.Nil(t, s.Checkpoint)
	assert.Equal(t, "Saved 2 leads.", lastText(s))
}

func TestSubmitLeads_PendingCheckpoint(t *testing.T) {
	e, _, s := submitted(t)
	_, err := e.SubmitLeads(context.Background(), s, batch)
	assert.ErrorIs(t, err, domain.ErrCheckpointPending)
}

func TestResolve_SkipDuplicates(t *testing.T) {
	e, store, s := submitted(t)

	s, err := e.Resolve(context.Background(), s, domain.ResolveSkipDuplicates)
	require.NoError(t, err)

	require.Len(t, store.Saves, 2)
	assert.Equal(t, batch, store.Saves[1].Leads)
	assert.True(t, store.Saves[1].SkipDuplicates)
	assert.False(t, store.Saves[1].IncludeDuplicates)
	assert.True(t, s.Checkpoint.Resolved)
	assert.Equal(t, 1, s.Checkpoint.Resubmissions)
	assert.Equal(t, "Saved 1 leads and skipped 1 duplicates.", lastText(s))

	_, err = e.Resolve(context.Background(), s, domain.ResolveIncludeAll)
	assert.ErrorIs(t, err, domain.ErrCheckpointResolved)
	assert.Len(t, store.Saves, 2)
}

func TestResolve_SettledCheckpointIgnoresReplies(t *testing.T) {
	e, store, s := submitted(t)
	s, err := e.Resolve(context.Background(), s, domain.ResolveIncludeAll)
	require.NoError(t, err)
	turns := len(s.Turns)

	again, err := e.Reply(context.Background(), s, "Include all")
	require.NoError(t, err)
	assert.Same(t, s, again)
	assert.Len(t, again.Turns, turns)
	assert.Len(t, store.Saves, 2)
}

func TestResolve_SettledLabelsAreAnswersAfterNextQuestion(t *testing.T) {
	e, store, s := submitted(t)
	s, err := e.Resolve(context.Background(), s, domain.ResolveIncludeAll)
	require.NoError(t, err)

	s, err = e.Reply(context.Background(), s, "Lead generation")
	require.NoError(t, err)
	require.Equal(t, domain.StatePlatformSelection, s.State)
	turns := len(s.Turns)

	next, err := e.Reply(context.Background(), s, "Include all")
	require.NoError(t, err)
	assert.NotSame(t, s, next)
	assert.Len(t, next.Turns, turns+2, "the reply is recorded and answered")
	assert.Equal(t, "Include all", next.Turns[turns].Text)
	assert.Len(t, store.Saves, 2)
}

func TestResolve_FollowUpNowNeedsConfirmation(t *testing.T) {
	e, store, s := submitted(t)

	s, err := e.Resolve(context.Background(), s, domain.ResolveFollowUpNow)
	require.NoError(t, err)
	assert.True(t, s.Checkpoint.AwaitingConfirm)
	assert.Empty(t, store.Cancelled)
	assert.Equal(t, []string{"Yes, cancel scheduled follow-ups", "Back"}, s.LastTurn().Hints.Options.Choices)

	s, err = e.Resolve(context.Background(), s, domain.ResolveBack)
	require.NoError(t, err)
	assert.False(t, s.Checkpoint.AwaitingConfirm)
	assert.Len(t, s.LastTurn().Hints.Options.Choices, 3)

	s, err = e.Resolve(context.Background(), s, domain.ResolveFollowUpNow)
	require.NoError(t, err)
	s, err = e.Resolve(context.Background(), s, domain.ResolveConfirmCancel)
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"lead-1"}}, store.Cancelled)
	require.Len(t, store.Saves, 2)
	assert.True(t, store.Saves[1].IncludeDuplicates)
	assert.True(t, s.Checkpoint.Resolved)
	assert.Equal(t, domain.ResolveFollowUpNow, s.Checkpoint.Resolution)
	assert.Equal(t, "Cancelled 1 scheduled follow-ups and saved 2 leads.", lastText(s))
}

func TestResolve_InvalidForStep(t *testing.T) {
	e, _, s := submitted(t)
	_, err := e.Resolve(context.Background(), s, domain.ResolveConfirmCancel)
	assert.ErrorIs(t, err, domain.ErrInvalidResolution)

	_, err = e.Resolve(context.Background(), e.Start("s2"), domain.ResolveSkipDuplicates)
	assert.ErrorIs(t, err, domain.ErrNoCheckpoint)
}

func TestResolve_ByChatReply(t *testing.T) {
	e, store, s := submitted(t)

	s = reply(t, e, s, "what?")
	assert.False(t, s.Checkpoint.Resolved)
	assert.Len(t, store.Saves, 1)

	s = reply(t, e, s, "skip duplicates")
	assert.True(t, s.Checkpoint.Resolved)
	require.Len(t, store.Saves, 2)
	assert.True(t, store.Saves[1].SkipDuplicates)
}

func TestResolve_StoreFailureFallsBack(t *testing.T) {
	e, store, s := submitted(t)
	store.Err = errors.New("db down")

	next, err := e.Resolve(context.Background(), s, domain.ResolveSkipDuplicates)
	require.NoError(t, err)
	assert.False(t, next.Checkpoint.Resolved)
	assert.Contains(t, lastText(next), "Something went wrong")
}

func TestParseResolution(t *testing.T) {
	tests := []struct {
		in   string
		want domain.Resolution
		ok   bool
	}{
		{"skip_duplicates", domain.ResolveSkipDuplicates, true},
		{"Include all", domain.ResolveIncludeAll, true},
		{"follow up now!", domain.ResolveFollowUpNow, true},
		{"Back", domain.ResolveBack, true},
		{"maybe", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := runtime.ParseResolution(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
