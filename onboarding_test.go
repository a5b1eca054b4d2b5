package onboarding_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	onboarding "github.com/techiemaya-admin/lad-onboarding"
	"github.com/techiemaya-admin/lad-onboarding/internal/testutils"
	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
)

func TestService_StartIsIdempotent(t *testing.T) {
	svc := onboarding.New()
	ctx := context.Background()

	s1, err := svc.Start(ctx, "a")
	require.NoError(t, err)
	s2, err := svc.Start(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, s1.Turns, s2.Turns)

	generated, err := svc.Start(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, generated.ID)

	ids, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestService_ReplyPersists(t *testing.T) {
	var diffs []*domain.SessionDiff
	svc := onboarding.New(onboarding.WithSessionObserver(func(_ context.Context, before, after *domain.Session) {
		diffs = append(diffs, domain.Diff(before, after))
	}))
	ctx := context.Background()
	_, err := svc.Start(ctx, "a")
	require.NoError(t, err)

	_, err = svc.Reply(ctx, "a", "Lead generation")
	require.NoError(t, err)

	loaded, err := svc.Session(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.StatePlatformSelection, loaded.State)

	require.Len(t, diffs, 2)
	require.NotNil(t, diffs[1].State)
	assert.Equal(t, domain.StatePlatformSelection, *diffs[1].State)
	assert.Len(t, diffs[1].Turns, 2)
}

func TestService_ReplyUnknownSession(t *testing.T) {
	_, err := onboarding.New().Reply(context.Background(), "ghost", "hi")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestService_BusyAndResetCancels(t *testing.T) {
	gen := &testutils.Generator{Block: true}
	svc := onboarding.New(onboarding.WithGenerator(gen))
	ctx := context.Background()
	_, err := svc.Start(ctx, "a")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Reply(ctx, "a", "tell me a joke")
		done <- err
	}()
	require.Eventually(t, func() bool { return gen.Calls() == 1 }, time.Second, 5*time.Millisecond)

	_, err = svc.Reply(ctx, "a", "Lead generation")
	assert.ErrorIs(t, err, domain.ErrSessionBusy)

	reset, err := svc.Reset(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.StateInitial, reset.State)

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	case <-time.After(time.Second):
		t.Fatal("blocked step was not cancelled")
	}

	loaded, err := svc.Session(ctx, "a")
	require.NoError(t, err)
	for _, turn := range loaded.Turns {
		assert.NotEqual(t, "tell me a joke", turn.Text, "cancelled step must not be persisted")
	}
}

func TestService_LaunchFailurePersists(t *testing.T) {
	camps := &testutils.Campaigns{StartErr: errors.New("boom")}
	svc := onboarding.New(onboarding.WithCampaigns(camps))
	ctx := context.Background()
	_, err := svc.Start(ctx, "a")
	require.NoError(t, err)
	for _, in := range []any{"Lead generation", "Instagram", "continue", []string{"Follow account"}, "No delay"} {
		_, err = svc.Reply(ctx, "a", in)
		require.NoError(t, err)
	}

	s, err := svc.Launch(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrLaunchFailed)
	require.NotNil(t, s)
	assert.Equal(t, "camp-1", s.CampaignID)

	loaded, err := svc.Session(ctx, "a")
	require.NoError(t, err)
	assert.Contains(t, loaded.LastTurn().Text, "Campaigns view")
}
