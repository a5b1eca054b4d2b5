package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
)

// RunSessionStoreContract verifies that a SessionStore implementation honors the
// interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		s := domain.NewSession(sessionID, time.Now().UTC())
		s.State = domain.StatePlatformConfirmation
		s.AddPlatform("linkedin")
		s.AddPlatform("email")
		s.Answers.Set(domain.KeyPlatforms, s.Platforms)
		s.Append(domain.Turn{
			Role: domain.RoleAssistant,
			Text: "Pick a channel",
			Hints: &domain.Hints{
				Options: &domain.OptionSet{Kind: domain.OptionSingleSelect, Choices: []string{"LinkedIn"}},
			},
		})

		require.NoError(t, store.Save(ctx, sessionID, s), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, s.State, loaded.State)
		assert.Equal(t, []string{"linkedin", "email"}, loaded.Platforms)
		assert.Equal(t, []string{"linkedin", "email"}, loaded.Answers.Get(domain.KeyPlatforms))
		require.Len(t, loaded.Turns, 1)
		assert.True(t, loaded.Turns[0].HasOptions())
	})

	t.Run("Saved copy is isolated", func(t *testing.T) {
		s := domain.NewSession(sessionID+"-iso", time.Now().UTC())
		require.NoError(t, store.Save(ctx, s.ID, s))
		defer func() { _ = store.Delete(ctx, s.ID) }()

		s.AddPlatform("whatsapp")

		loaded, err := store.Load(ctx, s.ID)
		require.NoError(t, err)
		assert.Empty(t, loaded.Platforms)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, domain.NewSession(sessionID, time.Now())))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewSession(id1, time.Now()))
		_ = store.Save(ctx, id2, domain.NewSession(id2, time.Now()))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
