package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techiemaya-admin/lad-onboarding/pkg/adapters/memory"
	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
	"github.com/techiemaya-admin/lad-onboarding/pkg/persistence/middleware"
	"github.com/techiemaya-admin/lad-onboarding/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func sessionWithLeads(id string) *domain.Session {
	s := domain.NewSession(id, time.Now().UTC())
	s.State = domain.StatePlatformFeatures
	s.AddPlatform("linkedin")
	s.Checkpoint = &domain.DuplicateCheckpoint{
		Leads: []domain.Lead{{Name: "Ada", Email: "ada@example.com"}},
		Duplicates: []domain.Duplicate{{
			ExistingLead: domain.Lead{ID: "lead-1", Name: "Ada", Email: "ada@example.com", Extra: map[string]string{"ssn": "999"}},
			MatchedOn:    "email",
		}},
	}
	return s
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	store := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	ctx := context.Background()

	original := sessionWithLeads("enc")
	require.NoError(t, store.Save(ctx, "enc", original))

	raw, err := underlying.Load(ctx, "enc")
	require.NoError(t, err)
	assert.NotEmpty(t, raw.Sealed)
	assert.Nil(t, raw.Checkpoint, "envelope must not carry lead data")
	assert.Empty(t, raw.Platforms)
	assert.Equal(t, domain.StatePlatformFeatures, raw.State)

	loaded, err := store.Load(ctx, "enc")
	require.NoError(t, err)
	assert.Empty(t, loaded.Sealed)
	assert.Equal(t, []string{"linkedin"}, loaded.Platforms)
	require.NotNil(t, loaded.Checkpoint)
	assert.Equal(t, "ada@example.com", loaded.Checkpoint.Leads[0].Email)
}

func TestEncryptionMiddleware_RejectsPlainSession(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, "plain", domain.NewSession("plain", time.Now())))

	store := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	_, err := store.Load(ctx, "plain")
	assert.ErrorIs(t, err, middleware.ErrNotSealed)
}

func TestEncryptionMiddleware_EnvelopeBoundToSessionID(t *testing.T) {
	underlying := memory.NewStore()
	store := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "victim", sessionWithLeads("victim")))
	raw, err := underlying.Load(ctx, "victim")
	require.NoError(t, err)
	require.NoError(t, underlying.Save(ctx, "attacker", raw))

	_, err = store.Load(ctx, "attacker")
	assert.ErrorIs(t, err, middleware.ErrUnsealable)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	oldStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	require.NoError(t, oldStore.Save(ctx, "rot", sessionWithLeads("rot")))

	newStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)

	loaded, err := newStore.Load(ctx, "rot")
	require.NoError(t, err, "fallback key should open the old envelope")

	loaded.AddPlatform("email")
	require.NoError(t, newStore.Save(ctx, "rot", loaded))

	_, err = oldStore.Load(ctx, "rot")
	assert.ErrorIs(t, err, middleware.ErrUnsealable, "old key alone must not open a session sealed with the new key")
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	})
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	store := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(memory.NewStore())
	ports.RunSessionStoreContract(t, store)
}
