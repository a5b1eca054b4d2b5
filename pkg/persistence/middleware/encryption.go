package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
	"github.com/techiemaya-admin/lad-onboarding/pkg/ports"
)

var (
	// ErrNotSealed is returned when an encrypted store meets a plain session.
	ErrNotSealed = errors.New("session is not sealed")
	// ErrUnsealable is returned when no configured key opens a session.
	ErrUnsealable = errors.New("no key opens the sealed session")
)

// EncryptionConfig holds the sealing keys.
type EncryptionConfig struct {
	// ActiveKey seals new sessions. Must be 32 bytes.
	ActiveKey []byte

	// FallbackKeys are tried in order when the active key cannot open a session.
	FallbackKeys [][]byte
}

// NewEncryptionMiddleware seals whole sessions with AES-256-GCM. The session id is
// bound as additional data, so an envelope copied under another id does not open.
// It panics on a key that is not 32 bytes.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	ring := make([]cipher.AEAD, 0, 1+len(config.FallbackKeys))
	for _, key := range append([][]byte{config.ActiveKey}, config.FallbackKeys...) {
		aead, err := newAEAD(key)
		if err != nil {
			panic(fmt.Sprintf("invalid encryption key: %v", err))
		}
		ring = append(ring, aead)
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &sealedStore{next: next, ring: ring}
	}
}

// sealedStore keeps the active AEAD first in ring.
type sealedStore struct {
	next ports.SessionStore
	ring []cipher.AEAD
}

func (m *sealedStore) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	plain, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	active := m.ring[0]
	nonce := make([]byte, active.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to read nonce: %w", err)
	}
	sealed := active.Seal(nonce, nonce, plain, []byte(sessionID))

	// The envelope keeps only what listing and monitoring need.
	return m.next.Save(ctx, sessionID, &domain.Session{
		ID:        session.ID,
		State:     session.State,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		Sealed:    base64.StdEncoding.EncodeToString(sealed),
	})
}

func (m *sealedStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	envelope, err := m.next.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	// Plain sessions fail closed: enabling encryption never serves unprotected data.
	if envelope.Sealed == "" {
		return nil, fmt.Errorf("load %q: %w", sessionID, ErrNotSealed)
	}

	sealed, err := base64.StdEncoding.DecodeString(envelope.Sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decode sealed session: %w", err)
	}
	plain, err := m.open(sealed, []byte(sessionID))
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", sessionID, err)
	}

	var session domain.Session
	if err := json.Unmarshal(plain, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted session: %w", err)
	}
	return &session, nil
}

func (m *sealedStore) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *sealedStore) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *sealedStore) open(sealed, aad []byte) ([]byte, error) {
	for _, aead := range m.ring {
		n := aead.NonceSize()
		if len(sealed) < n {
			continue
		}
		if plain, err := aead.Open(nil, sealed[:n], sealed[n:], aad); err == nil {
			return plain, nil
		}
	}
	return nil, ErrUnsealable
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
