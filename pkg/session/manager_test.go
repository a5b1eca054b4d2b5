package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techiemaya-admin/lad-onboarding/pkg/adapters/memory"
	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
	"github.com/techiemaya-admin/lad-onboarding/pkg/ports"
	"github.com/techiemaya-admin/lad-onboarding/pkg/session"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]*domain.Session
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, sess *domain.Session) error {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.Session)
	}
	s.data[sessionID] = sess.Snapshot()
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.data[sessionID]; ok {
		return sess.Snapshot(), nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func TestManager_SerializesReadModifyWrite(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	_, _, err := manager.LoadOrStart(ctx, id)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, p := range []string{"linkedin", "email", "whatsapp", "instagram", "voice"} {
		wg.Add(1)
		go func(platform string) {
			defer wg.Done()
			err := manager.WithLock(ctx, id, func(ctx context.Context) error {
				s, err := store.Load(ctx, id)
				if err != nil {
					return err
				}
				s.AddPlatform(platform)
				return store.Save(ctx, id, s)
			})
			assert.NoError(t, err)
		}(p)
	}
	wg.Wait()

	s, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, s.Platforms, 5, "no update may be lost")
}

func TestManager_LoadOrStart(t *testing.T) {
	store := &SlowStore{}
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	manager := session.NewManager(store, session.WithClock(func() time.Time { return fixed }))
	ctx := context.Background()
	id := "atomic-init"

	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, created, err := manager.LoadOrStart(ctx, id)
			assert.NoError(t, err)
			assert.NotNil(t, s)
			if created {
				mu.Lock()
				createdCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, createdCount)
	s, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StateInitial, s.State)
	assert.Equal(t, fixed, s.CreatedAt)
}

func TestManager_TryWithLockRejectsBusySession(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	entered := make(chan struct{})
	releaseStep := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- manager.TryWithLock(ctx, "busy", func(context.Context) error {
			close(entered)
			<-releaseStep
			return nil
		})
	}()
	<-entered

	called := false
	err := manager.TryWithLock(ctx, "busy", func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrSessionBusy)
	assert.False(t, called)

	close(releaseStep)
	require.NoError(t, <-done)

	err = manager.TryWithLock(ctx, "busy", func(context.Context) error { return nil })
	assert.NoError(t, err)
}

type refusingLocker struct{}

func (refusingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	return func(context.Context) error { return nil }, nil
}

func (refusingLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, bool, error) {
	return nil, false, nil
}

func TestManager_TryWithLockHonorsDistributedLocker(t *testing.T) {
	manager := session.NewManager(memory.NewStore(), session.WithLocker(refusingLocker{}))

	err := manager.TryWithLock(context.Background(), "remote", func(context.Context) error {
		t.Fatal("must not run while another replica holds the lock")
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrSessionBusy)
}
