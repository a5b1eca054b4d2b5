package onboarding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/techiemaya-admin/lad-onboarding/internal/logging"
	"github.com/techiemaya-admin/lad-onboarding/internal/runtime"
	"github.com/techiemaya-admin/lad-onboarding/pkg/adapters/memory"
	"github.com/techiemaya-admin/lad-onboarding/pkg/catalog"
	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
	"github.com/techiemaya-admin/lad-onboarding/pkg/ports"
	"github.com/techiemaya-admin/lad-onboarding/pkg/session"
)

// SessionObserver is notified after every persisted change. before is nil for a new
// session.
type SessionObserver func(ctx context.Context, before, after *domain.Session)

// Service is the high-level entry point: it loads sessions, runs one controller step
// under the session lock and persists the result.
type Service struct {
	engine   *runtime.Engine
	sessions *session.Manager
	catalog  *catalog.Catalog
	logger   *slog.Logger

	store      ports.SessionStore
	locker     ports.DistributedLocker
	observers  []SessionObserver
	engineOpts []runtime.EngineOption

	mu       sync.Mutex
	inflight map[string]context.CancelFunc
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the structured logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithCatalog replaces the embedded platform catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Service) {
		s.catalog = c
	}
}

// WithStore sets the session store. Defaults to an in-memory store.
func WithStore(store ports.SessionStore) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithLocker adds a distributed lock on top of the in-process session lock.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(s *Service) {
		s.locker = locker
	}
}

// WithGenerator sets the text generation service.
func WithGenerator(g ports.Generator) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, runtime.WithGenerator(g))
	}
}

// WithLeadStore sets the lead persistence collaborator.
func WithLeadStore(l ports.LeadStore) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, runtime.WithLeadStore(l))
	}
}

// WithCampaigns sets the campaign collaborator.
func WithCampaigns(c ports.CampaignService) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, runtime.WithCampaignService(c))
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, runtime.WithLifecycleHooks(hooks))
	}
}

// WithPacing delays each reply by d.
func WithPacing(d time.Duration) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, runtime.WithPacing(d))
	}
}

// WithTransitiveCascade makes action removal cascade through all dependents.
func WithTransitiveCascade() Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, runtime.WithTransitiveCascade())
	}
}

// WithFastMode asks the generation service for shorter answers.
func WithFastMode() Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, runtime.WithFastMode())
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, runtime.WithClock(now))
	}
}

// WithSessionObserver registers a callback run after each persisted change.
func WithSessionObserver(o SessionObserver) Option {
	return func(s *Service) {
		s.observers = append(s.observers, o)
	}
}

// New creates a Service. Without options it uses the embedded catalog, an in-memory
// store and no collaborators; delegated replies then fall back.
func New(opts ...Option) *Service {
	s := &Service{
		logger:   logging.NewNop(),
		inflight: make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.catalog == nil {
		s.catalog = catalog.Default()
	}
	if s.store == nil {
		s.store = memory.NewStore()
	}

	managerOpts := []session.Option{session.WithLogger(s.logger)}
	if s.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(s.locker))
	}
	s.sessions = session.NewManager(s.store, managerOpts...)
	s.engine = runtime.NewEngine(s.catalog, append([]runtime.EngineOption{runtime.WithLogger(s.logger)}, s.engineOpts...)...)
	return s
}

// Catalog returns the platform catalog in use.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// Start returns the session with the given id, creating it with the opening question
// if it does not exist. An empty id generates one.
func (s *Service) Start(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		id = uuid.NewString()
	}
	var out *domain.Session
	err := s.sessions.WithLock(ctx, id, func(ctx context.Context) error {
		existing, err := s.store.Load(ctx, id)
		if err == nil {
			out = existing
			return nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to check session existence: %w", err)
		}
		out = s.engine.Start(id)
		if err := s.store.Save(ctx, id, out); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		s.logger.InfoContext(ctx, "Session started", "session_id", id)
		s.notify(ctx, nil, out)
		return nil
	})
	return out, err
}

// Session loads a session.
func (s *Service) Session(ctx context.Context, id string) (*domain.Session, error) {
	return s.sessions.Load(ctx, id)
}

// List returns the ids of stored sessions.
func (s *Service) List(ctx context.Context) ([]string, error) {
	return s.sessions.List(ctx)
}

// Delete removes a session.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.sessions.Delete(ctx, id)
}

// Reply applies one user reply. It returns domain.ErrSessionBusy when another step of
// the same session is running.
func (s *Service) Reply(ctx context.Context, id string, input any) (*domain.Session, error) {
	return s.step(ctx, id, func(ctx context.Context, cur *domain.Session) (*domain.Session, error) {
		return s.engine.Reply(ctx, cur, input)
	})
}

// SubmitLeads sends a lead batch, opening a duplicate checkpoint when needed.
func (s *Service) SubmitLeads(ctx context.Context, id string, leads []domain.Lead) (*domain.Session, error) {
	return s.step(ctx, id, func(ctx context.Context, cur *domain.Session) (*domain.Session, error) {
		return s.engine.SubmitLeads(ctx, cur, leads)
	})
}

// Resolve answers the pending duplicate checkpoint.
func (s *Service) Resolve(ctx context.Context, id string, r domain.Resolution) (*domain.Session, error) {
	return s.step(ctx, id, func(ctx context.Context, cur *domain.Session) (*domain.Session, error) {
		return s.engine.Resolve(ctx, cur, r)
	})
}

// Launch creates and starts the campaign. On domain.ErrLaunchFailed the session with
// the failure message is persisted and returned along with the error.
func (s *Service) Launch(ctx context.Context, id string) (*domain.Session, error) {
	return s.step(ctx, id, func(ctx context.Context, cur *domain.Session) (*domain.Session, error) {
		return s.engine.Launch(ctx, cur)
	})
}

// Payload returns the campaign payload a launch would send.
func (s *Service) Payload(ctx context.Context, id string) (domain.CampaignPayload, error) {
	cur, err := s.sessions.Load(ctx, id)
	if err != nil {
		return domain.CampaignPayload{}, err
	}
	return s.engine.Payload(cur), nil
}

// Reset cancels any running step of the session, then restores its initial state.
func (s *Service) Reset(ctx context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	if cancel, ok := s.inflight[id]; ok {
		cancel()
	}
	s.mu.Unlock()

	var out *domain.Session
	err := s.sessions.WithLock(ctx, id, func(ctx context.Context) error {
		cur, err := s.store.Load(ctx, id)
		if err != nil {
			return err
		}
		out = s.engine.Reset(cur)
		if err := s.store.Save(ctx, id, out); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		s.notify(ctx, cur, out)
		return nil
	})
	return out, err
}

// step runs fn under the session lock with a cancellable context registered for Reset.
// A step whose context was cancelled is never persisted.
func (s *Service) step(ctx context.Context, id string, fn func(context.Context, *domain.Session) (*domain.Session, error)) (*domain.Session, error) {
	var out *domain.Session
	var stepErr error
	err := s.sessions.TryWithLock(ctx, id, func(ctx context.Context) error {
		cur, err := s.store.Load(ctx, id)
		if err != nil {
			return err
		}

		stepCtx, cancel := context.WithCancel(ctx)
		s.mu.Lock()
		s.inflight[id] = cancel
		s.mu.Unlock()
		defer func() {
			s.mu.Lock()
			delete(s.inflight, id)
			s.mu.Unlock()
			cancel()
		}()

		next, err := fn(stepCtx, cur)
		if next == nil {
			return err
		}
		if ctxErr := stepCtx.Err(); ctxErr != nil {
			return fmt.Errorf("step cancelled: %w", ctxErr)
		}
		stepErr = err
		if next == cur {
			out = cur
			return nil
		}
		if err := s.store.Save(ctx, id, next); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		s.notify(ctx, cur, next)
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, stepErr
}

func (s *Service) notify(ctx context.Context, before, after *domain.Session) {
	for _, o := range s.observers {
		o(ctx, before, after)
	}
}
