package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/techiemaya-admin/lad-onboarding/internal/logging"
	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
)

// Conversation is the part of the onboarding Service the runner drives.
type Conversation interface {
	Start(ctx context.Context, id string) (*domain.Session, error)
	Reply(ctx context.Context, id string, input any) (*domain.Session, error)
	Reset(ctx context.Context, id string) (*domain.Session, error)
	Launch(ctx context.Context, id string) (*domain.Session, error)
}

// Chat commands understood besides plain replies.
const (
	CommandExit   = "/exit"
	CommandReset  = "/reset"
	CommandLaunch = "/launch"
)

// Runner handles the chat loop of one session using the provided IO.
type Runner struct {
	conv      Conversation
	handler   IOHandler
	logger    *slog.Logger
	sessionID string
}

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.handler = handler
	}
}

// WithSessionID resumes or creates the given session. Without it a new id is
// generated.
func WithSessionID(id string) Option {
	return func(r *Runner) {
		r.sessionID = id
	}
}

// NewRunner creates a Runner with a text handler on Stdin/Stdout.
func NewRunner(conv Conversation, opts ...Option) *Runner {
	r := &Runner{
		conv:   conv,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.handler == nil {
		r.handler = NewTextHandler(os.Stdin, os.Stdout)
	}
	return r
}

// SessionID returns the id of the running session, available once Run has started it.
func (r *Runner) SessionID() string {
	return r.sessionID
}

// Run starts or resumes the session and loops until the user exits, input ends or ctx
// is cancelled. Ending the chat is not an error.
func (r *Runner) Run(ctx context.Context) error {
	s, err := r.conv.Start(ctx, r.sessionID)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	r.sessionID = s.ID
	r.logger.Info("Chat started", "session_id", s.ID, "state", s.State)

	if err := r.handler.Output(ctx, pendingTurns(s)); err != nil {
		return fmt.Errorf("output error: %w", err)
	}

	signals := NewSignalManager(ctx)
	defer signals.Stop()

	for {
		input, err := r.handler.Input(signals.Context())
		if err != nil {
			signals.Settle()
			if errors.Is(err, io.EOF) || signals.Interrupted() {
				return nil
			}
			if errors.Is(err, ErrInputTooLarge) || errors.Is(err, ErrInvalidUTF8) {
				_ = r.handler.SystemOutput(ctx, err.Error())
				continue
			}
			return fmt.Errorf("input error: %w", err)
		}

		next, err := r.step(signals.Context(), s, input)
		switch {
		case errors.Is(err, errExit):
			return nil
		case errors.Is(err, context.Canceled) && ctx.Err() == nil:
			_ = r.handler.SystemOutput(ctx, "Step cancelled.")
			signals.Reset()
			continue
		case errors.Is(err, domain.ErrEmptyInput):
			continue
		case errors.Is(err, domain.ErrSessionBusy), errors.Is(err, domain.ErrNotComplete),
			errors.Is(err, domain.ErrNotConfigured):
			_ = r.handler.SystemOutput(ctx, err.Error())
			continue
		case err != nil && next == nil:
			return err
		case err != nil:
			r.logger.Warn("Step returned an error", "session_id", s.ID, "err", err)
		}

		if err := r.handler.Output(ctx, newTurns(s, next)); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
		s = next
	}
}

var errExit = errors.New("exit requested")

func (r *Runner) step(ctx context.Context, s *domain.Session, input any) (*domain.Session, error) {
	if text, ok := input.(string); ok {
		switch strings.ToLower(strings.TrimSpace(text)) {
		case CommandExit, "exit", "quit":
			return nil, errExit
		case CommandReset:
			return r.conv.Reset(ctx, s.ID)
		case CommandLaunch:
			return r.conv.Launch(ctx, s.ID)
		}
	}
	var options *domain.OptionSet
	if last := s.LastTurn(); last != nil && last.HasOptions() {
		options = last.Hints.Options
	}
	return r.conv.Reply(ctx, s.ID, ResolveChoice(input, options))
}

// pendingTurns returns the assistant turns after the last user reply, which is what a
// resumed chat needs to show.
func pendingTurns(s *domain.Session) []domain.Turn {
	for i := len(s.Turns) - 1; i >= 0; i-- {
		if s.Turns[i].Role == domain.RoleUser {
			return s.Turns[i+1:]
		}
	}
	return s.Turns
}

func newTurns(before, after *domain.Session) []domain.Turn {
	if len(after.Turns) < len(before.Turns) {
		return pendingTurns(after)
	}
	return after.Turns[len(before.Turns):]
}
