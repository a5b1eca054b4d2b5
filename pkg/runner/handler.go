package runner

import (
	"context"

	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents new turns to the user.
	Output(ctx context.Context, turns []domain.Turn) error

	// Input reads one reply. It returns a string or, for structured clients, a
	// []string of selected options.
	Input(ctx context.Context) (any, error)

	// SystemOutput presents a meta-message (status, errors) distinct from the
	// conversation.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms assistant text before it is printed.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// OptionFormatter renders the clickable options of a turn.
type OptionFormatter func(*domain.OptionSet) string
