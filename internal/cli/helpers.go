package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/techiemaya-admin/lad-onboarding/internal/logging"
)

// WithInterrupt returns a context cancelled on SIGINT or SIGTERM. interrupted reports
// whether a signal, rather than the parent or stop, ended it.
func WithInterrupt(parent context.Context) (ctx context.Context, interrupted func() bool, stop func()) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	var hit atomic.Bool
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			hit.Store(true)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, hit.Load, cancel
}

// NewLogger configures the application logger. Debug forces the debug level; quiet
// discards everything so JSON and stdio transports keep a clean stdout.
func NewLogger(level slog.Level, debug, quiet bool) *slog.Logger {
	switch {
	case debug:
		return logging.New(slog.LevelDebug)
	case quiet:
		return logging.NewNop()
	}
	return logging.New(level)
}

// PrintSystemMessage prints a standardized system message.
func PrintSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}
