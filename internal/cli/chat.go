package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/techiemaya-admin/lad-onboarding/internal/presentation/tui"
	"github.com/techiemaya-admin/lad-onboarding/pkg/runner"
)

// ChatOptions configures RunChat.
type ChatOptions struct {
	SessionID string
	JSON      bool
	Logger    *slog.Logger

	// In and Out default to Stdin and Stdout.
	In  io.Reader
	Out io.Writer
}

// RunChat runs an interactive chat against conv. Terminals get the banner, markdown
// rendering and checkbox lists; anything else gets plain text.
func RunChat(ctx context.Context, conv runner.Conversation, opts ChatOptions) error {
	in, out := opts.In, opts.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	var handler runner.IOHandler
	switch {
	case opts.JSON:
		handler = runner.NewJSONHandler(in, out)
	case isTerminal(out):
		tui.PrintBanner(out)
		handler = runner.NewTextHandler(in, out,
			runner.WithTextHandlerRenderer(tui.NewRenderer()),
			runner.WithTextHandlerFormatter(tui.FormatOptions),
		)
	default:
		handler = runner.NewTextHandler(in, out)
	}

	runnerOpts := []runner.Option{runner.WithInputHandler(handler)}
	if opts.Logger != nil {
		runnerOpts = append(runnerOpts, runner.WithLogger(opts.Logger))
	}
	if opts.SessionID != "" {
		runnerOpts = append(runnerOpts, runner.WithSessionID(opts.SessionID))
	}

	r := runner.NewRunner(conv, runnerOpts...)
	err := r.Run(ctx)
	if !opts.JSON && r.SessionID() != "" {
		PrintSystemMessage(out, "Session '%s' saved. Resume with --session %s.", r.SessionID(), r.SessionID())
	}
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && tui.Interactive(f)
}
