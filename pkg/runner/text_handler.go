package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
)

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Reader    *bufio.Reader
	Writer    io.Writer
	Renderer  ContentRenderer
	Formatter OptionFormatter

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithTextHandlerFormatter configures how option lists are printed.
func WithTextHandlerFormatter(f OptionFormatter) TextHandlerOption {
	return func(h *TextHandler) {
		h.Formatter = f
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader:    bufio.NewReader(r),
		Writer:    w,
		Formatter: plainOptions,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// initPump starts the background reader once, so that Input can honor cancellation
// while a read is blocked.
func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err == io.EOF {
				close(h.inputChan)
				return
			}
			h.inputChan <- inputResult{err: err}
			// Backoff for non-fatal errors to prevent CPU spikes on persistent failure
			time.Sleep(50 * time.Millisecond)
		}
	}
}

func (h *TextHandler) Output(_ context.Context, turns []domain.Turn) error {
	for _, turn := range turns {
		if turn.Role != domain.RoleAssistant {
			continue
		}
		output := turn.Text
		if h.Renderer != nil {
			if rendered, err := h.Renderer(turn.Text); err == nil {
				output = rendered
			}
		}
		fmt.Fprintln(h.Writer, strings.TrimSpace(output))
		if turn.HasOptions() && h.Formatter != nil {
			fmt.Fprint(h.Writer, h.Formatter(turn.Hints.Options))
		}
	}
	return nil
}

func (h *TextHandler) Input(ctx context.Context) (any, error) {
	h.initPump()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(h.Writer, "> ")
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := SanitizeInput(strings.TrimSpace(res.text))
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return clean, nil
		}
	}
}

func (h *TextHandler) SystemOutput(_ context.Context, msg string) error {
	fmt.Fprintf(h.Writer, "[System] %s\n", msg)
	return nil
}

func plainOptions(set *domain.OptionSet) string {
	var sb strings.Builder
	for i, choice := range set.Choices {
		fmt.Fprintf(&sb, "%2d. %s\n", i+1, choice)
	}
	return sb.String()
}
