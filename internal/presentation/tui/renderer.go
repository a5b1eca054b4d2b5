package tui

import (
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

const defaultWidth = 80

// NewRenderer returns a function that renders markdown using glamour, wrapped to the
// terminal width.
func NewRenderer() func(string) (string, error) {
	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(Width(os.Stdout)),
	)

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// Interactive reports whether f is attached to a terminal.
func Interactive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Width returns the column count of the terminal behind f, or 80 when f is not a
// terminal.
func Width(f *os.File) int {
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}
