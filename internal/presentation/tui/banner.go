package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the onboarding banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"  _      _   ___  ", "#818cf8"},
		{" | |    /_\\ |   \\ ", "#a78bfa"},
		{" | |__ / _ \\| |) |", "#c084fc"},
		{" |____/_/ \\_\\___/  onboarding", "#e879f9"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
