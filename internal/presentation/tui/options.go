package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/muesli/termenv"

	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
)

// FormatOptions renders a clickable option set as a numbered list. Multi-select
// choices show a checkbox, checked when prechecked.
func FormatOptions(set *domain.OptionSet) string {
	if set == nil || len(set.Choices) == 0 {
		return ""
	}
	p := termenv.ColorProfile()
	var sb strings.Builder
	for i, choice := range set.Choices {
		num := termenv.String(fmt.Sprintf("%2d.", i+1)).Foreground(p.Color("#a78bfa"))
		switch set.Kind {
		case domain.OptionMultiSelect:
			box := "[ ]"
			if slices.Contains(set.Prechecked, choice) {
				box = "[x]"
			}
			fmt.Fprintf(&sb, "%s %s %s\n", num, box, choice)
		default:
			fmt.Fprintf(&sb, "%s %s\n", num, choice)
		}
	}
	if set.Kind == domain.OptionMultiSelect {
		sb.WriteString(termenv.String("Pick several with commas, e.g. 1,3").Faint().String())
		sb.WriteString("\n")
	}
	return sb.String()
}
