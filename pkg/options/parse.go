package options

import (
	"regexp"
	"strings"
	"sync"

	"github.com/techiemaya-admin/lad-onboarding/pkg/catalog"
	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
)

// defaultDelays are the embedded catalog's delays, offered when a delay prompt carries
// no explicit choices.
var defaultDelays = sync.OnceValue(func() []string {
	return catalog.Default().DelayChoices()
})

var (
	delimited = regexp.MustCompile(`(?is)\[(OPTIONS|MULTI|DELAY|CONDITION)\s*:?\s*([^\]]*)\]`)
	header    = regexp.MustCompile(`(?im)^\s*options\s*:\s*$`)
	bullet    = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+(.+?)\s*$`)
)

var kinds = map[string]domain.OptionKind{
	"OPTIONS":   domain.OptionSingleSelect,
	"MULTI":     domain.OptionMultiSelect,
	"DELAY":     domain.OptionDelay,
	"CONDITION": domain.OptionCondition,
}

// Parse extracts the option list embedded in text. It returns nil when the text holds
// no machine-recoverable list. The first delimited block wins.
func Parse(text string) *domain.OptionSet {
	if m := delimited.FindStringSubmatch(text); m != nil {
		return parseDelimited(kinds[strings.ToUpper(m[1])], m[2])
	}
	return parseBullets(text)
}

func parseDelimited(kind domain.OptionKind, body string) *domain.OptionSet {
	set := &domain.OptionSet{Kind: kind}
	for _, raw := range strings.Split(body, "|") {
		choice := strings.TrimSpace(raw)
		checked := false
		if kind == domain.OptionMultiSelect && strings.HasPrefix(choice, "*") {
			checked = true
			choice = strings.TrimSpace(strings.TrimPrefix(choice, "*"))
		}
		if choice == "" || contains(set.Choices, choice) {
			continue
		}
		set.Choices = append(set.Choices, choice)
		if checked {
			set.Prechecked = append(set.Prechecked, choice)
		}
	}
	if len(set.Choices) == 0 {
		if kind != domain.OptionDelay {
			return nil
		}
		set.Choices = append([]string(nil), defaultDelays()...)
	}
	return set
}

// parseBullets handles an "Options:" line followed by a bullet or numbered list.
func parseBullets(text string) *domain.OptionSet {
	loc := header.FindStringIndex(text)
	if loc == nil {
		return nil
	}
	set := &domain.OptionSet{Kind: domain.OptionSingleSelect}
	started := false
	for _, line := range strings.Split(text[loc[1]:], "\n") {
		if strings.TrimSpace(line) == "" {
			if started {
				break
			}
			continue
		}
		m := bullet.FindStringSubmatch(line)
		if m == nil {
			break
		}
		started = true
		if !contains(set.Choices, m[1]) {
			set.Choices = append(set.Choices, m[1])
		}
	}
	if len(set.Choices) == 0 {
		return nil
	}
	return set
}

// Strip removes delimited option blocks from text so it can be shown as prose.
func Strip(text string) string {
	return strings.TrimSpace(delimited.ReplaceAllString(text, ""))
}

// Latest returns the options of the most recent turn, only if it was written by the
// assistant. A structured hint wins over parsing the text.
func Latest(turns []domain.Turn) *domain.OptionSet {
	if len(turns) == 0 {
		return nil
	}
	last := turns[len(turns)-1]
	if last.Role != domain.RoleAssistant {
		return nil
	}
	if last.HasOptions() {
		return last.Hints.Options.Clone()
	}
	return Parse(last.Text)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
