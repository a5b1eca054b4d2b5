package runtime

import (
	"slices"
	"strings"

	"github.com/techiemaya-admin/lad-onboarding/pkg/catalog"
	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
)

// Intent is the coarse meaning of a free-text reply.
type Intent string

const (
	IntentNone        Intent = ""
	IntentReset       Intent = "reset"
	IntentConfirm     Intent = "confirm"
	IntentAddPlatform Intent = "add_platform"
	IntentLaunch      Intent = "launch"
	IntentPath        Intent = "path"
	IntentPlatform    Intent = "platform"
	IntentRequirement Intent = "requirement"
)

// Classification is the result of Classify. Platforms holds every platform mentioned,
// whatever the intent.
type Classification struct {
	Intent    Intent
	Path      domain.Path
	DataMode  domain.DataMode
	Platforms []string
}

// ConfirmationKeywords end the platform selection. A keyword matches the whole reply
// or its leading words.
var ConfirmationKeywords = []string{
	"continue", "done", "no more", "that's all", "thats all", "that's it", "thats it",
	"finish", "proceed",
}

var (
	resetPhrases  = []string{"start over", "restart", "reset", "begin again", "start again"}
	launchPhrases = []string{"launch campaign", "launch the campaign", "start campaign", "start the campaign", "go live"}
	addPhrases    = []string{"another platform", "another channel", "one more", "more platforms", "also"}
	needPhrases   = []string{"i need", "i want", "we need", "we want", "looking for", "target", "goal", "require"}

	profilingDone = []string{
		"profile complete", "profiling complete", "profile is complete", "done profiling",
		"finish profiling", "that's all", "we're done",
	}
)

type pathRule struct {
	phrases []string
	path    domain.Path
	mode    domain.DataMode
}

// Inbound is checked before lead generation so "inbound leads" is not read as outbound.
var pathRules = []pathRule{
	{[]string{"inbound", "my own leads", "upload leads", "import leads", "i have leads"}, domain.PathLeadGeneration, domain.DataModeInbound},
	{[]string{"lead generation", "lead gen", "generate leads", "find leads", "outbound"}, domain.PathLeadGeneration, domain.DataModeOutbound},
	{[]string{"automation", "automate"}, domain.PathAutomation, domain.DataModeOutbound},
	{[]string{"guided profiling", "profiling", "ideal customer", "profile my"}, domain.PathProfiling, domain.DataModeOutbound},
}

type intentRule struct {
	intent Intent
	match  func(text string, out *Classification) bool
}

// rules are evaluated in order; the first match wins.
var rules = []intentRule{
	{IntentReset, func(t string, _ *Classification) bool { return leading(t, resetPhrases) }},
	{IntentConfirm, func(t string, _ *Classification) bool { return t == "no" || leading(t, ConfirmationKeywords) }},
	{IntentAddPlatform, func(t string, _ *Classification) bool { return hasWord(t, "add") || containsAny(t, addPhrases) }},
	{IntentLaunch, func(t string, _ *Classification) bool { return t == "launch" || containsAny(t, launchPhrases) }},
	{IntentPath, matchPath},
	{IntentPlatform, func(_ string, c *Classification) bool { return len(c.Platforms) > 0 }},
	{IntentRequirement, func(t string, _ *Classification) bool { return containsAny(t, needPhrases) }},
}

// Classify assigns an intent to a reply using a fixed keyword rule table.
func Classify(text string, c *catalog.Catalog) Classification {
	t := normalizeText(text)
	out := Classification{Platforms: c.MatchPlatforms(t)}
	if t == "" {
		return out
	}
	for _, r := range rules {
		if r.match(t, &out) {
			out.Intent = r.intent
			return out
		}
	}
	return out
}

func matchPath(t string, out *Classification) bool {
	for _, r := range pathRules {
		if containsAny(t, r.phrases) {
			out.Path = r.path
			out.DataMode = r.mode
			return true
		}
	}
	return false
}

// profilingComplete reports whether a text says the profiling conversation is over.
func profilingComplete(text string) bool {
	return containsAny(normalizeText(text), profilingDone)
}

func normalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "’", "'")
	s = strings.TrimRight(s, ".!? ")
	return strings.Join(strings.Fields(s), " ")
}

func leading(t string, phrases []string) bool {
	for _, p := range phrases {
		if t == p || strings.HasPrefix(t, p+" ") || strings.HasPrefix(t, p+",") {
			return true
		}
	}
	return false
}

func containsAny(t string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(t, p) {
			return true
		}
	}
	return false
}

func hasWord(t, word string) bool {
	return slices.Contains(strings.FieldsFunc(t, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '!' || r == '?'
	}), word)
}
