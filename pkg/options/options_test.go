package options_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techiemaya-admin/lad-onboarding/pkg/catalog"
	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
	"github.com/techiemaya-admin/lad-onboarding/pkg/options"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want *domain.OptionSet
	}{
		{
			name: "single select",
			text: "Which path? [OPTIONS: Lead generation | Automation ]",
			want: &domain.OptionSet{Kind: domain.OptionSingleSelect, Choices: []string{"Lead generation", "Automation"}},
		},
		{
			name: "multi select with prechecked",
			text: "Pick actions [MULTI: Visit profile | *Send message | Visit profile]",
			want: &domain.OptionSet{
				Kind:       domain.OptionMultiSelect,
				Choices:    []string{"Visit profile", "Send message"},
				Prechecked: []string{"Send message"},
			},
		},
		{
			name: "delay without choices uses defaults",
			text: "How long should we wait? [DELAY]",
			want: &domain.OptionSet{Kind: domain.OptionDelay, Choices: catalog.Default().DelayChoices()},
		},
		{
			name: "condition",
			text: "[condition: Connection accepted | No condition]",
			want: &domain.OptionSet{Kind: domain.OptionCondition, Choices: []string{"Connection accepted", "No condition"}},
		},
		{
			name: "bullet list",
			text: "Here is what I can do.\nOptions:\n- LinkedIn\n* Email\n3. WhatsApp\n\nAnything else?",
			want: &domain.OptionSet{Kind: domain.OptionSingleSelect, Choices: []string{"LinkedIn", "Email", "WhatsApp"}},
		},
		{
			name: "empty condition is not recoverable",
			text: "[CONDITION: ]",
			want: nil,
		},
		{
			name: "prose",
			text: "Tell me about your ideal customer.",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, options.Parse(tt.text))
		})
	}
}

func TestStrip(t *testing.T) {
	assert.Equal(t, "Which path?", options.Strip("Which path? [OPTIONS: A | B]"))
}

func TestClassify_Precedence(t *testing.T) {
	assert.Equal(t, options.CategoryOptions, options.Classify("Choose a template [OPTIONS: Short | Long]"))
	assert.Equal(t, options.CategoryTemplate, options.Classify("Please write your message template for the first email."))
	assert.Equal(t, options.CategoryProse, options.Classify("Great, let's continue."))
}

type fixedClassifier options.Category

func (f fixedClassifier) Classify(string) options.Category { return options.Category(f) }

func TestClassifier_IsSwappable(t *testing.T) {
	var c options.Classifier = fixedClassifier(options.CategoryTemplate)
	assert.Equal(t, options.CategoryTemplate, c.Classify("anything"))
}

func TestLatest_OnlyMostRecentAssistantTurn(t *testing.T) {
	now := time.Now()
	assistant := domain.Turn{Role: domain.RoleAssistant, Text: "[OPTIONS: A | B]", Timestamp: now}
	user := domain.Turn{Role: domain.RoleUser, Text: "A", Timestamp: now}

	assert.Nil(t, options.Latest(nil))
	assert.Nil(t, options.Latest([]domain.Turn{assistant, user}))

	got := options.Latest([]domain.Turn{assistant})
	require.NotNil(t, got)
	assert.Equal(t, []string{"A", "B"}, got.Choices)

	hinted := domain.Turn{
		Role:  domain.RoleAssistant,
		Text:  "[OPTIONS: X | Y]",
		Hints: &domain.Hints{Options: &domain.OptionSet{Kind: domain.OptionMultiSelect, Choices: []string{"Z"}}},
	}
	got = options.Latest([]domain.Turn{assistant, user, hinted})
	require.NotNil(t, got)
	assert.Equal(t, []string{"Z"}, got.Choices)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, []string{"LinkedIn"}, options.Normalize("  LinkedIn "))
	assert.Equal(t, []string{"a", "b"}, options.Normalize([]string{"a", " b", "a", ""}))
	assert.Equal(t, []string{"a", "25"}, options.Normalize([]any{"a", 25, nil}))
	assert.Equal(t, []string{}, options.Normalize(""))
	assert.Nil(t, options.Normalize(nil))
	assert.Nil(t, options.Normalize(map[string]string{}))
}

func TestParseDelay(t *testing.T) {
	tests := []struct {
		in    string
		unit  string
		value int
		ok    bool
	}{
		{"No delay", "", 0, true},
		{"2 days", options.UnitDays, 2, true},
		{"1 hour", options.UnitHours, 1, true},
		{"3d", options.UnitDays, 3, true},
		{"12h", options.UnitHours, 12, true},
		{"1 week", options.UnitDays, 7, true},
		{"a day", options.UnitDays, 1, true},
		{"soon", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			unit, value, ok := options.ParseDelay(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.unit, unit)
			assert.Equal(t, tt.value, value)
		})
	}
}
