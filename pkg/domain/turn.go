package domain

import (
	"slices"
	"time"
)

// Role identifies the author of a turn.
type Role string

const (
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

// Status is the readiness tag carried by a turn.
type Status string

const (
	StatusNeedsInput Status = "needs_input"
	StatusReady      Status = "ready"
)

// OptionKind defines how a set of choices is presented.
type OptionKind string

const (
	OptionSingleSelect OptionKind = "single_select"
	OptionMultiSelect  OptionKind = "multi_select"
	OptionDelay        OptionKind = "delay"
	OptionCondition    OptionKind = "condition"
)

// OptionSet is a list of presentable choices attached to an assistant turn.
type OptionSet struct {
	Kind       OptionKind `json:"kind"`
	Choices    []string   `json:"choices"`
	Prechecked []string   `json:"prechecked,omitempty"`
}

// Clone returns a deep copy of the option set.
func (o *OptionSet) Clone() *OptionSet {
	if o == nil {
		return nil
	}
	return &OptionSet{
		Kind:       o.Kind,
		Choices:    slices.Clone(o.Choices),
		Prechecked: slices.Clone(o.Prechecked),
	}
}

// Hints carries structured data alongside the text of a turn.
// Signals that would otherwise live in ambient flags ("last message was a platform-action
// prompt", "has active options") are explicit fields here.
type Hints struct {
	Options              *OptionSet       `json:"options,omitempty"`
	Status               Status           `json:"status,omitempty"`
	Missing              []string         `json:"missing,omitempty"`
	Workflow             *Workflow        `json:"workflow,omitempty"`
	SearchResults        []map[string]any `json:"search_results,omitempty"`
	QuestionKey          string           `json:"question_key,omitempty"`
	PlatformActionPrompt bool             `json:"platform_action_prompt,omitempty"`
}

// Turn is one message in the conversation. Turns are never mutated after creation.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Hints     *Hints    `json:"hints,omitempty"`
}

// HasOptions reports whether the turn presents a choice list.
func (t Turn) HasOptions() bool {
	return t.Hints != nil && t.Hints.Options != nil && len(t.Hints.Options.Choices) > 0
}
