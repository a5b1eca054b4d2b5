package domain

import (
	"reflect"
)

// SessionDiff represents the changes between two session snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type SessionDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	State *FlowState `json:"state,omitempty"`

	// Answers contains only changed, added or deleted keys.
	// For deletions, the key is present with a nil value.
	Answers map[string][]string `json:"answers,omitempty"`

	// Turns contains the turns appended since the old snapshot.
	Turns []Turn `json:"turns,omitempty"`

	// Workflow is the whole graph when it changed.
	Workflow *Workflow `json:"workflow,omitempty"`

	Platforms []string `json:"platforms,omitempty"`
}

// Diff calculates the difference between oldSession and newSession.
// If oldSession is nil, it returns a diff representing the entire newSession (initial load).
func Diff(oldSession, newSession *Session) *SessionDiff {
	if newSession == nil {
		return nil
	}

	diff := &SessionDiff{
		SessionID: newSession.ID,
	}

	if oldSession == nil || oldSession.State != newSession.State {
		diff.State = &newSession.State
	}
	if oldSession == nil || !reflect.DeepEqual(oldSession.Platforms, newSession.Platforms) {
		if len(newSession.Platforms) > 0 {
			diff.Platforms = newSession.Platforms
		}
	}

	diff.Answers = diffAnswers(oldSession, newSession)
	diff.Turns = diffTurns(oldSession, newSession)

	if oldSession == nil {
		if !newSession.Workflow.Empty() {
			wf := newSession.Workflow
			diff.Workflow = &wf
		}
	} else if !reflect.DeepEqual(oldSession.Workflow, newSession.Workflow) {
		wf := newSession.Workflow
		diff.Workflow = &wf
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffAnswers(old *Session, new *Session) map[string][]string {
	delta := make(map[string][]string)

	if old == nil {
		for k, v := range new.Answers {
			delta[k] = v
		}
		if len(delta) == 0 {
			return nil
		}
		return delta
	}

	for k, newVal := range new.Answers {
		oldVal, exists := old.Answers[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}
	for k := range old.Answers {
		if _, exists := new.Answers[k]; !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// diffTurns assumes the append-only invariant of the conversation.
func diffTurns(old *Session, new *Session) []Turn {
	if len(new.Turns) == 0 {
		return nil
	}
	if old == nil {
		return new.Turns
	}
	if len(new.Turns) > len(old.Turns) {
		return new.Turns[len(old.Turns):]
	}
	return nil
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return d.State == nil &&
		len(d.Answers) == 0 &&
		len(d.Turns) == 0 &&
		d.Workflow == nil &&
		d.Platforms == nil
}
