package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTransition     EventType = "transition"
	EventDelegate       EventType = "delegate"
	EventDelegateReturn EventType = "delegate_return"
	EventWorkflowBuilt  EventType = "workflow_built"
	EventFallback       EventType = "fallback"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// TransitionEvent is emitted after a reply is accepted.
// From and To may be equal when the state is re-entered.
type TransitionEvent struct {
	EventBase
	From FlowState `json:"from"`
	To   FlowState `json:"to"`
}

// DelegateEvent represents a call to the generation service.
type DelegateEvent struct {
	EventBase
	State    FlowState     `json:"state"`
	Duration time.Duration `json:"duration,omitempty"`
	IsError  bool          `json:"is_error,omitempty"`
}

// WorkflowEvent is emitted whenever the preview graph is rebuilt.
type WorkflowEvent struct {
	EventBase
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`
}

// FallbackEvent is emitted when a step failed and was rolled back.
type FallbackEvent struct {
	EventBase
	State FlowState `json:"state"`
	Err   string    `json:"err"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnTransition     func(context.Context, *TransitionEvent)
	OnDelegate       func(context.Context, *DelegateEvent)
	OnDelegateReturn func(context.Context, *DelegateEvent)
	OnWorkflowBuilt  func(context.Context, *WorkflowEvent)
	OnFallback       func(context.Context, *FallbackEvent)
}
