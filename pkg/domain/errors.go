package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionBusy is returned when input arrives while the session is still processing a step.
var ErrSessionBusy = errors.New("session is busy")

// ErrUnknownAction is returned when a platform or action is not part of the catalog.
var ErrUnknownAction = errors.New("unknown action")

// ErrUnknownPlatform is returned when a platform is not part of the catalog.
var ErrUnknownPlatform = errors.New("unknown platform")

// ErrCheckpointResolved is returned when a duplicate-lead checkpoint was already resolved.
var ErrCheckpointResolved = errors.New("duplicate checkpoint already resolved")

// ErrNoCheckpoint is returned when a resolution arrives but no checkpoint is pending.
var ErrNoCheckpoint = errors.New("no duplicate checkpoint pending")

// ErrNotConfigured is returned when an operation needs a collaborator that was not provided.
var ErrNotConfigured = errors.New("collaborator not configured")

// ErrInvalidGraph is returned when a workflow violates the single-path invariant.
var ErrInvalidGraph = errors.New("invalid workflow graph")

// ErrEmptyInput is returned when a reply carries no usable text.
var ErrEmptyInput = errors.New("empty input")

// ErrCheckpointPending is returned when a new lead batch arrives before the pending
// duplicate checkpoint was resolved.
var ErrCheckpointPending = errors.New("duplicate checkpoint pending")

// ErrInvalidResolution is returned when a resolution does not apply to the checkpoint step.
var ErrInvalidResolution = errors.New("invalid duplicate resolution")

// ErrNotComplete is returned when launching a session whose configuration is unfinished.
var ErrNotComplete = errors.New("onboarding is not complete")

// ErrLaunchFailed is returned when campaign creation or start fails after configuration.
var ErrLaunchFailed = errors.New("campaign launch failed")
