// Package runtime implements the onboarding flow controller.
//
// The Engine is a state machine over domain.Session. Each reply is classified, handled
// by the handler of the current state and followed by a regeneration of the preview
// graph. Handlers run on a snapshot, so a failed step is rolled back to the previous
// session plus a fallback message. Replies the controller cannot interpret are
// delegated to a ports.Generator.
package runtime
