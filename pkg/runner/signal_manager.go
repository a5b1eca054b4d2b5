package runner

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// interruptGrace is how long Settle waits for a signal to catch up with a read error.
// Some terminals surface Ctrl+C as a failed read slightly before delivering SIGINT.
const interruptGrace = 100 * time.Millisecond

// SignalManager scopes interrupts to one chat step. A Ctrl+C cancels the current
// context; Reset arms a fresh one so the chat can continue after a cancelled step.
type SignalManager struct {
	parent context.Context
	ctx    context.Context
	stop   context.CancelFunc
}

// NewSignalManager returns an armed manager.
func NewSignalManager(parent context.Context) *SignalManager {
	sm := &SignalManager{parent: parent}
	sm.arm()
	return sm
}

func (sm *SignalManager) arm() {
	sm.ctx, sm.stop = signal.NotifyContext(sm.parent, os.Interrupt, syscall.SIGTERM)
}

// Context is cancelled by the next interrupt or by the parent.
func (sm *SignalManager) Context() context.Context {
	return sm.ctx
}

// Interrupted reports whether the current context has been cancelled.
func (sm *SignalManager) Interrupted() bool {
	return sm.ctx.Err() != nil
}

// Reset discards the current context and arms a new one.
func (sm *SignalManager) Reset() {
	sm.stop()
	sm.arm()
}

// Stop releases the signal registration.
func (sm *SignalManager) Stop() {
	sm.stop()
}

// Settle gives a pending interrupt a short window to cancel the context after a
// read error, so the caller can tell Ctrl+C from a broken pipe.
func (sm *SignalManager) Settle() {
	if sm.Interrupted() {
		return
	}
	t := time.NewTimer(interruptGrace)
	defer t.Stop()
	select {
	case <-sm.ctx.Done():
	case <-t.C:
	}
}
