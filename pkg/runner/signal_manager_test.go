package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSignalManager_ResetArmsFreshContext(t *testing.T) {
	sm := NewSignalManager(context.Background())
	defer sm.Stop()

	first := sm.Context()
	sm.Reset()
	assert.Error(t, first.Err(), "the replaced context is released")
	assert.False(t, sm.Interrupted())
}

func TestSignalManager_FollowsParent(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	sm := NewSignalManager(parent)
	defer sm.Stop()

	cancel()
	assert.Eventually(t, sm.Interrupted, time.Second, 5*time.Millisecond)
}

func TestSignalManager_SettleWaitsBriefly(t *testing.T) {
	sm := NewSignalManager(context.Background())
	defer sm.Stop()

	start := time.Now()
	sm.Settle()
	assert.GreaterOrEqual(t, time.Since(start), interruptGrace)
}
