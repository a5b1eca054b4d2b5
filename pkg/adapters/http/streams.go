package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/techiemaya-admin/lad-onboarding/internal/logging"
	"github.com/techiemaya-admin/lad-onboarding/pkg/domain"
)

// StreamManager fans session diffs out to SSE subscribers.
type StreamManager struct {
	logger *slog.Logger

	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
}

// NewStreamManager creates an empty manager. A nil logger discards output.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		logger:      logger,
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

// Subscribe registers a buffered channel for sessionID. The returned func unsubscribes
// and closes the channel.
func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[sessionID]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(sm.subscribers, sessionID)
				}
			}
			close(ch)
		})
	}
}

// Subscribers returns the number of open streams of sessionID.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

// Broadcast sends msg to every subscriber of sessionID. Slow clients lose messages
// rather than block the step that produced them.
func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: Client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// Observe broadcasts the diff between two snapshots of a session. Its signature matches
// onboarding.SessionObserver.
func (sm *StreamManager) Observe(_ context.Context, before, after *domain.Session) {
	diff := domain.Diff(before, after)
	if diff == nil {
		return
	}
	bytes, err := json.Marshal(diff)
	if err != nil {
		sm.logger.Error("Failed to encode session diff", "err", err, "session_id", diff.SessionID)
		return
	}
	sm.Broadcast(diff.SessionID, string(bytes))
}

// diffMatches reports whether msg touches one of the watched fields. An empty watch
// list or an undecodable message always matches.
func diffMatches(msg string, watch []string) bool {
	if len(watch) == 0 {
		return true
	}
	var diff domain.SessionDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	return slices.ContainsFunc(watch, func(field string) bool {
		switch strings.TrimSpace(field) {
		case "state":
			return diff.State != nil
		case "answers":
			return len(diff.Answers) > 0
		case "turns":
			return len(diff.Turns) > 0
		case "workflow":
			return diff.Workflow != nil
		case "platforms":
			return len(diff.Platforms) > 0
		}
		return false
	})
}
