package commands

import (
	"sync"
	"time"
)

// cooldownTracker enforces per-user, per-command fixed windows. A rejected
// attempt does not extend the window: once the original window elapses the
// user may invoke again regardless of how often they retried.
type cooldownTracker struct {
	mu      sync.Mutex
	windows map[string]time.Time
	now     func() time.Time
}

func newCooldownTracker() *cooldownTracker {
	return &cooldownTracker{
		windows: make(map[string]time.Time),
		now:     time.Now,
	}
}

// check reports whether the user may run the command now. On success the
// window is opened; on rejection it returns the remaining wait.
func (t *cooldownTracker) check(commandName, userID string, window time.Duration) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := commandName + "\x00" + userID
	now := t.now()

	if started, ok := t.windows[key]; ok {
		if remaining := window - now.Sub(started); remaining > 0 {
			return remaining, false
		}
	}

	t.windows[key] = now
	return 0, true
}

// prune drops expired windows so the map does not grow with every user the
// bot has ever seen
func (t *cooldownTracker) prune(maxWindow time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-maxWindow)
	for key, started := range t.windows {
		if started.Before(cutoff) {
			delete(t.windows, key)
		}
	}
}
