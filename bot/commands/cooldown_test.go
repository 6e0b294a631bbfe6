package commands

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldownTracker(t *testing.T) {
	now := time.Now()
	advance := func(tracker *cooldownTracker, d time.Duration) {
		now = now.Add(d)
		tracker.now = func() time.Time { return now }
	}

	t.Run("window opens on first use", func(t *testing.T) {
		tracker := newCooldownTracker()
		tracker.now = func() time.Time { return now }

		_, ok := tracker.check("ping", "1", 5*time.Second)
		assert.True(t, ok)

		remaining, ok := tracker.check("ping", "1", 5*time.Second)
		assert.False(t, ok)
		assert.Greater(t, remaining, time.Duration(0))
	})

	t.Run("rejection does not extend the window", func(t *testing.T) {
		tracker := newCooldownTracker()
		tracker.now = func() time.Time { return now }

		tracker.check("ping", "1", 5*time.Second)

		// Hammering inside the window must not push the expiry out
		advance(tracker, 4*time.Second)
		_, ok := tracker.check("ping", "1", 5*time.Second)
		assert.False(t, ok)

		advance(tracker, 2*time.Second)
		_, ok = tracker.check("ping", "1", 5*time.Second)
		assert.True(t, ok)
	})

	t.Run("commands cool down independently", func(t *testing.T) {
		tracker := newCooldownTracker()
		tracker.now = func() time.Time { return now }

		_, ok := tracker.check("ping", "1", 5*time.Second)
		assert.True(t, ok)
		_, ok = tracker.check("uptime", "1", 5*time.Second)
		assert.True(t, ok)
	})

	t.Run("prune drops expired windows", func(t *testing.T) {
		tracker := newCooldownTracker()
		tracker.now = func() time.Time { return now }

		tracker.check("ping", "1", 5*time.Second)
		advance(tracker, time.Minute)
		tracker.prune(5 * time.Second)

		tracker.mu.Lock()
		defer tracker.mu.Unlock()
		assert.Empty(t, tracker.windows)
	})
}

