package developer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDurationAndReason(t *testing.T) {
	t.Run("duration then reason", func(t *testing.T) {
		expiresAt, reason := parseDurationAndReason([]string{"24h", "repeated", "spam"})
		require.NotNil(t, expiresAt)
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), *expiresAt, time.Minute)
		assert.Equal(t, "repeated spam", reason)
	})

	t.Run("reason only", func(t *testing.T) {
		expiresAt, reason := parseDurationAndReason([]string{"being", "rude"})
		assert.Nil(t, expiresAt)
		assert.Equal(t, "being rude", reason)
	})

	t.Run("empty", func(t *testing.T) {
		expiresAt, reason := parseDurationAndReason(nil)
		assert.Nil(t, expiresAt)
		assert.Empty(t, reason)
	})

	t.Run("negative duration treated as reason", func(t *testing.T) {
		expiresAt, reason := parseDurationAndReason([]string{"-5m"})
		assert.Nil(t, expiresAt)
		assert.Equal(t, "-5m", reason)
	})
}
