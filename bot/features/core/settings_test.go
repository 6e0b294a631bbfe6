package core

import (
	"testing"

	"aoba/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProviderArg(t *testing.T) {
	t.Run("known provider with rest", func(t *testing.T) {
		provider, rest, err := parseProviderArg([]string{"twitch", "shroud", "lirik"})
		require.NoError(t, err)
		assert.Equal(t, models.ProviderTwitch, provider)
		assert.Equal(t, []string{"shroud", "lirik"}, rest)
	})

	t.Run("case insensitive", func(t *testing.T) {
		provider, _, err := parseProviderArg([]string{"YouTube"})
		require.NoError(t, err)
		assert.Equal(t, models.ProviderYouTube, provider)
	})

	t.Run("unknown provider rejected", func(t *testing.T) {
		_, _, err := parseProviderArg([]string{"mixer"})
		assert.Error(t, err)
	})

	t.Run("missing provider rejected", func(t *testing.T) {
		_, _, err := parseProviderArg(nil)
		assert.Error(t, err)
	})
}

func TestParseChannelMention(t *testing.T) {
	t.Run("raw snowflake", func(t *testing.T) {
		id, err := parseChannelMention("123456789012345678")
		require.NoError(t, err)
		assert.Equal(t, int64(123456789012345678), id)
	})

	t.Run("channel mention", func(t *testing.T) {
		id, err := parseChannelMention("<#123456789012345678>")
		require.NoError(t, err)
		assert.Equal(t, int64(123456789012345678), id)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, err := parseChannelMention("general")
		assert.Error(t, err)
	})
}
