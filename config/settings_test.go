package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	settings, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://www.imdb.com/chart/moviemeter", settings.IMDBURL)
	assert.Equal(t, 50, settings.MovieLimit)
	assert.Equal(t, 7, settings.RunIntervalDays)
	assert.True(t, settings.Is4KRequest)
	assert.False(t, settings.Verbose())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("JELLYSEERR_URL", "http://seerr.local:5055/")
	t.Setenv("JELLYSEERR_EMAIL", "admin@example.com")
	t.Setenv("JELLYSEERR_PASSWORD", "hunter2")
	t.Setenv("MOVIE_LIMIT", "10")
	t.Setenv("RUN_INTERVAL_DAYS", "1")
	t.Setenv("DEBUG_MODE", "verbose")
	t.Setenv("IS_4K_REQUEST", "false")

	settings, err := Load()
	require.NoError(t, err)

	// Trailing slash is trimmed so URL joins stay clean
	assert.Equal(t, "http://seerr.local:5055", settings.JellyseerrURL)
	assert.Equal(t, "admin@example.com", settings.JellyseerrEmail)
	assert.Equal(t, "hunter2", settings.JellyseerrPassword)
	assert.Equal(t, 10, settings.MovieLimit)
	assert.Equal(t, 1, settings.RunIntervalDays)
	assert.True(t, settings.Verbose())
	assert.False(t, settings.Is4KRequest)
}

func TestLoadRejectsNonPositiveValues(t *testing.T) {
	t.Setenv("MOVIE_LIMIT", "0")
	t.Setenv("RUN_INTERVAL_DAYS", "-3")

	settings, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 50, settings.MovieLimit)
	assert.Equal(t, 7, settings.RunIntervalDays)
}
