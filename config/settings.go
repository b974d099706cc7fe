package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Settings represents the application configuration, sourced from environment
// variables. Everything has a default except the Jellyseerr credentials;
// missing credentials surface as an authentication failure at startup rather
// than a config error.
type Settings struct {
	JellyseerrURL      string `mapstructure:"jellyseerr_url"`
	JellyseerrEmail    string `mapstructure:"jellyseerr_email"`
	JellyseerrPassword string `mapstructure:"jellyseerr_password"`
	IMDBURL            string `mapstructure:"imdb_url"`
	MovieLimit         int    `mapstructure:"movie_limit"`
	RunIntervalDays    int    `mapstructure:"run_interval_days"`
	DebugMode          string `mapstructure:"debug_mode"`
	Is4KRequest        bool   `mapstructure:"is_4k_request"`
	LogFile            string `mapstructure:"log_file"`
}

// Verbose reports whether debug-level log lines should be emitted.
func (s *Settings) Verbose() bool {
	return strings.EqualFold(s.DebugMode, "VERBOSE")
}

// Load reads settings from the environment, applying defaults for anything
// unset. Env keys are the uppercased field keys (JELLYSEERR_URL, MOVIE_LIMIT,
// and so on).
func Load() (*Settings, error) {
	v := viper.New()

	v.SetDefault("jellyseerr_url", "http://192.168.0.29:5054")
	v.SetDefault("jellyseerr_email", "")
	v.SetDefault("jellyseerr_password", "")
	v.SetDefault("imdb_url", "https://www.imdb.com/chart/moviemeter")
	v.SetDefault("movie_limit", 50)
	v.SetDefault("run_interval_days", 7)
	v.SetDefault("debug_mode", "SIMPLE")
	v.SetDefault("is_4k_request", true)
	v.SetDefault("log_file", "/logs/imdb_jellyseerr.log")

	v.AutomaticEnv()

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings from environment: %w", err)
	}

	settings.JellyseerrURL = strings.TrimRight(settings.JellyseerrURL, "/")
	if settings.MovieLimit <= 0 {
		settings.MovieLimit = 50
	}
	if settings.RunIntervalDays <= 0 {
		settings.RunIntervalDays = 7
	}

	return settings, nil
}
