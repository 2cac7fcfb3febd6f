package config

import (
	"testing"
	"time"

	"github.com/naka-gawa/github-devlog/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Token:      "token",
		Owner:      "octocat",
		Since:      domain.DefaultSince,
		Until:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		OutputPath: "out.csv",
		Timezone:   "America/New_York",
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		t.Setenv(TokenEnv, "   ")
		cfg, err := LoadFromEnv()
		assert.Nil(t, cfg)
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("defaults", func(t *testing.T) {
		t.Setenv(TokenEnv, " secret\n")
		t.Setenv(UsernameEnv, "")
		t.Setenv(OutputEnv, "")
		t.Setenv(TimezoneEnv, "")
		t.Setenv(ExcludedRepoEnv, "")

		before := time.Now().UTC()
		cfg, err := LoadFromEnv()
		require.NoError(t, err)

		assert.Equal(t, "secret", cfg.Token)
		assert.Equal(t, DefaultOutput, cfg.OutputPath)
		assert.Equal(t, DefaultTimezone, cfg.Timezone)
		assert.Equal(t, domain.DefaultSince, cfg.Since)
		assert.False(t, cfg.Until.Before(before))
		assert.True(t, cfg.InterruptibleWait)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv(TokenEnv, "secret")
		t.Setenv(UsernameEnv, "octocat")
		t.Setenv(OutputEnv, "log.csv")
		t.Setenv(TimezoneEnv, "Asia/Tokyo")
		t.Setenv(ExcludedRepoEnv, "dotfiles")

		cfg, err := LoadFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "octocat", cfg.Owner)
		assert.Equal(t, "log.csv", cfg.OutputPath)
		assert.Equal(t, "Asia/Tokyo", cfg.Timezone)
		assert.Equal(t, "dotfiles", cfg.ExcludedRepo)
	})
}

func TestConfig_SetSince(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.SetSince(""))
	assert.Equal(t, domain.DefaultSince, cfg.Since)

	require.NoError(t, cfg.SetSince("2023-01-01"))
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), cfg.Since)
	assert.Equal(t, cfg.Since, cfg.Window().Since)
	assert.Equal(t, cfg.Until, cfg.Window().Until)

	err := cfg.SetSince("2023/01/01")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
}

func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		name        string
		mutate      func(c *Config)
		expectedErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing owner", mutate: func(c *Config) { c.Owner = "" }, expectedErr: "Owner"},
		{name: "missing output", mutate: func(c *Config) { c.OutputPath = "" }, expectedErr: "OutputPath"},
		{name: "bad timezone", mutate: func(c *Config) { c.Timezone = "Mars/Olympus" }, expectedErr: "Timezone"},
		{name: "since after until is an empty window", mutate: func(c *Config) { c.Since = c.Until.Add(24 * time.Hour) }},
		{name: "missing until", mutate: func(c *Config) { c.Until = time.Time{} }, expectedErr: "Until"},
		{name: "bad api url", mutate: func(c *Config) { c.APIURL = "not a url" }, expectedErr: "APIURL"},
		{name: "negative secondary wait", mutate: func(c *Config) { c.SecondaryRateLimitWait = -time.Second }, expectedErr: "SecondaryRateLimitWait"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.expectedErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedErr)
		})
	}
}

func TestConfig_Location(t *testing.T) {
	cfg := validConfig()
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())

	cfg.Timezone = "Nowhere/Special"
	_, err = cfg.Location()
	assert.Error(t, err)
}
