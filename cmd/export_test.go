package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/naka-gawa/github-devlog/internal/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExportCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "export"}
	addExportFlags(c)
	require.NoError(t, c.ParseFlags(args))
	return c
}

func envConfig() *config.Config {
	return &config.Config{
		Token:        "token",
		Owner:        "from-env",
		OutputPath:   "env.csv",
		Timezone:     "Asia/Tokyo",
		ExcludedRepo: "env-excluded",
	}
}

func TestApplyFlags(t *testing.T) {
	t.Run("unset flags keep environment values", func(t *testing.T) {
		cfg := envConfig()
		require.NoError(t, applyFlags(newTestExportCmd(t), cfg))

		assert.Equal(t, "from-env", cfg.Owner)
		assert.Equal(t, "env.csv", cfg.OutputPath)
		assert.Equal(t, "Asia/Tokyo", cfg.Timezone)
		assert.Equal(t, "env-excluded", cfg.ExcludedRepo)
		assert.True(t, cfg.InterruptibleWait)
		assert.Zero(t, cfg.SecondaryRateLimitWait)
	})

	t.Run("explicit flags win", func(t *testing.T) {
		cfg := envConfig()
		c := newTestExportCmd(t,
			"--since", "2023-01-01",
			"--user", "octocat",
			"--output", "out.csv",
			"--timezone", "UTC",
			"--exclude", "dotfiles",
			"--interruptible-wait=false",
			"--secondary-wait", "30s",
			"--api-url", "https://ghe.example.com/api/v3",
		)
		require.NoError(t, applyFlags(c, cfg))

		assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), cfg.Since)
		assert.Equal(t, "octocat", cfg.Owner)
		assert.Equal(t, "out.csv", cfg.OutputPath)
		assert.Equal(t, "UTC", cfg.Timezone)
		assert.Equal(t, "dotfiles", cfg.ExcludedRepo)
		assert.False(t, cfg.InterruptibleWait)
		assert.Equal(t, 30*time.Second, cfg.SecondaryRateLimitWait)
		assert.Equal(t, "https://ghe.example.com/api/v3", cfg.APIURL)
	})

	t.Run("bad since date", func(t *testing.T) {
		err := applyFlags(newTestExportCmd(t, "--since", "01/02/2023"), envConfig())
		assert.Error(t, err)
	})
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, false)
	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	debugLogger := newLogger(&buf, true)
	debugLogger.Debug().Msg("debug line")
	assert.Contains(t, buf.String(), "debug line")
}

type stubResolver struct {
	login string
	err   error
	calls int
}

func (s *stubResolver) ResolveViewer(ctx context.Context) (string, error) {
	s.calls++
	return s.login, s.err
}

func TestResolveOwner(t *testing.T) {
	t.Run("configured user skips the lookup", func(t *testing.T) {
		resolver := &stubResolver{err: errors.New("offline")}
		cfg := envConfig()
		require.NoError(t, resolveOwner(context.Background(), resolver, cfg))
		assert.Equal(t, "from-env", cfg.Owner)
		assert.Zero(t, resolver.calls)
	})

	t.Run("missing user is resolved from the token", func(t *testing.T) {
		resolver := &stubResolver{login: "octocat"}
		cfg := envConfig()
		cfg.Owner = ""
		require.NoError(t, resolveOwner(context.Background(), resolver, cfg))
		assert.Equal(t, "octocat", cfg.Owner)
		assert.Equal(t, 1, resolver.calls)
	})

	t.Run("failed lookup asks for --user", func(t *testing.T) {
		resolver := &stubResolver{err: errors.New("bad credentials")}
		cfg := envConfig()
		cfg.Owner = ""
		err := resolveOwner(context.Background(), resolver, cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--user")
		assert.Contains(t, err.Error(), config.UsernameEnv)
		assert.Empty(t, cfg.Owner)
	})
}
