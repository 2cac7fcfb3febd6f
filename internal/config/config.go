// Package config loads and validates the settings of an export run.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/naka-gawa/github-devlog/internal/domain"
)

const (
	TokenEnv        = "GITHUB_TOKEN"
	UsernameEnv     = "DEVLOG_USERNAME"
	TimezoneEnv     = "DEVLOG_TIMEZONE"
	ExcludedRepoEnv = "DEVLOG_EXCLUDED_REPO"
	OutputEnv       = "DEVLOG_OUTPUT"

	DefaultTimezone = "America/New_York"
	DefaultOutput   = "devlog-csv.csv"

	sinceLayout = "2006-01-02"
)

// ErrMissingToken is returned when no GitHub token is configured.
var ErrMissingToken = errors.New("GITHUB_TOKEN environment variable is not set")

// Config holds everything an export run needs.
type Config struct {
	Token string    `validate:"required"`
	Owner string    `validate:"required"`
	Since time.Time `validate:"required"`
	// Until may precede Since; the window is then empty and the log gets
	// only its header.
	Until        time.Time `validate:"required"`
	ExcludedRepo string
	OutputPath   string `validate:"required"`
	Timezone     string `validate:"required,timezone"`

	// InterruptibleWait lets a cancelled run end the rate limit wait early.
	InterruptibleWait bool
	// SecondaryRateLimitWait enables the secondary rate limit waiter. Zero disables it.
	SecondaryRateLimitWait time.Duration `validate:"gte=0"`

	APIURL     string `validate:"omitempty,url"`
	GraphQLURL string `validate:"omitempty,url"`
}

// LoadFromEnv reads the token and defaults from the environment.
// Until is captured here, once, and reused for the whole run.
func LoadFromEnv() (*Config, error) {
	token := strings.TrimSpace(os.Getenv(TokenEnv))
	if token == "" {
		return nil, ErrMissingToken
	}
	return &Config{
		Token:             token,
		Owner:             os.Getenv(UsernameEnv),
		Since:             domain.DefaultSince,
		Until:             time.Now().UTC(),
		ExcludedRepo:      os.Getenv(ExcludedRepoEnv),
		OutputPath:        getEnvOrDefault(OutputEnv, DefaultOutput),
		Timezone:          getEnvOrDefault(TimezoneEnv, DefaultTimezone),
		InterruptibleWait: true,
	}, nil
}

// SetSince parses a YYYY-MM-DD start date as UTC midnight. An empty value
// keeps the default.
func (c *Config) SetSince(value string) error {
	if value == "" {
		return nil
	}
	since, err := time.Parse(sinceLayout, value)
	if err != nil {
		return fmt.Errorf("invalid --since date format, please use YYYY-MM-DD: %w", err)
	}
	c.Since = since.UTC()
	return nil
}

// Window returns the run's time window.
func (c *Config) Window() domain.TimeWindow {
	return domain.TimeWindow{Since: c.Since, Until: c.Until}
}

// Location loads the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
