package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailkit/pkg/config"
)

type testConfig struct {
	APIKey  string        `env:"TEST_API_KEY,required"`
	BaseURL string        `env:"TEST_BASE_URL" envDefault:"https://api.resend.com"`
	Timeout time.Duration `env:"TEST_TIMEOUT" envDefault:"10s"`
	Debug   bool          `env:"TEST_DEBUG" envDefault:"false"`
}

// No t.Parallel: these tests mutate process environment via t.Setenv.

func TestLoad(t *testing.T) {
	t.Run("parses environment into struct", func(t *testing.T) {
		t.Setenv("TEST_API_KEY", "re_123")
		t.Setenv("TEST_TIMEOUT", "30s")
		t.Setenv("TEST_DEBUG", "true")

		var cfg testConfig
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "re_123", cfg.APIKey)
		assert.Equal(t, "https://api.resend.com", cfg.BaseURL, "default applies when unset")
		assert.Equal(t, 30*time.Second, cfg.Timeout)
		assert.True(t, cfg.Debug)
	})

	t.Run("fails on missing required variable", func(t *testing.T) {
		var cfg testConfig
		err := config.Load(&cfg)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("rejects nil pointer", func(t *testing.T) {
		var cfg *testConfig
		assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
	})
}

func TestMustLoad(t *testing.T) {
	t.Run("returns populated struct", func(t *testing.T) {
		t.Setenv("TEST_API_KEY", "re_123")

		var cfg testConfig
		assert.NotPanics(t, func() { config.MustLoad(&cfg) })
		assert.Equal(t, "re_123", cfg.APIKey)
	})

	t.Run("panics on failure", func(t *testing.T) {
		var cfg testConfig
		assert.Panics(t, func() { config.MustLoad(&cfg) })
	})
}
