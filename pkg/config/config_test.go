package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	Reset()
	t.Cleanup(func() {
		viper.Reset()
		Reset()
	})
}

func TestLoad(t *testing.T) {
	t.Run("should unmarshal the viper state", func(t *testing.T) {
		resetViper(t)
		viper.Set("backend.url", "http://backend:8000")
		viper.Set("backend.timeout", "90s")
		viper.Set("owner", "user-1")
		viper.Set("history.limit", 10)

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, "http://backend:8000", cfg.Backend.URL)
		assert.Equal(t, 90*time.Second, cfg.Backend.Timeout)
		assert.Equal(t, "user-1", cfg.Owner)
		assert.Equal(t, 10, cfg.History.Limit)
	})

	t.Run("should default the timeout when unset", func(t *testing.T) {
		resetViper(t)

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, 180*time.Second, cfg.Backend.Timeout)
	})

	t.Run("should default the timeout on bad durations", func(t *testing.T) {
		resetViper(t)
		viper.Set("backend.timeout", "soon")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, 180*time.Second, cfg.Backend.Timeout)
	})

	t.Run("should reject non-positive timeouts", func(t *testing.T) {
		resetViper(t)
		viper.Set("backend.timeout", "-5s")

		cfg, err := Load()

		require.NoError(t, err)
		assert.Equal(t, 180*time.Second, cfg.Backend.Timeout)
	})
}

func TestGet(t *testing.T) {
	t.Run("should cache the loaded configuration", func(t *testing.T) {
		resetViper(t)
		viper.Set("owner", "user-1")

		first := Get()
		viper.Set("owner", "user-2")
		second := Get()

		assert.Equal(t, "user-1", first.Owner)
		assert.Same(t, first, second)
	})

	t.Run("should reload after Reset", func(t *testing.T) {
		resetViper(t)
		viper.Set("owner", "user-1")
		Get()

		viper.Set("owner", "user-2")
		Reset()

		assert.Equal(t, "user-2", Get().Owner)
	})
}

func TestBuildSettingsPath(t *testing.T) {
	t.Run("should use the default settings directory", func(t *testing.T) {
		resetViper(t)

		assert.Equal(t, filepath.Join(".smarttender", "settings.yaml"), BuildSettingsPath("settings.yaml"))
	})

	t.Run("should honor an overridden settings directory", func(t *testing.T) {
		resetViper(t)
		viper.Set("settings_dir", "/etc/smarttender")

		assert.Equal(t, filepath.Join("/etc/smarttender", "history.json"), BuildSettingsPath("history.json"))
	})
}
