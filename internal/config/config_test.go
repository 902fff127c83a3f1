package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "Africa/Cairo", cfg.Browser.TimezoneID)
	assert.Equal(t, 2, cfg.Jobs.Workers)
	assert.Equal(t, 90*24*time.Hour, cfg.Retention.Window)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SCRAPE_WORKERS", "4")
	t.Setenv("BROWSER_HEADLESS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 4, cfg.Jobs.Workers)
	assert.False(t, cfg.Browser.Headless)
}

func TestValidate(t *testing.T) {
	t.Run("delay bounds", func(t *testing.T) {
		t.Setenv("SCRAPER_DELAY_MIN", "5s")
		t.Setenv("SCRAPER_DELAY_MAX", "1s")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("worker floor", func(t *testing.T) {
		t.Setenv("SCRAPE_WORKERS", "0")
		_, err := Load()
		assert.Error(t, err)
	})
}
