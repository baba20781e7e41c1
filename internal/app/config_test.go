package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("POS_BASE_URL", "")
	t.Setenv("POS_API_TOKEN", "")
	t.Setenv("POS_VENUE_ID", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, "Europe/Copenhagen", cfg.Timezone)
	assert.Equal(t, 3, cfg.POS.Concurrency)
	assert.Equal(t, 2, cfg.POS.MaxChunkDays)
	assert.Equal(t, 5*time.Minute, cfg.POS.CacheTTL)
	assert.Equal(t, 30*time.Second, cfg.KPICacheTTL)
	assert.Equal(t, 1.125, cfg.LaborUpliftFactor)
	assert.Equal(t, "30 4 * * *", cfg.ImportCron)
	assert.False(t, cfg.POS.IsConfigured())
	assert.Contains(t, cfg.POS.Missing(), "POS_API_TOKEN")
}

func TestLoadConfigReadsPrefixedVendorSection(t *testing.T) {
	t.Setenv("POS_BASE_URL", "https://pos.example")
	t.Setenv("POS_API_TOKEN", "secret")
	t.Setenv("POS_VENUE_ID", "42")
	t.Setenv("POS_TIMEOUT", "3s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.POS.IsConfigured())
	client := cfg.POS.Client()
	assert.Equal(t, "https://pos.example", client.BaseURL)
	assert.Equal(t, 3*time.Second, client.Timeout)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"timezone":    {"TIMEZONE", "Mars/Olympus"},
		"rate":        {"RATE_LIMIT_PER_MINUTE", "0"},
		"concurrency": {"POS_CONCURRENCY", "0"},
		"uplift":      {"LABOR_UPLIFT_FACTOR", "0.5"},
		"duration":    {"KPI_CACHE_TTL", "soon"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
