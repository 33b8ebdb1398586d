package worker

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"regharvest/internal/pkg/config"
)

// testMetrics is shared across the package tests: worker metrics register
// with the Prometheus default registry and may only be created once per
// process.
var testMetrics = NewWorkerMetrics()

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "30 5 * * *", cfg.CronSchedule)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.False(t, cfg.RunOnce)
	assert.Equal(t, 30*time.Minute, cfg.RunTimeout)
	assert.Equal(t, 9091, cfg.HealthPort)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid defaults",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "bad cron schedule",
			mutate:  func(c *Config) { c.CronSchedule = "not cron" },
			wantErr: "cron schedule",
		},
		{
			name:    "bad timezone",
			mutate:  func(c *Config) { c.Timezone = "Mars/Olympus" },
			wantErr: "timezone",
		},
		{
			name:    "run timeout too short",
			mutate:  func(c *Config) { c.RunTimeout = time.Second },
			wantErr: "run timeout",
		},
		{
			name:    "privileged health port",
			mutate:  func(c *Config) { c.HealthPort = 80 },
			wantErr: "health port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	logger := slog.Default()

	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv("CRON_SCHEDULE", "0 */6 * * *")
		t.Setenv("RUN_ONCE", "true")
		t.Setenv("RUN_TIMEOUT", "1h")

		cfg := LoadConfig(config.NewSource(nil), logger, testMetrics)

		assert.Equal(t, "0 */6 * * *", cfg.CronSchedule)
		assert.True(t, cfg.RunOnce)
		assert.Equal(t, time.Hour, cfg.RunTimeout)
		assert.Equal(t, "UTC", cfg.Timezone)
	})

	t.Run("properties layer fills unset keys", func(t *testing.T) {
		props := config.Properties{
			"WORKER_TIMEZONE":    "America/New_York",
			"WORKER_HEALTH_PORT": "9100",
		}

		cfg := LoadConfig(config.NewSource(props), logger, testMetrics)

		assert.Equal(t, "America/New_York", cfg.Timezone)
		assert.Equal(t, 9100, cfg.HealthPort)
	})

	t.Run("invalid values fall back to defaults", func(t *testing.T) {
		t.Setenv("CRON_SCHEDULE", "99 99 * * *")
		t.Setenv("RUN_TIMEOUT", "10s")
		t.Setenv("WORKER_HEALTH_PORT", "70000")

		cfg := LoadConfig(config.NewSource(nil), logger, testMetrics)

		assert.Equal(t, "30 5 * * *", cfg.CronSchedule)
		assert.Equal(t, 30*time.Minute, cfg.RunTimeout)
		assert.Equal(t, 9091, cfg.HealthPort)
		assert.NoError(t, cfg.Validate())
	})
}
