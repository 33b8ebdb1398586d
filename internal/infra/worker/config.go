// Package worker holds the scheduled-runner plumbing of the harvester: the
// worker configuration, the health check server, worker metrics, and the
// service-level objective updater fed from the run ledger.
package worker

import (
	"fmt"
	"log/slog"
	"time"

	"regharvest/internal/pkg/config"
)

// Config controls the scheduled harvester process: when runs fire, how long
// one run may take, and where the health server listens.
//
// Values load through the layered config source (environment > properties
// file > defaults); loading is fail-open, so an invalid value falls back to
// its default with a warning instead of stopping the worker.
type Config struct {
	// CronSchedule is the five-field cron expression for scheduled runs.
	// Default: "30 5 * * *" (every day at 5:30).
	CronSchedule string

	// Timezone is the IANA timezone name the cron schedule is evaluated in.
	// Default: "UTC".
	Timezone string

	// RunOnce runs one harvest immediately and exits instead of scheduling.
	// Used for manual resumption after an interrupted run.
	RunOnce bool

	// RunTimeout bounds one harvest run. Range 1m-4h, default 30 minutes.
	RunTimeout time.Duration

	// HealthPort is the port of the health check HTTP server.
	// Range 1024-65535, default 9091.
	HealthPort int
}

// DefaultConfig returns the compiled-default worker configuration.
func DefaultConfig() Config {
	return Config{
		CronSchedule: "30 5 * * *",
		Timezone:     "UTC",
		RunOnce:      false,
		RunTimeout:   30 * time.Minute,
		HealthPort:   9091,
	}
}

// Validate checks every field and returns the aggregated validation errors.
// LoadConfig already validates field by field; Validate exists for
// configurations built in code.
func (c *Config) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateDuration(c.RunTimeout, 1*time.Minute, 4*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("run timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfig resolves the worker configuration through the layered source.
//
// Keys:
//   - CRON_SCHEDULE: cron expression (default "30 5 * * *")
//   - WORKER_TIMEZONE: IANA timezone name (default "UTC")
//   - RUN_ONCE: run one harvest and exit (default false)
//   - RUN_TIMEOUT: duration string, 1m-4h (default "30m")
//   - WORKER_HEALTH_PORT: integer 1024-65535 (default 9091)
//
// Never returns an invalid configuration: each field that fails validation
// keeps its default, logs a warning, and increments the fallback metrics.
func LoadConfig(source *config.Source, logger *slog.Logger, metrics *WorkerMetrics) *Config {
	cfg := DefaultConfig()
	fallbackApplied := false

	apply := func(field string, result config.ConfigLoadResult, set func(config.ConfigLoadResult)) {
		set(result)
		if !result.FallbackApplied {
			return
		}
		fallbackApplied = true
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field)
		for _, warning := range result.Warnings {
			logger.Warn("configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}

	apply("cron_schedule",
		source.StringWithFallback("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule),
		func(r config.ConfigLoadResult) { cfg.CronSchedule = r.Value.(string) })

	apply("timezone",
		source.StringWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone),
		func(r config.ConfigLoadResult) { cfg.Timezone = r.Value.(string) })

	apply("run_once",
		source.Bool("RUN_ONCE", cfg.RunOnce),
		func(r config.ConfigLoadResult) { cfg.RunOnce = r.Value.(bool) })

	apply("run_timeout",
		source.Duration("RUN_TIMEOUT", cfg.RunTimeout, func(d time.Duration) error {
			return config.ValidateDuration(d, 1*time.Minute, 4*time.Hour)
		}),
		func(r config.ConfigLoadResult) { cfg.RunTimeout = r.Value.(time.Duration) })

	apply("health_port",
		source.Int("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
			return config.ValidateIntRange(v, 1024, 65535)
		}),
		func(r config.ConfigLoadResult) { cfg.HealthPort = r.Value.(int) })

	metrics.SetFallbackActive(fallbackApplied)
	metrics.RecordLoadTimestamp()
	return &cfg
}
