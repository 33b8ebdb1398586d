// Command harvester runs the brochure harvest pipeline on a cron schedule.
// Each scheduled run reconciles the regulatory feed against the cumulative
// dataset, looks up and downloads new brochure versions, classifies them,
// and appends the results. The process also serves Prometheus metrics and
// Kubernetes-style health probes.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"regharvest/internal/infra/adapter/persistence/postgres"
	"regharvest/internal/infra/classifier"
	"regharvest/internal/infra/db"
	"regharvest/internal/infra/extractor"
	"regharvest/internal/infra/feed"
	"regharvest/internal/infra/fetcher"
	"regharvest/internal/infra/lookup"
	"regharvest/internal/infra/notifier"
	"regharvest/internal/infra/scraper"
	"regharvest/internal/infra/worker"
	"regharvest/internal/observability/logging"
	"regharvest/internal/observability/metrics"
	"regharvest/internal/pkg/config"
	"regharvest/internal/repository"
	"regharvest/internal/resilience/circuitbreaker"
	"regharvest/internal/resilience/retry"
	"regharvest/internal/usecase/harvest"
)

const (
	defaultFeedURL        = "https://reports.adviserinfo.sec.gov/reports/CompilationReports/IA_FIRM_SEC_Feed.xml"
	defaultLookupBaseURL  = "https://api.adviserinfo.sec.gov/search/firm"
	defaultScrapeBaseURL  = "https://adviserinfo.sec.gov/firm/brochure"
	watcherRequestTimeout = 30 * time.Second
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	props, err := config.LoadPropertiesFromEnv()
	if err != nil {
		logger.Error("Failed to load properties file", slog.String("error", err.Error()))
		os.Exit(1)
	}
	source := config.NewSource(props)

	workerMetrics := worker.NewWorkerMetrics()
	workerCfg := worker.LoadConfig(source, logger, workerMetrics)

	svc, pool, ledger, err := buildService(logger, source)
	if err != nil {
		logger.Error("Failed to build harvest service", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startMetricsServer(ctx, logger)

	healthServer := worker.NewHealthServer(fmt.Sprintf(":%d", workerCfg.HealthPort), logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Health server failed", slog.String("error", err.Error()))
		}
	}()

	gate := buildSnapshotGate(logger, source)

	job := &harvestJob{
		logger:  logger,
		service: svc,
		ledger:  ledger,
		pool:    pool,
		cfg:     workerCfg,
		metrics: workerMetrics,
		gate:    gate,
	}

	if workerCfg.RunOnce {
		logger.Info("Running in one-shot mode")
		healthServer.SetReady(true)
		job.run(ctx, true)
		return
	}

	runScheduled(ctx, logger, workerCfg, job, healthServer)
}

// buildService wires the harvest pipeline from the environment. The returned
// pool and ledger are nil when DATABASE_URL is unset.
func buildService(logger *slog.Logger, source *config.Source) (*harvest.Service, *sql.DB, repository.RunRepository, error) {
	feedFetchCfg, err := fetcher.LoadConfig(source, "FEED")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("feed fetch config: %w", err)
	}
	lookupFetchCfg, err := fetcher.LoadConfig(source, "LOOKUP")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("lookup fetch config: %w", err)
	}
	downloadFetchCfg, err := fetcher.LoadConfig(source, "DOWNLOAD")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("download fetch config: %w", err)
	}

	feedFetch := fetcher.NewClient(feedFetchCfg, retry.FeedFetchConfig(),
		circuitbreaker.New(circuitbreaker.LookupConfig()))
	lookupFetch := fetcher.NewClient(lookupFetchCfg, retry.LookupConfig(),
		circuitbreaker.New(circuitbreaker.LookupConfig()))
	downloadFetch := fetcher.NewClient(downloadFetchCfg, retry.DownloadConfig(),
		circuitbreaker.New(circuitbreaker.DownloadConfig()))

	feedSource := feed.NewSource(feedFetch, source.String("FEED_URL", defaultFeedURL))

	lookupClient := lookup.NewClient(lookupFetch, source.String("LOOKUP_BASE_URL", defaultLookupBaseURL))
	brochureScraper := scraper.NewBrochureScraper(lookupFetch, source.String("DISCLOSURE_BASE_URL", defaultScrapeBaseURL))
	brochures := lookup.NewWithFallback(lookupClient, brochureScraper)

	harvestCfg := loadHarvestConfig(logger, source)
	feedSource.SpoolDir = harvestCfg.WorkDir
	svc := harvest.NewService(feedSource, brochures, downloadFetch, harvestCfg)
	svc.Extractor = extractor.NewHTMLExtractor()
	svc.Classifier = classifier.FromEnv()
	svc.Notifier = notifier.FromEnv()

	pool, err := db.OpenIfConfigured()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("run ledger: %w", err)
	}
	var ledger repository.RunRepository
	if pool != nil {
		if err := db.MigrateUp(pool); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("run ledger migration: %w", err)
		}
		ledger = postgres.NewRunRepo(pool)
		svc.Recorder = &ledgerRecorder{repo: ledger}
	}

	return svc, pool, ledger, nil
}

// loadHarvestConfig reads the run-level pipeline knobs, layered over the
// compiled defaults.
func loadHarvestConfig(logger *slog.Logger, source *config.Source) harvest.Config {
	cfg := harvest.DefaultConfig()

	cfg.WorkDir = source.String("HARVEST_WORK_DIR", cfg.WorkDir)
	cfg.CumulativePath = source.String("CUMULATIVE_PATH", cfg.CumulativePath)
	cfg.DownloadURLTemplate = source.String("DOWNLOAD_URL_TEMPLATE", cfg.DownloadURLTemplate)

	maxItems := source.Int("MAX_ITEMS", cfg.MaxItems, func(v int) error {
		return config.ValidateIntRange(v, 0, 10_000_000)
	})
	logWarnings(logger, maxItems.Warnings)
	cfg.MaxItems = maxItems.Value.(int)

	parallelism := source.Int("PARALLELISM", cfg.Parallelism, func(v int) error {
		return config.ValidateIntRange(v, 1, 64)
	})
	logWarnings(logger, parallelism.Warnings)
	cfg.Parallelism = parallelism.Value.(int)

	threshold := source.Int("LOCAL_IO_FAILURE_THRESHOLD", int(cfg.LocalIOFailureThreshold), func(v int) error {
		return config.ValidateIntRange(v, 1, 1000)
	})
	logWarnings(logger, threshold.Warnings)
	cfg.LocalIOFailureThreshold = uint32(threshold.Value.(int))

	return cfg
}

func logWarnings(logger *slog.Logger, warnings []string) {
	for _, w := range warnings {
		logger.Warn("Configuration fallback", slog.String("warning", w))
	}
}

// buildSnapshotGate wires the feed notification watcher when
// FEED_NOTICE_RSS_URL is set. Without it every scheduled run proceeds
// unconditionally.
func buildSnapshotGate(logger *slog.Logger, source *config.Source) *snapshotGate {
	rssURL := source.String("FEED_NOTICE_RSS_URL", "")
	if rssURL == "" {
		return nil
	}
	watcher := feed.NewWatcher(&http.Client{Timeout: watcherRequestTimeout},
		fetcher.DefaultConfig().UserAgent)
	logger.Info("Feed notification watcher enabled", slog.String("rss_url", rssURL))
	return &snapshotGate{watcher: watcher, rssURL: rssURL}
}

// snapshotGate skips scheduled runs until the notification feed announces a
// snapshot newer than the last one successfully harvested. lastSeen only
// advances after a successful run so a failed run is retried on the next
// tick. Used from the cron goroutine only.
type snapshotGate struct {
	watcher  *feed.Watcher
	rssURL   string
	lastSeen time.Time
	pending  time.Time
}

// shouldRun reports whether a newer snapshot is available. Watcher errors
// fail open: a broken notification feed must not stall the pipeline.
func (g *snapshotGate) shouldRun(ctx context.Context, logger *slog.Logger) bool {
	changed, newest, err := g.watcher.SnapshotChanged(ctx, g.rssURL, g.lastSeen)
	if err != nil {
		logger.Warn("Snapshot check failed, running anyway", slog.String("error", err.Error()))
		g.pending = g.lastSeen
		return true
	}
	g.pending = newest
	return changed
}

// commit advances the watermark after a successful run.
func (g *snapshotGate) commit() {
	if g.pending.After(g.lastSeen) {
		g.lastSeen = g.pending
	}
}

// harvestJob bundles everything one scheduled run needs.
type harvestJob struct {
	logger  *slog.Logger
	service *harvest.Service
	ledger  repository.RunRepository
	pool    *sql.DB
	cfg     *worker.Config
	metrics *worker.WorkerMetrics
	gate    *snapshotGate
}

// run executes one harvest run under the configured timeout. force bypasses
// the snapshot gate; one-shot invocations always run.
func (j *harvestJob) run(ctx context.Context, force bool) {
	if j.gate != nil && !force {
		if !j.gate.shouldRun(ctx, j.logger) {
			j.logger.Info("No new feed snapshot announced, skipping run")
			return
		}
	}

	start := time.Now()
	j.logger.Info("Starting harvest run")

	runCtx, cancel := context.WithTimeout(ctx, j.cfg.RunTimeout)
	defer cancel()

	summary, err := j.service.Run(runCtx)
	elapsed := time.Since(start)
	j.metrics.RecordJobDuration(elapsed.Seconds())

	if err != nil {
		j.metrics.RecordJobRun("failure")
		j.logger.Error("Harvest run failed",
			slog.String("run_id", summary.RunID),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()))
	} else {
		j.metrics.RecordJobRun("success")
		j.metrics.RecordFilersProcessed(summary.FilersTotal)
		j.metrics.RecordLastSuccess()
		if j.gate != nil {
			j.gate.commit()
		}
		j.logger.Info("Harvest run completed",
			slog.String("run_id", summary.RunID),
			slog.Duration("elapsed", elapsed),
			slog.Int64("filers_total", summary.FilersTotal),
			slog.Int64("downloads", summary.Downloads),
			slog.Int64("merged", summary.Merged))
	}

	j.refreshLedgerMetrics(ctx)
}

// refreshLedgerMetrics republishes pool stats and the recent-run service
// objective gauges after each run.
func (j *harvestJob) refreshLedgerMetrics(ctx context.Context) {
	if j.pool == nil {
		return
	}
	stats := j.pool.Stats()
	metrics.UpdateDBConnectionStats(stats.InUse, stats.Idle)

	if j.ledger == nil {
		return
	}
	records, err := j.ledger.ListRecent(ctx, worker.ObjectiveWindow)
	if err != nil {
		j.logger.Warn("Failed to load recent runs for objectives", slog.String("error", err.Error()))
		return
	}
	worker.UpdateObjectives(records)
}

// runScheduled starts the cron worker and blocks until the context is
// cancelled, then drains the running job.
func runScheduled(ctx context.Context, logger *slog.Logger, cfg *worker.Config, job *harvestJob, health *worker.HealthServer) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("Invalid timezone", slog.String("timezone", cfg.Timezone), slog.String("error", err.Error()))
		os.Exit(1)
	}

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(cfg.CronSchedule, func() { job.run(ctx, false) }); err != nil {
		logger.Error("Failed to register cron schedule",
			slog.String("schedule", cfg.CronSchedule),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	c.Start()
	health.SetReady(true)
	logger.Info("Harvest worker started",
		slog.String("schedule", cfg.CronSchedule),
		slog.String("timezone", cfg.Timezone))

	<-ctx.Done()
	health.SetReady(false)
	logger.Info("Shutting down harvest worker")
	<-c.Stop().Done()
}
