// Package harvest orchestrates one reconciliation run: stream the regulatory
// feed, diff against the baseline snapshot, look up and download brochures
// for the filers that changed, classify the documents, and fold the run's
// output into the cumulative dataset. Runs are resumable: each stage writes
// a durable progress file and a restarted run continues from the first unit
// not yet completed.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"regharvest/internal/domain/entity"
	"regharvest/internal/infra/classifier"
	"regharvest/internal/infra/dataset"
	"regharvest/internal/observability/logging"
	"regharvest/internal/observability/metrics"
	"regharvest/internal/observability/tracing"
	"regharvest/internal/resilience/circuitbreaker"
	"regharvest/internal/usecase/diff"
	"regharvest/internal/usecase/resume"
)

// Stage file names under the run work directory.
const (
	lookupProgressFile   = "lookups.csv"
	brochureMetadataFile = "brochures.csv"
	runOutputFile        = "run_output.csv"
)

// FilerSource streams the current feed into filer records.
type FilerSource interface {
	Filers(ctx context.Context) ([]entity.Filer, error)
}

// BrochureLookup resolves a filer's current brochures via the lookup API.
type BrochureLookup interface {
	Brochures(ctx context.Context, crd string) ([]entity.Brochure, error)
}

// Downloader streams one document to a destination path.
type Downloader interface {
	DownloadFile(ctx context.Context, url, dest string) error
}

// TextExtractor pulls classifiable text out of a downloaded document.
type TextExtractor interface {
	Text(path string) (string, error)
}

// Notifier delivers the end-of-run summary. Optional.
type Notifier interface {
	NotifyRunSummary(ctx context.Context, summary Summary) error
}

// RunRecorder persists the end-of-run summary to the run ledger. Optional.
type RunRecorder interface {
	Record(ctx context.Context, summary Summary) error
}

// Config holds the run-level knobs of the harvest service.
type Config struct {
	// WorkDir holds the per-run stage files (lookup progress, brochure
	// metadata, run output) and the docs/ download directory.
	WorkDir string

	// CumulativePath is the append-only master dataset, also read as the
	// baseline snapshot at run start.
	CumulativePath string

	// DownloadURLTemplate builds a document URL from a brochure version id
	// via fmt.Sprintf.
	DownloadURLTemplate string

	// MaxItems caps the download units attempted in one run. 0 is
	// unlimited.
	MaxItems int

	// Parallelism bounds concurrent downloads. Values below 1 mean the
	// reference sequential flow.
	Parallelism int

	// LocalIOFailureThreshold is the consecutive local I/O failure count
	// that aborts the run early. A systemic local fault such as a full
	// disk should stop the run, not burn retries on every remaining unit.
	LocalIOFailureThreshold uint32
}

// DefaultConfig returns the compiled-default run configuration.
func DefaultConfig() Config {
	return Config{
		WorkDir:                 "harvest",
		CumulativePath:          filepath.Join("harvest", "cumulative.csv"),
		DownloadURLTemplate:     "https://files.adviserinfo.sec.gov/IAPD/Content/Common/crd_iapd_Brochure.aspx?BRCHR_VRSN_ID=%s",
		Parallelism:             1,
		LocalIOFailureThreshold: 10,
	}
}

// Service runs the harvest pipeline end to end.
type Service struct {
	Source     FilerSource
	Lookup     BrochureLookup
	Downloader Downloader
	Extractor  TextExtractor
	Classifier classifier.Classifier
	Notifier   Notifier
	Recorder   RunRecorder

	cfg            Config
	localIOBreaker *circuitbreaker.CircuitBreaker
}

// NewService creates a harvest Service. Extractor, Classifier, Notifier and
// Recorder may be nil to disable the corresponding step.
func NewService(source FilerSource, lookup BrochureLookup, downloader Downloader, cfg Config) *Service {
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}
	if cfg.LocalIOFailureThreshold == 0 {
		cfg.LocalIOFailureThreshold = DefaultConfig().LocalIOFailureThreshold
	}
	return &Service{
		Source:         source,
		Lookup:         lookup,
		Downloader:     downloader,
		cfg:            cfg,
		localIOBreaker: circuitbreaker.New(circuitbreaker.LocalIOConfig(cfg.LocalIOFailureThreshold)),
	}
}

// Run executes one reconciliation run. The returned Summary is populated
// even when err is non-nil. The error reflects whether the run as a whole
// could proceed (feed consumed, stages writable); individual unit failures
// are counted in the summary, not returned.
func (s *Service) Run(ctx context.Context) (Summary, error) {
	stats := NewRunStats()
	ctx, span := tracing.StartStageSpan(ctx, stats.RunID, "run")

	summary, err := s.run(ctx, stats)
	tracing.EndSpan(span, err)
	metrics.RecordRunCompleted(summary.FeedConsumed, summary.Duration)
	metrics.RecordFilersClassified(summary.FilersNew, summary.FilersUpdated, summary.FilersSkipped)
	return summary, err
}

func (s *Service) run(ctx context.Context, stats *RunStats) (Summary, error) {
	log := logging.WithRunID(slog.Default(), stats.RunID)
	log.Info("harvest run starting", slog.String("work_dir", s.cfg.WorkDir))

	if err := os.MkdirAll(s.docsDir(), 0o755); err != nil {
		return stats.Summarize(false), entity.LocalIO(fmt.Errorf("create work dir: %w", err))
	}

	baseline, err := dataset.ReadBaseline(s.cfg.CumulativePath)
	if err != nil {
		return stats.Summarize(false), fmt.Errorf("read baseline: %w", err)
	}

	filers, err := s.Source.Filers(ctx)
	if err != nil {
		return s.finish(ctx, stats, false), fmt.Errorf("stream feed: %w", err)
	}

	result := diff.Select(baseline, filers)
	stats.FilersTotal.Store(int64(result.Total()))
	stats.FilersNew.Store(int64(result.New))
	stats.FilersUpdated.Store(int64(result.Updated))
	stats.FilersSkipped.Store(int64(result.Unchanged))

	if len(result.ToProcess) == 0 {
		log.Info("nothing to process, baseline is current")
		return s.finish(ctx, stats, true), nil
	}

	if err := s.lookupStage(ctx, result.ToProcess, baseline, stats, log); err != nil {
		return s.finish(ctx, stats, true), err
	}

	complete, err := s.downloadStage(ctx, stats, log)
	if err != nil {
		return s.finish(ctx, stats, true), err
	}
	if !complete {
		// Stage files stay in place; the next invocation resumes from the
		// first brochure this run did not reach.
		log.Info("run stopped before completing all downloads, keeping stage files")
		return s.finish(ctx, stats, true), nil
	}

	if err := s.mergeStage(stats, log); err != nil {
		return s.finish(ctx, stats, true), err
	}

	s.clearStageFiles()
	return s.finish(ctx, stats, true), nil
}

// finish freezes the stats, reports the summary, and best-effort delivers it
// to the notifier and the run ledger.
func (s *Service) finish(ctx context.Context, stats *RunStats, feedConsumed bool) Summary {
	summary := stats.Summarize(feedConsumed)

	slog.Info("harvest run finished",
		slog.String("run_id", summary.RunID),
		slog.Duration("duration", summary.Duration.Round(time.Millisecond)),
		slog.Bool("feed_consumed", summary.FeedConsumed),
		slog.Int64("filers_new", summary.FilersNew),
		slog.Int64("filers_updated", summary.FilersUpdated),
		slog.Int64("filers_skipped", summary.FilersSkipped),
		slog.Int64("downloads", summary.Downloads),
		slog.Int64("download_failures", summary.DownloadFailures),
		slog.Int64("merged", summary.Merged),
		slog.Any("failures_by_category", summary.FailuresByCategory))

	// Notification and ledger failures never change the run outcome.
	if s.Notifier != nil {
		if err := s.Notifier.NotifyRunSummary(ctx, summary); err != nil {
			slog.Warn("run summary notification failed", slog.String("error", err.Error()))
		}
	}
	if s.Recorder != nil {
		if err := s.Recorder.Record(ctx, summary); err != nil {
			slog.Warn("run ledger write failed", slog.String("error", err.Error()))
		}
	}
	return summary
}

func (s *Service) docsDir() string {
	return filepath.Join(s.cfg.WorkDir, "docs")
}

func (s *Service) stagePath(name string) string {
	return filepath.Join(s.cfg.WorkDir, name)
}

// clearStageFiles removes the per-run stage files after a completed merge so
// the next run starts clean. Download artifacts under docs/ are kept.
func (s *Service) clearStageFiles() {
	for _, name := range []string{lookupProgressFile, brochureMetadataFile, runOutputFile} {
		if err := os.Remove(s.stagePath(name)); err != nil && !os.IsNotExist(err) {
			slog.Warn("could not remove stage file",
				slog.String("path", s.stagePath(name)),
				slog.String("error", err.Error()))
		}
	}
}

// checkCancelled reports a cooperative stop request. Called at every loop
// iteration boundary; cancellation is polled, never preemptive.
func checkCancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run cancelled: %w", err)
	}
	return nil
}

// resumeOrReset locates the resume point for a stage. A progress file that
// cannot be aligned to the current source sequence is discarded, along with
// any downstream stage files derived from it, and the stage restarts from
// zero: a full re-run beats guessing an offset.
func resumeOrReset(sourceKeys []string, rows []entity.ProgressRow, complete resume.Complete, key resume.Key, clearOnReset []string) (int, bool, error) {
	idx, err := resume.Locate(sourceKeys, rows, complete, key)
	switch {
	case errors.Is(err, entity.ErrNoWorkRemaining):
		return len(sourceKeys), true, nil
	case errors.Is(err, entity.ErrResumeNotPossible):
		slog.Warn("progress does not align with current source, restarting stage",
			slog.String("reason", err.Error()))
		for _, path := range clearOnReset {
			if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
				return 0, false, entity.LocalIO(fmt.Errorf("discard stale progress file: %w", rmErr))
			}
		}
		return 0, false, nil
	case err != nil:
		return 0, false, err
	}
	return idx, false, nil
}
