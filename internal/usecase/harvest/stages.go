package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"regharvest/internal/domain/entity"
	"regharvest/internal/infra/dataset"
	"regharvest/internal/infra/extractor"
	"regharvest/internal/observability/metrics"
	"regharvest/internal/observability/tracing"
	"regharvest/internal/usecase/merge"
	"regharvest/internal/usecase/resume"
)

// lookupStage resolves brochures for every selected filer, writing one
// progress row per filer and one metadata row per discovered brochure. The
// metadata rows are flushed before the filer's lookup row is marked OK, so a
// lookup reported complete always has its brochures durably on disk.
// Brochures whose version key the baseline already records are skipped
// here, before any download is spent on them.
func (s *Service) lookupStage(ctx context.Context, filers []entity.Filer, baseline *dataset.Baseline, stats *RunStats, log *slog.Logger) (err error) {
	ctx, span := tracing.StartStageSpan(ctx, stats.RunID, "lookup")
	defer func() { tracing.EndSpan(span, err) }()

	lookupPath := s.stagePath(lookupProgressFile)
	crds := make([]string, len(filers))
	for i := range filers {
		crds[i] = filers[i].CRD
	}

	rows, err := dataset.ReadProgressRows(lookupPath)
	if err != nil {
		return err
	}

	// A stale lookup progress file poisons everything downstream of it.
	idx, done, err := resumeOrReset(crds, rows, resume.LookupComplete, resume.LookupKey,
		[]string{lookupPath, s.stagePath(brochureMetadataFile), s.stagePath(runOutputFile)})
	if err != nil {
		return err
	}
	if done {
		log.Info("lookup stage already complete", slog.Int("filers", len(crds)))
		return nil
	}
	if idx > 0 {
		log.Info("resuming lookup stage",
			slog.Int("resume_index", idx),
			slog.Int("filers", len(crds)))
	}

	progress, err := dataset.NewProgressWriter(lookupPath)
	if err != nil {
		return err
	}
	defer progress.Close()

	metadata, err := dataset.NewProgressWriter(s.stagePath(brochureMetadataFile))
	if err != nil {
		return err
	}
	defer metadata.Close()

	for i := idx; i < len(filers); i++ {
		if err := checkCancelled(ctx); err != nil {
			return err
		}

		filer := &filers[i]
		row := entity.ProgressRow{
			CRD:           filer.CRD,
			FilerName:     filer.LegalName,
			DateSubmitted: filer.VersionMarker,
		}

		brochures, err := s.Lookup.Brochures(ctx, filer.CRD)
		if err != nil {
			stats.LookupFailures.Add(1)
			stats.CountFailure(err)
			metrics.RecordLookup(false)
			metrics.RecordFailure("lookup", entity.CategoryOf(err).String())
			log.Warn("filer lookup failed",
				slog.String("crd", filer.CRD),
				slog.String("category", entity.CategoryOf(err).String()),
				slog.String("error", err.Error()))
			row.Status = entity.FailedStatus(entity.CategoryOf(err).String())
			if werr := progress.Append(row); werr != nil {
				return werr
			}
			continue
		}

		for j := range brochures {
			if brochures[j].VersionID != "" && baseline.HasKey(brochures[j].VersionID) {
				stats.Duplicates.Add(1)
				metrics.RecordDuplicateSkipped()
				log.Debug("brochure already in cumulative dataset, skipping",
					slog.String("crd", filer.CRD),
					slog.String("version_id", brochures[j].VersionID))
				continue
			}
			stats.Brochures.Add(1)
			// The date column is the filer's version marker, not the
			// brochure's own submission date: the next run's diff reads it
			// back as the last-seen marker for this filer.
			if werr := metadata.Append(entity.ProgressRow{
				CRD:           filer.CRD,
				FilerName:     filer.LegalName,
				VersionID:     brochures[j].VersionID,
				BrochureName:  brochures[j].Name,
				DateSubmitted: filer.VersionMarker,
				Status:        entity.StatusOK,
			}); werr != nil {
				return werr
			}
		}

		stats.Lookups.Add(1)
		metrics.RecordLookup(true)
		row.Status = entity.StatusOK
		if werr := progress.Append(row); werr != nil {
			return werr
		}
	}
	return nil
}

// downloadRowDone is the download stage's resume predicate. A row is done
// when the document is durably on disk, or when the unit can never succeed
// (missing version id) or was deliberately skipped. Failure-marker rows stay
// incomplete so a resumed run retries them.
func downloadRowDone(row *entity.ProgressRow) bool {
	return resume.DownloadComplete(row) ||
		row.Status == entity.StatusMissingField ||
		row.Status == entity.StatusSkipped
}

// downloadStage downloads every discovered brochure, classifies its text,
// and writes the run output row. Units run in batches under an errgroup;
// rows append in source order so the resume locator can align them.
//
// complete is false when the stage stopped early at the max-items cap. The
// caller must then keep the stage files and skip the merge, so the next
// invocation resumes where this one stopped; merging a capped run would mark
// its filers current in the baseline and strand the remaining brochures.
func (s *Service) downloadStage(ctx context.Context, stats *RunStats, log *slog.Logger) (complete bool, err error) {
	ctx, span := tracing.StartStageSpan(ctx, stats.RunID, "download")
	defer func() { tracing.EndSpan(span, err) }()

	brochures, err := s.loadBrochures()
	if err != nil {
		return false, err
	}
	if len(brochures) == 0 {
		log.Info("no brochures discovered, skipping download stage")
		return true, nil
	}

	keys := make([]string, len(brochures))
	for i := range brochures {
		keys[i] = brochures[i].VersionID
	}

	runPath := s.stagePath(runOutputFile)
	rows, err := dataset.ReadProgressRows(runPath)
	if err != nil {
		return false, err
	}

	idx, done, err := resumeOrReset(keys, rows, downloadRowDone, resume.DownloadKey, []string{runPath})
	if err != nil {
		return false, err
	}
	if done {
		log.Info("download stage already complete", slog.Int("brochures", len(brochures)))
		return true, nil
	}
	if idx > 0 {
		log.Info("resuming download stage",
			slog.Int("resume_index", idx),
			slog.Int("brochures", len(brochures)))
	}

	out, err := dataset.NewProgressWriter(runPath)
	if err != nil {
		return false, err
	}
	defer out.Close()

	processed := 0
	for start := idx; start < len(brochures); start += s.cfg.Parallelism {
		if err := checkCancelled(ctx); err != nil {
			return false, err
		}
		if s.cfg.MaxItems > 0 && processed >= s.cfg.MaxItems {
			log.Info("max items reached, stopping download stage",
				slog.Int("processed", processed),
				slog.Int("max_items", s.cfg.MaxItems))
			return false, nil
		}

		end := min(start+s.cfg.Parallelism, len(brochures))
		if s.cfg.MaxItems > 0 {
			end = min(end, start+s.cfg.MaxItems-processed)
		}

		batch := brochures[start:end]
		results := make([]entity.ProgressRow, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		for j := range batch {
			g.Go(func() error {
				results[j] = s.processUnit(gctx, batch[j], stats)
				return nil
			})
		}
		// Unit failures are recorded in the result rows, never returned.
		_ = g.Wait()

		for j := range results {
			if werr := out.Append(results[j]); werr != nil {
				return false, werr
			}
		}
		processed += len(batch)

		if s.localIOBreaker.IsOpen() {
			return false, entity.LocalIO(fmt.Errorf(
				"aborting run after %d consecutive local i/o failures",
				s.cfg.LocalIOFailureThreshold))
		}
	}
	return true, nil
}

// processUnit downloads one brochure and classifies its content. It always
// returns a row; failures are encoded in the status column.
func (s *Service) processUnit(ctx context.Context, meta entity.ProgressRow, stats *RunStats) entity.ProgressRow {
	row := meta
	row.Status = ""
	row.LocalPath = ""
	row.Tags = ""

	if row.VersionID == "" {
		slog.Warn("brochure has no version id, cannot build download URL",
			slog.String("crd", row.CRD),
			slog.String("brochure_name", row.BrochureName))
		stats.CountFailure(entity.DataShape(errors.New("missing brochure version id")))
		metrics.RecordDownloadSkipped()
		row.Status = entity.StatusMissingField
		return row
	}

	url := fmt.Sprintf(s.cfg.DownloadURLTemplate, row.VersionID)
	dest := filepath.Join(s.docsDir(), row.CRD+"_"+row.VersionID+".pdf")

	start := time.Now()
	err := s.Downloader.DownloadFile(ctx, url, dest)
	s.recordLocalIO(err)
	metrics.RecordDownload(err == nil, time.Since(start))
	if err != nil {
		stats.DownloadFailures.Add(1)
		stats.CountFailure(err)
		metrics.RecordFailure("download", entity.CategoryOf(err).String())
		slog.Warn("brochure download failed",
			slog.String("crd", row.CRD),
			slog.String("version_id", row.VersionID),
			slog.String("category", entity.CategoryOf(err).String()),
			slog.String("error", err.Error()))
		row.Status = entity.FailedStatus(entity.CategoryOf(err).String())
		return row
	}

	stats.Downloads.Add(1)
	row.LocalPath = dest
	row.Tags = s.classify(ctx, dest, stats)
	row.Status = entity.StatusOK
	return row
}

// classify extracts text from the downloaded document and runs the
// classifier over it. Classification is best effort: a unit with a document
// on disk but no tags is still a success.
func (s *Service) classify(ctx context.Context, path string, stats *RunStats) string {
	if s.Extractor == nil || s.Classifier == nil {
		return ""
	}

	text, err := s.Extractor.Text(path)
	if err != nil {
		if errors.Is(err, extractor.ErrUnsupportedFormat) {
			metrics.RecordClassification("skipped")
			slog.Debug("document format not extractable, skipping classification",
				slog.String("path", path))
		} else {
			metrics.RecordClassification("failure")
			slog.Warn("text extraction failed",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
		return ""
	}

	tags, err := s.Classifier.Classify(ctx, text)
	if err != nil {
		stats.CountFailure(err)
		metrics.RecordClassification("failure")
		slog.Warn("classification failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return ""
	}
	metrics.RecordClassification("success")
	if len(tags) > 0 {
		stats.Tagged.Add(1)
	}
	return strings.Join(tags, ";")
}

// recordLocalIO feeds download outcomes to the local I/O circuit breaker.
// Only local failures count against it; remote failures say nothing about
// this host's disk.
func (s *Service) recordLocalIO(err error) {
	switch {
	case err == nil:
		_, _ = s.localIOBreaker.Execute(func() (interface{}, error) { return nil, nil })
	case entity.CategoryOf(err) == entity.CategoryLocalIO:
		_, _ = s.localIOBreaker.Execute(func() (interface{}, error) { return nil, err })
	}
}

// loadBrochures reads the lookup stage's metadata rows, dropping duplicate
// version ids left behind by an interrupted lookup.
func (s *Service) loadBrochures() ([]entity.ProgressRow, error) {
	rows, err := dataset.ReadProgressRows(s.stagePath(brochureMetadataFile))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(rows))
	out := make([]entity.ProgressRow, 0, len(rows))
	for i := range rows {
		if key := rows[i].VersionID; key != "" {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, rows[i])
	}
	return out, nil
}

// mergeStage folds the run's successful rows into the cumulative dataset.
// Failed rows stay out of the cumulative file so a later run can retry them
// once the filer's version marker advances or the same run output is
// reprocessed.
func (s *Service) mergeStage(stats *RunStats, log *slog.Logger) error {
	rows, err := dataset.ReadProgressRows(s.stagePath(runOutputFile))
	if err != nil {
		return err
	}

	successes := make([]entity.ProgressRow, 0, len(rows))
	for i := range rows {
		if rows[i].Succeeded() && rows[i].LocalPath != "" {
			successes = append(successes, rows[i])
		}
	}
	if len(successes) == 0 {
		log.Info("no successful units to merge")
		return nil
	}

	mergeStats, err := merge.Fold(successes, s.cfg.CumulativePath)
	if err != nil {
		return err
	}
	stats.Merged.Store(int64(mergeStats.Appended + mergeStats.Keyless))
	stats.Duplicates.Add(int64(mergeStats.Duplicates))
	metrics.RecordMerge(int64(mergeStats.Appended+mergeStats.Keyless), int64(mergeStats.Duplicates))
	return nil
}
