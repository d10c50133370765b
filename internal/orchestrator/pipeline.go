package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/udinavina/navina-text-extractor/internal/config"
	"github.com/udinavina/navina-text-extractor/internal/dispatcher"
	"github.com/udinavina/navina-text-extractor/internal/export"
	"github.com/udinavina/navina-text-extractor/internal/filetype"
	"github.com/udinavina/navina-text-extractor/internal/metrics"
	"github.com/udinavina/navina-text-extractor/internal/overlay"
	"github.com/udinavina/navina-text-extractor/internal/pdfparse"
	"github.com/udinavina/navina-text-extractor/internal/store"
	"github.com/udinavina/navina-text-extractor/internal/storage"
)

// ResultSaver persists the final job result.
type ResultSaver interface {
	Save(ctx context.Context, jobID string, r store.Result) error
}

// ProgressStore exposes the status writes the pipeline needs.
type ProgressStore interface {
	Set(ctx context.Context, jobID string, st store.Status) error
	SetFileJobMapping(ctx context.Context, fileHash, jobID string) error
}

// Canceller reports whether a job has been cancelled mid-flight.
type Canceller interface {
	IsCancelled(ctx context.Context, jobID string) (bool, error)
}

// Pipeline runs one extraction job end to end: fetch, validate,
// extract, group, export, overlay, upload, record. It implements
// dispatcher.Processor.
type Pipeline struct {
	cfg      config.Config
	detector *filetype.Detector
	status   ProgressStore
	results  ResultSaver
	cancels  Canceller
	s3       *storage.S3Client
}

func NewPipeline(cfg config.Config, status ProgressStore, results ResultSaver, cancels Canceller, s3 *storage.S3Client) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		detector: filetype.New(),
		status:   status,
		results:  results,
		cancels:  cancels,
		s3:       s3,
	}
}

var _ dispatcher.Processor = (*Pipeline)(nil)

func (p *Pipeline) progress(ctx context.Context, jobID string, pct int, msg string) {
	_ = p.status.Set(ctx, jobID, store.Status{
		Status: store.StatusProcessing, Progress: pct, Message: msg,
	})
}

func (p *Pipeline) cancelled(ctx context.Context, jobID string) bool {
	if p.cancels == nil {
		return false
	}
	c, _ := p.cancels.IsCancelled(ctx, jobID)
	return c
}

// Process executes the extraction pipeline for one job.
func (p *Pipeline) Process(ctx context.Context, job dispatcher.Job) error {
	var downloader Downloader
	if p.s3 != nil {
		downloader = p.s3
	}
	localPath, cleanup, err := ensureLocal(ctx, job.Ref, downloader, p.cfg.Export.TempDir)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := p.detector.ValidatePDF(localPath); err != nil {
		return &dispatcher.ValidationError{Message: err.Error()}
	}

	if p.cancelled(ctx, job.JobID) {
		return p.markCancelled(ctx, job.JobID)
	}
	p.progress(ctx, job.JobID, 20, "extracting text fragments")

	hasText, probe, probeErr := pdfparse.HasTextLayer(localPath, 0)
	if probeErr != nil {
		log.Warn().Err(probeErr).Str("job_id", job.JobID).Msg("text layer probe failed")
	} else if !hasText {
		log.Warn().Str("job_id", job.JobID).Int("chars", probe.CharCount).
			Msg("document appears scanned, extraction may yield little text")
	}

	res, err := pdfparse.Extract(ctx, localPath)
	if err != nil {
		return fmt.Errorf("extract %s: %w", localPath, err)
	}
	metrics.AddFragments(string(res.Method), len(res.Fragments))
	metrics.AddPages(res.PageCount)

	if p.cancelled(ctx, job.JobID) {
		return p.markCancelled(ctx, job.JobID)
	}
	p.progress(ctx, job.JobID, 50, "writing artifacts")

	exp, err := export.NewExporter(p.cfg.Export.OutputDir, localPath)
	if err != nil {
		return fmt.Errorf("create exporter: %w", err)
	}
	exp.SetTolerances(p.cfg.Extract.LineYTolerance, p.cfg.Extract.BlockXTolerance, p.cfg.Extract.BlockYTolerance)
	exp.SetTolerances(job.LineYTolerance, job.BlockXTolerance, job.BlockYTolerance)
	exp.SetGridShape(p.cfg.Extract.GridRows, p.cfg.Extract.GridCols)

	artifacts := map[string]string{}
	record := func(name, path string, err error) error {
		if err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		artifacts[name] = path
		metrics.IncArtifact(name)
		return nil
	}

	if _, err := exp.CopyOriginal(); err != nil {
		return fmt.Errorf("copy original: %w", err)
	}

	meta := map[string]any{
		"job_id":     job.JobID,
		"source":     job.Source,
		"ref":        job.Ref,
		"method":     string(res.Method),
		"page_count": res.PageCount,
	}
	if probeErr == nil {
		meta["has_text_layer"] = hasText
	}
	path, err := exp.WriteJSON(res.Fragments, meta)
	if err := record("json", path, err); err != nil {
		return err
	}
	path, err = exp.WriteCSV(res.Fragments)
	if err := record("csv", path, err); err != nil {
		return err
	}

	fvPaths, err := exp.WriteFeatureVectors(res.Fragments, res.Dims)
	if err != nil {
		return fmt.Errorf("write feature vectors: %w", err)
	}
	for name, fp := range fvPaths {
		artifacts[name] = fp
		metrics.IncArtifact(name)
	}

	path, err = exp.WriteClustering(res.Fragments, true)
	if err := record("clustering", path, err); err != nil {
		return err
	}
	path, err = exp.WriteText(res.Fragments, export.GroupByBlock)
	if err := record("text", path, err); err != nil {
		return err
	}
	path, err = exp.WriteVisualization(res.Fragments)
	if err := record("visualization", path, err); err != nil {
		return err
	}
	path, err = exp.WriteCoordinateReport(res.Fragments)
	if err := record("coordinates", path, err); err != nil {
		return err
	}

	if p.writeOverlays(job) {
		p.progress(ctx, job.JobID, 75, "rendering page overlays")
		opts := overlay.DefaultOptions()
		if p.cfg.Extract.OverlayDPI > 0 {
			opts.DPI = p.cfg.Extract.OverlayDPI
		}
		if p.cfg.Extract.OverlayQuality > 0 {
			opts.Quality = p.cfg.Extract.OverlayQuality
		}
		paths, err := overlay.WriteOverlays(localPath, exp.OutputDir(), res.Fragments, opts)
		if err != nil {
			// Overlays are a bonus artifact, extraction still counts
			log.Warn().Err(err).Str("job_id", job.JobID).Msg("overlay rendering failed")
		} else {
			for i, op := range paths {
				artifacts[fmt.Sprintf("overlay_%d", i)] = op
			}
			metrics.IncArtifact("overlay")
		}
	}

	var s3Keys []string
	if p.s3 != nil && p.cfg.Storage.UploadResults {
		p.progress(ctx, job.JobID, 85, "uploading artifacts to s3")
		prefix := "results/" + job.JobID
		for _, local := range artifacts {
			key, err := p.s3.UploadFile(ctx, prefix, local)
			if err != nil {
				return fmt.Errorf("upload artifact: %w", err)
			}
			s3Keys = append(s3Keys, key)
		}
	}

	result := store.Result{
		OutputDir:     exp.OutputDir(),
		FileHash:      exp.FileHash(),
		Method:        string(res.Method),
		PageCount:     res.PageCount,
		FragmentCount: len(res.Fragments),
		Artifacts:     artifacts,
		S3Keys:        s3Keys,
	}
	if err := p.results.Save(ctx, job.JobID, result); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	_ = p.status.SetFileJobMapping(ctx, exp.FileHash(), job.JobID)

	end := time.Now()
	_ = p.status.Set(ctx, job.JobID, store.Status{
		Status: store.StatusCompleted, Progress: 100,
		Message: fmt.Sprintf("extracted %d fragments from %d pages", len(res.Fragments), res.PageCount),
		End:     &end,
		Metadata: map[string]any{
			"output_dir": exp.OutputDir(),
			"file_hash":  exp.FileHash(),
			"method":     string(res.Method),
		},
	})

	log.Info().
		Str("job_id", job.JobID).
		Str("method", string(res.Method)).
		Int("fragments", len(res.Fragments)).
		Int("pages", res.PageCount).
		Str("output_dir", exp.OutputDir()).
		Msg("extraction pipeline finished")
	return nil
}

func (p *Pipeline) writeOverlays(job dispatcher.Job) bool {
	if job.WriteOverlays != nil {
		return *job.WriteOverlays
	}
	return p.cfg.Extract.WriteOverlays
}

func (p *Pipeline) markCancelled(ctx context.Context, jobID string) error {
	end := time.Now()
	_ = p.status.Set(ctx, jobID, store.Status{
		Status: store.StatusCancelled, Progress: 0,
		Message: "cancelled", End: &end,
	})
	log.Warn().Str("job_id", jobID).Msg("job cancelled mid-pipeline")
	return nil
}
