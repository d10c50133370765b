// Package orchestrator exposes the HTTP API for extraction jobs and
// runs the per-job processing pipeline.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/udinavina/navina-text-extractor/internal/dispatcher"
	"github.com/udinavina/navina-text-extractor/internal/statuscheck"
	"github.com/udinavina/navina-text-extractor/internal/store"
)

// Queue is what the API needs from the job queue.
type Queue interface {
	Enqueue(ctx context.Context, payload []byte) error
	CancelJob(ctx context.Context, jobID string) error
}

// StatusStore reads and writes job lifecycle state.
type StatusStore interface {
	Set(ctx context.Context, jobID string, st store.Status) error
	Get(ctx context.Context, jobID string) (store.Status, bool, error)
}

// ResultStore reads completed job results.
type ResultStore interface {
	Get(ctx context.Context, jobID string) (store.Result, bool, error)
}

// Dependencies wires the API to its backing services.
type Dependencies struct {
	Queue   Queue
	Status  StatusStore
	Results ResultStore
	Checker *statuscheck.Checker
	// UploadDir receives multipart uploads. Defaults to "uploads".
	UploadDir string
	// MaxUploadMB caps multipart memory buffering. Defaults to 64.
	MaxUploadMB int
}

type Orchestrator struct {
	deps Dependencies
}

func New(deps Dependencies) *Orchestrator {
	if deps.UploadDir == "" {
		deps.UploadDir = "uploads"
	}
	if deps.MaxUploadMB <= 0 {
		deps.MaxUploadMB = 64
	}
	return &Orchestrator{deps: deps}
}

func (o *Orchestrator) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", o.handleHealth)
	mux.HandleFunc("/health/deps", o.handleHealthDeps)
	mux.HandleFunc("/extract", o.handleExtract)
	mux.HandleFunc("/extract_upload", o.handleExtractUpload)
	mux.HandleFunc("/progress/", o.handleProgress)
	mux.HandleFunc("/result/", o.handleResult)
	mux.HandleFunc("/download/", o.handleDownload)
	mux.HandleFunc("/webhook/cancel_job", o.handleCancelJob)
}

type extractReq struct {
	FilePath string `json:"file_path"`
	FileURL  string `json:"file_url"`

	LineYTolerance  float64 `json:"line_y_tolerance,omitempty"`
	BlockXTolerance float64 `json:"block_x_tolerance,omitempty"`
	BlockYTolerance float64 `json:"block_y_tolerance,omitempty"`
	WriteOverlays   *bool   `json:"write_overlays,omitempty"`
}

type extractResp struct {
	Status  string `json:"status"`
	JobID   string `json:"job_id"`
	Message string `json:"message"`
}

func sourceFor(ref string) string {
	switch {
	case strings.HasPrefix(ref, "s3://"):
		return dispatcher.SourceS3
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return dispatcher.SourceURL
	default:
		return dispatcher.SourceLocal
	}
}

func (o *Orchestrator) enqueueJob(ctx context.Context, job dispatcher.Job) error {
	start := time.Now()
	if err := o.deps.Status.Set(ctx, job.JobID, store.Status{
		Status: store.StatusQueued, Progress: 0, Message: "queued", Start: &start,
		Metadata: map[string]any{"ref": job.Ref, "source": job.Source},
	}); err != nil {
		return fmt.Errorf("status set: %w", err)
	}
	payload, err := job.Encode()
	if err != nil {
		return err
	}
	return o.deps.Queue.Enqueue(ctx, payload)
}

func (o *Orchestrator) handleExtract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()
	var req extractReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	ref := req.FilePath
	if ref == "" {
		ref = req.FileURL
	}
	if ref == "" {
		http.Error(w, "missing file_path or file_url", http.StatusBadRequest)
		return
	}

	job := dispatcher.Job{
		JobID:           uuid.NewString(),
		Source:          sourceFor(ref),
		Ref:             ref,
		Attempt:         1,
		LineYTolerance:  req.LineYTolerance,
		BlockXTolerance: req.BlockXTolerance,
		BlockYTolerance: req.BlockYTolerance,
		WriteOverlays:   req.WriteOverlays,
	}

	if err := o.enqueueJob(r.Context(), job); err != nil {
		log.Error().Err(err).Str("ref", ref).Msg("enqueue failed")
		http.Error(w, "queue unavailable", http.StatusServiceUnavailable)
		return
	}
	log.Info().Str("job_id", job.JobID).Str("ref", ref).Str("source", job.Source).Msg("extraction job created")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(extractResp{Status: "ok", JobID: job.JobID, Message: "extraction job created"})
}

// handleExtractUpload accepts multipart/form-data uploads and enqueues
// a job against the saved local file.
func (o *Orchestrator) handleExtractUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(int64(o.deps.MaxUploadMB) << 20); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if err := os.MkdirAll(o.deps.UploadDir, 0o755); err != nil {
		http.Error(w, "cannot create upload dir", http.StatusInternalServerError)
		return
	}

	jobID := uuid.NewString()
	name := filepath.Base(hdr.Filename)
	if name == "" || name == "." {
		name = "upload.pdf"
	}
	localPath := filepath.Join(o.deps.UploadDir, jobID+"_"+name)
	out, err := os.Create(localPath)
	if err != nil {
		http.Error(w, "cannot save upload", http.StatusInternalServerError)
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		http.Error(w, "write failed", http.StatusInternalServerError)
		return
	}
	_ = out.Close()

	job := dispatcher.Job{
		JobID:   jobID,
		Source:  dispatcher.SourceUpload,
		Ref:     localPath,
		Attempt: 1,
	}
	if v := r.FormValue("write_overlays"); v == "on" || v == "true" {
		t := true
		job.WriteOverlays = &t
	}

	if err := o.enqueueJob(r.Context(), job); err != nil {
		log.Error().Err(err).Str("file", localPath).Msg("enqueue failed")
		http.Error(w, "queue unavailable", http.StatusServiceUnavailable)
		return
	}
	log.Info().Str("job_id", jobID).Str("file", localPath).Msg("upload job created")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(extractResp{Status: "ok", JobID: jobID, Message: "upload job created"})
}

func (o *Orchestrator) handleProgress(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/progress/")
	st, ok, err := o.deps.Status.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "error", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":    st.Status == store.StatusCompleted,
		"job_id":     id,
		"status":     st.Status,
		"progress":   st.Progress,
		"message":    st.Message,
		"start_time": st.Start,
		"end_time":   st.End,
	})
}

func (o *Orchestrator) handleResult(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/result/")
	res, ok, err := o.deps.Results.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "error", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}

// handleDownload serves one artifact of a completed job:
// /download/{job_id}?artifact=json. Without an artifact parameter the
// block-grouped text is served.
func (o *Orchestrator) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/download/")
	res, ok, err := o.deps.Results.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "error", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "not ready", http.StatusNotFound)
		return
	}

	name := r.URL.Query().Get("artifact")
	if name == "" {
		name = "text"
	}
	path, ok := res.Artifacts[name]
	if !ok {
		http.Error(w, "unknown artifact", http.StatusNotFound)
		return
	}
	b, err := os.ReadFile(path)
	if err != nil {
		http.Error(w, "failed to read artifact", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s_%s%s", name, id, filepath.Ext(path)))
	_, _ = w.Write(b)
}

func (o *Orchestrator) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		JobID string `json:"job_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	jobID := body.JobID
	if jobID == "" {
		jobID = r.URL.Query().Get("job_id")
	}
	if jobID == "" {
		http.Error(w, "missing job_id", http.StatusBadRequest)
		return
	}

	if err := o.deps.Queue.CancelJob(r.Context(), jobID); err != nil {
		http.Error(w, "cancel failed", http.StatusInternalServerError)
		return
	}
	end := time.Now()
	_ = o.deps.Status.Set(r.Context(), jobID, store.Status{
		Status: store.StatusCancelled, Progress: 0, Message: "cancel requested", End: &end,
	})
	log.Info().Str("job_id", jobID).Msg("job cancel requested")
	w.WriteHeader(http.StatusNoContent)
}

func (o *Orchestrator) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (o *Orchestrator) handleHealthDeps(w http.ResponseWriter, r *http.Request) {
	if o.deps.Checker == nil {
		http.Error(w, "checker unavailable", http.StatusServiceUnavailable)
		return
	}
	summary := o.deps.Checker.Summary(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if !summary.OK() {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(summary)
}
