// Package dispatcher runs the extraction worker pool: it pulls jobs
// from the queue, drives the processing pipeline, and handles retry,
// cancellation and dead-lettering.
package dispatcher

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/udinavina/navina-text-extractor/internal/metrics"
	"github.com/udinavina/navina-text-extractor/internal/store"
)

// Queue is the slice of queue behavior the workers need.
type Queue interface {
	Dequeue(ctx context.Context, consumer string, timeout time.Duration) (string, []byte, error)
	Ack(ctx context.Context, msgID string) error
	EnqueueDelayed(ctx context.Context, payload []byte, executeAt time.Time) error
	AddDLQ(ctx context.Context, payload []byte, reason string) error
	IsCancelled(ctx context.Context, jobID string) (bool, error)
}

// StatusStore records job lifecycle transitions.
type StatusStore interface {
	Set(ctx context.Context, jobID string, st store.Status) error
}

// Processor executes the extraction pipeline for one job.
type Processor interface {
	Process(ctx context.Context, job Job) error
}

// Config tunes the worker pool.
type Config struct {
	Concurrency        int
	JobTimeout         time.Duration
	MaxAttempts        int
	RetryBaseDelay     time.Duration
	RetryJitter        time.Duration
	RetryBackoffFactor float64
}

type Worker struct {
	cfg    Config
	q      Queue
	status StatusStore
	proc   Processor
	stop   chan struct{}
	wg     sync.WaitGroup
}

func New(cfg Config, q Queue, status StatusStore, proc Processor) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 5 * time.Minute
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 2 * time.Second
	}
	if cfg.RetryBackoffFactor <= 0 {
		cfg.RetryBackoffFactor = 2.0
	}
	return &Worker{cfg: cfg, q: q, status: status, proc: proc, stop: make(chan struct{})}
}

func (w *Worker) Start() {
	for i := 0; i < w.cfg.Concurrency; i++ {
		w.wg.Add(1)
		go w.loop(i)
	}
}

// Stop signals the workers and waits for in-flight jobs to finish or
// the context to expire.
func (w *Worker) Stop(ctx context.Context) error {
	close(w.stop)
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop(id int) {
	defer w.wg.Done()
	consumer := fmt.Sprintf("worker-%d", id)
	log.Info().Int("worker", id).Msg("extraction worker started")

	for {
		select {
		case <-w.stop:
			log.Info().Int("worker", id).Msg("extraction worker stopped")
			return
		default:
		}

		msgID, data, err := w.q.Dequeue(context.Background(), consumer, 2*time.Second)
		if err != nil {
			log.Error().Err(err).Msg("queue dequeue error")
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if data == nil {
			continue
		}

		w.handle(id, msgID, data)
	}
}

func (w *Worker) handle(workerID int, msgID string, data []byte) {
	ctx := context.Background()
	defer func() {
		if err := w.q.Ack(ctx, msgID); err != nil {
			log.Error().Err(err).Str("msg_id", msgID).Msg("ack failed")
		}
	}()

	job, err := DecodeJob(data)
	if err != nil {
		log.Error().Err(err).Msg("undecodable job payload")
		_ = w.q.AddDLQ(ctx, data, "undecodable payload")
		return
	}
	if job.Attempt == 0 {
		job.Attempt = 1
	}

	if cancelled, _ := w.q.IsCancelled(ctx, job.JobID); cancelled {
		log.Warn().Int("worker", workerID).Str("job_id", job.JobID).Msg("job cancelled before processing; skipping")
		w.setStatus(ctx, job.JobID, store.StatusCancelled, 0, "cancelled before processing")
		metrics.ObserveJob(job.Source, "cancelled", 0)
		return
	}

	log.Info().
		Int("worker", workerID).
		Str("job_id", job.JobID).
		Str("source", job.Source).
		Int("attempt", job.Attempt).
		Msg("processing extraction job")

	start := time.Now()
	now := start
	_ = w.status.Set(ctx, job.JobID, store.Status{
		Status: store.StatusProcessing, Progress: 5,
		Message: "extraction started", Start: &now,
	})

	jobCtx, cancel := context.WithTimeout(ctx, w.cfg.JobTimeout)
	err = w.proc.Process(jobCtx, job)
	cancel()

	elapsed := time.Since(start)

	switch {
	case err == nil:
		log.Info().Str("job_id", job.JobID).Dur("elapsed", elapsed).Msg("job completed")
		metrics.ObserveJob(job.Source, "success", elapsed)
		return

	case isFatalError(err):
		log.Error().Err(err).Str("job_id", job.JobID).Msg("fatal job error, dead-lettering")
		_ = w.q.AddDLQ(ctx, data, err.Error())
		w.setStatus(ctx, job.JobID, store.StatusFailed, 100, err.Error())
		metrics.ObserveJob(job.Source, "dlq", elapsed)
		return

	case job.Attempt >= w.cfg.MaxAttempts:
		log.Error().Err(err).Str("job_id", job.JobID).Int("attempts", job.Attempt).Msg("retries exhausted, dead-lettering")
		_ = w.q.AddDLQ(ctx, data, fmt.Sprintf("retries exhausted: %v", err))
		w.setStatus(ctx, job.JobID, store.StatusFailed, 100, err.Error())
		metrics.ObserveJob(job.Source, "dlq", elapsed)
		return

	case isTransientError(err):
		delay := w.retryDelay(job.Attempt)
		log.Warn().Err(err).Str("job_id", job.JobID).Dur("delay", delay).Msg("transient error, scheduling retry")

		job.Attempt++
		payload, encErr := job.Encode()
		if encErr != nil {
			_ = w.q.AddDLQ(ctx, data, "re-encode failed")
			return
		}
		if qErr := w.q.EnqueueDelayed(ctx, payload, time.Now().Add(delay)); qErr != nil {
			log.Error().Err(qErr).Str("job_id", job.JobID).Msg("retry enqueue failed, dead-lettering")
			_ = w.q.AddDLQ(ctx, data, qErr.Error())
			return
		}
		w.setStatus(ctx, job.JobID, store.StatusQueued, 0,
			fmt.Sprintf("retry %d scheduled: %v", job.Attempt, err))
		metrics.IncRetry()
		return

	default:
		// Unclassified errors are not retried
		log.Error().Err(err).Str("job_id", job.JobID).Msg("job failed")
		_ = w.q.AddDLQ(ctx, data, err.Error())
		w.setStatus(ctx, job.JobID, store.StatusFailed, 100, err.Error())
		metrics.ObserveJob(job.Source, "failed", elapsed)
		return
	}
}

// retryDelay grows exponentially with the attempt number plus jitter.
func (w *Worker) retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	backoff := float64(w.cfg.RetryBaseDelay) * math.Pow(w.cfg.RetryBackoffFactor, float64(attempt-1))
	delay := time.Duration(backoff)
	if w.cfg.RetryJitter > 0 {
		delay += time.Duration(rand.Int63n(int64(w.cfg.RetryJitter)))
	}
	return delay
}

func (w *Worker) setStatus(ctx context.Context, jobID, status string, progress int, msg string) {
	now := time.Now()
	st := store.Status{Status: status, Progress: progress, Message: msg}
	if status == store.StatusFailed || status == store.StatusCancelled {
		st.End = &now
	}
	if err := w.status.Set(ctx, jobID, st); err != nil {
		log.Error().Err(err).Str("job_id", jobID).Msg("status update failed")
	}
}
