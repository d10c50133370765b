package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	cfgpkg "github.com/udinavina/navina-text-extractor/internal/config"
	"github.com/udinavina/navina-text-extractor/internal/dispatcher"
	logpkg "github.com/udinavina/navina-text-extractor/internal/logger"
	"github.com/udinavina/navina-text-extractor/internal/metrics"
	"github.com/udinavina/navina-text-extractor/internal/orchestrator"
	"github.com/udinavina/navina-text-extractor/internal/queue"
	"github.com/udinavina/navina-text-extractor/internal/statuscheck"
	"github.com/udinavina/navina-text-extractor/internal/storage"
	"github.com/udinavina/navina-text-extractor/internal/store"
	"github.com/udinavina/navina-text-extractor/internal/web"
)

func main() {
	_ = godotenv.Load()
	cfg := cfgpkg.FromEnv()

	_ = logpkg.Init(logpkg.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	})
	defer logpkg.Close()

	metrics.Init()

	rq, err := queue.NewRedisQueue(cfg.Queue.RedisURL, cfg.Queue.Stream, cfg.Queue.Group, cfg.Queue.PollInterval)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rq.Close()

	rs, err := store.NewRedisStatus(cfg.Queue.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init redis status store")
	}
	defer rs.Close()

	results, err := store.NewResultStore(cfg.Queue.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init redis result store")
	}
	defer results.Close()

	// S3 artifact storage is optional
	var s3cli *storage.S3Client
	if cfg.Storage.Bucket != "" {
		s3cli, err = storage.NewS3Client(context.Background(), storage.Options{
			Bucket:   cfg.Storage.Bucket,
			Region:   cfg.Storage.Region,
			Endpoint: cfg.Storage.Endpoint,
			Secret:   cfg.Storage.EncryptionSecret,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init s3 client")
		}
	}

	checker := statuscheck.New(statuscheck.Options{
		Redis: rq,
		S3:    checkerBucket(s3cli),
	})

	orch := orchestrator.New(orchestrator.Dependencies{
		Queue:       rq,
		Status:      rs,
		Results:     results,
		Checker:     checker,
		UploadDir:   getenv("UPLOAD_DIR", "uploads"),
		MaxUploadMB: cfg.Server.MaxUploadMB,
	})
	mux := http.NewServeMux()
	orch.RegisterRoutes(mux)
	mux.Handle("/metrics", metrics.Handler())

	dash := web.New(cfg.Server.Addr)
	dash.RegisterRoutes(mux)

	runWorkers := os.Getenv("RUN_WORKERS")
	if runWorkers == "" || runWorkers == "1" || runWorkers == "true" {
		pipeline := orchestrator.NewPipeline(cfg, rs, results, rq, s3cli)
		disp := dispatcher.New(dispatcher.Config{
			Concurrency:        cfg.Worker.Concurrency,
			JobTimeout:         cfg.Worker.JobTimeout,
			MaxAttempts:        cfg.Worker.JobMaxAttempts,
			RetryBaseDelay:     cfg.Worker.RetryBaseDelay,
			RetryJitter:        cfg.Worker.RetryJitter,
			RetryBackoffFactor: cfg.Worker.RetryBackoffFactor,
		}, rq, rs, pipeline)
		disp.Start()
		defer disp.Stop(context.Background())
	}

	// Periodic housekeeping: drop stale temp downloads and refresh
	// queue depth gauges.
	houseStop := make(chan struct{})
	go func() {
		t := time.NewTicker(10 * time.Minute)
		defer t.Stop()
		for {
			select {
			case <-houseStop:
				return
			case <-t.C:
				orchestrator.CleanupTemps(cfg.Export.TempDir, time.Hour)
				if ready, delayed, dlq, err := rq.Depths(context.Background()); err == nil {
					metrics.SetQueueDepth("ready", ready)
					metrics.SetQueueDepth("delayed", delayed)
					metrics.SetQueueDepth("dlq", dlq)
				}
			}
		}
	}()
	defer close(houseStop)

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: mux}
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(ctx)
	log.Info().Msg("shutdown complete")
}

// checkerBucket avoids handing statuscheck a typed nil interface.
func checkerBucket(s3 *storage.S3Client) statuscheck.BucketHeader {
	if s3 == nil {
		return nil
	}
	return s3
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
