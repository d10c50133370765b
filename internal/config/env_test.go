package config

import (
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	if cfg.Extract.LineYTolerance != 3 {
		t.Errorf("Expected line tolerance 3, got %v", cfg.Extract.LineYTolerance)
	}
	if cfg.Extract.BlockXTolerance != 50 || cfg.Extract.BlockYTolerance != 20 {
		t.Errorf("Unexpected block tolerances: %v / %v",
			cfg.Extract.BlockXTolerance, cfg.Extract.BlockYTolerance)
	}
	if cfg.Extract.GridRows != 10 || cfg.Extract.GridCols != 10 {
		t.Errorf("Unexpected grid shape: %dx%d", cfg.Extract.GridRows, cfg.Extract.GridCols)
	}
	if cfg.Worker.Concurrency != 4 {
		t.Errorf("Expected concurrency 4, got %d", cfg.Worker.Concurrency)
	}
	if cfg.Queue.Stream != "jobs:extract:docs" {
		t.Errorf("Unexpected stream name: %q", cfg.Queue.Stream)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Unexpected server addr: %q", cfg.Server.Addr)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("LINE_Y_TOLERANCE", "5.5")
	t.Setenv("WORKER_CONCURRENCY", "16")
	t.Setenv("JOB_TIMEOUT", "30s")
	t.Setenv("WRITE_OVERLAYS", "false")

	cfg := FromEnv()

	if cfg.Extract.LineYTolerance != 5.5 {
		t.Errorf("Expected 5.5, got %v", cfg.Extract.LineYTolerance)
	}
	if cfg.Worker.Concurrency != 16 {
		t.Errorf("Expected 16, got %d", cfg.Worker.Concurrency)
	}
	if cfg.Worker.JobTimeout != 30*time.Second {
		t.Errorf("Expected 30s, got %v", cfg.Worker.JobTimeout)
	}
	if cfg.Extract.WriteOverlays {
		t.Error("Expected overlays disabled")
	}
}

func TestFromEnv_BadValuesFallBack(t *testing.T) {
	t.Setenv("WORKER_CONCURRENCY", "not a number")
	t.Setenv("RETRY_BASE_DELAY", "soon")

	cfg := FromEnv()

	if cfg.Worker.Concurrency != 4 {
		t.Errorf("Expected default 4 on bad value, got %d", cfg.Worker.Concurrency)
	}
	if cfg.Worker.RetryBaseDelay != 2*time.Second {
		t.Errorf("Expected default 2s on bad value, got %v", cfg.Worker.RetryBaseDelay)
	}
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", " on "} {
		if !parseBool(v) {
			t.Errorf("Expected %q to parse true", v)
		}
	}
	for _, v := range []string{"0", "false", "", "off"} {
		if parseBool(v) {
			t.Errorf("Expected %q to parse false", v)
		}
	}
}
