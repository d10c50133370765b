// Package statuscheck probes the external dependencies the service
// needs: Redis, S3 and the mutool binary.
package statuscheck

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"time"
)

// RedisPinger models the minimal Redis capability we need for status checks.
type RedisPinger interface {
	Ping(ctx context.Context) error
}

// BucketHeader verifies S3 bucket reachability.
type BucketHeader interface {
	HeadBucket(ctx context.Context) error
	Bucket() string
}

// Checker aggregates health checks for external dependencies.
type Checker struct {
	redis RedisPinger
	s3    BucketHeader
}

// Options configures the Checker. Nil fields report as unavailable or
// unconfigured.
type Options struct {
	Redis RedisPinger
	S3    BucketHeader
}

// Status represents the readiness of a subsystem.
type Status struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Summary bundles all subsystem statuses.
type Summary struct {
	Redis Status `json:"redis"`
	S3    Status `json:"s3"`
	MuPDF Status `json:"mupdf"`
}

// OK reports whether every checked subsystem is healthy. S3 counts as
// healthy when not configured since extraction can run without it.
func (s Summary) OK() bool {
	return s.Redis.OK && s.MuPDF.OK && (s.S3.OK || s.S3.Message == "Not configured")
}

func New(opts Options) *Checker {
	return &Checker{redis: opts.Redis, s3: opts.S3}
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
	return Summary{
		Redis: c.checkRedis(ctx),
		S3:    c.checkS3(ctx),
		MuPDF: c.checkMuPDF(),
	}
}

func (c *Checker) checkRedis(ctx context.Context) Status {
	if c.redis == nil {
		return Status{OK: false, Message: "client unavailable"}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.redis.Ping(ctx); err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkS3(ctx context.Context) Status {
	if c.s3 == nil || c.s3.Bucket() == "" {
		return Status{OK: false, Message: "Not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.s3.HeadBucket(ctx); err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkMuPDF() Status {
	bin := os.Getenv("MUPDF_BIN")
	if bin == "" {
		bin = "mutool"
	}
	if _, err := exec.LookPath(bin); err != nil {
		return Status{OK: false, Message: "Binary not found"}
	}
	return Status{OK: true, Message: "Available"}
}

func trimError(err error) string {
	if err == nil {
		return ""
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	msg := err.Error()
	if len(msg) > 120 {
		return msg[:120]
	}
	return msg
}
