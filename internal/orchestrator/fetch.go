package orchestrator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/udinavina/navina-text-extractor/internal/dispatcher"
	"github.com/udinavina/navina-text-extractor/internal/storage"
)

// Downloader fetches s3:// references to local bytes.
type Downloader interface {
	Download(ctx context.Context, key string) ([]byte, error)
}

// ensureLocal resolves a job reference to a local file path. Remote
// references are downloaded to temp files under tempDir (the system
// temp dir when empty); cleanup removes them and is a no-op for local
// paths.
func ensureLocal(ctx context.Context, ref string, s3 Downloader, tempDir string) (localPath string, cleanup func(), err error) {
	cleanup = func() {}

	switch {
	case strings.HasPrefix(ref, "s3://"):
		localPath, err = downloadS3ToTemp(ctx, ref, s3, tempDir)
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		localPath, err = downloadHTTPToTemp(ctx, ref, tempDir)
	case strings.HasPrefix(ref, "file://"):
		return strings.TrimPrefix(ref, "file://"), cleanup, nil
	default:
		return ref, cleanup, nil
	}
	if err != nil {
		return "", cleanup, err
	}

	tmp := localPath
	return localPath, func() { _ = os.Remove(tmp) }, nil
}

func downloadHTTPToTemp(ctx context.Context, url, tempDir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &dispatcher.FetchError{Ref: url, Err: err}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", &dispatcher.FetchError{Ref: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &dispatcher.FetchError{Ref: url, StatusCode: resp.StatusCode}
	}

	f, err := os.CreateTemp(tempDir, "pdfdl-*.pdf")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(f.Name())
		return "", &dispatcher.FetchError{Ref: url, Err: err}
	}
	return f.Name(), nil
}

func downloadS3ToTemp(ctx context.Context, s3url string, s3 Downloader, tempDir string) (string, error) {
	if s3 == nil {
		return "", &dispatcher.ValidationError{Message: fmt.Sprintf("s3 reference %s but no s3 storage configured", s3url)}
	}

	// s3://bucket/key, bucket part is informational since the client
	// is bound to one bucket
	path := strings.TrimPrefix(s3url, "s3://")
	slash := strings.Index(path, "/")
	if slash <= 0 {
		return "", &dispatcher.ValidationError{Message: fmt.Sprintf("invalid s3 url: %s", s3url)}
	}
	key := path[slash+1:]

	data, err := s3.Download(ctx, key)
	if err != nil {
		return "", &dispatcher.FetchError{Ref: s3url, Err: err}
	}

	f, err := os.CreateTemp(tempDir, "s3pdf-*.pdf")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	log.Info().Str("ref", s3url).Str("file", filepath.Base(f.Name())).Int("size", len(data)).Msg("downloaded s3 pdf to temp")
	return f.Name(), nil
}

// CleanupTemps removes temp files created by the download helpers in
// dir (the system temp dir when empty) older than maxAge.
func CleanupTemps(dir string, maxAge time.Duration) {
	if dir == "" {
		dir = os.TempDir()
	}
	now := time.Now()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, "pdfdl-") && !strings.HasPrefix(name, "s3pdf-") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) >= maxAge {
			_ = os.Remove(filepath.Join(dir, name))
		}
	}
}

var _ Downloader = (*storage.S3Client)(nil)
