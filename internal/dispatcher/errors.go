package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ValidationError represents a fatal input error that retrying cannot fix.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// FetchError represents a failure to retrieve the source document.
type FetchError struct {
	Ref        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.Ref, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.Ref, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// isTransientError reports whether a retry could plausibly succeed.
func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		// 5xx and 429 from remote sources are transient
		if fetchErr.StatusCode >= 500 && fetchErr.StatusCode < 600 {
			return true
		}
		if fetchErr.StatusCode == 429 {
			return true
		}
		// No status means a network-level failure
		if fetchErr.StatusCode == 0 {
			return true
		}
	}

	// Network errors (connection issues, timeouts)
	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "network") ||
		strings.Contains(errStr, "eof") {
		return true
	}

	return false
}

// isFatalError reports whether the job should go straight to the DLQ.
func isFatalError(err error) bool {
	if err == nil {
		return false
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return true
	}

	if errors.Is(err, os.ErrNotExist) {
		return true
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		if fetchErr.StatusCode >= 400 && fetchErr.StatusCode < 500 && fetchErr.StatusCode != 429 {
			return true
		}
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "unsupported file type") ||
		strings.Contains(errStr, "malformed") ||
		strings.Contains(errStr, "not a pdf") {
		return true
	}

	return false
}
