package fetcher

import (
	"errors"
	"fmt"
)

var (
	// ErrDownload classifies transport failures and non-success HTTP statuses.
	ErrDownload = errors.New("download failed")
	// ErrSizeMismatch classifies bodies that do not match the declared length.
	ErrSizeMismatch = errors.New("download size mismatch")
)

// DownloadError describes a failed request for an artifact.
// StatusCode is zero when no response was received.
type DownloadError struct {
	URL        string
	StatusCode int
	Status     string
	Err        error
}

func (e *DownloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("download %s: %v", e.URL, e.Err)
	}

	return fmt.Sprintf("download %s: unexpected status %s", e.URL, e.Status)
}

// Unwrap returns ErrDownload and the transport error, if any.
func (e *DownloadError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrDownload, e.Err}
	}

	return []error{ErrDownload}
}

// SizeMismatchError reports a body shorter or longer than its Content-Length.
type SizeMismatchError struct {
	URL      string
	Expected int64
	Received int64
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("download %s: expected %d bytes, received %d", e.URL, e.Expected, e.Received)
}

// Unwrap returns ErrSizeMismatch so callers can use errors.Is.
func (e *SizeMismatchError) Unwrap() error { return ErrSizeMismatch }
