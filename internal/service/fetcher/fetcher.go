package fetcher

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/oshokin/kde-manifest-updater/internal/logger"
)

// DefaultChunkSize is the read size used when none is configured.
const DefaultChunkSize = 4096

// Artifact is a fully received download.
type Artifact struct {
	// URL the bytes were fetched from.
	URL string
	// Data is the complete body.
	Data []byte
	// SHA256 is the lowercase hex digest of Data.
	SHA256 string
	// Size is the number of bytes received.
	Size int64
}

// Fetcher downloads artifacts over HTTP.
type Fetcher struct {
	client      *http.Client
	chunkSize   int
	interactive bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithChunkSize sets the read size. Non-positive values keep the default.
func WithChunkSize(size int) Option {
	return func(f *Fetcher) {
		if size > 0 {
			f.chunkSize = size
		}
	}
}

// WithProgress draws a progress bar when w is a terminal.
// Otherwise progress goes to debug logs.
func WithProgress(w io.Writer) Option {
	return func(f *Fetcher) {
		f.interactive = isTerminal(w)
	}
}

// New returns a Fetcher using client, or http.DefaultClient when nil.
// A progress bar is drawn if stderr is a terminal.
func New(client *http.Client, opts ...Option) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}

	f := &Fetcher{
		client:      client,
		chunkSize:   DefaultChunkSize,
		interactive: isTerminal(os.Stderr),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch downloads url. The body is read in chunks, each one appended to the
// buffer and fed to the SHA-256 hasher. When the server declared a length,
// receiving any other number of bytes fails with *SizeMismatchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Artifact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, &DownloadError{URL: url, Err: err}
	}

	logger.DebugKV(ctx, "Downloading", "url", url)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &DownloadError{URL: url, Err: err}
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &DownloadError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	expected := max(resp.ContentLength, 0)

	var data bytes.Buffer
	if expected > 0 {
		data.Grow(int(expected))
	}

	hasher := sha256.New()
	meter := newProgress(ctx, f.interactive, url, expected)

	// The anonymous struct hides WriterTo so reads happen in chunkSize pieces.
	received, err := io.CopyBuffer(
		io.MultiWriter(&data, hasher, meter),
		struct{ io.Reader }{resp.Body},
		make([]byte, f.chunkSize),
	)

	meter.finish()

	if err != nil {
		if expected > 0 && errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &SizeMismatchError{URL: url, Expected: expected, Received: received}
		}

		return nil, &DownloadError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status, Err: err}
	}

	if expected > 0 && received != expected {
		return nil, &SizeMismatchError{URL: url, Expected: expected, Received: received}
	}

	artifact := &Artifact{
		URL:    url,
		Data:   data.Bytes(),
		SHA256: hex.EncodeToString(hasher.Sum(nil)),
		Size:   received,
	}

	logger.DebugKV(ctx, "Downloaded", "url", url, "bytes", artifact.Size, "sha256", artifact.SHA256)

	return artifact, nil
}
