package manifest

import (
	"bytes"
	"context"
	"crypto"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"

	domain "github.com/oshokin/kde-manifest-updater/internal/domain/manifest"
)

// Repository loads and stores a single manifest.
type Repository interface {
	Load(ctx context.Context) (*domain.Manifest, error)
	Save(ctx context.Context, m *domain.Manifest) error
}

// FileRepository keeps a manifest in a file whose extension selects the codec.
type FileRepository struct {
	// path is the manifest location with symlinks resolved, so saving replaces the target.
	path string
	// codec serializes the manifest in the file's format.
	codec Codec
}

// NewFileRepository picks the codec for path. It fails with
// ErrUnrecognizedFormat before touching the filesystem.
func NewFileRepository(path string) (*FileRepository, error) {
	codec, err := CodecFor(path)
	if err != nil {
		return nil, err
	}

	path = filepath.Clean(path)
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}

	return &FileRepository{
		path:  path,
		codec: codec,
	}, nil
}

// Path returns the file the repository reads and writes.
func (r *FileRepository) Path() string {
	return r.path
}

// Codec returns the codec chosen for the file.
//
//nolint:ireturn // The codec is exposed for logging only.
func (r *FileRepository) Codec() Codec {
	return r.codec
}

// Load reads and decodes the manifest.
func (r *FileRepository) Load(_ context.Context) (*domain.Manifest, error) {
	contents, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	m, err := r.codec.Decode(contents)
	if err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", r.path, err)
	}

	return m, nil
}

// Save encodes the manifest and swaps it in for the existing file. The new
// contents are written next to the target, checked against their SHA-256 and
// renamed over it, keeping the original permissions.
func (r *FileRepository) Save(_ context.Context, m *domain.Manifest) error {
	data, err := r.codec.Encode(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	info, err := os.Stat(r.path)
	if err != nil {
		return fmt.Errorf("stat manifest: %w", err)
	}

	checksum := sha256.Sum256(data)
	options := goupdate.Options{
		TargetPath: r.path,
		TargetMode: info.Mode().Perm(),
		Checksum:   checksum[:],
		Hash:       crypto.SHA256,
	}

	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}

	return nil
}
