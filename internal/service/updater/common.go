package updater

import (
	"context"

	"github.com/oshokin/kde-manifest-updater/internal/service/fetcher"
)

// ArtifactFetcher downloads a tarball and reports its digest.
type ArtifactFetcher interface {
	Fetch(ctx context.Context, url string) (*fetcher.Artifact, error)
}

// SignatureVerifier checks the detached signature of downloaded content.
type SignatureVerifier interface {
	Verify(ctx context.Context, url string, content []byte) error
}

// Summary counts what a walk did to the archive sources it met.
type Summary struct {
	// Updated sources got a new url or sha256.
	Updated int
	// Unchanged sources were fetched and verified but already current.
	Unchanged int
	// Skipped sources are archives outside both release families.
	Skipped int
}
