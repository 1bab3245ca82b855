package updater

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/kde-manifest-updater/internal/domain/manifest"
	"github.com/oshokin/kde-manifest-updater/internal/domain/release"
	"github.com/oshokin/kde-manifest-updater/internal/logger"
)

var (
	errNoFamily   = errors.New("source url belongs to no release family")
	errNoFetcher  = errors.New("artifact fetcher is not configured")
	errNoVerifier = errors.New("signature verifier is not configured")
)

// SourceUpdater points one archive source at the tarball of the requested release.
type SourceUpdater struct {
	baseURL  string
	fetcher  ArtifactFetcher
	verifier SignatureVerifier
}

// NewSourceUpdater wires the download and verification steps.
// An empty baseURL means release.DefaultBaseURL.
func NewSourceUpdater(baseURL string, fetcher ArtifactFetcher, verifier SignatureVerifier) (*SourceUpdater, error) {
	if fetcher == nil {
		return nil, errNoFetcher
	}

	if verifier == nil {
		return nil, errNoVerifier
	}

	if baseURL == "" {
		baseURL = release.DefaultBaseURL
	}

	return &SourceUpdater{
		baseURL:  baseURL,
		fetcher:  fetcher,
		verifier: verifier,
	}, nil
}

// Update fetches and verifies the new tarball for source and stores its url
// and checksum. The source is left untouched on any error. It reports
// whether the url or the checksum changed.
func (u *SourceUpdater) Update(
	ctx context.Context,
	module *manifest.Module,
	source *manifest.Source,
	versions release.Versions,
) (bool, error) {
	family, ok := release.Classify(source.URL())
	if !ok {
		return false, fmt.Errorf("%s: %w", source.URL(), errNoFamily)
	}

	url := release.BuildURL(
		u.baseURL,
		family,
		module.Name,
		versions.For(family),
		release.IsPortingAid(source.URL()),
	)

	artifact, err := u.fetcher.Fetch(ctx, url)
	if err != nil {
		return false, err
	}

	if err = u.verifier.Verify(ctx, url, artifact.Data); err != nil {
		return false, err
	}

	changed := source.URL() != url || source.SHA256() != artifact.SHA256
	source.SetArtifact(url, artifact.SHA256)

	logger.InfoKV(ctx, "Source verified",
		"family", family,
		"url", url,
		"sha256", artifact.SHA256,
		"changed", changed)

	return changed, nil
}
