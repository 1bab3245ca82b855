package updater

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/oshokin/kde-manifest-updater/internal/config"
	"github.com/oshokin/kde-manifest-updater/internal/domain/release"
	"github.com/oshokin/kde-manifest-updater/internal/logger"
	"github.com/oshokin/kde-manifest-updater/internal/repository/lock"
	manifestrepo "github.com/oshokin/kde-manifest-updater/internal/repository/manifest"
	"github.com/oshokin/kde-manifest-updater/internal/service/fetcher"
	"github.com/oshokin/kde-manifest-updater/internal/service/signature"
)

var (
	errManifestRequired          = errors.New("manifest path must be provided")
	errVersionRequired           = errors.New("applications version must be provided")
	errFrameworksVersionRequired = errors.New("frameworks version must be provided")
	errBadLogLevel               = errors.New("unknown log level")
)

// Options are inputs accepted by the update entry point.
type Options struct {
	// ManifestPath is the .json, .yaml or .yml manifest to rewrite in place.
	ManifestPath string
	// ConfigPath is the optional settings file. Empty means kde-update.yaml if present.
	ConfigPath string
	// Version is the target release-service version.
	Version string
	// FrameworksVersion is the target KDE Frameworks version.
	FrameworksVersion string
	// LogLevel overrides the configured log level when set.
	LogLevel string
}

// runner holds the state of a single update run.
// Call Run(ctx, Options) from callers.
type runner struct {
	cfg      *config.Config
	repo     *manifestrepo.FileRepository
	lock     *lock.Lock
	versions release.Versions
}

// Run updates the manifest and is the public entry point for the CLI.
// The file is written only when every eligible source was fetched and
// verified; on any error it is left as it was.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "update")

	r, err := newRunner(opts)
	if err != nil {
		return err
	}

	defer r.cleanup(ctx)

	if err = r.run(ctx); err != nil {
		logger.ErrorKV(ctx, "Update failed", "manifest", r.repo.Path(), "error", err)
		return err
	}

	return nil
}

// newRunner validates the options, picks the manifest codec before touching
// the file, loads settings and takes the manifest lock.
func newRunner(opts *Options) (*runner, error) {
	if opts == nil {
		opts = new(Options)
	}

	versions := release.Versions{
		Applications: strings.TrimSpace(opts.Version),
		Frameworks:   strings.TrimSpace(opts.FrameworksVersion),
	}

	switch {
	case strings.TrimSpace(opts.ManifestPath) == "":
		return nil, errManifestRequired
	case versions.Applications == "":
		return nil, errVersionRequired
	case versions.Frameworks == "":
		return nil, errFrameworksVersionRequired
	}

	repo, err := manifestrepo.NewFileRepository(opts.ManifestPath)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	if err = applyLogLevel(opts.LogLevel, cfg.LogLevel); err != nil {
		return nil, err
	}

	held, err := lock.Acquire(repo.Path())
	if err != nil {
		return nil, err
	}

	return &runner{
		cfg:      cfg,
		repo:     repo,
		lock:     held,
		versions: versions,
	}, nil
}

func (r *runner) run(ctx context.Context) error {
	logger.InfoKV(ctx, "Loading manifest",
		"manifest", r.repo.Path(),
		"format", r.repo.Codec().Name())

	m, err := r.repo.Load(ctx)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: r.cfg.HTTPTimeout}

	sources, err := NewSourceUpdater(
		r.cfg.BaseURL,
		fetcher.New(client, fetcher.WithChunkSize(r.cfg.ChunkSize)),
		signature.NewGPGVerifier(client, r.cfg.GPGBinary, r.cfg.GPGArgs),
	)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Updating sources",
		"version", r.versions.Applications,
		"kf5version", r.versions.Frameworks)

	w := newWalker(sources, r.versions)
	if err = w.walk(ctx, m.Modules); err != nil {
		return err
	}

	if err = r.repo.Save(ctx, m); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Manifest updated",
		"manifest", r.repo.Path(),
		"updated", w.summary.Updated,
		"unchanged", w.summary.Unchanged,
		"skipped", w.summary.Skipped)

	return nil
}

// cleanup releases the manifest lock.
func (r *runner) cleanup(ctx context.Context) {
	if err := r.lock.Release(); err != nil {
		logger.WarnKV(ctx, "Unable to release manifest lock", "error", err)
	}
}

func applyLogLevel(override, configured string) error {
	name := override
	if name == "" {
		name = configured
	}

	level, ok := logger.ParseLogLevel(name)
	if !ok {
		return fmt.Errorf("%w: %q", errBadLogLevel, name)
	}

	logger.SetLevel(level)

	return nil
}
