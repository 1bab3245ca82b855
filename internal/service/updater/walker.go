package updater

import (
	"context"
	"fmt"

	"github.com/oshokin/kde-manifest-updater/internal/domain/manifest"
	"github.com/oshokin/kde-manifest-updater/internal/domain/release"
	"github.com/oshokin/kde-manifest-updater/internal/logger"
)

// walker visits modules depth-first: a module's own sources in order, then
// its nested modules. The first failing source stops the walk.
type walker struct {
	updater  *SourceUpdater
	versions release.Versions
	summary  Summary
}

func newWalker(updater *SourceUpdater, versions release.Versions) *walker {
	return &walker{
		updater:  updater,
		versions: versions,
	}
}

// walk processes entries and their descendants.
// External references and aliases are never expanded.
func (w *walker) walk(ctx context.Context, entries []manifest.Entry) error {
	for _, entry := range entries {
		module, ok := entry.(*manifest.Module)
		if !ok {
			continue
		}

		if err := w.walkModule(ctx, module); err != nil {
			return err
		}
	}

	return nil
}

func (w *walker) walkModule(ctx context.Context, module *manifest.Module) error {
	moduleCtx := logger.WithKV(ctx, "module", module.Name)

	for _, source := range module.Sources {
		if !source.IsArchive() {
			continue
		}

		if _, ok := release.Classify(source.URL()); !ok {
			w.summary.Skipped++
			logger.DebugKV(moduleCtx, "Skipping archive outside KDE release families", "url", source.URL())

			continue
		}

		current := source.URL()

		changed, err := w.updater.Update(logger.WithKV(moduleCtx, "source", current), module, source, w.versions)
		if err != nil {
			return fmt.Errorf("module %s, source %s: %w", module.Name, current, err)
		}

		if changed {
			w.summary.Updated++
		} else {
			w.summary.Unchanged++
		}
	}

	return w.walk(ctx, module.Modules)
}
