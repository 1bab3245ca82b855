package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/kde-manifest-updater/internal/domain/manifest"
)

// TestNewFileRepository_UnknownExtension fails before reading anything.
func TestNewFileRepository_UnknownExtension(t *testing.T) {
	t.Parallel()

	repo, err := NewFileRepository(filepath.Join(t.TempDir(), "missing.toml"))
	require.ErrorIs(t, err, ErrUnrecognizedFormat)
	require.Nil(t, repo)
}

// TestFileRepository_LoadMissing reports the filesystem error.
func TestFileRepository_LoadMissing(t *testing.T) {
	t.Parallel()

	repo, err := NewFileRepository(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	m, err := repo.Load(context.Background())
	require.ErrorIs(t, err, os.ErrNotExist)
	require.Nil(t, m)
}

// TestFileRepository_SaveLoad_Roundtrip saves an updated manifest and keeps the file mode.
func TestFileRepository_SaveLoad_Roundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "org.kde.kcalc.json")
	require.NoError(t, os.WriteFile(path, []byte(jsonManifest), 0o640))

	repo, err := NewFileRepository(path)
	require.NoError(t, err)
	require.Equal(t, "json", repo.Codec().Name())

	m, err := repo.Load(context.Background())
	require.NoError(t, err)

	source := m.Modules[1].(*domain.Module).Sources[0]
	source.SetArtifact("https://download.kde.org/stable/release-service/24.08.1/src/kcalc-24.08.1.tar.xz", "abcd")

	require.NoError(t, repo.Save(context.Background(), m))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	loaded, err := repo.Load(context.Background())
	require.NoError(t, err)

	got := loaded.Modules[1].(*domain.Module).Sources[0]
	require.Equal(t, "abcd", got.SHA256())
	require.Equal(t, source.URL(), got.URL())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")
}

// TestFileRepository_SaveThroughSymlink replaces the link target, not the link.
func TestFileRepository_SaveThroughSymlink(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "real.yaml")
	link := filepath.Join(dir, "org.kde.kcalc.yaml")

	require.NoError(t, os.WriteFile(target, []byte(yamlManifest), 0o644))
	require.NoError(t, os.Symlink(target, link))

	repo, err := NewFileRepository(link)
	require.NoError(t, err)

	m, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), m))

	info, err := os.Lstat(link)
	require.NoError(t, err)
	require.NotZero(t, info.Mode()&os.ModeSymlink)
}
