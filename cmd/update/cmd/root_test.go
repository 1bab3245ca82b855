package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	manifestrepo "github.com/oshokin/kde-manifest-updater/internal/repository/manifest"
	"github.com/oshokin/kde-manifest-updater/internal/service/updater"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	command := newRootCommand(new(updater.Options))
	command.SetOut(&out)
	command.SetErr(&out)
	command.SetArgs(args)

	err := command.Execute()

	return out.String(), err
}

// TestRoot_RequiresVersions refuses to run without both version flags.
func TestRoot_RequiresVersions(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "org.kde.kcalc.json", "--version", "24.08.1")
	require.ErrorContains(t, err, "kf5version")

	_, err = execute(t, "org.kde.kcalc.json", "-k", "6.5.0")
	require.ErrorContains(t, err, "version")
}

// TestRoot_RequiresManifest takes exactly one positional argument.
func TestRoot_RequiresManifest(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "-v", "24.08.1", "-k", "6.5.0")
	require.Error(t, err)
}

// TestRoot_UnknownExtension reports the format error from the run.
func TestRoot_UnknownExtension(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "org.kde.kcalc.toml")

	_, err := execute(t, path, "-v", "24.08.1", "-k", "6.5.0")
	require.ErrorIs(t, err, manifestrepo.ErrUnrecognizedFormat)
}

// TestRoot_VersionSubcommand prints build metadata.
func TestRoot_VersionSubcommand(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "version")
	require.NoError(t, err)
	require.Contains(t, out, "kde-manifest-updater")
}
