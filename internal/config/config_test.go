package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields and URL normalization.
func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.BaseURL = ""
	require.ErrorIs(t, Validate(cfg), errBaseURLRequired)

	cfg = Default()
	cfg.BaseURL = "not a url"
	require.Error(t, Validate(cfg))

	cfg = Default()
	cfg.ChunkSize = 0
	require.ErrorIs(t, Validate(cfg), errBadChunkSize)

	cfg = Default()
	cfg.GPGBinary = " "
	require.ErrorIs(t, Validate(cfg), errGPGBinaryRequired)

	cfg = Default()
	cfg.HTTPTimeout = -time.Second
	require.ErrorIs(t, Validate(cfg), errBadTimeout)

	cfg = Default()
	cfg.BaseURL = "https://mirror.example.org/kde/"
	require.NoError(t, Validate(cfg))
	require.Equal(t, "https://mirror.example.org/kde", cfg.BaseURL)
}

// TestLoad_File reads every key from a YAML file.
func TestLoad_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	contents := []byte(`base_url: http://127.0.0.1:8080/
gpg_binary: /usr/bin/gpg
gpg_args: ["--keyring", "/etc/kde.gpg"]
chunk_size: 8192
http_timeout: 30s
log_level: debug
`)
	require.NoError(t, os.WriteFile(path, contents, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:8080", cfg.BaseURL)
	require.Equal(t, "/usr/bin/gpg", cfg.GPGBinary)
	require.Equal(t, []string{"--keyring", "/etc/kde.gpg"}, cfg.GPGArgs)
	require.Equal(t, 8192, cfg.ChunkSize)
	require.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	require.Equal(t, "debug", cfg.LogLevel)
}

// TestLoad_MissingExplicitFile fails when the caller names a file that does not exist.
func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestLoad_DefaultsAndEnvironment covers the implicit file lookup and env overrides.
func TestLoad_DefaultsAndEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, DefaultBaseURL, cfg.BaseURL)
	require.Equal(t, DefaultGPGBinary, cfg.GPGBinary)
	require.Empty(t, cfg.GPGArgs)
	require.Equal(t, DefaultChunkSize, cfg.ChunkSize)
	require.Zero(t, cfg.HTTPTimeout)
	require.Equal(t, DefaultLogLevel, cfg.LogLevel)

	t.Setenv("KDE_UPDATE_BASE_URL", "https://mirror.example.org")
	t.Setenv("KDE_UPDATE_CHUNK_SIZE", "1024")

	cfg, err = Load("")
	require.NoError(t, err)
	require.Equal(t, "https://mirror.example.org", cfg.BaseURL)
	require.Equal(t, 1024, cfg.ChunkSize)
	require.Equal(t, DefaultGPGBinary, cfg.GPGBinary)
}
