package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/oshokin/kde-manifest-updater/internal/domain/release"
)

// Config holds the tunables of an update run.
type Config struct {
	// BaseURL is the root of the KDE download mirror.
	BaseURL string `mapstructure:"base_url"`
	// GPGBinary is the OpenPGP tool used to check detached signatures.
	GPGBinary string `mapstructure:"gpg_binary"`
	// GPGArgs are passed to the OpenPGP tool before --verify, e.g. a --keyring.
	GPGArgs []string `mapstructure:"gpg_args"`
	// ChunkSize is the read size used while streaming artifacts.
	ChunkSize int `mapstructure:"chunk_size"`
	// HTTPTimeout bounds each HTTP request. Zero means no timeout.
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	// LogLevel is the minimum level of emitted log records.
	LogLevel string `mapstructure:"log_level"`
}

const (
	// DefaultConfigFilename is read from the working directory when no path is given.
	DefaultConfigFilename = "kde-update.yaml"

	// DefaultBaseURL is the canonical KDE download host.
	DefaultBaseURL = release.DefaultBaseURL

	// DefaultGPGBinary is the OpenPGP tool invoked for signature checks.
	DefaultGPGBinary = "gpg2"

	// DefaultChunkSize is the streaming read size in bytes.
	DefaultChunkSize = 4096

	// DefaultLogLevel is used when nothing else is configured.
	DefaultLogLevel = "info"

	// envPrefix scopes environment overrides, e.g. KDE_UPDATE_BASE_URL.
	envPrefix = "KDE_UPDATE"
)

var (
	// errBaseURLRequired is returned when the mirror URL is blank.
	errBaseURLRequired = errors.New("base url must be provided")
	// errBadChunkSize is returned for a non-positive chunk size.
	errBadChunkSize = errors.New("chunk size must be positive")
	// errBadTimeout is returned for a negative HTTP timeout.
	errBadTimeout = errors.New("http timeout must not be negative")
	// errGPGBinaryRequired is returned when no OpenPGP tool is configured.
	errGPGBinaryRequired = errors.New("gpg binary must be provided")
)

// Default returns the configuration used when no file or environment overrides exist.
func Default() *Config {
	return &Config{
		BaseURL:   DefaultBaseURL,
		GPGBinary: DefaultGPGBinary,
		GPGArgs:   []string{},
		ChunkSize: DefaultChunkSize,
		LogLevel:  DefaultLogLevel,
	}
}

// Load reads the configuration file at path, applies KDE_UPDATE_* environment
// overrides and validates the result.
// An empty path reads DefaultConfigFilename if it exists; a missing explicit path is an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := Default()
	v.SetDefault("base_url", defaults.BaseURL)
	v.SetDefault("gpg_binary", defaults.GPGBinary)
	v.SetDefault("gpg_args", defaults.GPGArgs)
	v.SetDefault("chunk_size", defaults.ChunkSize)
	v.SetDefault("http_timeout", defaults.HTTPTimeout)
	v.SetDefault("log_level", defaults.LogLevel)

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFilename
	}

	path = filepath.Clean(path)

	switch _, err := os.Stat(path); {
	case err == nil:
		v.SetConfigFile(path)

		if err = v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read settings %s: %w", path, err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the settings and normalizes the base URL.
func Validate(cfg *Config) error {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return errBaseURLRequired
	}

	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return fmt.Errorf("invalid base url: %w", err)
	}

	if strings.TrimSpace(cfg.GPGBinary) == "" {
		return errGPGBinaryRequired
	}

	if cfg.ChunkSize <= 0 {
		return fmt.Errorf("%w: %d", errBadChunkSize, cfg.ChunkSize)
	}

	if cfg.HTTPTimeout < 0 {
		return fmt.Errorf("%w: %s", errBadTimeout, cfg.HTTPTimeout)
	}

	return nil
}
