package manifest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	domain "github.com/oshokin/kde-manifest-updater/internal/domain/manifest"
)

// ErrUnrecognizedFormat is returned for manifest files that are neither JSON nor YAML.
var ErrUnrecognizedFormat = errors.New("unrecognized manifest file type")

// Codec converts between manifest bytes and the manifest tree.
type Codec interface {
	// Name identifies the format in logs.
	Name() string
	// Decode parses a manifest.
	Decode(data []byte) (*domain.Manifest, error)
	// Encode serializes a manifest.
	Encode(m *domain.Manifest) ([]byte, error)
}

// CodecFor selects the codec matching the extension of path.
//
//nolint:ireturn // Callers only need the capability, not the concrete codec.
func CodecFor(path string) (Codec, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return jsonCodec{}, nil
	case ".yaml", ".yml":
		return yamlCodec{}, nil
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnrecognizedFormat)
	}
}
