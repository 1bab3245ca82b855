package manifest

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	domain "github.com/oshokin/kde-manifest-updater/internal/domain/manifest"
)

// yamlIndent matches the two-space layout flatpak manifests use.
const yamlIndent = 2

// yamlCodec reads and writes YAML manifests through yaml.v3 nodes, which keep
// key order and comments.
type yamlCodec struct{}

func (yamlCodec) Name() string {
	return "yaml"
}

func (yamlCodec) Decode(data []byte) (*domain.Manifest, error) {
	var document yaml.Node
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	return domain.Decode(&document)
}

func (yamlCodec) Encode(m *domain.Manifest) ([]byte, error) {
	var buf bytes.Buffer

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(yamlIndent)

	if err := encoder.Encode(m.Encode()); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}

	return buf.Bytes(), nil
}
