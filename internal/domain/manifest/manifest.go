package manifest

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/kde-manifest-updater/internal/domain/release"
)

const (
	keyModules = "modules"
	keySources = "sources"
	keyName    = "name"
	keyType    = "type"
	keyURL     = "url"
	keySHA256  = "sha256"

	// TypeArchive is the only source type the updater rewrites.
	TypeArchive = "archive"
)

var (
	// ErrMalformed is wrapped by every structural error found while decoding.
	ErrMalformed = errors.New("malformed manifest")

	errEmptyDocument = errors.New("document is empty")
	errNotMapping    = errors.New("expected a mapping")
	errNotSequence   = errors.New("expected a sequence")
	errNoModules     = errors.New("missing modules list")
	errBadEntry      = errors.New("unsupported entry")
	errUnnamedModule = errors.New("module with KDE sources has no name")
)

// Manifest is the root of a build manifest.
type Manifest struct {
	// Modules is the top-level module list, in document order.
	Modules []Entry

	fields      fields
	document    *yaml.Node
	modulesNode *yaml.Node
}

// Entry is an element of a modules list: *Module, *ExternalRef or *Alias.
type Entry interface {
	entryNode() *yaml.Node
}

// ExternalRef is a module given as a bare file name. It carries no sources.
type ExternalRef struct {
	// Name is the token as written in the manifest.
	Name string

	node *yaml.Node
}

// Alias is a YAML alias to a module anchored elsewhere in the document.
// It is written back as the alias and never walked twice.
type Alias struct {
	// Anchor is the name of the referenced anchor.
	Anchor string

	node *yaml.Node
}

// Module is a structured module with its own sources and optional children.
type Module struct {
	// Name is the module name used to build tarball names. It is never rewritten.
	Name string
	// Sources lists the module sources in document order.
	Sources []*Source
	// Modules lists nested modules in document order.
	Modules []Entry

	fields      fields
	sourcesNode *yaml.Node
	modulesNode *yaml.Node
}

// Source is one entry of a module's sources list.
// Only url and sha256 can change, and only together through SetArtifact.
type Source struct {
	sourceType string
	url        string
	sha256     string
	// ref is set for sources written as a bare path to a separate source file.
	ref string

	fields fields
	raw    *yaml.Node
}

// Decode builds a Manifest from a parsed YAML node, either a document node or
// its root mapping.
func Decode(node *yaml.Node) (*Manifest, error) {
	m := new(Manifest)

	if node != nil && node.Kind == yaml.DocumentNode {
		m.document = node
		if len(node.Content) == 0 {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, errEmptyDocument)
		}

		node = node.Content[0]
	}

	node = resolve(node)
	if node == nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, errEmptyDocument)
	}

	if node.Kind != yaml.MappingNode {
		return nil, malformed(node, "manifest root", errNotMapping)
	}

	m.fields = decodeFields(node)

	m.modulesNode = resolve(m.fields.lookup(keyModules))
	if m.modulesNode == nil {
		return nil, malformed(node, "manifest root", errNoModules)
	}

	modules, err := decodeEntries(m.modulesNode)
	if err != nil {
		return nil, err
	}

	m.Modules = modules

	return m, nil
}

// Encode rebuilds a YAML document node reflecting the current tree.
func (m *Manifest) Encode() *yaml.Node {
	m.fields.set(keyModules, encodeEntries(m.modulesNode, m.Modules))

	doc := cloneContainer(m.document, yaml.DocumentNode, "")
	doc.Content = []*yaml.Node{m.fields.encode()}

	return doc
}

// Type returns the source type, e.g. "archive" or "git".
func (s *Source) Type() string {
	return s.sourceType
}

// URL returns the current download location.
func (s *Source) URL() string {
	return s.url
}

// SHA256 returns the current hex checksum.
func (s *Source) SHA256() string {
	return s.sha256
}

// Ref returns the file path of a source written as a bare string, or "".
func (s *Source) Ref() string {
	return s.ref
}

// IsArchive reports whether the source is a structured archive source.
func (s *Source) IsArchive() bool {
	return s.raw == nil && s.sourceType == TypeArchive
}

// SetArtifact points the source at a new tarball. URL and checksum always
// change together.
func (s *Source) SetArtifact(url, sha256 string) {
	if s.raw != nil {
		return
	}

	s.url = url
	s.sha256 = sha256
	s.fields.setString(keyURL, url)
	s.fields.setString(keySHA256, sha256)
}

func (r *ExternalRef) entryNode() *yaml.Node {
	return r.node
}

func (a *Alias) entryNode() *yaml.Node {
	return a.node
}

func (m *Module) entryNode() *yaml.Node {
	if m.sourcesNode != nil || len(m.Sources) > 0 {
		m.fields.set(keySources, encodeSources(m.sourcesNode, m.Sources))
	}

	if m.modulesNode != nil || len(m.Modules) > 0 {
		m.fields.set(keyModules, encodeEntries(m.modulesNode, m.Modules))
	}

	return m.fields.encode()
}

func (s *Source) node() *yaml.Node {
	if s.raw != nil {
		return s.raw
	}

	return s.fields.encode()
}

func decodeEntries(seq *yaml.Node) ([]Entry, error) {
	if seq.Kind != yaml.SequenceNode {
		return nil, malformed(seq, "modules", errNotSequence)
	}

	entries := make([]Entry, 0, len(seq.Content))

	for _, item := range seq.Content {
		entry, err := decodeEntry(item)
		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

func decodeEntry(node *yaml.Node) (Entry, error) {
	switch node.Kind {
	case yaml.AliasNode:
		return &Alias{Anchor: node.Value, node: node}, nil
	case yaml.ScalarNode:
		return &ExternalRef{Name: node.Value, node: node}, nil
	case yaml.MappingNode:
		return decodeModule(node)
	default:
		return nil, malformed(node, "module", errBadEntry)
	}
}

func decodeModule(node *yaml.Node) (*Module, error) {
	m := &Module{fields: decodeFields(node)}
	m.Name, _ = m.fields.scalar(keyName)

	if m.sourcesNode = resolve(m.fields.lookup(keySources)); m.sourcesNode != nil {
		if m.sourcesNode.Kind != yaml.SequenceNode {
			return nil, malformed(m.sourcesNode, "sources of "+m.Name, errNotSequence)
		}

		m.Sources = make([]*Source, 0, len(m.sourcesNode.Content))

		for _, item := range m.sourcesNode.Content {
			source, err := decodeSource(item)
			if err != nil {
				return nil, fmt.Errorf("module %s: %w", m.Name, err)
			}

			m.Sources = append(m.Sources, source)
		}

		if m.Name == "" && hasReleaseSource(m.Sources) {
			return nil, malformed(node, "module", errUnnamedModule)
		}
	}

	if m.modulesNode = resolve(m.fields.lookup(keyModules)); m.modulesNode != nil {
		children, err := decodeEntries(m.modulesNode)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", m.Name, err)
		}

		m.Modules = children
	}

	return m, nil
}

// hasReleaseSource reports whether any source is a KDE release tarball,
// whose URL is built from the module name.
func hasReleaseSource(sources []*Source) bool {
	for _, source := range sources {
		if _, ok := release.Classify(source.URL()); ok && source.IsArchive() {
			return true
		}
	}

	return false
}

func decodeSource(node *yaml.Node) (*Source, error) {
	switch node.Kind {
	case yaml.AliasNode:
		return &Source{raw: node}, nil
	case yaml.ScalarNode:
		return &Source{ref: node.Value, raw: node}, nil
	case yaml.MappingNode:
		s := &Source{fields: decodeFields(node)}
		s.sourceType, _ = s.fields.scalar(keyType)
		s.url, _ = s.fields.scalar(keyURL)
		s.sha256, _ = s.fields.scalar(keySHA256)

		return s, nil
	default:
		return nil, malformed(node, "source", errBadEntry)
	}
}

func encodeEntries(template *yaml.Node, entries []Entry) *yaml.Node {
	seq := cloneContainer(template, yaml.SequenceNode, "!!seq")

	seq.Content = make([]*yaml.Node, 0, len(entries))
	for _, entry := range entries {
		seq.Content = append(seq.Content, entry.entryNode())
	}

	return seq
}

func encodeSources(template *yaml.Node, sources []*Source) *yaml.Node {
	seq := cloneContainer(template, yaml.SequenceNode, "!!seq")

	seq.Content = make([]*yaml.Node, 0, len(sources))
	for _, source := range sources {
		seq.Content = append(seq.Content, source.node())
	}

	return seq
}

func malformed(node *yaml.Node, what string, err error) error {
	return fmt.Errorf("%w: %s at line %d: %w", ErrMalformed, what, node.Line, err)
}
