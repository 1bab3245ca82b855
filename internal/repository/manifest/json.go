package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	domain "github.com/oshokin/kde-manifest-updater/internal/domain/manifest"
)

// jsonIndent is the indentation of written JSON manifests.
const jsonIndent = "    "

var (
	errInvalidJSON     = errors.New("invalid json")
	errUnsupportedNode = errors.New("unsupported node kind")
	errUnexpectedToken = errors.New("unexpected json token")
)

// jsonCodec turns the token stream of a JSON manifest into a yaml.v3 node
// tree and writes the tree back as indented JSON. Going through nodes keeps
// the key order of objects, which encoding/json maps lose.
type jsonCodec struct{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Decode(data []byte) (*domain.Manifest, error) {
	if !json.Valid(data) {
		return nil, errInvalidJSON
	}

	reader := newJSONReader(data)

	root, err := reader.value()
	if err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	return domain.Decode(&yaml.Node{
		Kind:    yaml.DocumentNode,
		Line:    1,
		Column:  1,
		Content: []*yaml.Node{root},
	})
}

func (jsonCodec) Encode(m *domain.Manifest) ([]byte, error) {
	w := new(jsonWriter)
	if err := w.write(m.Encode(), 0); err != nil {
		return nil, err
	}

	w.buf.WriteByte('\n')

	return w.buf.Bytes(), nil
}

// jsonReader builds yaml.v3 nodes from encoding/json tokens. Strings arrive
// already unescaped, so every JSON escape is accepted, and numbers keep
// their literal text.
type jsonReader struct {
	decoder *json.Decoder
	data    []byte
	offset  int64
	line    int
}

func newJSONReader(data []byte) *jsonReader {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	return &jsonReader{
		decoder: decoder,
		data:    data,
		line:    1,
	}
}

func (r *jsonReader) value() (*yaml.Node, error) {
	token, err := r.decoder.Token()
	if err != nil {
		return nil, err
	}

	line := r.position()

	switch v := token.(type) {
	case json.Delim:
		switch v {
		case '{':
			return r.object(line)
		case '[':
			return r.array(line)
		}
	case string:
		return jsonScalar("!!str", v, yaml.DoubleQuotedStyle, line), nil
	case json.Number:
		tag := "!!int"
		if strings.ContainsAny(v.String(), ".eE") {
			tag = "!!float"
		}

		return jsonScalar(tag, v.String(), 0, line), nil
	case bool:
		return jsonScalar("!!bool", strconv.FormatBool(v), 0, line), nil
	case nil:
		return jsonScalar("!!null", "null", 0, line), nil
	}

	return nil, fmt.Errorf("%w: %v at line %d", errUnexpectedToken, token, line)
}

func (r *jsonReader) object(line int) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Line: line}

	for r.decoder.More() {
		token, err := r.decoder.Token()
		if err != nil {
			return nil, err
		}

		key, ok := token.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %v at line %d", errUnexpectedToken, token, r.position())
		}

		keyNode := jsonScalar("!!str", key, yaml.DoubleQuotedStyle, r.position())

		value, err := r.value()
		if err != nil {
			return nil, err
		}

		node.Content = append(node.Content, keyNode, value)
	}

	// Closing brace.
	if _, err := r.decoder.Token(); err != nil {
		return nil, err
	}

	return node, nil
}

func (r *jsonReader) array(line int) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Line: line}

	for r.decoder.More() {
		item, err := r.value()
		if err != nil {
			return nil, err
		}

		node.Content = append(node.Content, item)
	}

	// Closing bracket.
	if _, err := r.decoder.Token(); err != nil {
		return nil, err
	}

	return node, nil
}

// position returns the line the decoder has read up to.
func (r *jsonReader) position() int {
	offset := r.decoder.InputOffset()
	r.line += bytes.Count(r.data[r.offset:offset], []byte{'\n'})
	r.offset = offset

	return r.line
}

func jsonScalar(tag, value string, style yaml.Style, line int) *yaml.Node {
	return &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   tag,
		Value: value,
		Style: style,
		Line:  line,
	}
}

// jsonWriter renders a yaml.v3 node tree as indented JSON.
type jsonWriter struct {
	buf bytes.Buffer
}

func (w *jsonWriter) write(node *yaml.Node, depth int) error {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			w.buf.WriteString("null")
			return nil
		}

		return w.write(node.Content[0], depth)
	case yaml.AliasNode:
		return w.write(node.Alias, depth)
	case yaml.MappingNode:
		return w.object(node, depth)
	case yaml.SequenceNode:
		return w.array(node, depth)
	case yaml.ScalarNode:
		return w.scalar(node)
	default:
		return fmt.Errorf("%w: %d at line %d", errUnsupportedNode, node.Kind, node.Line)
	}
}

func (w *jsonWriter) object(node *yaml.Node, depth int) error {
	if len(node.Content) == 0 {
		w.buf.WriteString("{}")
		return nil
	}

	w.buf.WriteString("{\n")

	for i := 0; i+1 < len(node.Content); i += 2 {
		w.indent(depth + 1)

		if err := w.str(node.Content[i].Value); err != nil {
			return err
		}

		w.buf.WriteString(": ")

		if err := w.write(node.Content[i+1], depth+1); err != nil {
			return err
		}

		if i+2 < len(node.Content) {
			w.buf.WriteByte(',')
		}

		w.buf.WriteByte('\n')
	}

	w.indent(depth)
	w.buf.WriteByte('}')

	return nil
}

func (w *jsonWriter) array(node *yaml.Node, depth int) error {
	if len(node.Content) == 0 {
		w.buf.WriteString("[]")
		return nil
	}

	w.buf.WriteString("[\n")

	for i, item := range node.Content {
		w.indent(depth + 1)

		if err := w.write(item, depth+1); err != nil {
			return err
		}

		if i+1 < len(node.Content) {
			w.buf.WriteByte(',')
		}

		w.buf.WriteByte('\n')
	}

	w.indent(depth)
	w.buf.WriteByte(']')

	return nil
}

// scalar writes numbers as they were read so 1.0 stays 1.0.
func (w *jsonWriter) scalar(node *yaml.Node) error {
	switch node.ShortTag() {
	case "!!null":
		w.buf.WriteString("null")
		return nil
	case "!!bool":
		if value, err := strconv.ParseBool(node.Value); err == nil {
			w.buf.WriteString(strconv.FormatBool(value))
			return nil
		}
	case "!!int", "!!float":
		if json.Valid([]byte(node.Value)) {
			w.buf.WriteString(node.Value)
			return nil
		}
	}

	return w.str(node.Value)
}

// str writes a JSON string without escaping HTML characters or non-ASCII text.
func (w *jsonWriter) str(value string) error {
	var out bytes.Buffer

	encoder := json.NewEncoder(&out)
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(value); err != nil {
		return fmt.Errorf("encode string: %w", err)
	}

	w.buf.WriteString(strings.TrimSuffix(out.String(), "\n"))

	return nil
}

func (w *jsonWriter) indent(depth int) {
	for range depth {
		w.buf.WriteString(jsonIndent)
	}
}
