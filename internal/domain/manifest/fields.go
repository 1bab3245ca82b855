package manifest

import (
	"gopkg.in/yaml.v3"
)

// field is one key/value pair of a mapping node.
type field struct {
	key   *yaml.Node
	value *yaml.Node
}

// fields is an ordered mapping that keeps the original nodes of every pair.
type fields struct {
	// template is the mapping node the pairs were read from, reused for its style and comments.
	template *yaml.Node
	pairs    []field
}

// decodeFields splits a mapping node into its pairs.
func decodeFields(node *yaml.Node) fields {
	f := fields{
		template: node,
		pairs:    make([]field, 0, len(node.Content)/2),
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		f.pairs = append(f.pairs, field{key: node.Content[i], value: node.Content[i+1]})
	}

	return f
}

// lookup returns the value node stored under key, or nil.
func (f *fields) lookup(key string) *yaml.Node {
	for _, p := range f.pairs {
		if p.key.Value == key {
			return p.value
		}
	}

	return nil
}

// scalar returns the text of the scalar stored under key. Aliases are followed.
func (f *fields) scalar(key string) (string, bool) {
	node := resolve(f.lookup(key))
	if node == nil || node.Kind != yaml.ScalarNode {
		return "", false
	}

	return node.Value, true
}

// set replaces the value under key in place, or appends a new pair.
func (f *fields) set(key string, value *yaml.Node) {
	for i := range f.pairs {
		if f.pairs[i].key.Value == key {
			f.pairs[i].value = value
			return
		}
	}

	f.pairs = append(f.pairs, field{key: stringNode(key), value: value})
}

// setString stores value under key as a string scalar. An equal scalar is left
// untouched; a replaced scalar keeps the quoting style and comments of the old one.
func (f *fields) setString(key, value string) {
	current := f.lookup(key)
	if current != nil && current.Kind == yaml.ScalarNode && current.Value == value {
		return
	}

	node := stringNode(value)
	if current != nil && current.Kind == yaml.ScalarNode {
		node.Style = current.Style
		node.Anchor = current.Anchor
		node.HeadComment = current.HeadComment
		node.LineComment = current.LineComment
		node.FootComment = current.FootComment
	}

	f.set(key, node)
}

// encode rebuilds the mapping node from the pairs.
func (f *fields) encode() *yaml.Node {
	out := cloneContainer(f.template, yaml.MappingNode, "!!map")

	out.Content = make([]*yaml.Node, 0, 2*len(f.pairs))
	for _, p := range f.pairs {
		out.Content = append(out.Content, p.key, p.value)
	}

	return out
}

// stringNode returns a new string scalar.
func stringNode(value string) *yaml.Node {
	return &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!str",
		Value: value,
	}
}

// cloneContainer copies template without its children, or builds an empty
// node of the given kind when there is no template. The clone takes the
// template's place in the output, so it keeps the anchor.
func cloneContainer(template *yaml.Node, kind yaml.Kind, tag string) *yaml.Node {
	if template == nil {
		return &yaml.Node{Kind: kind, Tag: tag}
	}

	out := *template
	out.Content = nil

	return &out
}

// resolve follows alias nodes to their target.
func resolve(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}

	return node
}
