// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package yamlreader parses YAML into a source-tracked generic tree
// (spec.md section 4.3): every scalar, sequence item, and mapping entry
// carries a *sourcemap.Info, and interpretation tags (!md, !str, !path,
// !glob, !expr, !prefer, !concat) are recognized and attached without
// yet being resolved into configvalue.ConfigValue — that resolution
// needs an InterpretationContext and, for markdown tags, a markdown
// reader, both supplied one layer up by pkg/metatransform.
package yamlreader

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/quarto-go/qcore/pkg/sourcemap"
)

// NodeKind discriminates the Node tagged union.
type NodeKind int

// Recognized node kinds.
const (
	KindScalar NodeKind = iota
	KindSequence
	KindMapping
)

// Tag is the recognized interpretation/merge tag attached to a node, if
// any (spec 4.3/4.4).
type Tag int

// Recognized tags. TagNone means no explicit tag was present; the
// resolving layer falls back to its InterpretationContext default.
const (
	TagNone Tag = iota
	TagMarkdown    // !md
	TagPlainString // !str
	TagPath        // !path
	TagGlob        // !glob
	TagExpr        // !expr
	TagPrefer      // !prefer
	TagConcat      // !concat
)

var tagTable = map[string]Tag{
	"!md":     TagMarkdown,
	"!str":    TagPlainString,
	"!path":   TagPath,
	"!glob":   TagGlob,
	"!expr":   TagExpr,
	"!prefer": TagPrefer,
	"!concat": TagConcat,
}

// ScalarResolvedKind is the YAML-implicit resolved type of a scalar node
// with no explicit tag (spec 4.3: YAML's own "!!str"/"!!int"/"!!bool"/
// "!!float"/"!!null" core schema).
type ScalarResolvedKind int

// Recognized implicit scalar kinds.
const (
	ResolvedString ScalarResolvedKind = iota
	ResolvedInt
	ResolvedFloat
	ResolvedBool
	ResolvedNull
)

// MapEntry is one key/value pair of a Mapping node, with the key's own
// source location tracked separately from the value's.
type MapEntry struct {
	Key       string
	KeySource *sourcemap.Info
	Value     *Node
}

// Node is one position in the parsed YAML tree.
type Node struct {
	Kind NodeKind
	Tag  Tag
	Info *sourcemap.Info

	// Scalar payload (Kind == KindScalar).
	Resolved     ScalarResolvedKind
	ScalarString string
	ScalarBool   bool
	ScalarInt    int64
	ScalarFloat  float64

	// Sequence payload (Kind == KindSequence).
	Items []*Node

	// Mapping payload (Kind == KindMapping).
	Entries []MapEntry
}

// anchorFunc turns a byte range within the parsed content into the
// SourceInfo a node should carry.
type anchorFunc func(start, end int) *sourcemap.Info

// Parse parses content as a single YAML document, producing a source
// tracked Node tree rooted at the document's top-level value. fileID
// must already be registered (with content) in ctx so that line/column
// positions resolve; content should be the same bytes backing fileID.
func Parse(content []byte, fileID sourcemap.FileID, ctx *sourcemap.SourceContext) (*Node, error) {
	return parse(content, func(start, end int) *sourcemap.Info {
		return sourcemap.Original(fileID, sourcemap.Range{Start: start, End: end})
	})
}

// ParseWithin parses content that is itself a slice of a larger source
// (a frontmatter fence, an included fragment): every node's Info becomes
// a Substring of parent at the node's offsets within content, so the
// chain resolves through parent back to the original file (spec 3.1).
func ParseWithin(content []byte, parent *sourcemap.Info) (*Node, error) {
	return parse(content, func(start, end int) *sourcemap.Info {
		return sourcemap.Substring(parent, start, end)
	})
}

func parse(content []byte, anchor anchorFunc) (*Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("yamlreader: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	lineStarts := computeLineStarts(content)
	return build(doc.Content[0], anchor, lineStarts)
}

func computeLineStarts(content []byte) []int {
	starts := []int{0}
	for i, b := range content {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func offsetForPosition(lineStarts []int, line, column int) int {
	idx := line - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(lineStarts) {
		idx = len(lineStarts) - 1
	}
	return lineStarts[idx] + (column - 1)
}

// infoFor builds an Info for n, approximating its end offset by the
// length of its decoded Value for scalars (a slight underestimate for
// quoted/escaped scalars, since Value holds the unescaped text) and a
// zero-length point for sequence/mapping nodes, whose true span would
// require re-scanning the raw document.
func infoFor(n *yaml.Node, anchor anchorFunc, lineStarts []int) *sourcemap.Info {
	start := offsetForPosition(lineStarts, n.Line, n.Column)
	end := start
	if n.Kind == yaml.ScalarNode {
		end = start + len(n.Value)
	}
	return anchor(start, end)
}

func tagFor(n *yaml.Node) Tag {
	if t, ok := tagTable[n.Tag]; ok {
		return t
	}
	return TagNone
}

func build(n *yaml.Node, anchor anchorFunc, lineStarts []int) (*Node, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return buildScalar(n, anchor, lineStarts)
	case yaml.SequenceNode:
		items := make([]*Node, 0, len(n.Content))
		for _, c := range n.Content {
			child, err := build(c, anchor, lineStarts)
			if err != nil {
				return nil, err
			}
			items = append(items, child)
		}
		return &Node{Kind: KindSequence, Tag: tagFor(n), Info: infoFor(n, anchor, lineStarts), Items: items}, nil
	case yaml.MappingNode:
		entries := make([]MapEntry, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode := n.Content[i]
			valNode := n.Content[i+1]
			value, err := build(valNode, anchor, lineStarts)
			if err != nil {
				return nil, err
			}
			entries = append(entries, MapEntry{
				Key:       keyNode.Value,
				KeySource: infoFor(keyNode, anchor, lineStarts),
				Value:     value,
			})
		}
		return &Node{Kind: KindMapping, Tag: tagFor(n), Info: infoFor(n, anchor, lineStarts), Entries: entries}, nil
	case yaml.AliasNode:
		return build(n.Alias, anchor, lineStarts)
	default:
		return nil, fmt.Errorf("yamlreader: unsupported yaml node kind %v", n.Kind)
	}
}

func buildScalar(n *yaml.Node, anchor anchorFunc, lineStarts []int) (*Node, error) {
	info := infoFor(n, anchor, lineStarts)
	tag := tagFor(n)

	node := &Node{Kind: KindScalar, Tag: tag, Info: info}

	// Explicit interpretation tags always keep the literal string; the
	// resolving layer decides what to do with it based on Tag.
	switch tag {
	case TagMarkdown, TagPlainString, TagPath, TagGlob, TagExpr:
		node.Resolved = ResolvedString
		node.ScalarString = n.Value
		return node, nil
	}

	switch n.Tag {
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("yamlreader: bad boolean scalar: %w", err)
		}
		node.Resolved = ResolvedBool
		node.ScalarBool = b
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, fmt.Errorf("yamlreader: bad integer scalar: %w", err)
		}
		node.Resolved = ResolvedInt
		node.ScalarInt = i
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fmt.Errorf("yamlreader: bad float scalar: %w", err)
		}
		node.Resolved = ResolvedFloat
		node.ScalarFloat = f
	case "!!null":
		node.Resolved = ResolvedNull
	default:
		node.Resolved = ResolvedString
		node.ScalarString = n.Value
	}
	return node, nil
}
