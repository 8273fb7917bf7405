// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package scan implements the citation, shortcode, and trailing
// attribute-block inline recognizers that plain CommonMark/GFM has no
// notion of. Each is a hand-rolled byte-scanning recognizer in the style
// of a dispatch-table inline parser, registered as a goldmark
// parser.InlineParser so it participates in the same single left-to-right
// pass as goldmark's own emphasis/link/autolink recognizers.
package scan

import (
	gast "github.com/yuin/goldmark/ast"
)

// CitationKind discriminates a bare `@key` citation from a bracketed
// `[@key ...]` group.
type CitationKind int

// Recognized citation shapes.
const (
	CitationBare CitationKind = iota
	CitationBracketed
)

// CitationItem is one `@key` occurrence within a (possibly bracketed)
// citation group, with the raw prefix/suffix text surrounding the key.
type CitationItem struct {
	Key    string
	Prefix string
	Suffix string
	// Suppressed is true for a `-@key` citation (author suppressed).
	Suppressed bool
}

// CitationNode is a recognized `@key` or `[@key; @key2 ...]` citation
// group. It records no byte segment, so the Cite converted from it
// carries no SourceInfo.
type CitationNode struct {
	gast.BaseInline
	Form  CitationKind
	Items []CitationItem
}

// KindCitation is this node's goldmark NodeKind.
var KindCitation = gast.NewNodeKind("QuartoCitation")

// Kind implements gast.Node.
func (n *CitationNode) Kind() gast.NodeKind { return KindCitation }

// Dump implements gast.Node.
func (n *CitationNode) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, nil, nil)
}

// ShortcodeNode is a recognized `{{< ... >}}` shortcode, kept opaque
// (Raw holds the text between the delimiters, trimmed) until the
// post-processor desugars it into a Span (spec 4.6 pass 5).
type ShortcodeNode struct {
	gast.BaseInline
	Raw string
}

// KindShortcode is this node's goldmark NodeKind.
var KindShortcode = gast.NewNodeKind("QuartoShortcode")

// Kind implements gast.Node.
func (n *ShortcodeNode) Kind() gast.NodeKind { return KindShortcode }

// Dump implements gast.Node.
func (n *ShortcodeNode) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, map[string]string{"Raw": n.Raw}, nil)
}

// AttrKV is one key="value" pair of a recognized attribute block.
type AttrKV struct {
	Key   string
	Value string
}

// AttrNode is a recognized trailing `{#id .class key="value"}` block. A
// preceding-construct consumer (e.g. the post-processor's header-attr
// pass) removes it from the inline stream; one left over after
// post-processing is an orphan (spec 4.6 pass 10).
type AttrNode struct {
	gast.BaseInline
	ID      string
	Classes []string
	KVs     []AttrKV
}

// KindAttr is this node's goldmark NodeKind.
var KindAttr = gast.NewNodeKind("QuartoAttr")

// Kind implements gast.Node.
func (n *AttrNode) Kind() gast.NodeKind { return KindAttr }

// Dump implements gast.Node.
func (n *AttrNode) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, map[string]string{"ID": n.ID}, nil)
}
