// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package disambiguate implements the CSL citation disambiguation
// algorithm (spec.md section 4.10) over tagged citation Output trees:
// grouping citations that render identically but cite distinct items,
// then escalating through more authors, given names/initials, year
// suffixes, and finally the disambiguate-condition flag. The CSL
// rendering itself is out of scope; this package consumes rendered
// Output trees and produces rendering decisions.
package disambiguate

import "strings"

// Name is an extracted personal name. NonDroppingParticle participates
// in family grouping ("dos Santos" and "Santos" are distinct families).
type Name struct {
	Family              string
	Given               string
	NonDroppingParticle string
}

// familyKey groups names by family including the non-dropping particle.
func (n Name) familyKey() string {
	if n.NonDroppingParticle != "" {
		return n.NonDroppingParticle + " " + n.Family
	}
	return n.Family
}

// CitationItemType classifies a tagged citation item.
type CitationItemType int

// Recognized item types; only NormalCite participates in disambiguation.
const (
	NormalCite CitationItemType = iota
	AuthorOnly
	SuppressAuthor
)

// TagKind discriminates Output tags.
type TagKind int

// Recognized tag kinds.
const (
	// TagItem marks the rendering of one cited item.
	TagItem TagKind = iota
	// TagNames marks a rendered name variable with its extracted names.
	TagNames
)

// Tag annotates a subtree of an Output.
type Tag struct {
	Kind     TagKind
	ItemID   string
	ItemType CitationItemType
	Variable string
	Names    []Name
}

// outputVariant discriminates the Output tagged union.
type outputVariant int

const (
	outputLiteral outputVariant = iota
	outputSequence
	outputTagged
)

// Output is a rendered citation tree: literal text, a sequence of
// children, or a tagged subtree.
type Output struct {
	variant  outputVariant
	text     string
	children []*Output
	tag      Tag
	inner    *Output
}

// Literal constructs a literal text node.
func Literal(text string) *Output {
	return &Output{variant: outputLiteral, text: text}
}

// Sequence constructs a sequence node.
func Sequence(children ...*Output) *Output {
	return &Output{variant: outputSequence, children: children}
}

// Tagged wraps inner with a tag.
func Tagged(tag Tag, inner *Output) *Output {
	return &Output{variant: outputTagged, tag: tag, inner: inner}
}

// Render flattens the tree to its text.
func (o *Output) Render() string {
	var sb strings.Builder
	o.render(&sb)
	return sb.String()
}

func (o *Output) render(sb *strings.Builder) {
	if o == nil {
		return
	}
	switch o.variant {
	case outputLiteral:
		sb.WriteString(o.text)
	case outputSequence:
		for _, c := range o.children {
			c.render(sb)
		}
	case outputTagged:
		o.inner.render(sb)
	}
}

// CitationItem is one extracted TagItem subtree.
type CitationItem struct {
	ItemID string
	Type   CitationItemType
	Output *Output
}

// ExtractCitationItems collects every TagItem-tagged subtree in order.
func (o *Output) ExtractCitationItems() []CitationItem {
	var items []CitationItem
	o.visit(func(node *Output) {
		if node.variant == outputTagged && node.tag.Kind == TagItem {
			items = append(items, CitationItem{
				ItemID: node.tag.ItemID,
				Type:   node.tag.ItemType,
				Output: node.inner,
			})
		}
	})
	return items
}

// ExtractAllNames collects the names of every TagNames subtree in order.
func (o *Output) ExtractAllNames() []Name {
	var names []Name
	o.visit(func(node *Output) {
		if node.variant == outputTagged && node.tag.Kind == TagNames {
			names = append(names, node.tag.Names...)
		}
	})
	return names
}

func (o *Output) visit(fn func(*Output)) {
	if o == nil {
		return
	}
	fn(o)
	switch o.variant {
	case outputSequence:
		for _, c := range o.children {
			c.visit(fn)
		}
	case outputTagged:
		o.inner.visit(fn)
	}
}
