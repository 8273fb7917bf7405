// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package ast

import "github.com/quarto-go/qcore/pkg/sourcemap"

// MetaValueKind discriminates the MetaValue tagged union (spec 3.4).
type MetaValueKind int

// Recognized metadata value kinds.
const (
	MetaStringKind MetaValueKind = iota
	MetaBoolKind
	MetaInlinesKind
	MetaBlocksKind
	MetaListKind
	MetaMapKind
)

func (k MetaValueKind) String() string {
	switch k {
	case MetaStringKind:
		return "String"
	case MetaBoolKind:
		return "Bool"
	case MetaInlinesKind:
		return "Inlines"
	case MetaBlocksKind:
		return "Blocks"
	case MetaListKind:
		return "List"
	case MetaMapKind:
		return "Map"
	default:
		return "Unknown"
	}
}

// MetaMapEntry is a single key/value pair of a MetaMap, with separate
// source locations for the key and the value so diagnostics can point at
// either independently (spec 3.4).
type MetaMapEntry struct {
	Key       string
	KeySource *sourcemap.Info
	Value     MetaValue
}

// MetaValue is a document-metadata value: the result of interpreting a
// YAML scalar/sequence/mapping according to the rules in spec section
// 4.4 (plain strings vs. markdown-parsed strings vs. nested document
// fragments). Every variant carries its own SourceInfo.
type MetaValue struct {
	kind MetaValueKind
	info *sourcemap.Info

	str     string
	boolean bool
	inlines []Inline
	blocks  []Block
	list    []MetaValue
	entries []MetaMapEntry
}

// Kind reports which variant v holds.
func (v MetaValue) Kind() MetaValueKind { return v.kind }

// Info returns v's SourceInfo.
func (v MetaValue) Info() *sourcemap.Info { return v.info }

// NewMetaString constructs a String metadata value: a literal (non
// markdown-parsed) string, as produced by an explicit !str tag or a
// value in a position the interpretation context treats as non-markdown
// (spec 4.4).
func NewMetaString(s string, info *sourcemap.Info) MetaValue {
	return MetaValue{kind: MetaStringKind, info: info, str: s}
}

// String returns v's string payload; callers must check Kind() ==
// MetaStringKind first.
func (v MetaValue) String() string { return v.str }

// NewMetaBool constructs a Bool metadata value.
func NewMetaBool(b bool, info *sourcemap.Info) MetaValue {
	return MetaValue{kind: MetaBoolKind, info: info, boolean: b}
}

// Bool returns v's bool payload; callers must check Kind() ==
// MetaBoolKind first.
func (v MetaValue) Bool() bool { return v.boolean }

// NewMetaInlines constructs an Inlines metadata value: the result of
// parsing a YAML scalar as a single markdown paragraph and unwrapping it
// to its inline content (spec 4.4's "paragraph-flattening rule").
func NewMetaInlines(inlines []Inline, info *sourcemap.Info) MetaValue {
	return MetaValue{kind: MetaInlinesKind, info: info, inlines: inlines}
}

// Inlines returns v's inline payload; callers must check Kind() ==
// MetaInlinesKind first.
func (v MetaValue) Inlines() []Inline { return v.inlines }

// NewMetaBlocks constructs a Blocks metadata value: the result of
// parsing a YAML scalar as full markdown spanning multiple blocks.
func NewMetaBlocks(blocks []Block, info *sourcemap.Info) MetaValue {
	return MetaValue{kind: MetaBlocksKind, info: info, blocks: blocks}
}

// Blocks returns v's block payload; callers must check Kind() ==
// MetaBlocksKind first.
func (v MetaValue) Blocks() []Block { return v.blocks }

// NewMetaList constructs a List metadata value from a YAML sequence.
func NewMetaList(items []MetaValue, info *sourcemap.Info) MetaValue {
	return MetaValue{kind: MetaListKind, info: info, list: items}
}

// List returns v's list payload; callers must check Kind() ==
// MetaListKind first.
func (v MetaValue) List() []MetaValue { return v.list }

// NewMetaMap constructs a Map metadata value from a YAML mapping,
// preserving key order.
func NewMetaMap(entries []MetaMapEntry, info *sourcemap.Info) MetaValue {
	return MetaValue{kind: MetaMapKind, info: info, entries: entries}
}

// Entries returns v's map entries in source order; callers must check
// Kind() == MetaMapKind first.
func (v MetaValue) Entries() []MetaMapEntry { return v.entries }

// Get looks up key within a Map-kind MetaValue's entries, returning the
// zero MetaValue and false if v is not a Map or key is absent.
func (v MetaValue) Get(key string) (MetaValue, bool) {
	if v.kind != MetaMapKind {
		return MetaValue{}, false
	}
	for _, e := range v.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return MetaValue{}, false
}

// IsZero reports whether v is the zero MetaValue (no constructor used).
func (v MetaValue) IsZero() bool {
	return v.kind == MetaStringKind && v.info == nil && v.str == "" &&
		v.inlines == nil && v.blocks == nil && v.list == nil && v.entries == nil
}
