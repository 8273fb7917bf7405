// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package configvalue implements the merge-aware configuration value
// model shared by project configuration (_quarto.yml-equivalent layers)
// and document frontmatter (spec.md section 3.5/4.4): a tagged union of
// scalar, already-interpreted Pandoc content, deferred-interpretation
// strings, and compound array/map values, each carrying its own
// MergeOp and source location.
package configvalue

import (
	"github.com/quarto-go/qcore/pkg/ast"
	"github.com/quarto-go/qcore/pkg/sourcemap"
)

// MergeOp controls how a value from one configuration layer combines
// with the same position in a previously loaded layer.
type MergeOp int

// Recognized merge operations.
const (
	// Concat appends to arrays and field-wise merges maps; it is the
	// default for everything except already-interpreted markdown content.
	Concat MergeOp = iota
	// Prefer clears/replaces rather than merging: arrays are reset before
	// appending, maps replace wholesale, scalars replace (same effect as
	// Concat for scalars).
	Prefer
)

// Kind discriminates the ConfigValue tagged union.
type Kind int

// Recognized configuration value kinds.
const (
	KindScalar Kind = iota
	KindPandocInlines
	KindPandocBlocks
	KindPath
	KindGlob
	KindExpr
	KindArray
	KindMap
)

// MapEntry is one key/value pair of a Map-kind ConfigValue, with a
// separate source location for the key so diagnostics can point at
// either the key or the value independently.
type MapEntry struct {
	Key       string
	KeySource *sourcemap.Info
	Value     ConfigValue
}

// ConfigValue is a single configuration/metadata value with explicit
// merge semantics (spec 4.4). The interpretation of strings (literal vs.
// markdown vs. path/glob/expr) is baked into Kind by the time a
// ConfigValue exists; InterpretationContext only governs which Kind an
// untagged YAML string is converted into.
type ConfigValue struct {
	kind    Kind
	info    *sourcemap.Info
	mergeOp MergeOp

	scalar  interface{}
	inlines []ast.Inline
	blocks  []ast.Block
	str     string
	items   []ConfigValue
	entries []MapEntry
}

// Kind reports which variant v holds.
func (v ConfigValue) Kind() Kind { return v.kind }

// Info returns v's source location.
func (v ConfigValue) Info() *sourcemap.Info { return v.info }

// MergeOp returns v's merge operation.
func (v ConfigValue) MergeOp() MergeOp { return v.mergeOp }

// WithMergeOp returns a copy of v with its merge operation replaced
// (e.g. after parsing an explicit !prefer/!concat tag).
func (v ConfigValue) WithMergeOp(op MergeOp) ConfigValue {
	v.mergeOp = op
	return v
}

// NewScalar constructs a Scalar ConfigValue. scalar must be a string,
// int64, float64, bool, or nil (mirroring a YAML scalar's possible
// resolved types); any other type is a caller bug.
func NewScalar(scalar interface{}, info *sourcemap.Info) ConfigValue {
	return ConfigValue{kind: KindScalar, info: info, mergeOp: Concat, scalar: scalar}
}

// NewString is a convenience for NewScalar wrapping a plain string.
func NewString(s string, info *sourcemap.Info) ConfigValue {
	return NewScalar(s, info)
}

// NewBool is a convenience for NewScalar wrapping a bool.
func NewBool(b bool, info *sourcemap.Info) ConfigValue {
	return NewScalar(b, info)
}

// Null constructs a null Scalar ConfigValue.
func Null(info *sourcemap.Info) ConfigValue {
	return NewScalar(nil, info)
}

// Scalar returns v's raw scalar payload; callers must check Kind() ==
// KindScalar first.
func (v ConfigValue) Scalar() interface{} { return v.scalar }

// NewPandocInlines constructs a PandocInlines ConfigValue. Markdown
// content defaults to Prefer (last-wins): re-parsing the same field as
// markdown across layers rarely means "concatenate these paragraphs",
// so an explicit !concat tag is required to get that behavior.
func NewPandocInlines(inlines []ast.Inline, info *sourcemap.Info) ConfigValue {
	return ConfigValue{kind: KindPandocInlines, info: info, mergeOp: Prefer, inlines: inlines}
}

// Inlines returns v's inline payload; callers must check Kind() ==
// KindPandocInlines first.
func (v ConfigValue) Inlines() []ast.Inline { return v.inlines }

// NewPandocBlocks constructs a PandocBlocks ConfigValue, defaulting to
// Prefer for the same reason as NewPandocInlines.
func NewPandocBlocks(blocks []ast.Block, info *sourcemap.Info) ConfigValue {
	return ConfigValue{kind: KindPandocBlocks, info: info, mergeOp: Prefer, blocks: blocks}
}

// Blocks returns v's block payload; callers must check Kind() ==
// KindPandocBlocks first.
func (v ConfigValue) Blocks() []ast.Block { return v.blocks }

// NewPath constructs a Path ConfigValue (!path tag): a string to be
// resolved relative to its source file by a later pass.
func NewPath(path string, info *sourcemap.Info) ConfigValue {
	return ConfigValue{kind: KindPath, info: info, mergeOp: Concat, str: path}
}

// NewGlob constructs a Glob ConfigValue (!glob tag).
func NewGlob(pattern string, info *sourcemap.Info) ConfigValue {
	return ConfigValue{kind: KindGlob, info: info, mergeOp: Concat, str: pattern}
}

// NewExpr constructs an Expr ConfigValue (!expr tag): a runtime
// expression left unevaluated by this core.
func NewExpr(expr string, info *sourcemap.Info) ConfigValue {
	return ConfigValue{kind: KindExpr, info: info, mergeOp: Concat, str: expr}
}

// NewArray constructs an Array ConfigValue.
func NewArray(items []ConfigValue, info *sourcemap.Info) ConfigValue {
	return ConfigValue{kind: KindArray, info: info, mergeOp: Concat, items: items}
}

// Array returns v's array payload; callers must check Kind() ==
// KindArray first.
func (v ConfigValue) Array() []ConfigValue { return v.items }

// NewMap constructs a Map ConfigValue, preserving entry order.
func NewMap(entries []MapEntry, info *sourcemap.Info) ConfigValue {
	return ConfigValue{kind: KindMap, info: info, mergeOp: Concat, entries: entries}
}

// Entries returns v's map entries in source order; callers must check
// Kind() == KindMap first.
func (v ConfigValue) Entries() []MapEntry { return v.entries }

// FromPath builds a nested Map structure from a dotted key path and a
// leaf string value, e.g. FromPath([]string{"format","html","source-location"}, "full")
// produces {format: {html: {source-location: "full"}}}. Useful for
// injecting programmatic overrides (CLI flags, env vars) without going
// through YAML at all.
func FromPath(path []string, value string) ConfigValue {
	if len(path) == 0 {
		return NewString(value, nil)
	}
	result := NewString(value, nil)
	for i := len(path) - 1; i >= 0; i-- {
		result = NewMap([]MapEntry{{Key: path[i], Value: result}}, nil)
	}
	return result
}

// IsScalar reports whether v is one of the scalar-like kinds (Scalar,
// PandocInlines, PandocBlocks, Path, Glob, Expr) — i.e. not Array or Map.
func (v ConfigValue) IsScalar() bool {
	switch v.kind {
	case KindScalar, KindPandocInlines, KindPandocBlocks, KindPath, KindGlob, KindExpr:
		return true
	default:
		return false
	}
}

// IsArray reports whether v is an Array.
func (v ConfigValue) IsArray() bool { return v.kind == KindArray }

// IsMap reports whether v is a Map.
func (v ConfigValue) IsMap() bool { return v.kind == KindMap }

// IsEmpty reports whether v is an empty Array or Map; any other kind is
// never considered empty.
func (v ConfigValue) IsEmpty() bool {
	switch v.kind {
	case KindArray:
		return len(v.items) == 0
	case KindMap:
		return len(v.entries) == 0
	default:
		return false
	}
}

// IsNull reports whether v is a null Scalar.
func (v ConfigValue) IsNull() bool {
	return v.kind == KindScalar && v.scalar == nil
}

// Get looks up key within a Map-kind ConfigValue's entries, returning
// the zero ConfigValue and false if v is not a Map or key is absent.
func (v ConfigValue) Get(key string) (ConfigValue, bool) {
	if v.kind != KindMap {
		return ConfigValue{}, false
	}
	for _, e := range v.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return ConfigValue{}, false
}

// ContainsKey reports whether v is a Map containing key.
func (v ConfigValue) ContainsKey(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// AsString returns v's raw string if v is any string-like variant
// (Scalar holding a string, Path, Glob, Expr); callers that also want to
// treat a single-Str PandocInlines as a string should use IsStringValue.
func (v ConfigValue) AsString() (string, bool) {
	switch v.kind {
	case KindScalar:
		s, ok := v.scalar.(string)
		return s, ok
	case KindPath, KindGlob, KindExpr:
		return v.str, true
	default:
		return "", false
	}
}

// AsBool returns v's bool if v is a boolean Scalar.
func (v ConfigValue) AsBool() (bool, bool) {
	if v.kind != KindScalar {
		return false, false
	}
	b, ok := v.scalar.(bool)
	return b, ok
}

// AsInt returns v's integer if v is an integer Scalar.
func (v ConfigValue) AsInt() (int64, bool) {
	if v.kind != KindScalar {
		return 0, false
	}
	i, ok := v.scalar.(int64)
	return i, ok
}

// IsStringValue reports whether v represents the string expected,
// whether that is a literal Scalar/Path/Glob/Expr, or a single-Str
// PandocInlines (spec 4.4: a markdown-context string containing no
// markdown syntax still round-trips as an equality check against the
// original text).
func (v ConfigValue) IsStringValue(expected string) bool {
	switch v.kind {
	case KindScalar:
		s, ok := v.scalar.(string)
		return ok && s == expected
	case KindPath, KindGlob, KindExpr:
		return v.str == expected
	case KindPandocInlines:
		if len(v.inlines) != 1 {
			return false
		}
		str, ok := v.inlines[0].(*ast.Str)
		return ok && str.Text == expected
	default:
		return false
	}
}
