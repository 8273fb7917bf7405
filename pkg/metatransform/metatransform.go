// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package metatransform resolves a source-tracked pkg/yamlreader.Node
// tree into configvalue.ConfigValue according to spec.md section 4.4:
// interpretation tags win outright; untagged scalars fall back to an
// InterpretationContext default (markdown in document frontmatter,
// literal in project configuration); markdown-interpreted strings are
// parsed recursively and flattened to Inlines when they amount to a
// single paragraph, or kept as Blocks otherwise.
//
// This package never imports pkg/qmdreader directly: qmdreader itself
// needs metatransform to interpret the frontmatter it strips out of a
// document, so the dependency runs the other way. Callers (qmdreader,
// cmd/app) inject a BlockParseFunc backed by qmdreader.ParseFragment.
package metatransform

import (
	"github.com/quarto-go/qcore/pkg/ast"
	"github.com/quarto-go/qcore/pkg/configvalue"
	"github.com/quarto-go/qcore/pkg/diagnostics"
	"github.com/quarto-go/qcore/pkg/sourcemap"
	"github.com/quarto-go/qcore/pkg/yamlreader"
)

// InterpretationContext selects the default treatment of an untagged
// string scalar (spec 4.4).
type InterpretationContext int

// Recognized interpretation contexts.
const (
	// DocumentMetadata is frontmatter: untagged strings parse as markdown.
	DocumentMetadata InterpretationContext = iota
	// ProjectConfig is project-level configuration: untagged strings stay
	// literal.
	ProjectConfig
)

// BlockParseFunc parses a markdown-fragment string into block content,
// with locations in the result anchored to parent (a Transformed
// SourceInfo wrapping parent is the expected shape, mirroring spec
// 3.1's "Transformed" variant for a YAML-scalar-as-markdown reparse).
type BlockParseFunc func(text string, parent *sourcemap.Info) ([]ast.Block, error)

// Transform resolves yamlreader.Node trees into configvalue.ConfigValue
// under a fixed InterpretationContext, collecting non-fatal diagnostics
// (Q-1-100/Q-1-101) along the way.
type Transform struct {
	Context     InterpretationContext
	ParseBlocks BlockParseFunc
	Diags       *diagnostics.Collector
}

// NewTransform constructs a Transform. diags may be nil, in which case
// diagnostics are silently discarded (callers that don't care to see
// them, e.g. tests exercising only the happy path).
func NewTransform(ctx InterpretationContext, parseBlocks BlockParseFunc, diags *diagnostics.Collector) *Transform {
	return &Transform{Context: ctx, ParseBlocks: parseBlocks, Diags: diags}
}

func (t *Transform) warnf(code, format string, args ...interface{}) {
	if t.Diags != nil {
		t.Diags.Warnf(code, format, args...)
	}
}

// ToConfigValue resolves a single yamlreader.Node (and, recursively, its
// children) into a configvalue.ConfigValue. A nil node resolves to a
// null ConfigValue, matching the convention that an absent optional
// field behaves like an explicit YAML null.
func (t *Transform) ToConfigValue(n *yamlreader.Node) configvalue.ConfigValue {
	if n == nil {
		return configvalue.Null(nil)
	}
	switch n.Kind {
	case yamlreader.KindScalar:
		return t.scalarToConfigValue(n)
	case yamlreader.KindSequence:
		items := make([]configvalue.ConfigValue, 0, len(n.Items))
		for _, item := range n.Items {
			items = append(items, t.ToConfigValue(item))
		}
		return configvalue.NewArray(items, n.Info).WithMergeOp(mergeOpFor(n.Tag, configvalue.Concat))
	case yamlreader.KindMapping:
		entries := make([]configvalue.MapEntry, 0, len(n.Entries))
		for _, e := range n.Entries {
			entries = append(entries, configvalue.MapEntry{
				Key:       e.Key,
				KeySource: e.KeySource,
				Value:     t.ToConfigValue(e.Value),
			})
		}
		return configvalue.NewMap(entries, n.Info).WithMergeOp(mergeOpFor(n.Tag, configvalue.Concat))
	default:
		return configvalue.Null(n.Info)
	}
}

func mergeOpFor(tag yamlreader.Tag, fallback configvalue.MergeOp) configvalue.MergeOp {
	switch tag {
	case yamlreader.TagPrefer:
		return configvalue.Prefer
	case yamlreader.TagConcat:
		return configvalue.Concat
	default:
		return fallback
	}
}

func (t *Transform) scalarToConfigValue(n *yamlreader.Node) configvalue.ConfigValue {
	switch n.Resolved {
	case yamlreader.ResolvedBool:
		return configvalue.NewBool(n.ScalarBool, n.Info)
	case yamlreader.ResolvedInt:
		return configvalue.NewScalar(n.ScalarInt, n.Info)
	case yamlreader.ResolvedFloat:
		return configvalue.NewScalar(n.ScalarFloat, n.Info)
	case yamlreader.ResolvedNull:
		return configvalue.Null(n.Info)
	}

	// ResolvedString: dispatch on the explicit tag, or the context
	// default if there is none.
	switch n.Tag {
	case yamlreader.TagPlainString:
		return configvalue.NewString(n.ScalarString, n.Info)
	case yamlreader.TagPath:
		return configvalue.NewPath(n.ScalarString, n.Info)
	case yamlreader.TagGlob:
		return configvalue.NewGlob(n.ScalarString, n.Info)
	case yamlreader.TagExpr:
		return configvalue.NewExpr(n.ScalarString, n.Info)
	case yamlreader.TagMarkdown:
		return t.parseMarkdownString(n.ScalarString, n.Info)
	default:
		if t.Context == DocumentMetadata {
			return t.parseMarkdownString(n.ScalarString, n.Info)
		}
		return configvalue.NewString(n.ScalarString, n.Info)
	}
}

// parseMarkdownString parses text as markdown and applies the
// paragraph-flattening rule: a result that is exactly one Paragraph
// collapses to PandocInlines (the common case — a title, a short
// description); anything else is kept as PandocBlocks. A parser that
// isn't wired, or that fails outright, degrades to a literal string
// with a diagnostic rather than losing the value.
func (t *Transform) parseMarkdownString(text string, info *sourcemap.Info) configvalue.ConfigValue {
	if t.ParseBlocks == nil {
		t.warnf("Q-1-100", "no markdown parser configured; keeping %q as a literal string", text)
		return configvalue.NewString(text, info)
	}
	blocks, err := t.ParseBlocks(text, info)
	if err != nil {
		t.warnf("Q-1-101", "could not parse %q as markdown: %v", text, err)
		return configvalue.NewString(text, info)
	}
	if len(blocks) == 1 {
		if p, ok := blocks[0].(*ast.Paragraph); ok {
			return configvalue.NewPandocInlines(p.Content, info)
		}
	}
	return configvalue.NewPandocBlocks(blocks, info)
}
