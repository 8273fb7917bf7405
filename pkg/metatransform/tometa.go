// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package metatransform

import (
	"fmt"

	"github.com/quarto-go/qcore/pkg/ast"
	"github.com/quarto-go/qcore/pkg/sourcemap"
	"github.com/quarto-go/qcore/pkg/yamlreader"
)

// MarkdownSyntaxErrorClass marks a metadata string that failed to parse
// as markdown under the DocumentMetadata default (spec 4.4): the value
// survives, wrapped so downstream consumers can highlight it.
const MarkdownSyntaxErrorClass = "yaml-markdown-syntax-error"

// TaggedStringClass is tagClass's fallback class. ToMeta wraps !path,
// !glob and !expr strings in a Span classed yaml-path, yaml-glob or
// yaml-expr instead; yamlreader maps unrecognized tags to TagNone, so such
// strings are treated as untagged and never receive this class.
const TaggedStringClass = "yaml-tagged-string"

// ErrMarkdownParse is wrapped by the Q-1-100 fatal returned when an
// explicitly !md-tagged string fails to parse.
type ErrMarkdownParse struct {
	Text string
	Err  error
}

func (e *ErrMarkdownParse) Error() string {
	return fmt.Sprintf("metatransform: !md string %q failed to parse: %v", e.Text, e.Err)
}

func (e *ErrMarkdownParse) Unwrap() error { return e.Err }

// ToMeta resolves a yamlreader.Node into document metadata (spec 4.4's
// yaml_to_meta_with_source_info). Untagged strings follow the
// interpretation context; an explicit !md parse failure is fatal
// (Q-1-100), an untagged parse failure degrades to an error-span with a
// Q-1-101 warning.
func (t *Transform) ToMeta(n *yamlreader.Node) (ast.MetaValue, error) {
	if n == nil {
		return ast.NewMetaString("", nil), nil
	}
	switch n.Kind {
	case yamlreader.KindScalar:
		return t.scalarToMeta(n)
	case yamlreader.KindSequence:
		items := make([]ast.MetaValue, 0, len(n.Items))
		for _, item := range n.Items {
			v, err := t.ToMeta(item)
			if err != nil {
				return ast.MetaValue{}, err
			}
			items = append(items, v)
		}
		return ast.NewMetaList(items, n.Info), nil
	case yamlreader.KindMapping:
		entries := make([]ast.MetaMapEntry, 0, len(n.Entries))
		for _, e := range n.Entries {
			v, err := t.ToMeta(e.Value)
			if err != nil {
				return ast.MetaValue{}, err
			}
			entries = append(entries, ast.MetaMapEntry{
				Key:       e.Key,
				KeySource: e.KeySource,
				Value:     v,
			})
		}
		return ast.NewMetaMap(entries, n.Info), nil
	default:
		return ast.NewMetaString("", n.Info), nil
	}
}

func (t *Transform) scalarToMeta(n *yamlreader.Node) (ast.MetaValue, error) {
	switch n.Resolved {
	case yamlreader.ResolvedBool:
		return ast.NewMetaBool(n.ScalarBool, n.Info), nil
	case yamlreader.ResolvedInt:
		return ast.NewMetaString(fmt.Sprintf("%d", n.ScalarInt), n.Info), nil
	case yamlreader.ResolvedFloat:
		return ast.NewMetaString(fmt.Sprintf("%g", n.ScalarFloat), n.Info), nil
	case yamlreader.ResolvedNull:
		return ast.NewMetaString("", n.Info), nil
	}

	switch n.Tag {
	case yamlreader.TagPlainString:
		return ast.NewMetaString(n.ScalarString, n.Info), nil
	case yamlreader.TagMarkdown:
		v, err := t.markdownToMeta(n.ScalarString, n.Info)
		if err != nil {
			// Q-1-100: an explicit !md failure is fatal (spec 4.4).
			if t.Diags != nil {
				t.Diags.Errorf("Q-1-100", "!md string %q failed to parse as markdown", n.ScalarString)
			}
			return ast.MetaValue{}, &ErrMarkdownParse{Text: n.ScalarString, Err: err}
		}
		return v, nil
	case yamlreader.TagPath, yamlreader.TagGlob, yamlreader.TagExpr:
		return t.taggedSpan(n, tagClass(n.Tag)), nil
	}

	if t.Context == ProjectConfig {
		return ast.NewMetaString(n.ScalarString, n.Info), nil
	}

	v, err := t.markdownToMeta(n.ScalarString, n.Info)
	if err != nil {
		// Q-1-101: untagged failure degrades to an error-span warning.
		t.warnf("Q-1-101", "metadata string %q failed to parse as markdown: %v", n.ScalarString, err)
		span := ast.NewSpan(ast.Attr{Classes: []string{MarkdownSyntaxErrorClass}},
			[]ast.Inline{ast.NewStr(n.ScalarString, n.Info)}, n.Info)
		return ast.NewMetaInlines([]ast.Inline{span}, n.Info), nil
	}
	return v, nil
}

// markdownToMeta parses text and applies the paragraph-flattening rule:
// exactly one paragraph collapses to MetaInlines, anything else is
// MetaBlocks (spec 4.4).
func (t *Transform) markdownToMeta(text string, info *sourcemap.Info) (ast.MetaValue, error) {
	if t.ParseBlocks == nil {
		return ast.NewMetaString(text, info), nil
	}
	blocks, err := t.ParseBlocks(text, info)
	if err != nil {
		return ast.MetaValue{}, err
	}
	if len(blocks) == 1 {
		if p, ok := blocks[0].(*ast.Paragraph); ok {
			return ast.NewMetaInlines(p.Content, info), nil
		}
	}
	return ast.NewMetaBlocks(blocks, info), nil
}

func (t *Transform) taggedSpan(n *yamlreader.Node, class string) ast.MetaValue {
	span := ast.NewSpan(ast.Attr{Classes: []string{class}},
		[]ast.Inline{ast.NewStr(n.ScalarString, n.Info)}, n.Info)
	return ast.NewMetaInlines([]ast.Inline{span}, n.Info)
}

func tagClass(tag yamlreader.Tag) string {
	switch tag {
	case yamlreader.TagPath:
		return "yaml-path"
	case yamlreader.TagGlob:
		return "yaml-glob"
	case yamlreader.TagExpr:
		return "yaml-expr"
	default:
		return TaggedStringClass
	}
}
