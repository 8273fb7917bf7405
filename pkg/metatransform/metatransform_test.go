// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package metatransform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarto-go/qcore/pkg/ast"
	"github.com/quarto-go/qcore/pkg/configvalue"
	"github.com/quarto-go/qcore/pkg/diagnostics"
	"github.com/quarto-go/qcore/pkg/sourcemap"
	"github.com/quarto-go/qcore/pkg/yamlreader"
)

// fakeParseBlocks is a stand-in for qmdreader.ParseFragment: it treats
// the whole text as a single Str inline inside a single Paragraph,
// unless the text is "multi", which produces two paragraphs, or
// "broken", which returns an error.
func fakeParseBlocks(text string, parent *sourcemap.Info) ([]ast.Block, error) {
	if text == "broken" {
		return nil, errors.New("unclosed emphasis")
	}
	if text == "multi" {
		return []ast.Block{
			ast.NewParagraph([]ast.Inline{ast.NewStr("one", nil)}, nil),
			ast.NewParagraph([]ast.Inline{ast.NewStr("two", nil)}, nil),
		}, nil
	}
	return []ast.Block{
		ast.NewParagraph([]ast.Inline{ast.NewStr(text, nil)}, nil),
	}, nil
}

func scalarNode(s string, tag yamlreader.Tag) *yamlreader.Node {
	return &yamlreader.Node{Kind: yamlreader.KindScalar, Tag: tag, Resolved: yamlreader.ResolvedString, ScalarString: s}
}

func TestDocumentMetadataDefaultsToMarkdown(t *testing.T) {
	tr := NewTransform(DocumentMetadata, fakeParseBlocks, nil)
	v := tr.ToConfigValue(scalarNode("hello", yamlreader.TagNone))
	require.Equal(t, configvalue.KindPandocInlines, v.Kind())
	require.Len(t, v.Inlines(), 1)
	assert.Equal(t, "hello", v.Inlines()[0].(*ast.Str).Text)
}

func TestProjectConfigDefaultsToLiteral(t *testing.T) {
	tr := NewTransform(ProjectConfig, fakeParseBlocks, nil)
	v := tr.ToConfigValue(scalarNode("_site", yamlreader.TagNone))
	require.Equal(t, configvalue.KindScalar, v.Kind())
	s, ok := v.AsString()
	require.True(t, ok)
	assert.Equal(t, "_site", s)
}

func TestExplicitStrTagOverridesMarkdownDefault(t *testing.T) {
	tr := NewTransform(DocumentMetadata, fakeParseBlocks, nil)
	v := tr.ToConfigValue(scalarNode("raw/path.txt", yamlreader.TagPlainString))
	require.Equal(t, configvalue.KindScalar, v.Kind())
	s, _ := v.AsString()
	assert.Equal(t, "raw/path.txt", s)
}

func TestExplicitMdTagOverridesLiteralDefault(t *testing.T) {
	tr := NewTransform(ProjectConfig, fakeParseBlocks, nil)
	v := tr.ToConfigValue(scalarNode("hello", yamlreader.TagMarkdown))
	assert.Equal(t, configvalue.KindPandocInlines, v.Kind())
}

func TestPathGlobExprTags(t *testing.T) {
	tr := NewTransform(ProjectConfig, fakeParseBlocks, nil)

	p := tr.ToConfigValue(scalarNode("./file.csv", yamlreader.TagPath))
	assert.Equal(t, configvalue.KindPath, p.Kind())

	g := tr.ToConfigValue(scalarNode("*.qmd", yamlreader.TagGlob))
	assert.Equal(t, configvalue.KindGlob, g.Kind())

	e := tr.ToConfigValue(scalarNode("params$x", yamlreader.TagExpr))
	assert.Equal(t, configvalue.KindExpr, e.Kind())
}

func TestMultiBlockMarkdownIsNotFlattened(t *testing.T) {
	tr := NewTransform(DocumentMetadata, fakeParseBlocks, nil)
	v := tr.ToConfigValue(scalarNode("multi", yamlreader.TagNone))
	require.Equal(t, configvalue.KindPandocBlocks, v.Kind())
	assert.Len(t, v.Blocks(), 2)
}

func TestBrokenMarkdownFallsBackToLiteralWithDiagnostic(t *testing.T) {
	diags := diagnostics.NewCollector()
	tr := NewTransform(DocumentMetadata, fakeParseBlocks, diags)
	v := tr.ToConfigValue(scalarNode("broken", yamlreader.TagNone))
	require.Equal(t, configvalue.KindScalar, v.Kind())
	s, _ := v.AsString()
	assert.Equal(t, "broken", s)

	require.Len(t, diags.Messages(), 1)
	assert.Equal(t, "Q-1-101", diags.Messages()[0].Code)
}

func TestNoParserConfiguredFallsBackWithDiagnostic(t *testing.T) {
	diags := diagnostics.NewCollector()
	tr := NewTransform(DocumentMetadata, nil, diags)
	v := tr.ToConfigValue(scalarNode("hello", yamlreader.TagNone))
	require.Equal(t, configvalue.KindScalar, v.Kind())
	require.Len(t, diags.Messages(), 1)
	assert.Equal(t, "Q-1-100", diags.Messages()[0].Code)
}

func TestBoolIntFloatNullScalarsIgnoreContext(t *testing.T) {
	tr := NewTransform(DocumentMetadata, fakeParseBlocks, nil)

	b := tr.ToConfigValue(&yamlreader.Node{Kind: yamlreader.KindScalar, Resolved: yamlreader.ResolvedBool, ScalarBool: true})
	got, ok := b.AsBool()
	require.True(t, ok)
	assert.True(t, got)

	n := tr.ToConfigValue(&yamlreader.Node{Kind: yamlreader.KindScalar, Resolved: yamlreader.ResolvedNull})
	assert.True(t, n.IsNull())
}

func TestArrayAndMapMergeOpFromTag(t *testing.T) {
	tr := NewTransform(ProjectConfig, fakeParseBlocks, nil)

	seq := &yamlreader.Node{Kind: yamlreader.KindSequence, Tag: yamlreader.TagPrefer, Items: []*yamlreader.Node{
		scalarNode("a", yamlreader.TagNone),
	}}
	arr := tr.ToConfigValue(seq)
	assert.Equal(t, configvalue.Prefer, arr.MergeOp())

	mapNode := &yamlreader.Node{Kind: yamlreader.KindMapping, Entries: []yamlreader.MapEntry{
		{Key: "k", Value: scalarNode("v", yamlreader.TagNone)},
	}}
	m := tr.ToConfigValue(mapNode)
	assert.Equal(t, configvalue.Concat, m.MergeOp())
}

func TestNilNodeResolvesToNull(t *testing.T) {
	tr := NewTransform(DocumentMetadata, fakeParseBlocks, nil)
	v := tr.ToConfigValue(nil)
	assert.True(t, v.IsNull())
}
