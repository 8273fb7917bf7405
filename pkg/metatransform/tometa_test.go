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
	"github.com/quarto-go/qcore/pkg/diagnostics"
	"github.com/quarto-go/qcore/pkg/sourcemap"
	"github.com/quarto-go/qcore/pkg/yamlreader"
)

func failingParse(string, *sourcemap.Info) ([]ast.Block, error) {
	return nil, errors.New("syntax error")
}

func TestToMetaMappingPreservesOrderAndKeySources(t *testing.T) {
	node := &yamlreader.Node{
		Kind: yamlreader.KindMapping,
		Entries: []yamlreader.MapEntry{
			{Key: "title", Value: scalarNode("Hello", yamlreader.TagPlainString)},
			{Key: "draft", Value: &yamlreader.Node{Kind: yamlreader.KindScalar, Resolved: yamlreader.ResolvedBool, ScalarBool: true}},
		},
	}

	tr := NewTransform(DocumentMetadata, fakeParseBlocks, nil)
	meta, err := tr.ToMeta(node)
	require.NoError(t, err)

	require.Equal(t, ast.MetaMapKind, meta.Kind())
	entries := meta.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "title", entries[0].Key)
	assert.Equal(t, ast.MetaStringKind, entries[0].Value.Kind())
	assert.Equal(t, "draft", entries[1].Key)
	assert.True(t, entries[1].Value.Bool())
}

func TestToMetaUntaggedStringParsesAsMarkdown(t *testing.T) {
	tr := NewTransform(DocumentMetadata, fakeParseBlocks, nil)
	meta, err := tr.ToMeta(scalarNode("some text", yamlreader.TagNone))
	require.NoError(t, err)
	assert.Equal(t, ast.MetaInlinesKind, meta.Kind())
}

func TestToMetaProjectConfigStaysLiteral(t *testing.T) {
	tr := NewTransform(ProjectConfig, fakeParseBlocks, nil)
	meta, err := tr.ToMeta(scalarNode("some text", yamlreader.TagNone))
	require.NoError(t, err)
	assert.Equal(t, ast.MetaStringKind, meta.Kind())
	assert.Equal(t, "some text", meta.String())
}

func TestToMetaUntaggedParseFailureWrapsInErrorSpan(t *testing.T) {
	diags := diagnostics.NewCollector()
	tr := NewTransform(DocumentMetadata, failingParse, diags)

	meta, err := tr.ToMeta(scalarNode("broken [", yamlreader.TagNone))
	require.NoError(t, err)

	require.Equal(t, ast.MetaInlinesKind, meta.Kind())
	span := meta.Inlines()[0].(*ast.Span)
	assert.True(t, span.Attr.HasClass(MarkdownSyntaxErrorClass))

	msgs := diags.Messages()
	require.NotEmpty(t, msgs)
	assert.Equal(t, "Q-1-101", msgs[0].Code)
	assert.Equal(t, diagnostics.Warning, msgs[0].Kind)
}

func TestToMetaExplicitMdFailureIsFatal(t *testing.T) {
	diags := diagnostics.NewCollector()
	tr := NewTransform(ProjectConfig, failingParse, diags)

	_, err := tr.ToMeta(scalarNode("broken [", yamlreader.TagMarkdown))
	require.Error(t, err)

	var parseErr *ErrMarkdownParse
	assert.ErrorAs(t, err, &parseErr)
	assert.True(t, diags.HasErrors())
	assert.Equal(t, "Q-1-100", diags.Messages()[0].Code)
}

func TestToMetaTaggedStringsBecomeSpans(t *testing.T) {
	tr := NewTransform(DocumentMetadata, fakeParseBlocks, nil)

	meta, err := tr.ToMeta(scalarNode("data/*.csv", yamlreader.TagGlob))
	require.NoError(t, err)
	require.Equal(t, ast.MetaInlinesKind, meta.Kind())
	span := meta.Inlines()[0].(*ast.Span)
	assert.True(t, span.Attr.HasClass("yaml-glob"))
	assert.Equal(t, "data/*.csv", span.Content[0].(*ast.Str).Text)
}

func TestToMetaSequence(t *testing.T) {
	node := &yamlreader.Node{
		Kind: yamlreader.KindSequence,
		Items: []*yamlreader.Node{
			scalarNode("a", yamlreader.TagPlainString),
			scalarNode("b", yamlreader.TagPlainString),
		},
	}
	tr := NewTransform(ProjectConfig, fakeParseBlocks, nil)
	meta, err := tr.ToMeta(node)
	require.NoError(t, err)
	require.Equal(t, ast.MetaListKind, meta.Kind())
	assert.Len(t, meta.List(), 2)
}
