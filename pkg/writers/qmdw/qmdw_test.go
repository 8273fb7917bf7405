// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package qmdw

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarto-go/qcore/pkg/ast"
)

func render(t *testing.T, blocks ...ast.Block) string {
	t.Helper()
	var buf bytes.Buffer
	diags := Writer{}.Write(ast.NewPandoc(ast.MetaValue{}, blocks), nil, &buf)
	require.Empty(t, diags)
	return buf.String()
}

func TestHeaderWithID(t *testing.T) {
	out := render(t, ast.NewHeader(2, ast.Attr{ID: "setup"}, []ast.Inline{
		ast.NewStr("Setup", nil),
	}, nil))
	assert.Equal(t, "## Setup {#setup}\n", out)
}

func TestEmphasisAndStrong(t *testing.T) {
	out := render(t, ast.NewParagraph([]ast.Inline{
		ast.NewEmph([]ast.Inline{ast.NewStr("it", nil)}, nil),
		ast.NewSpace(nil),
		ast.NewStrong([]ast.Inline{ast.NewStr("bold", nil)}, nil),
	}, nil))
	assert.Equal(t, "*it* **bold**\n", out)
}

func TestFrontMatterFence(t *testing.T) {
	out := render(t, ast.NewRawBlock(ast.QuartoMinusMetadataFormat, "title: x\n", nil))
	assert.Equal(t, "---\ntitle: x\n---\n", out)
}

func TestCodeBlockWithLanguage(t *testing.T) {
	out := render(t, ast.NewCodeBlock(ast.Attr{Classes: []string{"python"}},
		"print(1)\n", nil))
	assert.Equal(t, "```python\nprint(1)\n```\n", out)
}

func TestBlockQuote(t *testing.T) {
	out := render(t, ast.NewBlockQuote([]ast.Block{
		ast.NewParagraph([]ast.Inline{ast.NewStr("quoted", nil)}, nil),
	}, nil))
	assert.Equal(t, "> quoted\n", out)
}

func TestDivFence(t *testing.T) {
	out := render(t, ast.NewDiv(ast.Attr{Classes: []string{"note"}}, []ast.Block{
		ast.NewParagraph([]ast.Inline{ast.NewStr("inside", nil)}, nil),
	}, nil))
	assert.Equal(t, "::: {.note}\ninside\n:::\n", out)
}

func TestFigureRendersAsImageParagraph(t *testing.T) {
	image := ast.NewImage(ast.Attr{}, []ast.Inline{ast.NewStr("alt", nil)},
		ast.Target{URL: "img.png"}, nil)
	figure := ast.NewFigure(ast.Attr{ID: "fig-x"}, []ast.Inline{ast.NewStr("alt", nil)},
		[]ast.Block{ast.NewPlain([]ast.Inline{image}, nil)}, nil)

	out := render(t, figure)
	assert.Equal(t, "![alt](img.png){#fig-x}\n", out)
}

func TestShortcodeRoundTripSyntax(t *testing.T) {
	out := render(t, ast.NewParagraph([]ast.Inline{
		ast.NewShortcode("video file.mp4", nil),
	}, nil))
	assert.Equal(t, "{{< video file.mp4 >}}\n", out)
}

func TestSpecialCharactersEscaped(t *testing.T) {
	out := render(t, ast.NewParagraph([]ast.Inline{
		ast.NewStr("a*b_c", nil),
	}, nil))
	assert.Equal(t, "a\\*b\\_c\n", out)
}

func TestCustomNodeIsFeatureError(t *testing.T) {
	doc := ast.NewPandoc(ast.MetaValue{}, []ast.Block{
		ast.NewCustomBlock("tabset", ast.NewSlotMap(), nil),
	})
	var buf bytes.Buffer
	diags := Writer{}.Write(doc, nil, &buf)
	require.Len(t, diags, 1)
	assert.Equal(t, "Q-3-38", diags[0].Code)
}
