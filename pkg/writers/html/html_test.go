// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package html

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarto-go/qcore/pkg/ast"
	"github.com/quarto-go/qcore/pkg/sourcemap"
	"github.com/quarto-go/qcore/pkg/writers/jsonw"
)

func render(t *testing.T, blocks ...ast.Block) string {
	t.Helper()
	var buf bytes.Buffer
	diags := Writer{}.Write(ast.NewPandoc(ast.MetaValue{}, blocks), nil, &buf)
	require.Empty(t, diags)
	return buf.String()
}

func TestBasicRendering(t *testing.T) {
	out := render(t,
		ast.NewHeader(1, ast.Attr{ID: "title"}, []ast.Inline{ast.NewStr("Title", nil)}, nil),
		ast.NewParagraph([]ast.Inline{
			ast.NewStr("a ", nil),
			ast.NewEmph([]ast.Inline{ast.NewStr("b", nil)}, nil),
		}, nil),
	)
	assert.Equal(t, "<h1 id=\"title\">Title</h1>\n<p>a <em>b</em></p>\n", out)
}

func TestTextEscaped(t *testing.T) {
	out := render(t, ast.NewParagraph([]ast.Inline{
		ast.NewStr("<script>", nil),
	}, nil))
	assert.Equal(t, "<p>&lt;script&gt;</p>\n", out)
}

func TestEditorialMarksFallBackToSpans(t *testing.T) {
	out := render(t, ast.NewParagraph([]ast.Inline{
		ast.NewInsert([]ast.Inline{ast.NewStr("new", nil)}, nil),
	}, nil))
	assert.Equal(t, "<p><span class=\"quarto-insert\">new</span></p>\n", out)
}

func TestCustomNodeFallsBackToDiv(t *testing.T) {
	slots := ast.NewSlotMap()
	slots.Set("body", ast.NewBlocksSlot([]ast.Block{
		ast.NewParagraph([]ast.Inline{ast.NewStr("content", nil)}, nil),
	}))
	out := render(t, ast.NewCustomBlock("callout", slots, nil))
	assert.Equal(t,
		"<div class=\"quarto-custom\" data-type=\"callout\">\n<p>content</p>\n</div>\n", out)
}

func TestSourceMapParallelWalk(t *testing.T) {
	src := sourcemap.NewSourceContext()
	fileID := src.AddFile("doc.qmd", []byte("hello *world*\n"))
	actx := ast.NewContext(src)

	strNode := ast.NewStr("hello", sourcemap.Original(fileID, sourcemap.Range{Start: 0, End: 5}))
	emphChild := ast.NewStr("world", sourcemap.Original(fileID, sourcemap.Range{Start: 7, End: 12}))
	emph := ast.NewEmph([]ast.Inline{emphChild}, sourcemap.Original(fileID, sourcemap.Range{Start: 6, End: 13}))
	para := ast.NewParagraph([]ast.Inline{strNode, ast.NewSpace(nil), emph},
		sourcemap.Original(fileID, sourcemap.Range{Start: 0, End: 13}))
	doc := ast.NewPandoc(ast.MetaValue{}, []ast.Block{para})

	var jsonBuf bytes.Buffer
	diags := jsonw.Writer{IncludeInlineLocations: true}.Write(doc, actx, &jsonBuf)
	require.Empty(t, diags)

	m, err := SourceMap(doc, jsonBuf.Bytes())
	require.NoError(t, err)

	require.Contains(t, m, interface{}(para))
	require.Contains(t, m, interface{}(strNode))
	require.Contains(t, m, interface{}(emphChild))
	// Space has no SourceInfo and therefore no map entry.
	assert.NotContains(t, m, interface{}(para.Content[1]))
	assert.GreaterOrEqual(t, m[interface{}(strNode)].PoolID, 0)
}
