// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package native

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

func TestHeaderWithAttr(t *testing.T) {
	header := ast.NewHeader(1, ast.Attr{ID: "hello-world"}, []ast.Inline{
		ast.NewStr("Hello", nil), ast.NewSpace(nil), ast.NewStr("World", nil),
	}, nil)

	out := render(t, header)
	assert.Equal(t,
		`[ Header 1 ( "hello-world" , [] , [] ) [Str "Hello", Space, Str "World"] ]`,
		out)
}

func TestParagraphEscaping(t *testing.T) {
	para := ast.NewParagraph([]ast.Inline{
		ast.NewStr(`a"b\c`+"\n", nil),
	}, nil)

	out := render(t, para)
	assert.Equal(t, `[ Para [Str "a\"b\\c\n"] ]`, out)
}

func TestNestedContainers(t *testing.T) {
	doc := ast.NewBlockQuote([]ast.Block{
		ast.NewParagraph([]ast.Inline{
			ast.NewEmph([]ast.Inline{ast.NewStr("em", nil)}, nil),
		}, nil),
	}, nil)

	out := render(t, doc)
	assert.Equal(t, `[ BlockQuote [Para [Emph [Str "em"]]] ]`, out)
}

func TestCiteRendering(t *testing.T) {
	cite := ast.NewCite([]ast.Citation{{ID: "knuth", NoteNum: 1}},
		[]ast.Inline{ast.NewStr("@knuth", nil)}, nil)

	out := render(t, ast.NewParagraph([]ast.Inline{cite}, nil))
	assert.Contains(t, out, `Citation { citationId = "knuth"`)
	assert.Contains(t, out, `citationNoteNum = 1, citationHash = 0 }`)
}

func TestOrderedListAttributes(t *testing.T) {
	list := ast.NewOrderedList(
		ast.ListAttributes{Start: 3, Style: ast.Decimal, Delim: ast.Period},
		[][]ast.Block{{ast.NewPlain([]ast.Inline{ast.NewStr("x", nil)}, nil)}},
		nil)

	out := render(t, list)
	assert.Equal(t, `[ OrderedList (3, Decimal, Period) [[Plain [Str "x"]]] ]`, out)
}

func TestCustomBlockIsFeatureError(t *testing.T) {
	doc := ast.NewPandoc(ast.MetaValue{}, []ast.Block{
		ast.NewCustomBlock("callout", ast.NewSlotMap(), nil),
	})

	var buf bytes.Buffer
	diags := Writer{}.Write(doc, nil, &buf)
	require.Len(t, diags, 1)
	assert.Equal(t, "Q-3-38", diags[0].Code)
	// The unsupported block is skipped, not partially rendered.
	assert.Equal(t, "[  ]", buf.String())
}

func TestEditorialMarkIsFeatureError(t *testing.T) {
	doc := ast.NewPandoc(ast.MetaValue{}, []ast.Block{
		ast.NewParagraph([]ast.Inline{
			ast.NewInsert([]ast.Inline{ast.NewStr("x", nil)}, nil),
		}, nil),
	})

	var buf bytes.Buffer
	diags := Writer{}.Write(doc, nil, &buf)
	require.Len(t, diags, 1)
	assert.Equal(t, "Q-3-33", diags[0].Code)
}

func TestNoteDefinitionIsFeatureError(t *testing.T) {
	doc := ast.NewPandoc(ast.MetaValue{}, []ast.Block{
		ast.NewNoteDefinitionPara("fn1", nil, nil),
	})

	var buf bytes.Buffer
	diags := Writer{}.Write(doc, nil, &buf)
	require.Len(t, diags, 1)
	assert.Equal(t, "Q-3-10", diags[0].Code)
}
