// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package plainw

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

func TestFormattingStripped(t *testing.T) {
	out := render(t, ast.NewParagraph([]ast.Inline{
		ast.NewStr("plain", nil), ast.NewSpace(nil),
		ast.NewEmph([]ast.Inline{ast.NewStr("emphasized", nil)}, nil),
		ast.NewSpace(nil),
		ast.NewStrong([]ast.Inline{ast.NewStr("strong", nil)}, nil),
	}, nil))
	assert.Equal(t, "plain emphasized strong\n", out)
}

func TestParagraphBreaksPreserved(t *testing.T) {
	out := render(t,
		ast.NewParagraph([]ast.Inline{ast.NewStr("one", nil)}, nil),
		ast.NewParagraph([]ast.Inline{ast.NewStr("two", nil)}, nil),
	)
	assert.Equal(t, "one\n\ntwo\n", out)
}

func TestListRendering(t *testing.T) {
	out := render(t, ast.NewBulletList([][]ast.Block{
		{ast.NewPlain([]ast.Inline{ast.NewStr("first", nil)}, nil)},
		{ast.NewPlain([]ast.Inline{ast.NewStr("second", nil)}, nil)},
	}, nil))
	assert.Equal(t, "- first\n- second\n", out)
}

func TestTableCaptionOnly(t *testing.T) {
	table := ast.NewTable(ast.Attr{}, ast.Caption{
		Short: []ast.Inline{ast.NewStr("Results", nil)},
	}, nil, ast.TableHead{}, nil, ast.TableFoot{}, nil)

	out := render(t, table)
	assert.Equal(t, "Results\n", out)
}

func TestLinkTextOnly(t *testing.T) {
	out := render(t, ast.NewParagraph([]ast.Inline{
		ast.NewLink(ast.Attr{}, []ast.Inline{ast.NewStr("click", nil)},
			ast.Target{URL: "https://example.com"}, nil),
	}, nil))
	assert.Equal(t, "click\n", out)
}
