// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarto-go/qcore/pkg/ast"
	"github.com/quarto-go/qcore/pkg/diagnostics"
	"github.com/quarto-go/qcore/pkg/sourcemap"
)

func words(ws ...string) []ast.Inline {
	var out []ast.Inline
	for i, w := range ws {
		if i > 0 {
			out = append(out, ast.NewSpace(nil))
		}
		out = append(out, ast.NewStr(w, nil))
	}
	return out
}

func docOf(blocks ...ast.Block) *ast.Pandoc {
	return ast.NewPandoc(ast.MetaValue{}, blocks)
}

func TestAutoGeneratedID(t *testing.T) {
	cases := []struct {
		content []ast.Inline
		want    string
	}{
		{words("Hello", "World"), "hello-world"},
		{words("What's", "New?"), "whats-new"},
		{[]ast.Inline{ast.NewEmph(words("Emphasized", "Title"), nil)}, "emphasized-title"},
		{words("!!!"), "section"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, AutoGeneratedID(tc.content))
	}
}

// End-to-end scenario 1: "# Hello World" gets id "hello-world".
func TestHeaderAutoID(t *testing.T) {
	header := ast.NewHeader(1, ast.Attr{}, words("Hello", "World"), nil)
	doc := docOf(header)

	require.NoError(t, Postprocess(doc, nil))

	out := doc.Blocks[0].(*ast.Header)
	assert.Equal(t, "hello-world", out.Attr.ID)
	assert.Equal(t, 1, out.Level)
}

// End-to-end scenario 2: an explicit id is kept as written, and a
// repeated generated id gets a -1 suffix.
func TestHeaderIDDeduplication(t *testing.T) {
	attrSpan := ast.NewAttrInline(ast.Attr{ID: "custom"}, ast.AttrSourceInfo{}, nil)
	h1 := ast.NewHeader(1, ast.Attr{}, append(words("Hello"), attrSpan), nil)
	h2 := ast.NewHeader(1, ast.Attr{}, words("Hello"), nil)
	h3 := ast.NewHeader(1, ast.Attr{}, words("Hello"), nil)
	doc := docOf(h1, h2, h3)

	require.NoError(t, Postprocess(doc, nil))

	assert.Equal(t, "custom", doc.Blocks[0].(*ast.Header).Attr.ID)
	assert.Equal(t, "hello", doc.Blocks[1].(*ast.Header).Attr.ID)
	assert.Equal(t, "hello-1", doc.Blocks[2].(*ast.Header).Attr.ID)
}

func TestTrailingAttrConsumedAndWhitespaceTrimmed(t *testing.T) {
	content := []ast.Inline{
		ast.NewStr("Title", nil),
		ast.NewSpace(nil),
		ast.NewAttrInline(ast.Attr{ID: "x", Classes: []string{"big"}}, ast.AttrSourceInfo{}, nil),
	}
	doc := docOf(ast.NewHeader(2, ast.Attr{}, content, nil))

	require.NoError(t, Postprocess(doc, nil))

	out := doc.Blocks[0].(*ast.Header)
	assert.Equal(t, "x", out.Attr.ID)
	assert.Equal(t, []string{"big"}, out.Attr.Classes)
	require.Len(t, out.Content, 1)
	assert.Equal(t, "Title", out.Content[0].(*ast.Str).Text)
}

func TestFigurePromotion(t *testing.T) {
	image := ast.NewImage(ast.Attr{ID: "fig-1", Classes: []string{"wide"}},
		words("A", "caption"), ast.Target{URL: "img.png"}, nil)
	doc := docOf(ast.NewParagraph([]ast.Inline{image}, nil))

	require.NoError(t, Postprocess(doc, nil))

	fig, ok := doc.Blocks[0].(*ast.Figure)
	require.True(t, ok)
	assert.Equal(t, "fig-1", fig.Attr.ID)
	assert.Equal(t, "A", fig.Caption[0].(*ast.Str).Text)
	inner := fig.Content[0].(*ast.Plain).Content[0].(*ast.Image)
	assert.Empty(t, inner.Attr.ID)
	assert.Equal(t, []string{"wide"}, inner.Attr.Classes)
}

func TestAltlessImageStaysParagraph(t *testing.T) {
	image := ast.NewImage(ast.Attr{}, nil, ast.Target{URL: "img.png"}, nil)
	doc := docOf(ast.NewParagraph([]ast.Inline{image}, nil))

	require.NoError(t, Postprocess(doc, nil))
	_, ok := doc.Blocks[0].(*ast.Paragraph)
	assert.True(t, ok)
}

func TestShortcodeAndNoteReferenceDesugar(t *testing.T) {
	doc := docOf(ast.NewParagraph([]ast.Inline{
		ast.NewShortcode("video x.mp4", nil),
		ast.NewNoteReference("note-1", nil),
	}, nil))

	require.NoError(t, Postprocess(doc, nil))

	para := doc.Blocks[0].(*ast.Paragraph)
	sc := para.Content[0].(*ast.Span)
	assert.True(t, sc.Attr.HasClass(ShortcodeClass))
	ref := para.Content[1].(*ast.Span)
	assert.True(t, ref.Attr.HasClass(NoteReferenceClass))
	id, _ := ref.Attr.Get("reference-id")
	assert.Equal(t, "note-1", id)
}

func TestEditorialMarksDesugar(t *testing.T) {
	doc := docOf(ast.NewParagraph([]ast.Inline{
		ast.NewInsert(words("added"), nil),
		ast.NewDelete(words("removed"), nil),
		ast.NewHighlight(words("marked"), nil),
		ast.NewEditComment(words("why?"), nil),
	}, nil))

	require.NoError(t, Postprocess(doc, nil))

	para := doc.Blocks[0].(*ast.Paragraph)
	classes := []string{}
	for _, in := range para.Content {
		classes = append(classes, in.(*ast.Span).Attr.Classes[0])
	}
	assert.Equal(t, []string{
		"quarto-insert", "quarto-delete", "quarto-highlight", "quarto-edit-comment",
	}, classes)
}

func TestCitationSuffixReflow(t *testing.T) {
	cite := ast.NewCite([]ast.Citation{{ID: "knuth"}},
		[]ast.Inline{ast.NewStr("@knuth", nil)}, nil)
	span := ast.NewSpan(ast.Attr{}, words("p.", "33"), nil)
	doc := docOf(ast.NewParagraph([]ast.Inline{
		cite, ast.NewSpace(nil), span,
	}, nil))

	require.NoError(t, Postprocess(doc, nil))

	para := doc.Blocks[0].(*ast.Paragraph)
	require.Len(t, para.Content, 1)
	out := para.Content[0].(*ast.Cite)
	require.Len(t, out.Citations, 1)
	assert.Len(t, out.Citations[0].Suffix, 3)

	// Rendered content: @knuth, Space, "[p.", Space, "33]".
	texts := []string{}
	for _, in := range out.Content {
		if s, ok := in.(*ast.Str); ok {
			texts = append(texts, s.Text)
		}
	}
	assert.Equal(t, []string{"@knuth", "[p.", "33]"}, texts)
}

func TestCitationReflowLeavesComplexCitesAlone(t *testing.T) {
	cite := ast.NewCite([]ast.Citation{{ID: "a"}, {ID: "b"}},
		words("@a;@b"), nil)
	span := ast.NewSpan(ast.Attr{}, words("p.", "1"), nil)
	doc := docOf(ast.NewParagraph([]ast.Inline{cite, ast.NewSpace(nil), span}, nil))

	require.NoError(t, Postprocess(doc, nil))

	para := doc.Blocks[0].(*ast.Paragraph)
	require.Len(t, para.Content, 3)
	out := para.Content[0].(*ast.Cite)
	assert.Empty(t, out.Citations[0].Suffix)
}

func TestCitationNumbering(t *testing.T) {
	c1 := ast.NewCite([]ast.Citation{{ID: "a"}}, words("@a"), nil)
	c2 := ast.NewCite([]ast.Citation{{ID: "b"}}, words("@b"), nil)
	doc := docOf(
		ast.NewParagraph([]ast.Inline{c1}, nil),
		ast.NewParagraph([]ast.Inline{c2}, nil),
	)

	require.NoError(t, Postprocess(doc, nil))

	assert.Equal(t, 1, c1.Citations[0].NoteNum)
	assert.Equal(t, 2, c2.Citations[0].NoteNum)
}

func TestOrphanedAttrIsInternalError(t *testing.T) {
	doc := docOf(ast.NewParagraph([]ast.Inline{
		ast.NewStr("text", nil),
		ast.NewSpace(nil),
		ast.NewAttrInline(ast.Attr{Classes: []string{"stray"}}, ast.AttrSourceInfo{}, nil),
	}, nil))

	diags := diagnostics.NewCollector()
	err := Postprocess(doc, diags)
	assert.Error(t, err)
	require.True(t, diags.HasErrors())
	assert.Equal(t, "Q-0-1", diags.Messages()[0].Code)
}

func TestSuperscriptTrim(t *testing.T) {
	sup := ast.NewSuperscript([]ast.Inline{
		ast.NewSpace(nil), ast.NewStr("2", nil), ast.NewSpace(nil),
	}, nil)
	doc := docOf(ast.NewParagraph([]ast.Inline{sup}, nil))

	require.NoError(t, Postprocess(doc, nil))

	out := doc.Blocks[0].(*ast.Paragraph).Content[0].(*ast.Superscript)
	require.Len(t, out.Content, 1)
	assert.Equal(t, "2", out.Content[0].(*ast.Str).Text)
}

// P2: smart punctuation after one MergeStrs application.
func TestMergeStrsSmartPunctuation(t *testing.T) {
	doc := docOf(ast.NewParagraph([]ast.Inline{
		ast.NewStr("wait", nil),
		ast.NewStr("...", nil),
		ast.NewSpace(nil),
		ast.NewStr("--", nil),
		ast.NewSpace(nil),
		ast.NewStr("---", nil),
	}, nil))

	MergeStrs(doc)

	para := doc.Blocks[0].(*ast.Paragraph)
	require.Len(t, para.Content, 5)
	assert.Equal(t, "wait…", para.Content[0].(*ast.Str).Text)
	assert.Equal(t, "–", para.Content[2].(*ast.Str).Text)
	assert.Equal(t, "—", para.Content[4].(*ast.Str).Text)
}

// P3 / end-to-end scenario 3: abbreviation coalescing with U+00A0, also
// inside Emph.
func TestMergeStrsAbbreviations(t *testing.T) {
	doc := docOf(ast.NewParagraph([]ast.Inline{
		ast.NewEmph([]ast.Inline{
			ast.NewStr("Mr.", nil), ast.NewSpace(nil), ast.NewStr("Smith", nil),
			ast.NewSpace(nil), ast.NewStr("went", nil), ast.NewSpace(nil),
			ast.NewStr("to", nil), ast.NewSpace(nil),
			ast.NewStr("e.g.", nil), ast.NewSpace(nil), ast.NewStr("Paris.", nil),
		}, nil),
	}, nil))

	MergeStrs(doc)

	emph := doc.Blocks[0].(*ast.Paragraph).Content[0].(*ast.Emph)
	texts := []string{}
	for _, in := range emph.Content {
		if s, ok := in.(*ast.Str); ok {
			texts = append(texts, s.Text)
		}
	}
	assert.Equal(t, []string{"Mr.\u00a0Smith", "went", "to", "e.g.\u00a0Paris."}, texts)
}

func TestAbbreviationNeedsWordBoundary(t *testing.T) {
	// "harp." ends in "p." but 'r' before it is alphanumeric: no coalesce.
	doc := docOf(ast.NewParagraph([]ast.Inline{
		ast.NewStr("harp.", nil), ast.NewSpace(nil), ast.NewStr("music", nil),
	}, nil))

	MergeStrs(doc)

	para := doc.Blocks[0].(*ast.Paragraph)
	require.Len(t, para.Content, 3)
	assert.Equal(t, "harp.", para.Content[0].(*ast.Str).Text)
}

func TestAbbreviationAbsorbsTrailingLoneSpace(t *testing.T) {
	doc := docOf(ast.NewParagraph([]ast.Inline{
		ast.NewStr("etc", nil), ast.NewSpace(nil),
	}, nil))
	// "etc" is not in the table; "vol." is.
	doc.Blocks = append(doc.Blocks, ast.NewParagraph([]ast.Inline{
		ast.NewStr("vol.", nil), ast.NewSpace(nil),
	}, nil))

	MergeStrs(doc)

	first := doc.Blocks[0].(*ast.Paragraph)
	require.Len(t, first.Content, 2)

	second := doc.Blocks[1].(*ast.Paragraph)
	require.Len(t, second.Content, 1)
	assert.Equal(t, "vol.\u00a0", second.Content[0].(*ast.Str).Text)
}

// P1: beyond the first application MergeStrs is a fixed point for inputs
// without abbreviation coalescing.
func TestMergeStrsIdempotent(t *testing.T) {
	doc := docOf(ast.NewParagraph([]ast.Inline{
		ast.NewStr("a", nil), ast.NewStr("b", nil), ast.NewSpace(nil), ast.NewStr("...", nil),
	}, nil))

	MergeStrs(doc)
	first := doc.Blocks[0].(*ast.Paragraph).Content

	MergeStrs(doc)
	second := doc.Blocks[0].(*ast.Paragraph).Content

	require.Equal(t, len(first), len(second))
	for i := range first {
		if s1, ok := first[i].(*ast.Str); ok {
			assert.Equal(t, s1.Text, second[i].(*ast.Str).Text)
		}
	}
}

func TestMergeStrsCombinesSourceRanges(t *testing.T) {
	src := sourcemap.NewSourceContext()
	fileID := src.AddFile("doc.qmd", []byte("foobar baz"))
	a := ast.NewStr("foo", sourcemap.Original(fileID, sourcemap.Range{Start: 0, End: 3}))
	b := ast.NewStr("bar", sourcemap.Original(fileID, sourcemap.Range{Start: 3, End: 6}))
	doc := docOf(ast.NewParagraph([]ast.Inline{a, b}, nil))

	MergeStrs(doc)

	para := doc.Blocks[0].(*ast.Paragraph)
	require.Len(t, para.Content, 1)
	merged := para.Content[0].(*ast.Str)
	assert.Equal(t, "foobar", merged.Text)
	id, loc, ok := merged.Info().MapOffset(4, src)
	require.True(t, ok)
	assert.Equal(t, fileID, id)
	assert.Equal(t, 4, loc.Offset)
}
