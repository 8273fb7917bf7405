// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package qmdreader

import (
	gast "github.com/yuin/goldmark/ast"
	gext "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/quarto-go/qcore/pkg/ast"
	"github.com/quarto-go/qcore/pkg/diagnostics"
	"github.com/quarto-go/qcore/pkg/qmdreader/scan"
	"github.com/quarto-go/qcore/pkg/sourcemap"
)

// converter turns a goldmark document for one source file into our AST,
// deriving every node's SourceInfo from goldmark's byte-accurate
// text.Segment values (the Go-idiomatic equivalent of a tree-sitter byte
// range, per spec 4.5).
type converter struct {
	source []byte
	fileID sourcemap.FileID
	// base shifts segment offsets into file coordinates when source is a
	// slice of the registered file (the body after a frontmatter fence).
	base  int
	diags *diagnostics.Collector
}

func (c *converter) info(seg text.Segment) *sourcemap.Info {
	return sourcemap.Original(c.fileID, sourcemap.Range{Start: c.base + seg.Start, End: c.base + seg.Stop})
}

func (c *converter) warnf(code, format string, args ...interface{}) {
	if c.diags != nil {
		c.diags.Warnf(code, format, args...)
	}
}

// convertBlocks converts the direct block-level children of parent.
func (c *converter) convertBlocks(parent gast.Node) []ast.Block {
	var blocks []ast.Block
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if b := c.convertBlock(n); b != nil {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

func (c *converter) convertBlock(n gast.Node) ast.Block {
	switch v := n.(type) {
	case *gast.Paragraph:
		lines := v.Lines()
		info := c.linesInfo(lines)
		return ast.NewParagraph(c.convertInlines(v), info)
	case *gast.TextBlock:
		lines := v.Lines()
		info := c.linesInfo(lines)
		return ast.NewPlain(c.convertInlines(v), info)
	case *gast.Heading:
		lines := v.Lines()
		info := c.linesInfo(lines)
		return ast.NewHeader(v.Level, ast.Attr{}, c.convertInlines(v), info)
	case *gast.ThematicBreak:
		// goldmark keeps no byte segment for a thematic break; it carries
		// no content to re-derive one from either.
		return ast.NewHorizontalRule(nil)
	case *gast.CodeBlock:
		return ast.NewCodeBlock(ast.Attr{}, c.linesText(v.Lines()), c.linesInfo(v.Lines()))
	case *gast.FencedCodeBlock:
		attr := ast.Attr{}
		if lang := v.Language(c.source); lang != nil {
			attr.Classes = []string{string(lang)}
		}
		return ast.NewCodeBlock(attr, c.linesText(v.Lines()), c.linesInfo(v.Lines()))
	case *gast.Blockquote:
		return ast.NewBlockQuote(c.convertBlocks(v), c.info(blockSegment(v)))
	case *gast.List:
		return c.convertList(v)
	case *gext.Table:
		return c.convertTable(v)
	case *gast.HTMLBlock:
		return ast.NewRawBlock("html", c.linesText(v.Lines()), c.linesInfo(v.Lines()))
	default:
		c.warnf("Q-1-1", "unrecognized block node %q; skipping", n.Kind().String())
		return nil
	}
}

func (c *converter) convertList(v *gast.List) ast.Block {
	items := make([][]ast.Block, 0)
	for n := v.FirstChild(); n != nil; n = n.NextSibling() {
		if li, ok := n.(*gast.ListItem); ok {
			items = append(items, c.convertBlocks(li))
		}
	}
	info := c.info(blockSegment(v))
	if v.IsOrdered() {
		delim := ast.Period
		if v.Marker == ')' {
			delim = ast.OneParen
		}
		return ast.NewOrderedList(ast.ListAttributes{Start: v.Start, Style: ast.Decimal, Delim: delim}, items, info)
	}
	return ast.NewBulletList(items, info)
}

func (c *converter) convertTable(v *gext.Table) ast.Block {
	colSpecs := make([]ast.ColSpec, len(v.Alignments))
	for i, a := range v.Alignments {
		colSpecs[i] = ast.ColSpec{Alignment: convertAlignment(a), Width: ast.ColWidth{Default: true}}
	}

	var head ast.TableHead
	var bodyRows []ast.Row
	for n := v.FirstChild(); n != nil; n = n.NextSibling() {
		switch row := n.(type) {
		case *gext.TableHeader:
			head = ast.TableHead{Rows: []ast.Row{c.convertTableRow(row)}}
		case *gext.TableRow:
			bodyRows = append(bodyRows, c.convertTableRow(row))
		}
	}

	return ast.NewTable(ast.Attr{}, ast.Caption{}, colSpecs, head,
		[]ast.TableBodyGroup{{Body: bodyRows}}, ast.TableFoot{}, c.info(blockSegment(v)))
}

func (c *converter) convertTableRow(n gast.Node) ast.Row {
	var cells []ast.Cell
	for cell := n.FirstChild(); cell != nil; cell = cell.NextSibling() {
		tc, ok := cell.(*gext.TableCell)
		if !ok {
			continue
		}
		cells = append(cells, ast.Cell{
			Align:   convertAlignment(tc.Alignment),
			RowSpan: 1,
			ColSpan: 1,
			Content: []ast.Block{ast.NewPlain(c.convertInlines(tc), c.info(blockSegment(tc)))},
			Info:    c.info(blockSegment(tc)),
		})
	}
	return ast.Row{Cells: cells, Info: c.info(blockSegment(n))}
}

func convertAlignment(a gext.Alignment) ast.Alignment {
	switch a {
	case gext.AlignLeft:
		return ast.AlignLeft
	case gext.AlignRight:
		return ast.AlignRight
	case gext.AlignCenter:
		return ast.AlignCenter
	default:
		return ast.AlignDefault
	}
}

// linesInfo derives a node's SourceInfo from its goldmark text.Segments,
// spanning from the first line's start to the last line's end.
func (c *converter) linesInfo(lines *text.Segments) *sourcemap.Info {
	if lines == nil || lines.Len() == 0 {
		return nil
	}
	first := lines.At(0)
	last := lines.At(lines.Len() - 1)
	return sourcemap.Original(c.fileID, sourcemap.Range{Start: c.base + first.Start, End: c.base + last.Stop})
}

func (c *converter) linesText(lines *text.Segments) string {
	if lines == nil {
		return ""
	}
	var out []byte
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		out = append(out, seg.Value(c.source)...)
	}
	return string(out)
}

// blockSegment approximates a container block's own span as the union of
// its descendants' segments, since goldmark container nodes (List,
// Blockquote, Table, ...) do not carry their own Lines().
func blockSegment(n gast.Node) text.Segment {
	first := firstLeafSegment(n)
	last := lastLeafSegment(n)
	if first == nil || last == nil {
		return text.NewSegment(0, 0)
	}
	return text.NewSegment(first.Start, last.Stop)
}

func firstLeafSegment(n gast.Node) *text.Segment {
	switch v := n.(type) {
	case *gast.Paragraph:
		return segPtr(v.Lines())
	case *gast.Heading:
		return segPtr(v.Lines())
	case *gast.TextBlock:
		return segPtr(v.Lines())
	case *gast.CodeBlock:
		return segPtr(v.Lines())
	case *gast.FencedCodeBlock:
		return segPtr(v.Lines())
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if s := firstLeafSegment(c); s != nil {
			return s
		}
	}
	return nil
}

func lastLeafSegment(n gast.Node) *text.Segment {
	switch v := n.(type) {
	case *gast.Paragraph:
		return segPtr(v.Lines())
	case *gast.Heading:
		return segPtr(v.Lines())
	case *gast.TextBlock:
		return segPtr(v.Lines())
	case *gast.CodeBlock:
		return segPtr(v.Lines())
	case *gast.FencedCodeBlock:
		return segPtr(v.Lines())
	}
	for c := n.LastChild(); c != nil; c = c.PreviousSibling() {
		if s := lastLeafSegment(c); s != nil {
			return s
		}
	}
	return nil
}

func segPtr(lines *text.Segments) *text.Segment {
	if lines == nil || lines.Len() == 0 {
		return nil
	}
	first := lines.At(0)
	last := lines.At(lines.Len() - 1)
	s := text.NewSegment(first.Start, last.Stop)
	return &s
}

// --- inline conversion -------------------------------------------------

func (c *converter) convertInlines(parent gast.Node) []ast.Inline {
	var out []ast.Inline
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		out = append(out, c.convertInline(n)...)
	}
	return out
}

// convertInline returns zero or more Inlines for n: a goldmark Text node
// expands to its Str/Space tokens plus a trailing SoftBreak/LineBreak when
// it ends a line; an unrecognized node yields none.
func (c *converter) convertInline(n gast.Node) []ast.Inline {
	switch v := n.(type) {
	case *gast.Text:
		seg := v.Segment
		out := c.tokenizeText(seg)
		if v.HardLineBreak() {
			out = append(out, ast.NewLineBreak(c.info(seg)))
		} else if v.SoftLineBreak() {
			out = append(out, ast.NewSoftBreak(c.info(seg)))
		}
		return out
	case *gast.String:
		return []ast.Inline{ast.NewStr(string(v.Value), nil)}
	case *gast.CodeSpan:
		return []ast.Inline{ast.NewCode(ast.Attr{}, c.inlineText(v), c.info(blockSegment(v)))}
	case *gast.Emphasis:
		content := c.convertInlines(v)
		info := c.info(blockSegment(v))
		if v.Level >= 2 {
			return []ast.Inline{ast.NewStrong(content, info)}
		}
		return []ast.Inline{ast.NewEmph(content, info)}
	case *gast.Link:
		return []ast.Inline{ast.NewLink(ast.Attr{}, c.convertInlines(v),
			ast.Target{URL: string(v.Destination), Title: string(v.Title)}, c.info(blockSegment(v)))}
	case *gast.Image:
		return []ast.Inline{ast.NewImage(ast.Attr{}, c.convertInlines(v),
			ast.Target{URL: string(v.Destination), Title: string(v.Title)}, c.info(blockSegment(v)))}
	case *gast.AutoLink:
		label := string(v.Label(c.source))
		return []ast.Inline{ast.NewLink(ast.Attr{}, []ast.Inline{ast.NewStr(label, nil)},
			ast.Target{URL: string(v.URL(c.source))}, nil)}
	case *gast.RawHTML:
		return []ast.Inline{ast.NewRawInline("html", c.rawHTMLText(v), nil)}
	case *gext.Strikethrough:
		return []ast.Inline{ast.NewStrikeout(c.convertInlines(v), c.info(blockSegment(v)))}
	case *scan.CitationNode:
		return []ast.Inline{c.convertCitation(v)}
	case *scan.ShortcodeNode:
		return []ast.Inline{ast.NewShortcode(v.Raw, nil)}
	case *scan.AttrNode:
		attr := ast.Attr{ID: v.ID, Classes: v.Classes}
		for _, kv := range v.KVs {
			attr.SetKV(kv.Key, kv.Value)
		}
		return []ast.Inline{ast.NewAttrInline(attr, ast.AttrSourceInfo{}, nil)}
	default:
		c.warnf("Q-1-2", "unrecognized inline node %q; skipping", n.Kind().String())
		return nil
	}
}

func (c *converter) convertCitation(v *scan.CitationNode) ast.Inline {
	citations := make([]ast.Citation, 0, len(v.Items))
	var content []ast.Inline
	for i, item := range v.Items {
		mode := ast.NormalCitation
		if item.Suppressed {
			mode = ast.SuppressAuthor
		}
		citations = append(citations, ast.Citation{
			ID:     item.Key,
			Prefix: stringInlines(item.Prefix),
			Suffix: stringInlines(item.Suffix),
			Mode:   mode,
		})
		if i > 0 {
			content = append(content, ast.NewSpace(nil))
		}
		content = append(content, ast.NewStr("@"+item.Key, nil))
	}
	return ast.NewCite(citations, content, nil)
}

// tokenizeText splits a goldmark text segment into the Str/Space tokens
// a Pandoc-compatible AST expects, each carrying the Original range of
// its own bytes so merge_strs and abbreviation coalescing can recombine
// them precisely.
func (c *converter) tokenizeText(seg text.Segment) []ast.Inline {
	data := seg.Value(c.source)
	var out []ast.Inline
	i := 0
	for i < len(data) {
		start := i
		if data[i] == ' ' || data[i] == '\t' {
			for i < len(data) && (data[i] == ' ' || data[i] == '\t') {
				i++
			}
			out = append(out, ast.NewSpace(c.info(text.NewSegment(seg.Start+start, seg.Start+i))))
			continue
		}
		for i < len(data) && data[i] != ' ' && data[i] != '\t' {
			i++
		}
		out = append(out, ast.NewStr(string(data[start:i]),
			c.info(text.NewSegment(seg.Start+start, seg.Start+i))))
	}
	return out
}

func stringInlines(s string) []ast.Inline {
	if s == "" {
		return nil
	}
	return []ast.Inline{ast.NewStr(s, nil)}
}

// inlineText concatenates the Text-node children of a leaf inline
// container such as CodeSpan, which keeps its literal content as child
// Text nodes rather than a Lines() segment list.
func (c *converter) inlineText(n gast.Node) string {
	var b []byte
	for ch := n.FirstChild(); ch != nil; ch = ch.NextSibling() {
		if t, ok := ch.(*gast.Text); ok {
			b = append(b, t.Segment.Value(c.source)...)
		}
	}
	return string(b)
}

func (c *converter) rawHTMLText(v *gast.RawHTML) string {
	var out []byte
	for i := 0; i < v.Segments.Len(); i++ {
		seg := v.Segments.At(i)
		out = append(out, seg.Value(c.source)...)
	}
	return string(out)
}
