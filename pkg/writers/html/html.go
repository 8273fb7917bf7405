// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package html renders a document as HTML (spec.md section 4.7, stub
// scope). Unlike the native and QMD writers, unprocessed editorial marks
// and custom inlines degrade to <span> fallbacks, and custom blocks to a
// <div class="quarto-custom">, instead of feature errors: HTML can
// represent arbitrary spans losslessly, so best-effort
// emission keeps the exit code clean for this one format.
package html

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	xhtml "golang.org/x/net/html"

	"github.com/quarto-go/qcore/pkg/ast"
	"github.com/quarto-go/qcore/pkg/diagnostics"
	"github.com/quarto-go/qcore/pkg/writers"
)

// Writer implements writers.Writer for HTML output. The zero value is
// ready to use.
type Writer struct{}

// Write renders doc as an HTML fragment (no enclosing <html> document;
// templating is out of scope per spec section 1).
func (Writer) Write(doc *ast.Pandoc, _ *ast.Context, w io.Writer) []diagnostics.DiagnosticMessage {
	bw := bufio.NewWriter(w)
	p := &htmlPrinter{w: bw}
	for _, b := range doc.Blocks {
		p.block(b)
	}
	if p.err == nil {
		p.err = bw.Flush()
	}
	if p.err != nil {
		return []diagnostics.DiagnosticMessage{writers.IOError(p.err)}
	}
	return nil
}

type htmlPrinter struct {
	w   *bufio.Writer
	err error
}

func (p *htmlPrinter) print(s string) {
	if p.err == nil {
		_, p.err = p.w.WriteString(s)
	}
}

func (p *htmlPrinter) text(s string) {
	p.print(xhtml.EscapeString(s))
}

func attrString(a ast.Attr) string {
	var sb strings.Builder
	if a.ID != "" {
		fmt.Fprintf(&sb, " id=%q", a.ID)
	}
	if len(a.Classes) > 0 {
		fmt.Fprintf(&sb, " class=%q", strings.Join(a.Classes, " "))
	}
	for _, kv := range a.KVs {
		fmt.Fprintf(&sb, " data-%s=%q", kv.Key, kv.Value)
	}
	return sb.String()
}

func (p *htmlPrinter) block(b ast.Block) {
	switch v := b.(type) {
	case *ast.Paragraph:
		p.print("<p>")
		p.inlines(v.Content)
		p.print("</p>\n")
	case *ast.Plain:
		p.inlines(v.Content)
		p.print("\n")
	case *ast.Header:
		p.print(fmt.Sprintf("<h%d%s>", v.Level, attrString(v.Attr)))
		p.inlines(v.Content)
		p.print(fmt.Sprintf("</h%d>\n", v.Level))
	case *ast.CodeBlock:
		p.print("<pre" + attrString(v.Attr) + "><code>")
		p.text(v.Text)
		p.print("</code></pre>\n")
	case *ast.RawBlock:
		if v.Format == "html" {
			p.print(v.Text)
			p.print("\n")
		}
	case *ast.BlockQuote:
		p.print("<blockquote>\n")
		for _, child := range v.Content {
			p.block(child)
		}
		p.print("</blockquote>\n")
	case *ast.Div:
		p.print("<div" + attrString(v.Attr) + ">\n")
		for _, child := range v.Content {
			p.block(child)
		}
		p.print("</div>\n")
	case *ast.Figure:
		p.print("<figure" + attrString(v.Attr) + ">\n")
		for _, child := range v.Content {
			p.block(child)
		}
		if len(v.Caption) > 0 {
			p.print("<figcaption>")
			p.inlines(v.Caption)
			p.print("</figcaption>\n")
		}
		p.print("</figure>\n")
	case *ast.BulletList:
		p.print("<ul>\n")
		p.listItems(v.Items)
		p.print("</ul>\n")
	case *ast.OrderedList:
		if v.ListAttrs.Start > 1 {
			p.print(fmt.Sprintf("<ol start=\"%d\">\n", v.ListAttrs.Start))
		} else {
			p.print("<ol>\n")
		}
		p.listItems(v.Items)
		p.print("</ol>\n")
	case *ast.DefinitionList:
		p.print("<dl>\n")
		for _, item := range v.Items {
			p.print("<dt>")
			p.inlines(item.Term)
			p.print("</dt>\n")
			for _, def := range item.Definitions {
				p.print("<dd>\n")
				for _, child := range def {
					p.block(child)
				}
				p.print("</dd>\n")
			}
		}
		p.print("</dl>\n")
	case *ast.LineBlock:
		p.print("<div class=\"line-block\">")
		for i, line := range v.Lines {
			if i > 0 {
				p.print("<br/>")
			}
			p.inlines(line)
		}
		p.print("</div>\n")
	case *ast.HorizontalRule:
		p.print("<hr/>\n")
	case *ast.Table:
		p.table(v)
	case *ast.CaptionBlock:
		p.print("<caption>")
		p.inlines(v.Content)
		p.print("</caption>\n")
	case *ast.NoteDefinitionPara, *ast.NoteDefinitionFencedBlock:
		// Every note definition renders in place as an aside; a
		// NoteReference is not linked to it.
		p.print("<aside class=\"note-definition\">\n")
		var blocks []ast.Block
		if nd, ok := v.(*ast.NoteDefinitionPara); ok {
			blocks = nd.Blocks
		} else {
			blocks = v.(*ast.NoteDefinitionFencedBlock).Blocks
		}
		for _, child := range blocks {
			p.block(child)
		}
		p.print("</aside>\n")
	case *ast.BlockMetadata:
		// Resolved metadata has no HTML body.
	case *ast.CustomBlock:
		p.print("<div class=\"quarto-custom\" data-type=\"" + xhtml.EscapeString(v.TypeName) + "\">\n")
		if v.Slots != nil {
			for _, name := range v.Slots.Names() {
				slot, _ := v.Slots.Get(name)
				p.slot(slot)
			}
		}
		p.print("</div>\n")
	}
}

func (p *htmlPrinter) slot(s ast.Slot) {
	switch s.Kind {
	case ast.SlotBlock:
		if s.Block != nil {
			p.block(s.Block)
		}
	case ast.SlotBlocks:
		for _, b := range s.Blocks {
			p.block(b)
		}
	case ast.SlotInline:
		if s.Inline != nil {
			p.inline(s.Inline)
		}
	case ast.SlotInlines:
		p.inlines(s.Inlines)
	}
}

func (p *htmlPrinter) listItems(items [][]ast.Block) {
	for _, item := range items {
		p.print("<li>")
		for _, b := range item {
			p.block(b)
		}
		p.print("</li>\n")
	}
}

func (p *htmlPrinter) table(t *ast.Table) {
	p.print("<table" + attrString(t.Attr) + ">\n")
	if len(t.Caption.Short) > 0 {
		p.print("<caption>")
		p.inlines(t.Caption.Short)
		p.print("</caption>\n")
	}
	rowGroup := func(tag string, rows []ast.Row, cellTag string) {
		if len(rows) == 0 {
			return
		}
		p.print("<" + tag + ">\n")
		for _, row := range rows {
			p.print("<tr>")
			for _, cell := range row.Cells {
				p.print("<" + cellTag + ">")
				for _, b := range cell.Content {
					p.block(b)
				}
				p.print("</" + cellTag + ">")
			}
			p.print("</tr>\n")
		}
		p.print("</" + tag + ">\n")
	}
	rowGroup("thead", t.Head.Rows, "th")
	for _, body := range t.Bodies {
		rowGroup("tbody", append(append([]ast.Row{}, body.Head...), body.Body...), "td")
	}
	rowGroup("tfoot", t.Foot.Rows, "td")
	p.print("</table>\n")
}

func (p *htmlPrinter) inlines(inlines []ast.Inline) {
	for _, in := range inlines {
		p.inline(in)
	}
}

func (p *htmlPrinter) wrap(tag string, content []ast.Inline) {
	p.print("<" + tag + ">")
	p.inlines(content)
	p.print("</" + tag + ">")
}

func (p *htmlPrinter) spanFallback(class string, content []ast.Inline) {
	p.print("<span class=\"" + class + "\">")
	p.inlines(content)
	p.print("</span>")
}

func (p *htmlPrinter) inline(in ast.Inline) {
	switch v := in.(type) {
	case *ast.Str:
		p.text(v.Text)
	case *ast.Space:
		p.print(" ")
	case *ast.SoftBreak:
		p.print("\n")
	case *ast.LineBreak:
		p.print("<br/>\n")
	case *ast.Emph:
		p.wrap("em", v.Content)
	case *ast.Strong:
		p.wrap("strong", v.Content)
	case *ast.Underline:
		p.wrap("u", v.Content)
	case *ast.Strikeout:
		p.wrap("del", v.Content)
	case *ast.Superscript:
		p.wrap("sup", v.Content)
	case *ast.Subscript:
		p.wrap("sub", v.Content)
	case *ast.SmallCaps:
		p.spanFallback("smallcaps", v.Content)
	case *ast.Quoted:
		if v.QKind == ast.SingleQuote {
			p.print("&lsquo;")
			p.inlines(v.Content)
			p.print("&rsquo;")
		} else {
			p.print("&ldquo;")
			p.inlines(v.Content)
			p.print("&rdquo;")
		}
	case *ast.Code:
		p.print("<code" + attrString(v.Attr) + ">")
		p.text(v.Text)
		p.print("</code>")
	case *ast.Math:
		p.print("<span class=\"math\">")
		p.text(v.Text)
		p.print("</span>")
	case *ast.RawInline:
		if v.Format == "html" {
			p.print(v.Text)
		}
	case *ast.Link:
		p.print(fmt.Sprintf("<a href=%q%s>", v.Target.URL, attrString(v.Attr)))
		p.inlines(v.Content)
		p.print("</a>")
	case *ast.Image:
		alt := plainText(v.Content)
		p.print(fmt.Sprintf("<img src=%q alt=%q%s/>", v.Target.URL, alt, attrString(v.Attr)))
	case *ast.Span:
		p.print("<span" + attrString(v.Attr) + ">")
		p.inlines(v.Content)
		p.print("</span>")
	case *ast.Note:
		p.print("<sup class=\"footnote\">")
		for _, b := range v.Blocks {
			p.block(b)
		}
		p.print("</sup>")
	case *ast.Cite:
		p.print("<span class=\"citation\">")
		p.inlines(v.Content)
		p.print("</span>")
	case *ast.Shortcode:
		p.spanFallback("quarto-shortcode", nil)
	case *ast.NoteReference:
		p.print("<span class=\"quarto-note-reference\" data-reference-id=\"" +
			xhtml.EscapeString(v.ID) + "\"></span>")
	case *ast.AttrInline:
		// A bare attribute carries no renderable content.
	case *ast.Insert:
		p.spanFallback("quarto-insert", v.Content)
	case *ast.Delete:
		p.spanFallback("quarto-delete", v.Content)
	case *ast.Highlight:
		p.spanFallback("quarto-highlight", v.Content)
	case *ast.EditComment:
		p.spanFallback("quarto-edit-comment", v.Content)
	case *ast.CustomInline:
		p.print("<span class=\"quarto-custom\" data-type=\"" + xhtml.EscapeString(v.TypeName) + "\">")
		if v.Slots != nil {
			for _, name := range v.Slots.Names() {
				slot, _ := v.Slots.Get(name)
				p.slot(slot)
			}
		}
		p.print("</span>")
	}
}

func plainText(inlines []ast.Inline) string {
	var sb strings.Builder
	var visit func([]ast.Inline)
	visit = func(ins []ast.Inline) {
		for _, in := range ins {
			switch v := in.(type) {
			case *ast.Str:
				sb.WriteString(v.Text)
			case *ast.Space, *ast.SoftBreak:
				sb.WriteByte(' ')
			default:
				visit(ast.InlineChildren(in))
			}
		}
	}
	visit(inlines)
	return sb.String()
}
