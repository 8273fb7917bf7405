// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package native renders a document in Pandoc's Haskell-like native
// textual form (spec.md section 4.7). Constructs native format cannot
// represent (note definitions, metadata blocks, editorial marks, custom
// nodes, standalone attributes) accumulate Q-3-* feature errors and are
// skipped; everything else round-trips against Pandoc's own
// `markdown -> native` output.
package native

import (
	"bufio"
	"fmt"
	"io"

	"github.com/quarto-go/qcore/pkg/ast"
	"github.com/quarto-go/qcore/pkg/diagnostics"
	"github.com/quarto-go/qcore/pkg/sourcemap"
	"github.com/quarto-go/qcore/pkg/writers"
)

// Writer implements writers.Writer for the native format. The zero value
// is ready to use.
type Writer struct{}

// Write renders doc. The ast.Context is unused: native output carries no
// resolved source locations (spec 6.2 notes native/QMD writers do not
// require one).
func (Writer) Write(doc *ast.Pandoc, _ *ast.Context, w io.Writer) []diagnostics.DiagnosticMessage {
	out := &printer{w: bufio.NewWriter(w)}
	out.writeBlocksSeq(doc.Blocks)
	if err := out.flush(); err != nil {
		return append(out.errors, writers.IOError(err))
	}
	return out.errors
}

type printer struct {
	w      *bufio.Writer
	err    error
	errors []diagnostics.DiagnosticMessage
}

func (p *printer) flush() error {
	if p.err != nil {
		return p.err
	}
	return p.w.Flush()
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = p.w.WriteString(s)
}

// safeString writes a double-quoted string escaping backslash, quote and
// newline, matching Pandoc's native string syntax.
func (p *printer) safeString(s string) {
	p.raw("\"")
	for _, r := range s {
		switch r {
		case '\\':
			p.raw("\\\\")
		case '"':
			p.raw("\\\"")
		case '\n':
			p.raw("\\n")
		default:
			p.printf("%c", r)
		}
	}
	p.raw("\"")
}

func (p *printer) attr(a ast.Attr) {
	p.raw("( ")
	p.safeString(a.ID)
	p.raw(" , [")
	for i, class := range a.Classes {
		if i > 0 {
			p.raw(", ")
		}
		p.safeString(class)
	}
	p.raw("] , [")
	for i, kv := range a.KVs {
		if i > 0 {
			p.raw(", ")
		}
		p.raw("(")
		p.safeString(kv.Key)
		p.raw(", ")
		p.safeString(kv.Value)
		p.raw(")")
	}
	p.raw("] )")
}

func (p *printer) writeBlocksSeq(blocks []ast.Block) {
	p.raw("[ ")
	for i, b := range blocks {
		if i > 0 {
			p.raw(", ")
		}
		p.block(b)
	}
	p.raw(" ]")
}

func (p *printer) blocks(blocks []ast.Block) {
	p.raw("[")
	for i, b := range blocks {
		if i > 0 {
			p.raw(", ")
		}
		p.block(b)
	}
	p.raw("]")
}

func (p *printer) inlines(inlines []ast.Inline) {
	p.raw("[")
	for i, in := range inlines {
		if i > 0 {
			p.raw(", ")
		}
		p.inline(in)
	}
	p.raw("]")
}

func (p *printer) blockItems(items [][]ast.Block) {
	p.raw("[")
	for i, item := range items {
		if i > 0 {
			p.raw(", ")
		}
		p.blocks(item)
	}
	p.raw("]")
}

func (p *printer) block(b ast.Block) {
	switch v := b.(type) {
	case *ast.Plain:
		p.raw("Plain ")
		p.inlines(v.Content)
	case *ast.Paragraph:
		p.raw("Para ")
		p.inlines(v.Content)
	case *ast.CodeBlock:
		p.raw("CodeBlock ")
		p.attr(v.Attr)
		p.raw(" ")
		p.safeString(v.Text)
	case *ast.RawBlock:
		p.raw("RawBlock (Format ")
		p.safeString(v.Format)
		p.raw(") ")
		p.safeString(v.Text)
	case *ast.BulletList:
		p.raw("BulletList ")
		p.blockItems(v.Items)
	case *ast.OrderedList:
		p.printf("OrderedList (%d, ", v.ListAttrs.Start)
		p.raw(listNumberStyle(v.ListAttrs.Style))
		p.raw(", ")
		p.raw(listNumberDelim(v.ListAttrs.Delim))
		p.raw(") ")
		p.blockItems(v.Items)
	case *ast.BlockQuote:
		p.raw("BlockQuote ")
		p.blocks(v.Content)
	case *ast.Div:
		p.raw("Div ")
		p.attr(v.Attr)
		p.raw(" ")
		p.blocks(v.Content)
	case *ast.Figure:
		p.raw("Figure ")
		p.attr(v.Attr)
		p.raw(" ")
		p.caption(v.Caption)
		p.raw(" ")
		p.blocks(v.Content)
	case *ast.Header:
		p.printf("Header %d ", v.Level)
		p.attr(v.Attr)
		p.raw(" ")
		p.inlines(v.Content)
	case *ast.HorizontalRule:
		p.raw("HorizontalRule")
	case *ast.LineBlock:
		p.raw("LineBlock [")
		for i, line := range v.Lines {
			if i > 0 {
				p.raw(", ")
			}
			p.inlines(line)
		}
		p.raw("]")
	case *ast.DefinitionList:
		p.raw("DefinitionList [")
		for i, item := range v.Items {
			if i > 0 {
				p.raw(", ")
			}
			p.raw("(")
			p.inlines(item.Term)
			p.raw(", [")
			for j, def := range item.Definitions {
				if j > 0 {
					p.raw(", ")
				}
				p.blocks(def)
			}
			p.raw("])")
		}
		p.raw("]")
	case *ast.Table:
		p.table(v)
	case *ast.NoteDefinitionPara:
		p.errors = append(p.errors, diagnostics.New(diagnostics.Error,
			"Inline note definitions not supported").
			Code("Q-3-10").
			Problem(fmt.Sprintf("Cannot render inline note definition `[^%s]` in native format", v.ID)).
			At(v.Info()).
			Detail(diagnostics.DetailNote, "Inline note definitions require the note content to be coalesced into the reference location, which is not yet implemented", nil).
			Hint("Use inline footnote syntax instead: `^[your note content here]`").
			Build())
	case *ast.NoteDefinitionFencedBlock:
		p.errors = append(p.errors, diagnostics.New(diagnostics.Error,
			"Fenced note definitions not supported").
			Code("Q-3-11").
			Problem(fmt.Sprintf("Cannot render fenced note definition `[^%s]` in native format", v.ID)).
			At(v.Info()).
			Detail(diagnostics.DetailNote, "Fenced note definitions require the note content to be coalesced into the reference location, which is not yet implemented", nil).
			Hint("Use inline footnote syntax instead: `^[your note content here]`").
			Build())
	case *ast.BlockMetadata:
		p.errors = append(p.errors, diagnostics.New(diagnostics.Error,
			"Block metadata not supported in native format").
			Code("Q-3-20").
			Problem("Cannot render YAML metadata block in native format").
			At(v.Info()).
			Detail(diagnostics.DetailNote, "Metadata blocks are internal AST nodes that should be processed before reaching the writer", nil).
			Hint("Use JSON output format to see full AST including metadata").
			Build())
	case *ast.CaptionBlock:
		p.errors = append(p.errors, diagnostics.New(diagnostics.Error,
			"Caption block not supported in native format").
			Code("Q-3-21").
			Problem("Cannot render standalone caption block in native format").
			At(v.Info()).
			Detail(diagnostics.DetailNote, "Caption blocks should be attached to figures or tables during postprocessing", nil).
			Hint("This may indicate a bug in postprocessing or a filter that produces orphaned captions").
			Build())
	case *ast.CustomBlock:
		p.errors = append(p.errors, diagnostics.New(diagnostics.Error,
			"Custom block node in native writer").
			Code("Q-3-38").
			Problem(fmt.Sprintf("Custom node type `%s` not supported in native format", v.TypeName)).
			At(v.Info()).
			Detail(diagnostics.DetailNote, "Custom nodes are internal Quarto extensions", nil).
			Hint("Use JSON output format to see custom node details").
			Build())
	}
}

func (p *printer) caption(caption []ast.Inline) {
	// Native represents a figure caption as (Caption short long); the
	// AST keeps the caption as inlines, rendered as a single Plain.
	p.raw("(Caption Nothing [Plain ")
	p.inlines(caption)
	p.raw("])")
}

func (p *printer) table(t *ast.Table) {
	p.raw("Table ")
	p.attr(t.Attr)
	p.raw(" ")
	p.tableCaption(t.Caption)
	p.raw(" [")
	for i, spec := range t.ColSpecs {
		if i > 0 {
			p.raw(", ")
		}
		p.raw("(")
		p.raw(alignment(spec.Alignment))
		p.raw(", ")
		if spec.Width.Default {
			p.raw("ColWidthDefault")
		} else {
			p.printf("(ColWidth %g)", spec.Width.Width)
		}
		p.raw(")")
	}
	p.raw("] (TableHead ")
	p.attr(t.Head.Attr)
	p.raw(" ")
	p.rows(t.Head.Rows)
	p.raw(") [")
	for i, body := range t.Bodies {
		if i > 0 {
			p.raw(", ")
		}
		p.raw("TableBody ")
		p.attr(body.Attr)
		p.printf(" (RowHeadColumns %d) ", body.RowHeadColumns)
		p.rows(body.Head)
		p.raw(" ")
		p.rows(body.Body)
	}
	p.raw("] (TableFoot ")
	p.attr(t.Foot.Attr)
	p.raw(" ")
	p.rows(t.Foot.Rows)
	p.raw(" )")
}

func (p *printer) tableCaption(c ast.Caption) {
	p.raw("(Caption ")
	if len(c.Short) == 0 {
		p.raw("Nothing")
	} else {
		p.raw("(Just ")
		p.inlines(c.Short)
		p.raw(")")
	}
	p.raw(" ")
	p.blocks(c.Long)
	p.raw(")")
}

func (p *printer) rows(rows []ast.Row) {
	p.raw("[")
	for i, row := range rows {
		if i > 0 {
			p.raw(", ")
		}
		p.raw("Row ")
		p.attr(row.Attr)
		p.raw(" [")
		for j, cell := range row.Cells {
			if j > 0 {
				p.raw(", ")
			}
			p.raw("Cell ")
			p.attr(cell.Attr)
			p.raw(" ")
			p.raw(alignment(cell.Align))
			p.printf(" (RowSpan %d) (ColSpan %d)", cell.RowSpan, cell.ColSpan)
			p.raw(" ")
			p.blocks(cell.Content)
			p.raw(" ")
		}
		p.raw("] ")
	}
	p.raw("]")
}

func (p *printer) inline(in ast.Inline) {
	switch v := in.(type) {
	case *ast.Str:
		p.raw("Str ")
		p.safeString(v.Text)
	case *ast.Space:
		p.raw("Space")
	case *ast.SoftBreak:
		p.raw("SoftBreak")
	case *ast.LineBreak:
		p.raw("LineBreak")
	case *ast.Math:
		p.raw("Math ")
		if v.MKind == ast.DisplayMath {
			p.raw("DisplayMath")
		} else {
			p.raw("InlineMath")
		}
		p.raw(" ")
		p.safeString(v.Text)
	case *ast.Emph:
		p.raw("Emph ")
		p.inlines(v.Content)
	case *ast.Strong:
		p.raw("Strong ")
		p.inlines(v.Content)
	case *ast.Underline:
		p.raw("Underline ")
		p.inlines(v.Content)
	case *ast.Strikeout:
		p.raw("Strikeout ")
		p.inlines(v.Content)
	case *ast.Superscript:
		p.raw("Superscript ")
		p.inlines(v.Content)
	case *ast.Subscript:
		p.raw("Subscript ")
		p.inlines(v.Content)
	case *ast.SmallCaps:
		p.raw("SmallCaps ")
		p.inlines(v.Content)
	case *ast.Quoted:
		p.raw("Quoted ")
		if v.QKind == ast.DoubleQuote {
			p.raw("DoubleQuote")
		} else {
			p.raw("SingleQuote")
		}
		p.raw(" ")
		p.inlines(v.Content)
	case *ast.Code:
		p.raw("Code ")
		p.attr(v.Attr)
		p.raw(" ")
		p.safeString(v.Text)
	case *ast.RawInline:
		p.raw("RawInline (Format ")
		p.safeString(v.Format)
		p.raw(") ")
		p.safeString(v.Text)
	case *ast.Link:
		p.raw("Link ")
		p.attr(v.Attr)
		p.raw(" ")
		p.inlines(v.Content)
		p.raw(" (")
		p.safeString(v.Target.URL)
		p.raw(" , ")
		p.safeString(v.Target.Title)
		p.raw(")")
	case *ast.Image:
		p.raw("Image ")
		p.attr(v.Attr)
		p.raw(" ")
		p.inlines(v.Content)
		p.raw(" (")
		p.safeString(v.Target.URL)
		p.raw(" , ")
		p.safeString(v.Target.Title)
		p.raw(")")
	case *ast.Span:
		p.raw("Span ")
		p.attr(v.Attr)
		p.raw(" ")
		p.inlines(v.Content)
	case *ast.Note:
		p.raw("Note ")
		p.blocks(v.Blocks)
	case *ast.Cite:
		p.raw("Cite [")
		for i, cit := range v.Citations {
			if i > 0 {
				p.raw(", ")
			}
			p.raw("Citation { citationId = ")
			p.safeString(cit.ID)
			p.raw(", citationPrefix = ")
			p.inlines(cit.Prefix)
			p.raw(", citationSuffix = ")
			p.inlines(cit.Suffix)
			p.raw(", citationMode = ")
			p.raw(citationMode(cit.Mode))
			p.printf(", citationNoteNum = %d, citationHash = 0 }", cit.NoteNum)
		}
		p.raw("] ")
		p.inlines(v.Content)
	case *ast.Shortcode:
		// Shortcodes render as their span desugaring so a document that
		// skipped postprocessing still produces valid native output.
		attr := ast.Attr{Classes: []string{"quarto-shortcode"}}
		attr.SetKV("data-raw", v.Raw)
		p.raw("Span ")
		p.attr(attr)
		p.raw(" []")
	case *ast.NoteReference:
		p.errors = append(p.errors, diagnostics.New(diagnostics.Error,
			"Unprocessed note reference").
			Code("Q-3-31").
			Problem(fmt.Sprintf("Note reference `[^%s]` was not converted during postprocessing", v.ID)).
			At(v.Info()).
			Detail(diagnostics.DetailNote, "Note references should be converted to Span nodes during postprocessing. This may indicate a bug in the postprocessor or a filter that bypassed it.", nil).
			Hint("Please report this as a bug with a minimal reproducible example").
			Build())
	case *ast.AttrInline:
		msg := diagnostics.New(diagnostics.Error,
			"Standalone attributes not supported in native format").
			Code("Q-3-32").
			Problem("Cannot render standalone attribute in native format")
		if v.AttrSource.ID != nil {
			msg = msg.At(v.AttrSource.ID)
		}
		p.errors = append(p.errors, msg.
			Detail(diagnostics.DetailNote, "Standalone attributes (e.g., in table cells or headings) are not representable in Pandoc's native format", nil).
			Hint("Use JSON output format to see attribute details").
			Build())
	case *ast.Insert:
		p.editorialMarkError("Insert", "{++...++}", "Q-3-33", v.Info())
	case *ast.Delete:
		p.editorialMarkError("Delete", "{--...--}", "Q-3-34", v.Info())
	case *ast.Highlight:
		p.editorialMarkError("Highlight", "{==...==}", "Q-3-35", v.Info())
	case *ast.EditComment:
		p.editorialMarkError("EditComment", "{>>...<<}", "Q-3-36", v.Info())
	case *ast.CustomInline:
		p.errors = append(p.errors, diagnostics.New(diagnostics.Error,
			"Custom inline node in native writer").
			Code("Q-3-37").
			Problem(fmt.Sprintf("Custom node type `%s` not supported in native format", v.TypeName)).
			At(v.Info()).
			Detail(diagnostics.DetailNote, "Custom nodes are internal Quarto extensions", nil).
			Hint("Use JSON output format to see custom node details").
			Build())
	}
}

func (p *printer) editorialMarkError(name, syntax, code string, at *sourcemap.Info) {
	p.errors = append(p.errors, diagnostics.New(diagnostics.Error,
		"Unprocessed "+name+" markup").
		Code(code).
		Problem(fmt.Sprintf("%s markup `%s` was not desugared during postprocessing", name, syntax)).
		At(at).
		Detail(diagnostics.DetailNote, "Editorial marks should be converted to Span nodes during postprocessing. This may indicate a bug or a filter that bypassed postprocessing.", nil).
		Hint("Ensure postprocessing is enabled or use a Lua filter to handle editorial marks").
		Build())
}

func citationMode(m ast.CitationMode) string {
	switch m {
	case ast.SuppressAuthor:
		return "SuppressAuthor"
	case ast.AuthorInText:
		return "AuthorInText"
	default:
		return "NormalCitation"
	}
}

func alignment(a ast.Alignment) string {
	switch a {
	case ast.AlignLeft:
		return "AlignLeft"
	case ast.AlignRight:
		return "AlignRight"
	case ast.AlignCenter:
		return "AlignCenter"
	default:
		return "AlignDefault"
	}
}

func listNumberStyle(s ast.ListNumberStyle) string {
	switch s {
	case ast.Decimal:
		return "Decimal"
	case ast.LowerRoman:
		return "LowerRoman"
	case ast.UpperRoman:
		return "UpperRoman"
	case ast.LowerAlpha:
		return "LowerAlpha"
	case ast.UpperAlpha:
		return "UpperAlpha"
	default:
		return "DefaultStyle"
	}
}

func listNumberDelim(d ast.ListNumberDelim) string {
	switch d {
	case ast.Period:
		return "Period"
	case ast.OneParen:
		return "OneParen"
	case ast.TwoParens:
		return "TwoParens"
	default:
		return "DefaultDelim"
	}
}
