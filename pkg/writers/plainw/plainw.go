// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package plainw renders a document as plain text (spec.md section 4.7):
// formatting is stripped, paragraph breaks are preserved, and tables are
// rendered caption-only.
package plainw

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/quarto-go/qcore/pkg/ast"
	"github.com/quarto-go/qcore/pkg/diagnostics"
	"github.com/quarto-go/qcore/pkg/writers"
)

// Writer implements writers.Writer for plain text output. The zero value
// is ready to use.
type Writer struct{}

// Write renders doc.
func (Writer) Write(doc *ast.Pandoc, _ *ast.Context, w io.Writer) []diagnostics.DiagnosticMessage {
	bw := bufio.NewWriter(w)
	p := &plainPrinter{w: bw}
	p.blocks(doc.Blocks, "")
	if err := p.err; err == nil {
		p.err = bw.Flush()
	}
	if p.err != nil {
		return []diagnostics.DiagnosticMessage{writers.IOError(p.err)}
	}
	return nil
}

type plainPrinter struct {
	w   *bufio.Writer
	err error
}

func (p *plainPrinter) print(s string) {
	if p.err == nil {
		_, p.err = p.w.WriteString(s)
	}
}

func (p *plainPrinter) blocks(blocks []ast.Block, indent string) {
	for i, b := range blocks {
		if i > 0 {
			p.print("\n")
		}
		p.block(b, indent)
	}
}

func (p *plainPrinter) block(b ast.Block, indent string) {
	switch v := b.(type) {
	case *ast.Plain:
		p.print(indent + inlineText(v.Content) + "\n")
	case *ast.Paragraph:
		p.print(indent + inlineText(v.Content) + "\n")
	case *ast.Header:
		p.print(indent + inlineText(v.Content) + "\n")
	case *ast.CodeBlock:
		for _, line := range strings.Split(strings.TrimRight(v.Text, "\n"), "\n") {
			p.print(indent + line + "\n")
		}
	case *ast.RawBlock:
		// Raw content in another format has no plain rendition.
	case *ast.LineBlock:
		for _, line := range v.Lines {
			p.print(indent + inlineText(line) + "\n")
		}
	case *ast.BlockQuote:
		p.blocks(v.Content, indent+"  ")
	case *ast.Div:
		p.blocks(v.Content, indent)
	case *ast.Figure:
		if len(v.Caption) > 0 {
			p.print(indent + inlineText(v.Caption) + "\n")
		}
		p.blocks(v.Content, indent)
	case *ast.BulletList:
		for _, item := range v.Items {
			p.listItem("- ", item, indent)
		}
	case *ast.OrderedList:
		num := v.ListAttrs.Start
		if num == 0 {
			num = 1
		}
		for _, item := range v.Items {
			p.listItem(fmt.Sprintf("%d. ", num), item, indent)
			num++
		}
	case *ast.DefinitionList:
		for _, item := range v.Items {
			p.print(indent + inlineText(item.Term) + "\n")
			for _, def := range item.Definitions {
				p.blocks(def, indent+"  ")
			}
		}
	case *ast.Table:
		// Caption-only rendering; tabular text is out of scope.
		if len(v.Caption.Short) > 0 {
			p.print(indent + inlineText(v.Caption.Short) + "\n")
		}
		p.blocks(v.Caption.Long, indent)
	case *ast.HorizontalRule:
		p.print(indent + "\n")
	case *ast.CaptionBlock:
		p.print(indent + inlineText(v.Content) + "\n")
	case *ast.NoteDefinitionPara:
		p.blocks(v.Blocks, indent)
	case *ast.NoteDefinitionFencedBlock:
		p.blocks(v.Blocks, indent)
	case *ast.BlockMetadata:
		// Metadata carries no body text.
	case *ast.CustomBlock:
		if v.Slots != nil {
			for _, name := range v.Slots.Names() {
				slot, _ := v.Slots.Get(name)
				p.slot(slot, indent)
			}
		}
	}
}

func (p *plainPrinter) slot(s ast.Slot, indent string) {
	switch s.Kind {
	case ast.SlotBlock:
		if s.Block != nil {
			p.block(s.Block, indent)
		}
	case ast.SlotBlocks:
		p.blocks(s.Blocks, indent)
	case ast.SlotInline:
		if s.Inline != nil {
			p.print(indent + inlineText([]ast.Inline{s.Inline}) + "\n")
		}
	case ast.SlotInlines:
		p.print(indent + inlineText(s.Inlines) + "\n")
	}
}

func (p *plainPrinter) listItem(marker string, item []ast.Block, indent string) {
	var sb strings.Builder
	inner := &plainPrinter{w: bufio.NewWriter(&sb)}
	inner.blocks(item, "")
	inner.w.Flush()
	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	for i, line := range lines {
		if i == 0 {
			p.print(indent + marker + line + "\n")
		} else {
			p.print(indent + strings.Repeat(" ", len(marker)) + line + "\n")
		}
	}
}

// inlineText flattens inline content to its text, inserting spaces for
// space-like inlines and descending through containers; note bodies
// produce no text.
func inlineText(inlines []ast.Inline) string {
	var sb strings.Builder
	var visit func(ins []ast.Inline)
	visit = func(ins []ast.Inline) {
		for _, in := range ins {
			switch v := in.(type) {
			case *ast.Str:
				sb.WriteString(v.Text)
			case *ast.Space, *ast.SoftBreak:
				sb.WriteByte(' ')
			case *ast.LineBreak:
				sb.WriteByte('\n')
			case *ast.Code:
				sb.WriteString(v.Text)
			case *ast.Math:
				sb.WriteString(v.Text)
			case *ast.RawInline:
				// No plain rendition.
			case *ast.Note:
				// Footnote body text is dropped in plain output.
			case *ast.Shortcode:
			case *ast.NoteReference:
			case *ast.AttrInline:
			case *ast.CustomInline:
				if v.Slots != nil {
					for _, name := range v.Slots.Names() {
						slot, _ := v.Slots.Get(name)
						if slot.Kind == ast.SlotInlines {
							visit(slot.Inlines)
						}
					}
				}
			default:
				visit(ast.InlineChildren(in))
			}
		}
	}
	visit(inlines)
	return sb.String()
}
