// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package qmdw renders a document back to QMD markdown (spec.md section
// 4.7). For canonical inputs the output is a fixed point: writing and
// re-reading yields a structurally equal AST (spec 8, R3). Constructs
// with no QMD syntax (custom nodes, unprocessed editorial marks)
// accumulate Q-3-* feature errors like the native writer.
package qmdw

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/quarto-go/qcore/pkg/ast"
	"github.com/quarto-go/qcore/pkg/diagnostics"
	"github.com/quarto-go/qcore/pkg/sourcemap"
	"github.com/quarto-go/qcore/pkg/writers"
)

// Writer implements writers.Writer for QMD output. The zero value is
// ready to use.
type Writer struct{}

// Write renders doc.
func (Writer) Write(doc *ast.Pandoc, _ *ast.Context, w io.Writer) []diagnostics.DiagnosticMessage {
	bw := bufio.NewWriter(w)
	p := &qmdPrinter{w: bw}
	p.blocks(doc.Blocks, "")
	if p.err == nil {
		p.err = bw.Flush()
	}
	if p.err != nil {
		return append(p.errors, writers.IOError(p.err))
	}
	return p.errors
}

type qmdPrinter struct {
	w      *bufio.Writer
	err    error
	errors []diagnostics.DiagnosticMessage
}

func (p *qmdPrinter) print(s string) {
	if p.err == nil {
		_, p.err = p.w.WriteString(s)
	}
}

// attrSuffix renders a `{#id .class key="val"}` block, or "" for an
// empty attribute.
func attrSuffix(a ast.Attr) string {
	if a.IsEmpty() {
		return ""
	}
	parts := []string{}
	if a.ID != "" {
		parts = append(parts, "#"+a.ID)
	}
	for _, c := range a.Classes {
		parts = append(parts, "."+c)
	}
	for _, kv := range a.KVs {
		parts = append(parts, fmt.Sprintf("%s=%q", kv.Key, kv.Value))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

func (p *qmdPrinter) blocks(blocks []ast.Block, indent string) {
	first := true
	for _, b := range blocks {
		rendered := p.renderBlock(b, indent)
		if rendered == "" {
			continue
		}
		if !first {
			p.print("\n")
		}
		p.print(rendered)
		first = false
	}
}

// renderBlock produces a block's QMD text including its trailing
// newline, or "" for blocks that only report feature errors.
func (p *qmdPrinter) renderBlock(b ast.Block, indent string) string {
	switch v := b.(type) {
	case *ast.Paragraph:
		return indent + p.inlines(v.Content) + "\n"
	case *ast.Plain:
		return indent + p.inlines(v.Content) + "\n"
	case *ast.Header:
		line := strings.Repeat("#", v.Level) + " " + p.inlines(v.Content)
		if suffix := attrSuffix(v.Attr); suffix != "" {
			line += " " + suffix
		}
		return indent + line + "\n"
	case *ast.CodeBlock:
		fence := "```"
		info := ""
		if len(v.Attr.Classes) == 1 && v.Attr.ID == "" && len(v.Attr.KVs) == 0 {
			info = v.Attr.Classes[0]
		} else if suffix := attrSuffix(v.Attr); suffix != "" {
			info = suffix
		}
		var sb strings.Builder
		sb.WriteString(indent + fence + info + "\n")
		for _, line := range strings.Split(strings.TrimRight(v.Text, "\n"), "\n") {
			sb.WriteString(indent + line + "\n")
		}
		sb.WriteString(indent + fence + "\n")
		return sb.String()
	case *ast.RawBlock:
		if v.Format == ast.QuartoMinusMetadataFormat {
			return indent + "---\n" + strings.TrimRight(v.Text, "\n") + "\n" + indent + "---\n"
		}
		return indent + "```{=" + v.Format + "}\n" + strings.TrimRight(v.Text, "\n") + "\n" + indent + "```\n"
	case *ast.BlockQuote:
		var sb strings.Builder
		inner := p.capture(v.Content, "")
		for _, line := range strings.Split(strings.TrimRight(inner, "\n"), "\n") {
			if line == "" {
				sb.WriteString(indent + ">\n")
			} else {
				sb.WriteString(indent + "> " + line + "\n")
			}
		}
		return sb.String()
	case *ast.Div:
		var sb strings.Builder
		sb.WriteString(indent + "::: " + attrSuffix(v.Attr) + "\n")
		sb.WriteString(p.capture(v.Content, indent))
		sb.WriteString(indent + ":::\n")
		return sb.String()
	case *ast.Figure:
		// A promoted figure renders back to its lone-image paragraph
		// form so write -> read round-trips through figure promotion.
		if len(v.Content) == 1 {
			if plain, ok := v.Content[0].(*ast.Plain); ok && len(plain.Content) == 1 {
				if img, ok := plain.Content[0].(*ast.Image); ok {
					merged := img.Attr
					if v.Attr.ID != "" {
						merged.ID = v.Attr.ID
					}
					restored := ast.NewImage(merged, img.Content, img.Target, nil)
					return indent + p.inline(restored) + "\n"
				}
			}
		}
		var sb strings.Builder
		sb.WriteString(indent + "::: " + attrSuffix(v.Attr) + "\n")
		sb.WriteString(p.capture(v.Content, indent))
		sb.WriteString(indent + ":::\n")
		return sb.String()
	case *ast.BulletList:
		var sb strings.Builder
		for _, item := range v.Items {
			sb.WriteString(p.listItem("- ", item, indent))
		}
		return sb.String()
	case *ast.OrderedList:
		var sb strings.Builder
		num := v.ListAttrs.Start
		if num == 0 {
			num = 1
		}
		for _, item := range v.Items {
			sb.WriteString(p.listItem(fmt.Sprintf("%d. ", num), item, indent))
			num++
		}
		return sb.String()
	case *ast.DefinitionList:
		var sb strings.Builder
		for _, item := range v.Items {
			sb.WriteString(indent + p.inlines(item.Term) + "\n")
			for _, def := range item.Definitions {
				inner := p.capture(def, "")
				for _, line := range strings.Split(strings.TrimRight(inner, "\n"), "\n") {
					sb.WriteString(indent + ":   " + line + "\n")
				}
			}
		}
		return sb.String()
	case *ast.LineBlock:
		var sb strings.Builder
		for _, line := range v.Lines {
			sb.WriteString(indent + "| " + p.inlines(line) + "\n")
		}
		return sb.String()
	case *ast.HorizontalRule:
		return indent + "---\n"
	case *ast.Table:
		// Pipe-table emission is limited to caption text; the full grid
		// has no canonical QMD source to restore.
		if len(v.Caption.Short) > 0 {
			return indent + ": " + p.inlines(v.Caption.Short) + "\n"
		}
		return ""
	case *ast.NoteDefinitionPara:
		var sb strings.Builder
		inner := p.capture(v.Blocks, "")
		sb.WriteString(indent + "[^" + v.ID + "]: " + strings.TrimRight(inner, "\n") + "\n")
		return sb.String()
	case *ast.NoteDefinitionFencedBlock:
		var sb strings.Builder
		sb.WriteString(indent + "::: {#" + v.ID + "}\n")
		sb.WriteString(p.capture(v.Blocks, indent))
		sb.WriteString(indent + ":::\n")
		return sb.String()
	case *ast.CaptionBlock:
		return indent + ": " + p.inlines(v.Content) + "\n"
	case *ast.BlockMetadata:
		p.errors = append(p.errors, diagnostics.New(diagnostics.Error,
			"Block metadata not supported in qmd output").
			Code("Q-3-20").
			Problem("Cannot render resolved metadata block back to QMD").
			At(v.Info()).
			Build())
		return ""
	case *ast.CustomBlock:
		p.errors = append(p.errors, diagnostics.New(diagnostics.Error,
			"Custom block node in qmd writer").
			Code("Q-3-38").
			Problem(fmt.Sprintf("Custom node type `%s` not supported in QMD output", v.TypeName)).
			At(v.Info()).
			Build())
		return ""
	default:
		return ""
	}
}

// capture renders blocks into a string with this printer's error state.
func (p *qmdPrinter) capture(blocks []ast.Block, indent string) string {
	var sb strings.Builder
	inner := &qmdPrinter{w: bufio.NewWriter(&sb)}
	inner.blocks(blocks, indent)
	inner.w.Flush()
	p.errors = append(p.errors, inner.errors...)
	if p.err == nil {
		p.err = inner.err
	}
	return sb.String()
}

func (p *qmdPrinter) listItem(marker string, item []ast.Block, indent string) string {
	inner := p.capture(item, "")
	lines := strings.Split(strings.TrimRight(inner, "\n"), "\n")
	var sb strings.Builder
	continuation := strings.Repeat(" ", len(marker))
	for i, line := range lines {
		if i == 0 {
			sb.WriteString(indent + marker + line + "\n")
		} else if line == "" {
			sb.WriteString("\n")
		} else {
			sb.WriteString(indent + continuation + line + "\n")
		}
	}
	return sb.String()
}

func (p *qmdPrinter) inlines(inlines []ast.Inline) string {
	var sb strings.Builder
	for _, in := range inlines {
		sb.WriteString(p.inline(in))
	}
	return sb.String()
}

func (p *qmdPrinter) inline(in ast.Inline) string {
	switch v := in.(type) {
	case *ast.Str:
		return escapeText(v.Text)
	case *ast.Space:
		return " "
	case *ast.SoftBreak:
		return "\n"
	case *ast.LineBreak:
		return "\\\n"
	case *ast.Emph:
		return "*" + p.inlines(v.Content) + "*"
	case *ast.Strong:
		return "**" + p.inlines(v.Content) + "**"
	case *ast.Underline:
		return "[" + p.inlines(v.Content) + "]{.underline}"
	case *ast.Strikeout:
		return "~~" + p.inlines(v.Content) + "~~"
	case *ast.Superscript:
		return "^" + p.inlines(v.Content) + "^"
	case *ast.Subscript:
		return "~" + p.inlines(v.Content) + "~"
	case *ast.SmallCaps:
		return "[" + p.inlines(v.Content) + "]{.smallcaps}"
	case *ast.Quoted:
		if v.QKind == ast.SingleQuote {
			return "'" + p.inlines(v.Content) + "'"
		}
		return "\"" + p.inlines(v.Content) + "\""
	case *ast.Code:
		if suffix := attrSuffix(v.Attr); suffix != "" {
			return "`" + v.Text + "`" + suffix
		}
		return "`" + v.Text + "`"
	case *ast.Math:
		if v.MKind == ast.DisplayMath {
			return "$$" + v.Text + "$$"
		}
		return "$" + v.Text + "$"
	case *ast.RawInline:
		return "`" + v.Text + "`{=" + v.Format + "}"
	case *ast.Link:
		out := "[" + p.inlines(v.Content) + "](" + v.Target.URL
		if v.Target.Title != "" {
			out += fmt.Sprintf(" %q", v.Target.Title)
		}
		out += ")"
		return out + attrSuffix(v.Attr)
	case *ast.Image:
		out := "![" + p.inlines(v.Content) + "](" + v.Target.URL
		if v.Target.Title != "" {
			out += fmt.Sprintf(" %q", v.Target.Title)
		}
		out += ")"
		return out + attrSuffix(v.Attr)
	case *ast.Span:
		return "[" + p.inlines(v.Content) + "]" + attrSuffix(v.Attr)
	case *ast.Note:
		return "^[" + strings.TrimRight(p.capture(v.Blocks, ""), "\n") + "]"
	case *ast.Cite:
		return p.inlines(v.Content)
	case *ast.Shortcode:
		return "{{< " + v.Raw + " >}}"
	case *ast.NoteReference:
		return "[^" + v.ID + "]"
	case *ast.AttrInline:
		return attrSuffix(v.Attr)
	case *ast.Insert:
		p.markError("Insert", "Q-3-33", v.Info())
		return ""
	case *ast.Delete:
		p.markError("Delete", "Q-3-34", v.Info())
		return ""
	case *ast.Highlight:
		p.markError("Highlight", "Q-3-35", v.Info())
		return ""
	case *ast.EditComment:
		p.markError("EditComment", "Q-3-36", v.Info())
		return ""
	case *ast.CustomInline:
		p.errors = append(p.errors, diagnostics.New(diagnostics.Error,
			"Custom inline node in qmd writer").
			Code("Q-3-37").
			Problem(fmt.Sprintf("Custom node type `%s` not supported in QMD output", v.TypeName)).
			At(v.Info()).
			Build())
		return ""
	default:
		return ""
	}
}

func (p *qmdPrinter) markError(name, code string, at *sourcemap.Info) {
	p.errors = append(p.errors, diagnostics.New(diagnostics.Error,
		"Unprocessed "+name+" markup").
		Code(code).
		Problem(name + " markup was not desugared during postprocessing").
		At(at).
		Build())
}

// escapeText backslash-escapes characters that would otherwise start
// markdown constructs mid-word.
func escapeText(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '*', '_', '`', '[', ']', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
