// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package jsonw implements the JSON writer and reader (spec.md sections
// 4.7/6.3): a Pandoc-1.23-convention document object with optional
// source tracking. When IncludeInlineLocations is set, every node object
// with a SourceInfo carries "s" (an index into a side pool holding each
// distinct SourceInfo's resolved file range; the chain itself is not
// kept) and, when the location resolves, "l" (that same range), plus
// top-level "files" and "source-pool" tables. Read rebuilds Original
// locations from "l" and "files"; the pool is not read back.
package jsonw

import (
	"encoding/json"
	"io"

	"github.com/quarto-go/qcore/pkg/ast"
	"github.com/quarto-go/qcore/pkg/diagnostics"
	"github.com/quarto-go/qcore/pkg/sourcemap"
	"github.com/quarto-go/qcore/pkg/writers"
)

// APIVersion is the Pandoc API version the JSON document declares.
var APIVersion = []int{1, 23}

// Writer implements writers.Writer for the JSON format.
type Writer struct {
	// IncludeInlineLocations emits "s"/"l" fields per node plus the
	// "files" and "source-pool" side tables.
	IncludeInlineLocations bool
}

// Write renders doc as a single JSON object.
func (jw Writer) Write(doc *ast.Pandoc, actx *ast.Context, w io.Writer) []diagnostics.DiagnosticMessage {
	enc := &encoder{includeLocations: jw.IncludeInlineLocations}
	if actx != nil {
		enc.source = actx.Source
	}

	root := map[string]interface{}{
		"pandoc-api-version": APIVersion,
		"meta":               enc.metaMap(doc.Meta),
		"blocks":             enc.blocks(doc.Blocks),
	}
	if jw.IncludeInlineLocations {
		root["source-pool"] = enc.pool
		root["files"] = enc.fileTable()
	}

	je := json.NewEncoder(w)
	if err := je.Encode(root); err != nil {
		return []diagnostics.DiagnosticMessage{writers.IOError(err)}
	}
	return nil
}

type encoder struct {
	includeLocations bool
	source           *sourcemap.SourceContext

	pool      []map[string]interface{}
	poolIndex map[*sourcemap.Info]int
	filesSeen map[sourcemap.FileID]bool
	fileIDs   []sourcemap.FileID
}

// node assembles one {"t", "c"?, "s"?, "l"?} object.
func (e *encoder) node(t string, c interface{}, info *sourcemap.Info) map[string]interface{} {
	obj := map[string]interface{}{"t": t}
	if c != nil {
		obj["c"] = c
	}
	if e.includeLocations && !info.IsZero() {
		obj["s"] = e.poolID(info)
		if loc := e.resolved(info); loc != nil {
			obj["l"] = loc
		}
	}
	return obj
}

// poolID interns info into the side pool, deduplicating by pointer
// identity so shared SourceInfos (e.g. after merge_strs' Combine) are
// stored once.
func (e *encoder) poolID(info *sourcemap.Info) int {
	if e.poolIndex == nil {
		e.poolIndex = make(map[*sourcemap.Info]int)
	}
	if id, ok := e.poolIndex[info]; ok {
		return id
	}
	// Reserve the slot, then fill it with the resolved entry.
	id := len(e.pool)
	e.pool = append(e.pool, nil)
	e.poolIndex[info] = id
	e.pool[id] = e.poolEntry(info)
	return id
}

func (e *encoder) poolEntry(info *sourcemap.Info) map[string]interface{} {
	// The pool stores only the resolved anchor of each chain: variant
	// kinds are flattened to the (file, begin, end) the chain resolves
	// to, which is what consumers of "s" need for highlighting.
	entry := map[string]interface{}{}
	if loc := e.resolved(info); loc != nil {
		for k, v := range loc {
			entry[k] = v
		}
	}
	return entry
}

type posObj struct {
	Line   int `json:"l"`
	Column int `json:"c"`
	Offset int `json:"o"`
}

// resolved maps the chain's begin (offset 0) and end (offset Len) to the
// original file, recording the file for the side table.
func (e *encoder) resolved(info *sourcemap.Info) map[string]interface{} {
	if e.source == nil {
		return nil
	}
	fileID, begin, ok := info.MapOffset(0, e.source)
	if !ok {
		return nil
	}
	end := begin
	if endFile, endLoc, endOK := info.MapOffset(info.Len(), e.source); endOK && endFile == fileID {
		end = endLoc
	}
	if e.filesSeen == nil {
		e.filesSeen = make(map[sourcemap.FileID]bool)
	}
	if !e.filesSeen[fileID] {
		e.filesSeen[fileID] = true
		e.fileIDs = append(e.fileIDs, fileID)
	}
	return map[string]interface{}{
		"f": int(fileID),
		"b": posObj{Line: begin.Row, Column: begin.Column, Offset: begin.Offset},
		"e": posObj{Line: end.Row, Column: end.Column, Offset: end.Offset},
	}
}

func (e *encoder) fileTable() []map[string]interface{} {
	table := make([]map[string]interface{}, 0, len(e.fileIDs))
	for _, id := range e.fileIDs {
		path, _, ok := e.source.GetFile(id)
		if !ok {
			continue
		}
		table = append(table, map[string]interface{}{"id": int(id), "path": path})
	}
	return table
}

func (e *encoder) attr(a ast.Attr) []interface{} {
	classes := make([]interface{}, len(a.Classes))
	for i, c := range a.Classes {
		classes[i] = c
	}
	kvs := make([]interface{}, len(a.KVs))
	for i, kv := range a.KVs {
		kvs[i] = []interface{}{kv.Key, kv.Value}
	}
	return []interface{}{a.ID, classes, kvs}
}

func (e *encoder) blocks(blocks []ast.Block) []interface{} {
	out := make([]interface{}, len(blocks))
	for i, b := range blocks {
		out[i] = e.block(b)
	}
	return out
}

func (e *encoder) blockItems(items [][]ast.Block) []interface{} {
	out := make([]interface{}, len(items))
	for i, item := range items {
		out[i] = e.blocks(item)
	}
	return out
}

func (e *encoder) inlines(inlines []ast.Inline) []interface{} {
	out := make([]interface{}, len(inlines))
	for i, in := range inlines {
		out[i] = e.inline(in)
	}
	return out
}

func tag(t string) map[string]interface{} { return map[string]interface{}{"t": t} }

func (e *encoder) block(b ast.Block) map[string]interface{} {
	switch v := b.(type) {
	case *ast.Plain:
		return e.node("Plain", e.inlines(v.Content), v.Info())
	case *ast.Paragraph:
		return e.node("Para", e.inlines(v.Content), v.Info())
	case *ast.LineBlock:
		lines := make([]interface{}, len(v.Lines))
		for i, line := range v.Lines {
			lines[i] = e.inlines(line)
		}
		return e.node("LineBlock", lines, v.Info())
	case *ast.CodeBlock:
		return e.node("CodeBlock", []interface{}{e.attr(v.Attr), v.Text}, v.Info())
	case *ast.RawBlock:
		return e.node("RawBlock", []interface{}{v.Format, v.Text}, v.Info())
	case *ast.BlockQuote:
		return e.node("BlockQuote", e.blocks(v.Content), v.Info())
	case *ast.OrderedList:
		listAttrs := []interface{}{
			v.ListAttrs.Start,
			tag(listStyleName(v.ListAttrs.Style)),
			tag(listDelimName(v.ListAttrs.Delim)),
		}
		return e.node("OrderedList", []interface{}{listAttrs, e.blockItems(v.Items)}, v.Info())
	case *ast.BulletList:
		return e.node("BulletList", e.blockItems(v.Items), v.Info())
	case *ast.DefinitionList:
		items := make([]interface{}, len(v.Items))
		for i, item := range v.Items {
			items[i] = []interface{}{e.inlines(item.Term), e.blockItems(item.Definitions)}
		}
		return e.node("DefinitionList", items, v.Info())
	case *ast.Header:
		return e.node("Header", []interface{}{v.Level, e.attr(v.Attr), e.inlines(v.Content)}, v.Info())
	case *ast.HorizontalRule:
		return e.node("HorizontalRule", nil, v.Info())
	case *ast.Table:
		return e.node("Table", e.tablePayload(v), v.Info())
	case *ast.Figure:
		return e.node("Figure", []interface{}{
			e.attr(v.Attr), e.captionPayload(v.Caption, nil), e.blocks(v.Content),
		}, v.Info())
	case *ast.Div:
		return e.node("Div", []interface{}{e.attr(v.Attr), e.blocks(v.Content)}, v.Info())
	case *ast.BlockMetadata:
		return e.node("BlockMetadata", e.metaValue(v.Meta), v.Info())
	case *ast.NoteDefinitionPara:
		return e.node("NoteDefinitionPara", []interface{}{v.ID, e.blocks(v.Blocks)}, v.Info())
	case *ast.NoteDefinitionFencedBlock:
		return e.node("NoteDefinitionFencedBlock", []interface{}{v.ID, e.blocks(v.Blocks)}, v.Info())
	case *ast.CaptionBlock:
		return e.node("CaptionBlock", e.inlines(v.Content), v.Info())
	case *ast.CustomBlock:
		return e.node("Custom", e.customPayload(v.TypeName, v.Slots), v.Info())
	default:
		return e.node("Null", nil, nil)
	}
}

// captionPayload emits [short|null, long]; figures keep their caption as
// inlines, emitted as a single Plain in the long slot.
func (e *encoder) captionPayload(inlineCaption []ast.Inline, c *ast.Caption) []interface{} {
	if c != nil {
		var short interface{}
		if len(c.Short) > 0 {
			short = e.inlines(c.Short)
		}
		return []interface{}{short, e.blocks(c.Long)}
	}
	long := []interface{}{}
	if len(inlineCaption) > 0 {
		long = append(long, map[string]interface{}{"t": "Plain", "c": e.inlines(inlineCaption)})
	}
	return []interface{}{nil, long}
}

func (e *encoder) tablePayload(t *ast.Table) []interface{} {
	colspecs := make([]interface{}, len(t.ColSpecs))
	for i, cs := range t.ColSpecs {
		var width interface{}
		if cs.Width.Default {
			width = tag("ColWidthDefault")
		} else {
			width = map[string]interface{}{"t": "ColWidth", "c": cs.Width.Width}
		}
		colspecs[i] = []interface{}{tag(alignName(cs.Alignment)), width}
	}
	bodies := make([]interface{}, len(t.Bodies))
	for i, body := range t.Bodies {
		bodies[i] = []interface{}{
			e.attr(body.Attr), body.RowHeadColumns, e.rows(body.Head), e.rows(body.Body),
		}
	}
	return []interface{}{
		e.attr(t.Attr),
		e.captionPayload(nil, &t.Caption),
		colspecs,
		[]interface{}{e.attr(t.Head.Attr), e.rows(t.Head.Rows)},
		bodies,
		[]interface{}{e.attr(t.Foot.Attr), e.rows(t.Foot.Rows)},
	}
}

func (e *encoder) rows(rows []ast.Row) []interface{} {
	out := make([]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = []interface{}{
				e.attr(cell.Attr), tag(alignName(cell.Align)),
				cell.RowSpan, cell.ColSpan, e.blocks(cell.Content),
			}
		}
		out[i] = []interface{}{e.attr(row.Attr), cells}
	}
	return out
}

func (e *encoder) inline(in ast.Inline) map[string]interface{} {
	switch v := in.(type) {
	case *ast.Str:
		return e.node("Str", v.Text, v.Info())
	case *ast.Space:
		return e.node("Space", nil, v.Info())
	case *ast.SoftBreak:
		return e.node("SoftBreak", nil, v.Info())
	case *ast.LineBreak:
		return e.node("LineBreak", nil, v.Info())
	case *ast.Emph:
		return e.node("Emph", e.inlines(v.Content), v.Info())
	case *ast.Strong:
		return e.node("Strong", e.inlines(v.Content), v.Info())
	case *ast.Underline:
		return e.node("Underline", e.inlines(v.Content), v.Info())
	case *ast.Strikeout:
		return e.node("Strikeout", e.inlines(v.Content), v.Info())
	case *ast.Superscript:
		return e.node("Superscript", e.inlines(v.Content), v.Info())
	case *ast.Subscript:
		return e.node("Subscript", e.inlines(v.Content), v.Info())
	case *ast.SmallCaps:
		return e.node("SmallCaps", e.inlines(v.Content), v.Info())
	case *ast.Quoted:
		quoteType := "SingleQuote"
		if v.QKind == ast.DoubleQuote {
			quoteType = "DoubleQuote"
		}
		return e.node("Quoted", []interface{}{tag(quoteType), e.inlines(v.Content)}, v.Info())
	case *ast.Code:
		return e.node("Code", []interface{}{e.attr(v.Attr), v.Text}, v.Info())
	case *ast.Math:
		mathType := "InlineMath"
		if v.MKind == ast.DisplayMath {
			mathType = "DisplayMath"
		}
		return e.node("Math", []interface{}{tag(mathType), v.Text}, v.Info())
	case *ast.RawInline:
		return e.node("RawInline", []interface{}{v.Format, v.Text}, v.Info())
	case *ast.Link:
		return e.node("Link", []interface{}{
			e.attr(v.Attr), e.inlines(v.Content), []interface{}{v.Target.URL, v.Target.Title},
		}, v.Info())
	case *ast.Image:
		return e.node("Image", []interface{}{
			e.attr(v.Attr), e.inlines(v.Content), []interface{}{v.Target.URL, v.Target.Title},
		}, v.Info())
	case *ast.Span:
		return e.node("Span", []interface{}{e.attr(v.Attr), e.inlines(v.Content)}, v.Info())
	case *ast.Note:
		return e.node("Note", e.blocks(v.Blocks), v.Info())
	case *ast.Cite:
		citations := make([]interface{}, len(v.Citations))
		for i, cit := range v.Citations {
			citations[i] = map[string]interface{}{
				"citationId":      cit.ID,
				"citationPrefix":  e.inlines(cit.Prefix),
				"citationSuffix":  e.inlines(cit.Suffix),
				"citationMode":    tag(citationModeName(cit.Mode)),
				"citationNoteNum": cit.NoteNum,
				"citationHash":    0,
			}
		}
		return e.node("Cite", []interface{}{citations, e.inlines(v.Content)}, v.Info())
	case *ast.Shortcode:
		return e.node("Shortcode", v.Raw, v.Info())
	case *ast.NoteReference:
		return e.node("NoteReference", v.ID, v.Info())
	case *ast.AttrInline:
		return e.node("Attr", e.attr(v.Attr), v.Info())
	case *ast.Insert:
		return e.node("Insert", e.inlines(v.Content), v.Info())
	case *ast.Delete:
		return e.node("Delete", e.inlines(v.Content), v.Info())
	case *ast.Highlight:
		return e.node("Highlight", e.inlines(v.Content), v.Info())
	case *ast.EditComment:
		return e.node("EditComment", e.inlines(v.Content), v.Info())
	case *ast.CustomInline:
		return e.node("Custom", e.customPayload(v.TypeName, v.Slots), v.Info())
	default:
		return e.node("Null", nil, nil)
	}
}

// customPayload serializes a custom node as [type_name, [[name, slot]...]]
// preserving slot order.
func (e *encoder) customPayload(typeName string, slots *ast.SlotMap) []interface{} {
	entries := []interface{}{}
	if slots != nil {
		for _, name := range slots.Names() {
			slot, _ := slots.Get(name)
			var payload map[string]interface{}
			switch slot.Kind {
			case ast.SlotBlock:
				var c interface{}
				if slot.Block != nil {
					c = e.block(slot.Block)
				}
				payload = map[string]interface{}{"t": "Block", "c": c}
			case ast.SlotBlocks:
				payload = map[string]interface{}{"t": "Blocks", "c": e.blocks(slot.Blocks)}
			case ast.SlotInline:
				var c interface{}
				if slot.Inline != nil {
					c = e.inline(slot.Inline)
				}
				payload = map[string]interface{}{"t": "Inline", "c": c}
			case ast.SlotInlines:
				payload = map[string]interface{}{"t": "Inlines", "c": e.inlines(slot.Inlines)}
			}
			entries = append(entries, []interface{}{name, payload})
		}
	}
	return []interface{}{typeName, entries}
}

// metaMap emits the document metadata as a key -> MetaValue object, the
// Pandoc convention for the root "meta" field. A non-Map (or zero) root
// yields an empty object.
func (e *encoder) metaMap(m ast.MetaValue) map[string]interface{} {
	out := map[string]interface{}{}
	if m.Kind() != ast.MetaMapKind {
		return out
	}
	for _, entry := range m.Entries() {
		out[entry.Key] = e.metaValue(entry.Value)
	}
	return out
}

func (e *encoder) metaValue(m ast.MetaValue) map[string]interface{} {
	switch m.Kind() {
	case ast.MetaStringKind:
		return e.node("MetaString", m.String(), m.Info())
	case ast.MetaBoolKind:
		return e.node("MetaBool", m.Bool(), m.Info())
	case ast.MetaInlinesKind:
		return e.node("MetaInlines", e.inlines(m.Inlines()), m.Info())
	case ast.MetaBlocksKind:
		return e.node("MetaBlocks", e.blocks(m.Blocks()), m.Info())
	case ast.MetaListKind:
		items := make([]interface{}, len(m.List()))
		for i, item := range m.List() {
			items[i] = e.metaValue(item)
		}
		return e.node("MetaList", items, m.Info())
	case ast.MetaMapKind:
		entries := map[string]interface{}{}
		for _, entry := range m.Entries() {
			entries[entry.Key] = e.metaValue(entry.Value)
		}
		return e.node("MetaMap", entries, m.Info())
	default:
		return e.node("MetaString", "", nil)
	}
}

func alignName(a ast.Alignment) string {
	switch a {
	case ast.AlignLeft:
		return "AlignLeft"
	case ast.AlignCenter:
		return "AlignCenter"
	case ast.AlignRight:
		return "AlignRight"
	default:
		return "AlignDefault"
	}
}

func citationModeName(m ast.CitationMode) string {
	switch m {
	case ast.AuthorInText:
		return "AuthorInText"
	case ast.SuppressAuthor:
		return "SuppressAuthor"
	default:
		return "NormalCitation"
	}
}

func listStyleName(s ast.ListNumberStyle) string {
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

func listDelimName(d ast.ListNumberDelim) string {
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
