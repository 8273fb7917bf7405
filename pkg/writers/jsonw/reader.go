// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package jsonw

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/quarto-go/qcore/pkg/ast"
	"github.com/quarto-go/qcore/pkg/sourcemap"
)

// ReadError describes a malformed JSON document (spec 6.1's
// JsonReadError).
type ReadError struct {
	Reason string
}

func (e *ReadError) Error() string { return "json read: " + e.Reason }

func readErrorf(format string, args ...interface{}) error {
	return &ReadError{Reason: fmt.Sprintf(format, args...)}
}

// Read parses a JSON document produced by Writer (or Pandoc itself) back
// into an AST. When the document carries the "files" side table and "l"
// fields, node SourceInfos are reconstructed as Original locations in a
// fresh SourceContext; otherwise nodes get the zero SourceInfo.
func Read(r io.Reader) (*ast.Pandoc, *ast.Context, error) {
	var root map[string]json.RawMessage
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&root); err != nil {
		return nil, nil, &ReadError{Reason: err.Error()}
	}

	src := sourcemap.NewSourceContext()
	d := &decoder{src: src, fileMap: map[int]sourcemap.FileID{}}

	if filesRaw, ok := root["files"]; ok {
		var files []struct {
			ID   int    `json:"id"`
			Path string `json:"path"`
		}
		if err := json.Unmarshal(filesRaw, &files); err == nil {
			for _, f := range files {
				d.fileMap[f.ID] = src.AddFile(f.Path, nil)
			}
		}
	}

	blocksRaw, ok := root["blocks"]
	if !ok {
		return nil, nil, readErrorf("missing field blocks")
	}
	blocks, err := d.blocks(blocksRaw)
	if err != nil {
		return nil, nil, err
	}

	meta := ast.NewMetaMap(nil, nil)
	if metaRaw, ok := root["meta"]; ok {
		meta, err = d.metaMapRoot(metaRaw)
		if err != nil {
			return nil, nil, err
		}
	}

	doc := ast.NewPandoc(meta, blocks)
	actx := ast.NewContext(src)
	actx.Doc = doc
	return doc, actx, nil
}

type decoder struct {
	src     *sourcemap.SourceContext
	fileMap map[int]sourcemap.FileID
}

// nodeShape is the common {"t", "c"?, "l"?} envelope.
type nodeShape struct {
	T string          `json:"t"`
	C json.RawMessage `json:"c"`
	L json.RawMessage `json:"l"`
}

func (d *decoder) info(l json.RawMessage) *sourcemap.Info {
	if l == nil {
		return nil
	}
	var loc struct {
		F int `json:"f"`
		B struct {
			O int `json:"o"`
		} `json:"b"`
		E struct {
			O int `json:"o"`
		} `json:"e"`
	}
	if err := json.Unmarshal(l, &loc); err != nil {
		return nil
	}
	fileID, ok := d.fileMap[loc.F]
	if !ok {
		return nil
	}
	return sourcemap.Original(fileID, sourcemap.Range{Start: loc.B.O, End: loc.E.O})
}

func (d *decoder) blocks(raw json.RawMessage) ([]ast.Block, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, readErrorf("blocks must be an array: %v", err)
	}
	out := make([]ast.Block, 0, len(items))
	for _, item := range items {
		b, err := d.block(item)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (d *decoder) blockItems(raw json.RawMessage) ([][]ast.Block, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, readErrorf("list items must be an array: %v", err)
	}
	out := make([][]ast.Block, 0, len(items))
	for _, item := range items {
		blocks, err := d.blocks(item)
		if err != nil {
			return nil, err
		}
		out = append(out, blocks)
	}
	return out, nil
}

func (d *decoder) inlines(raw json.RawMessage) ([]ast.Inline, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, readErrorf("inlines must be an array: %v", err)
	}
	out := make([]ast.Inline, 0, len(items))
	for _, item := range items {
		in, err := d.inline(item)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

func (d *decoder) attr(raw json.RawMessage) (ast.Attr, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil || len(parts) != 3 {
		return ast.Attr{}, readErrorf("attr must be a 3-element array")
	}
	var attr ast.Attr
	if err := json.Unmarshal(parts[0], &attr.ID); err != nil {
		return ast.Attr{}, readErrorf("attr id must be a string")
	}
	if err := json.Unmarshal(parts[1], &attr.Classes); err != nil {
		return ast.Attr{}, readErrorf("attr classes must be strings")
	}
	var kvs [][]string
	if err := json.Unmarshal(parts[2], &kvs); err != nil {
		return ast.Attr{}, readErrorf("attr key-values must be string pairs")
	}
	for _, kv := range kvs {
		if len(kv) != 2 {
			return ast.Attr{}, readErrorf("attr key-value must have 2 elements")
		}
		attr.KVs = append(attr.KVs, ast.KV{Key: kv[0], Value: kv[1]})
	}
	return attr, nil
}

func splitPayload(c json.RawMessage, want int) ([]json.RawMessage, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(c, &parts); err != nil {
		return nil, readErrorf("payload must be an array: %v", err)
	}
	if len(parts) < want {
		return nil, readErrorf("payload needs %d elements, has %d", want, len(parts))
	}
	return parts, nil
}

func tagName(raw json.RawMessage) (string, error) {
	var shape struct {
		T string `json:"t"`
	}
	if err := json.Unmarshal(raw, &shape); err != nil {
		return "", readErrorf("expected tagged object: %v", err)
	}
	return shape.T, nil
}

func (d *decoder) block(raw json.RawMessage) (ast.Block, error) {
	var shape nodeShape
	if err := json.Unmarshal(raw, &shape); err != nil {
		return nil, readErrorf("block must be an object: %v", err)
	}
	info := d.info(shape.L)

	switch shape.T {
	case "Plain":
		content, err := d.inlines(shape.C)
		if err != nil {
			return nil, err
		}
		return ast.NewPlain(content, info), nil
	case "Para":
		content, err := d.inlines(shape.C)
		if err != nil {
			return nil, err
		}
		return ast.NewParagraph(content, info), nil
	case "LineBlock":
		var lineRaws []json.RawMessage
		if err := json.Unmarshal(shape.C, &lineRaws); err != nil {
			return nil, readErrorf("LineBlock content: %v", err)
		}
		lines := make([][]ast.Inline, 0, len(lineRaws))
		for _, lr := range lineRaws {
			line, err := d.inlines(lr)
			if err != nil {
				return nil, err
			}
			lines = append(lines, line)
		}
		return ast.NewLineBlock(lines, info), nil
	case "CodeBlock":
		parts, err := splitPayload(shape.C, 2)
		if err != nil {
			return nil, err
		}
		attr, err := d.attr(parts[0])
		if err != nil {
			return nil, err
		}
		var text string
		if err := json.Unmarshal(parts[1], &text); err != nil {
			return nil, readErrorf("CodeBlock text: %v", err)
		}
		return ast.NewCodeBlock(attr, text, info), nil
	case "RawBlock":
		parts, err := splitPayload(shape.C, 2)
		if err != nil {
			return nil, err
		}
		var format, text string
		if err := json.Unmarshal(parts[0], &format); err != nil {
			return nil, readErrorf("RawBlock format: %v", err)
		}
		if err := json.Unmarshal(parts[1], &text); err != nil {
			return nil, readErrorf("RawBlock text: %v", err)
		}
		return ast.NewRawBlock(format, text, info), nil
	case "BlockQuote":
		content, err := d.blocks(shape.C)
		if err != nil {
			return nil, err
		}
		return ast.NewBlockQuote(content, info), nil
	case "OrderedList":
		parts, err := splitPayload(shape.C, 2)
		if err != nil {
			return nil, err
		}
		listAttrs, err := d.listAttributes(parts[0])
		if err != nil {
			return nil, err
		}
		items, err := d.blockItems(parts[1])
		if err != nil {
			return nil, err
		}
		return ast.NewOrderedList(listAttrs, items, info), nil
	case "BulletList":
		items, err := d.blockItems(shape.C)
		if err != nil {
			return nil, err
		}
		return ast.NewBulletList(items, info), nil
	case "DefinitionList":
		var itemRaws []json.RawMessage
		if err := json.Unmarshal(shape.C, &itemRaws); err != nil {
			return nil, readErrorf("DefinitionList content: %v", err)
		}
		items := make([]ast.DefinitionItem, 0, len(itemRaws))
		for _, ir := range itemRaws {
			parts, err := splitPayload(ir, 2)
			if err != nil {
				return nil, err
			}
			term, err := d.inlines(parts[0])
			if err != nil {
				return nil, err
			}
			defs, err := d.blockItems(parts[1])
			if err != nil {
				return nil, err
			}
			items = append(items, ast.DefinitionItem{Term: term, Definitions: defs})
		}
		return ast.NewDefinitionList(items, info), nil
	case "Header":
		parts, err := splitPayload(shape.C, 3)
		if err != nil {
			return nil, err
		}
		var level int
		if err := json.Unmarshal(parts[0], &level); err != nil {
			return nil, readErrorf("Header level: %v", err)
		}
		attr, err := d.attr(parts[1])
		if err != nil {
			return nil, err
		}
		content, err := d.inlines(parts[2])
		if err != nil {
			return nil, err
		}
		return ast.NewHeader(level, attr, content, info), nil
	case "HorizontalRule":
		return ast.NewHorizontalRule(info), nil
	case "Table":
		return d.table(shape.C, info)
	case "Figure":
		parts, err := splitPayload(shape.C, 3)
		if err != nil {
			return nil, err
		}
		attr, err := d.attr(parts[0])
		if err != nil {
			return nil, err
		}
		caption, err := d.caption(parts[1])
		if err != nil {
			return nil, err
		}
		content, err := d.blocks(parts[2])
		if err != nil {
			return nil, err
		}
		// The figure caption round-trips through the Plain the writer
		// wrapped it in.
		var captionInlines []ast.Inline
		if len(caption.Long) == 1 {
			if plain, ok := caption.Long[0].(*ast.Plain); ok {
				captionInlines = plain.Content
			}
		}
		return ast.NewFigure(attr, captionInlines, content, info), nil
	case "Div":
		parts, err := splitPayload(shape.C, 2)
		if err != nil {
			return nil, err
		}
		attr, err := d.attr(parts[0])
		if err != nil {
			return nil, err
		}
		content, err := d.blocks(parts[1])
		if err != nil {
			return nil, err
		}
		return ast.NewDiv(attr, content, info), nil
	case "BlockMetadata":
		meta, err := d.metaValue(shape.C)
		if err != nil {
			return nil, err
		}
		return ast.NewBlockMetadata(meta, info), nil
	case "NoteDefinitionPara", "NoteDefinitionFencedBlock":
		parts, err := splitPayload(shape.C, 2)
		if err != nil {
			return nil, err
		}
		var id string
		if err := json.Unmarshal(parts[0], &id); err != nil {
			return nil, readErrorf("note definition id: %v", err)
		}
		blocks, err := d.blocks(parts[1])
		if err != nil {
			return nil, err
		}
		if shape.T == "NoteDefinitionPara" {
			return ast.NewNoteDefinitionPara(id, blocks, info), nil
		}
		return ast.NewNoteDefinitionFencedBlock(id, blocks, info), nil
	case "CaptionBlock":
		content, err := d.inlines(shape.C)
		if err != nil {
			return nil, err
		}
		return ast.NewCaptionBlock(content, info), nil
	case "Custom":
		typeName, slots, err := d.custom(shape.C)
		if err != nil {
			return nil, err
		}
		return ast.NewCustomBlock(typeName, slots, info), nil
	default:
		return nil, readErrorf("unknown block type %q", shape.T)
	}
}

func (d *decoder) listAttributes(raw json.RawMessage) (ast.ListAttributes, error) {
	parts, err := splitPayload(raw, 3)
	if err != nil {
		return ast.ListAttributes{}, err
	}
	var attrs ast.ListAttributes
	if err := json.Unmarshal(parts[0], &attrs.Start); err != nil {
		return ast.ListAttributes{}, readErrorf("list start: %v", err)
	}
	styleName, err := tagName(parts[1])
	if err != nil {
		return ast.ListAttributes{}, err
	}
	switch styleName {
	case "Decimal":
		attrs.Style = ast.Decimal
	case "LowerRoman":
		attrs.Style = ast.LowerRoman
	case "UpperRoman":
		attrs.Style = ast.UpperRoman
	case "LowerAlpha":
		attrs.Style = ast.LowerAlpha
	case "UpperAlpha":
		attrs.Style = ast.UpperAlpha
	default:
		attrs.Style = ast.DefaultStyle
	}
	delimName, err := tagName(parts[2])
	if err != nil {
		return ast.ListAttributes{}, err
	}
	switch delimName {
	case "Period":
		attrs.Delim = ast.Period
	case "OneParen":
		attrs.Delim = ast.OneParen
	case "TwoParens":
		attrs.Delim = ast.TwoParens
	default:
		attrs.Delim = ast.DefaultDelim
	}
	return attrs, nil
}

func (d *decoder) caption(raw json.RawMessage) (ast.Caption, error) {
	parts, err := splitPayload(raw, 2)
	if err != nil {
		return ast.Caption{}, err
	}
	var caption ast.Caption
	if string(parts[0]) != "null" {
		short, err := d.inlines(parts[0])
		if err != nil {
			return ast.Caption{}, err
		}
		caption.Short = short
	}
	long, err := d.blocks(parts[1])
	if err != nil {
		return ast.Caption{}, err
	}
	caption.Long = long
	return caption, nil
}

func (d *decoder) table(raw json.RawMessage, info *sourcemap.Info) (ast.Block, error) {
	parts, err := splitPayload(raw, 6)
	if err != nil {
		return nil, err
	}
	attr, err := d.attr(parts[0])
	if err != nil {
		return nil, err
	}
	caption, err := d.caption(parts[1])
	if err != nil {
		return nil, err
	}

	var specRaws []json.RawMessage
	if err := json.Unmarshal(parts[2], &specRaws); err != nil {
		return nil, readErrorf("table colspecs: %v", err)
	}
	colSpecs := make([]ast.ColSpec, 0, len(specRaws))
	for _, sr := range specRaws {
		specParts, err := splitPayload(sr, 2)
		if err != nil {
			return nil, err
		}
		alignTag, err := tagName(specParts[0])
		if err != nil {
			return nil, err
		}
		var width ast.ColWidth
		widthTag, err := tagName(specParts[1])
		if err != nil {
			return nil, err
		}
		if widthTag == "ColWidthDefault" {
			width.Default = true
		} else {
			var shape struct {
				C float64 `json:"c"`
			}
			if err := json.Unmarshal(specParts[1], &shape); err != nil {
				return nil, readErrorf("col width: %v", err)
			}
			width.Width = shape.C
		}
		colSpecs = append(colSpecs, ast.ColSpec{Alignment: alignFromName(alignTag), Width: width})
	}

	headParts, err := splitPayload(parts[3], 2)
	if err != nil {
		return nil, err
	}
	headAttr, err := d.attr(headParts[0])
	if err != nil {
		return nil, err
	}
	headRows, err := d.rows(headParts[1])
	if err != nil {
		return nil, err
	}

	var bodyRaws []json.RawMessage
	if err := json.Unmarshal(parts[4], &bodyRaws); err != nil {
		return nil, readErrorf("table bodies: %v", err)
	}
	bodies := make([]ast.TableBodyGroup, 0, len(bodyRaws))
	for _, br := range bodyRaws {
		bodyParts, err := splitPayload(br, 4)
		if err != nil {
			return nil, err
		}
		bodyAttr, err := d.attr(bodyParts[0])
		if err != nil {
			return nil, err
		}
		var rowHead int
		if err := json.Unmarshal(bodyParts[1], &rowHead); err != nil {
			return nil, readErrorf("table body row-head columns: %v", err)
		}
		head, err := d.rows(bodyParts[2])
		if err != nil {
			return nil, err
		}
		body, err := d.rows(bodyParts[3])
		if err != nil {
			return nil, err
		}
		bodies = append(bodies, ast.TableBodyGroup{
			Attr: bodyAttr, RowHeadColumns: rowHead, Head: head, Body: body,
		})
	}

	footParts, err := splitPayload(parts[5], 2)
	if err != nil {
		return nil, err
	}
	footAttr, err := d.attr(footParts[0])
	if err != nil {
		return nil, err
	}
	footRows, err := d.rows(footParts[1])
	if err != nil {
		return nil, err
	}

	return ast.NewTable(attr, caption, colSpecs,
		ast.TableHead{Attr: headAttr, Rows: headRows},
		bodies,
		ast.TableFoot{Attr: footAttr, Rows: footRows},
		info), nil
}

func (d *decoder) rows(raw json.RawMessage) ([]ast.Row, error) {
	var rowRaws []json.RawMessage
	if err := json.Unmarshal(raw, &rowRaws); err != nil {
		return nil, readErrorf("rows must be an array: %v", err)
	}
	rows := make([]ast.Row, 0, len(rowRaws))
	for _, rr := range rowRaws {
		parts, err := splitPayload(rr, 2)
		if err != nil {
			return nil, err
		}
		attr, err := d.attr(parts[0])
		if err != nil {
			return nil, err
		}
		var cellRaws []json.RawMessage
		if err := json.Unmarshal(parts[1], &cellRaws); err != nil {
			return nil, readErrorf("row cells: %v", err)
		}
		cells := make([]ast.Cell, 0, len(cellRaws))
		for _, cr := range cellRaws {
			cellParts, err := splitPayload(cr, 5)
			if err != nil {
				return nil, err
			}
			cellAttr, err := d.attr(cellParts[0])
			if err != nil {
				return nil, err
			}
			alignTag, err := tagName(cellParts[1])
			if err != nil {
				return nil, err
			}
			var rowSpan, colSpan int
			if err := json.Unmarshal(cellParts[2], &rowSpan); err != nil {
				return nil, readErrorf("cell row span: %v", err)
			}
			if err := json.Unmarshal(cellParts[3], &colSpan); err != nil {
				return nil, readErrorf("cell col span: %v", err)
			}
			content, err := d.blocks(cellParts[4])
			if err != nil {
				return nil, err
			}
			cells = append(cells, ast.Cell{
				Attr: cellAttr, Align: alignFromName(alignTag),
				RowSpan: rowSpan, ColSpan: colSpan, Content: content,
			})
		}
		rows = append(rows, ast.Row{Attr: attr, Cells: cells})
	}
	return rows, nil
}

func (d *decoder) inline(raw json.RawMessage) (ast.Inline, error) {
	var shape nodeShape
	if err := json.Unmarshal(raw, &shape); err != nil {
		return nil, readErrorf("inline must be an object: %v", err)
	}
	info := d.info(shape.L)

	simpleString := func() (string, error) {
		var s string
		if err := json.Unmarshal(shape.C, &s); err != nil {
			return "", readErrorf("%s content must be a string: %v", shape.T, err)
		}
		return s, nil
	}
	containerContent := func() ([]ast.Inline, error) {
		return d.inlines(shape.C)
	}

	switch shape.T {
	case "Str":
		text, err := simpleString()
		if err != nil {
			return nil, err
		}
		return ast.NewStr(text, info), nil
	case "Space":
		return ast.NewSpace(info), nil
	case "SoftBreak":
		return ast.NewSoftBreak(info), nil
	case "LineBreak":
		return ast.NewLineBreak(info), nil
	case "Emph":
		content, err := containerContent()
		if err != nil {
			return nil, err
		}
		return ast.NewEmph(content, info), nil
	case "Strong":
		content, err := containerContent()
		if err != nil {
			return nil, err
		}
		return ast.NewStrong(content, info), nil
	case "Underline":
		content, err := containerContent()
		if err != nil {
			return nil, err
		}
		return ast.NewUnderline(content, info), nil
	case "Strikeout":
		content, err := containerContent()
		if err != nil {
			return nil, err
		}
		return ast.NewStrikeout(content, info), nil
	case "Superscript":
		content, err := containerContent()
		if err != nil {
			return nil, err
		}
		return ast.NewSuperscript(content, info), nil
	case "Subscript":
		content, err := containerContent()
		if err != nil {
			return nil, err
		}
		return ast.NewSubscript(content, info), nil
	case "SmallCaps":
		content, err := containerContent()
		if err != nil {
			return nil, err
		}
		return ast.NewSmallCaps(content, info), nil
	case "Insert":
		content, err := containerContent()
		if err != nil {
			return nil, err
		}
		return ast.NewInsert(content, info), nil
	case "Delete":
		content, err := containerContent()
		if err != nil {
			return nil, err
		}
		return ast.NewDelete(content, info), nil
	case "Highlight":
		content, err := containerContent()
		if err != nil {
			return nil, err
		}
		return ast.NewHighlight(content, info), nil
	case "EditComment":
		content, err := containerContent()
		if err != nil {
			return nil, err
		}
		return ast.NewEditComment(content, info), nil
	case "Quoted":
		parts, err := splitPayload(shape.C, 2)
		if err != nil {
			return nil, err
		}
		quoteTag, err := tagName(parts[0])
		if err != nil {
			return nil, err
		}
		kind := ast.SingleQuote
		if quoteTag == "DoubleQuote" {
			kind = ast.DoubleQuote
		}
		content, err := d.inlines(parts[1])
		if err != nil {
			return nil, err
		}
		return ast.NewQuoted(kind, content, info), nil
	case "Code":
		parts, err := splitPayload(shape.C, 2)
		if err != nil {
			return nil, err
		}
		attr, err := d.attr(parts[0])
		if err != nil {
			return nil, err
		}
		var text string
		if err := json.Unmarshal(parts[1], &text); err != nil {
			return nil, readErrorf("Code text: %v", err)
		}
		return ast.NewCode(attr, text, info), nil
	case "Math":
		parts, err := splitPayload(shape.C, 2)
		if err != nil {
			return nil, err
		}
		mathTag, err := tagName(parts[0])
		if err != nil {
			return nil, err
		}
		kind := ast.InlineMath
		if mathTag == "DisplayMath" {
			kind = ast.DisplayMath
		}
		var text string
		if err := json.Unmarshal(parts[1], &text); err != nil {
			return nil, readErrorf("Math text: %v", err)
		}
		return ast.NewMath(kind, text, info), nil
	case "RawInline":
		parts, err := splitPayload(shape.C, 2)
		if err != nil {
			return nil, err
		}
		var format, text string
		if err := json.Unmarshal(parts[0], &format); err != nil {
			return nil, readErrorf("RawInline format: %v", err)
		}
		if err := json.Unmarshal(parts[1], &text); err != nil {
			return nil, readErrorf("RawInline text: %v", err)
		}
		return ast.NewRawInline(format, text, info), nil
	case "Link", "Image":
		parts, err := splitPayload(shape.C, 3)
		if err != nil {
			return nil, err
		}
		attr, err := d.attr(parts[0])
		if err != nil {
			return nil, err
		}
		content, err := d.inlines(parts[1])
		if err != nil {
			return nil, err
		}
		var target []string
		if err := json.Unmarshal(parts[2], &target); err != nil || len(target) != 2 {
			return nil, readErrorf("%s target must be [url, title]", shape.T)
		}
		tgt := ast.Target{URL: target[0], Title: target[1]}
		if shape.T == "Link" {
			return ast.NewLink(attr, content, tgt, info), nil
		}
		return ast.NewImage(attr, content, tgt, info), nil
	case "Span":
		parts, err := splitPayload(shape.C, 2)
		if err != nil {
			return nil, err
		}
		attr, err := d.attr(parts[0])
		if err != nil {
			return nil, err
		}
		content, err := d.inlines(parts[1])
		if err != nil {
			return nil, err
		}
		return ast.NewSpan(attr, content, info), nil
	case "Note":
		blocks, err := d.blocks(shape.C)
		if err != nil {
			return nil, err
		}
		return ast.NewNote(blocks, info), nil
	case "Cite":
		parts, err := splitPayload(shape.C, 2)
		if err != nil {
			return nil, err
		}
		citations, err := d.citations(parts[0])
		if err != nil {
			return nil, err
		}
		content, err := d.inlines(parts[1])
		if err != nil {
			return nil, err
		}
		return ast.NewCite(citations, content, info), nil
	case "Shortcode":
		rawText, err := simpleString()
		if err != nil {
			return nil, err
		}
		return ast.NewShortcode(rawText, info), nil
	case "NoteReference":
		id, err := simpleString()
		if err != nil {
			return nil, err
		}
		return ast.NewNoteReference(id, info), nil
	case "Attr":
		attr, err := d.attr(shape.C)
		if err != nil {
			return nil, err
		}
		return ast.NewAttrInline(attr, ast.AttrSourceInfo{}, info), nil
	case "Custom":
		typeName, slots, err := d.custom(shape.C)
		if err != nil {
			return nil, err
		}
		return ast.NewCustomInline(typeName, slots, info), nil
	default:
		return nil, readErrorf("unknown inline type %q", shape.T)
	}
}

func (d *decoder) citations(raw json.RawMessage) ([]ast.Citation, error) {
	var citRaws []json.RawMessage
	if err := json.Unmarshal(raw, &citRaws); err != nil {
		return nil, readErrorf("citations must be an array: %v", err)
	}
	citations := make([]ast.Citation, 0, len(citRaws))
	for _, cr := range citRaws {
		var shape struct {
			ID      string          `json:"citationId"`
			Prefix  json.RawMessage `json:"citationPrefix"`
			Suffix  json.RawMessage `json:"citationSuffix"`
			Mode    json.RawMessage `json:"citationMode"`
			NoteNum int             `json:"citationNoteNum"`
		}
		if err := json.Unmarshal(cr, &shape); err != nil {
			return nil, readErrorf("citation: %v", err)
		}
		var cit ast.Citation
		cit.ID = shape.ID
		cit.NoteNum = shape.NoteNum
		if shape.Prefix != nil {
			prefix, err := d.inlines(shape.Prefix)
			if err != nil {
				return nil, err
			}
			cit.Prefix = prefix
		}
		if shape.Suffix != nil {
			suffix, err := d.inlines(shape.Suffix)
			if err != nil {
				return nil, err
			}
			cit.Suffix = suffix
		}
		if shape.Mode != nil {
			modeTag, err := tagName(shape.Mode)
			if err != nil {
				return nil, err
			}
			switch modeTag {
			case "AuthorInText":
				cit.Mode = ast.AuthorInText
			case "SuppressAuthor":
				cit.Mode = ast.SuppressAuthor
			default:
				cit.Mode = ast.NormalCitation
			}
		}
		citations = append(citations, cit)
	}
	return citations, nil
}

func (d *decoder) custom(raw json.RawMessage) (string, *ast.SlotMap, error) {
	parts, err := splitPayload(raw, 2)
	if err != nil {
		return "", nil, err
	}
	var typeName string
	if err := json.Unmarshal(parts[0], &typeName); err != nil {
		return "", nil, readErrorf("custom type name: %v", err)
	}
	var entryRaws []json.RawMessage
	if err := json.Unmarshal(parts[1], &entryRaws); err != nil {
		return "", nil, readErrorf("custom slots: %v", err)
	}
	slots := ast.NewSlotMap()
	for _, er := range entryRaws {
		entryParts, err := splitPayload(er, 2)
		if err != nil {
			return "", nil, err
		}
		var name string
		if err := json.Unmarshal(entryParts[0], &name); err != nil {
			return "", nil, readErrorf("custom slot name: %v", err)
		}
		var slotShape nodeShape
		if err := json.Unmarshal(entryParts[1], &slotShape); err != nil {
			return "", nil, readErrorf("custom slot payload: %v", err)
		}
		switch slotShape.T {
		case "Block":
			b, err := d.block(slotShape.C)
			if err != nil {
				return "", nil, err
			}
			slots.Set(name, ast.NewBlockSlot(b))
		case "Blocks":
			bs, err := d.blocks(slotShape.C)
			if err != nil {
				return "", nil, err
			}
			slots.Set(name, ast.NewBlocksSlot(bs))
		case "Inline":
			in, err := d.inline(slotShape.C)
			if err != nil {
				return "", nil, err
			}
			slots.Set(name, ast.NewInlineSlot(in))
		case "Inlines":
			ins, err := d.inlines(slotShape.C)
			if err != nil {
				return "", nil, err
			}
			slots.Set(name, ast.NewInlinesSlot(ins))
		default:
			return "", nil, readErrorf("unknown slot kind %q", slotShape.T)
		}
	}
	return typeName, slots, nil
}

func (d *decoder) metaMapRoot(raw json.RawMessage) (ast.MetaValue, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ast.MetaValue{}, readErrorf("meta must be an object: %v", err)
	}
	keys := sortedKeys(obj)
	entries := make([]ast.MetaMapEntry, 0, len(obj))
	for _, key := range keys {
		value, err := d.metaValue(obj[key])
		if err != nil {
			return ast.MetaValue{}, err
		}
		entries = append(entries, ast.MetaMapEntry{Key: key, Value: value})
	}
	return ast.NewMetaMap(entries, nil), nil
}

func (d *decoder) metaValue(raw json.RawMessage) (ast.MetaValue, error) {
	var shape nodeShape
	if err := json.Unmarshal(raw, &shape); err != nil {
		return ast.MetaValue{}, readErrorf("meta value must be an object: %v", err)
	}
	info := d.info(shape.L)
	switch shape.T {
	case "MetaString":
		var s string
		if err := json.Unmarshal(shape.C, &s); err != nil {
			return ast.MetaValue{}, readErrorf("MetaString content: %v", err)
		}
		return ast.NewMetaString(s, info), nil
	case "MetaBool":
		var b bool
		if err := json.Unmarshal(shape.C, &b); err != nil {
			return ast.MetaValue{}, readErrorf("MetaBool content: %v", err)
		}
		return ast.NewMetaBool(b, info), nil
	case "MetaInlines":
		inlines, err := d.inlines(shape.C)
		if err != nil {
			return ast.MetaValue{}, err
		}
		return ast.NewMetaInlines(inlines, info), nil
	case "MetaBlocks":
		blocks, err := d.blocks(shape.C)
		if err != nil {
			return ast.MetaValue{}, err
		}
		return ast.NewMetaBlocks(blocks, info), nil
	case "MetaList":
		var itemRaws []json.RawMessage
		if err := json.Unmarshal(shape.C, &itemRaws); err != nil {
			return ast.MetaValue{}, readErrorf("MetaList content: %v", err)
		}
		items := make([]ast.MetaValue, 0, len(itemRaws))
		for _, ir := range itemRaws {
			item, err := d.metaValue(ir)
			if err != nil {
				return ast.MetaValue{}, err
			}
			items = append(items, item)
		}
		return ast.NewMetaList(items, info), nil
	case "MetaMap":
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(shape.C, &obj); err != nil {
			return ast.MetaValue{}, readErrorf("MetaMap content: %v", err)
		}
		keys := sortedKeys(obj)
		entries := make([]ast.MetaMapEntry, 0, len(obj))
		for _, key := range keys {
			value, err := d.metaValue(obj[key])
			if err != nil {
				return ast.MetaValue{}, err
			}
			entries = append(entries, ast.MetaMapEntry{Key: key, Value: value})
		}
		return ast.NewMetaMap(entries, info), nil
	default:
		return ast.MetaValue{}, readErrorf("unknown meta value type %q", shape.T)
	}
}

func alignFromName(name string) ast.Alignment {
	switch name {
	case "AlignLeft":
		return ast.AlignLeft
	case "AlignCenter":
		return ast.AlignCenter
	case "AlignRight":
		return ast.AlignRight
	default:
		return ast.AlignDefault
	}
}

// sortedKeys gives a deterministic order; the JSON object itself carries
// none.
func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
