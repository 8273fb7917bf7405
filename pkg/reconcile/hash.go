// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"encoding/binary"
	"hash/maphash"

	"github.com/quarto-go/qcore/pkg/ast"
)

// hashSeed is fixed once per process so cached hashes stay comparable
// across every plan computed during a compilation (including plans
// computed concurrently by ComputeMany).
var hashSeed = maphash.MakeSeed()

// hashCache memoizes structural hashes per node. Nodes are interface
// values wrapping pointers, so identity-keyed maps are exact: re-visiting
// a subtree during container recursion reuses its hash instead of
// re-walking it.
type hashCache struct {
	blocks  map[ast.Block]uint64
	inlines map[ast.Inline]uint64
}

func newHashCache() *hashCache {
	return &hashCache{
		blocks:  make(map[ast.Block]uint64),
		inlines: make(map[ast.Inline]uint64),
	}
}

func (c *hashCache) hashBlock(b ast.Block) uint64 {
	if h, ok := c.blocks[b]; ok {
		return h
	}
	h := blockHash(b, c)
	c.blocks[b] = h
	return h
}

func (c *hashCache) hashInline(in ast.Inline) uint64 {
	if h, ok := c.inlines[in]; ok {
		return h
	}
	h := inlineHash(in, c)
	c.inlines[in] = h
	return h
}

// hasher accumulates the structural fingerprint of one node. Children are
// folded in by their own (cached) hash values, so the hash of a deep tree
// is commutative-intolerant: reordering children changes the result.
type hasher struct {
	h maphash.Hash
}

func newHasher() *hasher {
	var h hasher
	h.h.SetSeed(hashSeed)
	return &h
}

func (h *hasher) str(s string) {
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(s)))
	h.h.Write(lenBuf[:])
	h.h.WriteString(s)
}

func (h *hasher) u64(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	h.h.Write(buf[:])
}

func (h *hasher) int(v int) { h.u64(uint64(v)) }

func (h *hasher) sum() uint64 { return h.h.Sum64() }

func (h *hasher) attr(a ast.Attr) {
	h.str(a.ID)
	h.int(len(a.Classes))
	for _, c := range a.Classes {
		h.str(c)
	}
	h.int(len(a.KVs))
	for _, kv := range a.KVs {
		h.str(kv.Key)
		h.str(kv.Value)
	}
}

func (h *hasher) inlines(ins []ast.Inline, c *hashCache) {
	h.int(len(ins))
	for _, in := range ins {
		h.u64(c.hashInline(in))
	}
}

func (h *hasher) blocks(bs []ast.Block, c *hashCache) {
	h.int(len(bs))
	for _, b := range bs {
		h.u64(c.hashBlock(b))
	}
}

func blockHash(b ast.Block, c *hashCache) uint64 {
	h := newHasher()
	// Distinguish blocks from inlines that share kind ordinals.
	h.str("block")
	h.int(int(b.Kind()))
	switch v := b.(type) {
	case *ast.Plain:
		h.inlines(v.Content, c)
	case *ast.Paragraph:
		h.inlines(v.Content, c)
	case *ast.LineBlock:
		h.int(len(v.Lines))
		for _, line := range v.Lines {
			h.inlines(line, c)
		}
	case *ast.CodeBlock:
		h.attr(v.Attr)
		h.str(v.Text)
	case *ast.RawBlock:
		h.str(v.Format)
		h.str(v.Text)
	case *ast.BlockQuote:
		h.blocks(v.Content, c)
	case *ast.OrderedList:
		h.int(v.ListAttrs.Start)
		h.int(int(v.ListAttrs.Style))
		h.int(int(v.ListAttrs.Delim))
		h.int(len(v.Items))
		for _, item := range v.Items {
			h.blocks(item, c)
		}
	case *ast.BulletList:
		h.int(len(v.Items))
		for _, item := range v.Items {
			h.blocks(item, c)
		}
	case *ast.DefinitionList:
		h.int(len(v.Items))
		for _, item := range v.Items {
			h.inlines(item.Term, c)
			h.int(len(item.Definitions))
			for _, def := range item.Definitions {
				h.blocks(def, c)
			}
		}
	case *ast.Header:
		h.int(v.Level)
		h.attr(v.Attr)
		h.inlines(v.Content, c)
	case *ast.HorizontalRule:
	case *ast.Table:
		h.tableHash(v, c)
	case *ast.Figure:
		h.attr(v.Attr)
		h.inlines(v.Caption, c)
		h.blocks(v.Content, c)
	case *ast.Div:
		h.attr(v.Attr)
		h.blocks(v.Content, c)
	case *ast.BlockMetadata:
		h.metaValue(v.Meta, c)
	case *ast.NoteDefinitionPara:
		h.str(v.ID)
		h.blocks(v.Blocks, c)
	case *ast.NoteDefinitionFencedBlock:
		h.str(v.ID)
		h.blocks(v.Blocks, c)
	case *ast.CaptionBlock:
		h.inlines(v.Content, c)
	case *ast.CustomBlock:
		h.str(v.TypeName)
		h.slots(v.Slots, c)
	}
	return h.sum()
}

func (h *hasher) tableHash(t *ast.Table, c *hashCache) {
	h.attr(t.Attr)
	h.inlines(t.Caption.Short, c)
	h.blocks(t.Caption.Long, c)
	h.int(len(t.ColSpecs))
	for _, cs := range t.ColSpecs {
		h.int(int(cs.Alignment))
		if cs.Width.Default {
			h.int(1)
		} else {
			h.int(0)
			h.u64(uint64(cs.Width.Width * 1e9))
		}
	}
	h.rows(t.Head.Rows, c)
	h.int(len(t.Bodies))
	for _, grp := range t.Bodies {
		h.attr(grp.Attr)
		h.int(grp.RowHeadColumns)
		h.rows(grp.Head, c)
		h.rows(grp.Body, c)
	}
	h.rows(t.Foot.Rows, c)
}

func (h *hasher) rows(rows []ast.Row, c *hashCache) {
	h.int(len(rows))
	for _, row := range rows {
		h.attr(row.Attr)
		h.int(len(row.Cells))
		for _, cell := range row.Cells {
			h.attr(cell.Attr)
			h.int(int(cell.Align))
			h.int(cell.RowSpan)
			h.int(cell.ColSpan)
			h.blocks(cell.Content, c)
		}
	}
}

func (h *hasher) metaValue(m ast.MetaValue, c *hashCache) {
	h.int(int(m.Kind()))
	switch m.Kind() {
	case ast.MetaStringKind:
		h.str(m.String())
	case ast.MetaBoolKind:
		if m.Bool() {
			h.int(1)
		} else {
			h.int(0)
		}
	case ast.MetaInlinesKind:
		h.inlines(m.Inlines(), c)
	case ast.MetaBlocksKind:
		h.blocks(m.Blocks(), c)
	case ast.MetaListKind:
		h.int(len(m.List()))
		for _, item := range m.List() {
			h.metaValue(item, c)
		}
	case ast.MetaMapKind:
		h.int(len(m.Entries()))
		for _, e := range m.Entries() {
			h.str(e.Key)
			h.metaValue(e.Value, c)
		}
	}
}

func (h *hasher) slots(m *ast.SlotMap, c *hashCache) {
	if m == nil {
		h.int(0)
		return
	}
	names := m.Names()
	h.int(len(names))
	for _, name := range names {
		slot, _ := m.Get(name)
		h.str(name)
		h.int(int(slot.Kind))
		switch slot.Kind {
		case ast.SlotBlock:
			if slot.Block != nil {
				h.u64(c.hashBlock(slot.Block))
			}
		case ast.SlotBlocks:
			h.blocks(slot.Blocks, c)
		case ast.SlotInline:
			if slot.Inline != nil {
				h.u64(c.hashInline(slot.Inline))
			}
		case ast.SlotInlines:
			h.inlines(slot.Inlines, c)
		}
	}
}

func inlineHash(in ast.Inline, c *hashCache) uint64 {
	h := newHasher()
	h.str("inline")
	h.int(int(in.Kind()))
	switch v := in.(type) {
	case *ast.Str:
		h.str(v.Text)
	case *ast.Space, *ast.SoftBreak, *ast.LineBreak:
	case *ast.Code:
		h.attr(v.Attr)
		h.str(v.Text)
	case *ast.Math:
		h.int(int(v.MKind))
		h.str(v.Text)
	case *ast.RawInline:
		h.str(v.Format)
		h.str(v.Text)
	case *ast.Quoted:
		h.int(int(v.QKind))
		h.inlines(v.Content, c)
	case *ast.Link:
		h.attr(v.Attr)
		h.str(v.Target.URL)
		h.str(v.Target.Title)
		h.inlines(v.Content, c)
	case *ast.Image:
		h.attr(v.Attr)
		h.str(v.Target.URL)
		h.str(v.Target.Title)
		h.inlines(v.Content, c)
	case *ast.Span:
		h.attr(v.Attr)
		h.inlines(v.Content, c)
	case *ast.Note:
		h.blocks(v.Blocks, c)
	case *ast.Cite:
		h.int(len(v.Citations))
		for _, cit := range v.Citations {
			h.str(cit.ID)
			h.int(int(cit.Mode))
			h.int(cit.NoteNum)
			h.inlines(cit.Prefix, c)
			h.inlines(cit.Suffix, c)
		}
		h.inlines(v.Content, c)
	case *ast.Shortcode:
		h.str(v.Raw)
	case *ast.NoteReference:
		h.str(v.ID)
	case *ast.AttrInline:
		h.attr(v.Attr)
	case *ast.CustomInline:
		h.str(v.TypeName)
		h.slots(v.Slots, c)
	default:
		// Pure inline containers (Emph, Strong, editorial marks, ...)
		// contribute only their kind and children.
		h.inlines(ast.InlineChildren(in), c)
	}
	return h.sum()
}

// structuralEqBlock reports whether a and b are structurally equal,
// ignoring SourceInfo everywhere. It guards hash matches against
// collisions (spec 4.9 step (a)).
func structuralEqBlock(a, b ast.Block) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case *ast.Plain:
		return structuralEqInlines(av.Content, b.(*ast.Plain).Content)
	case *ast.Paragraph:
		return structuralEqInlines(av.Content, b.(*ast.Paragraph).Content)
	case *ast.LineBlock:
		bv := b.(*ast.LineBlock)
		if len(av.Lines) != len(bv.Lines) {
			return false
		}
		for i := range av.Lines {
			if !structuralEqInlines(av.Lines[i], bv.Lines[i]) {
				return false
			}
		}
		return true
	case *ast.CodeBlock:
		bv := b.(*ast.CodeBlock)
		return attrEq(av.Attr, bv.Attr) && av.Text == bv.Text
	case *ast.RawBlock:
		bv := b.(*ast.RawBlock)
		return av.Format == bv.Format && av.Text == bv.Text
	case *ast.BlockQuote:
		return structuralEqBlocks(av.Content, b.(*ast.BlockQuote).Content)
	case *ast.OrderedList:
		bv := b.(*ast.OrderedList)
		if av.ListAttrs != bv.ListAttrs {
			return false
		}
		return blockItemsEq(av.Items, bv.Items)
	case *ast.BulletList:
		return blockItemsEq(av.Items, b.(*ast.BulletList).Items)
	case *ast.DefinitionList:
		bv := b.(*ast.DefinitionList)
		if len(av.Items) != len(bv.Items) {
			return false
		}
		for i := range av.Items {
			if !structuralEqInlines(av.Items[i].Term, bv.Items[i].Term) {
				return false
			}
			if !blockItemsEq(av.Items[i].Definitions, bv.Items[i].Definitions) {
				return false
			}
		}
		return true
	case *ast.Header:
		bv := b.(*ast.Header)
		return av.Level == bv.Level && attrEq(av.Attr, bv.Attr) &&
			structuralEqInlines(av.Content, bv.Content)
	case *ast.HorizontalRule:
		return true
	case *ast.Table:
		return tableEq(av, b.(*ast.Table))
	case *ast.Figure:
		bv := b.(*ast.Figure)
		return attrEq(av.Attr, bv.Attr) &&
			structuralEqInlines(av.Caption, bv.Caption) &&
			structuralEqBlocks(av.Content, bv.Content)
	case *ast.Div:
		bv := b.(*ast.Div)
		return attrEq(av.Attr, bv.Attr) && structuralEqBlocks(av.Content, bv.Content)
	case *ast.BlockMetadata:
		return metaValueEq(av.Meta, b.(*ast.BlockMetadata).Meta)
	case *ast.NoteDefinitionPara:
		bv := b.(*ast.NoteDefinitionPara)
		return av.ID == bv.ID && structuralEqBlocks(av.Blocks, bv.Blocks)
	case *ast.NoteDefinitionFencedBlock:
		bv := b.(*ast.NoteDefinitionFencedBlock)
		return av.ID == bv.ID && structuralEqBlocks(av.Blocks, bv.Blocks)
	case *ast.CaptionBlock:
		return structuralEqInlines(av.Content, b.(*ast.CaptionBlock).Content)
	case *ast.CustomBlock:
		bv := b.(*ast.CustomBlock)
		return av.TypeName == bv.TypeName && slotsEq(av.Slots, bv.Slots)
	default:
		return false
	}
}

func blockItemsEq(a, b [][]ast.Block) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !structuralEqBlocks(a[i], b[i]) {
			return false
		}
	}
	return true
}

func structuralEqBlocks(a, b []ast.Block) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !structuralEqBlock(a[i], b[i]) {
			return false
		}
	}
	return true
}

func structuralEqInlines(a, b []ast.Inline) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !structuralEqInline(a[i], b[i]) {
			return false
		}
	}
	return true
}

// structuralEqInline is the inline counterpart of structuralEqBlock.
func structuralEqInline(a, b ast.Inline) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case *ast.Str:
		return av.Text == b.(*ast.Str).Text
	case *ast.Space, *ast.SoftBreak, *ast.LineBreak:
		return true
	case *ast.Code:
		bv := b.(*ast.Code)
		return attrEq(av.Attr, bv.Attr) && av.Text == bv.Text
	case *ast.Math:
		bv := b.(*ast.Math)
		return av.MKind == bv.MKind && av.Text == bv.Text
	case *ast.RawInline:
		bv := b.(*ast.RawInline)
		return av.Format == bv.Format && av.Text == bv.Text
	case *ast.Quoted:
		bv := b.(*ast.Quoted)
		return av.QKind == bv.QKind && structuralEqInlines(av.Content, bv.Content)
	case *ast.Link:
		bv := b.(*ast.Link)
		return attrEq(av.Attr, bv.Attr) && av.Target == bv.Target &&
			structuralEqInlines(av.Content, bv.Content)
	case *ast.Image:
		bv := b.(*ast.Image)
		return attrEq(av.Attr, bv.Attr) && av.Target == bv.Target &&
			structuralEqInlines(av.Content, bv.Content)
	case *ast.Span:
		bv := b.(*ast.Span)
		return attrEq(av.Attr, bv.Attr) && structuralEqInlines(av.Content, bv.Content)
	case *ast.Note:
		return structuralEqBlocks(av.Blocks, b.(*ast.Note).Blocks)
	case *ast.Cite:
		bv := b.(*ast.Cite)
		if len(av.Citations) != len(bv.Citations) {
			return false
		}
		for i := range av.Citations {
			ac, bc := av.Citations[i], bv.Citations[i]
			if ac.ID != bc.ID || ac.Mode != bc.Mode || ac.NoteNum != bc.NoteNum {
				return false
			}
			if !structuralEqInlines(ac.Prefix, bc.Prefix) || !structuralEqInlines(ac.Suffix, bc.Suffix) {
				return false
			}
		}
		return structuralEqInlines(av.Content, bv.Content)
	case *ast.Shortcode:
		return av.Raw == b.(*ast.Shortcode).Raw
	case *ast.NoteReference:
		return av.ID == b.(*ast.NoteReference).ID
	case *ast.AttrInline:
		return attrEq(av.Attr, b.(*ast.AttrInline).Attr)
	case *ast.CustomInline:
		bv := b.(*ast.CustomInline)
		return av.TypeName == bv.TypeName && slotsEq(av.Slots, bv.Slots)
	default:
		return structuralEqInlines(ast.InlineChildren(a), ast.InlineChildren(b))
	}
}

func attrEq(a, b ast.Attr) bool {
	if a.ID != b.ID || len(a.Classes) != len(b.Classes) || len(a.KVs) != len(b.KVs) {
		return false
	}
	for i := range a.Classes {
		if a.Classes[i] != b.Classes[i] {
			return false
		}
	}
	for i := range a.KVs {
		if a.KVs[i] != b.KVs[i] {
			return false
		}
	}
	return true
}

func tableEq(a, b *ast.Table) bool {
	if !attrEq(a.Attr, b.Attr) || len(a.ColSpecs) != len(b.ColSpecs) {
		return false
	}
	for i := range a.ColSpecs {
		if a.ColSpecs[i] != b.ColSpecs[i] {
			return false
		}
	}
	if !structuralEqInlines(a.Caption.Short, b.Caption.Short) ||
		!structuralEqBlocks(a.Caption.Long, b.Caption.Long) {
		return false
	}
	if !rowsEq(a.Head.Rows, b.Head.Rows) || !rowsEq(a.Foot.Rows, b.Foot.Rows) {
		return false
	}
	if len(a.Bodies) != len(b.Bodies) {
		return false
	}
	for i := range a.Bodies {
		ab, bb := a.Bodies[i], b.Bodies[i]
		if !attrEq(ab.Attr, bb.Attr) || ab.RowHeadColumns != bb.RowHeadColumns {
			return false
		}
		if !rowsEq(ab.Head, bb.Head) || !rowsEq(ab.Body, bb.Body) {
			return false
		}
	}
	return true
}

func rowsEq(a, b []ast.Row) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !attrEq(a[i].Attr, b[i].Attr) || len(a[i].Cells) != len(b[i].Cells) {
			return false
		}
		for j := range a[i].Cells {
			ac, bc := a[i].Cells[j], b[i].Cells[j]
			if !attrEq(ac.Attr, bc.Attr) || ac.Align != bc.Align ||
				ac.RowSpan != bc.RowSpan || ac.ColSpan != bc.ColSpan ||
				!structuralEqBlocks(ac.Content, bc.Content) {
				return false
			}
		}
	}
	return true
}

func metaValueEq(a, b ast.MetaValue) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case ast.MetaStringKind:
		return a.String() == b.String()
	case ast.MetaBoolKind:
		return a.Bool() == b.Bool()
	case ast.MetaInlinesKind:
		return structuralEqInlines(a.Inlines(), b.Inlines())
	case ast.MetaBlocksKind:
		return structuralEqBlocks(a.Blocks(), b.Blocks())
	case ast.MetaListKind:
		al, bl := a.List(), b.List()
		if len(al) != len(bl) {
			return false
		}
		for i := range al {
			if !metaValueEq(al[i], bl[i]) {
				return false
			}
		}
		return true
	case ast.MetaMapKind:
		ae, be := a.Entries(), b.Entries()
		if len(ae) != len(be) {
			return false
		}
		for i := range ae {
			if ae[i].Key != be[i].Key || !metaValueEq(ae[i].Value, be[i].Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func slotsEq(a, b *ast.SlotMap) bool {
	an, bn := 0, 0
	if a != nil {
		an = a.Len()
	}
	if b != nil {
		bn = b.Len()
	}
	if an != bn {
		return false
	}
	if an == 0 {
		return true
	}
	aNames, bNames := a.Names(), b.Names()
	for i := range aNames {
		if aNames[i] != bNames[i] {
			return false
		}
		as, _ := a.Get(aNames[i])
		bs, _ := b.Get(bNames[i])
		if as.Kind != bs.Kind {
			return false
		}
		switch as.Kind {
		case ast.SlotBlock:
			if (as.Block == nil) != (bs.Block == nil) {
				return false
			}
			if as.Block != nil && !structuralEqBlock(as.Block, bs.Block) {
				return false
			}
		case ast.SlotBlocks:
			if !structuralEqBlocks(as.Blocks, bs.Blocks) {
				return false
			}
		case ast.SlotInline:
			if (as.Inline == nil) != (bs.Inline == nil) {
				return false
			}
			if as.Inline != nil && !structuralEqInline(as.Inline, bs.Inline) {
				return false
			}
		case ast.SlotInlines:
			if !structuralEqInlines(as.Inlines, bs.Inlines) {
				return false
			}
		}
	}
	return true
}
