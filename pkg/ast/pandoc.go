// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package ast implements the Pandoc-compatible document model (spec.md
// section 3.3/3.4): the Inline and Block tagged unions, Attr, table
// structures, metadata values, and the root Pandoc document, each node
// carrying a *sourcemap.Info so any piece of the tree can be traced back
// to the bytes it was built from.
package ast

import "github.com/quarto-go/qcore/pkg/sourcemap"

// Pandoc is the root of a parsed document: its resolved metadata plus
// its block-level content.
type Pandoc struct {
	Meta   MetaValue
	Blocks []Block
}

// NewPandoc constructs a Pandoc document.
func NewPandoc(meta MetaValue, blocks []Block) *Pandoc {
	return &Pandoc{Meta: meta, Blocks: blocks}
}

// NoteDefinition records where a footnote with a given ID was defined,
// registered on a Context with AddNoteDefinition and looked up by ID.
// Post-processing turns a NoteReference into a Span carrying its
// reference-id; it does not expand references into Notes.
type NoteDefinition struct {
	ID     string
	Blocks []Block
	Info   *sourcemap.Info
}

// Context bundles a Pandoc document with the side tables a full pipeline
// run needs alongside it: the SourceContext backing every node's
// SourceInfo, and the footnote-definition table collected while reading
// (spec 4.5's note-definition resolution, 4.9's reconciliation needing a
// stable place to look up reference targets).
type Context struct {
	Source *sourcemap.SourceContext
	Doc    *Pandoc

	noteDefs   map[string]NoteDefinition
	noteOrder  []string
}

// NewContext constructs an empty Context over src.
func NewContext(src *sourcemap.SourceContext) *Context {
	return &Context{Source: src, noteDefs: make(map[string]NoteDefinition)}
}

// AddNoteDefinition registers a footnote definition, preserving
// first-seen order for NoteOrder.
func (c *Context) AddNoteDefinition(def NoteDefinition) {
	if _, exists := c.noteDefs[def.ID]; !exists {
		c.noteOrder = append(c.noteOrder, def.ID)
	}
	c.noteDefs[def.ID] = def
}

// NoteDefinitionByID looks up a previously registered footnote
// definition.
func (c *Context) NoteDefinitionByID(id string) (NoteDefinition, bool) {
	d, ok := c.noteDefs[id]
	return d, ok
}

// NoteOrder returns footnote IDs in first-definition order.
func (c *Context) NoteOrder() []string {
	out := make([]string, len(c.noteOrder))
	copy(out, c.noteOrder)
	return out
}

// Walk traverses doc's blocks depth-first, invoking blockFn for every
// Block and inlineFn for every Inline reached (including inlines nested
// inside Note/Cite/CustomInline slots and table cells). Blocks nested
// inside a Note or a CustomInline slot are descended into for their
// inlines only; blockFn is not called for them. Either callback may be
// nil. Returning false from a callback stops descent into that node's
// children but does not stop the overall walk.
func Walk(blocks []Block, blockFn func(Block) bool, inlineFn func(Inline) bool) {
	for _, b := range blocks {
		walkBlock(b, blockFn, inlineFn)
	}
}

func walkBlock(b Block, blockFn func(Block) bool, inlineFn func(Inline) bool) {
	descend := true
	if blockFn != nil {
		descend = blockFn(b)
	}
	if !descend {
		return
	}
	if content := InlineContentOf(b); content != nil {
		for _, in := range content {
			walkInline(in, inlineFn)
		}
	}
	switch v := b.(type) {
	case *LineBlock:
		for _, line := range v.Lines {
			for _, in := range line {
				walkInline(in, inlineFn)
			}
		}
	case *BlockQuote:
		Walk(v.Content, blockFn, inlineFn)
	case *Div:
		Walk(v.Content, blockFn, inlineFn)
	case *BulletList:
		for _, item := range v.Items {
			Walk(item, blockFn, inlineFn)
		}
	case *OrderedList:
		for _, item := range v.Items {
			Walk(item, blockFn, inlineFn)
		}
	case *DefinitionList:
		for _, item := range v.Items {
			for _, in := range item.Term {
				walkInline(in, inlineFn)
			}
			for _, def := range item.Definitions {
				Walk(def, blockFn, inlineFn)
			}
		}
	case *Figure:
		for _, in := range v.Caption {
			walkInline(in, inlineFn)
		}
		Walk(v.Content, blockFn, inlineFn)
	case *CaptionBlock:
		for _, in := range v.Content {
			walkInline(in, inlineFn)
		}
	case *NoteDefinitionPara:
		Walk(v.Blocks, blockFn, inlineFn)
	case *NoteDefinitionFencedBlock:
		Walk(v.Blocks, blockFn, inlineFn)
	case *Table:
		for _, row := range v.Head.Rows {
			walkCells(row.Cells, blockFn, inlineFn)
		}
		for _, grp := range v.Bodies {
			for _, row := range grp.Head {
				walkCells(row.Cells, blockFn, inlineFn)
			}
			for _, row := range grp.Body {
				walkCells(row.Cells, blockFn, inlineFn)
			}
		}
		for _, row := range v.Foot.Rows {
			walkCells(row.Cells, blockFn, inlineFn)
		}
		for _, in := range v.Caption.Short {
			walkInline(in, inlineFn)
		}
		Walk(v.Caption.Long, blockFn, inlineFn)
	case *CustomBlock:
		if v.Slots != nil {
			for _, name := range v.Slots.Names() {
				slot, _ := v.Slots.Get(name)
				walkSlot(slot, blockFn, inlineFn)
			}
		}
	}
}

func walkCells(cells []Cell, blockFn func(Block) bool, inlineFn func(Inline) bool) {
	for _, cell := range cells {
		Walk(cell.Content, blockFn, inlineFn)
	}
}

func walkSlot(s Slot, blockFn func(Block) bool, inlineFn func(Inline) bool) {
	switch s.Kind {
	case SlotBlock:
		if s.Block != nil {
			walkBlock(s.Block, blockFn, inlineFn)
		}
	case SlotBlocks:
		Walk(s.Blocks, blockFn, inlineFn)
	case SlotInline:
		if s.Inline != nil {
			walkInline(s.Inline, inlineFn)
		}
	case SlotInlines:
		for _, in := range s.Inlines {
			walkInline(in, inlineFn)
		}
	}
}

func walkInline(in Inline, inlineFn func(Inline) bool) {
	descend := true
	if inlineFn != nil {
		descend = inlineFn(in)
	}
	if !descend {
		return
	}
	if IsContainerInline(in.Kind()) {
		for _, child := range InlineChildren(in) {
			walkInline(child, inlineFn)
		}
	}
	switch v := in.(type) {
	case *Note:
		Walk(v.Blocks, nil, inlineFn)
	case *CustomInline:
		if v.Slots != nil {
			for _, name := range v.Slots.Names() {
				slot, _ := v.Slots.Get(name)
				walkSlot(slot, nil, inlineFn)
			}
		}
	}
}
