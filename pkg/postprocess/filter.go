// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package postprocess implements the reader's post-processing pipeline
// (spec.md section 4.6): a capability-based filter framework plus the
// fixed sequence of passes (header auto-IDs, figure promotion, shortcode
// and editorial-mark desugaring, citation suffix reflow and numbering)
// and the merge_strs pass (adjacent-Str fusion, smart punctuation,
// abbreviation coalescing).
//
// A Filter implements any subset of the capability sub-interfaces below;
// the traversal type-asserts each registered filter against the
// capability a node needs, mirroring the registry-of-capabilities shape
// the teacher uses for plugin interfaces.
package postprocess

import (
	"github.com/quarto-go/qcore/pkg/ast"
)

// Filter marks a post-processing pass. A pass additionally implements
// one or more of the capability interfaces below; a bare Filter with no
// capabilities is legal and does nothing.
type Filter interface {
	Name() string
}

// BlockOutcome is a block callback's verdict: keep the node as-is, or
// replace it with zero or more blocks, optionally re-running the filter
// chain over the replacements before descending into them.
type BlockOutcome struct {
	Changed     bool
	Rerun       bool
	Replacement []ast.Block
}

// KeepBlock reports "no change".
func KeepBlock() BlockOutcome { return BlockOutcome{} }

// ReplaceBlocks replaces the filtered node.
func ReplaceBlocks(rerun bool, replacement ...ast.Block) BlockOutcome {
	return BlockOutcome{Changed: true, Rerun: rerun, Replacement: replacement}
}

// InlineOutcome is the inline counterpart of BlockOutcome.
type InlineOutcome struct {
	Changed     bool
	Rerun       bool
	Replacement []ast.Inline
}

// KeepInline reports "no change".
func KeepInline() InlineOutcome { return InlineOutcome{} }

// ReplaceInlines replaces the filtered node.
func ReplaceInlines(rerun bool, replacement ...ast.Inline) InlineOutcome {
	return InlineOutcome{Changed: true, Rerun: rerun, Replacement: replacement}
}

// BlockFilter is implemented by passes that inspect individual blocks.
type BlockFilter interface {
	Filter
	FilterBlock(ast.Block) BlockOutcome
}

// InlineFilter is implemented by passes that inspect individual inlines.
type InlineFilter interface {
	Filter
	FilterInline(ast.Inline) InlineOutcome
}

// InlinesFilter is implemented by passes that need a whole inline
// sequence at once (state machines such as the citation suffix reflow,
// or the Str-merging pass).
type InlinesFilter interface {
	Filter
	FilterInlines([]ast.Inline) ([]ast.Inline, bool)
}

// Pipeline traverses a document top-down, applying its filters in
// registration order at every node.
type Pipeline struct {
	filters []Filter
}

// NewPipeline constructs a pipeline over the given filters.
func NewPipeline(filters ...Filter) *Pipeline {
	return &Pipeline{filters: filters}
}

// Run rewrites doc in place: blocks and all nested inline sequences are
// replaced by their filtered forms.
func (p *Pipeline) Run(doc *ast.Pandoc) {
	doc.Blocks = p.filterBlocks(doc.Blocks)
}

func (p *Pipeline) applyBlock(b ast.Block) BlockOutcome {
	for _, f := range p.filters {
		bf, ok := f.(BlockFilter)
		if !ok {
			continue
		}
		if out := bf.FilterBlock(b); out.Changed {
			return out
		}
	}
	return KeepBlock()
}

func (p *Pipeline) applyInline(in ast.Inline) InlineOutcome {
	for _, f := range p.filters {
		inf, ok := f.(InlineFilter)
		if !ok {
			continue
		}
		if out := inf.FilterInline(in); out.Changed {
			return out
		}
	}
	return KeepInline()
}

func (p *Pipeline) applyInlinesSeq(ins []ast.Inline) []ast.Inline {
	for _, f := range p.filters {
		sf, ok := f.(InlinesFilter)
		if !ok {
			continue
		}
		if replaced, changed := sf.FilterInlines(ins); changed {
			ins = replaced
		}
	}
	return ins
}

// filterBlocks runs the per-block filters over a sequence, re-queueing
// rerun replacements so later filters (and the same filter again) see
// them, then descends into surviving blocks' children.
func (p *Pipeline) filterBlocks(blocks []ast.Block) []ast.Block {
	out := make([]ast.Block, 0, len(blocks))
	queue := append([]ast.Block(nil), blocks...)
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		outcome := p.applyBlock(b)
		if outcome.Changed {
			if outcome.Rerun {
				queue = append(append([]ast.Block(nil), outcome.Replacement...), queue...)
				continue
			}
			for _, nb := range outcome.Replacement {
				out = append(out, p.descendBlock(nb))
			}
			continue
		}
		out = append(out, p.descendBlock(b))
	}
	return out
}

// filterInlines applies sequence filters first (they see the sequence in
// source shape), then per-inline filters with the same worklist
// semantics as filterBlocks, then descends.
func (p *Pipeline) filterInlines(inlines []ast.Inline) []ast.Inline {
	inlines = p.applyInlinesSeq(inlines)
	out := make([]ast.Inline, 0, len(inlines))
	queue := append([]ast.Inline(nil), inlines...)
	for len(queue) > 0 {
		in := queue[0]
		queue = queue[1:]
		outcome := p.applyInline(in)
		if outcome.Changed {
			if outcome.Rerun {
				queue = append(append([]ast.Inline(nil), outcome.Replacement...), queue...)
				continue
			}
			for _, ni := range outcome.Replacement {
				out = append(out, p.descendInline(ni))
			}
			continue
		}
		out = append(out, p.descendInline(in))
	}
	return out
}

func (p *Pipeline) descendBlock(b ast.Block) ast.Block {
	if content := ast.InlineContentOf(b); content != nil {
		ast.SetInlineContentOf(b, p.filterInlines(content))
		return b
	}
	switch v := b.(type) {
	case *ast.LineBlock:
		for i := range v.Lines {
			v.Lines[i] = p.filterInlines(v.Lines[i])
		}
	case *ast.BlockQuote:
		v.Content = p.filterBlocks(v.Content)
	case *ast.Div:
		v.Content = p.filterBlocks(v.Content)
	case *ast.BulletList:
		for i := range v.Items {
			v.Items[i] = p.filterBlocks(v.Items[i])
		}
	case *ast.OrderedList:
		for i := range v.Items {
			v.Items[i] = p.filterBlocks(v.Items[i])
		}
	case *ast.DefinitionList:
		for i := range v.Items {
			v.Items[i].Term = p.filterInlines(v.Items[i].Term)
			for j := range v.Items[i].Definitions {
				v.Items[i].Definitions[j] = p.filterBlocks(v.Items[i].Definitions[j])
			}
		}
	case *ast.Figure:
		v.Caption = p.filterInlines(v.Caption)
		v.Content = p.filterBlocks(v.Content)
	case *ast.CaptionBlock:
		v.Content = p.filterInlines(v.Content)
	case *ast.NoteDefinitionPara:
		v.Blocks = p.filterBlocks(v.Blocks)
	case *ast.NoteDefinitionFencedBlock:
		v.Blocks = p.filterBlocks(v.Blocks)
	case *ast.Table:
		p.descendTable(v)
	case *ast.CustomBlock:
		p.descendSlots(v.Slots)
	}
	return b
}

func (p *Pipeline) descendTable(t *ast.Table) {
	t.Caption.Short = p.filterInlines(t.Caption.Short)
	t.Caption.Long = p.filterBlocks(t.Caption.Long)
	filterRows := func(rows []ast.Row) {
		for i := range rows {
			for j := range rows[i].Cells {
				rows[i].Cells[j].Content = p.filterBlocks(rows[i].Cells[j].Content)
			}
		}
	}
	filterRows(t.Head.Rows)
	for i := range t.Bodies {
		filterRows(t.Bodies[i].Head)
		filterRows(t.Bodies[i].Body)
	}
	filterRows(t.Foot.Rows)
}

func (p *Pipeline) descendSlots(m *ast.SlotMap) {
	if m == nil {
		return
	}
	for _, name := range m.Names() {
		slot, _ := m.Get(name)
		switch slot.Kind {
		case ast.SlotBlock:
			if slot.Block != nil {
				m.Set(name, ast.NewBlockSlot(p.descendBlock(slot.Block)))
			}
		case ast.SlotBlocks:
			m.Set(name, ast.NewBlocksSlot(p.filterBlocks(slot.Blocks)))
		case ast.SlotInline:
			if slot.Inline != nil {
				m.Set(name, ast.NewInlineSlot(p.descendInline(slot.Inline)))
			}
		case ast.SlotInlines:
			m.Set(name, ast.NewInlinesSlot(p.filterInlines(slot.Inlines)))
		}
	}
}

func (p *Pipeline) descendInline(in ast.Inline) ast.Inline {
	if ast.IsContainerInline(in.Kind()) && in.Kind() != ast.KindCustomInline {
		ast.SetInlineChildren(in, p.filterInlines(ast.InlineChildren(in)))
		return in
	}
	switch v := in.(type) {
	case *ast.Note:
		v.Blocks = p.filterBlocks(v.Blocks)
	case *ast.CustomInline:
		p.descendSlots(v.Slots)
	}
	return in
}
