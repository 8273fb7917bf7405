// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	klog "k8s.io/klog/v2"

	"github.com/quarto-go/qcore/pkg/ast"
)

// Apply materializes a plan into a merged document. Matched nodes are
// taken from before (preserving their SourceInfo), engine-produced nodes
// move in from after, and recursed containers get before's shell around
// reconciled children (spec 4.9 phase 2). Neither input tree is mutated;
// the result shares node pointers with both, and the used-original
// invariant from the compute phase guarantees no before-node is shared
// twice. The result's metadata is after's: metadata re-emitted by the
// engine wins, the same way UseAfter wins for unmatched blocks.
func Apply(before, after *ast.Pandoc, plan *Plan) *ast.Pandoc {
	merged := applyBlocks(before.Blocks, after.Blocks, plan)
	klog.V(6).Infof("reconcile: applied plan: %d blocks in result", len(merged))
	return ast.NewPandoc(after.Meta, merged)
}

func applyBlocks(before, after []ast.Block, plan *Plan) []ast.Block {
	result := make([]ast.Block, 0, len(plan.Alignments))
	for alignIdx, a := range plan.Alignments {
		switch a.Op {
		case KeepBefore:
			result = append(result, before[a.BeforeIdx])
		case UseAfter:
			result = append(result, after[a.AfterIdx])
		case RecurseIntoContainer:
			result = append(result, applyRecursedBlock(
				before[a.BeforeIdx], after[a.AfterIdx], plan, alignIdx))
		}
	}
	return result
}

func applyRecursedBlock(orig, exec ast.Block, plan *Plan, alignIdx int) ast.Block {
	if slotPlan, ok := plan.CustomPlans[alignIdx]; ok {
		o := orig.(*ast.CustomBlock)
		e := exec.(*ast.CustomBlock)
		return ast.NewCustomBlock(o.TypeName, applySlots(o.Slots, e.Slots, slotPlan), o.Info())
	}
	if inlinePlan, ok := plan.InlinePlans[alignIdx]; ok {
		return applyInlineContentBlock(orig, exec, inlinePlan)
	}
	if containerPlan, ok := plan.ContainerPlans[alignIdx]; ok {
		return applyContainerBlock(orig, exec, containerPlan)
	}
	// A RecurseIntoContainer alignment always carries one of the three
	// nested plans; reaching here is a compute-phase bug.
	panic("reconcile: RecurseIntoContainer alignment with no nested plan")
}

// applyInlineContentBlock rebuilds a Paragraph/Plain/Header around its
// reconciled inline content, keeping before's shell.
func applyInlineContentBlock(orig, exec ast.Block, plan *InlinePlan) ast.Block {
	content := applyInlines(ast.InlineContentOf(orig), ast.InlineContentOf(exec), plan)
	switch o := orig.(type) {
	case *ast.Paragraph:
		return ast.NewParagraph(content, o.Info())
	case *ast.Plain:
		return ast.NewPlain(content, o.Info())
	case *ast.Header:
		return ast.NewHeader(o.Level, o.Attr, content, o.Info())
	default:
		panic("reconcile: inline plan attached to a block without flat inline content")
	}
}

func applyContainerBlock(orig, exec ast.Block, plan *ContainerPlan) ast.Block {
	switch o := orig.(type) {
	case *ast.Div:
		e := exec.(*ast.Div)
		return ast.NewDiv(o.Attr, applyBlocks(o.Content, e.Content, plan.Blocks), o.Info())
	case *ast.BlockQuote:
		e := exec.(*ast.BlockQuote)
		return ast.NewBlockQuote(applyBlocks(o.Content, e.Content, plan.Blocks), o.Info())
	case *ast.Figure:
		e := exec.(*ast.Figure)
		return ast.NewFigure(o.Attr, o.Caption, applyBlocks(o.Content, e.Content, plan.Blocks), o.Info())
	case *ast.OrderedList:
		e := exec.(*ast.OrderedList)
		return ast.NewOrderedList(o.ListAttrs, applyListItems(o.Items, e.Items, plan.Items), o.Info())
	case *ast.BulletList:
		e := exec.(*ast.BulletList)
		return ast.NewBulletList(applyListItems(o.Items, e.Items, plan.Items), o.Info())
	case *ast.DefinitionList:
		e := exec.(*ast.DefinitionList)
		return ast.NewDefinitionList(applyDefinitionItems(o.Items, e.Items, plan.Defs), o.Info())
	default:
		panic("reconcile: container plan attached to a non-container block")
	}
}

// applyListItems reconciles shared list items via their per-item plans
// and takes the executed side wholesale for items the engine appended.
// The result always has after's item count.
func applyListItems(origItems, execItems [][]ast.Block, plans []*Plan) [][]ast.Block {
	result := make([][]ast.Block, 0, len(execItems))
	for i, execItem := range execItems {
		if i < len(plans) {
			result = append(result, applyBlocks(origItems[i], execItem, plans[i]))
		} else {
			result = append(result, execItem)
		}
	}
	return result
}

func applyDefinitionItems(origItems, execItems []ast.DefinitionItem, plans [][]*Plan) []ast.DefinitionItem {
	result := make([]ast.DefinitionItem, 0, len(execItems))
	for i, execItem := range execItems {
		if i >= len(plans) {
			result = append(result, execItem)
			continue
		}
		defs := make([][]ast.Block, 0, len(execItem.Definitions))
		for j, execDef := range execItem.Definitions {
			if j < len(plans[i]) {
				defs = append(defs, applyBlocks(origItems[i].Definitions[j], execDef, plans[i][j]))
			} else {
				defs = append(defs, execDef)
			}
		}
		result = append(result, ast.DefinitionItem{Term: origItems[i].Term, Definitions: defs})
	}
	return result
}

// applySlots merges a Custom node's slots. Slot order and membership
// follow exec (the result has after's shape); a slot with a stored plan
// reconciles, a plan-less slot whose before counterpart exists with the
// same kind was structurally equal and keeps before's content, and
// anything else takes the executed slot wholesale.
func applySlots(orig, exec *ast.SlotMap, plan *SlotPlan) *ast.SlotMap {
	result := ast.NewSlotMap()
	if exec == nil {
		return result
	}
	for _, name := range exec.Names() {
		execSlot, _ := exec.Get(name)
		if p, ok := plan.BlockSlots[name]; ok {
			origSlot, _ := orig.Get(name)
			result.Set(name, applyBlockSlot(origSlot, execSlot, p))
			continue
		}
		if p, ok := plan.InlineSlots[name]; ok {
			origSlot, _ := orig.Get(name)
			result.Set(name, applyInlineSlot(origSlot, execSlot, p))
			continue
		}
		if orig != nil {
			if origSlot, ok := orig.Get(name); ok && origSlot.Kind == execSlot.Kind && !slotIsNil(origSlot) {
				result.Set(name, origSlot)
				continue
			}
		}
		result.Set(name, execSlot)
	}
	return result
}

func slotIsNil(s ast.Slot) bool {
	switch s.Kind {
	case ast.SlotBlock:
		return s.Block == nil
	case ast.SlotInline:
		return s.Inline == nil
	default:
		return false
	}
}

func applyBlockSlot(origSlot, execSlot ast.Slot, plan *Plan) ast.Slot {
	if execSlot.Kind == ast.SlotBlock {
		merged := applyBlocks([]ast.Block{origSlot.Block}, []ast.Block{execSlot.Block}, plan)
		return ast.NewBlockSlot(merged[0])
	}
	return ast.NewBlocksSlot(applyBlocks(origSlot.Blocks, execSlot.Blocks, plan))
}

func applyInlineSlot(origSlot, execSlot ast.Slot, plan *InlinePlan) ast.Slot {
	if execSlot.Kind == ast.SlotInline {
		merged := applyInlines([]ast.Inline{origSlot.Inline}, []ast.Inline{execSlot.Inline}, plan)
		return ast.NewInlineSlot(merged[0])
	}
	return ast.NewInlinesSlot(applyInlines(origSlot.Inlines, execSlot.Inlines, plan))
}

func applyInlines(before, after []ast.Inline, plan *InlinePlan) []ast.Inline {
	result := make([]ast.Inline, 0, len(plan.Alignments))
	for alignIdx, a := range plan.Alignments {
		switch a.Op {
		case KeepBefore:
			result = append(result, before[a.BeforeIdx])
		case UseAfter:
			result = append(result, after[a.AfterIdx])
		case RecurseIntoContainer:
			result = append(result, applyRecursedInline(
				before[a.BeforeIdx], after[a.AfterIdx], plan, alignIdx))
		}
	}
	return result
}

func applyRecursedInline(orig, exec ast.Inline, plan *InlinePlan, alignIdx int) ast.Inline {
	if notePlan, ok := plan.NotePlans[alignIdx]; ok {
		o := orig.(*ast.Note)
		e := exec.(*ast.Note)
		return ast.NewNote(applyBlocks(o.Blocks, e.Blocks, notePlan), o.Info())
	}
	if slotPlan, ok := plan.CustomPlans[alignIdx]; ok {
		o := orig.(*ast.CustomInline)
		e := exec.(*ast.CustomInline)
		return ast.NewCustomInline(o.TypeName, applySlots(o.Slots, e.Slots, slotPlan), o.Info())
	}
	nested, ok := plan.ContainerPlans[alignIdx]
	if !ok {
		panic("reconcile: RecurseIntoContainer inline alignment with no nested plan")
	}
	children := applyInlines(ast.InlineChildren(orig), ast.InlineChildren(exec), nested)
	return rebuildInlineShell(orig, children)
}

// rebuildInlineShell wraps reconciled children in a fresh node carrying
// before's payload and SourceInfo.
func rebuildInlineShell(orig ast.Inline, children []ast.Inline) ast.Inline {
	switch o := orig.(type) {
	case *ast.Emph:
		return ast.NewEmph(children, o.Info())
	case *ast.Strong:
		return ast.NewStrong(children, o.Info())
	case *ast.Underline:
		return ast.NewUnderline(children, o.Info())
	case *ast.Strikeout:
		return ast.NewStrikeout(children, o.Info())
	case *ast.Superscript:
		return ast.NewSuperscript(children, o.Info())
	case *ast.Subscript:
		return ast.NewSubscript(children, o.Info())
	case *ast.SmallCaps:
		return ast.NewSmallCaps(children, o.Info())
	case *ast.Quoted:
		return ast.NewQuoted(o.QKind, children, o.Info())
	case *ast.Cite:
		return ast.NewCite(o.Citations, children, o.Info())
	case *ast.Link:
		return ast.NewLink(o.Attr, children, o.Target, o.Info())
	case *ast.Image:
		return ast.NewImage(o.Attr, children, o.Target, o.Info())
	case *ast.Span:
		return ast.NewSpan(o.Attr, children, o.Info())
	case *ast.Insert:
		return ast.NewInsert(children, o.Info())
	case *ast.Delete:
		return ast.NewDelete(children, o.Info())
	case *ast.Highlight:
		return ast.NewHighlight(children, o.Info())
	case *ast.EditComment:
		return ast.NewEditComment(children, o.Info())
	default:
		panic("reconcile: cannot rebuild shell for non-container inline")
	}
}
