// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	klog "k8s.io/klog/v2"

	"github.com/quarto-go/qcore/pkg/ast"
)

// Compute builds a reconciliation plan for two documents. It is pure: it
// mutates neither AST, and the returned plan holds indices only.
func Compute(before, after *ast.Pandoc) *Plan {
	cache := newHashCache()
	plan := computeBlocks(before.Blocks, after.Blocks, cache)
	klog.V(6).Infof("reconcile: plan computed: %d alignments, kept=%d replaced=%d recursed=%d",
		len(plan.Alignments), plan.Stats.BlocksKept, plan.Stats.BlocksReplaced, plan.Stats.BlocksRecursed)
	return plan
}

// computeBlocks aligns each "after" block against an unused "before"
// block, preferring exact structural matches, then same-variant
// containers (recursing), then same-variant inline-content blocks
// (recursing at the inline level when any inline survives), and finally
// giving up and taking the engine's block (spec 4.9 phase 1).
func computeBlocks(before, after []ast.Block, cache *hashCache) *Plan {
	plan := NewPlan()
	if len(before) == 0 && len(after) == 0 {
		return plan
	}

	beforeHashes := make([]uint64, len(before))
	hashToIndices := make(map[uint64][]int, len(before))
	for i, b := range before {
		beforeHashes[i] = cache.hashBlock(b)
		hashToIndices[beforeHashes[i]] = append(hashToIndices[beforeHashes[i]], i)
	}

	usedBefore := make(map[int]bool, len(before))

	for afterIdx, afterBlock := range after {
		afterHash := cache.hashBlock(afterBlock)

		// Step 1: exact hash match, verified by structural equality to
		// guard against collisions.
		if matched := findUnusedHashMatch(hashToIndices[afterHash], usedBefore, before, afterBlock); matched >= 0 {
			usedBefore[matched] = true
			plan.Alignments = append(plan.Alignments, BlockAlignment{Op: KeepBefore, BeforeIdx: matched})
			plan.Stats.BlocksKept++
			continue
		}

		// Step 2: same-variant container match.
		if beforeIdx := findContainerMatch(before, usedBefore, afterBlock); beforeIdx >= 0 {
			usedBefore[beforeIdx] = true
			alignIdx := len(plan.Alignments)

			if origCustom, ok := before[beforeIdx].(*ast.CustomBlock); ok {
				execCustom := afterBlock.(*ast.CustomBlock)
				plan.CustomPlans[alignIdx] = computeSlotPlan(origCustom.Slots, execCustom.Slots, cache)
			} else {
				nested := computeContainerPlan(before[beforeIdx], afterBlock, cache)
				mergeContainerStats(&plan.Stats, nested)
				plan.ContainerPlans[alignIdx] = nested
			}

			plan.Alignments = append(plan.Alignments, BlockAlignment{
				Op: RecurseIntoContainer, BeforeIdx: beforeIdx, AfterIdx: afterIdx,
			})
			plan.Stats.BlocksRecursed++
			continue
		}

		// Step 3: same-variant block with flat inline content; recurse
		// only when the inline plan keeps at least one original inline.
		if beforeIdx := findInlineContentMatch(before, usedBefore, afterBlock); beforeIdx >= 0 {
			inlinePlan := computeInlines(
				ast.InlineContentOf(before[beforeIdx]),
				ast.InlineContentOf(afterBlock),
				cache)
			if inlinePlan.hasKeeps() {
				usedBefore[beforeIdx] = true
				alignIdx := len(plan.Alignments)
				plan.InlinePlans[alignIdx] = inlinePlan
				plan.Stats.Merge(inlinePlan.Stats)
				plan.Alignments = append(plan.Alignments, BlockAlignment{
					Op: RecurseIntoContainer, BeforeIdx: beforeIdx, AfterIdx: afterIdx,
				})
				plan.Stats.BlocksRecursed++
				continue
			}
		}

		// Step 4: nothing matches; take the engine's block.
		plan.Alignments = append(plan.Alignments, BlockAlignment{Op: UseAfter, AfterIdx: afterIdx})
		plan.Stats.BlocksReplaced++
	}

	return plan
}

func findUnusedHashMatch(candidates []int, used map[int]bool, before []ast.Block, afterBlock ast.Block) int {
	for _, i := range candidates {
		if used[i] {
			continue
		}
		if structuralEqBlock(before[i], afterBlock) {
			return i
		}
		// Hash collision: keep scanning; a later candidate may be the
		// real structural match.
	}
	return -1
}

func findContainerMatch(before []ast.Block, used map[int]bool, afterBlock ast.Block) int {
	for i, b := range before {
		if used[i] || b.Kind() != afterBlock.Kind() || !ast.IsContainerBlock(b.Kind()) {
			continue
		}
		if bc, ok := b.(*ast.CustomBlock); ok {
			if bc.TypeName != afterBlock.(*ast.CustomBlock).TypeName {
				continue
			}
		}
		return i
	}
	return -1
}

func findInlineContentMatch(before []ast.Block, used map[int]bool, afterBlock ast.Block) int {
	if !ast.HasInlineContent(afterBlock.Kind()) {
		return -1
	}
	for i, b := range before {
		if !used[i] && b.Kind() == afterBlock.Kind() {
			return i
		}
	}
	return -1
}

// computeContainerPlan recurses into a matched non-Custom container pair.
func computeContainerPlan(orig, exec ast.Block, cache *hashCache) *ContainerPlan {
	switch o := orig.(type) {
	case *ast.Div:
		return &ContainerPlan{Blocks: computeBlocks(o.Content, exec.(*ast.Div).Content, cache)}
	case *ast.BlockQuote:
		return &ContainerPlan{Blocks: computeBlocks(o.Content, exec.(*ast.BlockQuote).Content, cache)}
	case *ast.Figure:
		return &ContainerPlan{Blocks: computeBlocks(o.Content, exec.(*ast.Figure).Content, cache)}
	case *ast.OrderedList:
		return &ContainerPlan{Items: computeListItems(o.Items, exec.(*ast.OrderedList).Items, cache)}
	case *ast.BulletList:
		return &ContainerPlan{Items: computeListItems(o.Items, exec.(*ast.BulletList).Items, cache)}
	case *ast.DefinitionList:
		return &ContainerPlan{Defs: computeDefinitionItems(o.Items, exec.(*ast.DefinitionList).Items, cache)}
	default:
		return &ContainerPlan{}
	}
}

// computeListItems reconciles list items pairwise; after-side items with
// no before counterpart are taken wholesale at apply time.
func computeListItems(origItems, execItems [][]ast.Block, cache *hashCache) []*Plan {
	n := len(origItems)
	if len(execItems) < n {
		n = len(execItems)
	}
	plans := make([]*Plan, n)
	for i := 0; i < n; i++ {
		plans[i] = computeBlocks(origItems[i], execItems[i], cache)
	}
	return plans
}

func computeDefinitionItems(origItems, execItems []ast.DefinitionItem, cache *hashCache) [][]*Plan {
	n := len(origItems)
	if len(execItems) < n {
		n = len(execItems)
	}
	plans := make([][]*Plan, n)
	for i := 0; i < n; i++ {
		m := len(origItems[i].Definitions)
		if len(execItems[i].Definitions) < m {
			m = len(execItems[i].Definitions)
		}
		defPlans := make([]*Plan, m)
		for j := 0; j < m; j++ {
			defPlans[j] = computeBlocks(origItems[i].Definitions[j], execItems[i].Definitions[j], cache)
		}
		plans[i] = defPlans
	}
	return plans
}

func mergeContainerStats(stats *Stats, cp *ContainerPlan) {
	if cp.Blocks != nil {
		stats.Merge(cp.Blocks.Stats)
	}
	for _, p := range cp.Items {
		stats.Merge(p.Stats)
	}
	for _, defs := range cp.Defs {
		for _, p := range defs {
			stats.Merge(p.Stats)
		}
	}
}

// computeSlotPlan builds the per-slot plan for a matched Custom node
// pair. Slots present in both sides with matching kind get a nested plan
// only when their content actually differs; everything else is resolved
// at apply time without a plan entry (spec 4.9 "Slot plan for Custom
// nodes").
func computeSlotPlan(orig, exec *ast.SlotMap, cache *hashCache) *SlotPlan {
	plan := NewSlotPlan()
	if exec == nil || orig == nil {
		return plan
	}
	for _, name := range exec.Names() {
		execSlot, _ := exec.Get(name)
		origSlot, ok := orig.Get(name)
		if !ok || origSlot.Kind != execSlot.Kind {
			continue
		}
		switch execSlot.Kind {
		case ast.SlotBlock:
			if origSlot.Block == nil || execSlot.Block == nil {
				continue
			}
			if cache.hashBlock(origSlot.Block) != cache.hashBlock(execSlot.Block) ||
				!structuralEqBlock(origSlot.Block, execSlot.Block) {
				plan.BlockSlots[name] = computeBlocks(
					[]ast.Block{origSlot.Block}, []ast.Block{execSlot.Block}, cache)
			}
		case ast.SlotBlocks:
			p := computeBlocks(origSlot.Blocks, execSlot.Blocks, cache)
			if !p.IsAllKeep() || !structuralEqBlocks(origSlot.Blocks, execSlot.Blocks) {
				plan.BlockSlots[name] = p
			}
		case ast.SlotInline:
			if origSlot.Inline == nil || execSlot.Inline == nil {
				continue
			}
			if cache.hashInline(origSlot.Inline) != cache.hashInline(execSlot.Inline) ||
				!structuralEqInline(origSlot.Inline, execSlot.Inline) {
				plan.InlineSlots[name] = computeInlines(
					[]ast.Inline{origSlot.Inline}, []ast.Inline{execSlot.Inline}, cache)
			}
		case ast.SlotInlines:
			p := computeInlines(origSlot.Inlines, execSlot.Inlines, cache)
			if p.needsWork() || !structuralEqInlines(origSlot.Inlines, execSlot.Inlines) {
				plan.InlineSlots[name] = p
			}
		}
	}
	return plan
}

// computeInlines mirrors computeBlocks at the inline level; Note recurses
// through a block-level plan and Custom inlines through a slot plan.
func computeInlines(before, after []ast.Inline, cache *hashCache) *InlinePlan {
	plan := NewInlinePlan()
	if len(before) == 0 && len(after) == 0 {
		return plan
	}

	beforeHashes := make([]uint64, len(before))
	hashToIndices := make(map[uint64][]int, len(before))
	for i, in := range before {
		beforeHashes[i] = cache.hashInline(in)
		hashToIndices[beforeHashes[i]] = append(hashToIndices[beforeHashes[i]], i)
	}

	usedBefore := make(map[int]bool, len(before))

	for afterIdx, afterInline := range after {
		afterHash := cache.hashInline(afterInline)

		matched := -1
		for _, i := range hashToIndices[afterHash] {
			if !usedBefore[i] && structuralEqInline(before[i], afterInline) {
				matched = i
				break
			}
		}
		if matched >= 0 {
			usedBefore[matched] = true
			plan.Alignments = append(plan.Alignments, InlineAlignment{Op: KeepBefore, BeforeIdx: matched})
			plan.Stats.InlinesKept++
			continue
		}

		beforeIdx := findContainerInlineMatch(before, usedBefore, afterInline)
		if beforeIdx >= 0 {
			usedBefore[beforeIdx] = true
			alignIdx := len(plan.Alignments)

			switch origNode := before[beforeIdx].(type) {
			case *ast.Note:
				// Note children are blocks; a nested cache scope matches
				// the block-level recursion's lifetime.
				notePlan := computeBlocks(
					origNode.Blocks, afterInline.(*ast.Note).Blocks, newHashCache())
				plan.NotePlans[alignIdx] = notePlan
				plan.Stats.Merge(notePlan.Stats)
			case *ast.CustomInline:
				plan.CustomPlans[alignIdx] = computeSlotPlan(
					origNode.Slots, afterInline.(*ast.CustomInline).Slots, cache)
			default:
				nested := computeInlines(
					ast.InlineChildren(before[beforeIdx]),
					ast.InlineChildren(afterInline),
					cache)
				plan.ContainerPlans[alignIdx] = nested
				plan.Stats.Merge(nested.Stats)
			}

			plan.Alignments = append(plan.Alignments, InlineAlignment{
				Op: RecurseIntoContainer, BeforeIdx: beforeIdx, AfterIdx: afterIdx,
			})
			plan.Stats.InlinesRecursed++
			continue
		}

		plan.Alignments = append(plan.Alignments, InlineAlignment{Op: UseAfter, AfterIdx: afterIdx})
		plan.Stats.InlinesReplaced++
	}

	return plan
}

// findContainerInlineMatch looks for an unused same-variant container
// inline. Note participates here even though its children are blocks:
// it is special-cased by the caller (spec 4.9's container taxonomy).
func findContainerInlineMatch(before []ast.Inline, used map[int]bool, afterInline ast.Inline) int {
	kind := afterInline.Kind()
	isContainer := ast.IsContainerInline(kind) || kind == ast.KindNote
	if !isContainer {
		return -1
	}
	for i, in := range before {
		if used[i] || in.Kind() != kind {
			continue
		}
		if bc, ok := in.(*ast.CustomInline); ok {
			if bc.TypeName != afterInline.(*ast.CustomInline).TypeName {
				continue
			}
		}
		return i
	}
	return -1
}
