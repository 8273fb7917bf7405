// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarto-go/qcore/pkg/ast"
	"github.com/quarto-go/qcore/pkg/sourcemap"
)

func originalAt(start, end int) *sourcemap.Info {
	return sourcemap.Original(sourcemap.FileID(1), sourcemap.Range{Start: start, End: end})
}

func para(text string, info *sourcemap.Info) ast.Block {
	return ast.NewParagraph([]ast.Inline{ast.NewStr(text, info)}, info)
}

func doc(blocks ...ast.Block) *ast.Pandoc {
	return ast.NewPandoc(ast.MetaValue{}, blocks)
}

func TestIdenticalASTsAllKept(t *testing.T) {
	before := doc(para("hello", originalAt(0, 5)), para("world", originalAt(6, 11)))
	after := doc(para("hello", nil), para("world", nil))

	plan := Compute(before, after)

	want := []BlockAlignment{
		{Op: KeepBefore, BeforeIdx: 0},
		{Op: KeepBefore, BeforeIdx: 1},
	}
	if diff := cmp.Diff(want, plan.Alignments); diff != "" {
		t.Fatalf("alignments mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, plan.Stats.BlocksKept)
	assert.Equal(t, 0, plan.Stats.BlocksReplaced)
	assert.True(t, plan.IsAllKeep())
}

func TestNewBlockUsesExecuted(t *testing.T) {
	before := doc(para("hello", originalAt(0, 5)))
	after := doc(para("hello", nil), para("new", nil))

	plan := Compute(before, after)

	require.Len(t, plan.Alignments, 2)
	assert.Equal(t, BlockAlignment{Op: KeepBefore, BeforeIdx: 0}, plan.Alignments[0])
	assert.Equal(t, BlockAlignment{Op: UseAfter, AfterIdx: 1}, plan.Alignments[1])
}

// Scenario 6 from the end-to-end table: the changed paragraph shares no
// inline with its original, so it is replaced outright rather than
// recursed into.
func TestChangedParagraphPlanAndApply(t *testing.T) {
	helloInfo := originalAt(0, 5)
	worldInfo := originalAt(6, 11)
	before := doc(para("hello", helloInfo), para("world", worldInfo))
	after := doc(para("hello", nil), para("CHANGED", originalAt(100, 107)))

	plan := Compute(before, after)
	require.Len(t, plan.Alignments, 2)
	assert.Equal(t, KeepBefore, plan.Alignments[0].Op)
	assert.Equal(t, UseAfter, plan.Alignments[1].Op)

	merged := Apply(before, after, plan)
	require.Len(t, merged.Blocks, 2)
	// Original "hello" keeps its identity wholesale.
	assert.Same(t, before.Blocks[0], merged.Blocks[0])
	assert.Same(t, after.Blocks[1], merged.Blocks[1])
}

func TestContainerRecursion(t *testing.T) {
	mkDiv := func(blocks ...ast.Block) ast.Block {
		return ast.NewDiv(ast.Attr{ID: "box"}, blocks, originalAt(0, 50))
	}
	before := doc(mkDiv(para("hello", originalAt(5, 10)), para("world", originalAt(11, 16))))
	after := doc(ast.NewDiv(ast.Attr{ID: "box"}, []ast.Block{
		para("hello", nil), para("changed", nil),
	}, nil))

	plan := Compute(before, after)

	require.Len(t, plan.Alignments, 1)
	assert.Equal(t, RecurseIntoContainer, plan.Alignments[0].Op)
	nested, ok := plan.ContainerPlans[0]
	require.True(t, ok)
	require.NotNil(t, nested.Blocks)
	assert.Equal(t, 1, nested.Blocks.Stats.BlocksKept)
	assert.Equal(t, 1, nested.Blocks.Stats.BlocksReplaced)

	merged := Apply(before, after, plan)
	require.Len(t, merged.Blocks, 1)
	div := merged.Blocks[0].(*ast.Div)
	// Shell comes from before, including its SourceInfo.
	assert.Same(t, before.Blocks[0].Info(), div.Info())
	require.Len(t, div.Content, 2)
	assert.Same(t, before.Blocks[0].(*ast.Div).Content[0], div.Content[0])
	assert.Same(t, after.Blocks[0].(*ast.Div).Content[1], div.Content[1])
}

func TestInlineRecursionKeepsMatchingInlines(t *testing.T) {
	strA := ast.NewStr("keep", originalAt(0, 4))
	spaceA := ast.NewSpace(originalAt(4, 5))
	strB := ast.NewStr("old", originalAt(5, 8))
	before := doc(ast.NewParagraph([]ast.Inline{strA, spaceA, strB}, originalAt(0, 8)))
	after := doc(ast.NewParagraph([]ast.Inline{
		ast.NewStr("keep", nil), ast.NewSpace(nil), ast.NewStr("new", nil),
	}, nil))

	plan := Compute(before, after)

	require.Len(t, plan.Alignments, 1)
	assert.Equal(t, RecurseIntoContainer, plan.Alignments[0].Op)
	inlinePlan, ok := plan.InlinePlans[0]
	require.True(t, ok)
	assert.True(t, inlinePlan.hasKeeps())

	merged := Apply(before, after, plan)
	outPara := merged.Blocks[0].(*ast.Paragraph)
	require.Len(t, outPara.Content, 3)
	assert.Same(t, strA, outPara.Content[0])
	assert.Same(t, after.Blocks[0].(*ast.Paragraph).Content[2], outPara.Content[2])
	// Paragraph shell keeps before's SourceInfo.
	assert.Same(t, before.Blocks[0].Info(), outPara.Info())
}

// C4: no original index may be claimed by two alignments at one level.
func TestNoOriginalUsedTwice(t *testing.T) {
	before := doc(para("dup", originalAt(0, 3)))
	after := doc(para("dup", nil), para("dup", nil))

	plan := Compute(before, after)

	require.Len(t, plan.Alignments, 2)
	seen := map[int]bool{}
	for _, a := range plan.Alignments {
		if a.Op == KeepBefore || a.Op == RecurseIntoContainer {
			assert.False(t, seen[a.BeforeIdx], "before index %d used twice", a.BeforeIdx)
			seen[a.BeforeIdx] = true
		}
	}
}

// C3: the applied result always has after's block count.
func TestResultLengthMatchesAfter(t *testing.T) {
	before := doc(para("a", nil), para("b", nil), para("c", nil))
	after := doc(para("b", nil))

	plan := Compute(before, after)
	merged := Apply(before, after, plan)
	assert.Len(t, merged.Blocks, len(after.Blocks))
}

func TestCustomBlockSlotReconciliation(t *testing.T) {
	origSlots := ast.NewSlotMap()
	origSlots.Set("caption", ast.NewInlinesSlot([]ast.Inline{ast.NewStr("same", originalAt(0, 4))}))
	origSlots.Set("body", ast.NewBlocksSlot([]ast.Block{para("old body", originalAt(5, 13))}))
	orig := ast.NewCustomBlock("callout", origSlots, originalAt(0, 20))

	execSlots := ast.NewSlotMap()
	execSlots.Set("caption", ast.NewInlinesSlot([]ast.Inline{ast.NewStr("same", nil)}))
	execSlots.Set("body", ast.NewBlocksSlot([]ast.Block{para("new body", nil)}))
	exec := ast.NewCustomBlock("callout", execSlots, nil)

	plan := Compute(doc(orig), doc(exec))

	require.Len(t, plan.Alignments, 1)
	assert.Equal(t, RecurseIntoContainer, plan.Alignments[0].Op)
	slotPlan, ok := plan.CustomPlans[0]
	require.True(t, ok)
	assert.Contains(t, slotPlan.BlockSlots, "body")
	assert.NotContains(t, slotPlan.InlineSlots, "caption")

	merged := Apply(doc(orig), doc(exec), plan)
	out := merged.Blocks[0].(*ast.CustomBlock)
	assert.Equal(t, "callout", out.TypeName)
	assert.Same(t, orig.Info(), out.Info())

	caption, ok := out.Slots.Get("caption")
	require.True(t, ok)
	// Equal slot content keeps the original, preserving SourceInfo.
	origCaption, _ := origSlots.Get("caption")
	assert.Same(t, origCaption.Inlines[0], caption.Inlines[0])

	body, ok := out.Slots.Get("body")
	require.True(t, ok)
	bodyPara := body.Blocks[0].(*ast.Paragraph)
	assert.Equal(t, "new body", bodyPara.Content[0].(*ast.Str).Text)
}

func TestCustomTypeNameMismatchUsesAfter(t *testing.T) {
	orig := ast.NewCustomBlock("callout", ast.NewSlotMap(), originalAt(0, 5))
	slots := ast.NewSlotMap()
	slots.Set("x", ast.NewInlineSlot(ast.NewStr("x", nil)))
	exec := ast.NewCustomBlock("tabset", slots, nil)

	plan := Compute(doc(orig), doc(exec))
	require.Len(t, plan.Alignments, 1)
	assert.Equal(t, UseAfter, plan.Alignments[0].Op)
}

func TestNoteRecursesThroughBlocks(t *testing.T) {
	origNote := ast.NewNote([]ast.Block{para("kept", originalAt(0, 4)), para("old", originalAt(5, 8))}, originalAt(0, 10))
	execNote := ast.NewNote([]ast.Block{para("kept", nil), para("new", nil)}, nil)
	before := doc(ast.NewParagraph([]ast.Inline{ast.NewStr("x", originalAt(11, 12)), origNote}, originalAt(0, 12)))
	after := doc(ast.NewParagraph([]ast.Inline{ast.NewStr("x", nil), execNote}, nil))

	plan := Compute(before, after)
	merged := Apply(before, after, plan)

	outNote := merged.Blocks[0].(*ast.Paragraph).Content[1].(*ast.Note)
	require.Len(t, outNote.Blocks, 2)
	assert.Same(t, origNote.Blocks[0], outNote.Blocks[0])
	assert.Same(t, execNote.Blocks[1], outNote.Blocks[1])
	assert.Same(t, origNote.Info(), outNote.Info())
}

func TestComputeMany(t *testing.T) {
	pairs := []DocPair{
		{Before: doc(para("a", nil)), After: doc(para("a", nil))},
		{Before: doc(para("b", nil)), After: doc(para("c", nil))},
		{Before: doc(), After: doc()},
	}

	plans, err := ComputeMany(context.Background(), pairs)
	require.NoError(t, err)
	require.Len(t, plans, 3)
	assert.True(t, plans[0].IsAllKeep())
	assert.Equal(t, 1, plans[1].Stats.BlocksReplaced)
	assert.Empty(t, plans[2].Alignments)
}

func TestComputeManyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ComputeMany(ctx, []DocPair{{Before: doc(), After: doc()}})
	assert.Error(t, err)
}
