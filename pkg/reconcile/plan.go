// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package reconcile implements the AST reconciliation engine (spec.md
// section 4.9): given a pre-execution "before" document and the "after"
// document a computation engine produced from it, Compute builds a pure
// Plan describing, for every node of "after", whether to keep the
// matching "before" node (preserving its source identity), recurse into a
// structurally-matching container, or accept the engine's new node.
// Apply then materializes the plan into a merged document. The two phases
// are strictly separated: a Plan holds indices only, never node
// references, so it can be inspected, logged, or discarded.
package reconcile

// AlignOp is the operation an alignment prescribes for one "after" node.
type AlignOp int

// Recognized alignment operations.
const (
	// KeepBefore takes the before-node at BeforeIdx unchanged.
	KeepBefore AlignOp = iota
	// UseAfter takes the after-node at AfterIdx unchanged.
	UseAfter
	// RecurseIntoContainer keeps the before-node's shell (kind, attrs,
	// SourceInfo) and reconciles its children via a nested plan.
	RecurseIntoContainer
)

func (op AlignOp) String() string {
	switch op {
	case KeepBefore:
		return "KeepBefore"
	case UseAfter:
		return "UseAfter"
	case RecurseIntoContainer:
		return "RecurseIntoContainer"
	default:
		return "Unknown"
	}
}

// BlockAlignment aligns one "after" block with its reconciliation source.
// BeforeIdx is meaningful for KeepBefore and RecurseIntoContainer;
// AfterIdx is meaningful for UseAfter and RecurseIntoContainer.
type BlockAlignment struct {
	Op        AlignOp
	BeforeIdx int
	AfterIdx  int
}

// InlineAlignment aligns one "after" inline, with the same index
// semantics as BlockAlignment.
type InlineAlignment struct {
	Op        AlignOp
	BeforeIdx int
	AfterIdx  int
}

// Stats summarizes what a plan (including its nested plans) prescribes.
type Stats struct {
	BlocksKept      int
	BlocksReplaced  int
	BlocksRecursed  int
	InlinesKept     int
	InlinesReplaced int
	InlinesRecursed int
}

// Merge folds other's counters into s.
func (s *Stats) Merge(other Stats) {
	s.BlocksKept += other.BlocksKept
	s.BlocksReplaced += other.BlocksReplaced
	s.BlocksRecursed += other.BlocksRecursed
	s.InlinesKept += other.InlinesKept
	s.InlinesReplaced += other.InlinesReplaced
	s.InlinesRecursed += other.InlinesRecursed
}

// Plan describes how to merge one block sequence. Nested plans are keyed
// by the index of the RecurseIntoContainer alignment they belong to
// within Alignments.
type Plan struct {
	Alignments []BlockAlignment

	// ContainerPlans holds the nested plan for a block container
	// (Div, BlockQuote, lists, Figure, DefinitionList).
	ContainerPlans map[int]*ContainerPlan
	// InlinePlans holds the inline-level plan for a block with flat
	// inline content (Paragraph, Plain, Header).
	InlinePlans map[int]*InlinePlan
	// CustomPlans holds the slot-by-slot plan for a Custom block.
	CustomPlans map[int]*SlotPlan

	Stats Stats
}

// NewPlan constructs an empty plan.
func NewPlan() *Plan {
	return &Plan{
		ContainerPlans: make(map[int]*ContainerPlan),
		InlinePlans:    make(map[int]*InlinePlan),
		CustomPlans:    make(map[int]*SlotPlan),
	}
}

// IsAllKeep reports whether every alignment at this level is KeepBefore
// and no nested plan exists, i.e. every node of "after" is taken unchanged
// from "before". Nodes of "before" with no counterpart in "after" are not
// considered, so the applied result can still be shorter than "before".
func (p *Plan) IsAllKeep() bool {
	for _, a := range p.Alignments {
		if a.Op != KeepBefore {
			return false
		}
	}
	return len(p.ContainerPlans) == 0 && len(p.InlinePlans) == 0 && len(p.CustomPlans) == 0
}

// ContainerPlan is the nested plan for one RecurseIntoContainer block
// alignment. Exactly one field is populated, matching the container's
// shape: Blocks for single-sequence containers, Items for lists, Defs
// for definition lists.
type ContainerPlan struct {
	// Blocks reconciles Div/BlockQuote/Figure content.
	Blocks *Plan
	// Items reconciles list items pairwise; Items[i] covers item i of
	// both sides, for i < min(len(before), len(after)). After-side items
	// beyond that are taken wholesale.
	Items []*Plan
	// Defs reconciles DefinitionList entries pairwise; Defs[i][j] covers
	// definition j of entry i.
	Defs [][]*Plan
}

// InlinePlan describes how to merge one inline sequence, mirroring Plan
// at the inline level. Note children are blocks, so a Note container's
// nested plan is a block-level Plan.
type InlinePlan struct {
	Alignments []InlineAlignment

	ContainerPlans map[int]*InlinePlan
	NotePlans      map[int]*Plan
	CustomPlans    map[int]*SlotPlan

	Stats Stats
}

// NewInlinePlan constructs an empty inline plan.
func NewInlinePlan() *InlinePlan {
	return &InlinePlan{
		ContainerPlans: make(map[int]*InlinePlan),
		NotePlans:      make(map[int]*Plan),
		CustomPlans:    make(map[int]*SlotPlan),
	}
}

// needsWork reports whether the inline plan prescribes anything beyond
// keeping every before-node, used when deciding whether a Custom slot
// plan is worth storing at all.
func (p *InlinePlan) needsWork() bool {
	for _, a := range p.Alignments {
		if a.Op != KeepBefore {
			return true
		}
	}
	return len(p.ContainerPlans) > 0 || len(p.NotePlans) > 0 || len(p.CustomPlans) > 0
}

// hasKeeps reports whether any inline at this level is kept from before,
// the criterion spec 4.9 step (c) uses to decide whether recursing into a
// Paragraph/Plain/Header is worthwhile.
func (p *InlinePlan) hasKeeps() bool {
	for _, a := range p.Alignments {
		if a.Op == KeepBefore {
			return true
		}
	}
	return false
}

// SlotPlan is the per-slot reconciliation plan of a Custom node: slot
// names mapping to a nested plan. A slot present in both sides with no
// entry here was structurally equal (apply keeps the before slot); a slot
// missing from before, or whose kind changed, also has no entry (apply
// uses the after slot wholesale).
type SlotPlan struct {
	BlockSlots  map[string]*Plan
	InlineSlots map[string]*InlinePlan
}

// NewSlotPlan constructs an empty slot plan.
func NewSlotPlan() *SlotPlan {
	return &SlotPlan{
		BlockSlots:  make(map[string]*Plan),
		InlineSlots: make(map[string]*InlinePlan),
	}
}
