// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package ast

// SlotKind discriminates the payload carried by a named Slot of a
// CustomInline/CustomBlock (spec 3.3/4.9: extension nodes carry named
// slots of block, blocks, inline, or inlines content).
type SlotKind int

// Recognized slot payload kinds.
const (
	SlotBlock SlotKind = iota
	SlotBlocks
	SlotInline
	SlotInlines
)

// Slot is a single named payload of a custom node. Exactly one of the
// four fields is meaningful, selected by Kind; the others are the zero
// value. This mirrors the tagged-union style used throughout this
// package rather than an interface{} grab-bag, so callers switching on
// Kind get compile-time checked field access.
type Slot struct {
	Kind    SlotKind
	Block   Block
	Blocks  []Block
	Inline  Inline
	Inlines []Inline
}

// NewBlockSlot wraps a single Block as a slot value.
func NewBlockSlot(b Block) Slot { return Slot{Kind: SlotBlock, Block: b} }

// NewBlocksSlot wraps a Block sequence as a slot value.
func NewBlocksSlot(bs []Block) Slot { return Slot{Kind: SlotBlocks, Blocks: bs} }

// NewInlineSlot wraps a single Inline as a slot value.
func NewInlineSlot(i Inline) Slot { return Slot{Kind: SlotInline, Inline: i} }

// NewInlinesSlot wraps an Inline sequence as a slot value.
func NewInlinesSlot(is []Inline) Slot { return Slot{Kind: SlotInlines, Inlines: is} }

// SlotMap is the ordered collection of named slots carried by a custom
// node. Order is preserved (it participates in reconciliation and in
// round-tripping writer output) so names are kept in an ordered slice
// alongside the lookup map.
type SlotMap struct {
	names []string
	byKey map[string]Slot
}

// NewSlotMap constructs an empty SlotMap.
func NewSlotMap() *SlotMap {
	return &SlotMap{byKey: make(map[string]Slot)}
}

// Set assigns name to value, preserving first-seen insertion order.
func (m *SlotMap) Set(name string, value Slot) {
	if _, exists := m.byKey[name]; !exists {
		m.names = append(m.names, name)
	}
	m.byKey[name] = value
}

// Get returns the slot named name and whether it was present.
func (m *SlotMap) Get(name string) (Slot, bool) {
	v, ok := m.byKey[name]
	return v, ok
}

// Names returns the slot names in insertion order.
func (m *SlotMap) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Len returns the number of slots.
func (m *SlotMap) Len() int { return len(m.names) }
