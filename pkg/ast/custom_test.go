// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotMapPreservesInsertionOrder(t *testing.T) {
	m := NewSlotMap()
	m.Set("caption", NewInlinesSlot([]Inline{NewStr("c", nil)}))
	m.Set("body", NewBlocksSlot(nil))
	m.Set("caption", NewInlinesSlot([]Inline{NewStr("updated", nil)}))

	assert.Equal(t, []string{"caption", "body"}, m.Names())
	assert.Equal(t, 2, m.Len())

	got, ok := m.Get("caption")
	require.True(t, ok)
	assert.Equal(t, SlotInlines, got.Kind)
	assert.Equal(t, "updated", got.Inlines[0].(*Str).Text)
}

func TestSlotMapMissingKey(t *testing.T) {
	m := NewSlotMap()
	_, ok := m.Get("nope")
	assert.False(t, ok)
}

func TestSlotConstructors(t *testing.T) {
	b := NewParagraph(nil, nil)
	in := NewStr("x", nil)

	assert.Equal(t, SlotBlock, NewBlockSlot(b).Kind)
	assert.Equal(t, SlotBlocks, NewBlocksSlot([]Block{b}).Kind)
	assert.Equal(t, SlotInline, NewInlineSlot(in).Kind)
	assert.Equal(t, SlotInlines, NewInlinesSlot([]Inline{in}).Kind)
}
