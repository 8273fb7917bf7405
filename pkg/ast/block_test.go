// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockKindString(t *testing.T) {
	assert.Equal(t, "Paragraph", KindParagraph.String())
	assert.Equal(t, "Custom", KindCustomBlock.String())
	assert.Equal(t, "Unknown", BlockKind(999).String())
}

func TestInlineContentOfParagraphAndHeader(t *testing.T) {
	str := NewStr("hi", nil)
	p := NewParagraph([]Inline{str}, nil)
	require.Equal(t, KindParagraph, p.Kind())
	assert.Equal(t, []Inline{str}, InlineContentOf(p))

	h := NewHeader(2, Attr{ID: "intro"}, []Inline{str}, nil)
	assert.Equal(t, []Inline{str}, InlineContentOf(h))
	assert.Nil(t, InlineContentOf(NewHorizontalRule(nil)))
}

func TestSetInlineContentOfReplacesInPlace(t *testing.T) {
	p := NewParagraph([]Inline{NewStr("old", nil)}, nil)
	replacement := []Inline{NewStr("new", nil)}
	SetInlineContentOf(p, replacement)
	assert.Equal(t, replacement, p.Content)
}

func TestSetInlineContentOfPanicsOnNonInlineBlock(t *testing.T) {
	assert.Panics(t, func() {
		SetInlineContentOf(NewHorizontalRule(nil), nil)
	})
}

func TestIsContainerBlockTaxonomy(t *testing.T) {
	assert.True(t, IsContainerBlock(KindDiv))
	assert.True(t, IsContainerBlock(KindBlockQuote))
	assert.True(t, IsContainerBlock(KindOrderedList))
	assert.True(t, IsContainerBlock(KindBulletList))
	assert.True(t, IsContainerBlock(KindDefinitionList))
	assert.True(t, IsContainerBlock(KindFigure))
	assert.True(t, IsContainerBlock(KindCustomBlock))
	assert.False(t, IsContainerBlock(KindParagraph))
	assert.False(t, IsContainerBlock(KindCodeBlock))
}

func TestHasInlineContentTaxonomy(t *testing.T) {
	assert.True(t, HasInlineContent(KindPlain))
	assert.True(t, HasInlineContent(KindParagraph))
	assert.True(t, HasInlineContent(KindHeader))
	assert.False(t, HasInlineContent(KindDiv))
	assert.False(t, HasInlineContent(KindCodeBlock))
}

func TestOrderedListAndBulletListConstructors(t *testing.T) {
	ol := NewOrderedList(
		ListAttributes{Start: 1, Style: Decimal, Delim: Period},
		[][]Block{{NewPlain([]Inline{NewStr("one", nil)}, nil)}},
		nil,
	)
	require.Equal(t, KindOrderedList, ol.Kind())
	assert.Len(t, ol.Items, 1)

	bl := NewBulletList([][]Block{{NewPlain(nil, nil)}}, nil)
	assert.Equal(t, KindBulletList, bl.Kind())
}

func TestDivAndBlockQuoteAreContainers(t *testing.T) {
	inner := NewParagraph([]Inline{NewStr("x", nil)}, nil)
	div := NewDiv(Attr{ID: "box"}, []Block{inner}, nil)
	assert.Equal(t, []Block{inner}, div.Content)

	bq := NewBlockQuote([]Block{inner}, nil)
	assert.Equal(t, []Block{inner}, bq.Content)
}

func TestCustomBlockCarriesSlots(t *testing.T) {
	slots := NewSlotMap()
	slots.Set("body", NewBlocksSlot([]Block{NewParagraph(nil, nil)}))
	cb := NewCustomBlock("callout", slots, nil)
	assert.Equal(t, KindCustomBlock, cb.Kind())
	got, ok := cb.Slots.Get("body")
	require.True(t, ok)
	assert.Equal(t, SlotBlocks, got.Kind)
}
