// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetaValueZero(t *testing.T) {
	var v MetaValue
	assert.True(t, v.IsZero())
	assert.Equal(t, MetaStringKind, v.Kind())
}

func TestMetaStringAndBool(t *testing.T) {
	s := NewMetaString("draft", nil)
	assert.Equal(t, MetaStringKind, s.Kind())
	assert.Equal(t, "draft", s.String())
	assert.False(t, s.IsZero())

	b := NewMetaBool(true, nil)
	assert.Equal(t, MetaBoolKind, b.Kind())
	assert.True(t, b.Bool())
}

func TestMetaInlinesAndBlocks(t *testing.T) {
	inlines := []Inline{NewStr("hello", nil)}
	mi := NewMetaInlines(inlines, nil)
	assert.Equal(t, MetaInlinesKind, mi.Kind())
	assert.Equal(t, inlines, mi.Inlines())

	blocks := []Block{NewParagraph(inlines, nil)}
	mb := NewMetaBlocks(blocks, nil)
	assert.Equal(t, MetaBlocksKind, mb.Kind())
	assert.Equal(t, blocks, mb.Blocks())
}

func TestMetaListAndMap(t *testing.T) {
	list := NewMetaList([]MetaValue{
		NewMetaString("a", nil),
		NewMetaString("b", nil),
	}, nil)
	require.Equal(t, MetaListKind, list.Kind())
	assert.Len(t, list.List(), 2)

	m := NewMetaMap([]MetaMapEntry{
		{Key: "title", Value: NewMetaString("My Doc", nil)},
		{Key: "draft", Value: NewMetaBool(false, nil)},
	}, nil)
	require.Equal(t, MetaMapKind, m.Kind())

	title, ok := m.Get("title")
	require.True(t, ok)
	assert.Equal(t, "My Doc", title.String())

	_, ok = m.Get("missing")
	assert.False(t, ok)
}

func TestMetaValueKindString(t *testing.T) {
	assert.Equal(t, "Map", MetaMapKind.String())
	assert.Equal(t, "Unknown", MetaValueKind(99).String())
}
