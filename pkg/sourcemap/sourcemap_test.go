// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package sourcemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapOffsetOriginal(t *testing.T) {
	ctx := NewSourceContext()
	id := ctx.AddFile("doc.qmd", []byte("line one\nline two\nline three\n"))

	info := Original(id, Range{Start: 9, End: 18}) // "line two"

	file, loc, ok := info.MapOffset(5, ctx)
	require.True(t, ok)
	assert.Equal(t, id, file)
	assert.Equal(t, 1, loc.Row)
	assert.Equal(t, 5, loc.Column)
	row, col := loc.Display()
	assert.Equal(t, 2, row)
	assert.Equal(t, 6, col)
}

func TestMapOffsetOutOfRange(t *testing.T) {
	ctx := NewSourceContext()
	id := ctx.AddFile("doc.qmd", []byte("abc"))
	info := Original(id, Range{Start: 0, End: 3})

	_, _, ok := info.MapOffset(10, ctx)
	assert.False(t, ok)
}

func TestMapOffsetSubstring(t *testing.T) {
	ctx := NewSourceContext()
	id := ctx.AddFile("doc.qmd", []byte("Hello, World!"))
	parent := Original(id, Range{Start: 0, End: 13})
	sub := Substring(parent, 7, 12) // "World"

	file, loc, ok := sub.MapOffset(0, ctx)
	require.True(t, ok)
	assert.Equal(t, id, file)
	assert.Equal(t, 7, loc.Offset)

	_, _, ok = sub.MapOffset(6, ctx) // beyond "World" (len 5)
	assert.False(t, ok)
}

func TestMapOffsetTransformed(t *testing.T) {
	ctx := NewSourceContext()
	id := ctx.AddFile("doc.qmd", []byte("title: hi"))
	parent := Original(id, Range{Start: 0, End: 9})
	tx := Transformed(parent, TransformYAML)

	file, loc, ok := tx.MapOffset(7, ctx)
	require.True(t, ok)
	assert.Equal(t, id, file)
	assert.Equal(t, 7, loc.Offset)
}

func TestMapOffsetConcat(t *testing.T) {
	ctx := NewSourceContext()
	idA := ctx.AddFile("a.qmd", []byte("AAAA"))
	idB := ctx.AddFile("b.qmd", []byte("BBBB"))
	a := Original(idA, Range{Start: 0, End: 4})
	b := Original(idB, Range{Start: 0, End: 4})

	concat := Concat([]ConcatPiece{
		{Local: Range{Start: 0, End: 4}, Source: a},
		{Local: Range{Start: 4, End: 8}, Source: b},
	})

	file, _, ok := concat.MapOffset(2, ctx)
	require.True(t, ok)
	assert.Equal(t, idA, file)

	file, _, ok = concat.MapOffset(5, ctx)
	require.True(t, ok)
	assert.Equal(t, idB, file)

	_, _, ok = concat.MapOffset(20, ctx)
	assert.False(t, ok)
}

func TestCombineAdjacentOriginalsCollapse(t *testing.T) {
	ctx := NewSourceContext()
	id := ctx.AddFile("doc.qmd", []byte("Mr. Smith"))
	a := Original(id, Range{Start: 0, End: 3})
	b := Original(id, Range{Start: 3, End: 9})

	combined := Combine(a, b)
	file, loc, ok := combined.MapOffset(0, ctx)
	require.True(t, ok)
	assert.Equal(t, id, file)
	assert.Equal(t, 0, loc.Offset)

	require.Equal(t, variantOriginal, combined.variant)
}

func TestCombineNonAdjacentWrapsConcat(t *testing.T) {
	ctx := NewSourceContext()
	idA := ctx.AddFile("a.qmd", []byte("foo"))
	idB := ctx.AddFile("b.qmd", []byte("bar"))
	a := Original(idA, Range{Start: 0, End: 3})
	b := Original(idB, Range{Start: 0, End: 3})

	combined := Combine(a, b)
	require.Equal(t, variantConcat, combined.variant)

	file, _, ok := combined.MapOffset(4, ctx)
	require.True(t, ok)
	assert.Equal(t, idB, file)
}

func TestZeroSourceInfo(t *testing.T) {
	var zero *Info
	assert.True(t, zero.IsZero())

	ctx := NewSourceContext()
	_, _, ok := zero.MapOffset(0, ctx)
	assert.False(t, ok)
}

func TestAddFileDedupAndContent(t *testing.T) {
	ctx := NewSourceContext()
	id1 := ctx.AddFile("a.qmd", []byte("x"))
	id2 := ctx.AddFile("a.qmd", []byte("x"))
	assert.Equal(t, id1, id2)

	path, content, ok := ctx.GetFile(id1)
	require.True(t, ok)
	assert.Equal(t, "a.qmd", path)
	assert.Equal(t, []byte("x"), content)

	_, _, ok = ctx.GetFile(NoFile)
	assert.False(t, ok)
}

func TestDiskBackedFileSetContent(t *testing.T) {
	ctx := NewSourceContext()
	id := ctx.AddFile("disk.qmd", nil)
	_, content, ok := ctx.GetFile(id)
	require.True(t, ok)
	assert.Nil(t, content)

	ctx.SetContent(id, []byte("hello\nworld\n"))
	info := Original(id, Range{Start: 6, End: 11})
	_, loc, ok := info.MapOffset(0, ctx)
	require.True(t, ok)
	assert.Equal(t, 1, loc.Row)
}
