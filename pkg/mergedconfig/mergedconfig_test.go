// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package mergedconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarto-go/qcore/pkg/configvalue"
)

func strMap(entries ...configvalue.MapEntry) configvalue.ConfigValue {
	return configvalue.NewMap(entries, nil)
}

func entry(key string, v configvalue.ConfigValue) configvalue.MapEntry {
	return configvalue.MapEntry{Key: key, Value: v}
}

func strArray(op configvalue.MergeOp, values ...string) configvalue.ConfigValue {
	items := make([]configvalue.ConfigValue, 0, len(values))
	for _, s := range values {
		items = append(items, configvalue.NewString(s, nil))
	}
	return configvalue.NewArray(items, nil).WithMergeOp(op)
}

func arrayStrings(t *testing.T, arr *Array) []string {
	t.Helper()
	out := make([]string, 0, arr.Len())
	for i := 0; i < arr.Len(); i++ {
		item, ok := arr.Get(i)
		require.True(t, ok)
		s, ok := item.Value.AsString()
		require.True(t, ok)
		out = append(out, s)
	}
	return out
}

func TestEmptyConfigHasNoValues(t *testing.T) {
	c := Empty()
	assert.Equal(t, 0, c.LayerCount())
	_, ok := c.Cursor().AsScalar()
	assert.False(t, ok)
	assert.False(t, c.Contains([]string{"title"}))
}

func TestSingleLayerScalar(t *testing.T) {
	c := New([]configvalue.ConfigValue{
		strMap(entry("title", configvalue.NewString("hello", nil))),
	})
	s, ok := c.GetScalar([]string{"title"})
	require.True(t, ok)
	got, _ := s.Value.AsString()
	assert.Equal(t, "hello", got)
	assert.Equal(t, 0, s.LayerIndex)
}

func TestScalarOverrideUsesHighestLayer(t *testing.T) {
	c := New([]configvalue.ConfigValue{
		strMap(entry("title", configvalue.NewString("base", nil))),
		strMap(entry("title", configvalue.NewString("override", nil))),
	})
	s, ok := c.GetScalar([]string{"title"})
	require.True(t, ok)
	got, _ := s.Value.AsString()
	assert.Equal(t, "override", got)
	assert.Equal(t, 1, s.LayerIndex)
}

func TestNestedPathNavigation(t *testing.T) {
	c := New([]configvalue.ConfigValue{
		strMap(entry("format", strMap(entry("html", strMap(
			entry("toc", configvalue.NewBool(true, nil)),
		))))),
	})
	s, ok := c.GetScalar([]string{"format", "html", "toc"})
	require.True(t, ok)
	b, _ := s.Value.AsBool()
	assert.True(t, b)
}

func TestCursorChaining(t *testing.T) {
	c := New([]configvalue.ConfigValue{
		strMap(entry("format", strMap(entry("html", strMap(
			entry("toc", configvalue.NewBool(true, nil)),
		))))),
	})
	cur := c.Cursor().At("format").At("html").At("toc")
	s, ok := cur.AsScalar()
	require.True(t, ok)
	b, _ := s.Value.AsBool()
	assert.True(t, b)
}

func TestArrayConcatDefault(t *testing.T) {
	c := New([]configvalue.ConfigValue{
		strMap(entry("tags", strArray(configvalue.Concat, "a"))),
		strMap(entry("tags", strArray(configvalue.Concat, "b"))),
	})
	arr, ok := c.GetArray([]string{"tags"})
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, arrayStrings(t, arr))
}

func TestArrayPreferResets(t *testing.T) {
	c := New([]configvalue.ConfigValue{
		strMap(entry("tags", strArray(configvalue.Concat, "a"))),
		strMap(entry("tags", strArray(configvalue.Prefer, "b"))),
	})
	arr, ok := c.GetArray([]string{"tags"})
	require.True(t, ok)
	assert.Equal(t, []string{"b"}, arrayStrings(t, arr))
}

// TestAssociativityArraysWithPrefer mirrors the Rust suite's
// associativity check: a=[a], b=!prefer[b], c=[c] merges to ["b","c"],
// proving Prefer resets at whichever layer it appears, not only at the
// very first or very last.
func TestAssociativityArraysWithPrefer(t *testing.T) {
	c := New([]configvalue.ConfigValue{
		strMap(entry("tags", strArray(configvalue.Concat, "a"))),
		strMap(entry("tags", strArray(configvalue.Prefer, "b"))),
		strMap(entry("tags", strArray(configvalue.Concat, "c"))),
	})
	arr, ok := c.GetArray([]string{"tags"})
	require.True(t, ok)
	assert.Equal(t, []string{"b", "c"}, arrayStrings(t, arr))
}

func TestMapFieldWiseMerge(t *testing.T) {
	c := New([]configvalue.ConfigValue{
		strMap(entry("format", strMap(
			entry("toc", configvalue.NewBool(true, nil)),
		))),
		strMap(entry("format", strMap(
			entry("number-sections", configvalue.NewBool(true, nil)),
		))),
	})
	m, ok := c.GetMap([]string{"format"})
	require.True(t, ok)
	assert.Equal(t, []string{"toc", "number-sections"}, m.Keys())
}

func TestMapPreferResetsKeys(t *testing.T) {
	c := New([]configvalue.ConfigValue{
		strMap(entry("format", strMap(
			entry("toc", configvalue.NewBool(true, nil)),
		))),
		strMap(entry("format", strMap(
			entry("number-sections", configvalue.NewBool(true, nil)),
		).WithMergeOp(configvalue.Prefer))),
	})
	m, ok := c.GetMap([]string{"format"})
	require.True(t, ok)
	assert.Equal(t, []string{"number-sections"}, m.Keys())
}

func TestMapIterYieldsCursorsByKey(t *testing.T) {
	c := New([]configvalue.ConfigValue{
		strMap(entry("format", strMap(
			entry("toc", configvalue.NewBool(true, nil)),
			entry("title", configvalue.NewString("x", nil)),
		))),
	})
	m, ok := c.GetMap([]string{"format"})
	require.True(t, ok)
	entries := m.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "toc", entries[0].Key)
	assert.Equal(t, "title", entries[1].Key)

	s, ok := entries[1].Cursor.AsScalar()
	require.True(t, ok)
	got, _ := s.Value.AsString()
	assert.Equal(t, "x", got)
}

func TestMapContainsKey(t *testing.T) {
	c := New([]configvalue.ConfigValue{
		strMap(entry("format", strMap(entry("toc", configvalue.NewBool(true, nil))))),
	})
	m, ok := c.GetMap([]string{"format"})
	require.True(t, ok)
	assert.True(t, m.ContainsKey("toc"))
	assert.False(t, m.ContainsKey("number-sections"))
}

func TestEmptyMapStillResolves(t *testing.T) {
	c := New([]configvalue.ConfigValue{
		strMap(entry("format", strMap())),
	})
	m, ok := c.GetMap([]string{"format"})
	require.True(t, ok)
	assert.True(t, m.IsEmpty())
}

func TestExistsAcrossLayers(t *testing.T) {
	c := New([]configvalue.ConfigValue{
		strMap(entry("a", configvalue.NewString("1", nil))),
	})
	assert.True(t, c.Contains([]string{"a"}))
	assert.False(t, c.Contains([]string{"b"}))
}

func TestAsValueForScalar(t *testing.T) {
	c := New([]configvalue.ConfigValue{
		strMap(entry("title", configvalue.NewString("hi", nil))),
	})
	v, ok := c.Cursor().At("title").AsValue()
	require.True(t, ok)
	assert.Equal(t, ValueScalar, v.Kind)
}

func TestAsValueForArray(t *testing.T) {
	c := New([]configvalue.ConfigValue{
		strMap(entry("tags", strArray(configvalue.Concat, "a"))),
	})
	v, ok := c.Cursor().At("tags").AsValue()
	require.True(t, ok)
	require.Equal(t, ValueArray, v.Kind)
	assert.Equal(t, 1, v.Array.Len())
}

func TestAsValueForMap(t *testing.T) {
	c := New([]configvalue.ConfigValue{
		strMap(entry("format", strMap(entry("toc", configvalue.NewBool(true, nil))))),
	})
	v, ok := c.Cursor().At("format").AsValue()
	require.True(t, ok)
	require.Equal(t, ValueMap, v.Kind)
	assert.Equal(t, []string{"toc"}, v.Map.Keys())
}

func TestWithLayerDoesNotMutateOriginal(t *testing.T) {
	base := New([]configvalue.ConfigValue{
		strMap(entry("a", configvalue.NewString("1", nil))),
	})
	extended := base.WithLayer(strMap(entry("b", configvalue.NewString("2", nil))))

	assert.Equal(t, 1, base.LayerCount())
	assert.Equal(t, 2, extended.LayerCount())
	assert.False(t, base.Contains([]string{"b"}))
	assert.True(t, extended.Contains([]string{"b"}))
}

func TestPathAccessorReturnsCurrentPath(t *testing.T) {
	c := New([]configvalue.ConfigValue{strMap()})
	cur := c.Cursor().At("format").At("html")
	assert.Equal(t, []string{"format", "html"}, cur.Path())
}

func TestDeepNestingAcrossManyLayers(t *testing.T) {
	c := Empty()
	for i := 0; i < 5; i++ {
		c = c.WithLayer(strMap(entry("a", strMap(entry("b", strMap(
			entry("c", configvalue.NewScalar(int64(i), nil)),
		))))))
	}
	s, ok := c.GetScalar([]string{"a", "b", "c"})
	require.True(t, ok)
	got, _ := s.Value.AsInt()
	assert.Equal(t, int64(4), got)
	assert.Equal(t, 4, s.LayerIndex)
}

func TestAssociativityScalarsLastWriterWinsRegardlessOfGrouping(t *testing.T) {
	layers := []configvalue.ConfigValue{
		strMap(entry("title", configvalue.NewString("a", nil))),
		strMap(entry("title", configvalue.NewString("b", nil))),
		strMap(entry("title", configvalue.NewString("c", nil))),
	}

	whole := New(layers)
	s, ok := whole.GetScalar([]string{"title"})
	require.True(t, ok)
	got, _ := s.Value.AsString()
	assert.Equal(t, "c", got)

	grouped := New(layers[:2]).WithLayer(layers[2])
	s2, ok := grouped.GetScalar([]string{"title"})
	require.True(t, ok)
	got2, _ := s2.Value.AsString()
	assert.Equal(t, got, got2)
}
