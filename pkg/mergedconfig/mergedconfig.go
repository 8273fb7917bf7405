// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package mergedconfig implements lazy, zero-copy merging of layered
// configuration (spec.md section 4.3's configuration layering): a
// Config holds an ordered list of configvalue.ConfigValue layers
// (lowest priority first), and a Cursor navigates a dotted path
// across all of them, applying !prefer/!concat merge semantics only
// when a concrete value is actually requested.
package mergedconfig

import "github.com/quarto-go/qcore/pkg/configvalue"

// Config is an ordered list of configuration layers. Layers are
// referenced, never copied or mutated: merging only ever happens inside
// a Cursor's as_* resolution methods.
type Config struct {
	layers []configvalue.ConfigValue
}

// New constructs a Config from layers ordered lowest-priority first.
func New(layers []configvalue.ConfigValue) *Config {
	return &Config{layers: layers}
}

// Empty constructs a Config with no layers.
func Empty() *Config {
	return &Config{}
}

// WithLayer returns a new Config with layer appended as the new
// highest-priority layer; it does not mutate c.
func (c *Config) WithLayer(layer configvalue.ConfigValue) *Config {
	layers := make([]configvalue.ConfigValue, len(c.layers), len(c.layers)+1)
	copy(layers, c.layers)
	return &Config{layers: append(layers, layer)}
}

// LayerCount returns the number of layers.
func (c *Config) LayerCount() int { return len(c.layers) }

// Cursor returns a cursor at the root path.
func (c *Config) Cursor() *Cursor {
	return &Cursor{config: c}
}

// GetScalar is a convenience for Cursor().AtPath(path).AsScalar().
func (c *Config) GetScalar(path []string) (Scalar, bool) {
	return c.Cursor().AtPath(path).AsScalar()
}

// GetArray is a convenience for Cursor().AtPath(path).AsArray().
func (c *Config) GetArray(path []string) (*Array, bool) {
	return c.Cursor().AtPath(path).AsArray()
}

// GetMap is a convenience for Cursor().AtPath(path).AsMap().
func (c *Config) GetMap(path []string) (*Map, bool) {
	return c.Cursor().AtPath(path).AsMap()
}

// Contains reports whether path resolves to a value in any layer.
func (c *Config) Contains(path []string) bool {
	return c.Cursor().AtPath(path).Exists()
}

// Cursor is a lightweight (config, path) pair; resolution is deferred to
// its As* methods.
type Cursor struct {
	config *Config
	path   []string
}

// At navigates to a child key, returning a new cursor.
func (cur *Cursor) At(key string) *Cursor {
	path := make([]string, len(cur.path), len(cur.path)+1)
	copy(path, cur.path)
	return &Cursor{config: cur.config, path: append(path, key)}
}

// AtPath navigates through multiple keys at once.
func (cur *Cursor) AtPath(path []string) *Cursor {
	newPath := make([]string, len(cur.path), len(cur.path)+len(path))
	copy(newPath, cur.path)
	return &Cursor{config: cur.config, path: append(newPath, path...)}
}

// Path returns the cursor's current path.
func (cur *Cursor) Path() []string { return cur.path }

// navigateTo walks a single layer along the cursor's path, returning the
// value there or ok=false if the path doesn't exist within that layer.
func (cur *Cursor) navigateTo(layer configvalue.ConfigValue) (configvalue.ConfigValue, bool) {
	current := layer
	for _, key := range cur.path {
		if !current.IsMap() {
			return configvalue.ConfigValue{}, false
		}
		v, ok := current.Get(key)
		if !ok {
			return configvalue.ConfigValue{}, false
		}
		current = v
	}
	return current, true
}

// Exists reports whether this path resolves in any layer.
func (cur *Cursor) Exists() bool {
	for _, layer := range cur.config.layers {
		if _, ok := cur.navigateTo(layer); ok {
			return true
		}
	}
	return false
}

// Keys returns the child keys at this path, unioned across all layers,
// honoring !prefer resets: a layer whose value here has MergeOp Prefer
// discards every key seen so far before contributing its own. Key order
// is first-seen order among the surviving layers.
func (cur *Cursor) Keys() []string {
	order := make([]string, 0)
	seenAt := make(map[string]int)
	resetPoint := 0

	for i, layer := range cur.config.layers {
		value, ok := cur.navigateTo(layer)
		if !ok {
			continue
		}
		if value.MergeOp() == configvalue.Prefer {
			order = nil
			seenAt = make(map[string]int)
			resetPoint = i
		}
		if value.IsMap() {
			for _, e := range value.Entries() {
				if _, exists := seenAt[e.Key]; !exists {
					seenAt[e.Key] = i
					order = append(order, e.Key)
				}
			}
		}
	}

	out := make([]string, 0, len(order))
	for _, k := range order {
		if seenAt[k] >= resetPoint {
			out = append(out, k)
		}
	}
	return out
}

// Scalar is a resolved scalar-like value with the layer it came from.
type Scalar struct {
	Value      configvalue.ConfigValue
	LayerIndex int
}

// AsScalar resolves the highest-priority layer whose value here is
// scalar-like (Scalar/PandocInlines/PandocBlocks all use last-wins
// semantics regardless of their own MergeOp).
func (cur *Cursor) AsScalar() (Scalar, bool) {
	for i := len(cur.config.layers) - 1; i >= 0; i-- {
		value, ok := cur.navigateTo(cur.config.layers[i])
		if ok && value.IsScalar() {
			return Scalar{Value: value, LayerIndex: i}, true
		}
	}
	return Scalar{}, false
}

// ArrayItem is one item of a resolved Array, with the layer it came
// from.
type ArrayItem struct {
	Value      configvalue.ConfigValue
	LayerIndex int
}

// Array is a resolved array with prefer/concat semantics already
// applied across every contributing layer.
type Array struct {
	Items []ArrayItem
}

// Len returns the number of items.
func (a *Array) Len() int { return len(a.Items) }

// IsEmpty reports whether the array has no items.
func (a *Array) IsEmpty() bool { return len(a.Items) == 0 }

// Get returns the item at index, or ok=false if out of range.
func (a *Array) Get(index int) (ArrayItem, bool) {
	if index < 0 || index >= len(a.Items) {
		return ArrayItem{}, false
	}
	return a.Items[index], true
}

// AsArray resolves this path as an array, walking layers lowest to
// highest priority and applying each layer's own MergeOp: Prefer clears
// everything accumulated so far before appending; Concat (the default)
// appends. Returns ok=false if no layer has an array here.
func (cur *Cursor) AsArray() (*Array, bool) {
	var items []ArrayItem
	found := false

	for i, layer := range cur.config.layers {
		value, ok := cur.navigateTo(layer)
		if !ok || !value.IsArray() {
			continue
		}
		found = true
		if value.MergeOp() == configvalue.Prefer {
			items = nil
		}
		for _, item := range value.Array() {
			items = append(items, ArrayItem{Value: item, LayerIndex: i})
		}
	}

	if !found {
		return nil, false
	}
	return &Array{Items: items}, true
}

// Map is a resolved map with merge semantics applied: its Keys are
// already the unioned (and !prefer-reset) key set, and Get navigates to
// a sub-cursor rather than materializing every value eagerly.
type Map struct {
	config *Config
	path   []string
	keys   []string
}

// Keys returns the resolved key set in first-seen order.
func (m *Map) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// IsEmpty reports whether the map has no keys.
func (m *Map) IsEmpty() bool { return len(m.keys) == 0 }

// Len returns the number of keys.
func (m *Map) Len() int { return len(m.keys) }

// ContainsKey reports whether key is present.
func (m *Map) ContainsKey(key string) bool {
	for _, k := range m.keys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns a cursor for key, or ok=false if key is not present.
func (m *Map) Get(key string) (*Cursor, bool) {
	if !m.ContainsKey(key) {
		return nil, false
	}
	path := make([]string, len(m.path), len(m.path)+1)
	copy(path, m.path)
	return &Cursor{config: m.config, path: append(path, key)}, true
}

// Entries returns (key, cursor) pairs for every resolved key, in order.
func (m *Map) Entries() []struct {
	Key    string
	Cursor *Cursor
} {
	out := make([]struct {
		Key    string
		Cursor *Cursor
	}, 0, len(m.keys))
	for _, k := range m.keys {
		cur, _ := m.Get(k)
		out = append(out, struct {
			Key    string
			Cursor *Cursor
		}{Key: k, Cursor: cur})
	}
	return out
}

// AsMap resolves this path as a map. It returns ok=false only if no
// layer has a map (empty or otherwise) at this path; an empty map still
// resolves successfully with zero keys.
func (cur *Cursor) AsMap() (*Map, bool) {
	keys := cur.Keys()
	if len(keys) == 0 {
		hasMap := false
		for _, layer := range cur.config.layers {
			if value, ok := cur.navigateTo(layer); ok && value.IsMap() {
				hasMap = true
				break
			}
		}
		if !hasMap {
			return nil, false
		}
	}
	return &Map{config: cur.config, path: cur.path, keys: keys}, true
}

// ValueKind discriminates the Value tagged union returned by AsValue.
type ValueKind int

// Recognized resolved-value kinds.
const (
	ValueScalar ValueKind = iota
	ValueArray
	ValueMap
)

// Value is a resolved value of whichever kind turns out to be at a
// cursor's path, for callers that don't know the shape ahead of time.
type Value struct {
	Kind   ValueKind
	Scalar Scalar
	Array  *Array
	Map    *Map
}

// AsValue resolves this path to whichever kind of value the
// highest-priority contributing layer holds.
func (cur *Cursor) AsValue() (Value, bool) {
	for i := len(cur.config.layers) - 1; i >= 0; i-- {
		value, ok := cur.navigateTo(cur.config.layers[i])
		if !ok {
			continue
		}
		switch {
		case value.IsScalar():
			return Value{Kind: ValueScalar, Scalar: Scalar{Value: value, LayerIndex: i}}, true
		case value.IsArray():
			arr, _ := cur.AsArray()
			return Value{Kind: ValueArray, Array: arr}, true
		case value.IsMap():
			m, _ := cur.AsMap()
			return Value{Kind: ValueMap, Map: m}, true
		}
	}
	return Value{}, false
}
