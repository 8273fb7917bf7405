// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package ast

import (
	"fmt"

	"github.com/quarto-go/qcore/pkg/sourcemap"
)

// KV is one key/value entry of an Attr. Duplicate keys are forbidden
// within an Attr (spec 3.2); callers that build attrs incrementally
// should use Attr.SetKV which enforces this.
type KV struct {
	Key   string
	Value string
}

// Attr is the (id, classes, ordered key-value pairs) attribute block
// attached to headers, code, links, spans, divs, etc. (spec 3.2).
type Attr struct {
	ID      string
	Classes []string
	KVs     []KV
}

// IsEmpty reports whether the attribute block carries no information.
func (a Attr) IsEmpty() bool {
	return a.ID == "" && len(a.Classes) == 0 && len(a.KVs) == 0
}

// Get returns the value for key and whether it was present.
func (a Attr) Get(key string) (string, bool) {
	for _, kv := range a.KVs {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// SetKV sets key to value, overwriting any existing entry with the same
// key (never producing a duplicate), preserving insertion order for new
// keys.
func (a *Attr) SetKV(key, value string) {
	for i, kv := range a.KVs {
		if kv.Key == key {
			a.KVs[i].Value = value
			return
		}
	}
	a.KVs = append(a.KVs, KV{Key: key, Value: value})
}

// HasClass reports whether cls is present among a's classes.
func (a Attr) HasClass(cls string) bool {
	for _, c := range a.Classes {
		if c == cls {
			return true
		}
	}
	return false
}

func (a Attr) String() string {
	s := "{"
	if a.ID != "" {
		s += fmt.Sprintf("#%s", a.ID)
	}
	for _, c := range a.Classes {
		s += fmt.Sprintf(" .%s", c)
	}
	for _, kv := range a.KVs {
		s += fmt.Sprintf(" %s=%q", kv.Key, kv.Value)
	}
	return s + "}"
}

// AttrSourceInfo carries a SourceInfo for every addressable piece of an
// Attr syntax occurrence (spec 3.2): the id slot, each class slot (by
// index, matching Attr.Classes), and each key/value slot (by index,
// matching Attr.KVs). A nil *sourcemap.Info within any slice entry is
// legal and means "no sub-location available for this piece".
type AttrSourceInfo struct {
	Whole   *sourcemap.Info
	ID      *sourcemap.Info
	Classes []*sourcemap.Info
	Keys    []*sourcemap.Info
	Values  []*sourcemap.Info
}
