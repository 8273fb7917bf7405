// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package html

import (
	"encoding/json"

	"github.com/quarto-go/qcore/pkg/ast"
)

// NodeSource is one entry of the HTML writer's side map: the "s" pool id
// and resolved "l" location the JSON writer attached to the node.
type NodeSource struct {
	PoolID   int
	Location json.RawMessage
}

// SourceMap derives a node-pointer -> source-info map by walking doc and
// a JSON rendering of it (produced with IncludeInlineLocations) in
// parallel (spec 4.7). Nodes without JSON source fields are absent from
// the map. The walk tolerates shape divergence by stopping descent on
// the divergent subtree rather than failing.
func SourceMap(doc *ast.Pandoc, jsonDoc []byte) (map[interface{}]NodeSource, error) {
	var root struct {
		Blocks []json.RawMessage `json:"blocks"`
	}
	if err := json.Unmarshal(jsonDoc, &root); err != nil {
		return nil, err
	}
	m := make(map[interface{}]NodeSource)
	walkBlocks(doc.Blocks, root.Blocks, m)
	return m, nil
}

type jsonNode struct {
	T string          `json:"t"`
	C json.RawMessage `json:"c"`
	S *int            `json:"s"`
	L json.RawMessage `json:"l"`
}

func walkBlocks(blocks []ast.Block, raws []json.RawMessage, m map[interface{}]NodeSource) {
	n := len(blocks)
	if len(raws) < n {
		n = len(raws)
	}
	for i := 0; i < n; i++ {
		walkBlock(blocks[i], raws[i], m)
	}
}

func record(node interface{}, jn *jsonNode, m map[interface{}]NodeSource) {
	if jn.S != nil {
		m[node] = NodeSource{PoolID: *jn.S, Location: jn.L}
	}
}

func rawList(raw json.RawMessage) []json.RawMessage {
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return nil
	}
	return items
}

func walkBlock(b ast.Block, raw json.RawMessage, m map[interface{}]NodeSource) {
	var jn jsonNode
	if json.Unmarshal(raw, &jn) != nil {
		return
	}
	record(b, &jn, m)

	switch v := b.(type) {
	case *ast.Plain:
		walkInlines(v.Content, rawList(jn.C), m)
	case *ast.Paragraph:
		walkInlines(v.Content, rawList(jn.C), m)
	case *ast.Header:
		parts := rawList(jn.C)
		if len(parts) == 3 {
			walkInlines(v.Content, rawList(parts[2]), m)
		}
	case *ast.BlockQuote:
		walkBlocks(v.Content, rawList(jn.C), m)
	case *ast.Div:
		parts := rawList(jn.C)
		if len(parts) == 2 {
			walkBlocks(v.Content, rawList(parts[1]), m)
		}
	case *ast.Figure:
		parts := rawList(jn.C)
		if len(parts) == 3 {
			walkBlocks(v.Content, rawList(parts[2]), m)
		}
	case *ast.BulletList:
		walkItems(v.Items, rawList(jn.C), m)
	case *ast.OrderedList:
		parts := rawList(jn.C)
		if len(parts) == 2 {
			walkItems(v.Items, rawList(parts[1]), m)
		}
	case *ast.DefinitionList:
		parts := rawList(jn.C)
		n := len(v.Items)
		if len(parts) < n {
			n = len(parts)
		}
		for i := 0; i < n; i++ {
			itemParts := rawList(parts[i])
			if len(itemParts) == 2 {
				walkInlines(v.Items[i].Term, rawList(itemParts[0]), m)
				walkItems(v.Items[i].Definitions, rawList(itemParts[1]), m)
			}
		}
	case *ast.LineBlock:
		parts := rawList(jn.C)
		n := len(v.Lines)
		if len(parts) < n {
			n = len(parts)
		}
		for i := 0; i < n; i++ {
			walkInlines(v.Lines[i], rawList(parts[i]), m)
		}
	}
}

func walkItems(items [][]ast.Block, raws []json.RawMessage, m map[interface{}]NodeSource) {
	n := len(items)
	if len(raws) < n {
		n = len(raws)
	}
	for i := 0; i < n; i++ {
		walkBlocks(items[i], rawList(raws[i]), m)
	}
}

func walkInlines(inlines []ast.Inline, raws []json.RawMessage, m map[interface{}]NodeSource) {
	n := len(inlines)
	if len(raws) < n {
		n = len(raws)
	}
	for i := 0; i < n; i++ {
		walkInline(inlines[i], raws[i], m)
	}
}

func walkInline(in ast.Inline, raw json.RawMessage, m map[interface{}]NodeSource) {
	var jn jsonNode
	if json.Unmarshal(raw, &jn) != nil {
		return
	}
	record(in, &jn, m)

	switch v := in.(type) {
	case *ast.Link:
		parts := rawList(jn.C)
		if len(parts) == 3 {
			walkInlines(v.Content, rawList(parts[1]), m)
		}
	case *ast.Image:
		parts := rawList(jn.C)
		if len(parts) == 3 {
			walkInlines(v.Content, rawList(parts[1]), m)
		}
	case *ast.Span:
		parts := rawList(jn.C)
		if len(parts) == 2 {
			walkInlines(v.Content, rawList(parts[1]), m)
		}
	case *ast.Quoted:
		parts := rawList(jn.C)
		if len(parts) == 2 {
			walkInlines(v.Content, rawList(parts[1]), m)
		}
	case *ast.Cite:
		parts := rawList(jn.C)
		if len(parts) == 2 {
			walkInlines(v.Content, rawList(parts[1]), m)
		}
	case *ast.Note:
		walkBlocks(v.Blocks, rawList(jn.C), m)
	default:
		if ast.IsContainerInline(in.Kind()) && in.Kind() != ast.KindCustomInline {
			walkInlines(ast.InlineChildren(in), rawList(jn.C), m)
		}
	}
}
