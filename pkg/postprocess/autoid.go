// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package postprocess

import (
	"strings"
	"unicode"

	"github.com/quarto-go/qcore/pkg/ast"
)

// AutoGeneratedID derives a header identifier from its inline content:
// the stringified text lowercased, punctuation other than '-', '_' and
// '.' stripped, and spaces replaced with hyphens (spec 4.6 pass 2).
func AutoGeneratedID(content []ast.Inline) string {
	text := stringifyInlines(content)
	var sb strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
		case r == ' ' || r == '\t':
			sb.WriteByte('-')
		case r == '-' || r == '_' || r == '.':
			sb.WriteRune(r)
		}
	}
	id := strings.Trim(sb.String(), "-")
	if id == "" {
		id = "section"
	}
	return id
}

// stringifyInlines flattens inline content to plain text the way Pandoc's
// stringify does: Str text verbatim, any space-like inline as one space,
// descending into containers.
func stringifyInlines(inlines []ast.Inline) string {
	var sb strings.Builder
	var visit func(ins []ast.Inline)
	visit = func(ins []ast.Inline) {
		for _, in := range ins {
			switch v := in.(type) {
			case *ast.Str:
				sb.WriteString(v.Text)
			case *ast.Space, *ast.SoftBreak, *ast.LineBreak:
				sb.WriteByte(' ')
			case *ast.Code:
				sb.WriteString(v.Text)
			case *ast.Math:
				sb.WriteString(v.Text)
			default:
				visit(ast.InlineChildren(in))
			}
		}
	}
	visit(inlines)
	return sb.String()
}
