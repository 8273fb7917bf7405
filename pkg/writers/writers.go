// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package writers defines the writer contract shared by every concrete
// output format (spec.md section 4.7/6.2). Concrete writers live in the
// subpackages native, jsonw, qmdw, plainw, and html; none of them import
// each other.
package writers

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate -header ../../license_prefix.txt

import (
	"io"

	"github.com/quarto-go/qcore/pkg/ast"
	"github.com/quarto-go/qcore/pkg/diagnostics"
)

// Writer renders a document to a sink. The returned diagnostics are the
// writer's accumulated feature-errors (spec section 7: nodes the format
// cannot represent are reported at the end, never mid-stream); an empty
// slice means the document was fully representable. I/O failures are
// reported the same way, as a single Q-3-1 diagnostic.
//
//counterfeiter:generate . Writer
type Writer interface {
	Write(doc *ast.Pandoc, actx *ast.Context, w io.Writer) []diagnostics.DiagnosticMessage
}

// IOError builds the fatal Q-3-1 diagnostic every writer returns when
// its sink fails.
func IOError(err error) diagnostics.DiagnosticMessage {
	return diagnostics.New(diagnostics.Error, "IO error during write").
		Code("Q-3-1").
		Problem("Failed to write output: " + err.Error()).
		Build()
}
