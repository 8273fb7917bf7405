// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package schemavalidate defines the configuration-schema validation
// contract (spec.md section 1 keeps concrete domain schemas out of
// scope; only the validator and its default engine live here). The
// default implementation wraps github.com/google/jsonschema-go,
// translating validation failures into Q-2-* diagnostics.
package schemavalidate

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate -header ../../license_prefix.txt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/quarto-go/qcore/pkg/diagnostics"
)

// Validator checks an instance against a schema, reporting problems as
// diagnostics. An empty slice means the instance is valid.
//
//counterfeiter:generate . Validator
type Validator interface {
	Validate(ctx context.Context, schema []byte, instance interface{}) []diagnostics.DiagnosticMessage
}

// JSONSchema is the default Validator.
type JSONSchema struct{}

// NewJSONSchema constructs the default engine.
func NewJSONSchema() *JSONSchema { return &JSONSchema{} }

// Validate implements Validator. A malformed schema is itself a Q-2-1
// diagnostic; an instance that fails validation yields one Q-2-2
// diagnostic carrying the engine's explanation.
func (*JSONSchema) Validate(_ context.Context, schemaBytes []byte, instance interface{}) []diagnostics.DiagnosticMessage {
	var schema jsonschema.Schema
	if err := json.Unmarshal(schemaBytes, &schema); err != nil {
		return []diagnostics.DiagnosticMessage{
			diagnostics.New(diagnostics.Error, "Invalid schema").
				Code("Q-2-1").
				Problem(fmt.Sprintf("The schema is not valid JSON Schema: %v", err)).
				Build(),
		}
	}

	resolved, err := schema.Resolve(nil)
	if err != nil {
		return []diagnostics.DiagnosticMessage{
			diagnostics.New(diagnostics.Error, "Invalid schema").
				Code("Q-2-1").
				Problem(fmt.Sprintf("The schema does not resolve: %v", err)).
				Build(),
		}
	}

	if err := resolved.Validate(instance); err != nil {
		return []diagnostics.DiagnosticMessage{
			diagnostics.New(diagnostics.Error, "Validation failed").
				Code("Q-2-2").
				Problem(err.Error()).
				Hint("Check the value against the documented configuration schema").
				Build(),
		}
	}
	return nil
}
