// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package schemavalidate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personSchema = `{
	"type": "object",
	"properties": {
		"name": {"type": "string"},
		"age": {"type": "integer", "minimum": 0}
	},
	"required": ["name"]
}`

func TestValidInstance(t *testing.T) {
	v := NewJSONSchema()
	diags := v.Validate(context.Background(), []byte(personSchema),
		map[string]interface{}{"name": "Ada", "age": 36})
	assert.Empty(t, diags)
}

func TestInvalidInstance(t *testing.T) {
	v := NewJSONSchema()
	diags := v.Validate(context.Background(), []byte(personSchema),
		map[string]interface{}{"age": -1})
	require.NotEmpty(t, diags)
	assert.Equal(t, "Q-2-2", diags[0].Code)
}

func TestMalformedSchema(t *testing.T) {
	v := NewJSONSchema()
	diags := v.Validate(context.Background(), []byte(`{`), nil)
	require.Len(t, diags, 1)
	assert.Equal(t, "Q-2-1", diags[0].Code)
}
