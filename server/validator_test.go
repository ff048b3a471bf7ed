package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorAccepts(t *testing.T) {
	v, err := newValidator()
	require.NoError(t, err)

	for _, body := range []string{
		`{"title":"a"}`,
		`{"title":"a","tags":[]}`,
		`{"title":" padded ","tags":["x","y"],"extra":true}`,
	} {
		assert.Empty(t, v.validate(schemaCreate, []byte(body)), body)
	}

	for _, body := range []string{
		`{}`,
		`{"title":"renamed"}`,
		`{"tags":["only","tags"]}`,
	} {
		assert.Empty(t, v.validate(schemaUpdate, []byte(body)), body)
	}
}

func TestValidatorRejects(t *testing.T) {
	v, err := newValidator()
	require.NoError(t, err)

	tests := []struct {
		schema string
		body   string
		field  string
	}{
		{schemaCreate, `{}`, "title"},
		{schemaCreate, `{"title":""}`, "title"},
		{schemaCreate, `{"title":"\t\n"}`, "title"},
		{schemaCreate, `{"title":["a"]}`, "title"},
		{schemaCreate, `{"title":"a","tags":{"a":1}}`, "tags"},
		{schemaUpdate, `{"title":" "}`, "title"},
		{schemaUpdate, `{"tags":null}`, "tags"},
		{schemaUpdate, `{"tags":[true]}`, "tags.0"},
		{schemaUpdate, `not json`, ""},
	}

	for _, tt := range tests {
		details := v.validate(tt.schema, []byte(tt.body))
		require.NotEmpty(t, details, "%s %s", tt.schema, tt.body)
		assert.Equal(t, tt.field, details[0].Field, "%s %s", tt.schema, tt.body)
		assert.NotEmpty(t, details[0].Message)
	}
}
