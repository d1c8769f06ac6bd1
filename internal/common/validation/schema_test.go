package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ticketSchema = `{
	"type": "object",
	"required": ["id", "requester_id"],
	"properties": {
		"id": {"type": ["integer", "string"]},
		"requester_id": {"type": ["integer", "string"]}
	}
}`

func TestSchema_Validate(t *testing.T) {
	schema := MustCompile(ticketSchema)

	tests := []struct {
		name      string
		document  string
		valid     bool
		errorPath string
	}{
		{name: "valid", document: `{"id": 1, "requester_id": "7"}`, valid: true},
		{name: "missing requester", document: `{"id": 1}`, valid: false},
		{name: "wrong type", document: `{"id": true, "requester_id": 7}`, valid: false, errorPath: "id"},
		{name: "not json", document: `{"id":`, valid: false, errorPath: "(root)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := schema.Validate([]byte(tt.document))
			assert.Equal(t, tt.valid, result.Valid)
			if !tt.valid {
				require.NotEmpty(t, result.Errors)
				if tt.errorPath != "" {
					assert.True(t, result.HasErrors(tt.errorPath), "errors: %v", result.GetErrorMessages())
				}
			}
		})
	}
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	assert.Error(t, err)
	assert.Panics(t, func() { MustCompile(`not json`) })
}
