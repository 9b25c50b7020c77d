package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEnrichment_Valid(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"all fields", `{"seo_health": 6, "missing_features": "no booking system", "outreach_message": "Hi Joe.", "email": "joe@joes.example", "contact_person": "Joe"}`},
		{"null contacts", `{"seo_health": 0, "missing_features": "no website", "outreach_message": "Hi.", "email": null, "contact_person": null}`},
		{"contacts omitted", `{"seo_health": 3, "missing_features": "", "outreach_message": ""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, ValidateEnrichment(tt.json))
		})
	}
}

func TestValidateEnrichment_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		json  string
		field string
	}{
		{"missing outreach", `{"seo_health": 5, "missing_features": "x"}`, "(root)"},
		{"string score", `{"seo_health": "high", "missing_features": "x", "outreach_message": "y"}`, "seo_health"},
		{"array features", `{"seo_health": 5, "missing_features": ["a"], "outreach_message": "y"}`, "missing_features"},
		{"numeric email", `{"seo_health": 5, "missing_features": "x", "outreach_message": "y", "email": 7}`, "email"},
		{"not an object", `[1, 2]`, "(root)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEnrichment(tt.json)
			require.Error(t, err)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			require.NotEmpty(t, validationErr.Errors)
			assert.Equal(t, tt.field, validationErr.Errors[0].Field)
		})
	}
}

func TestValidateEnrichment_Malformed(t *testing.T) {
	err := ValidateEnrichment(`{"seo_health": 5,`)
	require.Error(t, err)

	var loadErr *SchemaLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestValidateJSONString(t *testing.T) {
	schema := `{"type": "object", "required": ["name"]}`

	assert.NoError(t, ValidateJSONString(schema, `{"name": "x"}`))

	err := ValidateJSONString(schema, `{}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}
