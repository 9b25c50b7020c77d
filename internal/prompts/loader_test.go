package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	ClearCache()

	prompt, err := Get(EnrichmentFile, KeyAnalystPreamble)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Analyze the following business lead")
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	ClearCache()

	_, err := Get(EnrichmentFile, "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet_Panics(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() {
		MustGet("nonexistent.json", "some-key")
	})
}

func TestFormat_LeadInput(t *testing.T) {
	template := MustGet(EnrichmentFile, KeyLeadInput)

	out := Format(template, map[string]string{
		"BusinessName": "Joe's Pizza",
		"Category":     "Pizza restaurant",
		"Website":      "https://joespizza.example/",
		"WebsiteText":  "Contact {{.Category}} at joe@joespizza.example",
	})

	assert.Equal(t, "Business Name: Joe's Pizza\n"+
		"Category: Pizza restaurant\n"+
		"Website: https://joespizza.example/\n"+
		"Website Content Snippet: Contact {{.Category}} at joe@joespizza.example", out)
}

func TestFormat_MissingKeyLeftInPlace(t *testing.T) {
	assert.Equal(t, "Hi {{.Name}}", Format("Hi {{.Name}}", nil))
}

func TestList(t *testing.T) {
	ClearCache()

	keys, err := List(EnrichmentFile)
	require.NoError(t, err)
	assert.Equal(t, []string{KeyAnalystPreamble, KeyLeadInput}, keys)
}
