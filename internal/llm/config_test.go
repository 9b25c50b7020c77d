package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, ProviderGemini, config.Provider)
	assert.Equal(t, "gemini-2.5-flash-lite", config.GetModel(TierLite))
	assert.Equal(t, "gemini-2.5-flash", config.GetModel(TierStandard))
	assert.Equal(t, "gemini-2.5-pro", config.GetModel(TierAdvanced))
	assert.InDelta(t, DefaultTemperature, config.Temperature, 1e-6)
	assert.Nil(t, config.Schema)
}

func TestGetModel_Fallback(t *testing.T) {
	config := &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite: "fallback-model",
		},
	}

	// Unknown tier should fallback to TierStandard, then TierLite
	assert.Equal(t, "fallback-model", config.GetModel("unknown"))
}

func TestGetModel_EmptyConfig(t *testing.T) {
	config := &Config{
		Provider: ProviderGemini,
		Models:   map[ModelTier]string{},
	}

	assert.Equal(t, "", config.GetModel(TierAdvanced))
}

func TestWithModel(t *testing.T) {
	config := DefaultConfig()
	newConfig := config.WithModel(TierStandard, "gemini-2.0-flash")

	// Original should be unchanged
	assert.Equal(t, "gemini-2.5-flash", config.GetModel(TierStandard))
	assert.Equal(t, "gemini-2.0-flash", newConfig.GetModel(TierStandard))
	assert.Equal(t, "gemini-2.5-flash-lite", newConfig.GetModel(TierLite))
}

func TestWithSchema(t *testing.T) {
	config := DefaultConfig()
	withSchema := config.WithSchema(LeadAnalysisSchema("Analyze the lead."))

	assert.Nil(t, config.Schema)
	require.NotNil(t, withSchema.Schema)
	assert.Equal(t, "LeadAnalysis", withSchema.Schema.Name)
	assert.Equal(t, config.GetModel(TierAdvanced), withSchema.GetModel(TierAdvanced))
}

func TestParseModelTier(t *testing.T) {
	assert.Equal(t, TierLite, ParseModelTier("lite"))
	assert.Equal(t, TierAdvanced, ParseModelTier("advanced"))
	assert.Equal(t, TierStandard, ParseModelTier("standard"))
	assert.Equal(t, TierStandard, ParseModelTier(""))
	assert.Equal(t, TierStandard, ParseModelTier("turbo"))
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient(t.Context(), nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestNewClient_UnsupportedProvider(t *testing.T) {
	_, err := NewClient(t.Context(), &Config{Provider: "openai"}, "key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai")
}
