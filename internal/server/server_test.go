package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/sme-finhealth/backend/internal/ai"
	"example.com/sme-finhealth/backend/internal/config"
)

// TestAIProviderName проверяет нормализацию имени провайдера.
func TestAIProviderName(t *testing.T) {
	assert.Equal(t, providerGroq, aiProviderName(""))
	assert.Equal(t, providerGroq, aiProviderName("openai"))
	assert.Equal(t, providerGemini, aiProviderName(" Gemini "))
	assert.Equal(t, providerClaude, aiProviderName("anthropic"))
	assert.Equal(t, providerClaude, aiProviderName("CLAUDE"))
}

// TestNewAIClientSelectsProvider проверяет выбор клиента по конфигурации.
func TestNewAIClientSelectsProvider(t *testing.T) {
	cases := map[string]any{
		"groq":   &ai.GroqClient{},
		"claude": &ai.ClaudeClient{},
		"gemini": &ai.GeminiClient{},
	}

	for provider, want := range cases {
		client, err := newAIClient(context.Background(), config.AIConfig{Provider: provider, Model: "test-model"})
		require.NoError(t, err, provider)
		assert.IsType(t, want, client, provider)
	}
}

// TestValidatorIndustry проверяет регистрацию правила industry.
func TestValidatorIndustry(t *testing.T) {
	v, err := NewValidator()
	require.NoError(t, err)

	type payload struct {
		Industry string `validate:"industry"`
	}
	assert.NoError(t, v.Validate(payload{Industry: "Manufacturing"}))
	assert.Error(t, v.Validate(payload{Industry: "Mining"}))
}
