package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiClient вызывает Gemini через официальный SDK google.golang.org/genai.
type GeminiClient struct {
	client    *genai.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

// NewGeminiClient создает клиент Gemini. Без ключа клиент создается, но Chat вернет ErrMissingAPIKey.
func NewGeminiClient(ctx context.Context, apiKey, model string, timeout time.Duration, maxTokens int) (*GeminiClient, error) {
	c := &GeminiClient{model: model, maxTokens: maxTokens, timeout: timeout}
	if strings.TrimSpace(apiKey) == "" {
		return c, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	c.client = client
	return c, nil
}

// Chat отправляет сообщения в Gemini и возвращает текст ответа и сериализованный ответ SDK.
func (c *GeminiClient) Chat(ctx context.Context, messages []Message) (string, []byte, error) {
	if c.client == nil {
		return "", nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}

	system, dialog := splitSystem(messages)
	if len(dialog) == 0 {
		return "", nil, fmt.Errorf("gemini: %w", ErrNoUserContent)
	}

	contents := make([]*genai.Content, 0, len(dialog))
	for _, message := range dialog {
		role := genai.Role(genai.RoleUser)
		if message.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(message.Content, role))
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(defaultTemperature)),
		MaxOutputTokens: int32(resolveMaxTokens(c.maxTokens)),
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", nil, fmt.Errorf("gemini generation failed: %w", err)
	}

	raw, _ := json.Marshal(result)

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", raw, fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}

	return text, raw, nil
}
