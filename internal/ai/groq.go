package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// GroqClient ходит в OpenAI-совместимый chat completions API Groq.
type GroqClient struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
}

type groqChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type groqChatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewGroqClient создает клиент Groq.
func NewGroqClient(apiKey, baseURL, model string, timeout time.Duration, maxTokens int) *GroqClient {
	return &GroqClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		maxTokens:  maxTokens,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Chat отправляет сообщения в Groq и возвращает текст ответа и сырой ответ API.
func (c *GroqClient) Chat(ctx context.Context, messages []Message) (string, []byte, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return "", nil, fmt.Errorf("groq: %w", ErrMissingAPIKey)
	}

	system, dialog := splitSystem(messages)
	if len(dialog) == 0 {
		return "", nil, fmt.Errorf("groq: %w", ErrNoUserContent)
	}

	wire := make([]Message, 0, len(dialog)+1)
	if system != "" {
		wire = append(wire, Message{Role: RoleSystem, Content: system})
	}
	wire = append(wire, dialog...)

	payload, err := json.Marshal(groqChatRequest{
		Model:       c.model,
		Messages:    wire,
		Temperature: defaultTemperature,
		MaxTokens:   resolveMaxTokens(c.maxTokens),
	})
	if err != nil {
		return "", nil, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", nil, err
	}
	request.Header.Set("Authorization", "Bearer "+c.apiKey)
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return "", nil, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return "", nil, err
	}

	var parsed groqChatResponse
	decodeErr := json.Unmarshal(body, &parsed)

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		if decodeErr == nil && parsed.Error != nil {
			return "", body, fmt.Errorf("groq api error (%d): %s", response.StatusCode, parsed.Error.Message)
		}
		return "", body, fmt.Errorf("groq api error (%d): %s", response.StatusCode, strings.TrimSpace(string(body)))
	}

	if decodeErr != nil {
		return "", body, fmt.Errorf("decode groq response: %w", decodeErr)
	}

	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", body, fmt.Errorf("groq: %w", ErrEmptyResponse)
	}

	return parsed.Choices[0].Message.Content, body, nil
}
