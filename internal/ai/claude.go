package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ClaudeClient вызывает Anthropic Messages API.
type ClaudeClient struct {
	client    anthropic.Client
	apiKey    string
	model     string
	maxTokens int
	timeout   time.Duration
}

// NewClaudeClient создает клиент Claude.
func NewClaudeClient(apiKey, model string, timeout time.Duration, maxTokens int) *ClaudeClient {
	return &ClaudeClient{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
		timeout:   timeout,
	}
}

// Chat отправляет сообщения в Claude и возвращает текст ответа и сырой JSON ответа.
func (c *ClaudeClient) Chat(ctx context.Context, messages []Message) (string, []byte, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return "", nil, fmt.Errorf("claude: %w", ErrMissingAPIKey)
	}

	system, dialog := splitSystem(messages)
	if len(dialog) == 0 {
		return "", nil, fmt.Errorf("claude: %w", ErrNoUserContent)
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(resolveMaxTokens(c.maxTokens)),
		Messages:    toClaudeMessages(dialog),
		Temperature: anthropic.Float(defaultTemperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", nil, fmt.Errorf("claude api call failed: %w", err)
	}

	raw := []byte(resp.RawJSON())

	var builder strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			builder.WriteString(block.Text)
		}
	}

	if strings.TrimSpace(builder.String()) == "" {
		return "", raw, fmt.Errorf("claude: %w", ErrEmptyResponse)
	}

	return builder.String(), raw, nil
}

func toClaudeMessages(dialog []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(dialog))
	for _, message := range dialog {
		block := anthropic.NewTextBlock(message.Content)
		if message.Role == RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(block))
			continue
		}
		out = append(out, anthropic.NewUserMessage(block))
	}
	return out
}
