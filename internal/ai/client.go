package ai

import (
	"context"
	"errors"
	"strings"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"

	defaultMaxTokens   = 2048
	defaultTemperature = 0.3
)

var (
	ErrMissingAPIKey = errors.New("ai api key is missing")
	ErrEmptyResponse = errors.New("ai response is empty")
	ErrNoUserContent = errors.New("ai request has no user content")
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client описывает провайдера языковой модели. Возвращает текст ответа и сырой ответ API для журнала.
type Client interface {
	Chat(ctx context.Context, messages []Message) (string, []byte, error)
}

func resolveMaxTokens(value int) int {
	if value > 0 {
		return value
	}

	return defaultMaxTokens
}

// splitSystem отделяет системные сообщения от диалога; пустые сообщения отбрасываются.
func splitSystem(messages []Message) (string, []Message) {
	systemParts := make([]string, 0, 1)
	dialog := make([]Message, 0, len(messages))

	for _, message := range messages {
		text := strings.TrimSpace(message.Content)
		if text == "" {
			continue
		}

		switch strings.ToLower(strings.TrimSpace(message.Role)) {
		case RoleSystem:
			systemParts = append(systemParts, text)
		case RoleAssistant, "model":
			dialog = append(dialog, Message{Role: RoleAssistant, Content: text})
		default:
			dialog = append(dialog, Message{Role: RoleUser, Content: text})
		}
	}

	return strings.Join(systemParts, "\n\n"), dialog
}
