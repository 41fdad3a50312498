package ai

import (
	"fmt"
	"strings"
)

type Language string

const (
	LanguageEnglish Language = "en"
	LanguageHindi   Language = "hi"
)

// ParseLanguage принимает en или hi; пустая строка означает en.
func ParseLanguage(value string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(value))) {
	case "", LanguageEnglish:
		return LanguageEnglish, nil
	case LanguageHindi:
		return LanguageHindi, nil
	default:
		return "", fmt.Errorf("unsupported language %q", value)
	}
}

// Name возвращает название языка для подсказки модели.
func (l Language) Name() string {
	if l == LanguageHindi {
		return "Hindi"
	}
	return "English"
}

func (l Language) instruction() string {
	if l == LanguageHindi {
		return "Respond in Hindi (Devanagari script).\n\n"
	}
	return ""
}
