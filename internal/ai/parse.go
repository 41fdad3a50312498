package ai

import (
	"encoding/json"
	"errors"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
)

var errNoJSONArray = errors.New("ai response does not contain a json array")

// parseJSONArray вырезает JSON-массив из ответа модели (в том числе из ```json блока)
// и, если он не разбирается как есть, пробует починить его через json-repair.
func parseJSONArray(input string, target any) error {
	payload := extractJSONArray(input)
	if payload == "" {
		return errNoJSONArray
	}

	if err := json.Unmarshal([]byte(payload), target); err == nil {
		return nil
	}

	repaired, err := jsonrepair.RepairJSON(payload)
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(repaired), target)
}

func extractJSONArray(input string) string {
	trimmed := stripCodeFence(input)

	start := strings.Index(trimmed, "[")
	end := strings.LastIndex(trimmed, "]")
	if start == -1 || end == -1 || end <= start {
		return ""
	}

	return trimmed[start : end+1]
}

// stripCodeFence снимает внешний markdown-блок ``` (с необязательной меткой языка).
func stripCodeFence(input string) string {
	trimmed := strings.TrimSpace(input)
	start := strings.Index(trimmed, "```")
	if start == -1 {
		return trimmed
	}

	body := trimmed[start+3:]
	if newline := strings.IndexByte(body, '\n'); newline != -1 && !strings.ContainsAny(body[:newline], "[{") {
		body = body[newline+1:]
	}
	if end := strings.LastIndex(body, "```"); end != -1 {
		body = body[:end]
	}

	return strings.TrimSpace(body)
}

// truncateRunes обрезает строку по символам, а не байтам: ответы на хинди многобайтовые.
func truncateRunes(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}
