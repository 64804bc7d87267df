package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripCodeFences removes a markdown code fence wrapping an oracle answer
func StripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	endIdx := len(lines)
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			endIdx = i
			break
		}
	}
	if endIdx <= 1 {
		// Single-line fence such as ```{"a":1}```
		return strings.TrimSpace(strings.Trim(strings.TrimPrefix(text, "```json"), "`"))
	}
	return strings.TrimSpace(strings.Join(lines[1:endIdx], "\n"))
}

// DecodeObject parses an oracle answer into a provisional untyped object.
// Code fences are stripped first; if the answer still carries prose around
// the object, the outermost braces are tried before giving up.
func DecodeObject(text string) (map[string]any, error) {
	text = StripCodeFences(text)
	if text == "" {
		return nil, fmt.Errorf("empty response")
	}

	var obj map[string]any
	err := json.Unmarshal([]byte(text), &obj)
	if err == nil {
		if obj == nil {
			return nil, fmt.Errorf("response is not a JSON object")
		}
		return obj, nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if err2 := json.Unmarshal([]byte(text[start:end+1]), &obj); err2 == nil && obj != nil {
			return obj, nil
		}
	}

	return nil, fmt.Errorf("parse JSON response: %w", err)
}
