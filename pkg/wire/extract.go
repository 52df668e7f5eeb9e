package wire

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON digs a JSON object out of free-form model output. Markdown
// code fences are stripped, then the outermost brace pair is taken.
// Anything the model wrote around the object is discarded.
func ExtractJSON(text string) (string, error) {
	cleaned := strings.TrimSpace(text)

	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		// Drop the info string (e.g. "json") on the opening fence line.
		if idx := strings.IndexByte(cleaned, '\n'); idx >= 0 {
			cleaned = cleaned[idx+1:]
		}
		if idx := strings.LastIndex(cleaned, "```"); idx >= 0 {
			cleaned = cleaned[:idx]
		}
		cleaned = strings.TrimSpace(cleaned)
	}

	start := strings.IndexByte(cleaned, '{')
	end := strings.LastIndexByte(cleaned, '}')
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return cleaned[start : end+1], nil
}

// ParseObject extracts and decodes a JSON object from model output.
func ParseObject(text string) (map[string]any, error) {
	extracted, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}
	var v map[string]any
	if err := json.Unmarshal([]byte(extracted), &v); err != nil {
		return nil, fmt.Errorf("parse JSON response: %w", err)
	}
	return v, nil
}
