package caption

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var jsonBlockRegex = regexp.MustCompile("```(?:json)?\\s*")

// cleanJSONResponse strips markdown code fences from a model response.
func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)
	s = jsonBlockRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// decodeJSONArray finds and decodes the first valid JSON array in a
// model response, tolerating prose before or after it.
func decodeJSONArray(text string, v any) error {
	text = cleanJSONResponse(text)

	for i := 0; i < len(text); i++ {
		if text[i] != '[' {
			continue
		}
		decoder := json.NewDecoder(strings.NewReader(text[i:]))
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			continue
		}
		if err := json.Unmarshal(raw, v); err == nil {
			return nil
		}
	}

	return fmt.Errorf("no valid JSON array found in response: %s", truncate(text, 200))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
