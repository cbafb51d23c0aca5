package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseStructured decodes a model reply into target, tolerating code fences
// and prose around the JSON object.
func ParseStructured(content string, target interface{}) error {
	cleaned := extractJSON(content)
	if cleaned == "" {
		return fmt.Errorf("llm: no JSON object found in response")
	}
	if err := json.Unmarshal([]byte(cleaned), target); err != nil {
		return fmt.Errorf("llm: decode structured response: %w", err)
	}
	return nil
}

// extractJSON strips markdown fences and slices out the outermost JSON
// object or array.
func extractJSON(content string) string {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return ""
	}
	var closer byte = '}'
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return ""
	}
	return s[start : end+1]
}
