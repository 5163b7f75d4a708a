package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSONObject pulls the first JSON object out of a model completion.
// Models wrap answers in prose or markdown fences more often than not, so we
// cut from the first '{' to the last '}' before unmarshaling.
func ExtractJSONObject(content string, target any) error {
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return fmt.Errorf("no JSON object in model response")
	}

	if err := json.Unmarshal([]byte(content[start:end+1]), target); err != nil {
		return fmt.Errorf("failed to parse model response: %w", err)
	}
	return nil
}
