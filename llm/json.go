package llm

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var (
	ErrNoJSON = errors.New("no JSON found in response")

	fencePattern = regexp.MustCompile("```(?:json|JSON)?")
)

// DecodeJSON extracts the JSON payload from a model response and decodes it into v.
// Models wrap JSON in markdown fences or prose; the first decodable object wins,
// and a bare array is decoded as {"clauses": [...]}.
func DecodeJSON(raw string, v any) error {
	cleaned := cleanResponse(raw)
	if cleaned == "" {
		return ErrNoJSON
	}

	if err := json.Unmarshal([]byte(cleaned), v); err == nil {
		return nil
	}

	if start, end := strings.Index(cleaned, "{"), strings.LastIndex(cleaned, "}"); start >= 0 && end > start {
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), v); err == nil {
			return nil
		}
	}

	if start, end := strings.Index(cleaned, "["), strings.LastIndex(cleaned, "]"); start >= 0 && end > start {
		wrapped := `{"clauses": ` + cleaned[start:end+1] + `}`
		if err := json.Unmarshal([]byte(wrapped), v); err == nil {
			return nil
		}
	}

	// Last resort: the first flat object that decodes on its own
	for i := 0; i < len(cleaned); i++ {
		if cleaned[i] != '{' {
			continue
		}
		end := strings.Index(cleaned[i:], "}")
		if end < 0 {
			break
		}
		if err := json.Unmarshal([]byte(cleaned[i:i+end+1]), v); err == nil {
			return nil
		}
	}

	return ErrNoJSON
}

func cleanResponse(raw string) string {
	raw = fencePattern.ReplaceAllString(raw, "")
	raw = strings.NewReplacer("“", `"`, "”", `"`).Replace(raw)
	return strings.TrimSpace(raw)
}
