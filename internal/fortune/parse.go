package fortune

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

const (
	minBodyRunes    = 40
	minViableBodies = 4
)

// parseSections decodes a generator response into the canonical section
// order. It reports false when the payload is not usable.
func parseSections(raw string) ([]Section, bool) {
	var decoded any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &decoded); err != nil {
		return nil, false
	}

	var elements []any
	switch v := decoded.(type) {
	case []any:
		elements = v
	case map[string]any:
		list, ok := v["sections"].([]any)
		if !ok {
			return nil, false
		}
		elements = list
	default:
		return nil, false
	}

	byTitle := make(map[string]string, len(elements))
	for _, el := range elements {
		obj, ok := el.(map[string]any)
		if !ok {
			continue
		}
		title, okTitle := obj["title"].(string)
		body, okBody := obj["body"].(string)
		if !okTitle || !okBody {
			continue
		}
		byTitle[strings.TrimSpace(title)] = body
	}

	sections := make([]Section, len(Heads))
	viable := 0
	for i, head := range Heads {
		body := byTitle[head]
		sections[i] = Section{Title: head, Body: body}
		if utf8.RuneCountInString(strings.TrimSpace(body)) > minBodyRunes {
			viable++
		}
	}
	if viable < minViableBodies {
		return nil, false
	}
	return sections, true
}

// extractBracketed returns the span from the first '[' to the last ']'.
func extractBracketed(raw string) (string, bool) {
	start := strings.IndexByte(raw, '[')
	end := strings.LastIndexByte(raw, ']')
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}
