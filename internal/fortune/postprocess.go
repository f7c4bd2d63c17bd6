package fortune

import (
	"regexp"
	"strings"
)

const (
	bulletGlyph    = "• "
	maxActionItems = 6
)

var (
	excessBlankLines = regexp.MustCompile(`\n(?:[ \t]*\n){2,}`)
	bulletMarker     = regexp.MustCompile(`^\s*(?:(?:[-*•・●]|\d+[.)])\s*)+`)
)

func normalizeBody(body string) string {
	body = strings.ReplaceAll(body, "\r", "")
	body = excessBlankLines.ReplaceAllString(body, "\n\n")
	return strings.TrimSpace(body)
}

// bulletize rewrites a body as at most six "• " lines.
func bulletize(body string) string {
	items := make([]string, 0, maxActionItems)
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(bulletMarker.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		items = append(items, bulletGlyph+line)
		if len(items) == maxActionItems {
			break
		}
	}
	return strings.Join(items, "\n")
}

func postProcess(sections []Section) []Section {
	out := make([]Section, len(sections))
	last := len(sections) - 1
	for i, s := range sections {
		body := normalizeBody(s.Body)
		if i == last {
			body = bulletize(body)
			if body == "" {
				body = bulletize(actionChecklist)
			}
		}
		out[i] = Section{Title: s.Title, Body: body}
	}
	return out
}
