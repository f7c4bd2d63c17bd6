package fortune

import (
	"fmt"
	"strings"
)

const maxProfileRunes = 64

var systemPrompt = strings.Join([]string{
	"You are a calm, gentle fortune writer who avoids definitive claims.",
	"Each section body should be roughly 350 to 550 characters.",
	"Do not repeat content across sections and include at least one concrete, practical action hint in every section.",
	"Never give medical, legal, or investment advice with certainty; keep a reassuring tone.",
	"Keep the rhythm natural and use metaphors sparingly.",
	`The final section "Monthly Actions" must be a bulleted list of 5 to 6 items, each one or two lines.`,
	`Respond with a JSON array only, in the form [{"title":"...","body":"..."}]. No prose before or after it and no code fences.`,
}, " ")

func userPrompt(p Profile) string {
	return fmt.Sprintf(`Requester:
- Name: %s
- Gender: %s
- Birthdate: %s

Output requirements:
- Section titles in this exact order: %s
- Return a JSON array: [{"title":"%s","body":"..."}, ...]
- Plain English, no emoji or heavy decoration.
`,
		promptValue(p.Name),
		promptValue(p.Gender.String()),
		promptValue(p.Birthdate),
		strings.Join(Heads, ", "),
		HeadIntro,
	)
}

// promptValue caps requester input before it reaches the upstream model.
func promptValue(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unset"
	}
	runes := []rune(v)
	if len(runes) > maxProfileRunes {
		v = string(runes[:maxProfileRunes])
	}
	return v
}
