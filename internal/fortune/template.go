package fortune

import "github.com/fortuneatelier/fortune-backend/pkg/enums"

const actionChecklist = `Take a ten-minute walk every morning and notice one new thing on your route.
Clear out one drawer, folder, or inbox you have been avoiding.
Set aside one evening a week as a personal reset with no plans.
Write down three small wins before bed each night.
Reach out to one person you have been meaning to thank.
Pick one money habit to track for the whole month.`

const templateCloser = " Let go of choices that no longer fit and take one light step forward; momentum tends to follow. " +
	"Small improvements add up, and within seven to ten days you may notice a visible change. " +
	"Keep a short note of what shifts so you can see the pattern for yourself."

var introThemes = map[enums.Gender]string{
	enums.GenderFemale:      "For you, this month's theme is emotional steadiness and trusting your intuition.",
	enums.GenderMale:        "For you, this month's theme is taking on challenges and turning plans into action.",
	enums.GenderNonBinary:   "For you, this month's theme is free choice and finding your own balance.",
	enums.GenderTransgender: "For you, this month's theme is change and deepening self-acceptance.",
	enums.GenderGenderqueer: "For you, this month's theme is originality and the room it opens for new possibilities.",
}

const defaultIntroTheme = "For you, this month's theme is simply being yourself."

var templateBodies = map[string]string{
	HeadOverall: "The overall flow favors fresh perspectives. A new way of looking at familiar routines is starting to take shape, " +
		"and it rewards patience more than force.",
	HeadLove: "In relationships, warmth grows through attention rather than grand gestures. Listening closely and answering honestly " +
		"brings people closer, whether the bond is new or long-standing.",
	HeadWork: "At work, focus is your strongest asset. Choosing one task to finish well before moving on will do more than juggling " +
		"many at once, and colleagues are likely to notice the difference.",
	HeadMoney: "With money, think in terms of value and exchange. Looking at where your spending brings lasting satisfaction helps " +
		"you trim what does not, without feeling deprived.",
	HeadHealth: "For your wellbeing, rest and recovery come first. Regular sleep, gentle movement, and a few quiet minutes each day " +
		"support the energy you need for everything else. This is general guidance, not medical advice.",
}

// Template builds the deterministic fallback report. It never fails.
func Template(profile Profile) []Section {
	theme, ok := introThemes[profile.Gender]
	if !ok {
		theme = defaultIntroTheme
	}

	sections := make([]Section, 0, len(Heads))
	sections = append(sections, Section{Title: HeadIntro, Body: theme + templateCloser})
	for _, head := range Heads[1 : len(Heads)-1] {
		sections = append(sections, Section{Title: head, Body: templateBodies[head] + templateCloser})
	}
	sections = append(sections, Section{Title: HeadActions, Body: actionChecklist})
	return sections
}
