package report

type rgb struct{ r, g, b int }

var (
	colorBandStart = rgb{0xff, 0xf1, 0xf2}
	colorBandEnd   = rgb{0xf5, 0xf3, 0xff}
	colorCard      = rgb{0xff, 0xff, 0xff}
	colorTitle     = rgb{0x8b, 0x5c, 0xf6}
	colorHeading   = rgb{0xec, 0x48, 0x99}
	colorRule      = rgb{0xf9, 0xa8, 0xd4}
	colorBody      = rgb{0x37, 0x41, 0x51}
	colorMeta      = rgb{0x6b, 0x72, 0x80}
)

// Page geometry in points on A4.
const (
	pageMargin    = 48.0
	cardInset     = 36.0
	cardRadius    = 16.0
	cardOpacity   = 0.92
	footerOffset  = 40.0
	footerReserve = 24.0

	titleSize      = 22.0
	subtitleSize   = 13.0
	metaSize       = 11.0
	headingSize    = 15.0
	bodySize       = 12.0
	footerSize     = 9.0
	disclaimerSize = 10.0

	bodyLineHeight = 18.0
	metaLineHeight = 17.0
	paragraphGap   = 10.0

	// A paragraph is moved to a fresh page when less than this much room is left.
	headingBlock    = 40.0
	minBodyAllowed  = 3 * bodyLineHeight
	paragraphBudget = headingBlock + minBodyAllowed
)

const (
	reportSubtitle = "A personal reading for the month ahead"
	disclaimerText = "This report is a general reading for entertainment purposes. " +
		"It does not provide medical, legal, or investment advice."
	timestampLayout = "2006-01-02 15:04"
)
