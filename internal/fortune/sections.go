package fortune

import "github.com/fortuneatelier/fortune-backend/pkg/enums"

// Section is one titled block of the report.
type Section struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

const (
	HeadIntro   = "Intro"
	HeadOverall = "Overall"
	HeadLove    = "Love"
	HeadWork    = "Work"
	HeadMoney   = "Money"
	HeadHealth  = "Health"
	HeadActions = "Monthly Actions"
)

// Heads is the fixed section order of every report.
var Heads = []string{HeadIntro, HeadOverall, HeadLove, HeadWork, HeadMoney, HeadHealth, HeadActions}

// Source records where the section text came from.
type Source string

const (
	SourceAI       Source = "ai"
	SourceTemplate Source = "template"
)

// Profile holds the requester attributes the text is written for.
// Every field may be empty.
type Profile struct {
	Name      string
	Gender    enums.Gender
	Birthdate string
}

type Result struct {
	Sections []Section
	Source   Source
}
