package enums

import "fmt"

// Gender is the self-described gender submitted with an order.
type Gender string

const (
	GenderFemale      Gender = "female"
	GenderMale        Gender = "male"
	GenderNonBinary   Gender = "non-binary"
	GenderTransgender Gender = "transgender"
	GenderGenderqueer Gender = "genderqueer"
	GenderPreferNot   Gender = "prefer-not"
)

var genderLabels = map[Gender]string{
	GenderFemale:      "Female",
	GenderMale:        "Male",
	GenderNonBinary:   "Non-binary",
	GenderTransgender: "Transgender",
	GenderGenderqueer: "Genderqueer",
	GenderPreferNot:   "Prefer not to say",
}

var validGenders = []Gender{
	GenderFemale,
	GenderMale,
	GenderNonBinary,
	GenderTransgender,
	GenderGenderqueer,
	GenderPreferNot,
}

func (g Gender) String() string {
	return string(g)
}

func (g Gender) IsValid() bool {
	_, ok := genderLabels[g]
	return ok
}

// Label returns the display label used in reports; unknown values read "Not set".
func (g Gender) Label() string {
	if label, ok := genderLabels[g]; ok {
		return label
	}
	return "Not set"
}

// ParseGender converts raw input into a Gender.
func ParseGender(value string) (Gender, error) {
	for _, candidate := range validGenders {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid gender %q", value)
}
