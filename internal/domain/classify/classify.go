package classify

import "strings"

// Type buckets a competition or grade by the kind of hockey played in it.
type Type string

const (
	TypeSenior  Type = "Senior"
	TypeJunior  Type = "Junior"
	TypeMidweek Type = "Midweek"
	TypeIndoor  Type = "Indoor"
	TypeOutdoor Type = "Outdoor"
	TypeSocial  Type = "Social/Other"
)

type Gender string

const (
	GenderMen     Gender = "Men"
	GenderWomen   Gender = "Women"
	GenderMixed   Gender = "Mixed"
	GenderUnknown Gender = "Unknown"
)

var ageBrackets = []string{"35+", "40+", "45+", "50+", "60+", "70+"}

var juniorBrackets = []string{
	"u8", "u9", "u10", "u11", "u12", "u13", "u14",
	"u15", "u16", "u17", "u18", "u19",
}

// Classify derives (type, gender) from a free-text grade or competition name.
// The decision order matters: masters and age-bracket tokens outrank junior
// tokens, and women tokens are checked before men because "women" contains
// "men" as a substring.
func Classify(name string) (Type, Gender) {
	t := TeamType(name)
	return t, genderFor(name, t)
}

// TeamType resolves only the type component.
func TeamType(name string) Type {
	n := strings.ToLower(name)

	if strings.Contains(n, "midweek") || strings.Contains(n, "masters") || containsAny(n, ageBrackets) {
		return TypeMidweek
	}
	if strings.Contains(n, "junior") || containsAny(n, juniorBrackets) {
		return TypeJunior
	}
	if containsAny(n, []string{"senior", "pennant", "vic league", "premier league", "metro"}) {
		return TypeSenior
	}
	if strings.Contains(n, "indoor") {
		return TypeIndoor
	}
	if strings.Contains(n, "outdoor") {
		return TypeOutdoor
	}
	if containsAny(n, []string{"social", "summer", "vaisakhi", "cup"}) {
		return TypeSocial
	}

	return TypeSenior
}

func genderFor(name string, t Type) Gender {
	n := strings.ToLower(name)

	switch {
	case containsAny(n, []string{"women", "girls", "ladies"}):
		return GenderWomen
	case strings.Contains(n, "men") || strings.Contains(n, "boys"):
		return GenderMen
	case strings.Contains(n, "mixed"):
		return GenderMixed
	}

	switch t {
	case TypeJunior:
		return GenderMixed
	case TypeMidweek, TypeSenior:
		return GenderMen
	default:
		return GenderUnknown
	}
}

func containsAny(s string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(s, token) {
			return true
		}
	}
	return false
}
