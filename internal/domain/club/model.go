package club

import (
	"strings"
	"time"
)

// HomeClubKeyword identifies the focus club in scraped team names,
// case-insensitively.
const HomeClubKeyword = "mentone"

// HomeClubSlug is the reserved document key for the focus club.
const HomeClubSlug = "mentone"

// Club groups teams under one organisation. Scraping only ever writes the
// name, short name, and flags; colours and the home-venue hint belong to the
// dashboard and survive merge-upserts untouched.
type Club struct {
	ID         string
	Name       string
	ShortName  string
	Colors     []string
	HomeVenue  string
	IsHomeClub bool
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsHomeClubName reports whether a team or club name belongs to the focus
// club.
func IsHomeClubName(name string) bool {
	return strings.Contains(strings.ToLower(name), HomeClubKeyword)
}

// Slug derives the document key from a club display name: lowercase, spaces
// and punctuation collapsed to single underscores.
func Slug(name string) string {
	if IsHomeClubName(name) {
		return HomeClubSlug
	}

	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}
	if b.Len() == 0 {
		return "club"
	}

	return b.String()
}

// ShortNameFor strips the trailing organisation suffix from a club name, so
// "Footscray Hockey Club" reads "Footscray" on the dashboard.
func ShortNameFor(name string) string {
	short := strings.TrimSpace(name)
	for _, suffix := range []string{" Hockey Club", " hockey club", " HC"} {
		short = strings.TrimSuffix(short, suffix)
	}
	if short == "" {
		return name
	}

	return short
}
