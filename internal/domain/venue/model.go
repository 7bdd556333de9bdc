package venue

import (
	"strings"
	"time"
)

const maxSlugLen = 50

// Venue is a ground referenced by game pages, keyed by a slug of its name
// and first address line. SourceGameURLs records where the venue was seen so
// bad address parses can be traced back.
type Venue struct {
	ID             string
	Name           string
	Address        string
	FieldCode      string
	MapURL         string
	SourceGameURLs []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AddSource records a game URL unless it is already listed.
func (v *Venue) AddSource(url string) {
	for _, existing := range v.SourceGameURLs {
		if existing == url {
			return
		}
	}
	v.SourceGameURLs = append(v.SourceGameURLs, url)
}

// Slug derives the venue key: the uppercased alphanumerics of the name,
// an underscore, then the uppercased alphanumerics of the first address
// segment, trimmed to 50 characters.
func Slug(name, address string) string {
	first := address
	if i := strings.IndexByte(address, ','); i >= 0 {
		first = address[:i]
	}

	slug := alnumUpper(name)
	if seg := alnumUpper(first); seg != "" {
		slug += "_" + seg
	}
	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
	}
	if slug == "" {
		return "UNKNOWN"
	}

	return slug
}

func alnumUpper(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	return b.String()
}
