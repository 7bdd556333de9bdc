package hockeyvictoria

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var (
	reSignedInt = regexp.MustCompile(`-?\d+`)
	reScorePair = regexp.MustCompile(`(\d+)\s*[-–]\s*(\d+)`)

	// "Sat 26 Apr 2025 12:00"; the weekday is ignored and the month may be
	// spelled out in full.
	reDateToken = regexp.MustCompile(`(\d{1,2})\s+(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+(\d{4})\s+(\d{1,2}:\d{2})`)
)

const localDateLayout = "2 Jan 2006 15:04"

// cleanText collapses runs of whitespace, including non-breaking spaces, into
// single spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, " ", " ")), " ")
}

// parseIntText extracts the first signed integer from s. The source renders
// negative goal differences with either '-' or the Unicode minus sign.
func parseIntText(s string) (int, bool) {
	s = strings.ReplaceAll(s, "−", "-")
	match := reSignedInt.FindString(s)
	if match == "" {
		return 0, false
	}
	v, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseScorePair extracts "H - A" from s. Both hyphen and en dash appear as
// separators.
func parseScorePair(s string) (home, away int, ok bool) {
	m := reScorePair.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	home, _ = strconv.Atoi(m[1])
	away, _ = strconv.Atoi(m[2])
	return home, away, true
}

// parseLocalDateTime finds a "DD Mon YYYY HH:MM" token in text, interprets it
// in loc, and returns the instant in UTC.
func parseLocalDateTime(text string, loc *time.Location) (time.Time, bool) {
	m := reDateToken.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	value := m[1] + " " + m[2] + " " + m[3] + " " + m[4]
	t, err := time.ParseInLocation(localDateLayout, value, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// flattenedText returns the selection's text with <br> breaks rendered as
// spaces. Round cards stack the date and time on separate lines, which plain
// Text() would glue together.
func flattenedText(sel *goquery.Selection) string {
	sel.Find("br").Each(func(_ int, br *goquery.Selection) {
		br.ReplaceWithHtml(" ")
	})
	return cleanText(sel.Text())
}

// snippet truncates a fragment for log output.
func snippet(s string) string {
	s = cleanText(s)
	if len(s) > 160 {
		return s[:160]
	}
	return s
}
