package venue

import (
	"strings"
	"testing"
)

func TestSlug(t *testing.T) {
	cases := []struct {
		name    string
		address string
		want    string
	}{
		{"Mentone Grammar Playing Fields", "Keysborough VIC 3173, Australia", "MENTONEGRAMMARPLAYINGFIELDS_KEYSBOROUGHVIC3173"},
		{"State Netball & Hockey Centre", "10 Brens Dr, Parkville", "STATENETBALLHOCKEYCENTRE_10BRENSDR"},
		{"Footscray", "", "FOOTSCRAY"},
		{"", "", "UNKNOWN"},
	}
	for _, tc := range cases {
		if got := Slug(tc.name, tc.address); got != tc.want {
			t.Fatalf("Slug(%q, %q) = %q, want %q", tc.name, tc.address, got, tc.want)
		}
	}
}

func TestSlugTrimmedTo50(t *testing.T) {
	long := strings.Repeat("Hockey ", 20)
	got := Slug(long, "Somewhere Rd, Melbourne")
	if len(got) != 50 {
		t.Fatalf("expected 50 characters, got %d (%q)", len(got), got)
	}
}

func TestAddSourceDeduplicates(t *testing.T) {
	v := Venue{}
	v.AddSource("https://www.hockeyvictoria.org.au/game/2048530")
	v.AddSource("https://www.hockeyvictoria.org.au/game/2048530")
	v.AddSource("https://www.hockeyvictoria.org.au/game/2048531")

	if len(v.SourceGameURLs) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(v.SourceGameURLs))
	}
}
