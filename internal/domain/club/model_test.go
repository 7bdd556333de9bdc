package club

import "testing"

func TestSlug(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Mentone Hockey Club", "mentone"},
		{"MENTONE", "mentone"},
		{"Footscray Hockey Club", "footscray_hockey_club"},
		{"Old Xaverians' HC", "old_xaverians_hc"},
		{"  Camberwell  ", "camberwell"},
		{"TEM / Monash", "tem_monash"},
		{"---", "club"},
	}
	for _, tc := range cases {
		if got := Slug(tc.name); got != tc.want {
			t.Fatalf("Slug(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestIsHomeClubName(t *testing.T) {
	if !IsHomeClubName("Mentone - Men's Pennant B") {
		t.Fatal("expected home club match")
	}
	if !IsHomeClubName("MENTONE HOCKEY CLUB") {
		t.Fatal("expected case-insensitive match")
	}
	if IsHomeClubName("Melbourne University") {
		t.Fatal("unexpected home club match")
	}
}

func TestShortNameFor(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Footscray Hockey Club", "Footscray"},
		{"Altona HC", "Altona"},
		{"Doncaster", "Doncaster"},
	}
	for _, tc := range cases {
		if got := ShortNameFor(tc.name); got != tc.want {
			t.Fatalf("ShortNameFor(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
