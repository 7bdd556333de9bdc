package document

import "github.com/mentonehc/hvsync/internal/domain/club"

// ClubFields builds the field map the teams stage owns on a club. Colours
// and the home-venue hint are dashboard-owned and deliberately absent, so a
// merge-upsert can never blank them.
func ClubFields(c club.Club) Doc {
	d := Doc{
		"id":           c.ID,
		"name":         c.Name,
		"short_name":   c.ShortName,
		"is_home_club": c.IsHomeClub,
		"active":       c.Active,
	}
	putTime(d, "created_at", c.CreatedAt)
	putTime(d, "updated_at", c.UpdatedAt)
	return d
}

// ClubFromDoc rebuilds a club from its stored document, including the
// dashboard-owned fields.
func ClubFromDoc(id string, d Doc) club.Club {
	return club.Club{
		ID:         id,
		Name:       getString(d, "name"),
		ShortName:  getString(d, "short_name"),
		Colors:     getStringSlice(d, "colors"),
		HomeVenue:  getString(d, "home_venue"),
		IsHomeClub: getBool(d, "is_home_club"),
		Active:     getBool(d, "active"),
		CreatedAt:  getTime(d, "created_at"),
		UpdatedAt:  getTime(d, "updated_at"),
	}
}
