package document

import "github.com/mentonehc/hvsync/internal/domain/venue"

// VenueFields builds the venue field map. The source URL list carries the
// full merged set; backends that cannot union server-side read-merge first.
func VenueFields(v venue.Venue) Doc {
	d := Doc{
		"id":               v.ID,
		"name":             v.Name,
		"address":          v.Address,
		"field_code":       v.FieldCode,
		"map_url":          v.MapURL,
		"source_game_urls": append([]string(nil), v.SourceGameURLs...),
	}
	putTime(d, "created_at", v.CreatedAt)
	putTime(d, "updated_at", v.UpdatedAt)
	return d
}

// VenueFromDoc rebuilds a venue from its stored document.
func VenueFromDoc(id string, d Doc) venue.Venue {
	return venue.Venue{
		ID:             id,
		Name:           getString(d, "name"),
		Address:        getString(d, "address"),
		FieldCode:      getString(d, "field_code"),
		MapURL:         getString(d, "map_url"),
		SourceGameURLs: getStringSlice(d, "source_game_urls"),
		CreatedAt:      getTime(d, "created_at"),
		UpdatedAt:      getTime(d, "updated_at"),
	}
}
