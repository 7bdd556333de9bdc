package document

import (
	"github.com/mentonehc/hvsync/internal/domain/classify"
	"github.com/mentonehc/hvsync/internal/domain/competition"
)

// CompetitionFields builds the field map the competitions stage owns.
func CompetitionFields(c competition.Competition) Doc {
	d := Doc{
		"id":         c.ID,
		"name":       c.Name,
		"season":     c.Season,
		"type":       string(c.Type),
		"active":     c.Active,
		"source_url": c.SourceURL,
	}
	putTime(d, "last_checked", c.LastChecked)
	putTime(d, "created_at", c.CreatedAt)
	putTime(d, "updated_at", c.UpdatedAt)
	return d
}

// CompetitionFromDoc rebuilds a competition from its stored document.
func CompetitionFromDoc(id string, d Doc) competition.Competition {
	return competition.Competition{
		ID:          id,
		Name:        getString(d, "name"),
		Season:      getString(d, "season"),
		Type:        classify.Type(getString(d, "type")),
		Active:      getBool(d, "active"),
		SourceURL:   getString(d, "source_url"),
		LastChecked: getTime(d, "last_checked"),
		CreatedAt:   getTime(d, "created_at"),
		UpdatedAt:   getTime(d, "updated_at"),
	}
}
