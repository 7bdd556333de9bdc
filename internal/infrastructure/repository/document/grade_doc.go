package document

import (
	"time"

	"github.com/mentonehc/hvsync/internal/domain/classify"
	"github.com/mentonehc/hvsync/internal/domain/grade"
)

// GradeFields builds the field map the competitions stage owns. The
// last_checked stamp belongs to the teams stage and is written through
// GradeCheckedFields only.
func GradeFields(g grade.Grade) Doc {
	d := Doc{
		"id":              g.ID,
		"competition_id":  g.CompetitionID,
		"competition_ref": g.CompetitionRef(),
		"name":            g.Name,
		"season":          g.Season,
		"type":            string(g.Type),
		"gender":          string(g.Gender),
		"url":             g.URL,
		"active":          g.Active,
	}
	putTime(d, "created_at", g.CreatedAt)
	putTime(d, "updated_at", g.UpdatedAt)
	return d
}

// GradeCheckedFields is the single-field map for stamping a team scan.
func GradeCheckedFields(at time.Time) Doc {
	return Doc{"last_checked": at.UTC()}
}

// GradeFromDoc rebuilds a grade from its stored document.
func GradeFromDoc(id string, d Doc) grade.Grade {
	return grade.Grade{
		ID:            id,
		CompetitionID: getString(d, "competition_id"),
		Name:          getString(d, "name"),
		Season:        getString(d, "season"),
		Type:          classify.Type(getString(d, "type")),
		Gender:        classify.Gender(getString(d, "gender")),
		URL:           getString(d, "url"),
		Active:        getBool(d, "active"),
		LastChecked:   getTime(d, "last_checked"),
		CreatedAt:     getTime(d, "created_at"),
		UpdatedAt:     getTime(d, "updated_at"),
	}
}
