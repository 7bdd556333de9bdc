package grade

import (
	"time"

	"github.com/mentonehc/hvsync/internal/domain/classify"
)

// Grade is a named division inside a competition. Hockey Victoria identifies
// it by a "fixture id"; that id, as a string, is the document key.
type Grade struct {
	ID            string
	CompetitionID string
	Name          string
	Season        string
	Type          classify.Type
	Gender        classify.Gender
	URL           string
	Active        bool
	LastChecked   time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CompetitionRef is the stored reference path for the parent competition.
func (g Grade) CompetitionRef() string {
	return "competitions/" + g.CompetitionID
}
