package competition

import (
	"time"

	"github.com/mentonehc/hvsync/internal/domain/classify"
)

// Competition is a season-long tournament umbrella. The key is the numeric
// competition id embedded in Hockey Victoria URLs, stored as a string.
type Competition struct {
	ID          string
	Name        string
	Season      string
	Type        classify.Type
	Active      bool
	SourceURL   string
	LastChecked time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
