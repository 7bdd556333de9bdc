package ladder

import "time"

// Snapshot is the focus club's cached ladder line for one grade, keyed by
// "{competition}_{grade}" in the ladder_cache collection. The authoritative
// ladder block lives on the Team document; this exists so dashboard reads
// do not hit the source site.
type Snapshot struct {
	CompetitionID string
	GradeID       string
	Position      int
	Points        int
	FetchedAt     time.Time
}

// Key returns the cache document id for this snapshot.
func (s Snapshot) Key() string { return Key(s.CompetitionID, s.GradeID) }

// Key builds a ladder cache document id.
func Key(competitionID, gradeID string) string {
	return competitionID + "_" + gradeID
}
