package document

import "github.com/mentonehc/hvsync/internal/domain/ladder"

// LadderSnapshotFields builds the ladder cache document. Snapshots are
// replaced whole, never merged.
func LadderSnapshotFields(s ladder.Snapshot) Doc {
	return Doc{
		"id":             s.Key(),
		"competition_id": s.CompetitionID,
		"grade_id":       s.GradeID,
		"position":       s.Position,
		"points":         s.Points,
		"fetched_at":     s.FetchedAt.UTC(),
	}
}

// LadderSnapshotFromDoc rebuilds a cached ladder snapshot.
func LadderSnapshotFromDoc(d Doc) ladder.Snapshot {
	return ladder.Snapshot{
		CompetitionID: getString(d, "competition_id"),
		GradeID:       getString(d, "grade_id"),
		Position:      getInt(d, "position"),
		Points:        getInt(d, "points"),
		FetchedAt:     getTime(d, "fetched_at"),
	}
}
