// Package firestore persists the scraped collections in Cloud Firestore
// using merge-set writes, so each pipeline stage only ever touches the
// fields it owns.
package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mentonehc/hvsync/internal/infrastructure/repository/document"
)

const (
	colCompetitions = "competitions"
	colGrades       = "grades"
	colClubs        = "clubs"
	colTeams        = "teams"
	colGames        = "games"
	colPlayers      = "players"
	colVenues       = "venues"
	colLadderCache  = "ladder_cache"
)

// maxBatchWrites caps one flush below Firestore's 500-write commit limit.
const maxBatchWrites = 400

type write struct {
	ref    *firestore.DocumentRef
	fields document.Doc
}

// commitWrites sends merge-sets through a bulk writer, flushing every
// maxBatchWrites, and surfaces the first per-write failure.
func commitWrites(ctx context.Context, client *firestore.Client, writes []write) error {
	for start := 0; start < len(writes); start += maxBatchWrites {
		end := min(start+maxBatchWrites, len(writes))

		bw := client.BulkWriter(ctx)
		jobs := make([]*firestore.BulkWriterJob, 0, end-start)
		for _, w := range writes[start:end] {
			job, err := bw.Set(w.ref, w.fields, firestore.MergeAll)
			if err != nil {
				bw.End()
				return fmt.Errorf("queue write %s: %w", w.ref.Path, err)
			}
			jobs = append(jobs, job)
		}
		bw.End()

		for i, job := range jobs {
			if _, err := job.Results(); err != nil {
				return fmt.Errorf("write %s: %w", writes[start+i].ref.Path, err)
			}
		}
	}

	return nil
}

// existingIDs reports which of the given refs already have documents.
func existingIDs(ctx context.Context, client *firestore.Client, refs []*firestore.DocumentRef) (map[string]bool, error) {
	out := make(map[string]bool, len(refs))
	for start := 0; start < len(refs); start += maxBatchWrites {
		end := min(start+maxBatchWrites, len(refs))

		snaps, err := client.GetAll(ctx, refs[start:end])
		if err != nil {
			return nil, fmt.Errorf("get existing documents: %w", err)
		}
		for _, snap := range snaps {
			if snap.Exists() {
				out[snap.Ref.ID] = true
			}
		}
	}

	return out, nil
}

func iterateDocs(iter *firestore.DocumentIterator, fn func(id string, d document.Doc)) error {
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return err
		}
		fn(snap.Ref.ID, snap.Data())
	}
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
