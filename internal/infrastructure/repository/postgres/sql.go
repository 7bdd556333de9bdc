// Package postgres persists the scraped collections as JSONB documents,
// one table per collection. Upserts merge the incoming document over the
// stored one so each pipeline stage only ever touches the fields it owns.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/mentonehc/hvsync/internal/infrastructure/repository/document"
	qb "github.com/mentonehc/hvsync/internal/platform/querybuilder"
)

func isNotFound(err error) bool {
	return err == sql.ErrNoRows
}

// maxBatchRows caps the rows bound into one multi-row upsert statement.
const maxBatchRows = 400

// docRow is the row shape shared by every collection table.
type docRow struct {
	ID  string `db:"id"`
	Doc []byte `db:"doc"`
}

func (row docRow) decode() (document.Doc, error) {
	var d document.Doc
	if err := sonic.Unmarshal(row.Doc, &d); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", row.ID, err)
	}

	return d, nil
}

type docWrite struct {
	id     string
	fields document.Doc
}

// mergeUpsertSuffix builds the ON CONFLICT clause that merges the incoming
// document over the stored one. created_at and the given stage-owned keys
// are subtracted from the incoming side, so on existing rows those stored
// fields survive; fresh inserts take the full document.
func mergeUpsertSuffix(table string, strippedKeys ...string) string {
	var b strings.Builder
	b.WriteString("ON CONFLICT (id) DO UPDATE SET doc = ")
	b.WriteString(table)
	b.WriteString(".doc || (EXCLUDED.doc - 'created_at'")
	for _, key := range strippedKeys {
		b.WriteString(" - '")
		b.WriteString(key)
		b.WriteString("'")
	}
	b.WriteString("), updated_at = EXCLUDED.updated_at")

	return b.String()
}

func upsertDocs(ctx context.Context, db *sqlx.DB, table string, writes []docWrite, strippedKeys ...string) error {
	suffix := mergeUpsertSuffix(table, strippedKeys...)
	now := time.Now().UTC()

	for start := 0; start < len(writes); start += maxBatchRows {
		end := min(start+maxBatchRows, len(writes))

		builder := qb.InsertInto(table).Columns("id", "doc", "updated_at")
		for _, w := range writes[start:end] {
			raw, err := sonic.Marshal(w.fields)
			if err != nil {
				return fmt.Errorf("encode document %s: %w", w.id, err)
			}
			builder.Values(w.id, string(raw), now)
		}

		query, args, err := builder.Suffix(suffix).ToSQL()
		if err != nil {
			return fmt.Errorf("build upsert %s query: %w", table, err)
		}
		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert %s: %w", table, err)
		}
	}

	return nil
}

// getDoc fetches one document by id. Missing rows report found=false.
func getDoc(ctx context.Context, db *sqlx.DB, table, id string) (document.Doc, bool, error) {
	query, args, err := qb.Select("id", "doc").From(table).
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return nil, false, fmt.Errorf("build get %s query: %w", table, err)
	}

	var row docRow
	if err := db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("get %s %s: %w", table, id, err)
	}

	d, err := row.decode()
	if err != nil {
		return nil, false, err
	}

	return d, true, nil
}
