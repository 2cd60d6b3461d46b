package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Filter narrows List results. The zero value selects everything.
type Filter struct {
	Kind     string // exact kind match
	AfterSeq int64  // only records with seq > AfterSeq
	Limit    int    // 0 means no limit
}

// List returns matching records ordered by seq ASC, id ASC COLLATE BINARY.
// Returns an empty slice (not nil) when nothing matches.
func (j *Journal) List(ctx context.Context, f Filter) ([]Record, error) {
	if err := j.check(); err != nil {
		return nil, err
	}

	var where []string
	var args []any
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, f.Kind)
	}
	if f.AfterSeq > 0 {
		where = append(where, "seq > ?")
		args = append(args, f.AfterSeq)
	}

	query := `SELECT id, seq, kind, body, digest, source FROM events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq ASC, id COLLATE BINARY ASC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return records, nil
}

// Replay streams every record in order to fn. A non-nil error from fn
// stops the replay and is returned.
func (j *Journal) Replay(ctx context.Context, fn func(Record) error) error {
	if err := j.check(); err != nil {
		return err
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT id, seq, kind, body, digest, source
		FROM events
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	return nil
}

// LastSeq returns the highest journaled seq, or 0 when empty.
func (j *Journal) LastSeq(ctx context.Context) (int64, error) {
	if err := j.check(); err != nil {
		return 0, err
	}
	var seq sql.NullInt64
	if err := j.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM events`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}

// Count returns the number of journaled records.
func (j *Journal) Count(ctx context.Context) (int, error) {
	if err := j.check(); err != nil {
		return 0, err
	}
	var n int
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// Kinds returns the record count per kind.
func (j *Journal) Kinds(ctx context.Context) (map[string]int, error) {
	if err := j.check(); err != nil {
		return nil, err
	}
	rows, err := j.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM events GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("count kinds: %w", err)
	}
	defer rows.Close()

	kinds := map[string]int{}
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan kind: %w", err)
		}
		kinds[kind] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate kinds: %w", err)
	}
	return kinds, nil
}

func scanRecord(rows *sql.Rows) (Record, error) {
	var r Record
	var body string
	if err := rows.Scan(&r.ID, &r.Seq, &r.Kind, &body, &r.Digest, &r.Source); err != nil {
		return Record{}, fmt.Errorf("scan event: %w", err)
	}
	r.Body = []byte(body)
	return r, nil
}
