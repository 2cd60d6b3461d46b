package journal

import (
	"context"
	"fmt"
)

// Append inserts a record. Uses ON CONFLICT(id) DO NOTHING for
// idempotency: inserted is false when the ID was already journaled.
func (j *Journal) Append(ctx context.Context, r Record) (inserted bool, err error) {
	if err := j.check(); err != nil {
		return false, err
	}
	if r.ID == "" {
		return false, fmt.Errorf("append: empty id")
	}

	res, err := j.db.ExecContext(ctx, `
		INSERT INTO events (id, seq, kind, body, digest, source)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		r.ID,
		r.Seq,
		r.Kind,
		string(r.Body),
		r.Digest,
		r.Source,
	)
	if err != nil {
		return false, fmt.Errorf("append %s: %w", r.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("append %s: %w", r.ID, err)
	}
	return n == 1, nil
}
