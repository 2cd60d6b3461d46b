package journal

import (
	"fmt"

	"github.com/roach88/graphstore/internal/canon"
)

// Record is one journaled event.
type Record struct {
	ID     string // unique event ID (UUIDv7 in production)
	Seq    int64  // dispatcher sequence number
	Kind   string // wire kind, possibly unknown to the reducer
	Body   []byte // canonical JSON
	Digest string // canon.DomainEvent digest of Body
	Source string // producer label, e.g. a file name
}

// NewRecord builds a record, canonicalising body and computing its digest.
// An empty body is stored as {}.
func NewRecord(id string, seq int64, kind string, body []byte) (Record, error) {
	if id == "" {
		return Record{}, fmt.Errorf("new record: empty id")
	}
	if len(body) == 0 {
		body = []byte("{}")
	}
	cb, err := canon.FromJSON(body)
	if err != nil {
		return Record{}, fmt.Errorf("new record %s: %w", id, err)
	}
	return Record{
		ID:     id,
		Seq:    seq,
		Kind:   kind,
		Body:   cb,
		Digest: canon.DigestBytes(canon.DomainEvent, cb),
	}, nil
}
