package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Digest domains. The version suffix leaves room for algorithm changes.
const (
	DomainSnapshot = "graphstore/snapshot/v1"
	DomainEvent    = "graphstore/event/v1"
)

// Digest hashes the canonical encoding of v with domain separation:
// SHA256(domain || 0x00 || canonical(v)).
func Digest(domain string, v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", fmt.Errorf("digest %s: %w", domain, err)
	}
	return DigestBytes(domain, data), nil
}

// DigestBytes hashes already-canonical bytes with domain separation.
func DigestBytes(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
