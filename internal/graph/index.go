package graph

import (
	"fmt"
	"strings"
)

// Atom is a non-negative integer of arbitrary size in canonical decimal
// form (no leading zeros). Graph keys are atoms, typically timestamps far
// wider than 64 bits.
type Atom string

// ParseAtom parses a decimal atom. Urbit's dotted grouping ("1.000.000")
// is accepted; leading zeros are stripped.
func ParseAtom(s string) (Atom, error) {
	s = strings.ReplaceAll(s, ".", "")
	if s == "" {
		return "", fmt.Errorf("empty atom")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return "", fmt.Errorf("invalid atom %q: not a decimal number", s)
		}
	}
	s = strings.TrimLeft(s, "0")
	if s == "" {
		s = "0"
	}
	return Atom(s), nil
}

// Compare orders atoms numerically: -1, 0 or +1.
func (a Atom) Compare(b Atom) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(string(a), string(b))
}

// Index is the path of atoms from a graph root to a node, written "/a/b/c".
type Index []Atom

// ParseIndex parses "/a/b/c". The empty path "/" is rejected.
func ParseIndex(s string) (Index, error) {
	if !strings.HasPrefix(s, "/") {
		return nil, fmt.Errorf("invalid index %q: must start with /", s)
	}
	parts := strings.Split(strings.TrimPrefix(s, "/"), "/")
	idx := make(Index, 0, len(parts))
	for _, p := range parts {
		a, err := ParseAtom(p)
		if err != nil {
			return nil, fmt.Errorf("invalid index %q: %w", s, err)
		}
		idx = append(idx, a)
	}
	return idx, nil
}

// MustParseIndex is ParseIndex for literals. Panics on error.
func MustParseIndex(s string) Index {
	idx, err := ParseIndex(s)
	if err != nil {
		panic(err)
	}
	return idx
}

// String returns "/a/b/c".
func (i Index) String() string {
	var b strings.Builder
	for _, a := range i {
		b.WriteByte('/')
		b.WriteString(string(a))
	}
	return b.String()
}

// compareIndexes orders shallower paths first, then atom by atom.
// Parents therefore always sort before their children.
func compareIndexes(a, b Index) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	for k := range a {
		if c := a[k].Compare(b[k]); c != 0 {
			return c
		}
	}
	return 0
}
