// Package canon produces canonical JSON (RFC 8785 style) and domain-separated
// digests for graph snapshots and journal bodies.
//
// Canonical output is what makes replay verification meaningful: two stores
// that reduced the same events must produce byte-identical snapshots, so map
// ordering, Unicode normalisation and escaping are all fixed here.
//
// Accepted values: string, bool, int, int64, uint64, json.Number (integers
// only), []any, []string and map[string]any. Floats and null are rejected.
package canon
