// Package eventfile reads graph events from JSON Lines or YAML files.
//
// JSON Lines (.jsonl, .ndjson): one envelope per line, either
// {"kind": k, "body": b} or {"graph-update": {k: b}}. Blank lines and lines
// starting with # are skipped.
//
// YAML (.yaml, .yml): a list of {kind, body} entries.
package eventfile

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/graphstore/internal/graph"
)

// Entry is one raw event read from a file.
type Entry struct {
	Line int    // 1-based line (JSONL) or list position (YAML)
	Kind string // empty when the producer sent no discriminant
	Body json.RawMessage
}

// Spec is the YAML form of an entry, also embedded in harness scenarios.
type Spec struct {
	Kind string         `yaml:"kind"`
	Body map[string]any `yaml:"body,omitempty"`
}

// Entry converts s to a JSON entry at position pos.
func (s Spec) Entry(pos int) (Entry, error) {
	e := Entry{Line: pos, Kind: s.Kind}
	if s.Body == nil {
		return e, nil
	}
	body, err := json.Marshal(Normalize(s.Body))
	if err != nil {
		return Entry{}, fmt.Errorf("entry %d: encode body: %w", pos, err)
	}
	e.Body = body
	return e, nil
}

// Load reads path, choosing the format by extension.
func Load(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open event file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ReadYAML(f)
	case ".jsonl", ".ndjson", ".json":
		return ReadJSONL(f)
	default:
		return nil, fmt.Errorf("unsupported event file %q (want .jsonl, .ndjson, .yaml or .yml)", path)
	}
}

// ReadJSONL parses one envelope per line.
func ReadJSONL(r io.Reader) ([]Entry, error) {
	var entries []Entry
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 || text[0] == '#' {
			continue
		}
		kind, body, err := graph.ParseEnvelope(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		entries = append(entries, Entry{Line: line, Kind: kind, Body: append(json.RawMessage(nil), body...)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return entries, nil
}

// ReadYAML parses a YAML list of {kind, body}. Unknown entry fields are
// rejected.
func ReadYAML(r io.Reader) ([]Entry, error) {
	var specs []Spec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&specs); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse events: %w", err)
	}

	entries := make([]Entry, 0, len(specs))
	for i, s := range specs {
		e, err := s.Entry(i + 1)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Decode converts entries to typed events. Entries that fail to decode are
// returned as errors alongside the events that succeeded; unknown kinds are
// events, not errors.
func Decode(entries []Entry) ([]graph.Event, []error) {
	events := make([]graph.Event, 0, len(entries))
	var errs []error
	for _, e := range entries {
		evt, err := graph.Decode(e.Kind, e.Body)
		if err != nil {
			errs = append(errs, fmt.Errorf("event %d: %w", e.Line, err))
			continue
		}
		events = append(events, evt)
	}
	return events, errs
}

// Normalize converts YAML-decoded values into JSON-encodable ones:
// map keys become strings, recursively.
func Normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = Normalize(elem)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[fmt.Sprint(k)] = Normalize(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = Normalize(elem)
		}
		return out
	default:
		return v
	}
}
