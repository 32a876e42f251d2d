package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// ErrNotAnObject is returned when a snapshot expected to hold children is a
// scalar.
var ErrNotAnObject = errors.New("snapshot is not an object")

// Snapshot is the JSON tree the store returned for a path at one point in time.
type Snapshot struct {
	Path string
	Raw  json.RawMessage
}

// Child is one direct entry of a snapshot.
type Child struct {
	Key string
	Raw json.RawMessage
}

// NewSnapshot wraps the raw body returned for path.
func NewSnapshot(path string, raw []byte) *Snapshot {
	return &Snapshot{Path: path, Raw: bytes.TrimSpace(raw)}
}

// Exists reports whether the store holds data at the snapshot's path.
func (s *Snapshot) Exists() bool {
	if s == nil || len(s.Raw) == 0 {
		return false
	}
	return !bytes.Equal(s.Raw, []byte("null"))
}

// Fields returns the snapshot's top-level fields. A scalar snapshot has none.
func (s *Snapshot) Fields() map[string]Value {
	fields := make(map[string]Value)
	if !s.Exists() {
		return fields
	}
	children, err := s.Children()
	if err != nil {
		return fields
	}
	for _, c := range children {
		fields[c.Key] = RawValue(c.Raw)
	}
	return fields
}

// Children lists the snapshot's entries in store iteration order: keys that
// are array indexes first in numeric order, then every other key in the order
// the store sent it. Arrays are treated as objects keyed by index with null
// holes skipped.
func (s *Snapshot) Children() ([]Child, error) {
	if !s.Exists() {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(s.Raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("error decoding snapshot at %s: %w", s.Path, err)
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotAnObject, s.Path)
	}

	var children []Child
	switch delim {
	case '[':
		for i := 0; dec.More(); i++ {
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return nil, fmt.Errorf("error decoding snapshot at %s: %w", s.Path, err)
			}
			if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
				continue
			}
			children = append(children, Child{Key: strconv.Itoa(i), Raw: raw})
		}
		return children, nil
	case '{':
		seen := make(map[string]int)
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("error decoding snapshot at %s: %w", s.Path, err)
			}
			key, _ := keyTok.(string)
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return nil, fmt.Errorf("error decoding snapshot at %s: %w", s.Path, err)
			}
			// A repeated key keeps its first position and its last value.
			if i, dup := seen[key]; dup {
				children[i].Raw = raw
				continue
			}
			seen[key] = len(children)
			children = append(children, Child{Key: key, Raw: raw})
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotAnObject, s.Path)
	}

	sort.SliceStable(children, func(i, j int) bool {
		a, aIdx := arrayIndex(children[i].Key)
		b, bIdx := arrayIndex(children[j].Key)
		if aIdx && bIdx {
			return a < b
		}
		return aIdx && !bIdx
	})
	return children, nil
}

// HistoryEntries decodes every child as a stored history entry.
func (s *Snapshot) HistoryEntries() ([]HistoryEntry, error) {
	children, err := s.Children()
	if err != nil {
		return nil, err
	}
	entries := make([]HistoryEntry, 0, len(children))
	for _, c := range children {
		entries = append(entries, decodeHistoryEntry(c))
	}
	return entries, nil
}

// arrayIndex reports whether key is a canonical array index ("0", "17", but
// not "007" or "4294967295").
func arrayIndex(key string) (uint64, bool) {
	n, err := strconv.ParseUint(key, 10, 32)
	if err != nil || n == 1<<32-1 {
		return 0, false
	}
	return n, strconv.FormatUint(n, 10) == key
}
