package lsdb

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/stevemurr/lsdb/query"
)

// KeyPrefix is prepended to the database name to form its storage key.
const KeyPrefix = "lsdb:"

// StorageKey returns the key a database named name is persisted under.
func StorageKey(name string) string {
	return KeyPrefix + name
}

// collection is the persisted form of one collection.
type collection struct {
	KeepSorted bool       `json:"keepSorted"`
	SortKey    string     `json:"sortKey,omitempty"`
	Documents  []Document `json:"documents"`
}

// snapshot is the persisted form of a whole database.
type snapshot struct {
	Collections map[string]*collection `json:"collections"`
}

func newSnapshot() *snapshot {
	return &snapshot{Collections: make(map[string]*collection)}
}

func (s *snapshot) collection(name string) (*collection, error) {
	c, ok := s.Collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	return c, nil
}

func (s *snapshot) names() []string {
	names := make([]string, 0, len(s.Collections))
	for name := range s.Collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// load reads the snapshot from storage. A missing key is an empty database.
func (db *DB) load() (*snapshot, error) {
	raw, ok, err := db.store.Get(db.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageRead, err)
	}
	if !ok || raw == "" {
		return newSnapshot(), nil
	}
	snap := newSnapshot()
	if err := json.Unmarshal([]byte(raw), snap); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}
	if snap.Collections == nil {
		snap.Collections = make(map[string]*collection)
	}
	for name, c := range snap.Collections {
		if c == nil {
			snap.Collections[name] = &collection{Documents: []Document{}}
			continue
		}
		if c.Documents == nil {
			c.Documents = []Document{}
		}
	}
	return snap, nil
}

// persist writes the whole snapshot back under the database key.
func (db *DB) persist(snap *snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if err := db.store.Set(db.key, string(b)); err != nil {
		db.logger.Warn().Err(err).Msg("write-back failed")
		return fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}
	db.logger.Debug().
		Int("bytes", len(b)).
		Int("collections", len(snap.Collections)).
		Msg("persisted snapshot")
	return nil
}

// resort restores the keep-sorted order after a mutation.
func (c *collection) resort() {
	if !c.KeepSorted {
		return
	}
	query.SortDocuments(c.Documents, c.orderKey(), query.Asc)
}

// orderKey is the declared sort key, or else the top-level field holding a
// scalar value in the most documents. Ties go to the lexicographically
// smallest name; with no scalar field at all the key is _id.
func (c *collection) orderKey() string {
	if c.SortKey != "" {
		return c.SortKey
	}
	counts := make(map[string]int)
	for _, d := range c.Documents {
		for field, v := range d {
			if field == idField || !query.IsScalar(v) {
				continue
			}
			counts[field]++
		}
	}
	best, bestN := idField, 0
	for field, n := range counts {
		if n > bestN || (n == bestN && field < best) {
			best, bestN = field, n
		}
	}
	return best
}

// normalize deep-copies v through a JSON round trip so that what a call
// returns is exactly what a later load yields.
func normalize(v map[string]any) (Document, error) {
	if v == nil {
		return Document{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	var out Document
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return out, nil
}
