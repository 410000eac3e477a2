// Package lsdb is an embedded document store. A DB keeps named collections
// of JSON documents in a single value of a key-value store.Store and answers
// queries over them by linear scan.
//
// Every call loads the whole database, applies its change in memory and
// writes the whole database back. A DB serialises its own calls; separate
// processes sharing one backend can lose each other's writes.
package lsdb

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/stevemurr/lsdb/ident"
	"github.com/stevemurr/lsdb/query"
	"github.com/stevemurr/lsdb/store"
)

// Document is one record. Every stored document carries a string _id.
type Document = query.Document

const idField = "_id"

// DB is a named database persisted in a store.Store.
type DB struct {
	mu     sync.Mutex
	name   string
	key    string
	store  store.Store
	ids    ident.Generator
	logger zerolog.Logger
}

// Open returns the database called name in s. Databases with distinct names
// share a backend without colliding. Nothing is written until the first
// mutating call.
func Open(name string, s store.Store, opts ...Option) (*DB, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	db := &DB{
		name:   name,
		key:    StorageKey(name),
		store:  s,
		ids:    ident.NewXID(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(db)
	}
	db.logger = db.logger.With().Str("db", name).Logger()
	return db, nil
}

// Name returns the database name.
func (db *DB) Name() string { return db.name }

// Collection declares one or more collections. names is a string, a
// []string, or a []any whose elements must all be strings. Declaring an
// existing collection is a no-op that keeps its documents and settings.
//
// A *ValidationError is returned, and nothing is declared, if any name is
// not a string or is empty.
func (db *DB) Collection(names any, opts ...CollectionOption) error {
	list, err := collectionNames(names)
	if err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	snap, err := db.load()
	if err != nil {
		return err
	}
	var created []string
	for _, name := range list {
		if _, ok := snap.Collections[name]; ok {
			continue
		}
		c := &collection{Documents: []Document{}}
		for _, opt := range opts {
			opt(c)
		}
		snap.Collections[name] = c
		created = append(created, name)
	}
	if len(created) == 0 {
		return nil
	}
	if err := db.persist(snap); err != nil {
		return err
	}
	db.logger.Debug().Strs("collections", created).Msg("declared")
	return nil
}

func collectionNames(names any) ([]string, error) {
	var list []string
	switch v := names.(type) {
	case string:
		list = []string{v}
	case []string:
		list = v
	case []any:
		list = make([]string, 0, len(v))
		for _, n := range v {
			s, ok := n.(string)
			if !ok {
				return nil, &ValidationError{Message: msgNotStrings}
			}
			list = append(list, s)
		}
	default:
		return nil, &ValidationError{Message: msgNotStrings}
	}
	for _, s := range list {
		if s == "" {
			return nil, &ValidationError{Message: "collection name must not be empty"}
		}
	}
	return list, nil
}

// Collections returns the declared collection names in sorted order.
func (db *DB) Collections() ([]string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	snap, err := db.load()
	if err != nil {
		return nil, err
	}
	return snap.names(), nil
}

// Insert stores doc in the named collection under a freshly assigned _id and
// returns the stored document. Any _id already present in doc is replaced.
func (db *DB) Insert(name string, doc map[string]any) (Document, error) {
	docs, err := db.InsertMany(name, []map[string]any{doc})
	if err != nil {
		return nil, err
	}
	return docs[0], nil
}

// InsertMany stores every document in input order with one write-back.
// Either all of them are stored or none are.
func (db *DB) InsertMany(name string, docs []map[string]any) ([]Document, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	snap, err := db.load()
	if err != nil {
		return nil, err
	}
	c, err := snap.collection(name)
	if err != nil {
		return nil, err
	}
	inserted := make([]Document, 0, len(docs))
	for _, d := range docs {
		n, err := normalize(d)
		if err != nil {
			return nil, err
		}
		n[idField] = db.ids.NextID()
		inserted = append(inserted, n)
	}
	c.Documents = append(c.Documents, inserted...)
	c.resort()
	if err := db.persist(snap); err != nil {
		return nil, err
	}
	db.logger.Debug().Str("collection", name).Int("count", len(inserted)).Msg("inserted")
	return inserted, nil
}

// Find returns the documents of the named collection matching q, in stored
// order unless q sorts them.
func (db *DB) Find(name string, q query.Query) ([]Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	docs, err := db.documents(name)
	if err != nil {
		return nil, err
	}
	return query.Run(docs, q), nil
}

// FindOne returns the first document Find would return. ok is false when
// nothing matches.
func (db *DB) FindOne(name string, q query.Query) (doc Document, ok bool, err error) {
	if err := q.Validate(); err != nil {
		return nil, false, err
	}
	docs, err := db.documents(name)
	if err != nil {
		return nil, false, err
	}
	doc, ok = query.First(docs, q)
	return doc, ok, nil
}

// Update merges patch into the first document whose fields equal every
// entry of filter. Each patch key replaces the field wholesale; _id is never
// changed. ok is false, and nothing is written, when no document matches.
func (db *DB) Update(name string, filter, patch map[string]any) (doc Document, ok bool, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	snap, err := db.load()
	if err != nil {
		return nil, false, err
	}
	c, err := snap.collection(name)
	if err != nil {
		return nil, false, err
	}
	target := firstEqual(c.Documents, filter)
	if target == nil {
		return nil, false, nil
	}
	p, err := normalize(patch)
	if err != nil {
		return nil, false, err
	}
	for k, v := range p {
		if k == idField {
			continue
		}
		target[k] = v
	}
	c.resort()
	if err := db.persist(snap); err != nil {
		return nil, false, err
	}
	db.logger.Debug().Str("collection", name).Str("id", fmt.Sprint(target[idField])).Msg("updated")
	return target, true, nil
}

func firstEqual(docs []Document, filter map[string]any) Document {
	for _, d := range docs {
		matched := true
		for k, v := range filter {
			if !query.Matches(d, k, query.Eq(v)) {
				matched = false
				break
			}
		}
		if matched {
			return d
		}
	}
	return nil
}

// Delete removes every document of the named collection matching q.Where
// and returns how many were removed. Sort and limit are ignored.
func (db *DB) Delete(name string, q query.Query) (int, error) {
	if err := q.Where.Validate(); err != nil {
		return 0, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	snap, err := db.load()
	if err != nil {
		return 0, err
	}
	c, err := snap.collection(name)
	if err != nil {
		return 0, err
	}
	kept := make([]Document, 0, len(c.Documents))
	for _, d := range c.Documents {
		if !q.Where.Matches(d) {
			kept = append(kept, d)
		}
	}
	removed := len(c.Documents) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	c.Documents = kept
	c.resort()
	if err := db.persist(snap); err != nil {
		return 0, err
	}
	db.logger.Debug().Str("collection", name).Int("count", removed).Msg("deleted")
	return removed, nil
}

// All returns every document of the named collection in stored order.
func (db *DB) All(name string) ([]Document, error) {
	return db.documents(name)
}

// AllCollections returns every declared collection with its documents.
func (db *DB) AllCollections() (map[string][]Document, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	snap, err := db.load()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]Document, len(snap.Collections))
	for name, c := range snap.Collections {
		out[name] = c.Documents
	}
	return out, nil
}

// Count returns the number of documents in the named collection.
func (db *DB) Count(name string) (int, error) {
	docs, err := db.documents(name)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (db *DB) documents(name string) ([]Document, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	snap, err := db.load()
	if err != nil {
		return nil, err
	}
	c, err := snap.collection(name)
	if err != nil {
		return nil, err
	}
	return c.Documents, nil
}
