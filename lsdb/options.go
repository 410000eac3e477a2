package lsdb

import (
	"github.com/rs/zerolog"

	"github.com/stevemurr/lsdb/ident"
)

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(db *DB) { db.logger = l }
}

// WithIDGenerator sets the document id generator. The default is ident.NewXID.
func WithIDGenerator(g ident.Generator) Option {
	return func(db *DB) { db.ids = g }
}

// CollectionOption configures a collection at declaration time. Options are
// ignored for collections that already exist.
type CollectionOption func(*collection)

// KeepSorted keeps the collection in ascending order after every mutation.
// The ordering key is derived from the documents unless SortedBy is given.
func KeepSorted() CollectionOption {
	return func(c *collection) { c.KeepSorted = true }
}

// SortedBy keeps the collection in ascending order of field after every
// mutation.
func SortedBy(field string) CollectionOption {
	return func(c *collection) {
		c.KeepSorted = true
		c.SortKey = field
	}
}
