// Package store defines the key-value backing store interface and its
// implementations.
package store

import "errors"

// ErrClosed is returned by operations on a store that has been closed.
var ErrClosed = errors.New("store is closed")

// Store is the interface that all backing stores must implement.
// It is a synchronous string-keyed, string-valued key-value store.
type Store interface {
	// Get returns the value stored under key. ok is false if the key is absent.
	Get(key string) (value string, ok bool, err error)

	// Set inserts or replaces the value stored under key.
	Set(key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error

	// Close releases any resources held by the store.
	Close() error
}
