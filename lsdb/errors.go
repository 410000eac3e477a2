package lsdb

import "errors"

var (
	// ErrCollectionNotFound is returned when operating on a collection that
	// was never declared.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrStorageRead is returned when the backend fails to read the snapshot.
	ErrStorageRead = errors.New("storage read failed")

	// ErrStorageWrite is returned when the backend rejects a write-back. The
	// mutation that triggered it did not happen.
	ErrStorageWrite = errors.New("storage write failed")

	// ErrCorruptSnapshot is returned when the stored value cannot be decoded.
	ErrCorruptSnapshot = errors.New("corrupt database snapshot")

	// ErrInvalidDocument is returned for a document that cannot be encoded
	// as JSON.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidName is returned by Open for an empty database name.
	ErrInvalidName = errors.New("database name must not be empty")
)

const msgNotStrings = "All values must be strings"

// ValidationError reports a rejected collection declaration. No collection
// is created when it is returned.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
