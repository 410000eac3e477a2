package store

import (
	"fmt"
	"path/filepath"
)

// Backends lists the backend names accepted by New.
var Backends = []string{"json", "sqlite", "bolt", "badger", "memory"}

// New creates a Store based on the backend name.
//
// Supported backends:
//
//	"json"   - single JSON file at dataDir/lsdb.json (default)
//	"sqlite" - SQLite database at dataDir/lsdb.db
//	"bolt"   - BoltDB file at dataDir/lsdb.bolt
//	"badger" - Badger directory at dataDir/badger
//	"memory" - In-memory (ephemeral, for testing)
func New(backend, dataDir string) (Store, error) {
	switch backend {
	case "json", "":
		return NewJsonFileStore(dataDir)
	case "sqlite":
		return NewSqliteStore(filepath.Join(dataDir, "lsdb.db"))
	case "bolt":
		return NewBoltStore(filepath.Join(dataDir, "lsdb.bolt"))
	case "badger":
		return NewBadgerStore(filepath.Join(dataDir, "badger"))
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q (supported: json, sqlite, bolt, badger, memory)", backend)
	}
}
