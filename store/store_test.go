package store_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stevemurr/lsdb/store"
)

// runStoreTests runs a common test suite against any Store implementation.
func runStoreTests(t *testing.T, s store.Store) {
	t.Helper()

	t.Run("Get missing", func(t *testing.T) {
		v, ok, err := s.Get("missing")
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Fatalf("expected ok=false, got value %q", v)
		}
	})

	t.Run("Set and Get", func(t *testing.T) {
		if err := s.Set("k1", `{"title":"hello"}`); err != nil {
			t.Fatal(err)
		}
		v, ok, err := s.Get("k1")
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatal("expected ok=true")
		}
		if v != `{"title":"hello"}` {
			t.Fatalf("unexpected value %q", v)
		}
	})

	t.Run("Set overwrites", func(t *testing.T) {
		if err := s.Set("k1", "updated"); err != nil {
			t.Fatal(err)
		}
		v, _, err := s.Get("k1")
		if err != nil {
			t.Fatal(err)
		}
		if v != "updated" {
			t.Fatalf("expected updated, got %q", v)
		}
	})

	t.Run("Empty value is present", func(t *testing.T) {
		if err := s.Set("empty", ""); err != nil {
			t.Fatal(err)
		}
		v, ok, err := s.Get("empty")
		if err != nil {
			t.Fatal(err)
		}
		if !ok || v != "" {
			t.Fatalf("expected present empty value, got ok=%v v=%q", ok, v)
		}
	})

	t.Run("Keys are independent", func(t *testing.T) {
		if err := s.Set("k2", "second"); err != nil {
			t.Fatal(err)
		}
		v1, _, _ := s.Get("k1")
		v2, _, _ := s.Get("k2")
		if v1 != "updated" || v2 != "second" {
			t.Fatalf("got k1=%q k2=%q", v1, v2)
		}
	})

	t.Run("Remove existing", func(t *testing.T) {
		if err := s.Remove("k1"); err != nil {
			t.Fatal(err)
		}
		_, ok, err := s.Get("k1")
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Fatal("expected k1 gone after remove")
		}
	})

	t.Run("Remove missing", func(t *testing.T) {
		if err := s.Remove("nope"); err != nil {
			t.Fatalf("expected no error removing missing key, got %v", err)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	s := store.NewMemoryStore()
	runStoreTests(t, s)
	if s.Len() != 2 {
		t.Fatalf("expected 2 keys left, got %d", s.Len())
	}
}

func TestMemoryStoreClosed(t *testing.T) {
	s := store.NewMemoryStore()
	s.Close()
	if err := s.Set("k", "v"); !errors.Is(err, store.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, _, err := s.Get("k"); !errors.Is(err, store.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestJsonFileStore(t *testing.T) {
	dir := t.TempDir()
	s, err := store.NewJsonFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	runStoreTests(t, s)
}

func TestJsonFileStoreReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := store.NewJsonFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set("a", "1"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s2, err := store.NewJsonFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	v, ok, err := s2.Get("a")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || v != "1" {
		t.Fatalf("expected a=1 after reopen, got ok=%v v=%q", ok, v)
	}
	if _, err := os.Stat(filepath.Join(dir, "lsdb.json")); err != nil {
		t.Fatalf("expected lsdb.json to exist: %v", err)
	}
}

func TestJsonFileStoreCorrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "lsdb.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := store.NewJsonFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, _, err := s.Get("a"); err == nil {
		t.Fatal("expected error reading corrupt file")
	}
	if err := s.Set("a", "1"); err == nil {
		t.Fatal("expected error writing over corrupt file")
	}
}

func TestSqliteStore(t *testing.T) {
	dir := t.TempDir()
	s, err := store.NewSqliteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	runStoreTests(t, s)
}

func TestBoltStore(t *testing.T) {
	dir := t.TempDir()
	s, err := store.NewBoltStore(filepath.Join(dir, "test.bolt"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	runStoreTests(t, s)
}

func TestBadgerStore(t *testing.T) {
	s, err := store.NewBadgerStore(filepath.Join(t.TempDir(), "badger"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	runStoreTests(t, s)
}

func TestInMemoryBadgerStore(t *testing.T) {
	s, err := store.NewInMemoryBadgerStore()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	runStoreTests(t, s)
}

func TestFactory(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		backend string
	}{
		{"json"},
		{"sqlite"},
		{"bolt"},
		{"badger"},
		{"memory"},
		{""},
	}
	for _, tc := range tests {
		t.Run(tc.backend, func(t *testing.T) {
			s, err := store.New(tc.backend, filepath.Join(dir, tc.backend))
			if err != nil {
				t.Fatal(err)
			}
			defer s.Close()
			if err := s.Set("k", "v"); err != nil {
				t.Fatal(err)
			}
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := store.New("redis", dir)
		if err == nil {
			t.Fatal("expected error for unknown backend")
		}
	})
}
