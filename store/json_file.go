package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

// JsonFileStore keeps every key in a single JSON object on disk.
//
// Layout:
//
//	data_dir/
//	  lsdb.json       # {"key": "value", ...}
//	  lsdb.json.lock  # advisory lock taken around each read or write
type JsonFileStore struct {
	mu   sync.RWMutex
	dir  string
	lock *flock.Flock
}

func NewJsonFileStore(dir string) (*JsonFileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	s := &JsonFileStore{dir: dir}
	s.lock = flock.New(s.path() + ".lock")
	return s, nil
}

func (s *JsonFileStore) path() string {
	return filepath.Join(s.dir, "lsdb.json")
}

func (s *JsonFileStore) loadFile() (map[string]string, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return map[string]string{}, nil
	}
	var result map[string]string
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path(), err)
	}
	if result == nil {
		result = map[string]string{}
	}
	return result, nil
}

// saveFile writes to a temp file and renames it over the target so a crash
// never leaves a half-written file behind.
func (s *JsonFileStore) saveFile(data map[string]string) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path() + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path())
}

func (s *JsonFileStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.lock.RLock(); err != nil {
		return "", false, err
	}
	defer s.lock.Unlock()
	values, err := s.loadFile()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (s *JsonFileStore) Set(key, value string) error {
	return s.modify(func(values map[string]string) bool {
		values[key] = value
		return true
	})
}

func (s *JsonFileStore) Remove(key string) error {
	return s.modify(func(values map[string]string) bool {
		if _, ok := values[key]; !ok {
			return false
		}
		delete(values, key)
		return true
	})
}

func (s *JsonFileStore) modify(fn func(map[string]string) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.Lock(); err != nil {
		return err
	}
	defer s.lock.Unlock()
	values, err := s.loadFile()
	if err != nil {
		return err
	}
	if !fn(values) {
		return nil
	}
	return s.saveFile(values)
}

func (s *JsonFileStore) Close() error {
	return s.lock.Close()
}
