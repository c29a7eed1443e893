package namemap

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Table holds the persisted alias mapping: domain -> canonical name -> known
// aliases. A domain is either a sport key (for team names) or one of the
// fixed namespaces for sport/category labels.
type Table map[string]map[string][]string

// Store loads and persists an alias table. The mapper never touches the
// persistence format directly, so tests can swap in an in-memory store.
type Store interface {
	Load() (Table, error)
	Save(Table) error
}

// FileStore keeps the alias table in one YAML file, rewritten atomically on
// every mutation.
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the table, returning an empty one when the file does not exist
// yet so a fresh deployment can bootstrap its mapping interactively.
func (s *FileStore) Load() (Table, error) {
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("namemap: read %s: %w", s.Path, err)
	}
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("namemap: parse %s: %w", s.Path, err)
	}
	if t == nil {
		t = Table{}
	}
	return t, nil
}

// Save writes the table to a temp file in the same directory and renames it
// over the target, so readers never observe a half-written table.
func (s *FileStore) Save(t Table) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Errorf("namemap: marshal table: %w", err)
	}

	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("namemap: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("namemap: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("namemap: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("namemap: replace %s: %w", s.Path, err)
	}
	return nil
}
