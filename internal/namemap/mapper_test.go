package namemap

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type memStore struct {
	table Table
	saves int
}

func (s *memStore) Load() (Table, error) { return s.table, nil }
func (s *memStore) Save(t Table) error   { s.table = t; s.saves++; return nil }

func nhlTable() Table {
	return Table{
		"NHL": {
			"Jets": {"WPG", "Winnipeg Jets"},
		},
	}
}

func TestCanonicalize(t *testing.T) {
	m, err := New(&memStore{table: nhlTable()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, err := m.Canonicalize("NHL", "Winnipeg Jets")
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	if got != "Jets" {
		t.Errorf("Canonicalize(NHL, Winnipeg Jets) = %q, want Jets", got)
	}

	// Canonical names map to themselves.
	got, err = m.Canonicalize("NHL", "Jets")
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	if got != "Jets" {
		t.Errorf("Canonicalize(NHL, Jets) = %q, want Jets", got)
	}
}

func TestCanonicalize_Unmapped(t *testing.T) {
	m, err := New(&memStore{table: nhlTable()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = m.Canonicalize("NHL", "Sharks")
	var ue *UnmappedError
	if !errors.As(err, &ue) {
		t.Fatalf("Canonicalize(NHL, Sharks) error = %v, want *UnmappedError", err)
	}
	if ue.Domain != "NHL" || ue.Raw != "Sharks" {
		t.Errorf("UnmappedError = %+v", ue)
	}

	// Unknown domain is unmapped too.
	if _, err := m.Canonicalize("AHL", "Jets"); !errors.As(err, &ue) {
		t.Errorf("Canonicalize(AHL, Jets) error = %v, want *UnmappedError", err)
	}
}

func TestNew_AmbiguousTableRejected(t *testing.T) {
	table := Table{
		"NHL": {
			"Jets":      {"WPG"},
			"Avalanche": {"WPG"},
		},
	}
	_, err := New(&memStore{table: table})
	var ae *AmbiguousAliasError
	if !errors.As(err, &ae) {
		t.Fatalf("New with overlapping aliases: error = %v, want *AmbiguousAliasError", err)
	}
}

func TestRegisterAlias(t *testing.T) {
	store := &memStore{table: nhlTable()}
	m, err := New(store)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := m.RegisterAlias("NHL", "Jets", "Winnipeg", false); err != nil {
		t.Fatalf("RegisterAlias: %v", err)
	}
	if store.saves != 1 {
		t.Errorf("saves = %d, want 1", store.saves)
	}
	if got, _ := m.Canonicalize("NHL", "Winnipeg"); got != "Jets" {
		t.Errorf("after register: Canonicalize(Winnipeg) = %q, want Jets", got)
	}

	// Registering a known alias again is a no-op, not a duplicate.
	if err := m.RegisterAlias("NHL", "Jets", "Winnipeg", false); err != nil {
		t.Fatalf("RegisterAlias repeat: %v", err)
	}
	if store.saves != 1 {
		t.Errorf("saves after repeat = %d, want 1", store.saves)
	}

	// New canonical requires the flag.
	if err := m.RegisterAlias("NHL", "Sharks", "SJS", false); err == nil {
		t.Error("RegisterAlias with unknown canonical: expected error")
	}
	if err := m.RegisterAlias("NHL", "Sharks", "SJS", true); err != nil {
		t.Errorf("RegisterAlias allowNewCanonical: %v", err)
	}

	// An alias may never move to a second canonical silently.
	err = m.RegisterAlias("NHL", "Sharks", "Winnipeg", true)
	var ae *AmbiguousAliasError
	if !errors.As(err, &ae) {
		t.Errorf("cross-canonical register: error = %v, want *AmbiguousAliasError", err)
	}
}

func TestEnsureMapped(t *testing.T) {
	m, err := New(&memStore{table: nhlTable()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	resolved := map[string]string{"Avs": "Avalanche", "Sharks": "Sharks"}
	var asked []string
	resolver := func(domain, raw string) (string, error) {
		asked = append(asked, raw)
		return resolved[raw], nil
	}

	if err := m.EnsureMapped("NHL", []string{"Jets", "Avs", "Sharks"}, resolver); err != nil {
		t.Fatalf("EnsureMapped: %v", err)
	}
	if len(asked) != 2 {
		t.Errorf("resolver called for %v, want only the two unmapped names", asked)
	}
	if got, _ := m.Canonicalize("NHL", "Avs"); got != "Avalanche" {
		t.Errorf("Canonicalize(Avs) = %q, want Avalanche", got)
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.yml")
	store := NewFileStore(path)

	// Missing file bootstraps to an empty table.
	table, err := store.Load()
	if err != nil {
		t.Fatalf("Load missing: %v", err)
	}
	if len(table) != 0 {
		t.Fatalf("Load missing = %v, want empty", table)
	}

	if err := store.Save(nhlTable()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := loaded["NHL"]["Jets"]; len(got) != 2 || got[0] != "WPG" {
		t.Errorf("round trip = %v", loaded)
	}

	// No temp litter left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries after save, want 1", len(entries))
	}
}
