// Package namemap resolves the raw team/sport/category strings each
// bookmaker emits to the single canonical name the correlator compares on.
package namemap

import (
	"fmt"
	"sync"
)

// DomainSport and DomainCategory are the fixed namespaces used for
// classification labels; team names live under their sport's own key.
const (
	DomainSport    = "_sports"
	DomainCategory = "_categories"
)

// UnmappedError means a raw name has no canonical mapping under the domain.
// Callers either skip the record or route the name through a Resolver.
type UnmappedError struct {
	Domain string
	Raw    string
}

func (e *UnmappedError) Error() string {
	return fmt.Sprintf("namemap: no canonical name for %q in domain %q", e.Raw, e.Domain)
}

// AmbiguousAliasError means one raw name appears under two canonical entries
// of the same domain. This is a data-integrity fault in the alias table and
// must be fixed by hand; it is never auto-resolved.
type AmbiguousAliasError struct {
	Domain string
	Raw    string
	First  string
	Second string
}

func (e *AmbiguousAliasError) Error() string {
	return fmt.Sprintf("namemap: alias %q in domain %q is mapped to both %q and %q",
		e.Raw, e.Domain, e.First, e.Second)
}

// Resolver supplies the canonical name for a raw name the table does not
// know. cmd/mapper wires an interactive prompt here; batch jobs can wire a
// lookup service or leave it nil and skip.
type Resolver func(domain, raw string) (string, error)

// Mapper is the process-wide alias table. All mutation goes through
// RegisterAlias under a single writer lock, and every mutation is persisted
// through the injected store before it is visible.
type Mapper struct {
	mu    sync.Mutex
	store Store
	table Table
}

// New loads the table from the store and validates it: a raw name appearing
// under two canonicals of the same domain fails construction, because it
// would corrupt every correlation pass that follows.
func New(store Store) (*Mapper, error) {
	table, err := store.Load()
	if err != nil {
		return nil, err
	}
	if err := validate(table); err != nil {
		return nil, err
	}
	return &Mapper{store: store, table: table}, nil
}

func validate(t Table) error {
	for domain, canonicals := range t {
		seen := map[string]string{} // raw -> canonical
		for canonical, aliases := range canonicals {
			for _, raw := range aliases {
				if prev, ok := seen[raw]; ok && prev != canonical {
					return &AmbiguousAliasError{Domain: domain, Raw: raw, First: prev, Second: canonical}
				}
				seen[raw] = canonical
			}
		}
	}
	return nil
}

// Canonicalize returns the canonical name raw is an alias of. A canonical
// name is an alias of itself.
func (m *Mapper) Canonicalize(domain, raw string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookup(domain, raw)
}

func (m *Mapper) lookup(domain, raw string) (string, error) {
	canonicals, ok := m.table[domain]
	if !ok {
		return "", &UnmappedError{Domain: domain, Raw: raw}
	}

	found := ""
	for canonical, aliases := range canonicals {
		if canonical == raw {
			if found != "" && found != canonical {
				return "", &AmbiguousAliasError{Domain: domain, Raw: raw, First: found, Second: canonical}
			}
			found = canonical
			continue
		}
		for _, alias := range aliases {
			if alias == raw {
				if found != "" && found != canonical {
					return "", &AmbiguousAliasError{Domain: domain, Raw: raw, First: found, Second: canonical}
				}
				found = canonical
				break
			}
		}
	}
	if found == "" {
		return "", &UnmappedError{Domain: domain, Raw: raw}
	}
	return found, nil
}

// RegisterAlias records raw as an alias of canonical and persists the table.
// Unknown canonical names are only created when allowNewCanonical is set.
func (m *Mapper) RegisterAlias(domain, canonical, raw string, allowNewCanonical bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, err := m.lookup(domain, raw); err == nil {
		if existing == canonical {
			return nil // already known
		}
		return &AmbiguousAliasError{Domain: domain, Raw: raw, First: existing, Second: canonical}
	} else if _, ok := err.(*AmbiguousAliasError); ok {
		return err
	}

	canonicals, ok := m.table[domain]
	if !ok {
		canonicals = map[string][]string{}
		m.table[domain] = canonicals
	}
	aliases, ok := canonicals[canonical]
	if !ok && !allowNewCanonical {
		return fmt.Errorf("namemap: canonical name %q does not exist in domain %q", canonical, domain)
	}

	canonicals[canonical] = appendUnique(aliases, raw)
	return m.store.Save(m.table)
}

// EnsureMapped walks raws and routes every unmapped one through resolve,
// registering the answer. Ambiguity and resolver failures stop the walk.
func (m *Mapper) EnsureMapped(domain string, raws []string, resolve Resolver) error {
	for _, raw := range raws {
		_, err := m.Canonicalize(domain, raw)
		if err == nil {
			continue
		}
		if _, ok := err.(*UnmappedError); !ok {
			return err
		}
		if resolve == nil {
			return err
		}
		canonical, err := resolve(domain, raw)
		if err != nil {
			return fmt.Errorf("namemap: resolve %q in domain %q: %w", raw, domain, err)
		}
		if err := m.RegisterAlias(domain, canonical, raw, true); err != nil {
			return err
		}
	}
	return nil
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}
