// Package lexicon manages the curated and per-owner ambiguous-term lists.
// The effective lexicon for a scope is global ∪ owner includes − owner
// excludes; excludes win over both. Every mutation bumps a generation
// counter so downstream caches (the semantic matcher's embeddings) can
// invalidate without string-comparing term sets.
package lexicon

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/reqclarity/reqclarity/internal/model"
	"github.com/reqclarity/reqclarity/internal/store"
)

// Manager provides scoped access to the lexicon
type Manager struct {
	store      *store.Store
	generation atomic.Uint64
}

// NewManager creates a manager backed by the given store
func NewManager(s *store.Store) *Manager {
	return &Manager{store: s}
}

// Generation returns the current lexicon generation. It increases on every
// successful mutation and never decreases.
func (m *Manager) Generation() uint64 {
	return m.generation.Load()
}

// Seed inserts the curated default terms as global entries. Idempotent:
// re-seeding inserts nothing and reports zero. Returns the number of rows added.
func (m *Manager) Seed() (int, error) {
	added := 0
	for _, dt := range defaultTerms {
		inserted, err := m.store.InsertLexiconEntry(model.LexiconEntry{
			Term:     strings.ToLower(dt.Term),
			Type:     model.LexiconGlobal,
			Category: dt.Category,
		})
		if err != nil {
			return added, fmt.Errorf("seed term %q: %w", dt.Term, err)
		}
		if inserted {
			added++
		}
	}
	if added > 0 {
		m.generation.Add(1)
	}
	return added, nil
}

// Effective returns the effective lexicon for an owner scope, lowercase and
// sorted. Sorting keeps semantic tie-breaks deterministic.
func (m *Manager) Effective(owner string) ([]string, error) {
	entries, err := m.store.LexiconEntries(owner)
	if err != nil {
		return nil, err
	}

	included := make(map[string]bool)
	excluded := make(map[string]bool)
	for _, e := range entries {
		term := strings.ToLower(e.Term)
		switch e.Type {
		case model.LexiconGlobal:
			included[term] = true
		case model.LexiconCustomInclude:
			if e.OwnerID == owner {
				included[term] = true
			}
		case model.LexiconCustomExclude:
			if e.OwnerID == owner {
				excluded[term] = true
			}
		}
	}

	terms := make([]string, 0, len(included))
	for term := range included {
		if !excluded[term] {
			terms = append(terms, term)
		}
	}
	sort.Strings(terms)
	return terms, nil
}

// Entries returns the raw lexicon rows visible to an owner
func (m *Manager) Entries(owner string) ([]model.LexiconEntry, error) {
	return m.store.LexiconEntries(owner)
}

// AddInclude adds a custom ambiguous term for an owner
func (m *Manager) AddInclude(term, owner string) error {
	return m.addCustom(term, model.LexiconCustomInclude, owner)
}

// AddExclude adds an owner override removing a term from consideration
func (m *Manager) AddExclude(term, owner string) error {
	return m.addCustom(term, model.LexiconCustomExclude, owner)
}

func (m *Manager) addCustom(term string, entryType model.LexiconEntryType, owner string) error {
	if owner == "" {
		return fmt.Errorf("custom lexicon entries require an owner scope")
	}
	sanitized, err := SanitizeTerm(term)
	if err != nil {
		return err
	}

	if _, err := m.store.InsertLexiconEntry(model.LexiconEntry{
		Term:    sanitized,
		Type:    entryType,
		OwnerID: owner,
	}); err != nil {
		return err
	}
	m.generation.Add(1)
	return nil
}

// Remove deletes a custom entry of either type for an owner.
// Returns ErrNotFound if no such entry exists.
func (m *Manager) Remove(term string, entryType model.LexiconEntryType, owner string) error {
	sanitized, err := SanitizeTerm(term)
	if err != nil {
		return err
	}

	deleted, err := m.store.DeleteLexiconEntry(sanitized, entryType, owner)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("lexicon entry %q: %w", sanitized, model.ErrNotFound)
	}
	m.generation.Add(1)
	return nil
}

// SanitizeTerm normalizes a lexicon term: lowercase, alphanumerics plus
// space/hyphen/underscore only, at most 100 characters, non-empty.
func SanitizeTerm(term string) (string, error) {
	var b strings.Builder
	for _, r := range term {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}

	sanitized := strings.ToLower(strings.TrimSpace(b.String()))
	if sanitized == "" {
		return "", fmt.Errorf("term must contain at least one alphanumeric character")
	}
	if len(sanitized) > 100 {
		return "", fmt.Errorf("term exceeds maximum length of 100 characters")
	}
	return sanitized, nil
}
