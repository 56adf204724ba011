package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/reqclarity/reqclarity/internal/model"
)

// InsertLexiconEntry inserts a lexicon row, ignoring duplicates of the
// (term, type, owner) key. Returns true if a row was actually inserted.
func (s *Store) InsertLexiconEntry(entry model.LexiconEntry) (bool, error) {
	if entry.AddedAt.IsZero() {
		entry.AddedAt = time.Now().UTC()
	}

	res, err := s.db.Exec(
		`INSERT OR IGNORE INTO ambiguity_lexicon(term, type, owner_id, category, added_at) VALUES(?,?,?,?,?)`,
		entry.Term, string(entry.Type), entry.OwnerID, entry.Category, entry.AddedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert lexicon entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("lexicon rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteLexiconEntry removes a row by its (term, type, owner) key.
// Returns true if a row existed.
func (s *Store) DeleteLexiconEntry(term string, entryType model.LexiconEntryType, owner string) (bool, error) {
	res, err := s.db.Exec(
		`DELETE FROM ambiguity_lexicon WHERE term = ? AND type = ? AND owner_id = ?`,
		term, string(entryType), owner,
	)
	if err != nil {
		return false, fmt.Errorf("delete lexicon entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("lexicon rows affected: %w", err)
	}
	return n > 0, nil
}

// LexiconEntries returns the global entries plus the given owner's custom
// entries (both include and exclude). An empty owner returns globals only.
func (s *Store) LexiconEntries(owner string) ([]model.LexiconEntry, error) {
	var rows *sql.Rows
	var err error

	if owner == "" {
		rows, err = s.db.Query(
			`SELECT id, term, type, owner_id, category, added_at FROM ambiguity_lexicon
			 WHERE type = ? ORDER BY term`, string(model.LexiconGlobal),
		)
	} else {
		rows, err = s.db.Query(
			`SELECT id, term, type, owner_id, category, added_at FROM ambiguity_lexicon
			 WHERE type = ? OR owner_id = ? ORDER BY term`, string(model.LexiconGlobal), owner,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("query lexicon: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.LexiconEntry
	for rows.Next() {
		var e model.LexiconEntry
		var entryType string
		var category sql.NullString

		if err := rows.Scan(&e.ID, &e.Term, &entryType, &e.OwnerID, &category, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("scan lexicon entry: %w", err)
		}
		e.Type = model.LexiconEntryType(entryType)
		e.Category = category.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountLexicon reports the total number of lexicon rows
func (s *Store) CountLexicon() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM ambiguity_lexicon`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count lexicon: %w", err)
	}
	return n, nil
}
