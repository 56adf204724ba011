// Package store provides sqlite persistence for requirements, the ambiguity
// lexicon, and analysis results. An analysis and its terms are always
// committed in a single transaction; partial writes are never observable.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS requirements (
    id INTEGER PRIMARY KEY,
    req_id TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT,
    owner_id TEXT,
    created_at TIMESTAMP NOT NULL,
    UNIQUE(req_id, owner_id)
);

CREATE TABLE IF NOT EXISTS ambiguity_lexicon (
    id INTEGER PRIMARY KEY,
    term TEXT NOT NULL,
    type TEXT NOT NULL,
    owner_id TEXT NOT NULL DEFAULT '',
    category TEXT,
    added_at TIMESTAMP NOT NULL,
    UNIQUE(term, type, owner_id)
);
CREATE INDEX IF NOT EXISTS idx_lexicon_owner ON ambiguity_lexicon(owner_id);

CREATE TABLE IF NOT EXISTS ambiguity_analyses (
    id INTEGER PRIMARY KEY,
    requirement_id INTEGER REFERENCES requirements(id) ON DELETE CASCADE,
    owner_id TEXT,
    original_text TEXT NOT NULL,
    analyzed_at TIMESTAMP NOT NULL,
    total_terms_flagged INTEGER NOT NULL DEFAULT 0,
    terms_resolved INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL DEFAULT 'pending'
);
CREATE INDEX IF NOT EXISTS idx_analyses_owner ON ambiguity_analyses(owner_id);

CREATE TABLE IF NOT EXISTS ambiguous_terms (
    id INTEGER PRIMARY KEY,
    analysis_id INTEGER NOT NULL REFERENCES ambiguity_analyses(id) ON DELETE CASCADE,
    term TEXT NOT NULL,
    position_start INTEGER NOT NULL,
    position_end INTEGER NOT NULL,
    sentence_context TEXT,
    detection_method TEXT NOT NULL DEFAULT 'lexicon_exact',
    matched_lexicon_term TEXT,
    similarity_score REAL,
    is_ambiguous INTEGER NOT NULL DEFAULT 1,
    confidence REAL NOT NULL DEFAULT 0,
    reasoning TEXT,
    clarification_prompt TEXT,
    suggested_replacements TEXT,
    status TEXT NOT NULL DEFAULT 'pending',
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_terms_analysis ON ambiguous_terms(analysis_id);

CREATE TABLE IF NOT EXISTS clarification_history (
    id INTEGER PRIMARY KEY,
    term_id INTEGER NOT NULL REFERENCES ambiguous_terms(id) ON DELETE CASCADE,
    requirement_id INTEGER REFERENCES requirements(id) ON DELETE CASCADE,
    owner_id TEXT,
    original_text TEXT NOT NULL,
    clarified_text TEXT NOT NULL,
    action TEXT NOT NULL,
    clarified_at TIMESTAMP NOT NULL
);
`

// Store wraps the sqlite database
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// sqlite handles one writer at a time; serialize access through a
	// single connection to avoid SQLITE_BUSY under concurrent analyses.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}
