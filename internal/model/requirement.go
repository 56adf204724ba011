package model

import "time"

// Requirement is a stored requirement record the pipeline can analyze
type Requirement struct {
	ID          int64     `json:"id"`
	ReqID       string    `json:"req_id"` // Human-facing identifier, e.g. "R-101"
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	OwnerID     string    `json:"owner_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// AnalysisText combines title and description into the text handed to the pipeline
func (r *Requirement) AnalysisText() string {
	if r.Description == "" {
		return r.Title
	}
	return r.Title + "\n" + r.Description
}

// LexiconEntryType partitions lexicon entries by origin
type LexiconEntryType string

const (
	LexiconGlobal        LexiconEntryType = "global"         // Curated, shared, no owner
	LexiconCustomInclude LexiconEntryType = "custom_include" // Owner-added ambiguous term
	LexiconCustomExclude LexiconEntryType = "custom_exclude" // Owner override removing a term
)

// LexiconEntry is a (term, type, owner) triple, unique per that key
type LexiconEntry struct {
	ID       int64            `json:"id"`
	Term     string           `json:"term"` // Stored lowercase
	Type     LexiconEntryType `json:"type"`
	OwnerID  string           `json:"owner_id,omitempty"` // Empty for global entries
	Category string           `json:"category,omitempty"` // e.g. "performance", "usability"
	AddedAt  time.Time        `json:"added_at"`
}
