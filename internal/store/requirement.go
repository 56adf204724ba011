package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/reqclarity/reqclarity/internal/model"
)

// CreateRequirement inserts a requirement and returns it with its id
// assigned. An empty ReqID gets a generated one; req_id is unique per owner.
func (s *Store) CreateRequirement(req model.Requirement) (*model.Requirement, error) {
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	if req.ReqID == "" {
		req.ReqID = newReqID()
	}

	res, err := s.db.Exec(
		`INSERT INTO requirements(req_id, title, description, owner_id, created_at) VALUES(?,?,?,?,?)`,
		req.ReqID, req.Title, req.Description, req.OwnerID, req.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert requirement: %w", err)
	}

	req.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("requirement id: %w", err)
	}
	return &req, nil
}

func newReqID() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("REQ-%d", time.Now().UnixNano())
	}
	return "REQ-" + hex.EncodeToString(buf)
}

// GetRequirement fetches a requirement by id, enforcing owner scope.
// Returns ErrNotFound if it does not exist and ErrAccessDenied if owner
// is non-empty and does not match the record's owner.
func (s *Store) GetRequirement(id int64, owner string) (*model.Requirement, error) {
	var req model.Requirement
	var description, ownerID sql.NullString

	err := s.db.QueryRow(
		`SELECT id, req_id, title, description, owner_id, created_at FROM requirements WHERE id = ?`, id,
	).Scan(&req.ID, &req.ReqID, &req.Title, &description, &ownerID, &req.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("requirement %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query requirement: %w", err)
	}

	req.Description = description.String
	req.OwnerID = ownerID.String

	if owner != "" && req.OwnerID != owner {
		return nil, fmt.Errorf("requirement %d: %w", id, model.ErrAccessDenied)
	}
	return &req, nil
}

// execer is satisfied by both *sql.DB and *sql.Tx so requirement updates
// can run standalone or inside the clarification transaction.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// UpdateRequirementText rewrites a requirement's title and description.
func (s *Store) UpdateRequirementText(id int64, title, description string) error {
	return updateRequirementText(s.db, id, title, description)
}

func updateRequirementText(e execer, id int64, title, description string) error {
	res, err := e.Exec(
		`UPDATE requirements SET title = ?, description = ? WHERE id = ?`,
		title, description, id,
	)
	if err != nil {
		return fmt.Errorf("update requirement: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("requirement %d: %w", id, model.ErrNotFound)
	}
	return nil
}
