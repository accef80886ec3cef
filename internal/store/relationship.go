package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/memoria-ai/memoria/internal/model"
)

// execer covers both *sql.DB and *sql.Tx so the touch can run standalone or
// inside the memory write transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// touchInTx creates or advances a relationship. First contact is set once,
// last contact always moves forward, the interaction counter increments by
// exactly one, and notes are overwritten only when non-empty. Trust level is
// never auto-mutated.
func touchInTx(ctx context.Context, db execer, ownerID, notes string, now float64) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO relationships (owner_id, first_contact, last_contact, trust_level, total_interactions, personal_notes)
		 VALUES (?, ?, ?, 0.5, 1, ?)
		 ON CONFLICT(owner_id) DO UPDATE SET
		   last_contact = excluded.last_contact,
		   total_interactions = total_interactions + 1,
		   personal_notes = CASE
		     WHEN excluded.personal_notes IS NOT NULL THEN excluded.personal_notes
		     ELSE personal_notes
		   END`,
		ownerID, now, now, nullable(notes))
	return err
}

// TouchRelationship advances an owner's relationship outside a memory write,
// e.g. at session start.
func (s *SQLiteStore) TouchRelationship(ctx context.Context, ownerID, notes string) (*model.Relationship, error) {
	if ownerID == "" {
		return nil, &ValidationError{Field: "owner_id", Reason: "must not be empty"}
	}
	if err := touchInTx(ctx, s.db, ownerID, notes, s.nowTS()); err != nil {
		return nil, fmt.Errorf("touch relationship: %w", err)
	}
	return s.GetRelationship(ctx, ownerID)
}

// GetRelationship returns the relationship for an owner, or ErrNotFound.
func (s *SQLiteStore) GetRelationship(ctx context.Context, ownerID string) (*model.Relationship, error) {
	var r model.Relationship
	var notes sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT owner_id, first_contact, last_contact, trust_level, total_interactions, personal_notes
		 FROM relationships WHERE owner_id = ?`, ownerID).
		Scan(&r.OwnerID, &r.FirstContact, &r.LastContact, &r.TrustLevel, &r.TotalInteractions, &notes)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("relationship %s: %w", ownerID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query relationship: %w", err)
	}
	if notes.Valid {
		r.PersonalNotes = notes.String
	}
	return &r, nil
}
