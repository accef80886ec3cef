package store

import (
	"context"
	"strings"

	"github.com/memoria-ai/memoria/internal/model"
)

// ExportAll returns all memories in insertion order, optionally filtered by
// owner. Intended for backup and migration.
func (s *SQLiteStore) ExportAll(ctx context.Context, ownerID string) ([]model.MemoryRecord, error) {
	where := []string{"1=1"}
	args := []any{}

	if ownerID != "" {
		where = append(where, "owner_id = ?")
		args = append(args, ownerID)
	}

	query := `SELECT id, timestamp, owner_id, content, emotional_context, importance, category, metadata, content_fingerprint
	          FROM memories WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.MemoryRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Import stores records from an export through the normal write path, so
// re-importing is idempotent: duplicates are absorbed by the dedup gate.
func (s *SQLiteStore) Import(ctx context.Context, records []model.MemoryRecord) (int, error) {
	imported := 0
	for _, r := range records {
		importance := r.Importance
		ts := r.Timestamp
		_, err := s.Remember(ctx, RememberParams{
			OwnerID:          r.OwnerID,
			Content:          r.Content,
			Importance:       &importance,
			EmotionalContext: r.EmotionalContext,
			Category:         r.Category,
			Metadata:         r.Metadata,
			Timestamp:        &ts,
		})
		if err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}
