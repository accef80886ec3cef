package store

import (
	"context"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath        string       `json:"db_path"`
	DBSizeBytes   int64        `json:"db_size_bytes"`
	TotalMemories int          `json:"total_memories"`
	Relationships int          `json:"relationships"`
	Patterns      int          `json:"patterns"`
	Owners        []OwnerStats `json:"owners"`
}

// OwnerStats holds per-owner counts.
type OwnerStats struct {
	OwnerID  string  `json:"owner_id"`
	Records  int     `json:"records"`
	Earliest float64 `json:"earliest"`
	Latest   float64 `json:"latest"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&st.TotalMemories)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM relationships`).Scan(&st.Relationships)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM learning_patterns`).Scan(&st.Patterns)

	rows, err := s.db.QueryContext(ctx, `
		SELECT owner_id, COUNT(*) AS cnt, MIN(timestamp), MAX(timestamp)
		FROM memories
		GROUP BY owner_id ORDER BY cnt DESC`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var o OwnerStats
		rows.Scan(&o.OwnerID, &o.Records, &o.Earliest, &o.Latest)
		st.Owners = append(st.Owners, o)
	}

	return st, nil
}
