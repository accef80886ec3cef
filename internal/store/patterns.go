package store

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/memoria-ai/memoria/internal/model"
)

// newPatternID uses the package-level locked entropy source so concurrent
// writers never race or collide.
func newPatternID() string {
	return ulid.Make().String()
}

// RecordPattern appends a learning pattern. Patterns carry no derived state;
// this is plain write-and-read storage.
func (s *SQLiteStore) RecordPattern(ctx context.Context, p PatternParams) (*model.LearningPattern, error) {
	if p.PatternType == "" {
		return nil, &ValidationError{Field: "pattern_type", Reason: "must not be empty"}
	}

	pattern := &model.LearningPattern{
		ID:          newPatternID(),
		PatternType: p.PatternType,
		PatternData: p.PatternData,
		SuccessRate: p.SuccessRate,
		LastUpdated: s.nowTS(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO learning_patterns (id, pattern_type, pattern_data, success_rate, last_updated, usage_count)
		 VALUES (?, ?, ?, ?, ?, 0)`,
		pattern.ID, pattern.PatternType, nullable(pattern.PatternData),
		pattern.SuccessRate, pattern.LastUpdated)
	if err != nil {
		return nil, fmt.Errorf("insert pattern: %w", err)
	}

	return pattern, nil
}

// ListPatterns returns stored patterns newest first, optionally filtered by type.
func (s *SQLiteStore) ListPatterns(ctx context.Context, patternType string) ([]model.LearningPattern, error) {
	query := `SELECT id, pattern_type, pattern_data, success_rate, last_updated, usage_count
	          FROM learning_patterns`
	var args []any
	if patternType != "" {
		query += ` WHERE pattern_type = ?`
		args = append(args, patternType)
	}
	query += ` ORDER BY last_updated DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query patterns: %w", err)
	}
	defer rows.Close()

	var patterns []model.LearningPattern
	for rows.Next() {
		var p model.LearningPattern
		var data *string
		if err := rows.Scan(&p.ID, &p.PatternType, &data, &p.SuccessRate, &p.LastUpdated, &p.UsageCount); err != nil {
			return nil, fmt.Errorf("scan pattern: %w", err)
		}
		if data != nil {
			p.PatternData = *data
		}
		patterns = append(patterns, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patterns: %w", err)
	}

	return patterns, nil
}
