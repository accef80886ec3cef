// Package store provides the memory storage interface and SQLite implementation.
package store

import (
	"context"

	"github.com/memoria-ai/memoria/internal/model"
	"github.com/memoria-ai/memoria/internal/summary"
)

// RememberParams holds parameters for storing a memory.
type RememberParams struct {
	OwnerID string
	Content string
	// Importance defaults to 0.5 when nil. Must be within [0,1].
	Importance       *float64
	EmotionalContext string
	Category         string
	Metadata         map[string]any
	// Timestamp in float seconds since epoch; nil means "now". A pointer so
	// an explicit epoch-zero timestamp stays storable.
	Timestamp *float64
}

// RecallParams holds parameters for retrieving memories.
type RecallParams struct {
	OwnerID string
	// Limit defaults to 10 and is capped at MaxRecallLimit.
	Limit int
	// StartTime/EndTime bound the inclusive time range; nil means unbounded.
	StartTime *float64
	EndTime   *float64
	// MinImportance is clamped to [0,1].
	MinImportance float64
	Category      string
}

// PatternParams holds parameters for recording a learning pattern.
type PatternParams struct {
	PatternType string
	PatternData string
	SuccessRate float64
}

// Store defines the memory persistence interface.
type Store interface {
	// Remember stores a memory and returns its timestamp. Submitting the same
	// (owner, content) pair again is a silent no-op that returns the timestamp
	// of the original record.
	Remember(ctx context.Context, p RememberParams) (float64, error)

	// Recall returns memories matching the filter, newest first.
	Recall(ctx context.Context, p RecallParams) ([]model.MemoryRecord, error)

	// GetRelationship returns the relationship for an owner, or ErrNotFound.
	GetRelationship(ctx context.Context, ownerID string) (*model.Relationship, error)

	// TouchRelationship creates or advances the relationship for an owner
	// outside of a memory write (session start). Non-empty notes overwrite
	// the stored personal notes.
	TouchRelationship(ctx context.Context, ownerID, notes string) (*model.Relationship, error)

	// SummarizeConversation aggregates an owner's memories in [start, end]
	// into statistics and a transcript. Nil end defaults to now, nil start
	// defaults to end minus 24 hours.
	SummarizeConversation(ctx context.Context, ownerID string, start, end *float64) (*summary.Summary, error)

	// RecordPattern appends a learning pattern.
	RecordPattern(ctx context.Context, p PatternParams) (*model.LearningPattern, error)

	// ListPatterns returns stored patterns, optionally filtered by type.
	ListPatterns(ctx context.Context, patternType string) ([]model.LearningPattern, error)

	// Close closes the store.
	Close() error
}
