// Package model defines the core memory data types.
package model

import (
	"math"
	"strings"
	"time"
)

// Role identifies who produced a conversational memory.
type Role string

const (
	RoleHuman     Role = "Human"
	RoleAssistant Role = "Assistant"
	RoleUnknown   Role = "Unknown"
)

// MemoryRecord is a single stored conversational event.
type MemoryRecord struct {
	ID               int64          `json:"id"`
	Timestamp        float64        `json:"timestamp"`
	OwnerID          string         `json:"owner_id"`
	Content          string         `json:"content"`
	EmotionalContext string         `json:"emotional_context,omitempty"`
	Importance       float64        `json:"importance"`
	Category         string         `json:"category,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`

	// Fingerprint is derived from (owner_id, content) on insert and is not
	// settable by callers.
	Fingerprint string `json:"-"`
}

// Relationship is the derived per-owner summary state, advanced on every
// accepted memory write for that owner.
type Relationship struct {
	OwnerID           string  `json:"owner_id"`
	FirstContact      float64 `json:"first_contact"`
	LastContact       float64 `json:"last_contact"`
	TrustLevel        float64 `json:"trust_level"`
	TotalInteractions int     `json:"total_interactions"`
	PersonalNotes     string  `json:"personal_notes,omitempty"`
}

// LearningPattern is an opaque stored pattern. Append and read only.
type LearningPattern struct {
	ID          string  `json:"id"`
	PatternType string  `json:"pattern_type"`
	PatternData string  `json:"pattern_data,omitempty"`
	SuccessRate float64 `json:"success_rate"`
	LastUpdated float64 `json:"last_updated"`
	UsageCount  int     `json:"usage_count"`
}

// ClassifyRole splits a record's content into its role and cleaned text.
// Content prefixed "Human:" or "Assistant:" carries its role inline by
// convention; anything else is RoleUnknown with the content untouched.
func ClassifyRole(content string) (Role, string) {
	if rest, ok := strings.CutPrefix(content, "Human:"); ok {
		return RoleHuman, strings.TrimSpace(rest)
	}
	if rest, ok := strings.CutPrefix(content, "Assistant:"); ok {
		return RoleAssistant, strings.TrimSpace(rest)
	}
	return RoleUnknown, content
}

// TimeOf converts a float seconds-since-epoch timestamp to a time.Time.
func TimeOf(ts float64) time.Time {
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(frac*1e9))
}

// TimestampOf converts a time.Time to float seconds since epoch.
func TimestampOf(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
