// Package session tracks the current owner for a capture session so callers
// can write and read memories without repeating identity on every call.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/memoria-ai/memoria/internal/model"
	"github.com/memoria-ai/memoria/internal/store"
)

// ErrUnknownSession is returned for session IDs the manager does not know.
var ErrUnknownSession = errors.New("unknown session")

// Session is one owner's capture session.
type Session struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	StartedAt time.Time `json:"started_at"`
	Greeting  string    `json:"greeting"`
	// New marks a first-ever contact with this owner.
	New bool `json:"new"`
}

// Manager creates sessions and routes their reads and writes to the store.
type Manager struct {
	store store.Store

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(st store.Store) *Manager {
	return &Manager{store: st, sessions: make(map[string]*Session)}
}

// Start opens a session for an owner. A first-ever contact creates the
// relationship with an explicit touch; a returning owner is greeted with
// their existing relationship untouched.
func (m *Manager) Start(ctx context.Context, ownerID string) (*Session, *model.Relationship, error) {
	rel, err := m.store.GetRelationship(ctx, ownerID)
	isNew := false
	switch {
	case errors.Is(err, store.ErrNotFound):
		isNew = true
		rel, err = m.store.TouchRelationship(ctx, ownerID, "")
		if err != nil {
			return nil, nil, err
		}
	case err != nil:
		return nil, nil, err
	}

	greeting := fmt.Sprintf("Welcome back, %s!", ownerID)
	if isNew {
		greeting = fmt.Sprintf("Nice to meet you, %s!", ownerID)
	}

	s := &Session{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		StartedAt: time.Now(),
		Greeting:  greeting,
		New:       isNew,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	return s, rel, nil
}

// Get returns a live session by ID.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// End discards a session. Stored memories are unaffected.
func (m *Manager) End(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Remember stores a memory on behalf of a session's owner.
func (m *Manager) Remember(ctx context.Context, sessionID string, p store.RememberParams) (float64, error) {
	s, ok := m.Get(sessionID)
	if !ok {
		return 0, ErrUnknownSession
	}
	p.OwnerID = s.OwnerID
	return m.store.Remember(ctx, p)
}

// History recalls the session owner's most recent memories.
func (m *Manager) History(ctx context.Context, sessionID string, limit int) ([]model.MemoryRecord, error) {
	s, ok := m.Get(sessionID)
	if !ok {
		return nil, ErrUnknownSession
	}
	return m.store.Recall(ctx, store.RecallParams{OwnerID: s.OwnerID, Limit: limit})
}
