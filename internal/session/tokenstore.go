package session

import (
	"context"
	"sync"

	"github.com/Veraticus/walletflow/internal/common"
	"github.com/Veraticus/walletflow/internal/model"
	"github.com/Veraticus/walletflow/internal/service"
)

// MemoryTokenStore keeps the session in memory. Used by tests and by
// commands run with persistence disabled.
type MemoryTokenStore struct {
	session *model.Session
	mu      sync.Mutex
}

var _ service.TokenStore = (*MemoryTokenStore)(nil)

// NewMemoryTokenStore creates an empty store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

// LoadSession returns the stored session or common.ErrNotFound.
func (m *MemoryTokenStore) LoadSession(_ context.Context) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, common.ErrNotFound
	}
	s := copySession(*m.session)
	return &s, nil
}

// SaveSession replaces the stored session.
func (m *MemoryTokenStore) SaveSession(_ context.Context, session model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := copySession(session)
	m.session = &s
	return nil
}

// ClearSession removes the stored session.
func (m *MemoryTokenStore) ClearSession(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}

func copySession(s model.Session) model.Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
