package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/commercegrid/acp-checkout-backend/pkg/types"
)

// MemoryStore holds sessions in a process-local map. Dev and test backend;
// sessions vanish on restart and never expire.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*types.CheckoutSession
	now      func() time.Time
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*types.CheckoutSession),
		now:      time.Now,
	}
}

func (m *MemoryStore) Create(_ context.Context, session *types.CheckoutSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.CheckoutID] = session.Clone()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, checkoutID string) (*types.CheckoutSession, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[checkoutID]
	if !ok {
		return nil, false, nil
	}
	return session.Clone(), true, nil
}

func (m *MemoryStore) Update(_ context.Context, checkoutID string, patch Patch) (*types.CheckoutSession, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[checkoutID]
	if !ok {
		return nil, false, nil
	}

	updated := session.Clone()
	patch.Apply(updated)
	updated.UpdatedAt = m.now().UTC()
	m.sessions[checkoutID] = updated

	return updated.Clone(), true, nil
}

func (m *MemoryStore) Delete(_ context.Context, checkoutID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[checkoutID]; !ok {
		return false, nil
	}
	delete(m.sessions, checkoutID)
	return true, nil
}

func (m *MemoryStore) CountActive(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.sessions)), nil
}
