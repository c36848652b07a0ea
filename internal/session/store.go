package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("session not found")
	// ErrVersionConflict is returned when an update races another writer.
	ErrVersionConflict = errors.New("session version conflict")
)

// Store persists session state. Get returns (nil, nil) when the session is
// not found; absence is not an error.
type Store interface {
	Create(ctx context.Context, data *Data) error
	Get(ctx context.Context, id string) (*Data, error)

	// Update persists an existing session with optimistic locking: the
	// stored Version must match data.Version, which is then incremented.
	Update(ctx context.Context, data *Data) error

	Delete(ctx context.Context, id string) error
	Close() error
}

// MemoryStore implements Store using an in-memory map with optimistic locking.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Data
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Data),
	}
}

// Create implements Store.
func (s *MemoryStore) Create(ctx context.Context, data *Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	data.CreatedAt = now
	data.UpdatedAt = now
	data.Version = 1

	s.sessions[data.ID] = cloneData(data)
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Data, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, exists := s.sessions[id]
	if !exists {
		return nil, nil
	}
	return cloneData(data), nil
}

// Update implements Store.
func (s *MemoryStore) Update(ctx context.Context, data *Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.sessions[data.ID]
	if !exists {
		return ErrNotFound
	}

	if stored.Version != data.Version {
		return ErrVersionConflict
	}

	data.Version++
	data.UpdatedAt = time.Now()

	s.sessions[data.ID] = cloneData(data)
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = nil
	return nil
}

// cloneData copies a session so callers never share the stored value.
func cloneData(d *Data) *Data {
	out := *d
	out.ConversationHistory = append([]Message(nil), d.ConversationHistory...)
	if d.ClientData.PreApproval != nil {
		v := *d.ClientData.PreApproval
		out.ClientData.PreApproval = &v
	}
	if d.ClientData.Extra != nil {
		extra := make(map[string]string, len(d.ClientData.Extra))
		for k, v := range d.ClientData.Extra {
			extra[k] = v
		}
		out.ClientData.Extra = extra
	}
	return &out
}
