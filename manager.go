package mudterm

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Manager tracks live sessions by id. Sessions themselves are
// single-threaded; the manager only guards its own registry, so sessions
// can be created and torn down from a different goroutine than the one
// feeding them.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates an empty session registry.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Create builds a session from cfg and registers it under a fresh id.
func (m *Manager) Create(cfg SessionConfig) (string, *Session, error) {
	s, err := NewSession(cfg)
	if err != nil {
		return "", nil, err
	}
	id := uuid.NewString()
	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	return id, s, nil
}

// Get looks up a session by id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Remove closes and unregisters a session.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("manager: no session %q", id)
	}
	return s.Close()
}

// IDs returns the registered session ids in no particular order.
func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Close tears down every registered session, returning the first error.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var first error
	for id, s := range m.sessions {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
		delete(m.sessions, id)
	}
	return first
}

var (
	defaultManager   *Manager
	defaultManagerMu sync.Mutex
)

// InitManager installs the process-wide session registry. Call once at
// startup before Sessions.
func InitManager() *Manager {
	defaultManagerMu.Lock()
	defer defaultManagerMu.Unlock()
	if defaultManager == nil {
		defaultManager = NewManager()
	}
	return defaultManager
}

// Sessions returns the process-wide registry. Panics if InitManager has not
// run; that is a programming error, not a runtime condition.
func Sessions() *Manager {
	defaultManagerMu.Lock()
	defer defaultManagerMu.Unlock()
	if defaultManager == nil {
		panic("mudterm: Sessions called before InitManager")
	}
	return defaultManager
}
