// Package session keeps the per-client AuthSession values, keyed by an
// opaque cookie token. Sessions are ephemeral: nothing here survives a
// restart, and logout discards the entry entirely.
package session

import (
	"sync"
	"time"

	"github.com/quartermasterhq/quartermaster/internal/domain"
	"github.com/quartermasterhq/quartermaster/pkg/cryptox"
)

// DefaultTTL is how long an idle session is retained.
const DefaultTTL = 12 * time.Hour

type entry struct {
	sess      *domain.AuthSession
	expiresAt time.Time
}

// Manager maps session tokens to AuthSession values. Each client holds one
// logical session and issues requests sequentially; the manager's lock only
// guards the map itself, not the session state machines.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time
}

func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create allocates a fresh session in the login step and returns its token.
// Tokens carry 256 bits of entropy.
func (m *Manager) Create() (string, *domain.AuthSession, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", nil, err
	}

	sess := domain.NewAuthSession()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.purgeExpiredLocked()
	m.sessions[token] = &entry{
		sess:      sess,
		expiresAt: m.now().Add(m.ttl),
	}
	return token, sess, nil
}

// Get returns the session for token, extending its lifetime. Expired or
// unknown tokens return false.
func (m *Manager) Get(token string) (*domain.AuthSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[token]
	if !ok {
		return nil, false
	}
	if m.now().After(e.expiresAt) {
		delete(m.sessions, token)
		return nil, false
	}
	e.expiresAt = m.now().Add(m.ttl)
	return e.sess, true
}

// Destroy removes a session. Destroying an unknown token is a no-op.
func (m *Manager) Destroy(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) purgeExpiredLocked() {
	now := m.now()
	for token, e := range m.sessions {
		if now.After(e.expiresAt) {
			delete(m.sessions, token)
		}
	}
}
