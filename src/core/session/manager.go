package session

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const DefaultMaxExchanges = 2

type exchange struct {
	query  string
	answer string
}

// Manager keeps per-session conversation history in memory. History is
// bounded: once a session holds maxExchanges exchanges the oldest is
// evicted. Safe for concurrent use.
type Manager struct {
	mu           sync.RWMutex
	sessions     map[string][]exchange
	maxExchanges int
}

// NewManager creates a Manager keeping at most maxExchanges
// question/answer pairs per session. Non-positive values fall back to
// DefaultMaxExchanges.
func NewManager(maxExchanges int) *Manager {
	if maxExchanges <= 0 {
		maxExchanges = DefaultMaxExchanges
	}
	return &Manager{
		sessions:     make(map[string][]exchange),
		maxExchanges: maxExchanges,
	}
}

// Create registers a new empty session and returns its id
func (m *Manager) Create() string {
	id := uuid.New().String()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = nil

	return id
}

// AddExchange appends a question/answer pair to the session, evicting the
// oldest pair when the cap is reached. Unknown ids create the session.
func (m *Manager) AddExchange(id string, query string, answer string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	history := append(m.sessions[id], exchange{query: query, answer: answer})
	if len(history) > m.maxExchanges {
		history = history[len(history)-m.maxExchanges:]
	}
	m.sessions[id] = history
}

// History renders the session's exchanges oldest first as
// "User: ...\nAssistant: ..." blocks. Unknown ids yield an empty string.
func (m *Manager) History(id string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := m.sessions[id]
	if len(history) == 0 {
		return ""
	}

	parts := make([]string, 0, len(history))
	for _, ex := range history {
		parts = append(parts, fmt.Sprintf("User: %s\nAssistant: %s", ex.query, ex.answer))
	}

	return strings.Join(parts, "\n")
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
