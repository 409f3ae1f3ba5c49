// Package gamelog records the player-visible game log. Entries flow from the
// driver loop, which honors each effect's log flags; root entries belong to
// the top-level action, the rest to nested resolutions.
package gamelog

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kingdomhq/kingdom-server-go/internal/engine"
)

// Entry is one recorded game-log line.
type Entry struct {
	Player    string
	Kind      string
	Message   string
	Root      bool
	Timestamp time.Time
}

// Manager implements engine.LogManager backed by zap plus an in-memory
// transcript that the server ships to spectators and persists when the
// match ends.
type Manager struct {
	mu        sync.Mutex
	logger    *zap.Logger
	entries   []Entry
	observers []func(Entry)
}

// NewManager creates a game log writing through the given logger.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{logger: logger}
}

// RootLog implements engine.LogManager.
func (m *Manager) RootLog(entry engine.LogEntry) {
	m.append(entry, true)
}

// Log implements engine.LogManager.
func (m *Manager) Log(entry engine.LogEntry) {
	m.append(entry, false)
}

func (m *Manager) append(entry engine.LogEntry, root bool) {
	e := Entry{
		Player:    entry.Player,
		Kind:      entry.Kind.String(),
		Message:   entry.Message,
		Root:      root,
		Timestamp: time.Now(),
	}
	m.mu.Lock()
	m.entries = append(m.entries, e)
	observers := m.observers
	m.mu.Unlock()

	for _, fn := range observers {
		fn(e)
	}

	m.logger.Debug("game log",
		zap.String("player", e.Player),
		zap.String("kind", e.Kind),
		zap.String("message", e.Message),
		zap.Bool("root", root),
	)
}

// Observe registers fn to receive every entry as it is recorded. The
// callback runs on the recording goroutine and must not block.
func (m *Manager) Observe(fn func(Entry)) {
	m.mu.Lock()
	m.observers = append(m.observers, fn)
	m.mu.Unlock()
}

// Entries returns a copy of the transcript so far.
func (m *Manager) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}
