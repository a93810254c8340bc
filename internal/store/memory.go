// apps/go-server/internal/store/memory.go
//
// In-memory registry of live quiz controllers.
//
// Characteristics:
//   - Stores *controller.Controller objects keyed by session ID.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts; quiz sessions are never
//     persisted, only their final results (see internal/results).
//   - Sweep closes and drops controllers idle for longer than a cutoff.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/stemquiz/apps/go-server/internal/controller"
)

// ErrNotFound is returned by Get for unknown session IDs.
var ErrNotFound = errors.New("not_found")

// Store defines the registry interface for quiz sessions.
type Store interface {
	// Save adds or replaces a controller under its ID.
	Save(ctx context.Context, c *controller.Controller) error

	// Get retrieves a controller by session ID.
	Get(ctx context.Context, id string) (*controller.Controller, error)

	// Delete closes and removes a controller. Missing IDs are ignored.
	Delete(ctx context.Context, id string) error

	// Sweep closes and removes controllers idle since before cutoff.
	// Returns the number removed.
	Sweep(ctx context.Context, cutoff time.Time) int

	// Len reports how many controllers are registered.
	Len() int
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex                      // guards sessions map
	sessions map[string]*controller.Controller // keyed by Controller.ID()
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*controller.Controller)}
}

func (m *memory) Save(ctx context.Context, c *controller.Controller) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[c.ID()] = c
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*controller.Controller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.sessions[id]; ok {
		return c, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	c, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		c.Close()
	}
	return nil
}

func (m *memory) Sweep(ctx context.Context, cutoff time.Time) int {
	var stale []*controller.Controller
	m.mu.Lock()
	for id, c := range m.sessions {
		if c.LastActive().Before(cutoff) {
			stale = append(stale, c)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	// Close outside the lock: Close waits for the countdown goroutine.
	for _, c := range stale {
		c.Close()
	}
	return len(stale)
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
