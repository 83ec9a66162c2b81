package repository

import (
	"sync"

	drepo "ArbPilot/internal/domain/repository"
)

// MemoryCursorStore keeps per-stream cursors in process memory. Positions are
// lost on restart; the process resumes from the live tail. That limitation is
// deliberate, see DESIGN.md.
type MemoryCursorStore struct {
	mu      sync.RWMutex
	cursors map[string]string
}

// NewMemoryCursorStore initializes every configured stream at the live-tail
// sentinel.
func NewMemoryCursorStore(streams []string) *MemoryCursorStore {
	cursors := make(map[string]string, len(streams))
	for _, s := range streams {
		cursors[s] = drepo.CursorLiveTail
	}
	return &MemoryCursorStore{cursors: cursors}
}

// Get returns the stream's cursor, or the live-tail sentinel for an unknown
// stream.
func (m *MemoryCursorStore) Get(stream string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.cursors[stream]; ok {
		return id
	}
	return drepo.CursorLiveTail
}

// Advance moves the stream's cursor to id.
func (m *MemoryCursorStore) Advance(stream, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursors[stream] = id
}
