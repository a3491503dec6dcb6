// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package room

import (
	"sync"
	"time"
)

// emptyGracePeriod is how long an empty room is kept around before Manager
// drops it, so a peer that reconnects moments after a transient disconnect
// finds its passphrase and target registry still intact.
const emptyGracePeriod = 60 * time.Second

// Manager owns the set of live rooms, keyed by room id. Room lookup and
// creation race across every HTTP handler, so the map itself needs its own
// lock even though each Room serializes its own internal state independently.
type Manager struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

// NewManager returns an empty room registry.
func NewManager() *Manager {
	return &Manager{rooms: make(map[string]*Room)}
}

// GetOrCreate returns the room for id, creating it lazily on first reference.
func (m *Manager) GetOrCreate(id string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[id]; ok {
		return r
	}
	r := New(id)
	m.rooms[id] = r
	return r
}

// Get returns the room for id without creating it.
func (m *Manager) Get(id string) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	return r, ok
}

// ScheduleCleanupIfEmpty arms a delayed sweep of id: if the room is still
// empty once emptyGracePeriod elapses, it is dropped from the registry.
// Call this after any peer removal that might leave a room with no peers.
func (m *Manager) ScheduleCleanupIfEmpty(id string) {
	time.AfterFunc(emptyGracePeriod, func() {
		m.mu.Lock()
		r, ok := m.rooms[id]
		if !ok {
			m.mu.Unlock()
			return
		}
		if !r.IsEmpty() {
			m.mu.Unlock()
			return
		}
		delete(m.rooms, id)
		m.mu.Unlock()
	})
}

// Count returns the number of live rooms, for the operator CLI and tests.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}

// AggregateStats sums peer connection counts across every live room, for
// internal/debug's memory monitor: read alongside the goroutine count, it
// distinguishes a busy relay from a leaking one.
func (m *Manager) AggregateStats() (rooms, connections int) {
	m.mu.Lock()
	live := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		live = append(live, r)
	}
	m.mu.Unlock()

	rooms = len(live)
	for _, r := range live {
		s := r.StatusSnapshot()
		if s.BrowserConnected {
			connections++
		}
		if s.LocalConnected {
			connections++
		}
		connections += s.AgentCount
	}
	return rooms, connections
}
