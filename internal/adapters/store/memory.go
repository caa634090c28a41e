package store

import (
	"context"
	"sync"

	"github.com/studylink/gateway/internal/domain"
)

// Memory is a process-lifetime MembershipStore for development and tests.
type Memory struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]map[domain.UserID]struct{}
}

func NewMemory() *Memory {
	return &Memory{rooms: make(map[domain.RoomID]map[domain.UserID]struct{})}
}

func (m *Memory) Members(_ context.Context, room domain.RoomID) (map[domain.UserID]struct{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[domain.UserID]struct{}, len(m.rooms[room]))
	for u := range m.rooms[room] {
		out[u] = struct{}{}
	}
	return out, nil
}

func (m *Memory) AddMembers(_ context.Context, room domain.RoomID, users ...domain.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.rooms[room]
	if !ok {
		set = make(map[domain.UserID]struct{}, len(users))
		m.rooms[room] = set
	}
	for _, u := range users {
		set[u] = struct{}{}
	}
	return nil
}

func (m *Memory) RemoveMember(_ context.Context, room domain.RoomID, user domain.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms[room], user)
	return nil
}
