package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Manager keeps track of live websocket connections per history owner. One
// owner may be connected from several devices at once.
type Manager struct {
	mu          sync.RWMutex
	connections map[string]map[*websocket.Conn]*sync.Mutex // owner -> conn -> write lock
}

func NewManager() *Manager {
	return &Manager{connections: make(map[string]map[*websocket.Conn]*sync.Mutex)}
}

// Register adds a connection for owner.
func (m *Manager) Register(owner string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conns, ok := m.connections[owner]
	if !ok {
		conns = make(map[*websocket.Conn]*sync.Mutex)
		m.connections[owner] = conns
	}
	conns[conn] = &sync.Mutex{}
}

// Unregister closes and removes one connection of owner.
func (m *Manager) Unregister(owner string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conns, ok := m.connections[owner]
	if !ok {
		return
	}
	if _, ok := conns[conn]; ok {
		_ = conn.Close()
		delete(conns, conn)
	}
	if len(conns) == 0 {
		delete(m.connections, owner)
	}
}

// Send writes payload to a single registered connection.
func (m *Manager) Send(owner string, conn *websocket.Conn, payload []byte) error {
	m.mu.RLock()
	lock, ok := m.connections[owner][conn]
	m.mu.RUnlock()
	if !ok {
		return websocket.ErrCloseSent
	}
	lock.Lock()
	defer lock.Unlock()
	return conn.WriteMessage(websocket.TextMessage, payload)
}

// Broadcast sends payload to every connection of owner and returns how many
// writes succeeded. Connections that fail are dropped.
func (m *Manager) Broadcast(owner string, payload []byte) int {
	m.mu.RLock()
	targets := make(map[*websocket.Conn]*sync.Mutex, len(m.connections[owner]))
	for conn, lock := range m.connections[owner] {
		targets[conn] = lock
	}
	m.mu.RUnlock()

	sent := 0
	for conn, lock := range targets {
		lock.Lock()
		err := conn.WriteMessage(websocket.TextMessage, payload)
		lock.Unlock()
		if err != nil {
			m.Unregister(owner, conn)
			continue
		}
		sent++
	}
	return sent
}

// Count returns how many connections owner has open.
func (m *Manager) Count(owner string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections[owner])
}

// Owners returns a copy of the owners with at least one connection.
func (m *Manager) Owners() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	owners := make([]string, 0, len(m.connections))
	for owner := range m.connections {
		owners = append(owners, owner)
	}
	return owners
}
