// Package clientreg implements the triple-keyed client registry: a
// single source of truth for every live connection, indexed by connection
// id (authoritative), player id and session id, plus the broadcast/targeted
// send primitives the dispatch layer fans out through.
package clientreg

import (
	"sync"
	"time"

	"github.com/seekerror/chessd/pkg/chesserr"
	"github.com/seekerror/chessd/pkg/client"
	"github.com/seekerror/chessd/pkg/protocol"
)

// Registry owns the three indices. A single reader/writer lock guards all
// of them together, since add/remove/associate must keep all three
// consistent atomically: reads (lookup, broadcast snapshot) take a
// shared lock, mutations take it exclusively.
type Registry struct {
	mu sync.RWMutex

	byConn    map[string]*client.Client
	byPlayer  map[string]string // player id -> conn id
	bySession map[string]string // session id -> conn id

	peakConcurrent int
}

// New returns an empty client registry.
func New() *Registry {
	return &Registry{
		byConn:    make(map[string]*client.Client),
		byPlayer:  make(map[string]string),
		bySession: make(map[string]string),
	}
}

// Add registers a newly accepted connection.
func (r *Registry) Add(c *client.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byConn[c.ID()] = c
	if len(r.byConn) > r.peakConcurrent {
		r.peakConcurrent = len(r.byConn)
	}
}

// Remove tears down all three index entries for connID atomically.
func (r *Registry) Remove(connID string) (*client.Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(connID)
}

func (r *Registry) removeLocked(connID string) (*client.Client, bool) {
	c, ok := r.byConn[connID]
	if !ok {
		return nil, false
	}
	delete(r.byConn, connID)
	if pid := c.PlayerID(); pid != "" {
		if r.byPlayer[pid] == connID {
			delete(r.byPlayer, pid)
		}
	}
	if sid := c.SessionID(); sid != "" {
		if r.bySession[sid] == connID {
			delete(r.bySession, sid)
		}
	}
	return c, true
}

// Get returns the client for connID.
func (r *Registry) Get(connID string) (*client.Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byConn[connID]
	return c, ok
}

// GetByPlayer returns the client currently bound to playerID.
func (r *Registry) GetByPlayer(playerID string) (*client.Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	connID, ok := r.byPlayer[playerID]
	if !ok {
		return nil, false
	}
	c, ok := r.byConn[connID]
	return c, ok
}

// GetBySession returns the client currently bound to sessionID.
func (r *Registry) GetBySession(sessionID string) (*client.Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	connID, ok := r.bySession[sessionID]
	if !ok {
		return nil, false
	}
	c, ok := r.byConn[connID]
	return c, ok
}

// AssociatePlayer binds connID to playerID in both the client and the
// registry's player index.
func (r *Registry) AssociatePlayer(connID, playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byConn[connID]
	if !ok {
		return chesserr.New(chesserr.PlayerNotFound, "connection %v not found", connID)
	}
	if prev := c.PlayerID(); prev != "" && r.byPlayer[prev] == connID {
		delete(r.byPlayer, prev)
	}
	c.BindPlayer(playerID)
	r.byPlayer[playerID] = connID
	return nil
}

// AssociateSession binds connID to sessionID in both the client and the
// registry's session index.
func (r *Registry) AssociateSession(connID, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byConn[connID]
	if !ok {
		return chesserr.New(chesserr.PlayerNotFound, "connection %v not found", connID)
	}
	if prev := c.SessionID(); prev != "" && r.bySession[prev] == connID {
		delete(r.bySession, prev)
	}
	c.BindSession(sessionID)
	r.bySession[sessionID] = connID
	return nil
}

// snapshot returns the current set of client handles under the read lock,
// releasing it before any caller starts enqueueing: broadcasting must never
// hold the registry lock across the (potentially slow) per-client enqueue.
func (r *Registry) snapshot() []*client.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*client.Client, 0, len(r.byConn))
	for _, c := range r.byConn {
		out = append(out, c)
	}
	return out
}

// Broadcast enqueues msg on every known client and returns the count
// successfully enqueued. Slow-queue clients fail their own enqueue and are
// marked Disconnecting, without blocking the rest of the fan-out.
func (r *Registry) Broadcast(msg protocol.Envelope) int {
	n := 0
	for _, c := range r.snapshot() {
		if c.Enqueue(msg) == nil {
			n++
		}
	}
	return n
}

// BroadcastToAuthenticated enqueues msg on every client whose state is at
// least Authenticated.
func (r *Registry) BroadcastToAuthenticated(msg protocol.Envelope) int {
	n := 0
	for _, c := range r.snapshot() {
		switch c.State() {
		case client.Authenticated, client.InGame:
			if c.Enqueue(msg) == nil {
				n++
			}
		}
	}
	return n
}

// SendToPlayer enqueues msg on playerID's connection, if any.
func (r *Registry) SendToPlayer(playerID string, msg protocol.Envelope) error {
	c, ok := r.GetByPlayer(playerID)
	if !ok {
		return chesserr.New(chesserr.PlayerNotFound, "no connection for player %v", playerID)
	}
	return c.Enqueue(msg)
}

// SendToPlayers enqueues msg on every connected player in playerIDs,
// returning the count successfully enqueued.
func (r *Registry) SendToPlayers(playerIDs []string, msg protocol.Envelope) int {
	n := 0
	for _, id := range playerIDs {
		if r.SendToPlayer(id, msg) == nil {
			n++
		}
	}
	return n
}

// CleanupDisconnected removes every client whose state is Disconnected.
func (r *Registry) CleanupDisconnected() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var dead []string
	for id, c := range r.byConn {
		if c.State() == client.Disconnected {
			dead = append(dead, id)
		}
	}
	for _, id := range dead {
		r.removeLocked(id)
	}
	return len(dead)
}

// Count returns the number of currently registered connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}

// Statistics aggregates counters across every registered client.
type Statistics struct {
	Total             int
	PeakConcurrent    int
	PerState          map[client.State]int
	AverageConnected  time.Duration
}

// GetStatistics returns a point-in-time aggregate over every client.
func (r *Registry) GetStatistics() Statistics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Statistics{
		Total:          len(r.byConn),
		PeakConcurrent: r.peakConcurrent,
		PerState:       make(map[client.State]int),
	}

	var total time.Duration
	for _, c := range r.byConn {
		stats.PerState[c.State()]++
		total += time.Since(c.ConnectedAt())
	}
	if stats.Total > 0 {
		stats.AverageConnected = total / time.Duration(stats.Total)
	}
	return stats
}
