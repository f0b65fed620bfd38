package session

import (
	"sync"
	"time"

	"github.com/seekerror/chessd/pkg/chesserr"
	"github.com/seekerror/chessd/pkg/idgen"
)

const (
	// maxAuthSessionsPerIP bounds how many authenticated sessions a single
	// IP may hold concurrently.
	maxAuthSessionsPerIP = 5
	// maxTotalSessionsPerIP bounds all sessions, guest included, from one
	// IP.
	maxTotalSessionsPerIP = 10
)

// RateLimits bundles the token-bucket parameters a Manager hands out to the
// sessions it mints, sourced from config.Config so an operator can tune them
// without touching this package.
type RateLimits struct {
	AuthBucketCapacity  float64
	AuthRefillRate      float64
	GuestBucketCapacity float64
	GuestRefillRate     float64
}

// DefaultRateLimits gives an authenticated session 60 actions/minute and a
// guest session half that budget.
func DefaultRateLimits() RateLimits {
	return RateLimits{
		AuthBucketCapacity:  60.0,
		AuthRefillRate:      1.0,
		GuestBucketCapacity: 30.0,
		GuestRefillRate:     0.5,
	}
}

// Manager owns every live session for a server instance: the primary id
// index, a player id -> session id index (one active session per player,
// with reuse-and-refresh of an unexpired one), and an IP -> session ids
// index for per-IP session caps.
type Manager struct {
	ids     idgen.RandomIdSource
	timeout time.Duration
	limits  RateLimits

	mu             sync.RWMutex
	sessions       map[string]*Session
	playerSessions map[string]string   // player id -> session id
	ipSessions     map[string][]string // ip -> session ids
}

// NewManager returns an empty session manager with the given idle timeout
// and rate-limit parameters.
func NewManager(ids idgen.RandomIdSource, timeout time.Duration, limits RateLimits) *Manager {
	return &Manager{
		ids:            ids,
		timeout:        timeout,
		limits:         limits,
		sessions:       make(map[string]*Session),
		playerSessions: make(map[string]string),
		ipSessions:     make(map[string][]string),
	}
}

// CreateSession returns playerID's existing unexpired session if one
// exists, refreshing its activity; otherwise mints a fresh one, subject to
// the per-IP session cap.
func (m *Manager) CreateSession(playerID, ip, userAgent string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existingID, ok := m.playerSessions[playerID]; ok {
		if existing, ok := m.sessions[existingID]; ok && !existing.IsExpired(m.timeout) {
			existing.UpdateActivity()
			return existing.ID(), nil
		}
	}

	if m.authSessionCountLocked(ip) >= maxAuthSessionsPerIP || len(m.ipSessions[ip]) >= maxTotalSessionsPerIP {
		return "", chesserr.New(chesserr.RateLimitExceeded, "too many sessions from %v", ip)
	}

	s := New(m.ids.NewID(), playerID, ip, userAgent)
	s.SetRateLimiter(m.limits.AuthBucketCapacity, m.limits.AuthRefillRate)

	m.removePlayerSessionLocked(playerID)
	m.insertLocked(s, playerID, ip)

	return s.ID(), nil
}

// CreateGuestSession mints a fresh guest session under the looser per-IP
// guest cap.
func (m *Manager) CreateGuestSession(ip, userAgent string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.ipSessions[ip]) >= maxTotalSessionsPerIP {
		return "", chesserr.New(chesserr.Overloaded, "too many guest sessions from %v", ip)
	}

	s := NewGuest(m.ids.NewID(), m.ids.NewShortID(), ip, userAgent)
	s.SetRateLimiter(m.limits.GuestBucketCapacity, m.limits.GuestRefillRate)

	m.insertLocked(s, s.PlayerID(), ip)
	return s.ID(), nil
}

// authSessionCountLocked counts non-guest sessions held by ip. Caller must
// hold m.mu.
func (m *Manager) authSessionCountLocked(ip string) int {
	n := 0
	for _, id := range m.ipSessions[ip] {
		if s, ok := m.sessions[id]; ok && !s.IsGuest() {
			n++
		}
	}
	return n
}

func (m *Manager) insertLocked(s *Session, playerID, ip string) {
	m.sessions[s.ID()] = s
	m.playerSessions[playerID] = s.ID()
	m.ipSessions[ip] = append(m.ipSessions[ip], s.ID())
}

func (m *Manager) GetSession(sessionID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}

func (m *Manager) GetSessionByPlayer(playerID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.playerSessions[playerID]
	if !ok {
		return nil, false
	}
	s, ok := m.sessions[id]
	return s, ok
}

// AuthenticateSession rebinds sessionID to playerID, releasing any prior
// session the player id was bound to.
func (m *Manager) AuthenticateSession(sessionID, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return chesserr.New(chesserr.PlayerNotFound, "session %v not found", sessionID)
	}

	if s.IsGuest() {
		delete(m.playerSessions, s.PlayerID())
	}
	if prevID, ok := m.playerSessions[playerID]; ok && prevID != sessionID {
		m.removeSessionLocked(prevID)
	}
	s.Authenticate(playerID)
	m.playerSessions[playerID] = sessionID
	return nil
}

func (m *Manager) UpdateSessionActivity(sessionID string) error {
	m.mu.RLock()
	s, ok := m.sessions[sessionID]
	m.mu.RUnlock()

	if !ok {
		return chesserr.New(chesserr.PlayerNotFound, "session %v not found", sessionID)
	}
	s.UpdateActivity()
	return nil
}

// RemoveSession deletes sessionID from every index.
func (m *Manager) RemoveSession(sessionID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeSessionLocked(sessionID)
}

func (m *Manager) removeSessionLocked(sessionID string) (*Session, bool) {
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, false
	}
	delete(m.sessions, sessionID)
	delete(m.playerSessions, s.PlayerID())

	ip := s.IPAddress()
	ids := m.ipSessions[ip]
	out := ids[:0]
	for _, id := range ids {
		if id != sessionID {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		delete(m.ipSessions, ip)
	} else {
		m.ipSessions[ip] = out
	}
	return s, true
}

func (m *Manager) removePlayerSessionLocked(playerID string) {
	if id, ok := m.playerSessions[playerID]; ok {
		m.removeSessionLocked(id)
	}
}

// CleanupExpiredSessions removes every session idle longer than the
// manager's timeout and returns the count removed.
func (m *Manager) CleanupExpiredSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expired []string
	for id, s := range m.sessions {
		if s.IsExpired(m.timeout) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		m.removeSessionLocked(id)
	}
	return len(expired)
}

func (m *Manager) ActiveSessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) AuthenticatedSessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.sessions {
		if !s.IsGuest() {
			n++
		}
	}
	return n
}

func (m *Manager) GuestSessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.sessions {
		if s.IsGuest() {
			n++
		}
	}
	return n
}

func (m *Manager) SessionsByIP(ip string) []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.ipSessions[ip]
	out := make([]*Session, 0, len(ids))
	for _, id := range ids {
		if s, ok := m.sessions[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

func (m *Manager) BanIP(ip string) {
	for _, s := range m.SessionsByIP(ip) {
		s.Ban()
	}
}

// Statistics is a point-in-time summary of the session manager's state.
type Statistics struct {
	TotalSessions         int
	AuthenticatedSessions int
	GuestSessions         int
	AdminSessions         int
	ModeratorSessions     int
	UniqueIPs             int
	AverageSessionDur     time.Duration
}

func (m *Manager) GetStatistics() Statistics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Statistics{
		TotalSessions: len(m.sessions),
		UniqueIPs:     len(m.ipSessions),
	}

	var total time.Duration
	for _, s := range m.sessions {
		total += s.Duration()
		if s.IsGuest() {
			stats.GuestSessions++
		} else {
			stats.AuthenticatedSessions++
		}
		if s.IsAdmin() {
			stats.AdminSessions++
		}
		if s.IsModerator() {
			stats.ModeratorSessions++
		}
	}
	if stats.TotalSessions > 0 {
		stats.AverageSessionDur = total / time.Duration(stats.TotalSessions)
	}
	return stats
}
