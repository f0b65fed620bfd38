// Package session implements connection-level sessions: identity, per-IP
// and per-player bookkeeping, permissions and token-bucket rate limiting.
// A Session tracks who is talking to the server and what they're allowed
// to do; GameState and Player track what they're doing.
package session

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// guestIDPrefix marks a session's player id as a server-issued guest
// identity rather than a registered player.
const guestIDPrefix = "guest_"

// Session is a single client's authenticated or guest connection context.
type Session struct {
	mu sync.Mutex

	id            string
	playerID      string
	createdAt     time.Time
	lastActivity  time.Time
	ipAddress     string
	userAgent     string
	authenticated bool
	permissions   Permissions
	limiter       *RateLimiter
}

func newSession(id, playerID, ip, userAgent string, authenticated bool, perms Permissions) *Session {
	now := time.Now()
	return &Session{
		id:            id,
		playerID:      playerID,
		createdAt:     now,
		lastActivity:  now,
		ipAddress:     ip,
		userAgent:     userAgent,
		authenticated: authenticated,
		permissions:   perms,
	}
}

// New returns an authenticated session bound to playerID.
func New(id, playerID, ip, userAgent string) *Session {
	return newSession(id, playerID, ip, userAgent, true, DefaultPermissions())
}

// NewGuest returns an unauthenticated guest session with a server-minted
// guest player id.
func NewGuest(id, shortID, ip, userAgent string) *Session {
	return newSession(id, guestIDPrefix+shortID, ip, userAgent, false, GuestPermissions())
}

func (s *Session) ID() string { return s.id }

func (s *Session) PlayerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerID
}

func (s *Session) IPAddress() string { return s.ipAddress }

// Authenticate rebinds the session to a real player id, granting the
// default permission set and clearing the guest marker.
func (s *Session) Authenticate(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playerID = playerID
	s.authenticated = true
	s.permissions = DefaultPermissions()
	s.lastActivity = time.Now()
}

func (s *Session) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
}

// IsExpired reports whether the session has been idle longer than timeout.
func (s *Session) IsExpired(timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastActivity) > timeout
}

func (s *Session) Duration() time.Duration {
	return time.Since(s.createdAt)
}

// SetRateLimiter attaches a token bucket to the session; subsequent calls
// replace the limiter outright.
func (s *Session) SetRateLimiter(capacity, refillRate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limiter = NewRateLimiter(capacity, refillRate)
}

// CanPerformAction consumes cost tokens from the session's rate limiter, if
// any is attached. A session without a limiter is always allowed.
func (s *Session) CanPerformAction(cost float64) bool {
	s.mu.Lock()
	limiter := s.limiter
	s.mu.Unlock()

	if limiter == nil {
		return true
	}
	return limiter.TryConsume(cost)
}

func (s *Session) SetPermissions(p Permissions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.permissions = p
	s.lastActivity = time.Now()
}

func (s *Session) Permissions() Permissions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.permissions
}

func (s *Session) PromoteToModerator() { s.SetPermissions(ModeratorPermissions()) }
func (s *Session) PromoteToAdmin()     { s.SetPermissions(AdminPermissions()) }
func (s *Session) Ban()                { s.SetPermissions(BannedPermissions()) }


// IsGuest reports whether the session is unauthenticated or holds a
// server-minted guest player id.
func (s *Session) IsGuest() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.authenticated || strings.HasPrefix(s.playerID, guestIDPrefix)
}

func (s *Session) CanCreateGame() bool { return s.Permissions().CanCreateGames }
func (s *Session) CanJoinGame() bool   { return s.Permissions().CanJoinGames }

// CanSpectate reports the session's own spectate flag. Tracked
// independently of CanChat: a session can be allowed to watch games while
// muted, or vice versa.
func (s *Session) CanSpectate() bool { return s.Permissions().CanSpectate }
func (s *Session) CanChat() bool     { return s.Permissions().CanChat }
func (s *Session) IsAdmin() bool     { return s.Permissions().IsAdmin }
func (s *Session) IsModerator() bool {
	p := s.Permissions()
	return p.IsModerator || p.IsAdmin
}
func (s *Session) HasElevatedPermissions() bool { return s.IsModerator() || s.IsAdmin() }

func (s *Session) String() string {
	return fmt.Sprintf("session(%v, player=%v, authenticated=%v)", s.id, s.PlayerID(), s.authenticated)
}
