package session_test

import (
	"testing"
	"time"

	"github.com/seekerror/chessd/pkg/idgen"
	"github.com/seekerror/chessd/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_GuestPermissions(t *testing.T) {
	s := session.NewGuest("sess-1", "abcd1234", "127.0.0.1", "TestClient/1.0")

	assert.True(t, s.IsGuest())
	assert.False(t, s.CanCreateGame())
	assert.True(t, s.CanSpectate())
}

func TestSession_CanSpectateIsIndependentOfChat(t *testing.T) {
	s := session.New("sess-1", "player-1", "127.0.0.1", "")
	s.SetPermissions(session.Permissions{CanSpectate: true, CanChat: false})

	assert.True(t, s.CanSpectate())
	assert.False(t, s.CanChat())
}

func TestSession_Authenticate(t *testing.T) {
	s := session.NewGuest("sess-1", "abcd1234", "127.0.0.1", "")
	assert.True(t, s.IsGuest())

	s.Authenticate("authenticated-player")
	assert.False(t, s.IsGuest())
	assert.Equal(t, "authenticated-player", s.PlayerID())
}

func TestSession_RateLimiting(t *testing.T) {
	s := session.New("sess-1", "player-1", "127.0.0.1", "")
	s.SetRateLimiter(5, 1)

	for i := 0; i < 5; i++ {
		assert.True(t, s.CanPerformAction(1))
	}
	assert.False(t, s.CanPerformAction(1))
}

func TestSession_Permissions(t *testing.T) {
	s := session.New("sess-1", "player-1", "127.0.0.1", "")

	assert.True(t, s.CanCreateGame())
	assert.False(t, s.IsAdmin())

	s.PromoteToAdmin()
	assert.True(t, s.IsAdmin())
	assert.True(t, s.IsModerator())

	s.Ban()
	assert.False(t, s.CanCreateGame())
	assert.False(t, s.CanJoinGame())
}

func newManager(timeout time.Duration) *session.Manager {
	return session.NewManager(idgen.UUIDSource{}, timeout, session.DefaultRateLimits())
}

func TestManager_CreateSession(t *testing.T) {
	m := newManager(time.Hour)

	sessionID, err := m.CreateSession("player-1", "127.0.0.1", "TestClient/1.0")
	require.NoError(t, err)

	_, ok := m.GetSession(sessionID)
	assert.True(t, ok)
	_, ok = m.GetSessionByPlayer("player-1")
	assert.True(t, ok)
	assert.Equal(t, 1, m.ActiveSessionCount())
}

func TestManager_PerIPSessionCap(t *testing.T) {
	m := newManager(time.Hour)

	for i := 0; i < 3; i++ {
		_, err := m.CreateSession(playerName(i), "127.0.0.1", "")
		require.NoError(t, err)
	}
	assert.Len(t, m.SessionsByIP("127.0.0.1"), 3)

	for _, name := range []string{"player3", "player4"} {
		_, err := m.CreateSession(name, "127.0.0.1", "")
		require.NoError(t, err)
	}
	_, err := m.CreateSession("player5", "127.0.0.1", "")
	assert.Error(t, err)
}

func TestManager_GuestSessionsCappedPerIP(t *testing.T) {
	m := newManager(time.Hour)

	for i := 0; i < 10; i++ {
		_, err := m.CreateGuestSession("10.0.0.1", "")
		require.NoError(t, err)
	}
	_, err := m.CreateGuestSession("10.0.0.1", "")
	assert.Error(t, err)

	// A different IP is unaffected.
	_, err = m.CreateGuestSession("10.0.0.2", "")
	assert.NoError(t, err)
}

func TestManager_SessionReuseByPlayer(t *testing.T) {
	m := newManager(time.Hour)

	first, err := m.CreateSession("player-1", "127.0.0.1", "")
	require.NoError(t, err)
	second, err := m.CreateSession("player-1", "127.0.0.1", "")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, m.ActiveSessionCount())
}

func TestManager_CleanupExpiredSessions(t *testing.T) {
	m := newManager(50 * time.Millisecond)

	_, err := m.CreateSession("expired-1", "127.0.0.1", "")
	require.NoError(t, err)
	_, err = m.CreateSession("expired-2", "127.0.0.1", "")
	require.NoError(t, err)

	time.Sleep(80 * time.Millisecond)

	fresh, err := m.CreateSession("fresh", "127.0.0.1", "")
	require.NoError(t, err)

	assert.Equal(t, 2, m.CleanupExpiredSessions())
	assert.Equal(t, 1, m.ActiveSessionCount())
	_, ok := m.GetSession(fresh)
	assert.True(t, ok)
	_, ok = m.GetSessionByPlayer("expired-1")
	assert.False(t, ok)
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	r := session.NewRateLimiter(2, 10) // 10 tokens/sec for a fast test

	assert.True(t, r.TryConsume(1))
	assert.True(t, r.TryConsume(1))
	assert.False(t, r.TryConsume(1))

	time.Sleep(150 * time.Millisecond)
	assert.True(t, r.TryConsume(1)) // ~1.5 tokens refilled
}

func playerName(i int) string {
	names := []string{"player0", "player1", "player2"}
	return names[i]
}
