package clientreg_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/seekerror/chessd/pkg/chesserr"
	"github.com/seekerror/chessd/pkg/client"
	"github.com/seekerror/chessd/pkg/clientreg"
	"github.com/seekerror/chessd/pkg/protocol"
	"github.com/seekerror/chessd/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// harness spins up one real websocket connection (client-side dialed,
// server-side upgraded) and wraps the server side in a client.Client, so
// the registry is exercised against the same transport it runs in
// production rather than a fake.
type harness struct {
	reg     *clientreg.Registry
	clients []*client.Client
	dialed  []*transport.Conn
	srv     *httptest.Server
}

// newHarness builds the registry plus n live connections. start controls
// whether each server-side client's pumps run: back-pressure tests keep
// them stopped so the outbound queue genuinely fills.
func newHarness(t *testing.T, n int, dispatch client.Dispatch, start bool) *harness {
	t.Helper()
	h := &harness{reg: clientreg.New()}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		conn, err := transport.Upgrade(w, r)
		require.NoError(t, err)
		c := client.New(r.URL.Query().Get("id"), conn, dispatch, func(string) {})
		h.reg.Add(c)
		h.clients = append(h.clients, c)
		if start {
			c.Start(context.Background())
		}
	})
	h.srv = httptest.NewServer(mux)

	wsURL := "ws" + strings.TrimPrefix(h.srv.URL, "http")
	for i := 0; i < n; i++ {
		conn, err := transport.Dial(fmt.Sprintf("%s?id=conn-%d", wsURL, i))
		require.NoError(t, err)
		h.dialed = append(h.dialed, conn)
	}
	// give the server goroutines a moment to register before assertions run.
	time.Sleep(50 * time.Millisecond)
	return h
}

func (h *harness) close() {
	for _, c := range h.dialed {
		_ = c.Close()
	}
	h.srv.Close()
}

func noopDispatch(ctx context.Context, env protocol.Envelope, info client.Info) (*protocol.Envelope, error) {
	return nil, nil
}

func TestRegistry_AddGetRemove(t *testing.T) {
	h := newHarness(t, 1, noopDispatch, false)
	defer h.close()

	require.Len(t, h.clients, 1)
	c := h.clients[0]

	got, ok := h.reg.Get(c.ID())
	assert.True(t, ok)
	assert.Equal(t, c, got)

	removed, ok := h.reg.Remove(c.ID())
	assert.True(t, ok)
	assert.Equal(t, c, removed)

	_, ok = h.reg.Get(c.ID())
	assert.False(t, ok)
}

func TestRegistry_AssociatePlayerAndSessionAreTripleConsistent(t *testing.T) {
	h := newHarness(t, 1, noopDispatch, false)
	defer h.close()
	c := h.clients[0]

	require.NoError(t, h.reg.AssociatePlayer(c.ID(), "player-1"))
	require.NoError(t, h.reg.AssociateSession(c.ID(), "session-1"))

	byPlayer, ok := h.reg.GetByPlayer("player-1")
	assert.True(t, ok)
	assert.Equal(t, c.ID(), byPlayer.ID())

	bySession, ok := h.reg.GetBySession("session-1")
	assert.True(t, ok)
	assert.Equal(t, c.ID(), bySession.ID())

	h.reg.Remove(c.ID())
	_, ok = h.reg.GetByPlayer("player-1")
	assert.False(t, ok)
	_, ok = h.reg.GetBySession("session-1")
	assert.False(t, ok)
}

func TestRegistry_AssociateUnknownConnectionFails(t *testing.T) {
	reg := clientreg.New()
	err := reg.AssociatePlayer("missing-conn", "player-1")
	assert.Error(t, err)
}

func TestRegistry_BroadcastReachesEveryClient(t *testing.T) {
	const n = 5
	h := newHarness(t, n, noopDispatch, false)
	defer h.close()

	env, err := protocol.Notification(protocol.Heartbeat, struct{}{}, 1)
	require.NoError(t, err)

	count := h.reg.Broadcast(env)
	assert.Equal(t, n, count)
}

func TestRegistry_BroadcastToSlowClientReturnsConnectionLostWithoutBlockingOthers(t *testing.T) {
	const n = 3
	h := newHarness(t, n, noopDispatch, false)
	defer h.close()

	slow := h.clients[0]
	// Never read on the dialed side for this connection and fill its queue
	// beyond capacity so the next enqueue observes back-pressure.
	for i := 0; i < client.OutboundQueueSize+1; i++ {
		env, err := protocol.Notification(protocol.Heartbeat, struct{}{}, 1)
		require.NoError(t, err)
		_ = slow.Enqueue(env)
	}
	assert.Equal(t, client.Disconnecting, slow.State())

	env, err := protocol.Notification(protocol.Heartbeat, struct{}{}, 1)
	require.NoError(t, err)
	cerr, ok := chesserr.As(slow.Enqueue(env))
	require.True(t, ok)
	assert.Equal(t, chesserr.ConnectionLost, cerr.Kind)

	count := h.reg.Broadcast(env)
	assert.Equal(t, n-1, count)
}

func TestRegistry_CleanupDisconnectedRemovesOnlyDisconnected(t *testing.T) {
	h := newHarness(t, 2, noopDispatch, true)
	defer h.close()

	h.clients[0].Disconnect()
	time.Sleep(50 * time.Millisecond)
	h.clients[0].SetState(client.Disconnected)

	removed := h.reg.CleanupDisconnected()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, h.reg.Count())
}
