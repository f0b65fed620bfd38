package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/seekerror/chessd/pkg/client"
	"github.com/seekerror/chessd/pkg/config"
	"github.com/seekerror/chessd/pkg/idgen"
	"github.com/seekerror/chessd/pkg/protocol"
	"github.com/seekerror/chessd/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock gives the dispatch-level tests a deterministic, advanceable
// time source instead of the wall clock.
type fakeClock struct{ secs int64 }

func (c *fakeClock) NowSeconds() int64 { return c.secs }

// testServer wires a real Server up behind a real websocket upgrade, so
// each registered client.Client owns an actual transport.Conn the way it
// would in production; the test drives dispatch directly (white-box)
// rather than through the reader pump.
type testServer struct {
	*Server
	httpSrv *httptest.Server
	conns   []*transport.Conn
}

func newTestServer(t *testing.T) (*testServer, *fakeClock) {
	t.Helper()
	clk := &fakeClock{secs: 1_700_000_000}
	s := New(config.Default(), clk, idgen.UUIDSource{})

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		conn, err := transport.Upgrade(w, r)
		require.NoError(t, err)
		connID := r.URL.Query().Get("id")
		c := client.New(connID, conn, s.dispatch, func(string) {})
		s.clients.Add(c)
	})
	httpSrv := httptest.NewServer(mux)

	return &testServer{Server: s, httpSrv: httpSrv}, clk
}

// register dials a fresh websocket connection under connID, giving it a
// real *client.Client in the registry without spawning the pumps (the test
// calls dispatch directly).
func (ts *testServer) register(t *testing.T, connID string) {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.httpSrv.URL, "http") + "/?id=" + connID
	conn, err := transport.Dial(wsURL)
	require.NoError(t, err)
	ts.conns = append(ts.conns, conn)
}

func (ts *testServer) close() {
	for _, c := range ts.conns {
		_ = c.Close()
	}
	ts.httpSrv.Close()
}

// connect registers connID in the client registry with a fresh session and
// player, exercising handleConnect exactly as a reader pump would, and
// returns the resulting client.Info for subsequent dispatch calls.
func connect(t *testing.T, ts *testServer, connID, name string) client.Info {
	t.Helper()
	ts.register(t, connID)

	req, err := protocol.Request(protocol.Connect, protocol.ConnectRequest{PlayerName: name}, 0, "c1")
	require.NoError(t, err)

	info := client.Info{ConnID: connID, IPAddress: "127.0.0.1"}
	resp, err := ts.dispatch(context.Background(), req, info)
	require.NoError(t, err)
	require.NotNil(t, resp)

	var payload protocol.ConnectResponse
	require.NoError(t, resp.DecodePayload(&payload))

	return client.Info{ConnID: connID, SessionID: payload.SessionID, PlayerID: payload.PlayerID, IPAddress: "127.0.0.1"}
}

func TestDispatch_ConnectCreateJoinMakeMove(t *testing.T) {
	ts, _ := newTestServer(t)
	defer ts.close()
	ctx := context.Background()

	white := connect(t, ts, "conn-white", "alice")
	black := connect(t, ts, "conn-black", "bob")

	createReq, err := protocol.Request(protocol.CreateGame, protocol.CreateGameRequest{ColorPreference: "white"}, 0, "r1")
	require.NoError(t, err)
	createResp, err := ts.dispatch(ctx, createReq, white)
	require.NoError(t, err)
	var created protocol.CreateGameResponse
	require.NoError(t, createResp.DecodePayload(&created))
	assert.Equal(t, "white", created.PlayerColor)

	joinReq, err := protocol.Request(protocol.JoinGame, protocol.JoinGameRequest{GameID: created.GameID, ColorPreference: "black"}, 0, "r2")
	require.NoError(t, err)
	joinResp, err := ts.dispatch(ctx, joinReq, black)
	require.NoError(t, err)
	var joined protocol.JoinGameResponse
	require.NoError(t, joinResp.DecodePayload(&joined))
	assert.Equal(t, "black", joined.PlayerColor)
	require.NotNil(t, joined.OpponentInfo)
	assert.Equal(t, "alice", joined.OpponentInfo.Name)

	moveReq, err := protocol.Request(protocol.MakeMove, protocol.MakeMoveRequest{GameID: created.GameID, Move: "e2e4"}, 0, "r3")
	require.NoError(t, err)
	moveResp, err := ts.dispatch(ctx, moveReq, white)
	require.NoError(t, err)
	var success protocol.SuccessPayload
	require.NoError(t, moveResp.DecodePayload(&success))

	// Out-of-turn move is rejected.
	badReq, err := protocol.Request(protocol.MakeMove, protocol.MakeMoveRequest{GameID: created.GameID, Move: "e7e5"}, 0, "r4")
	require.NoError(t, err)
	_, err = ts.dispatch(ctx, badReq, white)
	assert.Error(t, err)

	infoReq, err := protocol.Request(protocol.GetGameInfo, protocol.GetGameInfoRequest{GameID: created.GameID}, 0, "r5")
	require.NoError(t, err)
	infoResp, err := ts.dispatch(ctx, infoReq, black)
	require.NoError(t, err)
	var gameInfo protocol.GetGameInfoResponse
	require.NoError(t, infoResp.DecodePayload(&gameInfo))
	require.NotEmpty(t, gameInfo.GameState.MoveHistory)
	assert.Equal(t, "e2e4", gameInfo.GameState.MoveHistory[len(gameInfo.GameState.MoveHistory)-1])

	assert.EqualValues(t, 1, ts.Statistics().TotalMovesPlayed)
	assert.EqualValues(t, 1, ts.Statistics().TotalGamesCreated)
}

func TestDispatch_PingPongAndRateLimit(t *testing.T) {
	ts, _ := newTestServer(t)
	defer ts.close()
	ctx := context.Background()
	info := connect(t, ts, "conn-1", "")

	sess, ok := ts.sessions.GetSession(info.SessionID)
	require.True(t, ok)
	assert.True(t, sess.IsGuest())

	for i := 0; i < 30; i++ {
		req, err := protocol.Request(protocol.Ping, struct{}{}, 0, "ping")
		require.NoError(t, err)
		resp, err := ts.dispatch(ctx, req, info)
		require.NoError(t, err)
		assert.Equal(t, protocol.Pong, resp.Type)
	}

	req, err := protocol.Request(protocol.Ping, struct{}{}, 0, "ping-31")
	require.NoError(t, err)
	_, err = ts.dispatch(ctx, req, info)
	assert.Error(t, err)
}

func TestDispatch_RequestWithoutSessionFails(t *testing.T) {
	ts, _ := newTestServer(t)
	defer ts.close()
	req, err := protocol.Request(protocol.Ping, struct{}{}, 0, "ping")
	require.NoError(t, err)

	_, err = ts.dispatch(context.Background(), req, client.Info{ConnID: "conn-1"})
	assert.Error(t, err)
}

func TestDispatch_UndoIsUnsupported(t *testing.T) {
	ts, _ := newTestServer(t)
	defer ts.close()
	info := connect(t, ts, "conn-1", "alice")

	req, err := protocol.Request(protocol.RequestUndo, struct{}{}, 0, "r1")
	require.NoError(t, err)
	_, err = ts.dispatch(context.Background(), req, info)
	assert.Error(t, err)
}
