package protocol_test

import (
	"strings"
	"testing"

	"github.com/seekerror/chessd/pkg/chesserr"
	"github.com/seekerror/chessd/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_EncodeDecodeRoundTrip(t *testing.T) {
	req, err := protocol.Request(protocol.MakeMove, protocol.MakeMoveRequest{
		GameID: "game-1",
		Move:   "e2e4",
	}, 1000, "req-1")
	require.NoError(t, err)

	raw, err := req.Encode()
	require.NoError(t, err)

	decoded, err := protocol.Decode(raw)
	require.NoError(t, err)

	assert.Equal(t, req.ID, decoded.ID)
	assert.Equal(t, req.Type, decoded.Type)
	assert.Equal(t, protocol.Version, decoded.Version)

	var payload protocol.MakeMoveRequest
	require.NoError(t, decoded.DecodePayload(&payload))
	assert.Equal(t, "game-1", payload.GameID)
	assert.Equal(t, "e2e4", payload.Move)
}

func TestDecode_VersionMismatch(t *testing.T) {
	raw := []byte(`{"id":"1","version":"2.0","timestamp":1,"message_type":{"type":"Ping","data":{}}}`)
	_, err := protocol.Decode(raw)
	assert.Error(t, err)
}

func TestDecode_MessageTooLarge(t *testing.T) {
	huge := strings.Repeat("a", protocol.MaxMessageSize+1)
	_, err := protocol.Decode([]byte(huge))
	assert.Error(t, err)
}

func TestDecode_MalformedJSON(t *testing.T) {
	_, err := protocol.Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestEnvelope_TaxonomyClassification(t *testing.T) {
	req, err := protocol.Request(protocol.Ping, struct{}{}, 1, "")
	require.NoError(t, err)
	assert.True(t, req.IsRequest())
	assert.False(t, req.IsResponse())

	resp, err := protocol.Response(protocol.Pong, struct{}{}, 1, "req-1")
	require.NoError(t, err)
	assert.True(t, resp.IsResponse())
	assert.False(t, resp.IsRequest())

	note, err := protocol.Notification(protocol.GameUpdate, protocol.GameUpdateNotification{}, 1)
	require.NoError(t, err)
	assert.True(t, note.IsNotification())
	assert.Empty(t, note.ID)

	// Disconnect is both a client goodbye and a server shutdown broadcast.
	disc, err := protocol.Notification(protocol.Disconnect, protocol.DisconnectRequest{Reason: "bye"}, 1)
	require.NoError(t, err)
	assert.True(t, disc.IsNotification())
	assert.True(t, disc.IsRequest())
}

func TestErrorEnvelope(t *testing.T) {
	err := chesserr.New(chesserr.GameNotFound, "no such game")
	env := protocol.ErrorEnvelope(err, 1, "req-1")
	assert.Equal(t, protocol.Error, env.Type)

	var payload protocol.ErrorPayload
	require.NoError(t, env.DecodePayload(&payload))
	assert.Equal(t, err.Code(), payload.ErrorCode)
}

func TestEnvelope_WireShape(t *testing.T) {
	env, err := protocol.Request(protocol.Ping, struct{}{}, 42, "req-9")
	require.NoError(t, err)

	raw, err := env.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"message_type":{"type":"Ping"`)
	assert.Contains(t, string(raw), `"version":"1.0"`)
}
