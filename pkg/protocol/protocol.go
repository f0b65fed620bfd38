// Package protocol defines the wire format spoken between chessd and its
// clients: a versioned, line-delimited JSON envelope carrying one of a fixed
// set of typed messages. Every message that can reach the network passes
// through an Envelope so the version check and size cap apply uniformly.
package protocol

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/seekerror/chessd/pkg/chesserr"
)

// Version is the protocol version this build speaks. A client sending any
// other version is rejected at decode time.
const Version = "1.0"

// MaxMessageSize bounds a single encoded envelope, including framing.
const MaxMessageSize = 1024 * 1024

// Type tags the payload carried by an Envelope. Unlike a sum type, Go gives
// us no compiler-enforced exhaustiveness here; Dispatch (in pkg/server)
// is responsible for covering every Type a client may legally send.
type Type string

// Response-carrying tags are suffixed Type (e.g. ConnectResponseType) to
// avoid colliding with the identically-named payload struct in
// messages.go (ConnectResponse): both "the wire tag" and "the payload
// shape" are naturally called ConnectResponse, so one of the two spellings
// has to give.
const (
	// Connection/Authentication.
	Connect               Type = "Connect"
	ConnectResponseType   Type = "ConnectResponse"
	Authenticate          Type = "Authenticate"
	AuthenticateResponseType Type = "AuthenticateResponse"
	Disconnect            Type = "Disconnect"

	// Game management.
	CreateGame             Type = "CreateGame"
	CreateGameResponseType Type = "CreateGameResponse"
	JoinGame               Type = "JoinGame"
	JoinGameResponseType   Type = "JoinGameResponse"
	LeaveGame              Type = "LeaveGame"
	SpectateGame           Type = "SpectateGame"

	// Game play.
	MakeMove   Type = "MakeMove"
	GameUpdate Type = "GameUpdate"
	MoveUpdate Type = "MoveUpdate"

	// Game control.
	OfferDraw      Type = "OfferDraw"
	RespondToDraw  Type = "RespondToDraw"
	Resign         Type = "Resign"
	RequestUndo    Type = "RequestUndo"
	RespondToUndo  Type = "RespondToUndo"

	// Player management.
	GetPlayerInfo                  Type = "GetPlayerInfo"
	GetPlayerInfoResponseType       Type = "GetPlayerInfoResponse"
	UpdatePreferences               Type = "UpdatePreferences"
	GetOnlinePlayers                 Type = "GetOnlinePlayers"
	GetOnlinePlayersResponseType     Type = "GetOnlinePlayersResponse"

	// Game info.
	GetGameList               Type = "GetGameList"
	GetGameListResponseType   Type = "GetGameListResponse"
	GetGameInfo               Type = "GetGameInfo"
	GetGameInfoResponseType   Type = "GetGameInfoResponse"
	GetLegalMoves             Type = "GetLegalMoves"
	GetLegalMovesResponseType Type = "GetLegalMovesResponse"

	// Chat.
	SendMessage Type = "SendMessage"
	ChatMessage Type = "ChatMessage"

	// System.
	Ping      Type = "Ping"
	Pong      Type = "Pong"
	Heartbeat Type = "Heartbeat"
	Error     Type = "Error"
	Success   Type = "Success"
)

var requestTypes = map[Type]bool{
	Connect: true, Authenticate: true, CreateGame: true, JoinGame: true,
	LeaveGame: true, SpectateGame: true, MakeMove: true, OfferDraw: true,
	RespondToDraw: true, Resign: true, RequestUndo: true, RespondToUndo: true,
	GetPlayerInfo: true, UpdatePreferences: true, GetOnlinePlayers: true,
	GetGameList: true, GetGameInfo: true, GetLegalMoves: true, SendMessage: true,
	Ping: true, Disconnect: true,
}

var responseTypes = map[Type]bool{
	ConnectResponseType: true, AuthenticateResponseType: true, CreateGameResponseType: true,
	JoinGameResponseType: true, GetPlayerInfoResponseType: true, GetOnlinePlayersResponseType: true,
	GetGameListResponseType: true, GetGameInfoResponseType: true, GetLegalMovesResponseType: true,
	Success: true, Error: true, Pong: true,
}

// Disconnect flows both directions: a client may send it as a polite
// goodbye before closing its socket, and the server broadcasts it as a
// notification on shutdown. It therefore appears in both classification
// maps.
var notificationTypes = map[Type]bool{
	GameUpdate: true, MoveUpdate: true, ChatMessage: true, Heartbeat: true,
	Disconnect: true,
}

// Envelope is the top-level wire message. Data holds the type-specific
// payload, deferred as raw JSON until the dispatcher knows which struct to
// decode it into. On the wire, Type and Data nest under a "message_type"
// object; MarshalJSON/UnmarshalJSON keep the in-memory struct flat.
type Envelope struct {
	ID        string
	Version   string
	Timestamp int64 // unix millis
	Type      Type
	Data      json.RawMessage
}

type wireEnvelope struct {
	ID          string          `json:"id,omitempty"`
	Version     string          `json:"version"`
	Timestamp   int64           `json:"timestamp"`
	MessageType wireMessageType `json:"message_type"`
}

type wireMessageType struct {
	Type Type            `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireEnvelope{
		ID:          e.ID,
		Version:     e.Version,
		Timestamp:   e.Timestamp,
		MessageType: wireMessageType{Type: e.Type, Data: e.Data},
	})
}

func (e *Envelope) UnmarshalJSON(raw []byte) error {
	var w wireEnvelope
	if err := json.Unmarshal(raw, &w); err != nil {
		return err
	}
	*e = Envelope{
		ID:        w.ID,
		Version:   w.Version,
		Timestamp: w.Timestamp,
		Type:      w.MessageType.Type,
		Data:      w.MessageType.Data,
	}
	return nil
}

// New builds an envelope with no request id, stamped with now.
func New(typ Type, payload interface{}, now int64) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, chesserr.New(chesserr.SerializationError, "encode %v: %v", typ, err)
	}
	return Envelope{Version: Version, Timestamp: now, Type: typ, Data: data}, nil
}

// Request builds a client-originated envelope carrying a fresh request id,
// echoed back on the matching response.
func Request(typ Type, payload interface{}, now int64, requestID string) (Envelope, error) {
	e, err := New(typ, payload, now)
	if err != nil {
		return Envelope{}, err
	}
	e.ID = requestID
	return e, nil
}

// Response builds a server-originated envelope answering requestID.
func Response(typ Type, payload interface{}, now int64, requestID string) (Envelope, error) {
	e, err := New(typ, payload, now)
	if err != nil {
		return Envelope{}, err
	}
	e.ID = requestID
	return e, nil
}

// Notification builds a server-originated envelope with no request id.
func Notification(typ Type, payload interface{}, now int64) (Envelope, error) {
	return New(typ, payload, now)
}

// ErrorEnvelope renders err as an Error envelope answering requestID.
func ErrorEnvelope(err *chesserr.Error, now int64, requestID string) Envelope {
	e, marshalErr := Response(Error, ErrorPayload{
		ErrorCode: err.Code(),
		Message:   err.Message,
		Retryable: err.Retryable(),
		Timestamp: now,
	}, now, requestID)
	if marshalErr != nil {
		// ErrorPayload is always marshalable; this is unreachable in practice.
		return Envelope{Version: Version, Timestamp: now, Type: Error, ID: requestID}
	}
	return e
}

// SuccessEnvelope builds a Success envelope answering requestID, optionally
// carrying a data payload.
func SuccessEnvelope(message string, data interface{}, now int64, requestID string) (Envelope, error) {
	var raw json.RawMessage
	if data != nil {
		d, err := json.Marshal(data)
		if err != nil {
			return Envelope{}, chesserr.New(chesserr.SerializationError, "encode success data: %v", err)
		}
		raw = d
	}
	return Response(Success, SuccessPayload{Message: message, Data: raw}, now, requestID)
}

// Decode parses bytes into an Envelope, enforcing the size cap, UTF-8
// validity and protocol version before returning.
func Decode(raw []byte) (Envelope, error) {
	if len(raw) > MaxMessageSize {
		return Envelope{}, chesserr.New(chesserr.MessageTooLarge, "message of %v bytes exceeds %v byte limit", len(raw), MaxMessageSize)
	}
	if !utf8.Valid(raw) {
		return Envelope{}, chesserr.New(chesserr.InvalidMessage, "message is not valid UTF-8")
	}

	var e Envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return Envelope{}, chesserr.New(chesserr.InvalidMessage, "malformed envelope: %v", err)
	}
	if e.Version != Version {
		return Envelope{}, chesserr.New(chesserr.ProtocolVersionMismatch, "expected version %v, got %v", Version, e.Version)
	}
	return e, nil
}

// Encode renders an envelope as a single line of JSON (no trailing
// newline); the transport layer is responsible for framing.
func (e Envelope) Encode() ([]byte, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, chesserr.New(chesserr.SerializationError, "encode envelope: %v", err)
	}
	if len(raw) > MaxMessageSize {
		return nil, chesserr.New(chesserr.MessageTooLarge, "message of %v bytes exceeds %v byte limit", len(raw), MaxMessageSize)
	}
	return raw, nil
}

// DecodePayload unmarshals the envelope's data payload into v.
func (e Envelope) DecodePayload(v interface{}) error {
	if len(e.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return chesserr.New(chesserr.InvalidMessage, "decode %v payload: %v", e.Type, err)
	}
	return nil
}

func (e Envelope) IsRequest() bool      { return requestTypes[e.Type] }
func (e Envelope) IsResponse() bool     { return responseTypes[e.Type] }
func (e Envelope) IsNotification() bool { return notificationTypes[e.Type] }
