package protocol

import "encoding/json"

// Moves and squares cross the wire as plain algebraic strings ("e2e4",
// "a7a8q"), not as board.Move: the wire format should not change shape every
// time the board package's internal representation does.

type ConnectRequest struct {
	PlayerName    string `json:"playerName,omitempty"`
	ClientVersion string `json:"clientVersion,omitempty"`
	UserAgent     string `json:"userAgent,omitempty"`
}

type ConnectResponse struct {
	SessionID  string     `json:"sessionId"`
	PlayerID   string     `json:"playerId"`
	ServerInfo ServerInfo `json:"serverInfo"`
}

type ServerInfo struct {
	ServerName      string   `json:"serverName"`
	Version         string   `json:"version"`
	MaxPlayers      int      `json:"maxPlayers"`
	CurrentPlayers  int      `json:"currentPlayers"`
	Features        []string `json:"features"`
}

type AuthenticateRequest struct {
	PlayerName   string `json:"playerName"`
	SessionToken string `json:"sessionToken,omitempty"`
}

type AuthenticateResponse struct {
	PlayerID           string      `json:"playerId"`
	PlayerInfo         DisplayInfo `json:"playerInfo"`
	SessionExpiresAtMs int64       `json:"sessionExpiresAtMs"`
}

type DisconnectRequest struct {
	Reason string `json:"reason,omitempty"`
}

type TimeControl struct {
	InitialTimeSecs int    `json:"initialTimeSecs"`
	IncrementSecs   int    `json:"incrementSecs"`
	Name            string `json:"name"`
}

type CreateGameRequest struct {
	TimeControl      *TimeControl `json:"timeControl,omitempty"`
	ColorPreference  string       `json:"colorPreference,omitempty"` // "white" | "black" | ""
}

type CreateGameResponse struct {
	GameID      string `json:"gameId"`
	PlayerColor string `json:"playerColor"`
}

type JoinGameRequest struct {
	GameID          string `json:"gameId"`
	ColorPreference string `json:"colorPreference,omitempty"`
}

type JoinGameResponse struct {
	GameID       string            `json:"gameId"`
	PlayerColor  string            `json:"playerColor"`
	OpponentInfo *DisplayInfo      `json:"opponentInfo,omitempty"`
	GameState    GameStateSnapshot `json:"gameState"`
}

type LeaveGameRequest struct {
	GameID string `json:"gameId"`
	Reason string `json:"reason,omitempty"`
}

type SpectateGameRequest struct {
	GameID string `json:"gameId"`
}

type MakeMoveRequest struct {
	GameID      string `json:"gameId"`
	Move        string `json:"move"` // e.g. "e2e4", "a7a8q"
	MoveTimeMs  int64  `json:"moveTimeMs,omitempty"`
}

type GameUpdateNotification struct {
	GameID       string            `json:"gameId"`
	GameState    GameStateSnapshot `json:"gameState"`
	LastMove     string            `json:"lastMove,omitempty"`
	PlayerToMove string            `json:"playerToMove"`
	IsCheck      bool              `json:"isCheck"`
	GameResult   *GameResult       `json:"gameResult,omitempty"`
}

type MoveUpdateNotification struct {
	GameID            string `json:"gameId"`
	Move              string `json:"move"`
	Player            string `json:"player"`
	MoveNumber        int    `json:"moveNumber"`
	TimeTakenMs       int64  `json:"timeTakenMs,omitempty"`
	ResultingPosition string `json:"resultingPosition"` // FEN
}

type OfferDrawRequest struct {
	GameID  string `json:"gameId"`
	Message string `json:"message,omitempty"`
}

type RespondToDrawRequest struct {
	GameID string `json:"gameId"`
	Accept bool   `json:"accept"`
}

type ResignRequest struct {
	GameID string `json:"gameId"`
}

// RequestUndoRequest and RespondToUndoRequest decode successfully (the
// client may send them) but are rejected at dispatch with
// chesserr.UnsupportedMessageType: undo is not part of this server's game
// model.
type RequestUndoRequest struct {
	GameID     string `json:"gameId"`
	MovesCount int    `json:"movesCount"`
}

type RespondToUndoRequest struct {
	GameID string `json:"gameId"`
	Accept bool   `json:"accept"`
}

type GetPlayerInfoRequest struct {
	PlayerID string `json:"playerId,omitempty"` // own info if empty
}

type GetPlayerInfoResponse struct {
	PlayerInfo     DisplayInfo `json:"playerInfo"`
	DetailedStats  *Stats      `json:"detailedStats,omitempty"`
}

type Preferences struct {
	PreferredColor   string `json:"preferredColor,omitempty"`
	AutoPromoteQueen bool   `json:"autoPromoteQueen"`
	ShowLegalMoves   bool   `json:"showLegalMoves"`
	SoundEnabled     bool   `json:"soundEnabled"`
}

type UpdatePreferencesRequest struct {
	Preferences Preferences `json:"preferences"`
}

type GetOnlinePlayersRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

type GetOnlinePlayersResponse struct {
	Players    []DisplayInfo `json:"players"`
	TotalCount int           `json:"totalCount"`
}

type GameListFilter struct {
	Status     string `json:"status,omitempty"` // "waiting" | "active" | "finished"
	MinRating  int    `json:"minRating,omitempty"`
	MaxRating  int    `json:"maxRating,omitempty"`
}

type GetGameListRequest struct {
	Filter GameListFilter `json:"filter"`
	Limit  int            `json:"limit,omitempty"`
	Offset int            `json:"offset,omitempty"`
}

type GameSummary struct {
	GameID     string `json:"gameId"`
	White      string `json:"white,omitempty"`
	Black      string `json:"black,omitempty"`
	Status     string `json:"status"`
	MoveCount  int    `json:"moveCount"`
}

type GetGameListResponse struct {
	Games      []GameSummary `json:"games"`
	TotalCount int           `json:"totalCount"`
}

type GetGameInfoRequest struct {
	GameID string `json:"gameId"`
}

type GetGameInfoResponse struct {
	GameState GameStateSnapshot `json:"gameState"`
}

type GetLegalMovesRequest struct {
	GameID string `json:"gameId"`
}

type GetLegalMovesResponse struct {
	LegalMoves []string `json:"legalMoves"`
	InCheck    bool      `json:"inCheck"`
}

type ChatMessageType string

const (
	ChatGame   ChatMessageType = "game"
	ChatGlobal ChatMessageType = "global"
	ChatSystem ChatMessageType = "system"
)

type ChatMessageRequest struct {
	GameID  string          `json:"gameId,omitempty"` // global chat if empty
	Message string          `json:"message"`
	Type    ChatMessageType `json:"type"`
}

type ChatMessageNotification struct {
	GameID    string          `json:"gameId,omitempty"`
	Sender    DisplayInfo     `json:"sender"`
	Message   string          `json:"message"`
	Type      ChatMessageType `json:"type"`
	Timestamp int64           `json:"timestamp"`
}

// GameResult mirrors game.Outcome over the wire.
type GameResult struct {
	Result     string `json:"result"`               // "ongoing" | "checkmate" | "stalemate" | "draw" | "resignation" | "timeout"
	DrawReason string `json:"drawReason,omitempty"`
	Winner     string `json:"winner,omitempty"`      // "white" | "black"
}

type GameStateSnapshot struct {
	BoardFEN             string       `json:"boardFen"`
	MoveHistory          []string     `json:"moveHistory"`
	WhitePlayer          *DisplayInfo `json:"whitePlayer,omitempty"`
	BlackPlayer          *DisplayInfo `json:"blackPlayer,omitempty"`
	ToMove               string       `json:"toMove"`
	MoveCount            int          `json:"moveCount"`
	GameResult           *GameResult  `json:"gameResult,omitempty"`
}

// DisplayInfo mirrors player.DisplayInfo over the wire.
type DisplayInfo struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Status           string  `json:"status"`
	Rating           uint32  `json:"rating"`
	GamesPlayed      uint32  `json:"gamesPlayed"`
	WinRate          float64 `json:"winRate"`
	IsOnline         bool    `json:"isOnline"`
	CurrentGameCount int     `json:"currentGameCount"`
}

// Stats mirrors player.Stats over the wire.
type Stats struct {
	GamesPlayed uint32  `json:"gamesPlayed"`
	GamesWon    uint32  `json:"gamesWon"`
	GamesLost   uint32  `json:"gamesLost"`
	GamesDrawn  uint32  `json:"gamesDrawn"`
	WinRate     float64 `json:"winRate"`
	Rating      uint32  `json:"rating"`
	PeakRating  uint32  `json:"peakRating"`
}

type ErrorPayload struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type SuccessPayload struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}
