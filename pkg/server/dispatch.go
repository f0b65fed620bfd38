package server

import (
	"context"
	"sort"
	"strings"

	"github.com/seekerror/chessd/pkg/board"
	"github.com/seekerror/chessd/pkg/chesserr"
	"github.com/seekerror/chessd/pkg/client"
	"github.com/seekerror/chessd/pkg/game"
	"github.com/seekerror/chessd/pkg/player"
	"github.com/seekerror/chessd/pkg/protocol"
	"github.com/seekerror/chessd/pkg/session"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"
)

// requestCost is the flat token-bucket price of any request.
const requestCost = 1.0

// dispatch is the Dispatch closure handed to every client.Client: it
// is the single place that knows how to route a decoded envelope to the
// manager(s) that own the state it touches, and to translate the result
// back into a wire envelope.
func (s *Server) dispatch(ctx context.Context, env protocol.Envelope, info client.Info) (*protocol.Envelope, error) {
	now := NowMillis(s.clock)
	s.stats.incMessagesProcessed()

	var sess *session.Session
	if env.Type != protocol.Connect {
		var err error
		sess, err = s.requireSession(info.SessionID)
		if err != nil {
			return nil, err
		}
		if !sess.CanPerformAction(requestCost) {
			return nil, chesserr.New(chesserr.RateLimitExceeded, "rate limit exceeded for session %v", sess.ID())
		}
		sess.UpdateActivity()
		if s.cfg.RequireAuth && sess.IsGuest() && (env.Type == protocol.CreateGame || env.Type == protocol.JoinGame) {
			return nil, chesserr.New(chesserr.InsufficientPermissions, "session %v must authenticate to %v", sess.ID(), env.Type)
		}
	}

	switch env.Type {
	case protocol.Connect:
		return s.handleConnect(ctx, env, info, now)
	case protocol.Authenticate:
		return s.handleAuthenticate(ctx, env, info, now)
	case protocol.Disconnect:
		return s.handleDisconnect(info)
	case protocol.CreateGame:
		return s.handleCreateGame(ctx, env, info, sess, now)
	case protocol.JoinGame:
		return s.handleJoinGame(env, info, sess, now)
	case protocol.LeaveGame:
		return s.handleLeaveGame(env, info, now)
	case protocol.SpectateGame:
		return s.handleSpectateGame(env, sess, now)
	case protocol.MakeMove:
		return s.handleMakeMove(ctx, env, info, now)
	case protocol.OfferDraw:
		return s.handleOfferDraw(ctx, env, info, now)
	case protocol.RespondToDraw:
		return s.handleRespondToDraw(ctx, env, info, now)
	case protocol.Resign:
		return s.handleResign(ctx, env, info, now)
	case protocol.RequestUndo, protocol.RespondToUndo:
		// The protocol carries the undo message shapes, but dispatch
		// has no semantics for them.
		return nil, chesserr.New(chesserr.UnsupportedMessageType, "undo is not supported by this server")
	case protocol.GetPlayerInfo:
		return s.handleGetPlayerInfo(env, info, now)
	case protocol.UpdatePreferences:
		return s.handleUpdatePreferences(env, info, now)
	case protocol.GetOnlinePlayers:
		return s.handleGetOnlinePlayers(env, now)
	case protocol.GetGameList:
		return s.handleGetGameList(env, now)
	case protocol.GetGameInfo:
		return s.handleGetGameInfo(env, now)
	case protocol.GetLegalMoves:
		return s.handleGetLegalMoves(env, info, now)
	case protocol.SendMessage:
		return s.handleSendMessage(env, info, sess, now)
	case protocol.Ping:
		return s.handlePing(env, now)
	default:
		return nil, chesserr.New(chesserr.UnsupportedMessageType, "unsupported message type %v", env.Type)
	}
}

func (s *Server) requireSession(sessionID string) (*session.Session, error) {
	if sessionID == "" {
		return nil, chesserr.New(chesserr.MissingField, "connection has no bound session; send Connect first")
	}
	sess, ok := s.sessions.GetSession(sessionID)
	if !ok {
		return nil, chesserr.New(chesserr.PlayerNotFound, "session %v not found", sessionID)
	}
	return sess, nil
}

func requirePlayerID(info client.Info) (string, error) {
	if info.PlayerID == "" {
		return "", chesserr.New(chesserr.AuthFailed, "connection %v has no bound player", info.ConnID)
	}
	return info.PlayerID, nil
}

// --- Connection / authentication -------------------------------------------------

func (s *Server) handleConnect(ctx context.Context, env protocol.Envelope, info client.Info, now int64) (*protocol.Envelope, error) {
	var req protocol.ConnectRequest
	if err := env.DecodePayload(&req); err != nil {
		return nil, err
	}

	var playerID, sessionID string
	name := strings.TrimSpace(req.PlayerName)
	if name != "" {
		p, ok := s.players.GetByName(name)
		if !ok {
			var err error
			p, err = s.players.Register(ctx, name)
			if err != nil {
				return nil, err
			}
		}
		playerID = p.ID()
		sid, err := s.sessions.CreateSession(playerID, info.IPAddress, req.UserAgent)
		if err != nil {
			return nil, err
		}
		sessionID = sid
		p.SetConnectionInfo(info.IPAddress, req.UserAgent)
		p.SetStatus(player.Online)
	} else {
		sid, err := s.sessions.CreateGuestSession(info.IPAddress, req.UserAgent)
		if err != nil {
			return nil, err
		}
		sessionID = sid
		sess, _ := s.sessions.GetSession(sessionID)
		playerID = sess.PlayerID()
	}

	if err := s.clients.AssociateSession(info.ConnID, sessionID); err != nil {
		return nil, err
	}
	if err := s.clients.AssociatePlayer(info.ConnID, playerID); err != nil {
		return nil, err
	}

	resp := protocol.ConnectResponse{SessionID: sessionID, PlayerID: playerID, ServerInfo: s.serverInfo()}
	e, err := protocol.Response(protocol.ConnectResponseType, resp, now, env.ID)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Server) handleAuthenticate(ctx context.Context, env protocol.Envelope, info client.Info, now int64) (*protocol.Envelope, error) {
	var req protocol.AuthenticateRequest
	if err := env.DecodePayload(&req); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.PlayerName)
	if name == "" {
		return nil, chesserr.New(chesserr.MissingField, "playerName is required")
	}
	if info.SessionID == "" {
		return nil, chesserr.New(chesserr.MissingField, "Authenticate requires a prior Connect")
	}

	p, ok := s.players.GetByName(name)
	if !ok {
		var err error
		p, err = s.players.Register(ctx, name)
		if err != nil {
			return nil, err
		}
	}

	if err := s.sessions.AuthenticateSession(info.SessionID, p.ID()); err != nil {
		return nil, err
	}
	if err := s.clients.AssociatePlayer(info.ConnID, p.ID()); err != nil {
		return nil, err
	}
	p.SetConnectionInfo(info.IPAddress, "")
	p.SetStatus(player.Online)

	resp := protocol.AuthenticateResponse{
		PlayerID:           p.ID(),
		PlayerInfo:         displayInfoToWire(p.GetDisplayInfo()),
		SessionExpiresAtMs: now + s.cfg.SessionTimeout().Milliseconds(),
	}
	e, err := protocol.Response(protocol.AuthenticateResponseType, resp, now, env.ID)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Server) handleDisconnect(info client.Info) (*protocol.Envelope, error) {
	if c, ok := s.clients.Get(info.ConnID); ok {
		c.Disconnect()
	}
	return nil, nil
}

// --- Game management ---------------------------------------------------------------

func (s *Server) handleCreateGame(ctx context.Context, env protocol.Envelope, info client.Info, sess *session.Session, now int64) (*protocol.Envelope, error) {
	if !sess.CanCreateGame() {
		return nil, chesserr.New(chesserr.InsufficientPermissions, "session %v cannot create games", sess.ID())
	}
	playerID, err := requirePlayerID(info)
	if err != nil {
		return nil, err
	}
	var req protocol.CreateGameRequest
	if err := env.DecodePayload(&req); err != nil {
		return nil, err
	}

	gameID := s.games.CreateGame(ctx)
	s.stats.incGamesCreated()

	color, err := s.games.JoinGame(gameID, playerID, colorFromPreference(req.ColorPreference))
	if err != nil {
		return nil, err
	}
	if p, ok := s.players.Get(playerID); ok {
		_ = p.AddGame(gameID)
	}
	if c, ok := s.clients.Get(info.ConnID); ok {
		c.SetState(client.InGame)
	}

	resp := protocol.CreateGameResponse{GameID: gameID, PlayerColor: colorToWire(color)}
	e, err := protocol.Response(protocol.CreateGameResponseType, resp, now, env.ID)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Server) handleJoinGame(env protocol.Envelope, info client.Info, sess *session.Session, now int64) (*protocol.Envelope, error) {
	if !sess.CanJoinGame() {
		return nil, chesserr.New(chesserr.InsufficientPermissions, "session %v cannot join games", sess.ID())
	}
	playerID, err := requirePlayerID(info)
	if err != nil {
		return nil, err
	}
	var req protocol.JoinGameRequest
	if err := env.DecodePayload(&req); err != nil {
		return nil, err
	}
	if req.GameID == "" {
		return nil, chesserr.New(chesserr.MissingField, "gameId is required")
	}

	color, err := s.games.JoinGame(req.GameID, playerID, colorFromPreference(req.ColorPreference))
	if err != nil {
		return nil, err
	}
	if p, ok := s.players.Get(playerID); ok {
		_ = p.AddGame(req.GameID)
	}
	if c, ok := s.clients.Get(info.ConnID); ok {
		c.SetState(client.InGame)
	}

	g, _ := s.games.GetGame(req.GameID)
	opponentID, hasOpponent := g.GetOpponent(playerID)
	var opponent *protocol.DisplayInfo
	if hasOpponent {
		if p, ok := s.players.Get(opponentID); ok {
			d := displayInfoToWire(p.GetDisplayInfo())
			opponent = &d
		}
	}

	resp := protocol.JoinGameResponse{
		GameID:       req.GameID,
		PlayerColor:  colorToWire(color),
		OpponentInfo: opponent,
		GameState:    s.gameStateSnapshot(g),
	}
	e, err := protocol.Response(protocol.JoinGameResponseType, resp, now, env.ID)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Server) handleLeaveGame(env protocol.Envelope, info client.Info, now int64) (*protocol.Envelope, error) {
	playerID, err := requirePlayerID(info)
	if err != nil {
		return nil, err
	}
	var req protocol.LeaveGameRequest
	if err := env.DecodePayload(&req); err != nil {
		return nil, err
	}
	if err := s.games.LeaveGame(req.GameID, playerID); err != nil {
		return nil, err
	}
	if p, ok := s.players.Get(playerID); ok {
		p.RemoveGame(req.GameID)
	}

	e, err := protocol.SuccessEnvelope("left game", nil, now, env.ID)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Server) handleSpectateGame(env protocol.Envelope, sess *session.Session, now int64) (*protocol.Envelope, error) {
	if !sess.CanSpectate() {
		return nil, chesserr.New(chesserr.InsufficientPermissions, "session %v cannot spectate", sess.ID())
	}
	var req protocol.SpectateGameRequest
	if err := env.DecodePayload(&req); err != nil {
		return nil, err
	}
	g, ok := s.games.GetGame(req.GameID)
	if !ok {
		return nil, chesserr.New(chesserr.GameNotFound, "game %v not found", req.GameID)
	}

	// Spectating is read-only: the caller just gets a snapshot, never
	// seated.
	e, err := protocol.SuccessEnvelope("spectating", s.gameStateSnapshot(g), now, env.ID)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// --- Game play -----------------------------------------------------------------------

func (s *Server) handleMakeMove(ctx context.Context, env protocol.Envelope, info client.Info, now int64) (*protocol.Envelope, error) {
	playerID, err := requirePlayerID(info)
	if err != nil {
		return nil, err
	}
	var req protocol.MakeMoveRequest
	if err := env.DecodePayload(&req); err != nil {
		return nil, err
	}
	m, err := board.ParseMove(req.Move)
	if err != nil {
		return nil, chesserr.New(chesserr.InvalidMove, "malformed move %q: %v", req.Move, err)
	}
	g, ok := s.games.GetGame(req.GameID)
	if !ok {
		return nil, chesserr.New(chesserr.GameNotFound, "game %v not found", req.GameID)
	}

	if err := g.MakeMove(ctx, playerID, m); err != nil {
		return nil, err
	}
	s.stats.incMovesPlayed()

	s.broadcastGameUpdate(ctx, g, req.Move)
	s.settleGame(ctx, g)

	e, err := protocol.SuccessEnvelope("move applied", nil, now, env.ID)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Server) handleOfferDraw(ctx context.Context, env protocol.Envelope, info client.Info, now int64) (*protocol.Envelope, error) {
	playerID, err := requirePlayerID(info)
	if err != nil {
		return nil, err
	}
	var req protocol.OfferDrawRequest
	if err := env.DecodePayload(&req); err != nil {
		return nil, err
	}
	g, ok := s.games.GetGame(req.GameID)
	if !ok {
		return nil, chesserr.New(chesserr.GameNotFound, "game %v not found", req.GameID)
	}
	if err := g.OfferDraw(playerID); err != nil {
		return nil, err
	}
	s.broadcastGameUpdate(ctx, g, "")

	e, err := protocol.SuccessEnvelope("draw offered", nil, now, env.ID)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Server) handleRespondToDraw(ctx context.Context, env protocol.Envelope, info client.Info, now int64) (*protocol.Envelope, error) {
	playerID, err := requirePlayerID(info)
	if err != nil {
		return nil, err
	}
	var req protocol.RespondToDrawRequest
	if err := env.DecodePayload(&req); err != nil {
		return nil, err
	}
	g, ok := s.games.GetGame(req.GameID)
	if !ok {
		return nil, chesserr.New(chesserr.GameNotFound, "game %v not found", req.GameID)
	}
	if err := g.RespondToDraw(playerID, req.Accept); err != nil {
		return nil, err
	}
	s.broadcastGameUpdate(ctx, g, "")
	s.settleGame(ctx, g)

	e, err := protocol.SuccessEnvelope("draw response recorded", nil, now, env.ID)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Server) handleResign(ctx context.Context, env protocol.Envelope, info client.Info, now int64) (*protocol.Envelope, error) {
	playerID, err := requirePlayerID(info)
	if err != nil {
		return nil, err
	}
	var req protocol.ResignRequest
	if err := env.DecodePayload(&req); err != nil {
		return nil, err
	}
	g, ok := s.games.GetGame(req.GameID)
	if !ok {
		return nil, chesserr.New(chesserr.GameNotFound, "game %v not found", req.GameID)
	}
	if err := g.Resign(playerID); err != nil {
		return nil, err
	}
	s.broadcastGameUpdate(ctx, g, "")
	s.settleGame(ctx, g)

	e, err := protocol.SuccessEnvelope("resigned", nil, now, env.ID)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// broadcastGameUpdate fans a GameUpdate notification out to both seated
// players of g. This happens after the game
// manager's exclusive lock for the move has already been released, so the
// fan-out never holds a manager lock across client I/O.
func (s *Server) broadcastGameUpdate(ctx context.Context, g *game.GameState, lastMove string) {
	info := g.GetInfo()
	upd := protocol.GameUpdateNotification{
		GameID:     g.ID(),
		GameState:  s.gameStateSnapshot(g),
		LastMove:   lastMove,
		IsCheck:    info.IsInCheck,
		GameResult: outcomeToWire(info.Outcome),
	}
	if info.ToMove == board.White {
		if id, ok := info.White.V(); ok {
			upd.PlayerToMove = id
		}
	} else if id, ok := info.Black.V(); ok {
		upd.PlayerToMove = id
	}

	env, err := protocol.Notification(protocol.GameUpdate, upd, NowMillis(s.clock))
	if err != nil {
		logw.Errorf(ctx, "encode GameUpdate for game %v: %v", g.ID(), err)
		return
	}

	var ids []string
	if id, ok := info.White.V(); ok {
		ids = append(ids, id)
	}
	if id, ok := info.Black.V(); ok {
		ids = append(ids, id)
	}
	s.clients.SendToPlayers(ids, env)
}

// settleGame applies rating and stats bookkeeping once a game has reached a
// terminal result, for both seats when both are registered players. Each
// registered seat has the game removed from its current-game list either
// way; guest seats (never registered in the player registry) have no such
// list and are excluded from rating/stats.
func (s *Server) settleGame(ctx context.Context, g *game.GameState) {
	info := g.GetInfo()
	if info.Outcome.Result == game.Ongoing {
		return
	}

	whiteID, whiteSeated := info.White.V()
	blackID, blackSeated := info.Black.V()
	if whiteSeated {
		if p, ok := s.players.Get(whiteID); ok {
			p.RemoveGame(g.ID())
		}
	}
	if blackSeated {
		if p, ok := s.players.Get(blackID); ok {
			p.RemoveGame(g.ID())
		}
	}
	if !whiteSeated || !blackSeated {
		return
	}
	whiteP, whiteReg := s.players.Get(whiteID)
	blackP, blackReg := s.players.Get(blackID)
	if !whiteReg || !blackReg {
		return
	}

	var result player.GameOutcome
	switch info.Outcome.Result {
	case game.Checkmate, game.Resignation, game.Timeout:
		if w, ok := info.Outcome.Winner.V(); ok && w == board.White {
			result = player.PlayerWin
		} else {
			result = player.OpponentWin
		}
	default:
		result = player.DrawOutcome
	}

	if err := s.players.UpdateRatingsAfterGame(whiteID, blackID, result); err != nil {
		logw.Warningf(ctx, "rating update for game %v: %v", g.ID(), err)
	}

	duration := info.LastMoveAt.Sub(info.CreatedAt)
	moves := uint32(info.MoveCount)
	whiteP.UpdateStats(result == player.PlayerWin, result == player.OpponentWin, result == player.DrawOutcome, moves, duration)
	blackP.UpdateStats(result == player.OpponentWin, result == player.PlayerWin, result == player.DrawOutcome, moves, duration)
	whiteP.SetStatus(player.Online)
	blackP.SetStatus(player.Online)
}

// --- Queries -----------------------------------------------------------------------

func (s *Server) handleGetLegalMoves(env protocol.Envelope, info client.Info, now int64) (*protocol.Envelope, error) {
	playerID, err := requirePlayerID(info)
	if err != nil {
		return nil, err
	}
	var req protocol.GetLegalMovesRequest
	if err := env.DecodePayload(&req); err != nil {
		return nil, err
	}
	g, ok := s.games.GetGame(req.GameID)
	if !ok {
		return nil, chesserr.New(chesserr.GameNotFound, "game %v not found", req.GameID)
	}

	gi := g.GetInfo()
	var seat board.Color
	switch playerID {
	case firstOr(gi.White):
		seat = board.White
	case firstOr(gi.Black):
		seat = board.Black
	default:
		return nil, chesserr.New(chesserr.PlayerNotInGame, "player %v is not seated in game %v", playerID, req.GameID)
	}
	if seat != gi.ToMove {
		return nil, chesserr.New(chesserr.NotYourTurn, "it is not player %v's turn in game %v", playerID, req.GameID)
	}

	moves := g.GetLegalMoves()
	out := make([]string, 0, len(moves))
	for _, m := range moves {
		out = append(out, m.String())
	}

	resp := protocol.GetLegalMovesResponse{LegalMoves: out, InCheck: gi.IsInCheck}
	e, err := protocol.Response(protocol.GetLegalMovesResponseType, resp, now, env.ID)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func firstOr(opt lang.Optional[string]) string {
	v, _ := opt.V()
	return v
}

func (s *Server) handleGetPlayerInfo(env protocol.Envelope, info client.Info, now int64) (*protocol.Envelope, error) {
	var req protocol.GetPlayerInfoRequest
	if err := env.DecodePayload(&req); err != nil {
		return nil, err
	}
	targetID := req.PlayerID
	if targetID == "" {
		targetID = info.PlayerID
	}
	p, ok := s.players.Get(targetID)
	if !ok {
		return nil, chesserr.New(chesserr.PlayerNotFound, "player %v not found", targetID)
	}

	resp := protocol.GetPlayerInfoResponse{PlayerInfo: displayInfoToWire(p.GetDisplayInfo())}
	if targetID == info.PlayerID {
		stats := statsToWire(p.Stats())
		resp.DetailedStats = &stats
	}

	e, err := protocol.Response(protocol.GetPlayerInfoResponseType, resp, now, env.ID)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Server) handleUpdatePreferences(env protocol.Envelope, info client.Info, now int64) (*protocol.Envelope, error) {
	playerID, err := requirePlayerID(info)
	if err != nil {
		return nil, err
	}
	var req protocol.UpdatePreferencesRequest
	if err := env.DecodePayload(&req); err != nil {
		return nil, err
	}
	p, ok := s.players.Get(playerID)
	if !ok {
		return nil, chesserr.New(chesserr.PlayerNotFound, "player %v not found", playerID)
	}
	p.UpdatePreferences(preferencesFromWire(p.Preferences(), req.Preferences))

	e, err := protocol.SuccessEnvelope("preferences updated", nil, now, env.ID)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Server) handleGetOnlinePlayers(env protocol.Envelope, now int64) (*protocol.Envelope, error) {
	var req protocol.GetOnlinePlayersRequest
	if err := env.DecodePayload(&req); err != nil {
		return nil, err
	}
	limit, offset := pageParams(req.Limit, req.Offset)

	all := s.players.Search(player.SearchCriteria{OnlineOnly: true})
	sort.Slice(all, func(i, j int) bool { return all[i].ID() < all[j].ID() })

	total := len(all)
	page := paginate(all, offset, limit)
	out := make([]protocol.DisplayInfo, 0, len(page))
	for _, p := range page {
		out = append(out, displayInfoToWire(p.GetDisplayInfo()))
	}

	resp := protocol.GetOnlinePlayersResponse{Players: out, TotalCount: total}
	e, err := protocol.Response(protocol.GetOnlinePlayersResponseType, resp, now, env.ID)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Server) handleGetGameList(env protocol.Envelope, now int64) (*protocol.Envelope, error) {
	var req protocol.GetGameListRequest
	if err := env.DecodePayload(&req); err != nil {
		return nil, err
	}
	limit, offset := pageParams(req.Limit, req.Offset)

	games := s.games.ListGames()
	sort.Slice(games, func(i, j int) bool { return games[i].ID() < games[j].ID() })

	var filtered []*game.GameState
	for _, g := range games {
		summary := s.gameSummary(g)
		if req.Filter.Status != "" && summary.Status != req.Filter.Status {
			continue
		}
		filtered = append(filtered, g)
	}

	total := len(filtered)
	page := paginate(filtered, offset, limit)
	out := make([]protocol.GameSummary, 0, len(page))
	for _, g := range page {
		out = append(out, s.gameSummary(g))
	}

	resp := protocol.GetGameListResponse{Games: out, TotalCount: total}
	e, err := protocol.Response(protocol.GetGameListResponseType, resp, now, env.ID)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Server) handleGetGameInfo(env protocol.Envelope, now int64) (*protocol.Envelope, error) {
	var req protocol.GetGameInfoRequest
	if err := env.DecodePayload(&req); err != nil {
		return nil, err
	}
	g, ok := s.games.GetGame(req.GameID)
	if !ok {
		return nil, chesserr.New(chesserr.GameNotFound, "game %v not found", req.GameID)
	}

	resp := protocol.GetGameInfoResponse{GameState: s.gameStateSnapshot(g)}
	e, err := protocol.Response(protocol.GetGameInfoResponseType, resp, now, env.ID)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// --- Chat & system -------------------------------------------------------------------

func (s *Server) handleSendMessage(env protocol.Envelope, info client.Info, sess *session.Session, now int64) (*protocol.Envelope, error) {
	if !sess.CanChat() {
		return nil, chesserr.New(chesserr.InsufficientPermissions, "session %v cannot chat", sess.ID())
	}
	var req protocol.ChatMessageRequest
	if err := env.DecodePayload(&req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, chesserr.New(chesserr.MissingField, "message is required")
	}

	var sender protocol.DisplayInfo
	if p, ok := s.players.Get(info.PlayerID); ok {
		sender = displayInfoToWire(p.GetDisplayInfo())
	} else {
		sender = protocol.DisplayInfo{ID: info.PlayerID, Name: "guest"}
	}

	notif := protocol.ChatMessageNotification{
		GameID:    req.GameID,
		Sender:    sender,
		Message:   req.Message,
		Type:      req.Type,
		Timestamp: now,
	}
	outEnv, err := protocol.Notification(protocol.ChatMessage, notif, now)
	if err != nil {
		return nil, err
	}

	var sent int
	if req.GameID != "" {
		g, ok := s.games.GetGame(req.GameID)
		if !ok {
			return nil, chesserr.New(chesserr.GameNotFound, "game %v not found", req.GameID)
		}
		gi := g.GetInfo()
		var ids []string
		if id, ok := gi.White.V(); ok {
			ids = append(ids, id)
		}
		if id, ok := gi.Black.V(); ok {
			ids = append(ids, id)
		}
		sent = s.clients.SendToPlayers(ids, outEnv)
	} else {
		sent = s.clients.BroadcastToAuthenticated(outEnv)
	}

	e, err := protocol.SuccessEnvelope("message sent", sentCount{Sent: sent}, now, env.ID)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

type sentCount struct {
	Sent int `json:"sent"`
}

func (s *Server) handlePing(env protocol.Envelope, now int64) (*protocol.Envelope, error) {
	e, err := protocol.Response(protocol.Pong, struct{}{}, now, env.ID)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// --- Pagination helpers ---------------------------------------------------------------

const defaultPageLimit = 50

func pageParams(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
