package server

import (
	"strings"

	"github.com/seekerror/chessd/pkg/board"
	"github.com/seekerror/chessd/pkg/game"
	"github.com/seekerror/chessd/pkg/player"
	"github.com/seekerror/chessd/pkg/protocol"
	"github.com/seekerror/stdlib/pkg/lang"
)

func colorToWire(c board.Color) string {
	if c == board.White {
		return "white"
	}
	return "black"
}

func colorFromPreference(pref string) lang.Optional[board.Color] {
	switch strings.ToLower(strings.TrimSpace(pref)) {
	case "white":
		return lang.Some(board.White)
	case "black":
		return lang.Some(board.Black)
	default:
		return lang.None[board.Color]()
	}
}

func displayInfoToWire(d player.DisplayInfo) protocol.DisplayInfo {
	return protocol.DisplayInfo{
		ID:               d.ID,
		Name:             d.Name,
		Status:           d.Status.String(),
		Rating:           d.Rating,
		GamesPlayed:      d.GamesPlayed,
		WinRate:          d.WinRate,
		IsOnline:         d.IsOnline,
		CurrentGameCount: d.CurrentGameCount,
	}
}

// preferencesFromWire merges the wire-settable subset of preferences onto
// base, leaving fields the protocol doesn't expose (board/piece style, auto
// draw acceptance, move confirmation, preferred time control) untouched.
func preferencesFromWire(base player.Preferences, in protocol.Preferences) player.Preferences {
	base.AutoPromoteToQueen = in.AutoPromoteQueen
	base.SoundEnabled = in.SoundEnabled
	return base
}

func statsToWire(s player.Stats) protocol.Stats {
	return protocol.Stats{
		GamesPlayed: s.GamesPlayed,
		GamesWon:    s.GamesWon,
		GamesLost:   s.GamesLost,
		GamesDrawn:  s.GamesDrawn,
		WinRate:     s.WinRate(),
		Rating:      s.Rating,
		PeakRating:  s.PeakRating,
	}
}

func outcomeToWire(o game.Outcome) *protocol.GameResult {
	if o.Result == game.Ongoing {
		return nil
	}
	r := &protocol.GameResult{Result: o.Result.String()}
	if o.Result == game.Draw {
		r.DrawReason = o.DrawReason.String()
	}
	if w, ok := o.Winner.V(); ok {
		r.Winner = colorToWire(w)
	}
	return r
}

// optionalPlayerDisplay resolves a possibly-empty seated player id to a
// wire DisplayInfo, for GameStateSnapshot's white/black fields.
func (s *Server) optionalPlayerDisplay(id lang.Optional[string]) *protocol.DisplayInfo {
	pid, ok := id.V()
	if !ok {
		return nil
	}
	p, ok := s.players.Get(pid)
	if !ok {
		return nil
	}
	d := displayInfoToWire(p.GetDisplayInfo())
	return &d
}

func (s *Server) gameStateSnapshot(g *game.GameState) protocol.GameStateSnapshot {
	info := g.GetInfo()

	history := g.MoveHistory()
	moves := make([]string, 0, len(history))
	for _, m := range history {
		moves = append(moves, m.String())
	}

	return protocol.GameStateSnapshot{
		BoardFEN:    g.FEN(),
		MoveHistory: moves,
		WhitePlayer: s.optionalPlayerDisplay(info.White),
		BlackPlayer: s.optionalPlayerDisplay(info.Black),
		ToMove:      colorToWire(info.ToMove),
		MoveCount:   info.MoveCount,
		GameResult:  outcomeToWire(info.Outcome),
	}
}

func gameStatusToWire(o game.Outcome) string {
	if o.Result == game.Ongoing {
		return "active"
	}
	return "finished"
}

func (s *Server) gameSummary(g *game.GameState) protocol.GameSummary {
	info := g.GetInfo()

	var white, black string
	if id, ok := info.White.V(); ok {
		if p, ok := s.players.Get(id); ok {
			white = p.Name()
		}
	}
	if id, ok := info.Black.V(); ok {
		if p, ok := s.players.Get(id); ok {
			black = p.Name()
		}
	}

	_, whiteSeated := info.White.V()
	_, blackSeated := info.Black.V()
	status := gameStatusToWire(info.Outcome)
	if status == "active" && (!whiteSeated || !blackSeated) {
		status = "waiting"
	}

	return protocol.GameSummary{
		GameID:    g.ID(),
		White:     white,
		Black:     black,
		Status:    status,
		MoveCount: info.MoveCount,
	}
}
