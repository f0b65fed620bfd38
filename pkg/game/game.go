// Package game implements GameState, the per-match state machine: board
// ownership, player seating, move application, draw offers and the
// termination-order bookkeeping (checkmate, stalemate, fifty-move rule,
// threefold repetition, insufficient material). GameManager owns the set of
// live games for a server instance.
package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/seekerror/chessd/pkg/board"
	"github.com/seekerror/chessd/pkg/board/fen"
	"github.com/seekerror/chessd/pkg/chesserr"
	"github.com/seekerror/chessd/pkg/idgen"
	"github.com/seekerror/chessd/pkg/rules"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"
)

// Result is the terminal state of a game. Zero value is Ongoing.
type Result uint8

const (
	Ongoing Result = iota
	Checkmate
	Stalemate
	Draw
	Resignation
	Timeout
)

func (r Result) String() string {
	switch r {
	case Ongoing:
		return "ongoing"
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case Draw:
		return "draw"
	case Resignation:
		return "resignation"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// DrawReason qualifies a Draw result.
type DrawReason uint8

const (
	NoDrawReason DrawReason = iota
	FiftyMoveRule
	ThreefoldRepetition
	InsufficientMaterial
	Agreement
)

func (r DrawReason) String() string {
	switch r {
	case FiftyMoveRule:
		return "fifty_move_rule"
	case ThreefoldRepetition:
		return "threefold_repetition"
	case InsufficientMaterial:
		return "insufficient_material"
	case Agreement:
		return "agreement"
	default:
		return ""
	}
}

// drawOfferTTL is how long a pending draw offer survives before it lapses.
// The protocol's OfferDraw/RespondToDraw exchange is two-step, but the
// minimum correct bookkeeping is a single pending offer on the game that
// expires the moment either side makes another move.
const drawOfferTTL = 5 * time.Minute

type pendingDrawOffer struct {
	by      board.Color
	expires time.Time
}

// Outcome summarizes a finished (or ongoing) game's result for callers that
// don't need the raw Result/DrawReason/Winner triple spelled out.
type Outcome struct {
	Result     Result
	DrawReason DrawReason
	Winner     lang.Optional[board.Color] // meaningful for Checkmate/Resignation/Timeout
}

func (o Outcome) String() string {
	switch o.Result {
	case Checkmate, Resignation, Timeout:
		if w, ok := o.Winner.V(); ok {
			return fmt.Sprintf("%v(%v)", o.Result, w)
		}
		return o.Result.String()
	case Draw:
		return fmt.Sprintf("draw(%v)", o.DrawReason)
	default:
		return o.Result.String()
	}
}

// GameState is a single in-progress or finished match. All exported methods
// are safe for concurrent use; a GameState is always reached through a
// GameManager, never constructed standalone by server code.
type GameState struct {
	mu sync.Mutex

	id      string
	engine  *rules.Engine
	b       *board.Board
	white   lang.Optional[string]
	black   lang.Optional[string]
	outcome Outcome

	moveHistory     []board.Move
	positionHistory []string

	pendingDraw lang.Optional[pendingDrawOffer]

	createdAt  time.Time
	lastMoveAt time.Time
}

// New returns a fresh game on the standard starting position.
func New(ids idgen.RandomIdSource, engine *rules.Engine) *GameState {
	b := board.NewInitial()
	now := time.Now()
	return &GameState{
		id:              ids.NewID(),
		engine:          engine,
		b:               b,
		positionHistory: []string{b.PositionKey()},
		createdAt:       now,
		lastMoveAt:      now,
	}
}

// NewFromFEN returns a fresh game seeded from a FEN position. Used by test
// fixtures and admin tooling; never reachable from the wire protocol.
func NewFromFEN(ids idgen.RandomIdSource, engine *rules.Engine, position string) (*GameState, error) {
	b, err := fen.Decode(position)
	if err != nil {
		return nil, chesserr.New(chesserr.InvalidFEN, "invalid FEN: %v", err)
	}
	now := time.Now()
	return &GameState{
		id:              ids.NewID(),
		engine:          engine,
		b:               b,
		positionHistory: []string{b.PositionKey()},
		createdAt:       now,
		lastMoveAt:      now,
	}, nil
}

func (g *GameState) ID() string { return g.id }

// AddPlayer seats playerID, assigning the requested color or the first open
// seat if colorPref is unset. Returns the assigned color.
func (g *GameState) AddPlayer(playerID string, colorPref lang.Optional[board.Color]) (board.Color, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if c, ok := colorPref.V(); ok {
		switch c {
		case board.White:
			if _, taken := g.white.V(); taken {
				return 0, chesserr.New(chesserr.GameFull, "white seat already taken in game %v", g.id)
			}
			g.white = lang.Some(playerID)
			return board.White, nil
		case board.Black:
			if _, taken := g.black.V(); taken {
				return 0, chesserr.New(chesserr.GameFull, "black seat already taken in game %v", g.id)
			}
			g.black = lang.Some(playerID)
			return board.Black, nil
		}
	}

	if _, taken := g.white.V(); !taken {
		g.white = lang.Some(playerID)
		return board.White, nil
	}
	if _, taken := g.black.V(); !taken {
		g.black = lang.Some(playerID)
		return board.Black, nil
	}
	return 0, chesserr.New(chesserr.GameFull, "game %v is full", g.id)
}

// RemovePlayer vacates playerID's seat, if any. No-op if the player isn't
// seated.
func (g *GameState) RemovePlayer(playerID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if id, ok := g.white.V(); ok && id == playerID {
		g.white = lang.None[string]()
	}
	if id, ok := g.black.V(); ok && id == playerID {
		g.black = lang.None[string]()
	}
}

// colorOf returns playerID's seat, if any. Caller must hold g.mu.
func (g *GameState) colorOf(playerID string) (board.Color, bool) {
	if id, ok := g.white.V(); ok && id == playerID {
		return board.White, true
	}
	if id, ok := g.black.V(); ok && id == playerID {
		return board.Black, true
	}
	return 0, false
}

// IsPlayerInGame reports whether playerID occupies a seat in this game.
func (g *GameState) IsPlayerInGame(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.colorOf(playerID)
	return ok
}

// MakeMove applies m on behalf of playerID, who must be seated and to move.
// On success it appends to the move/position history, clears any pending
// draw offer, and re-evaluates the termination conditions.
func (g *GameState) MakeMove(ctx context.Context, playerID string, m board.Move) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.outcome.Result != Ongoing {
		return chesserr.New(chesserr.GameFinished, "game %v is already finished", g.id)
	}

	color, ok := g.colorOf(playerID)
	if !ok {
		return chesserr.New(chesserr.PlayerNotInGame, "player %v is not seated in game %v", playerID, g.id)
	}
	if color != g.b.Turn() {
		return chesserr.New(chesserr.NotYourTurn, "player %v moved out of turn in game %v", playerID, g.id)
	}
	resolved, ok := g.engine.ResolveMove(g.b, m)
	if !ok {
		return chesserr.New(chesserr.InvalidMove, "move %v is not legal in game %v", m, g.id)
	}
	m = resolved

	g.b.ApplyMove(m)
	g.moveHistory = append(g.moveHistory, m)
	g.positionHistory = append(g.positionHistory, g.b.PositionKey())
	g.lastMoveAt = time.Now()
	g.pendingDraw = lang.None[pendingDrawOffer]() // any move lapses a pending offer

	g.checkGameEnd()

	logw.Infof(ctx, "game %v: %v played %v, result=%v", g.id, color, m, g.outcome)
	return nil
}

// CheckGameEnd re-evaluates the termination conditions against the current
// position and returns the resulting outcome. MakeMove does this
// automatically; games seeded from an arbitrary position (NewFromFEN) call
// it to classify the starting position itself.
func (g *GameState) CheckGameEnd() Outcome {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.outcome.Result == Ongoing {
		g.checkGameEnd()
	}
	return g.outcome
}

// checkGameEnd evaluates termination conditions in priority order and
// updates g.outcome. Caller must hold g.mu.
func (g *GameState) checkGameEnd() {
	switch {
	case g.engine.IsCheckmate(g.b):
		winner := g.b.Turn().Opponent()
		g.outcome = Outcome{Result: Checkmate, Winner: lang.Some(winner)}
	case g.engine.IsStalemate(g.b):
		g.outcome = Outcome{Result: Stalemate}
	case g.b.HalfmoveClock() >= 100: // 50 full moves, i.e. 100 halfmoves
		g.outcome = Outcome{Result: Draw, DrawReason: FiftyMoveRule}
	case g.isThreefoldRepetition():
		g.outcome = Outcome{Result: Draw, DrawReason: ThreefoldRepetition}
	case g.isInsufficientMaterial():
		g.outcome = Outcome{Result: Draw, DrawReason: InsufficientMaterial}
	}
}

// isThreefoldRepetition reports whether the current position key has
// occurred 3 or more times in the game's history.
func (g *GameState) isThreefoldRepetition() bool {
	cur := g.positionHistory[len(g.positionHistory)-1]
	count := 0
	for _, p := range g.positionHistory {
		if p == cur {
			count++
		}
	}
	return count >= 3
}

// isInsufficientMaterial reports whether neither side has enough material
// to deliver checkmate. Only the lone-minor-piece-per-side configurations
// are recognized (K vs K, K+B vs K, K+N vs K, K+B vs K+B etc. reduce to
// "each side has at most one bishop or knight and nothing else").
func (g *GameState) isInsufficientMaterial() bool {
	return isInsufficientMaterialForColor(g.b, board.White) && isInsufficientMaterialForColor(g.b, board.Black)
}

func isInsufficientMaterialForColor(b *board.Board, color board.Color) bool {
	var bishops, knights int
	for i := 0; i < board.NumFiles*board.NumRanks; i++ {
		p, ok := b.Get(board.SquareAt(i))
		if !ok || p.Color != color {
			continue
		}
		switch p.Kind {
		case board.King:
			// no-op
		case board.Bishop:
			bishops++
		case board.Knight:
			knights++
		case board.Pawn, board.Rook, board.Queen:
			return false
		}
	}
	if bishops == 0 && knights == 0 {
		return true
	}
	return (bishops == 1 && knights == 0) || (bishops == 0 && knights == 1)
}

// Resign ends the game with playerID as the losing side.
func (g *GameState) Resign(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.outcome.Result != Ongoing {
		return chesserr.New(chesserr.GameFinished, "game %v is already finished", g.id)
	}
	color, ok := g.colorOf(playerID)
	if !ok {
		return chesserr.New(chesserr.PlayerNotInGame, "player %v is not seated in game %v", playerID, g.id)
	}
	g.outcome = Outcome{Result: Resignation, Winner: lang.Some(color.Opponent())}
	g.lastMoveAt = time.Now()
	return nil
}

// Timeout ends the game with playerID as the side that ran out of time.
func (g *GameState) Timeout(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.outcome.Result != Ongoing {
		return chesserr.New(chesserr.GameFinished, "game %v is already finished", g.id)
	}
	color, ok := g.colorOf(playerID)
	if !ok {
		return chesserr.New(chesserr.PlayerNotInGame, "player %v is not seated in game %v", playerID, g.id)
	}
	g.outcome = Outcome{Result: Timeout, Winner: lang.Some(color.Opponent())}
	g.lastMoveAt = time.Now()
	return nil
}

// OfferDraw records a pending draw offer from playerID, good until the
// next move or drawOfferTTL elapses, whichever comes first.
func (g *GameState) OfferDraw(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.outcome.Result != Ongoing {
		return chesserr.New(chesserr.GameFinished, "game %v is already finished", g.id)
	}
	color, ok := g.colorOf(playerID)
	if !ok {
		return chesserr.New(chesserr.PlayerNotInGame, "player %v is not seated in game %v", playerID, g.id)
	}
	g.pendingDraw = lang.Some(pendingDrawOffer{by: color, expires: time.Now().Add(drawOfferTTL)})
	return nil
}

// RespondToDraw resolves a pending draw offer. playerID must be the seat
// that did not make the offer. accept=false simply clears the offer.
func (g *GameState) RespondToDraw(playerID string, accept bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.outcome.Result != Ongoing {
		return chesserr.New(chesserr.GameFinished, "game %v is already finished", g.id)
	}
	color, ok := g.colorOf(playerID)
	if !ok {
		return chesserr.New(chesserr.PlayerNotInGame, "player %v is not seated in game %v", playerID, g.id)
	}
	offer, ok := g.pendingDraw.V()
	if !ok || time.Now().After(offer.expires) {
		g.pendingDraw = lang.None[pendingDrawOffer]()
		return chesserr.New(chesserr.ActionNotAllowed, "no pending draw offer in game %v", g.id)
	}
	if offer.by == color {
		return chesserr.New(chesserr.ActionNotAllowed, "player %v cannot respond to their own draw offer", playerID)
	}

	g.pendingDraw = lang.None[pendingDrawOffer]()
	if accept {
		g.outcome = Outcome{Result: Draw, DrawReason: Agreement}
		g.lastMoveAt = time.Now()
	}
	return nil
}

// GetLegalMoves returns the legal moves in the current position, or nil if
// the game has finished.
func (g *GameState) GetLegalMoves() []board.Move {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.outcome.Result != Ongoing {
		return nil
	}
	return g.engine.LegalMoves(g.b)
}

// GetLegalMovesForPlayer returns the legal moves available to playerID, or
// nil if it isn't their turn.
func (g *GameState) GetLegalMovesForPlayer(playerID string) []board.Move {
	g.mu.Lock()
	color, ok := g.colorOf(playerID)
	turn := g.b.Turn()
	finished := g.outcome.Result != Ongoing
	g.mu.Unlock()

	if !ok || finished || color != turn {
		return nil
	}
	return g.GetLegalMoves()
}

// IsInCheck reports whether the side to move is in check.
func (g *GameState) IsInCheck() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.engine.IsInCheck(g.b, g.b.Turn())
}

// GetOpponent returns the id of playerID's opponent, if both seats are
// filled.
func (g *GameState) GetOpponent(playerID string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if id, ok := g.white.V(); ok && id == playerID {
		return g.black.V()
	}
	if id, ok := g.black.V(); ok && id == playerID {
		return g.white.V()
	}
	return "", false
}

// MoveCount returns the number of plies played so far.
func (g *GameState) MoveCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.moveHistory)
}

// PositionHistory returns a copy of the position keys after each ply,
// starting with the initial position.
func (g *GameState) PositionHistory() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]string, len(g.positionHistory))
	copy(out, g.positionHistory)
	return out
}

// MoveHistory returns a copy of the moves played so far, in order.
func (g *GameState) MoveHistory() []board.Move {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]board.Move, len(g.moveHistory))
	copy(out, g.moveHistory)
	return out
}

// Info is a read-only snapshot of a game suitable for GetGameInfo responses
// and the online game listing.
type Info struct {
	ID         string
	White      lang.Optional[string]
	Black      lang.Optional[string]
	ToMove     board.Color
	Outcome    Outcome
	MoveCount  int
	IsInCheck  bool
	LastMove   lang.Optional[board.Move]
	CreatedAt  time.Time
	LastMoveAt time.Time
}

// GetInfo returns a snapshot of the game's public state.
func (g *GameState) GetInfo() Info {
	g.mu.Lock()
	defer g.mu.Unlock()

	var last lang.Optional[board.Move]
	if n := len(g.moveHistory); n > 0 {
		last = lang.Some(g.moveHistory[n-1])
	}
	return Info{
		ID:         g.id,
		White:      g.white,
		Black:      g.black,
		ToMove:     g.b.Turn(),
		Outcome:    g.outcome,
		MoveCount:  len(g.moveHistory),
		IsInCheck:  g.engine.IsInCheck(g.b, g.b.Turn()),
		LastMove:   last,
		CreatedAt:  g.createdAt,
		LastMoveAt: g.lastMoveAt,
	}
}

// FEN returns the current position's FEN, mostly for diagnostics and tests.
func (g *GameState) FEN() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.b.ToFEN()
}
