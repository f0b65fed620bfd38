// Package rules implements chess move legality: per-piece pseudo-legal move
// generation, the self-check filter, and check/checkmate/stalemate
// detection. It operates on an immutable snapshot of a board.Board and never
// mutates the board it is given.
package rules

import (
	"github.com/seekerror/chessd/pkg/board"
)

// Engine generates and validates moves for a single position. It holds no
// state of its own; every method takes the board it operates on explicitly,
// so a single Engine value can be shared across games.
type Engine struct{}

// NewEngine returns a rules engine. Stateless today, but kept as a value so
// callers have a stable place to hang future configuration (variants,
// move-generation limits) without changing call sites.
func NewEngine() *Engine {
	return &Engine{}
}

// IsValidMove reports whether m is legal for the side to move on b: m must
// appear in the pseudo-legal move set for the piece on m.From, and applying
// it must not leave the mover's own king in check.
func (e *Engine) IsValidMove(b *board.Board, m board.Move) bool {
	_, ok := e.ResolveMove(b, m)
	return ok
}

// ResolveMove matches m (identified by from/to/promotion only, as supplied
// by a client over the wire) against the legal move it denotes, returning
// the generated candidate with its IsCastle/IsEnPassant context filled in.
// Callers that go on to apply the move (board.Board.ApplyMove) must use the
// resolved move, not the caller-supplied one: a bare from/to/promotion
// triple carries no castling or en-passant information of its own.
func (e *Engine) ResolveMove(b *board.Board, m board.Move) (board.Move, bool) {
	p, ok := b.Get(m.From)
	if !ok || p.Color != b.Turn() {
		return board.Move{}, false
	}
	for _, cand := range e.pseudoLegalMovesFrom(b, m.From) {
		if cand.Equals(m) && !e.leavesKingInCheck(b, cand) {
			return cand, true
		}
	}
	return board.Move{}, false
}

// LegalMoves returns every legal move for the side to move.
func (e *Engine) LegalMoves(b *board.Board) []board.Move {
	var out []board.Move
	turn := b.Turn()
	for i := 0; i < board.NumFiles*board.NumRanks; i++ {
		sq := board.SquareAt(i)
		p, ok := b.Get(sq)
		if !ok || p.Color != turn {
			continue
		}
		for _, m := range e.pseudoLegalMovesFrom(b, sq) {
			if !e.leavesKingInCheck(b, m) {
				out = append(out, m)
			}
		}
	}
	return out
}

// LegalMovesFrom returns the legal moves originating at sq, or nil if sq
// holds no piece of the side to move.
func (e *Engine) LegalMovesFrom(b *board.Board, sq board.Square) []board.Move {
	p, ok := b.Get(sq)
	if !ok || p.Color != b.Turn() {
		return nil
	}
	var out []board.Move
	for _, m := range e.pseudoLegalMovesFrom(b, sq) {
		if !e.leavesKingInCheck(b, m) {
			out = append(out, m)
		}
	}
	return out
}

// IsInCheck reports whether color's king is attacked on b.
func (e *Engine) IsInCheck(b *board.Board, color board.Color) bool {
	king, ok := b.FindKing(color)
	if !ok {
		return false
	}
	return e.isSquareAttacked(b, king, color.Opponent())
}

// IsCheckmate reports whether the side to move is in check with no legal
// moves.
func (e *Engine) IsCheckmate(b *board.Board) bool {
	return e.IsInCheck(b, b.Turn()) && len(e.LegalMoves(b)) == 0
}

// IsStalemate reports whether the side to move is not in check but has no
// legal moves.
func (e *Engine) IsStalemate(b *board.Board) bool {
	return !e.IsInCheck(b, b.Turn()) && len(e.LegalMoves(b)) == 0
}

// leavesKingInCheck applies m to a clone of b and reports whether the mover's
// own king ends up attacked. This is the self-check filter that turns
// pseudo-legal moves into legal ones.
func (e *Engine) leavesKingInCheck(b *board.Board, m board.Move) bool {
	mover, _ := b.Get(m.From)
	c := b.Clone()
	c.ApplyMove(m)
	return e.IsInCheck(c, mover.Color)
}

// isSquareAttacked reports whether any piece of attacker attacks sq on b.
func (e *Engine) isSquareAttacked(b *board.Board, sq board.Square, attacker board.Color) bool {
	for i := 0; i < board.NumFiles*board.NumRanks; i++ {
		from := board.SquareAt(i)
		p, ok := b.Get(from)
		if !ok || p.Color != attacker {
			continue
		}
		if e.attacks(b, from, p, sq) {
			return true
		}
	}
	return false
}

// attacks reports whether the piece p sitting on from attacks sq, ignoring
// whether the move would leave the attacker's own king in check (attacks are
// used for check detection, not move legality).
func (e *Engine) attacks(b *board.Board, from board.Square, p board.Piece, sq board.Square) bool {
	switch p.Kind {
	case board.Pawn:
		return pawnAttacks(p.Color, from, sq)
	case board.Knight:
		return knightAttacks(from, sq)
	case board.King:
		return kingAttacks(from, sq)
	case board.Bishop:
		return onDiagonal(from, sq) && b.PathClear(from, sq)
	case board.Rook:
		return onLine(from, sq) && b.PathClear(from, sq)
	case board.Queen:
		return (onDiagonal(from, sq) || onLine(from, sq)) && b.PathClear(from, sq)
	default:
		return false
	}
}

func pawnAttacks(color board.Color, from, sq board.Square) bool {
	dr := 1
	if color == board.Black {
		dr = -1
	}
	df := absFile(int(sq.File) - int(from.File))
	return df == 1 && int(sq.Rank)-int(from.Rank) == dr
}

func knightAttacks(from, sq board.Square) bool {
	df := absFile(int(sq.File) - int(from.File))
	dr := absFile(int(sq.Rank) - int(from.Rank))
	return (df == 1 && dr == 2) || (df == 2 && dr == 1)
}

func kingAttacks(from, sq board.Square) bool {
	df := absFile(int(sq.File) - int(from.File))
	dr := absFile(int(sq.Rank) - int(from.Rank))
	return df <= 1 && dr <= 1 && (df+dr) > 0
}

func onDiagonal(from, sq board.Square) bool {
	df := int(sq.File) - int(from.File)
	dr := int(sq.Rank) - int(from.Rank)
	return df != 0 && absFile(df) == absFile(dr)
}

func onLine(from, sq board.Square) bool {
	return (from.File == sq.File) != (from.Rank == sq.Rank)
}

func absFile(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
