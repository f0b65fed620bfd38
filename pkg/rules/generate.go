package rules

import "github.com/seekerror/chessd/pkg/board"

// pseudoLegalMovesFrom returns every move a piece on sq could make ignoring
// whether it leaves its own king in check. Castling and en-passant are
// included here with their full legality preconditions (king/rook unmoved,
// squares unattacked, matching en-passant target) since those preconditions
// are cheap to check and not expressible as a later self-check filter pass.
func (e *Engine) pseudoLegalMovesFrom(b *board.Board, sq board.Square) []board.Move {
	p, ok := b.Get(sq)
	if !ok {
		return nil
	}
	switch p.Kind {
	case board.Pawn:
		return e.pawnMoves(b, sq, p)
	case board.Knight:
		return e.stepMoves(b, sq, p, knightOffsets)
	case board.Bishop:
		return e.rayMoves(b, sq, p, diagonalDirs)
	case board.Rook:
		return e.rayMoves(b, sq, p, lineDirs)
	case board.Queen:
		return e.rayMoves(b, sq, p, append(append([]offset{}, lineDirs...), diagonalDirs...))
	case board.King:
		moves := e.stepMoves(b, sq, p, kingOffsets)
		moves = append(moves, e.castleMoves(b, sq, p)...)
		return moves
	default:
		return nil
	}
}

type offset struct{ df, dr int }

var (
	knightOffsets = []offset{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingOffsets   = []offset{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	lineDirs      = []offset{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	diagonalDirs  = []offset{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

func (e *Engine) stepMoves(b *board.Board, from board.Square, p board.Piece, offsets []offset) []board.Move {
	var out []board.Move
	for _, o := range offsets {
		to, ok := from.Offset(o.df, o.dr)
		if !ok || b.IsOccupiedBy(to, p.Color) {
			continue
		}
		out = append(out, board.Move{From: from, To: to})
	}
	return out
}

func (e *Engine) rayMoves(b *board.Board, from board.Square, p board.Piece, dirs []offset) []board.Move {
	var out []board.Move
	for _, d := range dirs {
		to, ok := from.Offset(d.df, d.dr)
		for ok {
			if b.IsOccupiedBy(to, p.Color) {
				break
			}
			out = append(out, board.Move{From: from, To: to})
			if !b.IsEmpty(to) {
				break // captured an enemy piece, ray stops here
			}
			to, ok = to.Offset(d.df, d.dr)
		}
	}
	return out
}

func (e *Engine) pawnMoves(b *board.Board, from board.Square, p board.Piece) []board.Move {
	var out []board.Move
	dr := 1
	startRank, promoRank := board.Rank2, board.Rank8
	if p.Color == board.Black {
		dr = -1
		startRank, promoRank = board.Rank7, board.Rank1
	}

	if one, ok := from.Offset(0, dr); ok && b.IsEmpty(one) {
		out = append(out, promote(from, one, promoRank)...)
		if from.Rank == startRank {
			if two, ok := from.Offset(0, 2*dr); ok && b.IsEmpty(two) {
				out = append(out, board.Move{From: from, To: two})
			}
		}
	}

	for _, df := range []int{-1, 1} {
		to, ok := from.Offset(df, dr)
		if !ok {
			continue
		}
		if b.IsOccupiedBy(to, p.Color.Opponent()) {
			out = append(out, promote(from, to, promoRank)...)
			continue
		}
		if ep, ok := b.EnPassant(); ok && ep == to {
			out = append(out, board.Move{From: from, To: to, IsEnPassant: true})
		}
	}
	return out
}

func promote(from, to board.Square, promoRank board.Rank) []board.Move {
	if to.Rank != promoRank {
		return []board.Move{{From: from, To: to}}
	}
	kinds := []board.Kind{board.Queen, board.Rook, board.Bishop, board.Knight}
	out := make([]board.Move, len(kinds))
	for i, k := range kinds {
		out[i] = board.Move{From: from, To: to, Promotion: k}
	}
	return out
}

// castleMoves returns the king moves representing castling, subject to the
// standard preconditions: neither king nor rook has moved, the squares
// between them are empty, and the king is not in check, does not pass
// through, and does not land on an attacked square.
func (e *Engine) castleMoves(b *board.Board, from board.Square, p board.Piece) []board.Move {
	if p.Kind != board.King {
		return nil
	}
	rank := board.Rank1
	if p.Color == board.Black {
		rank = board.Rank8
	}
	if from != board.NewSquare(int(board.FileE), int(rank)) {
		return nil
	}
	opp := p.Color.Opponent()
	if e.isSquareAttacked(b, from, opp) {
		return nil
	}

	var out []board.Move
	if b.Castling().IsAllowed(board.KingSide(p.Color)) {
		pass := board.NewSquare(int(board.FileF), int(rank))
		to := board.NewSquare(int(board.FileG), int(rank))
		rookSq := board.NewSquare(int(board.FileH), int(rank))
		if b.IsEmpty(pass) && b.IsEmpty(to) && b.IsOccupiedBy(rookSq, p.Color) &&
			!e.isSquareAttacked(b, pass, opp) && !e.isSquareAttacked(b, to, opp) {
			out = append(out, board.Move{From: from, To: to, IsCastle: true})
		}
	}
	if b.Castling().IsAllowed(board.QueenSide(p.Color)) {
		passD := board.NewSquare(int(board.FileD), int(rank))
		to := board.NewSquare(int(board.FileC), int(rank))
		passB := board.NewSquare(int(board.FileB), int(rank))
		rookSq := board.NewSquare(int(board.FileA), int(rank))
		if b.IsEmpty(passD) && b.IsEmpty(to) && b.IsEmpty(passB) && b.IsOccupiedBy(rookSq, p.Color) &&
			!e.isSquareAttacked(b, passD, opp) && !e.isSquareAttacked(b, to, opp) {
			out = append(out, board.Move{From: from, To: to, IsCastle: true})
		}
	}
	return out
}
