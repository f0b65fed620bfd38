// Package board contains the chess board representation: squares, pieces,
// castling rights and the mechanics of applying an already-legal move.
// Move legality itself lives in the rules package; Board only knows how to
// hold and mutate a position.
package board

import (
	"fmt"
	"strings"

	"github.com/seekerror/stdlib/pkg/lang"
)

// Board is a mutable 8x8 chess position plus the metadata needed to apply
// moves and produce a FEN string. It does not keep move or position
// history; that is GameState's responsibility (see pkg/game), because a
// Board can be cloned cheaply for the rules engine's self-check filter.
type Board struct {
	squares   [NumFiles * NumRanks]Piece
	turn      Color
	castling  Castling
	enPassant lang.Optional[Square]
	halfmove  int
	fullmove  int
}

// NewEmpty returns a board with no pieces, White to move, full castling
// rights and no en-passant target. Callers typically follow with Place
// calls, or use NewInitial for the standard starting position.
func NewEmpty() *Board {
	return &Board{
		turn:     White,
		castling: FullCastingRights,
		fullmove: 1,
	}
}

// NewInitial returns the standard starting position.
func NewInitial() *Board {
	b := NewEmpty()
	back := [NumFiles]Kind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	for f := 0; f < NumFiles; f++ {
		b.Place(NewSquare(f, int(Rank1)), Piece{Kind: back[f], Color: White})
		b.Place(NewSquare(f, int(Rank2)), Piece{Kind: Pawn, Color: White})
		b.Place(NewSquare(f, int(Rank7)), Piece{Kind: Pawn, Color: Black})
		b.Place(NewSquare(f, int(Rank8)), Piece{Kind: back[f], Color: Black})
	}
	return b
}

// Clone returns a deep copy of the board, suitable for the rules engine's
// self-check filter (apply provisionally, inspect, discard).
func (b *Board) Clone() *Board {
	c := *b
	return &c
}

func (b *Board) Turn() Color               { return b.turn }
func (b *Board) Castling() Castling        { return b.castling }
func (b *Board) EnPassant() (Square, bool) { return b.enPassant.V() }
func (b *Board) HalfmoveClock() int        { return b.halfmove }
func (b *Board) FullmoveNumber() int       { return b.fullmove }
func (b *Board) SetTurn(c Color)           { b.turn = c }
func (b *Board) SetCastling(c Castling)    { b.castling = c }
func (b *Board) SetHalfmoveClock(n int)    { b.halfmove = n }
func (b *Board) SetFullmoveNumber(n int)   { b.fullmove = n }
func (b *Board) SetEnPassant(sq Square)    { b.enPassant = lang.Some(sq) }
func (b *Board) ClearEnPassant()           { b.enPassant = lang.None[Square]() }

// Get returns the piece on the square, and whether the square is occupied.
func (b *Board) Get(sq Square) (Piece, bool) {
	p := b.squares[sq.Index()]
	return p, !p.IsEmpty()
}

// Place puts a piece on the square, overwriting any current occupant.
func (b *Board) Place(sq Square, p Piece) {
	b.squares[sq.Index()] = p
}

// Remove empties the square and returns what was there, if anything.
func (b *Board) Remove(sq Square) (Piece, bool) {
	p, ok := b.Get(sq)
	b.squares[sq.Index()] = Piece{}
	return p, ok
}

// IsEmpty reports whether the square has no piece.
func (b *Board) IsEmpty(sq Square) bool {
	_, ok := b.Get(sq)
	return !ok
}

// IsOccupiedBy reports whether the square holds a piece of the given color.
func (b *Board) IsOccupiedBy(sq Square, color Color) bool {
	p, ok := b.Get(sq)
	return ok && p.Color == color
}

// FindKing returns the square of the color's king. A board reachable by
// legal moves always has exactly one.
func (b *Board) FindKing(color Color) (Square, bool) {
	for i := range b.squares {
		p := b.squares[i]
		if p.Kind == King && p.Color == color {
			return SquareAt(i), true
		}
	}
	return Square{}, false
}

// PathClear reports whether every square strictly between from and to
// (exclusive of both endpoints) is empty. from and to must lie on a common
// rank, file or diagonal; adjacent squares are trivially clear. Behavior is
// undefined if from/to are not aligned.
func (b *Board) PathClear(from, to Square) bool {
	df := sign(int(to.File) - int(from.File))
	dr := sign(int(to.Rank) - int(from.Rank))

	cur, ok := from.Offset(df, dr)
	for ok && cur != to {
		if !b.IsEmpty(cur) {
			return false
		}
		cur, ok = cur.Offset(df, dr)
	}
	return true
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// ApplyMove assumes m is already legal (see rules.Engine.IsValidMove) and
// mutates the board in place: piece placement, en-passant target, castling
// rights, halfmove clock, fullmove number and side to move.
func (b *Board) ApplyMove(m Move) {
	mover, _ := b.Get(m.From)
	isCapture := !b.IsEmpty(m.To)
	isPawnMove := mover.Kind == Pawn

	b.ClearEnPassant()

	switch {
	case m.IsEnPassant:
		capturedSq := NewSquare(int(m.To.File), int(m.From.Rank))
		b.Remove(capturedSq)
		isCapture = true

	case m.IsCastle:
		b.applyCastle(mover.Color, m)

	case isPawnMove && abs(int(m.To.Rank)-int(m.From.Rank)) == 2:
		// Double push: set the en-passant target for the next ply only.
		mid := NewSquare(int(m.From.File), (int(m.From.Rank)+int(m.To.Rank))/2)
		b.SetEnPassant(mid)
	}

	b.Remove(m.From)
	placed := mover
	placed.HasMoved = true
	if m.Promotion != NoKind {
		placed.Kind = m.Promotion
	}
	b.Place(m.To, placed)

	b.updateCastlingRights(mover, m)

	if isPawnMove || isCapture {
		b.halfmove = 0
	} else {
		b.halfmove++
	}

	if b.turn == Black {
		b.fullmove++
	}
	b.turn = b.turn.Opponent()
}

func (b *Board) applyCastle(color Color, m Move) {
	rank := int(Rank1)
	if color == Black {
		rank = int(Rank8)
	}

	kingSide := m.To.File > m.From.File
	var rookFrom, rookTo Square
	if kingSide {
		rookFrom = NewSquare(int(FileH), rank)
		rookTo = NewSquare(int(FileF), rank)
	} else {
		rookFrom = NewSquare(int(FileA), rank)
		rookTo = NewSquare(int(FileD), rank)
	}

	rook, _ := b.Remove(rookFrom)
	rook.HasMoved = true
	b.Place(rookTo, rook)
}

func (b *Board) updateCastlingRights(mover Piece, m Move) {
	if mover.Kind == King {
		b.castling = b.castling.Revoke(Both(mover.Color))
	}
	if mover.Kind == Rook {
		b.revokeRookRight(mover.Color, m.From)
	}
	// A captured rook on its home square permanently revokes that right,
	// even if the capturing piece isn't a rook.
	b.revokeRookRight(White, m.To)
	b.revokeRookRight(Black, m.To)
}

func (b *Board) revokeRookRight(color Color, sq Square) {
	rank := Rank1
	if color == Black {
		rank = Rank8
	}
	if sq.Rank != rank {
		return
	}
	switch sq.File {
	case FileA:
		b.castling = b.castling.Revoke(QueenSide(color))
	case FileH:
		b.castling = b.castling.Revoke(KingSide(color))
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// PositionKey returns the subset of FEN fields used for threefold
// repetition equality: piece placement, side to move, castling rights and
// en-passant square. Halfmove/fullmove counters are intentionally excluded.
func (b *Board) PositionKey() string {
	full := b.ToFEN()
	parts := strings.SplitN(full, " ", 5)
	return strings.Join(parts[:4], " ")
}

// ToFEN renders the board as a standard six-field FEN string.
func (b *Board) ToFEN() string {
	var sb strings.Builder
	for r := int(Rank8); r >= int(Rank1); r-- {
		blanks := 0
		for f := 0; f < NumFiles; f++ {
			p, ok := b.Get(NewSquare(f, r))
			if !ok {
				blanks++
				continue
			}
			if blanks > 0 {
				fmt.Fprintf(&sb, "%d", blanks)
				blanks = 0
			}
			sb.WriteString(p.String())
		}
		if blanks > 0 {
			fmt.Fprintf(&sb, "%d", blanks)
		}
		if r > int(Rank1) {
			sb.WriteString("/")
		}
	}

	ep := "-"
	if sq, ok := b.EnPassant(); ok {
		ep = sq.String()
	}

	return fmt.Sprintf("%v %v %v %v %d %d", sb.String(), b.turn, b.castling, ep, b.halfmove, b.fullmove)
}

func (b *Board) String() string {
	return b.ToFEN()
}
