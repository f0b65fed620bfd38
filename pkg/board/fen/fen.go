// Package fen contains utilities for reading and writing positions in
// Forsyth-Edwards Notation. Parsing is provided to support test fixtures
// and position setup; it is not exposed on the wire protocol.
package fen

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/seekerror/chessd/pkg/board"
)

// Initial is the FEN for the standard starting position.
const Initial = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Decode parses a six-field FEN string into a Board.
func Decode(fen string) (*board.Board, error) {
	parts := strings.Fields(strings.TrimSpace(fen))
	if len(parts) != 6 {
		return nil, fmt.Errorf("invalid number of fields in FEN: %q", fen)
	}

	b := board.NewEmpty()

	ranks := strings.Split(parts[0], "/")
	if len(ranks) != board.NumRanks {
		return nil, fmt.Errorf("invalid number of ranks in FEN: %q", fen)
	}
	for i, row := range ranks {
		rank := board.NumRanks - 1 - i
		file := 0
		for _, r := range row {
			switch {
			case unicode.IsDigit(r):
				file += int(r - '0')
			default:
				color, kind, ok := parsePiece(r)
				if !ok {
					return nil, fmt.Errorf("invalid piece %q in FEN: %q", r, fen)
				}
				if file >= board.NumFiles {
					return nil, fmt.Errorf("rank overflow in FEN: %q", fen)
				}
				sq := board.NewSquare(file, rank)
				b.Place(sq, board.Piece{Kind: kind, Color: color, HasMoved: !onHomeSquare(kind, color, sq)})
				file++
			}
		}
		if file != board.NumFiles {
			return nil, fmt.Errorf("invalid rank width in FEN: %q", fen)
		}
	}

	turn, ok := parseColor(parts[1])
	if !ok {
		return nil, fmt.Errorf("invalid active color in FEN: %q", fen)
	}
	b.SetTurn(turn)

	castling, ok := parseCastling(parts[2])
	if !ok {
		return nil, fmt.Errorf("invalid castling rights in FEN: %q", fen)
	}
	b.SetCastling(castling)

	if parts[3] != "-" {
		sq, err := board.ParseSquare(parts[3])
		if err != nil {
			return nil, fmt.Errorf("invalid en-passant square in FEN: %q", fen)
		}
		b.SetEnPassant(sq)
	}

	halfmove, err := strconv.Atoi(parts[4])
	if err != nil || halfmove < 0 {
		return nil, fmt.Errorf("invalid halfmove clock in FEN: %q", fen)
	}
	b.SetHalfmoveClock(halfmove)

	fullmove, err := strconv.Atoi(parts[5])
	if err != nil || fullmove < 1 {
		return nil, fmt.Errorf("invalid fullmove number in FEN: %q", fen)
	}
	b.SetFullmoveNumber(fullmove)

	return b, nil
}

// onHomeSquare reports whether a piece of this kind/color sitting on sq is
// consistent with never having moved. Used to approximate HasMoved from a
// bare FEN string, which otherwise carries no move-history information:
// castling legality itself is governed by the board's Castling() rights,
// not by this heuristic, but pawn double-push eligibility needs it.
func onHomeSquare(kind board.Kind, color board.Color, sq board.Square) bool {
	homeRank, pawnRank := board.Rank1, board.Rank2
	if color == board.Black {
		homeRank, pawnRank = board.Rank8, board.Rank7
	}
	if kind == board.Pawn {
		return sq.Rank == pawnRank
	}
	return sq.Rank == homeRank
}

// Encode renders the board in standard six-field FEN. Equivalent to
// b.ToFEN(), provided alongside Decode for a symmetric encode/decode pair.
func Encode(b *board.Board) string {
	return b.ToFEN()
}

func parseColor(str string) (board.Color, bool) {
	switch str {
	case "w":
		return board.White, true
	case "b":
		return board.Black, true
	default:
		return 0, false
	}
}

func parseCastling(str string) (board.Castling, bool) {
	var ret board.Castling
	if str == "-" {
		return ret, true
	}
	for _, r := range str {
		switch r {
		case 'K':
			ret |= board.WhiteKingSideCastle
		case 'Q':
			ret |= board.WhiteQueenSideCastle
		case 'k':
			ret |= board.BlackKingSideCastle
		case 'q':
			ret |= board.BlackQueenSideCastle
		default:
			return 0, false
		}
	}
	return ret, true
}

func parsePiece(r rune) (board.Color, board.Kind, bool) {
	kind, ok := board.ParseKind(r)
	if !ok {
		return 0, 0, false
	}
	if unicode.IsUpper(r) {
		return board.White, kind, true
	}
	return board.Black, kind, true
}
