package board_test

import (
	"strings"
	"testing"

	"github.com/seekerror/chessd/pkg/board"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSquare_Validity(t *testing.T) {
	assert.True(t, board.NewSquare(0, 0).IsValid())
	assert.True(t, board.NewSquare(7, 7).IsValid())
	assert.False(t, board.NewSquare(8, 0).IsValid())
	assert.False(t, board.NewSquare(0, 8).IsValid())
	assert.False(t, board.NewSquare(-1, 3).IsValid())
}

func TestParseSquare(t *testing.T) {
	sq, err := board.ParseSquare("e4")
	require.NoError(t, err)
	assert.Equal(t, board.FileE, sq.File)
	assert.Equal(t, board.Rank4, sq.Rank)
	assert.Equal(t, "e4", sq.String())

	_, err = board.ParseSquare("i9")
	assert.Error(t, err)
	_, err = board.ParseSquare("e")
	assert.Error(t, err)
}

func TestBoard_InitialFEN(t *testing.T) {
	b := board.NewInitial()
	assert.True(t, strings.HasPrefix(b.ToFEN(), "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -"))
}

func TestBoard_ApplyMove_DoublePushSetsEnPassant(t *testing.T) {
	b := board.NewInitial()
	m, err := board.ParseMove("e2e4")
	require.NoError(t, err)
	b.ApplyMove(m)

	ep, ok := b.EnPassant()
	require.True(t, ok)
	assert.Equal(t, "e3", ep.String())
	assert.Equal(t, board.Black, b.Turn())

	// Any other move clears the target.
	m, err = board.ParseMove("b8c6")
	require.NoError(t, err)
	b.ApplyMove(m)
	_, ok = b.EnPassant()
	assert.False(t, ok)
}

func TestBoard_ApplyMove_CastleMovesRook(t *testing.T) {
	b := board.NewEmpty()
	b.Place(board.NewSquare(4, 0), board.Piece{Kind: board.King, Color: board.White})
	b.Place(board.NewSquare(7, 0), board.Piece{Kind: board.Rook, Color: board.White})

	b.ApplyMove(board.Move{
		From:     board.NewSquare(4, 0),
		To:       board.NewSquare(6, 0),
		IsCastle: true,
	})

	king, ok := b.Get(board.NewSquare(6, 0))
	require.True(t, ok)
	assert.Equal(t, board.King, king.Kind)
	rook, ok := b.Get(board.NewSquare(5, 0))
	require.True(t, ok)
	assert.Equal(t, board.Rook, rook.Kind)
	assert.True(t, b.IsEmpty(board.NewSquare(7, 0)))
	assert.False(t, b.Castling().IsAllowed(board.WhiteKingSideCastle))
	assert.False(t, b.Castling().IsAllowed(board.WhiteQueenSideCastle))
}

func TestBoard_ApplyMove_EnPassantRemovesCapturedPawn(t *testing.T) {
	b := board.NewEmpty()
	b.Place(board.NewSquare(4, 4), board.Piece{Kind: board.Pawn, Color: board.White, HasMoved: true})
	b.Place(board.NewSquare(3, 4), board.Piece{Kind: board.Pawn, Color: board.Black, HasMoved: true})
	b.SetEnPassant(board.NewSquare(3, 5))

	b.ApplyMove(board.Move{
		From:        board.NewSquare(4, 4),
		To:          board.NewSquare(3, 5),
		IsEnPassant: true,
	})

	assert.True(t, b.IsEmpty(board.NewSquare(3, 4)))
	p, ok := b.Get(board.NewSquare(3, 5))
	require.True(t, ok)
	assert.Equal(t, board.Pawn, p.Kind)
	assert.Equal(t, board.White, p.Color)
	assert.Equal(t, 0, b.HalfmoveClock())
}

func TestBoard_ApplyMove_HalfmoveClock(t *testing.T) {
	b := board.NewInitial()

	apply := func(str string) {
		m, err := board.ParseMove(str)
		require.NoError(t, err)
		b.ApplyMove(m)
	}

	apply("g1f3")
	assert.Equal(t, 1, b.HalfmoveClock())
	apply("b8c6")
	assert.Equal(t, 2, b.HalfmoveClock())
	apply("e2e4") // pawn move resets
	assert.Equal(t, 0, b.HalfmoveClock())
	assert.Equal(t, 2, b.FullmoveNumber())
}

func TestBoard_PositionKeyExcludesClocks(t *testing.T) {
	a := board.NewInitial()
	b := board.NewInitial()
	b.SetHalfmoveClock(42)
	b.SetFullmoveNumber(99)

	assert.Equal(t, a.PositionKey(), b.PositionKey())
	assert.NotEqual(t, a.ToFEN(), b.ToFEN())
}

func TestBoard_RookCaptureRevokesCastlingRight(t *testing.T) {
	b := board.NewEmpty()
	b.Place(board.NewSquare(4, 0), board.Piece{Kind: board.King, Color: board.White})
	b.Place(board.NewSquare(7, 0), board.Piece{Kind: board.Rook, Color: board.White})
	b.Place(board.NewSquare(4, 7), board.Piece{Kind: board.King, Color: board.Black})
	b.Place(board.NewSquare(7, 7), board.Piece{Kind: board.Rook, Color: board.Black})
	b.Place(board.NewSquare(6, 5), board.Piece{Kind: board.Knight, Color: board.White, HasMoved: true})

	// White knight captures the black h8 rook.
	b.ApplyMove(board.Move{From: board.NewSquare(6, 5), To: board.NewSquare(7, 7)})

	assert.False(t, b.Castling().IsAllowed(board.BlackKingSideCastle))
	assert.True(t, b.Castling().IsAllowed(board.WhiteKingSideCastle))
}
