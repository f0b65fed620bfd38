package rules_test

import (
	"testing"

	"github.com/seekerror/chessd/pkg/board"
	"github.com/seekerror/chessd/pkg/board/fen"
	"github.com/seekerror/chessd/pkg/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_LegalMoves(t *testing.T) {

	t.Run("initial position has 20 legal moves", func(t *testing.T) {
		e := rules.NewEngine()
		b := board.NewInitial()
		assert.Len(t, e.LegalMoves(b), 20)
	})

	t.Run("scholar's mate is checkmate", func(t *testing.T) {
		e := rules.NewEngine()
		b, err := fen.Decode("r1bqkbnr/pppp1Qpp/2n5/4p3/2B1P3/8/PPPP1PPP/RNB1K1NR b KQkq - 0 4")
		require.NoError(t, err)
		assert.True(t, e.IsInCheck(b, board.Black))
		assert.True(t, e.IsCheckmate(b))
	})

	t.Run("stalemate has no legal moves and no check", func(t *testing.T) {
		e := rules.NewEngine()
		b, err := fen.Decode("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
		require.NoError(t, err)
		assert.False(t, e.IsInCheck(b, board.Black))
		assert.True(t, e.IsStalemate(b))
	})

	t.Run("pinned piece cannot move off the pin line", func(t *testing.T) {
		e := rules.NewEngine()
		b, err := fen.Decode("4k3/8/8/8/4r3/8/4R3/4K3 w - - 0 1")
		require.NoError(t, err)
		m, err := board.ParseMove("e2d2")
		require.NoError(t, err)
		assert.False(t, e.IsValidMove(b, m))
	})
}

func TestEngine_Castling(t *testing.T) {

	t.Run("king side castle is legal when path and squares are unattacked", func(t *testing.T) {
		e := rules.NewEngine()
		b, err := fen.Decode("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
		require.NoError(t, err)
		m, err := board.ParseMove("e1g1")
		require.NoError(t, err)
		assert.True(t, e.IsValidMove(b, m))
	})

	t.Run("castling through check is illegal", func(t *testing.T) {
		e := rules.NewEngine()
		b, err := fen.Decode("4k3/8/8/8/8/5r2/8/R3K2R w KQ - 0 1")
		require.NoError(t, err)
		m, err := board.ParseMove("e1g1")
		require.NoError(t, err)
		assert.False(t, e.IsValidMove(b, m))
	})
}

func TestEngine_EnPassant(t *testing.T) {

	t.Run("en passant capture is available only immediately after a double push", func(t *testing.T) {
		e := rules.NewEngine()
		b, err := fen.Decode("4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 1")
		require.NoError(t, err)
		m, err := board.ParseMove("e5d6")
		require.NoError(t, err)
		assert.True(t, e.IsValidMove(b, m))

		b.ApplyMove(m)
		_, ok := b.EnPassant()
		assert.False(t, ok)
	})
}
