package game_test

import (
	"context"
	"testing"

	"github.com/seekerror/chessd/pkg/board"
	"github.com/seekerror/chessd/pkg/game"
	"github.com/seekerror/chessd/pkg/idgen"
	"github.com/seekerror/chessd/pkg/rules"
	"github.com/seekerror/stdlib/pkg/lang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGame(t *testing.T) *game.GameState {
	t.Helper()
	return game.New(idgen.UUIDSource{}, rules.NewEngine())
}

func move(t *testing.T, str string) board.Move {
	t.Helper()
	m, err := board.ParseMove(str)
	require.NoError(t, err)
	return m
}

func TestGameState_ScholarsMate(t *testing.T) {
	ctx := context.Background()
	g := newTestGame(t)

	white, err := g.AddPlayer("white-1", lang.Some(board.White))
	require.NoError(t, err)
	assert.Equal(t, board.White, white)
	black, err := g.AddPlayer("black-1", lang.Some(board.Black))
	require.NoError(t, err)
	assert.Equal(t, board.Black, black)

	moves := []struct {
		player string
		move   string
	}{
		{"white-1", "e2e4"}, {"black-1", "e7e5"},
		{"white-1", "f1c4"}, {"black-1", "b8c6"},
		{"white-1", "d1h5"}, {"black-1", "g8f6"},
		{"white-1", "h5f7"},
	}
	for _, mv := range moves {
		require.NoError(t, g.MakeMove(ctx, mv.player, move(t, mv.move)))
	}

	info := g.GetInfo()
	assert.Equal(t, game.Checkmate, info.Outcome.Result)
	winner, ok := info.Outcome.Winner.V()
	require.True(t, ok)
	assert.Equal(t, board.White, winner)
	assert.Len(t, g.MoveHistory(), 7)
	assert.Len(t, g.PositionHistory(), 8)
}

func TestGameState_StalematePosition(t *testing.T) {
	g, err := game.NewFromFEN(idgen.UUIDSource{}, rules.NewEngine(), "7k/8/6QK/8/8/8/8/8 b - - 0 1")
	require.NoError(t, err)

	assert.Empty(t, g.GetLegalMoves())
	assert.Equal(t, game.Stalemate, g.CheckGameEnd().Result)

	// A move attempt against the now-finished game is rejected, whichever
	// square it names.
	_, err = g.AddPlayer("black-1", lang.Some(board.Black))
	require.NoError(t, err)
	assert.Error(t, g.MakeMove(context.Background(), "black-1", move(t, "h8h7")))
}

func TestGameState_EnPassantWindow(t *testing.T) {
	ctx := context.Background()
	g := newTestGame(t)
	_, err := g.AddPlayer("white-1", lang.Some(board.White))
	require.NoError(t, err)
	_, err = g.AddPlayer("black-1", lang.Some(board.Black))
	require.NoError(t, err)

	seq := []struct {
		player string
		move   string
	}{
		{"white-1", "e2e4"}, {"black-1", "a7a6"},
		{"white-1", "e4e5"}, {"black-1", "d7d5"},
	}
	for _, mv := range seq {
		require.NoError(t, g.MakeMove(ctx, mv.player, move(t, mv.move)))
	}

	assert.True(t, hasEnPassantCapture(g.GetLegalMoves(), "e5d6"))

	// The window closes after any intervening move pair.
	require.NoError(t, g.MakeMove(ctx, "white-1", move(t, "b1c3")))
	require.NoError(t, g.MakeMove(ctx, "black-1", move(t, "a6a5")))
	assert.False(t, hasEnPassantCapture(g.GetLegalMoves(), "e5d6"))
}

func hasEnPassantCapture(moves []board.Move, str string) bool {
	for _, m := range moves {
		if m.String() == str && m.IsEnPassant {
			return true
		}
	}
	return false
}

func TestGameState_ThreefoldRepetition(t *testing.T) {
	ctx := context.Background()
	g := newTestGame(t)
	_, err := g.AddPlayer("white-1", lang.Some(board.White))
	require.NoError(t, err)
	_, err = g.AddPlayer("black-1", lang.Some(board.Black))
	require.NoError(t, err)

	seq := []string{"g1f3", "g8f6", "f3g1", "f6g8", "g1f3", "g8f6", "f3g1", "f6g8"}
	for i, mv := range seq {
		player := "white-1"
		if i%2 == 1 {
			player = "black-1"
		}
		require.NoError(t, g.MakeMove(ctx, player, move(t, mv)))
	}

	info := g.GetInfo()
	assert.Equal(t, game.Draw, info.Outcome.Result)
	assert.Equal(t, game.ThreefoldRepetition, info.Outcome.DrawReason)
}

func TestGameState_NotYourTurn(t *testing.T) {
	ctx := context.Background()
	g := newTestGame(t)
	_, err := g.AddPlayer("white-1", lang.Some(board.White))
	require.NoError(t, err)
	_, err = g.AddPlayer("black-1", lang.Some(board.Black))
	require.NoError(t, err)

	err = g.MakeMove(ctx, "black-1", move(t, "e7e5"))
	assert.Error(t, err)
}

func TestGameState_DrawOfferLapsesOnMove(t *testing.T) {
	ctx := context.Background()
	g := newTestGame(t)
	_, err := g.AddPlayer("white-1", lang.Some(board.White))
	require.NoError(t, err)
	_, err = g.AddPlayer("black-1", lang.Some(board.Black))
	require.NoError(t, err)

	require.NoError(t, g.OfferDraw("white-1"))
	require.NoError(t, g.MakeMove(ctx, "white-1", move(t, "e2e4")))

	err = g.RespondToDraw("black-1", true)
	assert.Error(t, err)
}

func TestGameState_Resign(t *testing.T) {
	g := newTestGame(t)
	_, err := g.AddPlayer("white-1", lang.Some(board.White))
	require.NoError(t, err)
	_, err = g.AddPlayer("black-1", lang.Some(board.Black))
	require.NoError(t, err)

	require.NoError(t, g.Resign("white-1"))
	info := g.GetInfo()
	assert.Equal(t, game.Resignation, info.Outcome.Result)
	winner, ok := info.Outcome.Winner.V()
	require.True(t, ok)
	assert.Equal(t, board.Black, winner)
}
