package fen_test

import (
	"testing"

	"github.com/seekerror/chessd/pkg/board"
	"github.com/seekerror/chessd/pkg/board/fen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEncode_RoundTrip(t *testing.T) {
	tests := []string{
		fen.Initial,
		"4k3/2pppp2/8/4P1K1/4PP2/3P4/8/8 w - - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/5P2/PPPPP1PP/RNBQKBNR w KQkq - 0 1",
		"r1bqkbnr/pppp1Qpp/2n5/4p3/2B1P3/8/PPPP1PPP/RNB1K1NR b KQkq - 0 4",
	}

	for _, tt := range tests {
		b, err := fen.Decode(tt)
		require.NoError(t, err)
		assert.Equal(t, tt, fen.Encode(b))
	}
}

func TestDecode_InvalidFields(t *testing.T) {
	_, err := fen.Decode("not a fen string")
	assert.Error(t, err)
}

func TestDecode_InitialPositionMatchesBoardNewInitial(t *testing.T) {
	b, err := fen.Decode(fen.Initial)
	require.NoError(t, err)
	assert.Equal(t, board.NewInitial().ToFEN(), b.ToFEN())
}
