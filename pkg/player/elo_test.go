package player_test

import (
	"testing"

	"github.com/seekerror/chessd/pkg/player"
	"github.com/stretchr/testify/assert"
)

func TestCalculateRatingChange(t *testing.T) {
	tests := []struct {
		name                 string
		playerRating         uint32
		opponentRating       uint32
		result               player.GameOutcome
		expPlayer, expOpp    int32
	}{
		{"equal ratings, win", 1500, 1500, player.PlayerWin, 16, -16},
		{"equal ratings, draw", 1500, 1500, player.DrawOutcome, 0, 0},
		{"favorite wins", 1600, 1400, player.PlayerWin, 8, -8},
		{"underdog wins", 1400, 1600, player.PlayerWin, 24, -24},
		{"equal ratings, loss", 1500, 1500, player.OpponentWin, -16, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dp, do := player.CalculateRatingChange(tt.playerRating, tt.opponentRating, tt.result)
			assert.Equal(t, tt.expPlayer, dp)
			assert.Equal(t, tt.expOpp, do)
		})
	}
}

func TestApplyRatingChange_Floor(t *testing.T) {
	assert.EqualValues(t, 100, player.ApplyRatingChange(110, -32))
	assert.EqualValues(t, 1516, player.ApplyRatingChange(1500, 16))
}

func TestRatingUpdate_ExactValues(t *testing.T) {
	dp, do := player.CalculateRatingChange(1500, 1500, player.PlayerWin)
	assert.EqualValues(t, 1516, player.ApplyRatingChange(1500, dp))
	assert.EqualValues(t, 1484, player.ApplyRatingChange(1500, do))

	dp, do = player.CalculateRatingChange(1600, 1400, player.PlayerWin)
	assert.InDelta(t, 1607, int(player.ApplyRatingChange(1600, dp)), 1)
	assert.InDelta(t, 1393, int(player.ApplyRatingChange(1400, do)), 1)
}
