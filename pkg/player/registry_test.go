package player_test

import (
	"context"
	"testing"

	"github.com/seekerror/chessd/pkg/idgen"
	"github.com/seekerror/chessd/pkg/player"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry() *player.Registry {
	return player.NewRegistry(idgen.UUIDSource{})
}

func TestRegistry_Register(t *testing.T) {
	ctx := context.Background()
	r := newRegistry()

	p, err := r.Register(ctx, "TestPlayer")
	require.NoError(t, err)

	_, ok := r.Get(p.ID())
	assert.True(t, ok)
	_, ok = r.GetByName("TestPlayer")
	assert.True(t, ok)

	_, err = r.Register(ctx, "TestPlayer")
	assert.Error(t, err)
}

func TestRegistry_Search(t *testing.T) {
	ctx := context.Background()
	r := newRegistry()

	alice, err := r.Register(ctx, "Alice")
	require.NoError(t, err)
	_, err = r.Register(ctx, "Bob")
	require.NoError(t, err)

	alice.UpdateRating(1500)

	results := r.Search(player.ByRatingRange(1400, 1600))
	require.Len(t, results, 1)
	assert.Equal(t, "alice", results[0].Name())
}

func TestRegistry_GameManagement(t *testing.T) {
	ctx := context.Background()
	r := newRegistry()

	p, err := r.Register(ctx, "TestPlayer")
	require.NoError(t, err)

	require.NoError(t, p.AddGame("game1"))
	assert.True(t, p.IsInGame("game1"))
	assert.Equal(t, player.InGame, p.Status())

	p.RemoveGame("game1")
	assert.False(t, p.IsInGame("game1"))
	assert.Equal(t, player.Online, p.Status())
}

func TestRegistry_RatingUpdate(t *testing.T) {
	ctx := context.Background()
	r := newRegistry()

	p1, err := r.Register(ctx, "Player1")
	require.NoError(t, err)
	p2, err := r.Register(ctx, "Player2")
	require.NoError(t, err)

	assert.EqualValues(t, 1200, p1.Stats().Rating)
	assert.EqualValues(t, 1200, p2.Stats().Rating)

	require.NoError(t, r.UpdateRatingsAfterGame(p1.ID(), p2.ID(), player.PlayerWin))

	assert.Greater(t, p1.Stats().Rating, uint32(1200))
	assert.Less(t, p2.Stats().Rating, uint32(1200))
}

func TestRegistry_Matchmaking(t *testing.T) {
	ctx := context.Background()
	r := newRegistry()

	p1, err := r.Register(ctx, "Player1")
	require.NoError(t, err)
	p2, err := r.Register(ctx, "Player2")
	require.NoError(t, err)
	p3, err := r.Register(ctx, "Player3")
	require.NoError(t, err)

	p1.UpdateRating(1200)
	p2.UpdateRating(1250)
	p3.UpdateRating(1500)

	opponent, ok := r.FindMatchmakingOpponent(p1.ID(), 100)
	require.True(t, ok)
	assert.Equal(t, "player2", opponent.Name())
}

func TestRegistry_Statistics(t *testing.T) {
	ctx := context.Background()
	r := newRegistry()

	for i := 0; i < 10; i++ {
		p, err := r.Register(ctx, randomName(i))
		require.NoError(t, err)
		p.UpdateRating(uint32(1000 + i*100))
	}

	assert.Equal(t, 10, r.Count())

	dist := r.RatingDistribution()
	assert.Contains(t, dist, "Novice (1000-1199)")
	assert.Contains(t, dist, "Intermediate (1200-1399)")
}

func randomName(i int) string {
	names := []string{"p0", "p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8", "p9"}
	return names[i]
}
