package pgn_test

import (
	"context"
	"strings"
	"testing"

	"github.com/seekerror/chessd/pkg/board"
	"github.com/seekerror/chessd/pkg/game"
	"github.com/seekerror/chessd/pkg/game/pgn"
	"github.com/seekerror/chessd/pkg/idgen"
	"github.com/seekerror/chessd/pkg/rules"
	"github.com/seekerror/stdlib/pkg/lang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport(t *testing.T) {
	ctx := context.Background()
	g := game.New(idgen.UUIDSource{}, rules.NewEngine())

	_, err := g.AddPlayer("alice", lang.Some(board.White))
	require.NoError(t, err)
	_, err = g.AddPlayer("bob", lang.Some(board.Black))
	require.NoError(t, err)

	e2e4, err := board.ParseMove("e2e4")
	require.NoError(t, err)
	require.NoError(t, g.MakeMove(ctx, "alice", e2e4))

	out := pgn.Export(g)
	assert.True(t, strings.Contains(out, "[White \"alice\"]"))
	assert.True(t, strings.Contains(out, "[Black \"bob\"]"))
	assert.True(t, strings.Contains(out, "1. e2e4"))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "*"))
}
