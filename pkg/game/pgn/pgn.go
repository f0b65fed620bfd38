// Package pgn renders a finished or in-progress game as Portable Game
// Notation text. This is a supplemental export feature, not part of the
// wire protocol: clients that want a game's move list use GetGameInfo, but
// an operator-facing dump (or a future export endpoint) needs a real PGN.
package pgn

import (
	"fmt"
	"strings"

	"github.com/seekerror/chessd/pkg/board"
	"github.com/seekerror/chessd/pkg/game"
	"github.com/seekerror/stdlib/pkg/lang"
)

// Export renders g as a single PGN game, with the seven-tag roster headers
// populated from what GameState tracks (Event/Site/Round are fixed, Date from
// creation time, White/Black from seated player ids, Result from outcome).
func Export(g *game.GameState) string {
	info := g.GetInfo()

	var sb strings.Builder
	fmt.Fprintf(&sb, "[Event \"Chess game\"]\n")
	fmt.Fprintf(&sb, "[Site \"chessd\"]\n")
	fmt.Fprintf(&sb, "[Date \"%s\"]\n", info.CreatedAt.UTC().Format("2006.01.02"))
	fmt.Fprintf(&sb, "[Round \"-\"]\n")
	fmt.Fprintf(&sb, "[White \"%s\"]\n", orUnknown(info.White))
	fmt.Fprintf(&sb, "[Black \"%s\"]\n", orUnknown(info.Black))
	fmt.Fprintf(&sb, "[Result \"%s\"]\n\n", resultTag(info.Outcome))

	sb.WriteString(moveText(g))
	sb.WriteString(" ")
	sb.WriteString(resultTag(info.Outcome))
	return sb.String()
}

func orUnknown(opt lang.Optional[string]) string {
	if id, ok := opt.V(); ok {
		return id
	}
	return "Unknown"
}

// moveText renders the move history in pure algebraic notation, numbered in
// move pairs. A disambiguating SAN renderer is future work; coordinate
// notation is unambiguous and sufficient for replay.
func moveText(g *game.GameState) string {
	var sb strings.Builder
	for i, m := range g.MoveHistory() {
		if i%2 == 0 {
			fmt.Fprintf(&sb, "%d.", i/2+1)
		}
		fmt.Fprintf(&sb, " %s ", m.String())
	}
	return strings.TrimSpace(sb.String())
}

func resultTag(o game.Outcome) string {
	switch o.Result {
	case game.Checkmate, game.Resignation, game.Timeout:
		if w, ok := o.Winner.V(); ok {
			if w == board.White {
				return "1-0"
			}
			return "0-1"
		}
	case game.Stalemate, game.Draw:
		return "1/2-1/2"
	}
	return "*"
}
