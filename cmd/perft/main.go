// perft is a legal-movegen debugging tool: it counts the leaf nodes of the
// game tree to a fixed depth, the standard cross-check for a chess rules
// engine. See: https://www.chessprogramming.org/Perft_Results.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/seekerror/chessd/pkg/board"
	"github.com/seekerror/chessd/pkg/board/fen"
	"github.com/seekerror/chessd/pkg/rules"
	"github.com/seekerror/logw"
)

var (
	depth    = flag.Int("depth", 4, "Search depth")
	position = flag.String("fen", "", "Start position (default to standard)")
	divide   = flag.Bool("divide", false, "Divide counts by initial move")
)

func main() {
	ctx := context.Background()
	flag.Parse()

	if *position == "" {
		*position = fen.Initial
	}

	b, err := fen.Decode(*position)
	if err != nil {
		logw.Exitf(ctx, "invalid fen %q: %v", *position, err)
	}
	e := rules.NewEngine()

	for i := 1; i <= *depth; i++ {
		start := time.Now()
		nodes := search(e, b, i, *divide && i == *depth)
		elapsed := time.Since(start)

		fmt.Printf("perft,%v,%v,%v,%v\n", *position, i, nodes, elapsed.Microseconds())
	}
}

func search(e *rules.Engine, b *board.Board, depth int, d bool) int64 {
	if depth == 0 {
		return 1
	}

	var nodes int64
	for _, m := range e.LegalMoves(b) {
		next := b.Clone()
		next.ApplyMove(m)

		count := search(e, next, depth-1, false)
		if d {
			fmt.Printf("%v: %v\n", m, count)
		}
		nodes += count
	}
	return nodes
}
