package board

import "fmt"

// Move represents a not-necessarily-legal move, along with the contextual
// flags the rules engine needs to apply it correctly.
type Move struct {
	From, To    Square
	Promotion   Kind // desired piece for promotion, if any
	IsCastle    bool
	IsEnPassant bool
}

// ParseMove parses a move in pure algebraic coordinate notation, such as
// "e2e4" or "a7a8q". The parsed move carries no castling or en-passant
// context; callers that need legal-move semantics should match it against
// a generated move instead of trusting it directly.
func ParseMove(str string) (Move, error) {
	runes := []rune(str)
	if len(runes) < 4 || len(runes) > 5 {
		return Move{}, fmt.Errorf("invalid move: %q", str)
	}

	from, err := ParseSquare(string(runes[0:2]))
	if err != nil {
		return Move{}, fmt.Errorf("invalid from square in move %q: %w", str, err)
	}
	to, err := ParseSquare(string(runes[2:4]))
	if err != nil {
		return Move{}, fmt.Errorf("invalid to square in move %q: %w", str, err)
	}

	m := Move{From: from, To: to}
	if len(runes) == 5 {
		promo, ok := ParseKind(runes[4])
		if !ok || !promo.IsPromotable() {
			return Move{}, fmt.Errorf("invalid promotion in move: %q", str)
		}
		m.Promotion = promo
	}
	return m, nil
}

// Equals compares two moves by from/to/promotion, ignoring the contextual
// castle/en-passant flags (which are derived, not user-supplied).
func (m Move) Equals(o Move) bool {
	return m.From == o.From && m.To == o.To && m.Promotion == o.Promotion
}

func (m Move) String() string {
	if m.Promotion != NoKind {
		return fmt.Sprintf("%v%v%v", m.From, m.To, m.Promotion)
	}
	return fmt.Sprintf("%v%v", m.From, m.To)
}
