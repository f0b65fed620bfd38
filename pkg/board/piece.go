package board

// Kind represents a chess piece's type (King, Pawn, etc), with no color.
type Kind uint8

const (
	NoKind Kind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

// ParseKind parses a single-letter piece kind, case insensitive.
func ParseKind(r rune) (Kind, bool) {
	switch r {
	case 'p', 'P':
		return Pawn, true
	case 'n', 'N':
		return Knight, true
	case 'b', 'B':
		return Bishop, true
	case 'r', 'R':
		return Rook, true
	case 'q', 'Q':
		return Queen, true
	case 'k', 'K':
		return King, true
	default:
		return NoKind, false
	}
}

// IsPromotable reports whether the kind is a legal promotion target.
func (k Kind) IsPromotable() bool {
	return k == Queen || k == Rook || k == Bishop || k == Knight
}

func (k Kind) IsValid() bool {
	return Pawn <= k && k <= King
}

func (k Kind) String() string {
	switch k {
	case NoKind:
		return " "
	case Pawn:
		return "p"
	case Knight:
		return "n"
	case Bishop:
		return "b"
	case Rook:
		return "r"
	case Queen:
		return "q"
	case King:
		return "k"
	default:
		return "?"
	}
}

// Piece is a chess piece occupying a square: its kind, color and whether it
// has moved since the start of the game. HasMoved is derived attribute kept
// on the live piece purely for castling/double-push eligibility; it is
// reconstructable from move history.
type Piece struct {
	Kind     Kind
	Color    Color
	HasMoved bool
}

// IsEmpty reports whether the square this piece value sits in is empty.
func (p Piece) IsEmpty() bool {
	return p.Kind == NoKind
}

func (p Piece) String() string {
	if p.IsEmpty() {
		return "."
	}
	if p.Color == White {
		switch p.Kind {
		case Pawn:
			return "P"
		case Knight:
			return "N"
		case Bishop:
			return "B"
		case Rook:
			return "R"
		case Queen:
			return "Q"
		case King:
			return "K"
		}
	}
	return p.Kind.String()
}
