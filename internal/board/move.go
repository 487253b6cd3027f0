package board

// Move packs a chess move into 32 bits:
//
//	bits 0-5:   from square
//	bits 6-11:  to square
//	bits 12-13: kind (quiet, capture, castle, en passant)
//	bits 14-16: promotion piece (none, queen, rook, bishop, knight)
//
// A promotion keeps kind quiet or capture; only the promotion field
// marks it. The null move is the all-zero word.
type Move uint32

// MoveKind occupies bits 12-13 of a Move.
type MoveKind uint32

const (
	Quiet MoveKind = iota
	Capture
	Castle
	EnPassant
)

// Promotion piece encoding for bits 14-16.
const (
	promoNone = iota
	promoQueen
	promoRook
	promoBishop
	promoKnight
)

// NoMove is the null move.
const NoMove Move = 0

// NewMove builds a non-promotion move of the given kind.
func NewMove(from, to Square, kind MoveKind) Move {
	return Move(from) | Move(to)<<6 | Move(kind)<<12
}

// NewPromotion builds a promotion move; kind is Quiet or Capture.
func NewPromotion(from, to Square, kind MoveKind, promo PieceType) Move {
	var p uint32
	switch promo {
	case Queen:
		p = promoQueen
	case Rook:
		p = promoRook
	case Bishop:
		p = promoBishop
	case Knight:
		p = promoKnight
	}
	return NewMove(from, to, kind) | Move(p)<<14
}

// From returns the origin square.
func (m Move) From() Square {
	return Square(m & 0x3F)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square((m >> 6) & 0x3F)
}

// Kind returns the move kind.
func (m Move) Kind() MoveKind {
	return MoveKind((m >> 12) & 3)
}

// IsCapture reports whether the move takes a piece, including en passant.
func (m Move) IsCapture() bool {
	k := m.Kind()
	return k == Capture || k == EnPassant
}

// IsCastle reports whether the move is castling (encoded as the king move).
func (m Move) IsCastle() bool {
	return m.Kind() == Castle
}

// IsEnPassant reports whether the move is an en passant capture.
func (m Move) IsEnPassant() bool {
	return m.Kind() == EnPassant
}

// IsPromotion reports whether the move promotes a pawn.
func (m Move) IsPromotion() bool {
	return (m>>14)&7 != promoNone
}

// Promotion returns the promoted piece type, or NoPieceType for
// non-promotions.
func (m Move) Promotion() PieceType {
	switch (m >> 14) & 7 {
	case promoQueen:
		return Queen
	case promoRook:
		return Rook
	case promoBishop:
		return Bishop
	case promoKnight:
		return Knight
	}
	return NoPieceType
}

// String returns the long algebraic form, e.g. "e2e4" or "e7e8q".
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	switch (m >> 14) & 7 {
	case promoQueen:
		s += "q"
	case promoRook:
		s += "r"
	case promoBishop:
		s += "b"
	case promoKnight:
		s += "n"
	}
	return s
}

// MoveList is an inline fixed-capacity move sequence. It owns no heap
// memory and is meant to live on the stack, one per search node. Legal
// chess never exceeds the capacity, so Add past it is a bug.
type MoveList struct {
	moves [256]Move
	count int
}

// Add appends a move to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Swap exchanges two moves.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Clear resets the list to empty.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains reports whether the list holds the move.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the populated portion of the list.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}
