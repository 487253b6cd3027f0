package board

// Pseudo-legal move generation. Legality (king safety) is decided by
// making the move and testing the king square, not by pin analysis.
// Batch order: pawns, knights, bishops, rooks, queens, king, castling.

// GenerateMoves fills ml with all pseudo-legal moves for the side to
// move. ml is cleared first.
func (p *Position) GenerateMoves(ml *MoveList) {
	ml.Clear()
	us := p.SideToMove
	occupied := p.AllOccupied
	enemies := p.Occupied[us.Other()]

	p.generatePawnMoves(ml, us, enemies, occupied, false)

	knights := p.Pieces[us][Knight]
	for knights != 0 {
		from := knights.PopLSB()
		p.addPieceMoves(ml, from, KnightAttacks(from), enemies)
	}

	bishops := p.Pieces[us][Bishop]
	for bishops != 0 {
		from := bishops.PopLSB()
		p.addPieceMoves(ml, from, BishopAttacks(from, occupied), enemies)
	}

	rooks := p.Pieces[us][Rook]
	for rooks != 0 {
		from := rooks.PopLSB()
		p.addPieceMoves(ml, from, RookAttacks(from, occupied), enemies)
	}

	queens := p.Pieces[us][Queen]
	for queens != 0 {
		from := queens.PopLSB()
		p.addPieceMoves(ml, from, QueenAttacks(from, occupied), enemies)
	}

	p.addPieceMoves(ml, p.KingSquare[us], KingAttacks(p.KingSquare[us]), enemies)

	p.generateCastlingMoves(ml, us)
}

// GenerateCaptures fills ml with pseudo-legal captures and promotions
// only, for quiescence.
func (p *Position) GenerateCaptures(ml *MoveList) {
	ml.Clear()
	us := p.SideToMove
	occupied := p.AllOccupied
	enemies := p.Occupied[us.Other()]

	p.generatePawnMoves(ml, us, enemies, occupied, true)

	knights := p.Pieces[us][Knight]
	for knights != 0 {
		from := knights.PopLSB()
		addCaptures(ml, from, KnightAttacks(from)&enemies)
	}

	bishops := p.Pieces[us][Bishop]
	for bishops != 0 {
		from := bishops.PopLSB()
		addCaptures(ml, from, BishopAttacks(from, occupied)&enemies)
	}

	rooks := p.Pieces[us][Rook]
	for rooks != 0 {
		from := rooks.PopLSB()
		addCaptures(ml, from, RookAttacks(from, occupied)&enemies)
	}

	queens := p.Pieces[us][Queen]
	for queens != 0 {
		from := queens.PopLSB()
		addCaptures(ml, from, QueenAttacks(from, occupied)&enemies)
	}

	addCaptures(ml, p.KingSquare[us], KingAttacks(p.KingSquare[us])&enemies)
}

// addPieceMoves splits an attack set into captures and quiets.
func (p *Position) addPieceMoves(ml *MoveList, from Square, attacks, enemies Bitboard) {
	caps := attacks & enemies
	for caps != 0 {
		ml.Add(NewMove(from, caps.PopLSB(), Capture))
	}
	quiets := attacks &^ p.AllOccupied
	for quiets != 0 {
		ml.Add(NewMove(from, quiets.PopLSB(), Quiet))
	}
}

func addCaptures(ml *MoveList, from Square, targets Bitboard) {
	for targets != 0 {
		ml.Add(NewMove(from, targets.PopLSB(), Capture))
	}
}

// generatePawnMoves emits pushes, double pushes, captures, promotions
// and en passant. With capturesOnly, pushes are limited to promotions.
func (p *Position) generatePawnMoves(ml *MoveList, us Color, enemies, occupied Bitboard, capturesOnly bool) {
	pawns := p.Pieces[us][Pawn]
	empty := ^occupied

	var push1, push2, attackL, attackR, promotionRank Bitboard
	var pushDir int
	if us == White {
		push1 = pawns.North() & empty
		push2 = (push1 & Rank3).North() & empty
		attackL = pawns.NorthWest() & enemies
		attackR = pawns.NorthEast() & enemies
		promotionRank = Rank8
		pushDir = 8
	} else {
		push1 = pawns.South() & empty
		push2 = (push1 & Rank6).South() & empty
		attackL = pawns.SouthWest() & enemies
		attackR = pawns.SouthEast() & enemies
		promotionRank = Rank1
		pushDir = -8
	}

	if !capturesOnly {
		nonPromo := push1 &^ promotionRank
		for nonPromo != 0 {
			to := nonPromo.PopLSB()
			ml.Add(NewMove(Square(int(to)-pushDir), to, Quiet))
		}
		for push2 != 0 {
			to := push2.PopLSB()
			ml.Add(NewMove(Square(int(to)-2*pushDir), to, Quiet))
		}
	}

	nonPromoL := attackL &^ promotionRank
	for nonPromoL != 0 {
		to := nonPromoL.PopLSB()
		ml.Add(NewMove(Square(int(to)-pushDir+1), to, Capture))
	}
	nonPromoR := attackR &^ promotionRank
	for nonPromoR != 0 {
		to := nonPromoR.PopLSB()
		ml.Add(NewMove(Square(int(to)-pushDir-1), to, Capture))
	}

	promoPush := push1 & promotionRank
	for promoPush != 0 {
		to := promoPush.PopLSB()
		addPromotions(ml, Square(int(to)-pushDir), to, Quiet)
	}
	promoL := attackL & promotionRank
	for promoL != 0 {
		to := promoL.PopLSB()
		addPromotions(ml, Square(int(to)-pushDir+1), to, Capture)
	}
	promoR := attackR & promotionRank
	for promoR != 0 {
		to := promoR.PopLSB()
		addPromotions(ml, Square(int(to)-pushDir-1), to, Capture)
	}

	if p.EnPassant != NoSquare {
		epBB := SquareBB(p.EnPassant)
		var epAttackers Bitboard
		if us == White {
			epAttackers = (epBB.SouthWest() | epBB.SouthEast()) & pawns
		} else {
			epAttackers = (epBB.NorthWest() | epBB.NorthEast()) & pawns
		}
		for epAttackers != 0 {
			ml.Add(NewMove(epAttackers.PopLSB(), p.EnPassant, EnPassant))
		}
	}
}

func addPromotions(ml *MoveList, from, to Square, kind MoveKind) {
	ml.Add(NewPromotion(from, to, kind, Queen))
	ml.Add(NewPromotion(from, to, kind, Rook))
	ml.Add(NewPromotion(from, to, kind, Bishop))
	ml.Add(NewPromotion(from, to, kind, Knight))
}

// generateCastlingMoves requires the right still set, the span empty
// and the king's start, transit and end squares unattacked. The rook
// placement is implied by the right being set.
func (p *Position) generateCastlingMoves(ml *MoveList, us Color) {
	them := us.Other()
	if us == White {
		if p.CastlingRights&WhiteKingSideCastle != 0 &&
			p.AllOccupied&(SquareBB(F1)|SquareBB(G1)) == 0 &&
			!p.IsSquareAttacked(E1, them) && !p.IsSquareAttacked(F1, them) && !p.IsSquareAttacked(G1, them) {
			ml.Add(NewMove(E1, G1, Castle))
		}
		if p.CastlingRights&WhiteQueenSideCastle != 0 &&
			p.AllOccupied&(SquareBB(B1)|SquareBB(C1)|SquareBB(D1)) == 0 &&
			!p.IsSquareAttacked(E1, them) && !p.IsSquareAttacked(D1, them) && !p.IsSquareAttacked(C1, them) {
			ml.Add(NewMove(E1, C1, Castle))
		}
	} else {
		if p.CastlingRights&BlackKingSideCastle != 0 &&
			p.AllOccupied&(SquareBB(F8)|SquareBB(G8)) == 0 &&
			!p.IsSquareAttacked(E8, them) && !p.IsSquareAttacked(F8, them) && !p.IsSquareAttacked(G8, them) {
			ml.Add(NewMove(E8, G8, Castle))
		}
		if p.CastlingRights&BlackQueenSideCastle != 0 &&
			p.AllOccupied&(SquareBB(B8)|SquareBB(C8)|SquareBB(D8)) == 0 &&
			!p.IsSquareAttacked(E8, them) && !p.IsSquareAttacked(D8, them) && !p.IsSquareAttacked(C8, them) {
			ml.Add(NewMove(E8, C8, Castle))
		}
	}
}

// GenerateLegalMoves returns the fully legal moves; convenience path
// for the protocol layer and tests.
func (p *Position) GenerateLegalMoves() *MoveList {
	var pseudo MoveList
	p.GenerateMoves(&pseudo)
	legal := &MoveList{}
	var undo Undo
	for i := 0; i < pseudo.Len(); i++ {
		m := pseudo.Get(i)
		if p.TryMove(m, &undo) {
			p.UnmakeMove(&undo)
			legal.Add(m)
		}
	}
	return legal
}

// HasLegalMoves reports whether the side to move has any legal move.
func (p *Position) HasLegalMoves() bool {
	var pseudo MoveList
	p.GenerateMoves(&pseudo)
	var undo Undo
	for i := 0; i < pseudo.Len(); i++ {
		if p.TryMove(pseudo.Get(i), &undo) {
			p.UnmakeMove(&undo)
			return true
		}
	}
	return false
}

// Undo carries everything needed to revert a move: a structural
// snapshot of the prior position plus the captured piece for callers
// that track feature deltas.
type Undo struct {
	prev     Position
	Captured Piece
}

// TryMove makes the move and reports whether it is legal. On an
// illegal move the position is restored and false returned; otherwise
// the move stays applied and the caller unmakes it later.
func (p *Position) TryMove(m Move, undo *Undo) bool {
	mover := p.SideToMove
	p.MakeMove(m, undo)
	if p.IsSquareAttacked(p.KingSquare[mover], p.SideToMove) {
		p.UnmakeMove(undo)
		return false
	}
	return true
}

// MakeMove applies the move, maintaining the hash and the cached
// material scalar incrementally. The prior state is snapshotted into
// undo; UnmakeMove restores it wholesale.
func (p *Position) MakeMove(m Move, undo *Undo) {
	undo.prev = *p
	undo.Captured = NoPiece

	us := p.SideToMove
	them := us.Other()
	from, to := m.From(), m.To()
	piece := p.PieceAt(from)
	pt := piece.Type()

	p.Hash ^= zobristSideToMove
	p.Hash ^= zobristCastling[p.CastlingRights]
	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
	}
	p.EnPassant = NoSquare

	switch m.Kind() {
	case EnPassant:
		capturedSq := to - 8
		if us == Black {
			capturedSq = to + 8
		}
		victim := NewPiece(Pawn, them)
		p.removePiece(victim, capturedSq)
		p.Hash ^= zobristPiece[them][Pawn][capturedSq]
		p.Material -= materialValue[Pawn]
		undo.Captured = victim
	case Capture:
		victim := p.PieceAt(to)
		p.removePiece(victim, to)
		p.Hash ^= zobristPiece[them][victim.Type()][to]
		p.Material -= materialValue[victim.Type()]
		undo.Captured = victim
	}

	p.movePiece(piece, from, to)
	p.Hash ^= zobristPiece[us][pt][from]
	p.Hash ^= zobristPiece[us][pt][to]

	if m.IsPromotion() {
		promo := m.Promotion()
		p.Pieces[us][Pawn] &^= SquareBB(to)
		p.Pieces[us][promo] |= SquareBB(to)
		p.Hash ^= zobristPiece[us][Pawn][to]
		p.Hash ^= zobristPiece[us][promo][to]
		p.Material += materialValue[promo] - materialValue[Pawn]
	}

	if m.IsCastle() {
		var rookFrom, rookTo Square
		if to > from {
			rookFrom = NewSquare(7, from.Rank())
			rookTo = NewSquare(5, from.Rank())
		} else {
			rookFrom = NewSquare(0, from.Rank())
			rookTo = NewSquare(3, from.Rank())
		}
		p.movePiece(NewPiece(Rook, us), rookFrom, rookTo)
		p.Hash ^= zobristPiece[us][Rook][rookFrom]
		p.Hash ^= zobristPiece[us][Rook][rookTo]
	}

	if pt == King {
		if us == White {
			p.CastlingRights &^= WhiteKingSideCastle | WhiteQueenSideCastle
		} else {
			p.CastlingRights &^= BlackKingSideCastle | BlackQueenSideCastle
		}
	}
	// A rook leaving or being captured on its home square drops the
	// matching right.
	if from == A1 || to == A1 {
		p.CastlingRights &^= WhiteQueenSideCastle
	}
	if from == H1 || to == H1 {
		p.CastlingRights &^= WhiteKingSideCastle
	}
	if from == A8 || to == A8 {
		p.CastlingRights &^= BlackQueenSideCastle
	}
	if from == H8 || to == H8 {
		p.CastlingRights &^= BlackKingSideCastle
	}
	p.Hash ^= zobristCastling[p.CastlingRights]

	if pt == Pawn && abs(int(to)-int(from)) == 16 {
		epSquare := Square((int(from) + int(to)) / 2)
		p.EnPassant = epSquare
		p.Hash ^= zobristEnPassant[epSquare.File()]
	}

	if pt == Pawn || undo.Captured != NoPiece {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}
	if us == Black {
		p.FullMoveNumber++
	}
	p.SideToMove = them
}

// UnmakeMove restores the snapshot taken by MakeMove.
func (p *Position) UnmakeMove(undo *Undo) {
	*p = undo.prev
}

// IsInsufficientMaterial reports positions where neither side can mate.
func (p *Position) IsInsufficientMaterial() bool {
	if p.Pieces[White][Pawn]|p.Pieces[Black][Pawn] != 0 ||
		p.Pieces[White][Rook]|p.Pieces[Black][Rook] != 0 ||
		p.Pieces[White][Queen]|p.Pieces[Black][Queen] != 0 {
		return false
	}
	wMinors := (p.Pieces[White][Knight] | p.Pieces[White][Bishop]).PopCount()
	bMinors := (p.Pieces[Black][Knight] | p.Pieces[Black][Bishop]).PopCount()
	return wMinors <= 1 && bMinors == 0 || bMinors <= 1 && wMinors == 0
}
