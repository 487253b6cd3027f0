package nnue

import "github.com/plentychess/plenty/internal/board"

// MaxDepth bounds the accumulator stack; it matches the search's
// maximum ply.
const MaxDepth = 128

// Accumulator is one level of the stack: the feature-transformer sums
// for both perspectives plus the material scalar that picks the MLP
// output bucket for this level.
type Accumulator struct {
	White    [L1Size]int16
	Black    [L1Size]int16
	Material int
}

// AccumulatorStack tracks accumulators across make/unmake. Level p is
// always level p-1 with the move's feature deltas applied, so popping
// is a pointer decrement.
type AccumulatorStack struct {
	stack [MaxDepth]Accumulator
	top   int
}

// NewAccumulatorStack returns an empty stack.
func NewAccumulatorStack() *AccumulatorStack {
	return &AccumulatorStack{}
}

// Current returns the top accumulator.
func (s *AccumulatorStack) Current() *Accumulator {
	return &s.stack[s.top]
}

// Reset drops all levels.
func (s *AccumulatorStack) Reset() {
	s.top = 0
}

// Refresh recomputes the top accumulator from scratch for pos.
func (s *AccumulatorStack) Refresh(pos *board.Position, net *Network) {
	acc := s.Current()
	refreshPerspective(&acc.White, pos, net, board.White)
	refreshPerspective(&acc.Black, pos, net, board.Black)
	acc.Material = pos.Material
}

func refreshPerspective(out *[L1Size]int16, pos *board.Position, net *Network, persp board.Color) {
	bucket := KingBucket(pos.KingSquare[persp], persp)
	copy(out[:], net.FeatureBias[:])
	for c := board.White; c <= board.Black; c++ {
		for pt := board.Pawn; pt <= board.King; pt++ {
			pieces := pos.Pieces[c][pt]
			for pieces != 0 {
				sq := pieces.PopLSB()
				addFeature(out, net, bucket, FeatureIndex(persp, pt, c, sq))
			}
		}
	}
}

func addFeature(out *[L1Size]int16, net *Network, bucket, feature int) {
	col := net.featureColumn(bucket, feature)
	for i := 0; i < L1Size; i++ {
		out[i] += col[i]
	}
}

func subFeature(out *[L1Size]int16, net *Network, bucket, feature int) {
	col := net.featureColumn(bucket, feature)
	for i := 0; i < L1Size; i++ {
		out[i] -= col[i]
	}
}

// PushNull copies the top level unchanged, for null moves.
func (s *AccumulatorStack) PushNull() {
	if s.top+1 >= MaxDepth {
		return
	}
	s.stack[s.top+1] = s.stack[s.top]
	s.top++
}

// Pop discards the top level, reverting to the pre-move accumulator.
func (s *AccumulatorStack) Pop() {
	if s.top > 0 {
		s.top--
	}
}

// PushMove copies the top level and applies the feature deltas of a
// move. It must be called after the move was made on pos; captured is
// the piece the move removed, or NoPiece. A king move that changes its
// perspective's bucket refreshes that perspective, so the result is
// always bit-identical to Refresh.
func (s *AccumulatorStack) PushMove(pos *board.Position, m board.Move, captured board.Piece, net *Network) {
	if s.top+1 >= MaxDepth {
		return
	}
	s.stack[s.top+1] = s.stack[s.top]
	s.top++
	acc := s.Current()
	acc.Material = pos.Material

	mover := pos.SideToMove.Other()
	from, to := m.From(), m.To()

	placedType := pos.PieceAt(to).Type()
	movedType := placedType
	if m.IsPromotion() {
		movedType = board.Pawn
	}

	captureSq := to
	if m.IsEnPassant() {
		if mover == board.White {
			captureSq = to - 8
		} else {
			captureSq = to + 8
		}
	}

	for _, persp := range [2]board.Color{board.White, board.Black} {
		out := &acc.White
		if persp == board.Black {
			out = &acc.Black
		}

		if movedType == board.King && persp == mover &&
			KingBucket(from, mover) != KingBucket(to, mover) {
			refreshPerspective(out, pos, net, persp)
			continue
		}

		bucket := KingBucket(pos.KingSquare[persp], persp)
		subFeature(out, net, bucket, FeatureIndex(persp, movedType, mover, from))
		addFeature(out, net, bucket, FeatureIndex(persp, placedType, mover, to))
		if captured != board.NoPiece {
			subFeature(out, net, bucket, FeatureIndex(persp, captured.Type(), captured.Color(), captureSq))
		}
		if m.IsCastle() {
			var rookFrom, rookTo board.Square
			if to > from {
				rookFrom = board.NewSquare(7, from.Rank())
				rookTo = board.NewSquare(5, from.Rank())
			} else {
				rookFrom = board.NewSquare(0, from.Rank())
				rookTo = board.NewSquare(3, from.Rank())
			}
			subFeature(out, net, bucket, FeatureIndex(persp, board.Rook, mover, rookFrom))
			addFeature(out, net, bucket, FeatureIndex(persp, board.Rook, mover, rookTo))
		}
	}
}
