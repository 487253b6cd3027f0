package engine

import (
	"github.com/plentychess/plenty/internal/board"
)

// Move ordering scores. Hash move first, then winning captures, then
// killers, then history-scored quiets; captures that look losing sink
// below everything.
const (
	HashMoveScore  = 1000000
	CaptureBase    = 100000
	BadCaptureBase = -200000
	KillerScore    = 90000

	// History entries are rescaled once any of them passes this.
	historyLimit = 100000

	// Only the best few moves are actually sorted; the tail stays in
	// generation order and rarely gets searched anyway.
	sortedMoves = 12
)

// orderingValue is the MVV-LVA piece scale.
var orderingValue = [7]int{100, 300, 300, 500, 900, 1000, 0}

// MoveOrderer holds the killer and history tables for one search
// session.
type MoveOrderer struct {
	killers [MaxPly][2]board.Move
	history [64][64]int
}

// NewMoveOrderer returns empty tables.
func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// ClearKillers empties the killer table; called at the start of every
// search.
func (mo *MoveOrderer) ClearKillers() {
	for i := range mo.killers {
		mo.killers[i][0] = board.NoMove
		mo.killers[i][1] = board.NoMove
	}
}

// AgeHistory decays history scores between searches.
func (mo *MoveOrderer) AgeHistory() {
	for i := range mo.history {
		for j := range mo.history[i] {
			mo.history[i][j] = mo.history[i][j] * 3 / 4
		}
	}
}

// ScoreMoves fills scores for every move in ml.
func (mo *MoveOrderer) ScoreMoves(pos *board.Position, ml *board.MoveList, ply int, ttMove board.Move, scores *[256]int) {
	for i := 0; i < ml.Len(); i++ {
		scores[i] = mo.scoreMove(pos, ml.Get(i), ply, ttMove)
	}
}

func (mo *MoveOrderer) scoreMove(pos *board.Position, m board.Move, ply int, ttMove board.Move) int {
	if m == ttMove {
		return HashMoveScore
	}

	if m.IsCapture() {
		attacker := pos.PieceAt(m.From()).Type()
		victim := board.Pawn
		if !m.IsEnPassant() {
			victim = pos.PieceAt(m.To()).Type()
		}
		base := CaptureBase
		if isLosingCapture(pos, m, attacker, victim) {
			base = BadCaptureBase
		}
		return base + orderingValue[victim]*10 - orderingValue[attacker]
	}

	if ply < MaxPly {
		if m == mo.killers[ply][0] || m == mo.killers[ply][1] {
			return KillerScore
		}
	}

	return mo.history[m.From()][m.To()]
}

// isLosingCapture is the simplified static-exchange check: taking a
// cheaper piece on a square the opponent defends loses material more
// often than not.
func isLosingCapture(pos *board.Position, m board.Move, attacker, victim board.PieceType) bool {
	if orderingValue[victim] >= orderingValue[attacker] {
		return false
	}
	defenders := pos.AttackersByColor(m.To(), pos.SideToMove.Other(), pos.AllOccupied)
	return defenders != 0
}

// SortTop selection-sorts the best moves to the front of the list; the
// remainder keeps generation order.
func SortTop(ml *board.MoveList, scores *[256]int, limit int) {
	n := ml.Len()
	if limit > n {
		limit = n
	}
	for i := 0; i < limit; i++ {
		best := i
		for j := i + 1; j < n; j++ {
			if scores[j] > scores[best] {
				best = j
			}
		}
		if best != i {
			ml.Swap(i, best)
			scores[i], scores[best] = scores[best], scores[i]
		}
	}
}

// UpdateKillers records a quiet move that caused a beta cutoff.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply >= MaxPly || mo.killers[ply][0] == m {
		return
	}
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// UpdateHistory rewards a quiet cutoff move by depth squared,
// rescaling the whole table when any entry grows past the limit.
func (mo *MoveOrderer) UpdateHistory(m board.Move, depth int) {
	from, to := m.From(), m.To()
	mo.history[from][to] += depth * depth
	if mo.history[from][to] > historyLimit {
		for i := range mo.history {
			for j := range mo.history[i] {
				mo.history[i][j] /= 2
			}
		}
	}
}

// HistoryScore exposes the history entry for a move.
func (mo *MoveOrderer) HistoryScore(m board.Move) int {
	return mo.history[m.From()][m.To()]
}
