package engine

import (
	"fmt"
	"log"
	"time"

	"github.com/plentychess/plenty/internal/board"
)

// SearchLimits bounds one search.
type SearchLimits struct {
	Depth    int           // maximum depth, 0 = none
	MoveTime time.Duration // time budget, 0 = none
	Nodes    uint64        // node budget, 0 = none
	Infinite bool          // run until Stop
}

// SearchInfo is emitted after every completed iteration.
type SearchInfo struct {
	Depth    int
	SelDepth int
	Score    int
	Nodes    uint64
	Time     time.Duration
	NPS      uint64
	HashFull int
	PV       []board.Move
}

// Engine is one search session: the transposition table, the
// evaluator variant and the searcher it drives. Not safe for
// concurrent searches; Stop may be called from another goroutine.
type Engine struct {
	tt       *TranspositionTable
	eval     *Evaluator
	searcher *Searcher

	// OnInfo receives progress after each completed iteration.
	OnInfo func(SearchInfo)
}

// NewEngine creates an engine with the given hash size in MB.
func NewEngine(hashMB int) *Engine {
	tt := NewTranspositionTable(hashMB)
	eval := NewEvaluator()
	return &Engine{
		tt:       tt,
		eval:     eval,
		searcher: NewSearcher(tt, eval),
	}
}

// Evaluator exposes the evaluation variant for configuration.
func (e *Engine) Evaluator() *Evaluator {
	return e.eval
}

// ResizeHash replaces the transposition table.
func (e *Engine) ResizeHash(sizeMB int) {
	e.tt = NewTranspositionTable(sizeMB)
	e.searcher.tt = e.tt
}

// Clear resets the table and the ordering history, as on ucinewgame.
func (e *Engine) Clear() {
	e.tt.Clear()
	e.searcher.orderer = NewMoveOrderer()
}

// SetPositionHistory installs the game's hash history for repetition
// detection; the last element should be the position about to be
// searched.
func (e *Engine) SetPositionHistory(hashes []uint64) {
	e.searcher.SetRootHistory(hashes)
}

// Stop requests cooperative cancellation of the running search.
func (e *Engine) Stop() {
	e.searcher.Stop()
}

// Search runs iterative deepening within limits and returns the best
// move of the deepest completed iteration. It never fails: with any
// legal move on the board, a move comes back.
func (e *Engine) Search(pos *board.Position, limits SearchLimits) board.Move {
	maxDepth := MaxPly - 1
	if limits.Depth > 0 && limits.Depth < maxDepth {
		maxDepth = limits.Depth
	}
	timeLimit := limits.MoveTime
	if limits.Infinite {
		timeLimit = 0
	}

	e.tt.NewSearch()
	e.searcher.orderer.AgeHistory()
	e.searcher.prepare(pos, timeLimit, limits.Nodes)

	var bestMove board.Move
	var bestScore int

	for depth := 1; depth <= maxDepth; depth++ {
		// Soft boundary: a deeper iteration rarely finishes once a
		// large share of the budget is gone, so don't start it.
		if timeLimit > 0 && depth > 1 && e.searcher.Elapsed() > timeLimit*2/5 {
			break
		}

		move, score := e.searcher.SearchDepth(depth)
		if e.searcher.Stopped() {
			// The interrupted iteration is discarded wholesale.
			break
		}
		if move == board.NoMove {
			break
		}

		bestMove = move
		bestScore = score

		if e.OnInfo != nil {
			elapsed := e.searcher.Elapsed()
			info := SearchInfo{
				Depth:    depth,
				SelDepth: e.searcher.SelDepth(),
				Score:    score,
				Nodes:    e.searcher.Nodes(),
				Time:     elapsed,
				HashFull: e.tt.HashFull(),
				PV:       e.searcher.PV(),
			}
			if elapsed > 0 {
				info.NPS = uint64(float64(info.Nodes) / elapsed.Seconds())
			}
			e.OnInfo(info)
		}

		if bestScore > MateScore-100 || bestScore < -MateScore+100 {
			break
		}
	}

	if bestMove == board.NoMove {
		// Timed out before depth 1 completed, or an internal failure:
		// fall back to any legal move rather than stay silent.
		legal := pos.GenerateLegalMoves()
		if legal.Len() > 0 {
			log.Printf("[Engine] no completed iteration, falling back to %s", legal.Get(0))
			bestMove = legal.Get(0)
		}
	}

	return bestMove
}

// Perft counts move-tree leaves; the move generation oracle.
func (e *Engine) Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	var ml board.MoveList
	pos.GenerateMoves(&ml)

	var nodes uint64
	var undo board.Undo
	for i := 0; i < ml.Len(); i++ {
		if !pos.TryMove(ml.Get(i), &undo) {
			continue
		}
		if depth == 1 {
			nodes++
		} else {
			nodes += e.Perft(pos, depth-1)
		}
		pos.UnmakeMove(&undo)
	}
	return nodes
}

// IsMateScore reports whether a score encodes a forced mate.
func IsMateScore(score int) bool {
	return score > MateScore-100 || score < -MateScore+100
}

// MateIn converts a mate score to full moves, sign matching the score.
func MateIn(score int) int {
	if score > 0 {
		return (MateScore - score + 1) / 2
	}
	return -(MateScore + score + 1) / 2
}

// FormatScore renders a score the way the protocol reports it.
func FormatScore(score int) string {
	if IsMateScore(score) {
		return fmt.Sprintf("mate %d", MateIn(score))
	}
	return fmt.Sprintf("cp %d", score)
}
