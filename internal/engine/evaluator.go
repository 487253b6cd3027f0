package engine

import (
	"log"

	"github.com/plentychess/plenty/internal/board"
	"github.com/plentychess/plenty/internal/nnue"
)

// EvalMode selects the evaluation variant for a search.
type EvalMode uint8

const (
	EvalClassical EvalMode = iota
	EvalNNUE
)

// Evaluator is a tagged variant over the two evaluation backends. The
// mode is fixed for the duration of a search; the hot path switches on
// it rather than paying a virtual call.
type Evaluator struct {
	mode EvalMode
	net  *nnue.Network
	acc  *nnue.AccumulatorStack
}

// NewEvaluator returns a classical evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{mode: EvalClassical}
}

// LoadNetwork loads the weights blob and switches to neural
// evaluation. On any failure the evaluator stays classical; the error
// is reported once here and never reaches the search layer.
func (e *Evaluator) LoadNetwork(path string) error {
	net, err := nnue.LoadWeights(path)
	if err != nil {
		log.Printf("[Eval] network unavailable, staying classical: %v", err)
		e.mode = EvalClassical
		return err
	}
	e.net = net
	e.acc = nnue.NewAccumulatorStack()
	e.mode = EvalNNUE
	log.Printf("[Eval] network loaded from %s", path)
	return nil
}

// SetNetwork installs an already-parsed network.
func (e *Evaluator) SetNetwork(net *nnue.Network) {
	e.net = net
	e.acc = nnue.NewAccumulatorStack()
	e.mode = EvalNNUE
}

// Mode returns the active evaluation variant.
func (e *Evaluator) Mode() EvalMode {
	return e.mode
}

// Reset prepares the evaluator for a search from pos: the accumulator
// stack is rewound and refreshed.
func (e *Evaluator) Reset(pos *board.Position) {
	if e.mode == EvalNNUE {
		e.acc.Reset()
		e.acc.Refresh(pos, e.net)
	}
}

// Evaluate returns the static evaluation from the side to move's
// perspective.
func (e *Evaluator) Evaluate(pos *board.Position) int {
	if e.mode == EvalNNUE {
		return e.net.Evaluate(e.acc.Current(), pos.SideToMove)
	}
	return Evaluate(pos)
}

// PushMove advances the accumulator for a move that was just made.
func (e *Evaluator) PushMove(pos *board.Position, m board.Move, captured board.Piece) {
	if e.mode == EvalNNUE {
		e.acc.PushMove(pos, m, captured, e.net)
	}
}

// PushNull advances the accumulator across a null move.
func (e *Evaluator) PushNull() {
	if e.mode == EvalNNUE {
		e.acc.PushNull()
	}
}

// Pop rewinds the accumulator after an unmake.
func (e *Evaluator) Pop() {
	if e.mode == EvalNNUE {
		e.acc.Pop()
	}
}
