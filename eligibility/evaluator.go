package eligibility

// =============================================================================
// EVALUATOR - Folds a record over the ordered steps
// =============================================================================

// Evaluator classifies records for one board. It holds no mutable state and
// is safe for concurrent use.
type Evaluator struct {
	board *Board
	steps []step
}

// NewEvaluator creates an evaluator for the board.
func NewEvaluator(board *Board) *Evaluator {
	return &Evaluator{board: board, steps: steps}
}

// Board returns the board this evaluator classifies for.
func (ev *Evaluator) Board() *Board { return ev.board }

// Evaluate returns exactly one Result for r. The first step to decide wins;
// the name of that step is recorded on the result. If the chain ends without
// a decision the record is reported as Indeterminate rather than dropped.
func (ev *Evaluator) Evaluate(r Record) Result {
	e := evaluation{record: r, board: ev.board}
	if ctx, ok := ev.board.ContextFor(r.Grade); ok {
		e.ctx = ctx
	}

	for _, s := range ev.steps {
		v := s.check(e)
		if res, ok := v.Terminal(); ok {
			res.Step = s.name
			return res
		}
		if v.belowZone {
			e.belowZone = true
		}
	}
	return Indeterminate(ReasonNoDecision, "rule chain ended without a decision")
}
