package runtime

import (
	"fmt"
	"math"
	"math/rand"
)

// LoopPhase tracks the per-activation state machine of a loop node.
type LoopPhase int

const (
	LoopPending LoopPhase = iota
	LoopEntering
	LoopIterating
	LoopExited
)

// RepetitionSource resolves how many times a loop body executes. The two
// implementations keep the "zero iterations means skip" semantics in one
// place: RepExpression for counted loops, BranchGuard for 0/1 conditionals.
type RepetitionSource interface {
	Repetitions(run *Run) (int, error)
}

// RepExpression is the counted-loop source: the expression must yield a
// non-negative integer. Zero skips the body.
type RepExpression struct {
	loop string
	expr string
	eval ExpressionEvaluator
}

func (s *RepExpression) Repetitions(run *Run) (int, error) {
	v, err := s.eval.Eval(s.expr, run.Env)
	if err != nil {
		if ee, ok := err.(*EvalError); ok && ee.Owner == "" {
			ee.Owner = s.loop
		}
		return 0, err
	}

	var n int
	switch r := v.(type) {
	case int:
		n = r
	case int64:
		n = int(r)
	case float64:
		if r != math.Trunc(r) {
			return 0, newConfigError(s.loop, "nReps",
				fmt.Sprintf("repetition expression %q evaluated to %v", s.expr, r), ErrNonIntegerReps)
		}
		n = int(r)
	case bool:
		// Booleans only drive loops through an explicit branch guard.
		return 0, newConfigError(s.loop, "nReps",
			fmt.Sprintf("repetition expression %q evaluated to a boolean; set branch: true", s.expr), ErrNonNumericReps)
	default:
		return 0, newConfigError(s.loop, "nReps",
			fmt.Sprintf("repetition expression %q evaluated to %T", s.expr, v), ErrNonNumericReps)
	}

	if n < 0 {
		return 0, newConfigError(s.loop, "nReps",
			fmt.Sprintf("repetition expression %q evaluated to %d", s.expr, n), ErrNegativeReps)
	}
	return n, nil
}

// BranchGuard adapts a boolean branch expression to loop repetition
// semantics: true runs the body once, false skips it. This is the flow
// language's conditional construct.
type BranchGuard struct {
	loop string
	expr string
	eval ExpressionEvaluator
}

func (g *BranchGuard) Repetitions(run *Run) (int, error) {
	v, err := g.eval.Eval(g.expr, run.Env)
	if err != nil {
		if ee, ok := err.(*EvalError); ok && ee.Owner == "" {
			ee.Owner = g.loop
		}
		return 0, err
	}

	switch r := v.(type) {
	case bool:
		if r {
			return 1, nil
		}
		return 0, nil
	case int:
		if r == 0 || r == 1 {
			return r, nil
		}
	case float64:
		if r == 0 || r == 1 {
			return int(r), nil
		}
	}
	return 0, newConfigError(g.loop, "nReps",
		fmt.Sprintf("branch expression %q evaluated to %v", g.expr, v), ErrBranchNotBoolean)
}

// LoopNode drives one activation of a loop. Iteration state is created fresh
// each time the sequencer reaches the loop: an outer loop re-entering an
// inner one discards the inner node and builds a new one, so the repetition
// expression is re-evaluated every outer pass.
type LoopNode struct {
	def    *LoopDef
	table  *ConditionTable
	source RepetitionSource

	phase   LoopPhase
	count   int
	order   []int
	visited int
	rowKeys []string
}

func newLoopNode(def *LoopDef, table *ConditionTable, eval ExpressionEvaluator) *LoopNode {
	var source RepetitionSource
	if def.Branch {
		source = &BranchGuard{loop: def.Name, expr: def.NReps, eval: eval}
	} else {
		source = &RepExpression{loop: def.Name, expr: def.NReps, eval: eval}
	}
	return &LoopNode{
		def:    def,
		table:  table,
		source: source,
		phase:  LoopPending,
	}
}

func (n *LoopNode) Phase() LoopPhase { return n.phase }
func (n *LoopNode) Count() int       { return n.count }

// Enter resolves the repetition count and draws the iteration order. A count
// of zero transitions straight to Exited.
func (n *LoopNode) Enter(run *Run) error {
	n.phase = LoopEntering

	count, err := n.source.Repetitions(run)
	if err != nil {
		n.phase = LoopExited
		return err
	}
	n.count = count

	if count == 0 {
		n.phase = LoopExited
		return nil
	}

	n.order = make([]int, count)
	if n.def.LoopType == "random" {
		if n.def.Seed != nil {
			rng := rand.New(rand.NewSource(*n.def.Seed))
			copy(n.order, rng.Perm(count))
		} else {
			// Package-level source: locked, so concurrent runs (e.g. two
			// HTTP requests) can draw permutations at the same time.
			copy(n.order, rand.Perm(count))
		}
	} else {
		for i := range n.order {
			n.order[i] = i
		}
	}

	n.phase = LoopIterating
	n.visited = 0
	return nil
}

// Next publishes the counters (and condition row, for isTrials loops) for the
// next iteration and reports whether a body pass should run.
func (n *LoopNode) Next(run *Run) bool {
	if n.phase != LoopIterating {
		return false
	}
	if n.visited >= n.count {
		return false
	}

	i := n.order[n.visited]
	n.visited++

	run.Env.Set(n.def.Name+".thisN", i)
	run.Env.Set(n.def.Name+".nTotal", n.count)
	n.bindRow(run, i)
	return true
}

// Exit retracts the counters and the current condition row. Counter scope is
// iteration-lifetime: a later loop reusing the name must not see stale values.
func (n *LoopNode) Exit(run *Run) {
	if n.phase == LoopIterating {
		run.Env.Delete(n.def.Name + ".thisN")
		run.Env.Delete(n.def.Name + ".nTotal")
		n.retractRow(run)
	}
	n.phase = LoopExited

	run.LoopRecords = append(run.LoopRecords, LoopRecord{
		Loop:  n.def.Name,
		Count: n.count,
		Order: n.order,
	})
}

// bindRow binds one condition-table row for the iteration. Absent table with
// isTrials set is permitted: binding is a no-op.
func (n *LoopNode) bindRow(run *Run, i int) {
	n.retractRow(run)
	if !n.def.IsTrials || n.table.Len() == 0 {
		return
	}

	row := n.table.Rows[i%n.table.Len()]
	n.rowKeys = n.rowKeys[:0]
	for _, col := range n.table.Columns {
		v, ok := row[col]
		if !ok {
			continue
		}
		run.Env.Set(col, v)
		n.rowKeys = append(n.rowKeys, col)
	}
}

func (n *LoopNode) retractRow(run *Run) {
	for _, k := range n.rowKeys {
		run.Env.Delete(k)
	}
	n.rowKeys = n.rowKeys[:0]
}
