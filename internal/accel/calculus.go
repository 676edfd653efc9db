package accel

import (
	"context"

	"github.com/loat-go/accelerate/internal/boolexpr"
	"github.com/loat-go/accelerate/internal/expr"
	"github.com/loat-go/accelerate/internal/rel"
	"github.com/loat-go/accelerate/internal/smt"
	"github.com/loat-go/accelerate/internal/vars"
)

// MaxSplitDepth bounds the split/merge recursion below. spec.md §4.4
// does not name a bound (termination there only argues that each
// *discharge* shrinks todo, not that splitting itself is bounded), so
// this is a pragmatic safety valve rather than a spec requirement —
// the original relies on splits being rare in practice rather than on
// an explicit cap.
const MaxSplitDepth = 8

// Solve runs the acceleration calculus on p: simplify first, and if
// that doesn't discharge every atom, probe for a split witness and
// recurse on the two sub-problems it produces. Grounded on
// AccelerationCalculus::solve.
func Solve(ctx context.Context, p *Problem, varMan *vars.Manager) error {
	return solveDepth(ctx, p, varMan, 0)
}

func solveDepth(ctx context.Context, p *Problem, varMan *vars.Manager, depth int) error {
	if err := p.Simplify(ctx); err != nil {
		return err
	}
	if p.Solved() {
		p.Ress = append(p.Ress, append([]rel.Rel{}, p.Res...))
		return nil
	}
	if depth >= MaxSplitDepth {
		return nil
	}

	witness, ok, err := p.EventualStrictIncrease(ctx)
	if err != nil {
		return err
	}
	if !ok {
		witness, ok, err = p.EventualWeakIncrease(ctx)
		if err != nil {
			return err
		}
	}
	if !ok {
		return nil
	}

	p.sink.Section("Split")
	p.sink.Linef("splitting wrt. %s", witness.String())

	leftN := varMan.AddFreshTemporary("n", vars.Int)
	leftTodo := append(append([]rel.Rel{}, p.Todo...), negate(witness))
	left := NewProblem(p.Res, p.Done, leftTodo, p.Up, concatClosed(p.Closed, p.N, leftN), leftN, p.solver, p.sink)
	if err := solveDepth(ctx, left, varMan, depth+1); err != nil {
		return err
	}

	rightN := varMan.AddFreshTemporary("n", vars.Int)
	rightTodo := append(append([]rel.Rel{}, p.Todo...), witness)
	right := NewProblem(p.Res, p.Done, rightTodo, p.Up, concatClosed(p.Closed, p.N, rightN), rightN, p.solver, p.sink)
	if err := solveDepth(ctx, right, varMan, depth+1); err != nil {
		return err
	}

	switch {
	case left.Solved() && right.Solved():
		p.sink.Section("Merge")
		p.sink.Linef("merging after split wrt. %s", witness.String())
		p.Equivalent = false
		for _, l := range left.Ress {
			for _, r := range right.Ress {
				merged := append([]rel.Rel{}, l...)
				merged = append(merged, rel.New(expr.Var(p.N), rel.Eq, expr.Add(expr.Var(left.N), expr.Var(right.N))))
				for _, e := range r {
					merged = append(merged, e.Subs(left.Closed))
				}
				p.Ress = append(p.Ress, merged)
			}
		}
		for _, r := range right.Ress {
			p.Ress = append(p.Ress, substituteEach(r, right.N, p.N))
		}
		for _, l := range left.Ress {
			p.Ress = append(p.Ress, substituteEach(l, left.N, p.N))
		}
		return nil
	case left.Solved():
		p.sink.Section("Remove Right")
		p.sink.Linef("removing case %s after split wrt. %s", witness.String(), witness.String())
		p.Ress = left.Ress
		p.Equivalent = left.Equivalent
		return nil
	case right.Solved():
		p.sink.Section("Remove Left")
		p.sink.Linef("removing case %s after split wrt. %s", negate(witness).String(), witness.String())
		p.Ress = right.Ress
		p.Equivalent = right.Equivalent
		return nil
	default:
		return nil
	}
}

func negate(r rel.Rel) rel.Rel {
	switch r.Op {
	case rel.Lt:
		return rel.Rel{L: r.L, R: r.R, Op: rel.Ge}
	case rel.Le:
		return rel.Rel{L: r.L, R: r.R, Op: rel.Gt}
	case rel.Gt:
		return rel.Rel{L: r.L, R: r.R, Op: rel.Le}
	case rel.Ge:
		return rel.Rel{L: r.L, R: r.R, Op: rel.Lt}
	case rel.Eq:
		return rel.Rel{L: r.L, R: r.R, Op: rel.Ne}
	default:
		return rel.Rel{L: r.L, R: r.R, Op: rel.Eq}
	}
}

func concatClosed(closed expr.Subs, oldN, newN *vars.Variable) expr.Subs {
	out := expr.Subs{}
	for v, e := range closed {
		out[v] = e
	}
	out[oldN] = expr.Var(newN)
	return out
}

func substituteEach(rs []rel.Rel, from, to *vars.Variable) []rel.Rel {
	out := make([]rel.Rel, len(rs))
	s := expr.Subs{from: expr.Var(to)}
	for i, r := range rs {
		out[i] = r.Subs(s)
	}
	return out
}

// Init builds the initial Problem for a rule's guard, given its
// one-step update and a closed form for that update already solved by
// internal/recurrence at a fresh iteration variable n (grounded on
// AccelerationProblem::init; the caller is expected to have already
// run AccelerationCalculus::init's equivalent: solving the update's
// recurrence and rejecting anything with a validity bound above 1).
func Init(guard boolexpr.Guard, up, closedUpdate expr.Subs, n *vars.Variable, solver smt.Solver, sink ProofSink) *Problem {
	return NewProblem(nil, nil, Normalize(guard), up, closedUpdate, n, solver, sink)
}

// TryNonterm attempts the nontermination branch (spec.md §4.4): prove
// the original guard is a recurrent set using the "Recurrent set" rule
// alone, with no iteration counter and no closed form — recurrence()
// only ever appends an atom to res/done literally, so it needs
// neither. Success means the rule never terminates from any state
// satisfying guard; the caller emits an accelerated rule with cost
// NonTerm and an empty update.
func TryNonterm(ctx context.Context, guard boolexpr.Guard, up expr.Subs, solver smt.Solver, sink ProofSink) (ok bool, recurrentGuard []rel.Rel, err error) {
	p := &Problem{
		Todo:   Normalize(guard),
		Up:     up,
		solver: solver,
		sink:   sink,
	}
	for {
		fired, err := p.Recurrence(ctx)
		if err != nil {
			return false, nil, err
		}
		if !fired {
			break
		}
	}
	return p.solved(), p.Done, nil
}
