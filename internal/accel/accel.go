// Package accel implements the acceleration calculus (spec.md §4.4),
// the central component that discharges a rule's guard atom by atom
// against a one-step update and a closed-form update parameterised by
// an iteration counter n, producing a guard that is sound for every
// iteration count the calculus manages to discharge.
//
// Grounded rule-for-rule on the original's
// accelerate/accelerationproblem.hpp: every SMT hypothesis/query pair
// below follows AccelerationProblem's monotonicity, recurrence,
// eventualStrictDecrease, eventualWeakDecrease, eventualStrictIncrease
// and eventualWeakIncrease methods. Two behaviours are shared by all of
// them:
//
//   - each rule's second SMT query asserts the NEGATION of the
//     consequent and checks for Unsat, which proves the implication
//     from the first query's hypotheses — e.g. monotonicity asserts
//     `t[up] ≤ 0`, then `¬(t ≤ 0)`, and fires on Unsat. This holds for
//     all four discharge rules and both split probes.
//   - a rule's scan of todo aborts the ENTIRE call, not just the
//     current atom, the first time an atom's first SMT query comes
//     back anything other than Sat (including Unknown) — it does not
//     continue on to the next todo atom. This is unusual control flow,
//     but it is what the original does, uniformly, in every rule.
package accel

import (
	"context"

	"github.com/loat-go/accelerate/internal/boolexpr"
	"github.com/loat-go/accelerate/internal/expr"
	"github.com/loat-go/accelerate/internal/rel"
	"github.com/loat-go/accelerate/internal/smt"
	"github.com/loat-go/accelerate/internal/vars"
)

// Problem is one node of the acceleration calculus's search, carrying
// the discharged atoms (done), the atoms still to be discharged
// (todo), the accumulated result atoms (res, one family of result
// guards per solved leaf in ress), the one-step update (up), the
// closed-form update parameterised by n (closed), and the split flag
// (equivalent).
type Problem struct {
	Res        []rel.Rel
	Ress       [][]rel.Rel
	Done       []rel.Rel
	Todo       []rel.Rel
	Up         expr.Subs
	Closed     expr.Subs
	N          *vars.Variable
	Equivalent bool

	solver smt.Solver
	sink   ProofSink
}

// NewProblem builds a Problem seeded with res (a split's two
// sub-problems continue from their parent's accumulated res, per the
// original constructor's signature). Matching the original
// constructor, it then immediately records `n > 1` as a result atom:
// acceleration is only ever worth emitting for at least two
// iterations, since a single iteration is just the original rule.
func NewProblem(res, done, todo []rel.Rel, up, closed expr.Subs, n *vars.Variable, solver smt.Solver, sink ProofSink) *Problem {
	seeded := append(append([]rel.Rel{}, res...), rel.New(expr.Var(n), rel.Gt, expr.Const(1)))
	return &Problem{
		Res:        seeded,
		Done:       append([]rel.Rel{}, done...),
		Todo:       append([]rel.Rel{}, todo...),
		Up:         up,
		Closed:     closed,
		N:          n,
		Equivalent: true,
		solver:     solver,
		sink:       sink,
	}
}

// Normalize splits guard equalities into their `≥`/`≤` halves and
// rewrites every atom into the calculus's canonical `t ⋈ 0` shape
// (grounded on AccelerationProblem::normalize).
func Normalize(g boolexpr.Guard) []rel.Rel {
	var out []rel.Rel
	for _, lit := range g.Lits() {
		if lit.Op == rel.Eq {
			le, ge := lit.SplitEquality()
			out = append(out, normalizeRel(ge), normalizeRel(le))
			continue
		}
		out = append(out, normalizeRel(lit))
	}
	return out
}

func normalizeRel(r rel.Rel) rel.Rel {
	switch r.Op {
	case rel.Lt, rel.Gt:
		return r.MakeRhsZero()
	default:
		return r.ToLeq()
	}
}

func lit(r rel.Rel) *boolexpr.BoolExpr { return boolexpr.Lit(r) }

func shiftDown(n *vars.Variable) expr.Subs {
	return expr.Subs{n: expr.Sub(expr.Var(n), expr.Const(1))}
}

// solved reports whether every guard atom has been discharged.
func (p *Problem) solved() bool { return len(p.Todo) == 0 }

// print appends the current res/done/todo to the proof sink, mirroring
// the original's print().
func (p *Problem) print() {
	p.sink.Linef("res: %s", relsString(p.Res))
	p.sink.Linef("done: %s", relsString(p.Done))
	p.sink.Linef("todo: %s", relsString(p.Todo))
}

func relsString(rs []rel.Rel) string {
	s := ""
	for i, r := range rs {
		if i > 0 {
			s += ", "
		}
		s += r.String()
	}
	return s
}

// assertDone resets the solver and re-asserts every already-discharged
// atom, the way each original rule method builds a fresh Z3 context
// and solver per call.
func (p *Problem) assertDone() error {
	p.solver.Reset()
	for _, e := range p.Done {
		if err := p.solver.Add(lit(e)); err != nil {
			return err
		}
	}
	return nil
}

// Monotonicity implements the "Monotonic decrease" rule.
func (p *Problem) Monotonicity(ctx context.Context) (bool, error) {
	if err := p.assertDone(); err != nil {
		return false, err
	}
	for i, e := range p.Todo {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		p.solver.Push()
		updated := e.Subs(p.Up)
		if err := p.solver.Add(lit(updated)); err != nil {
			return false, err
		}
		res, err := p.solver.Check(ctx)
		if err != nil {
			return false, err
		}
		if res != smt.Sat {
			return false, nil
		}
		if err := p.solver.Add(lit(negate(e))); err != nil {
			return false, err
		}
		res, err = p.solver.Check(ctx)
		if err != nil {
			return false, err
		}
		if res == smt.Unsat {
			p.sink.Section("Simplify")
			p.sink.Linef("handled %s via conditional one-way monotonicity", e.String())
			p.Done = append(p.Done, e)
			p.Res = append(p.Res, e.Subs(p.Closed).Subs(shiftDown(p.N)))
			p.Todo = removeAt(p.Todo, i)
			p.solver.Pop()
			p.print()
			return true, nil
		}
		p.solver.Pop()
	}
	return false, nil
}

// Recurrence implements the "Recurrent set" rule.
func (p *Problem) Recurrence(ctx context.Context) (bool, error) {
	if err := p.assertDone(); err != nil {
		return false, err
	}
	for i, e := range p.Todo {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		p.solver.Push()
		if err := p.solver.Add(lit(e)); err != nil {
			return false, err
		}
		res, err := p.solver.Check(ctx)
		if err != nil {
			return false, err
		}
		if res != smt.Sat {
			return false, nil
		}
		updated := e.Subs(p.Up)
		if err := p.solver.Add(lit(negate(updated))); err != nil {
			return false, err
		}
		res, err = p.solver.Check(ctx)
		if err != nil {
			return false, err
		}
		if res == smt.Unsat {
			p.sink.Section("Simplify")
			p.sink.Linef("handled %s via conditional recurrent sets", e.String())
			p.Done = append(p.Done, e)
			p.Res = append(p.Res, e)
			p.Todo = removeAt(p.Todo, i)
			p.solver.Pop()
			p.print()
			return true, nil
		}
		p.solver.Pop()
	}
	return false, nil
}

// EventualStrictDecrease implements the "Eventual strict decrease" rule.
func (p *Problem) EventualStrictDecrease(ctx context.Context) (bool, error) {
	return p.eventualDecrease(ctx, rel.Gt, rel.Le)
}

// EventualWeakDecrease implements the "Eventual weak decrease" rule.
func (p *Problem) EventualWeakDecrease(ctx context.Context) (bool, error) {
	return p.eventualDecrease(ctx, rel.Ge, rel.Lt)
}

// eventualDecrease is shared by EventualStrictDecrease/WeakDecrease,
// which differ only in which comparator orients the two queries
// (strict uses `>`/`≤`, weak uses `≥`/`<`).
func (p *Problem) eventualDecrease(ctx context.Context, firstOp, secondOp rel.Op) (bool, error) {
	if err := p.assertDone(); err != nil {
		return false, err
	}
	for i, e := range p.Todo {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		p.solver.Push()
		t := e.L
		updated := t.Subs(p.Up)
		if err := p.solver.Add(lit(rel.New(t, firstOp, updated))); err != nil {
			return false, err
		}
		res, err := p.solver.Check(ctx)
		if err != nil {
			return false, err
		}
		if res != smt.Sat {
			return false, nil
		}
		updatedTwice := updated.Subs(p.Up)
		if err := p.solver.Add(lit(negate(rel.New(updated, secondOp, updatedTwice)))); err != nil {
			return false, err
		}
		res, err = p.solver.Check(ctx)
		if err != nil {
			return false, err
		}
		if res == smt.Unsat {
			p.sink.Section("Simplify")
			p.sink.Linef("handled %s via eventual monotonicity", e.String())
			p.Done = append(p.Done, e)
			p.Res = append(p.Res, e)
			p.Res = append(p.Res, e.Subs(p.Closed).Subs(shiftDown(p.N)))
			p.Todo = removeAt(p.Todo, i)
			p.solver.Pop()
			p.print()
			return true, nil
		}
		p.solver.Pop()
	}
	return false, nil
}

// Solved reports whether every guard atom has been discharged.
func (p *Problem) Solved() bool { return p.solved() }

// Simplify loops through the four discharge rules, restarting the scan
// from the top after each success, until none of them fire.
func (p *Problem) Simplify(ctx context.Context) error {
	for {
		fired, err := p.Recurrence(ctx)
		if err != nil {
			return err
		}
		if !fired {
			fired, err = p.Monotonicity(ctx)
			if err != nil {
				return err
			}
		}
		if !fired {
			fired, err = p.EventualStrictDecrease(ctx)
			if err != nil {
				return err
			}
		}
		if !fired {
			fired, err = p.EventualWeakDecrease(ctx)
			if err != nil {
				return err
			}
		}
		if !fired {
			return nil
		}
	}
}

// EventualStrictIncrease is the "eventual strict increase" split probe.
// It returns ok=false when no atom in todo yields a witness.
func (p *Problem) EventualStrictIncrease(ctx context.Context) (witness rel.Rel, ok bool, err error) {
	return p.eventualIncrease(ctx, rel.Lt, rel.Ge)
}

// EventualWeakIncrease is the "eventual weak increase" split probe, the
// `≤`/`>` dual of EventualStrictIncrease.
func (p *Problem) EventualWeakIncrease(ctx context.Context) (witness rel.Rel, ok bool, err error) {
	return p.eventualIncrease(ctx, rel.Le, rel.Gt)
}

func (p *Problem) eventualIncrease(ctx context.Context, firstOp, secondOp rel.Op) (rel.Rel, bool, error) {
	if err := p.assertDone(); err != nil {
		return rel.Rel{}, false, err
	}
	for _, e := range p.Todo {
		if err := ctx.Err(); err != nil {
			return rel.Rel{}, false, err
		}
		p.solver.Push()
		t := e.L
		updated := t.Subs(p.Up)
		if err := p.solver.Add(lit(rel.New(t, firstOp, updated))); err != nil {
			return rel.Rel{}, false, err
		}
		res, err := p.solver.Check(ctx)
		if err != nil {
			return rel.Rel{}, false, err
		}
		if res != smt.Sat {
			return rel.Rel{}, false, nil
		}
		updatedTwice := updated.Subs(p.Up)
		if err := p.solver.Add(lit(negate(rel.New(updated, secondOp, updatedTwice)))); err != nil {
			return rel.Rel{}, false, err
		}
		res, err = p.solver.Check(ctx)
		if err != nil {
			return rel.Rel{}, false, err
		}
		if res == smt.Unsat {
			p.solver.Pop()
			return normalizeRel(rel.New(t, firstOp, updated)), true, nil
		}
		p.solver.Pop()
	}
	return rel.Rel{}, false, nil
}

func removeAt(rs []rel.Rel, i int) []rel.Rel {
	out := append([]rel.Rel{}, rs[:i]...)
	return append(out, rs[i+1:]...)
}
