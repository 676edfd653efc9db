package recurrence

import (
	"github.com/loat-go/accelerate/internal/expr"
	"github.com/loat-go/accelerate/internal/its"
	"github.com/loat-go/accelerate/internal/vars"
)

// ResultStatus tags Driver.Iterate's overall verdict.
type ResultStatus int

const (
	ResultExact ResultStatus = iota
	ResultLowerBound
	ResultTooComplex
)

// Result is the recurrence driver's contract (spec.md §4.3, §7):
// Exact(update_closed, cost_closed, validity_bound) |
// LowerBound(cost_closed, validity_bound) | TooComplex.
type Result struct {
	Status        ResultStatus
	Update        its.Update // valid only when Status == ResultExact
	Cost          *expr.Expr // closed-form cost at n = metering function
	ValidityBound int
}

// Driver solves an ordered Update plus its cost for a given metering
// function, using Oracle as the per-variable/per-cost recurrence
// primitive (grounded on Recurrence::iterateUpdate/iterateCost/iterate
// in recurrence.cpp, generalised behind the Oracle interface since
// this repository does not bundle PURRS).
type Driver struct {
	Oracle Oracle
	N      *vars.Variable
}

func NewDriver(oracle Oracle, n *vars.Variable) *Driver {
	return &Driver{Oracle: oracle, N: n}
}

// Iterate solves update (restricted to the variables in order, in that
// order) and cost for the given metering function, producing the
// final closed-form update/cost evaluated at n = meteringFunc (spec.md
// §4.2's dependency order is a precondition: callers must pass an
// order DependencyOrder.Find/FindWithHeuristic already validated).
func (d *Driver) Iterate(order []*vars.Variable, update its.Update, cost *expr.Expr, meteringFunc *expr.Expr) Result {
	preRecurrences := expr.Subs{}
	newUpdateMap := expr.Subs{}
	validityBound := 0
	nExpr := expr.Var(d.N)
	shiftDown := expr.Subs{d.N: expr.Sub(nExpr, expr.Const(1))}

	for _, v := range order {
		rhs := update.Get(v)
		substituted := rhs.Subs(preRecurrences)

		var closed *expr.Expr
		bound := 1
		if substituted.HasVar(v) {
			sol := d.Oracle.SolveUpdate(expr.Var(v), substituted, nExpr)
			if sol.Status == TooComplex {
				return Result{Status: ResultTooComplex}
			}
			closed = sol.Closed
			bound = sol.ValidityBound
		} else {
			closed = substituted
		}
		if bound > validityBound {
			validityBound = bound
		}

		preRecurrences[v] = closed.Subs(shiftDown)
		newUpdateMap[v] = closed.Subs(expr.Subs{d.N: meteringFunc})
	}

	substitutedCost := cost.Subs(preRecurrences)
	costSol := d.Oracle.SolveCost(substitutedCost, nExpr)
	switch costSol.Status {
	case Exact:
		return Result{
			Status:        ResultExact,
			Update:        its.NewUpdate(newUpdateMap),
			Cost:          costSol.Closed.Subs(expr.Subs{d.N: meteringFunc}),
			ValidityBound: max(validityBound, costSol.ValidityBound),
		}
	case LowerBound:
		return Result{
			Status:        ResultLowerBound,
			Cost:          costSol.Closed.Subs(expr.Subs{d.N: meteringFunc}),
			ValidityBound: max(validityBound, costSol.ValidityBound),
		}
	default:
		return Result{Status: ResultTooComplex}
	}
}
