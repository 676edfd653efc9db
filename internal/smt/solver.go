package smt

import (
	"context"

	"github.com/loat-go/accelerate/internal/boolexpr"
)

// Result is a solver's verdict for the conjunction of everything
// currently asserted.
type Result int

const (
	Unknown Result = iota
	Sat
	Unsat
)

func (r Result) String() string {
	switch r {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	}
	return "unknown"
}

// Solver is the incremental assert/push/pop/check contract the
// acceleration calculus programs against (spec.md §6). Real
// deployments back this with an external SMT engine; IntervalSolver
// below is the reference decision procedure this repository ships
// on its own, sound but incomplete for general linear integer
// arithmetic.
type Solver interface {
	// Add asserts a constraint into the current scope.
	Add(b *boolexpr.BoolExpr) error
	// Push opens a new backtracking scope.
	Push()
	// Pop discards the most recently opened scope and its assertions.
	Pop()
	// Check decides satisfiability of everything currently asserted.
	Check(ctx context.Context) (Result, error)
	// Reset clears all scopes and assertions.
	Reset()
	// Name identifies the solver implementation, for diagnostics.
	Name() string
}
