package recurrence

import "github.com/loat-go/accelerate/internal/expr"

// SolveStatus tags an Oracle's verdict on a single variable's
// recurrence x(n) = rhs(x(n-1), ...) (spec.md §4.3).
type SolveStatus int

const (
	Exact SolveStatus = iota
	LowerBound
	TooComplex
)

// Solution is one variable's solved recurrence: the closed form in
// terms of the iteration variable n, and the smallest n from which the
// closed form is valid (spec.md §4.3 "validity bound"; iteration
// counts below the bound must keep using the original guard).
type Solution struct {
	Status       SolveStatus
	Closed       *expr.Expr // closed form in terms of n; zero value if TooComplex
	ValidityBound int
}

// Oracle solves a single recurrence x(n) = rhs, where rhs is the
// update's right-hand side with already-solved variables already
// substituted by their own closed forms at n-1 (spec.md §4.3:
// "a recurrence oracle with signature solve(ordered_update, cost, n)").
type Oracle interface {
	// SolveUpdate solves x(n) = rhs for the named variable, where rhs
	// may or may not mention the variable itself.
	SolveUpdate(target *expr.Expr, rhs *expr.Expr, n *expr.Expr) Solution

	// SolveCost solves the cost accumulator c(n) = c(n-1) + e(n-1),
	// c(0) = 0, given e already expressed as a function of n (spec.md
	// §4.3 "For the cost accumulator ..."). A TooComplex Oracle may
	// still return a LowerBound, since cost under-approximation is
	// sound for complexity proofs.
	SolveCost(perIterationCost *expr.Expr, n *expr.Expr) Solution
}
