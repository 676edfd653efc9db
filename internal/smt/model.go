package smt

import (
	"context"
	"math/big"

	"github.com/loat-go/accelerate/internal/vars"
)

// Model reports a satisfying assignment found by the most recent Sat
// Check call.
type Model interface {
	// Value returns v's value in the model, and whether v was
	// assigned at all (an unconstrained variable may be omitted).
	Value(v *vars.Variable) (*big.Rat, bool)
}

// ModelSolver is a Solver that can also produce a model after Sat,
// needed by Farkas metering synthesis (internal/metering) to read off
// a candidate function's coefficients. The bundled IntervalSolver
// implements this, but only ever reports Sat (and so only ever has a
// model to give) for the single-variable-bound formulas it fully
// understands; Farkas metering's guard/update constraints are
// typically multi-variable; so in practice it still needs an external
// SMT engine capable of real linear-arithmetic reasoning, matching
// spec.md §6's framing of the solver boundary as an injected
// collaborator rather than a fixed implementation.
type ModelSolver interface {
	Solver
	Model(ctx context.Context) (Model, error)
}
