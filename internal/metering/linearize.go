package metering

import (
	"github.com/loat-go/accelerate/internal/expr"
	"github.com/loat-go/accelerate/internal/rel"
	"github.com/loat-go/accelerate/internal/vars"
)

// linearizer replaces nonlinear monomials by fresh variables, carrying
// a reverse substitution so the metering function Generate returns can
// be rewritten back in terms of the original nonlinear subexpressions
// (spec.md §4.5's "Nonlinear sub-expressions" heuristic). Grounded on
// FarkasMeterGenerator::makeLinear and makeLinearTransition, simplified
// to a single expand-then-substitute pass rather than the original's
// iterative per-variable degree reduction: every monomial of total
// degree above one becomes one fresh variable, keyed by its
// non-constant factor so the same monomial maps to the same variable
// everywhere it recurs in the guard and update.
type linearizer struct {
	varMan  *vars.Manager
	bySig   map[string]*vars.Variable
	reverse expr.Subs
}

func newLinearizer(varMan *vars.Manager) *linearizer {
	return &linearizer{varMan: varMan, bySig: map[string]*vars.Variable{}, reverse: expr.Subs{}}
}

func (lz *linearizer) expr(e *expr.Expr) *expr.Expr {
	if e.IsLinear() {
		return e
	}
	expanded := e.Expand()
	summands, ok := expanded.AsAdd()
	if !ok {
		summands = []*expr.Expr{expanded}
	}
	out := make([]*expr.Expr, 0, len(summands))
	for _, s := range summands {
		out = append(out, lz.summand(s))
	}
	return expr.Add(out...)
}

func (lz *linearizer) summand(s *expr.Expr) *expr.Expr {
	if s.IsLinear() {
		return s
	}
	coeff, base := splitConstFactor(s)
	sig := base.String()
	fresh, ok := lz.bySig[sig]
	if !ok {
		fresh = lz.varMan.AddFreshTemporary("nl", vars.Int)
		lz.bySig[sig] = fresh
		lz.reverse[fresh] = base
	}
	return expr.Mul(coeff, expr.Var(fresh))
}

// splitConstFactor separates e's factors into its rational coefficient
// and the remaining non-constant base, e.g. 2*x^2 -> (2, x^2).
func splitConstFactor(e *expr.Expr) (coeff, base *expr.Expr) {
	factors, ok := e.AsMul()
	if !ok {
		factors = []*expr.Expr{e}
	}
	var coeffParts, baseParts []*expr.Expr
	for _, f := range factors {
		if f.IsRationalConstant() {
			coeffParts = append(coeffParts, f)
		} else {
			baseParts = append(baseParts, f)
		}
	}
	return expr.Mul(coeffParts...), expr.Mul(baseParts...)
}

// rel linearizes both sides of a relation, keeping its operator.
func (lz *linearizer) rel(r rel.Rel) rel.Rel {
	return rel.Rel{L: lz.expr(r.L), R: lz.expr(r.R), Op: r.Op}
}
