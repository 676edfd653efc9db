package metering

import (
	"github.com/loat-go/accelerate/internal/boolexpr"
	"github.com/loat-go/accelerate/internal/expr"
	"github.com/loat-go/accelerate/internal/rel"
	"github.com/loat-go/accelerate/internal/smt"
	"github.com/loat-go/accelerate/internal/vars"
)

// constantTerm evaluates e with every variable zeroed, returning its
// free (variable-independent) term.
func constantTerm(e *expr.Expr) *expr.Expr {
	sub := expr.Subs{}
	for v := range e.Vars() {
		sub[v] = expr.Zero()
	}
	return e.Subs(sub)
}

// applyFarkas builds the Farkas encoding of one implication
// "constraints ⇒ Σ coeffOf(v)*v + c0Expr ≤ delta": a fresh nonnegative
// λ per constraint, λᵀA = cᵀ for every variable occurring anywhere
// (coefficient forced to 0 for variables the caller's target function
// doesn't mention), and λᵀb + c0 ≤ delta. Grounded on
// FarkasMeterGenerator::applyFarkas.
func (g *generator) applyFarkas(constraints []rel.Rel, coeffOf map[*vars.Variable]*expr.Expr, c0Expr, delta *expr.Expr) *boolexpr.BoolExpr {
	lambdas := make([]*vars.Variable, len(constraints))
	var conj []*boolexpr.BoolExpr
	for i := range constraints {
		lambdas[i] = g.varMan.AddFreshTemporary("l", vars.Real)
		conj = append(conj, boolexpr.Lit(rel.New(expr.Var(lambdas[i]), rel.Ge, expr.Const(0))))
	}

	allVars := map[*vars.Variable]struct{}{}
	for v := range coeffOf {
		allVars[v] = struct{}{}
	}
	for _, c := range constraints {
		for v := range c.L.Vars() {
			allVars[v] = struct{}{}
		}
	}

	for v := range allVars {
		sum := expr.Const(0)
		for i, c := range constraints {
			sum = expr.Add(sum, expr.Mul(expr.Var(lambdas[i]), c.L.Coeff(v, 1)))
		}
		target, ok := coeffOf[v]
		if !ok {
			target = expr.Const(0)
		}
		conj = append(conj, boolexpr.Lit(rel.New(sum, rel.Eq, target)))
	}

	sum := c0Expr
	for i, c := range constraints {
		sum = expr.Add(sum, expr.Mul(expr.Var(lambdas[i]), expr.Neg(constantTerm(c.L))))
	}
	conj = append(conj, boolexpr.Lit(rel.New(sum, rel.Le, delta)))

	return boolexpr.And(conj...)
}

func (g *generator) coeffExprs() map[*vars.Variable]*expr.Expr {
	out := map[*vars.Variable]*expr.Expr{}
	for v, c := range g.coeffs {
		out[v] = expr.Var(c)
	}
	return out
}

// notGuardImplication builds ⋀ᵢ (¬gᵢ ⇒ f(x) ≤ 0), one Farkas
// implication per guard atom — sufficient, though more conservative
// than phrasing it over the single disjunction ¬G, for the same
// reason the original keeps the atoms separate: each atom's negation
// alone already gives a clean "A·x ≤ b" premise.
func (g *generator) notGuardImplication() *boolexpr.BoolExpr {
	coeffOf := g.coeffExprs()
	var conj []*boolexpr.BoolExpr
	for _, atom := range g.guardConstraints {
		neg := rel.New(expr.Neg(atom.L), rel.Le, expr.Const(-1)).MakeRhsZero()
		conj = append(conj, g.applyFarkas([]rel.Rel{neg}, coeffOf, expr.Var(g.coeff0), expr.Const(0)))
	}
	return boolexpr.And(conj...)
}

// guardPositiveImplication builds G ⇒ f(x) ≥ 1 (strict) or
// G ⇒ f(x) ≥ 0 (relaxed), phrased as -f(x) ≤ delta.
func (g *generator) guardPositiveImplication(strict bool) *boolexpr.BoolExpr {
	negCoeff := map[*vars.Variable]*expr.Expr{}
	for v, c := range g.coeffExprs() {
		negCoeff[v] = expr.Neg(c)
	}
	delta := expr.Const(0)
	if strict {
		delta = expr.Const(-1)
	}
	return g.applyFarkas(g.guardConstraints, negCoeff, expr.Neg(expr.Var(g.coeff0)), delta)
}

// updateImplication builds (G ∧ U) ⇒ f(x) - f(x') ≤ 1, using the
// primed symbols built for every relevant updated variable.
func (g *generator) updateImplication() *boolexpr.BoolExpr {
	coeffOf := map[*vars.Variable]*expr.Expr{}
	for v, pv := range g.primed {
		c := expr.Var(g.coeffs[v])
		coeffOf[v] = c
		coeffOf[pv] = expr.Neg(c)
	}
	return g.applyFarkas(g.guardUpdateConstraints, coeffOf, expr.Const(0), expr.Const(1))
}

// nonTrivial forbids the all-zero solution.
func (g *generator) nonTrivial() *boolexpr.BoolExpr {
	var disj []*boolexpr.BoolExpr
	for _, c := range g.coeffs {
		disj = append(disj, boolexpr.Lit(rel.New(expr.Var(c), rel.Ne, expr.Const(0))))
	}
	return boolexpr.Or(disj...)
}

func (g *generator) buildResult(model smt.Model) *expr.Expr {
	result := modelValue(model, g.coeff0)
	for v, c := range g.coeffs {
		result = expr.Add(result, expr.Mul(modelValue(model, c), expr.Var(v)))
	}
	return result.Subs(g.lin.reverse)
}

func modelValue(model smt.Model, v *vars.Variable) *expr.Expr {
	val, ok := model.Value(v)
	if !ok {
		return expr.Const(0)
	}
	return expr.ConstFromRat(val)
}
