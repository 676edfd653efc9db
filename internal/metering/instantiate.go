package metering

import (
	"context"
	"math/big"

	"github.com/loat-go/accelerate/internal/expr"
	"github.com/loat-go/accelerate/internal/rel"
	"github.com/loat-go/accelerate/internal/smt"
	"github.com/loat-go/accelerate/internal/vars"
)

// extractBound reads a candidate constant value for v out of an
// inequality atom, regardless of the bound's direction — the caller
// only uses it as a substitution candidate and lets a subsequent
// Farkas attempt decide whether it was useful, so getting the
// direction wrong just wastes one try rather than producing an unsound
// result. Grounded on the shape of
// FarkasMeterGenerator::instantiateFreeVariables, simplified: the
// original solves the term for v and records every bound; this takes
// the single value a linear atom implies for v directly via Coeff.
func extractBound(a rel.Rel, v *vars.Variable) (*expr.Expr, bool) {
	if !a.IsIneq() {
		return nil, false
	}
	z := a.ToLeq().MakeRhsZero()
	if z.L.Degree(v) != 1 {
		return nil, false
	}
	coeff := z.L.Coeff(v, 1)
	rest := z.L.Coeff(v, 0)
	if !coeff.IsRationalConstant() || !rest.IsRationalConstant() {
		return nil, false
	}
	c := coeff.RationalValue()
	if c.Sign() == 0 {
		return nil, false
	}
	bound := new(big.Rat).Quo(rest.RationalValue(), c)
	bound.Neg(bound)
	return expr.ConstFromRat(bound), true
}

func substituteRels(rs []rel.Rel, s expr.Subs) []rel.Rel {
	out := make([]rel.Rel, len(rs))
	for i, r := range rs {
		out[i] = r.Subs(s)
	}
	return out
}

func substituteUpdate(u expr.Subs, s expr.Subs) expr.Subs {
	out := expr.Subs{}
	for v, e := range u {
		out[v] = e.Subs(s)
	}
	return out
}

// tryInstantiations implements spec.md §4.5's free-variable
// instantiation heuristic: temporary variables are replaced by a
// constant bound read off the guard, one combination at a time (the
// cartesian product of every variable's candidate bounds, capped per
// variable by cfg.FreeVarInstantiateMaxBounds), and Farkas is retried
// on each substituted copy until one succeeds.
func (g *generator) tryInstantiations(ctx context.Context) (Outcome, bool, error) {
	bounds := map[*vars.Variable][]*expr.Expr{}
	var order []*vars.Variable
	for _, a := range g.guard {
		for v := range a.Vars() {
			if v.Kind() != vars.TempVar {
				continue
			}
			if len(bounds[v]) >= g.cfg.FreeVarInstantiateMaxBounds {
				continue
			}
			bound, ok := extractBound(a, v)
			if !ok {
				continue
			}
			if len(bounds[v]) == 0 {
				order = append(order, v)
			}
			bounds[v] = append(bounds[v], bound)
		}
	}
	if len(order) == 0 {
		return Outcome{}, false, nil
	}

	combos := []expr.Subs{{}}
	for _, v := range order {
		var next []expr.Subs
		for _, combo := range combos {
			for _, b := range bounds[v] {
				c := expr.Subs{}
				for k, val := range combo {
					c[k] = val
				}
				c[v] = b
				next = append(next, c)
			}
		}
		combos = next
	}

	for _, combo := range combos {
		if err := ctx.Err(); err != nil {
			return Outcome{}, false, err
		}
		outcome, ok, err := g.tryOneInstantiation(ctx, combo)
		if err != nil {
			return Outcome{}, false, err
		}
		if ok {
			return outcome, true, nil
		}
	}
	return Outcome{}, false, nil
}

func (g *generator) tryOneInstantiation(ctx context.Context, combo expr.Subs) (Outcome, bool, error) {
	sub := &generator{
		varMan: g.varMan,
		solver: g.solver,
		cfg:    g.cfg,
		lin:    newLinearizer(g.varMan),
		guard:  substituteRels(g.guard, combo),
		update: substituteUpdate(g.update, combo),
	}
	sub.linearize()
	sub.findRelevantVariables()
	if len(sub.guard) == 0 {
		return Outcome{}, false, nil
	}
	coeffType := vars.Int
	if sub.cfg.AllowRealCoefficients {
		coeffType = vars.Real
	}
	sub.createCoefficients(coeffType)
	sub.buildConstraints()

	sub.solver.Reset()
	if err := sub.solver.Add(sub.notGuardImplication()); err != nil {
		return Outcome{}, false, err
	}
	if err := sub.solver.Add(sub.updateImplication()); err != nil {
		return Outcome{}, false, err
	}
	if err := sub.solver.Add(sub.nonTrivial()); err != nil {
		return Outcome{}, false, err
	}
	res, err := sub.solver.Check(ctx)
	if err != nil {
		return Outcome{}, false, err
	}
	if res != smt.Sat {
		return Outcome{}, false, nil
	}
	outcome, err := sub.solvePositive(ctx)
	if err != nil {
		return Outcome{}, false, err
	}
	return outcome, outcome.Result == Success, nil
}

// findConflictVars implements spec.md §4.5's conflict-variable
// heuristic in its simplest form: two variables that are each
// incremented or decremented by a nonzero constant and each appear in
// some guard atom are reported as the conflicting pair, for the
// caller to retry with A > B (or B > A) added to the guard. Grounded
// on FarkasMeterGenerator::generate's FARKAS_HEURISTIC_FOR_MINMAX
// block.
func (g *generator) findConflictVars() (*vars.Variable, *vars.Variable, bool) {
	var candidates []*vars.Variable
	for _, v := range g.varlist {
		e, ok := g.update[v]
		if !ok {
			continue
		}
		diff := expr.Sub(e, expr.Var(v))
		if !diff.IsRationalConstant() || diff.RationalValue().Sign() == 0 {
			continue
		}
		limited := false
		for _, a := range g.guard {
			if _, ok := a.Vars()[v]; ok {
				limited = true
				break
			}
		}
		if limited {
			candidates = append(candidates, v)
		}
		if len(candidates) > 2 {
			return nil, nil, false
		}
	}
	if len(candidates) != 2 {
		return nil, nil, false
	}
	return candidates[0], candidates[1], true
}
