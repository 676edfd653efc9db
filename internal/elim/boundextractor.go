// Package elim implements spec.md §4.6's variable elimination: turning
// an accelerated rule's temporary iteration counter into one or more
// concrete bounds read off the guard, so the counter need not survive
// into the final accelerated rule at all.
//
// Grounded on accelerate/boundextractor.{hpp,cpp} and
// accelerate/vareliminator.{hpp,cpp} — this package deliberately keeps
// only one BoundExtractor/VarEliminator pair where the original carries
// several near-duplicate copies across its expression-library sweeps
// (spec.md §9's own note); of the two surviving variants that note
// mentions, the integer-only one is the one reproduced here.
package elim

import (
	"math/big"
	"sort"

	"github.com/loat-go/accelerate/internal/expr"
	"github.com/loat-go/accelerate/internal/rel"
	"github.com/loat-go/accelerate/internal/vars"
)

// BoundExtractor reads every bound a guard places on one variable.
// Grounded on BoundExtractor::extractBounds.
type BoundExtractor struct {
	eq    *expr.Expr
	lower []*expr.Expr
	upper []*expr.Expr
}

// ExtractBounds scans guard for constraints on n. An equality
// constraint on n, if present, is authoritative and all other
// constraints are ignored (they must hold for the same value, per the
// original's comment); otherwise every linear inequality on n
// contributes a lower or upper bound, classified by the sign of n's
// coefficient.
func ExtractBounds(guard []rel.Rel, n *vars.Variable) *BoundExtractor {
	b := &BoundExtractor{}
	for _, r := range guard {
		if r.Op != rel.Eq {
			continue
		}
		if _, ok := r.Vars()[n]; !ok {
			continue
		}
		term := expr.Sub(r.L, r.R)
		if solved, ok := solveLinearForVar(term, n); ok {
			b.eq = solved
		}
		return b
	}

	for _, r := range guard {
		if r.Op == rel.Eq || !r.IsIneq() {
			continue
		}
		if _, ok := r.Vars()[n]; !ok {
			continue
		}
		leq := r.ToLeq()
		term := expr.Sub(leq.L, leq.R)
		if term.Degree(n) != 1 {
			continue
		}
		solved, ok := solveLinearForVar(term, n)
		if !ok {
			continue
		}
		coeff := term.Coeff(n, 1)
		if coeff.IsRationalConstant() && coeff.RationalValue().Sign() < 0 {
			b.lower = append(b.lower, solved)
		} else {
			b.upper = append(b.upper, solved)
		}
	}
	return b
}

// Eq returns the equality-derived bound on n, if any.
func (b *BoundExtractor) Eq() (*expr.Expr, bool) {
	if b.eq == nil {
		return nil, false
	}
	return b.eq, true
}

func (b *BoundExtractor) Lower() []*expr.Expr { return b.lower }
func (b *BoundExtractor) Upper() []*expr.Expr { return b.upper }

// LowerAndUpper concatenates Lower and Upper.
func (b *BoundExtractor) LowerAndUpper() []*expr.Expr {
	out := make([]*expr.Expr, 0, len(b.lower)+len(b.upper))
	out = append(out, b.lower...)
	out = append(out, b.upper...)
	return out
}

// ConstantBounds returns only the bounds that are themselves integer
// constants — the ones usable to instantiate another temporary's
// dependency on n (spec.md §4.6 step 2: "bounds whose rhs is an
// integer"). Grounded on BoundExtractor::getConstantBounds.
func (b *BoundExtractor) ConstantBounds() []*expr.Expr {
	if b.eq != nil && b.eq.IsInt() {
		return []*expr.Expr{b.eq}
	}
	var out []*expr.Expr
	seen := map[string]struct{}{}
	for _, e := range b.LowerAndUpper() {
		if !e.IsInt() {
			continue
		}
		key := e.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// solveLinearForVar solves term = 0 for n, given term is linear in n,
// requiring the result map to an integer-valued expression (spec.md
// §4.6: "All extracted bounds must map to integers", the
// ResultMapsToInt restriction on the original's solveTermFor).
//
// When n's coefficient is ±1 the quotient never introduces a
// denominator, so any guard built with integer coefficients yields an
// integer-valued bound automatically. For any other coefficient this
// only accepts the bound when the remaining term is itself a constant
// that divides evenly — a narrower criterion than the original's
// general ResultMapsToInt check (which can also recognise some
// symbolic terms as integer-valued), but one that never accepts a
// bound that isn't actually integral.
func solveLinearForVar(term *expr.Expr, n *vars.Variable) (*expr.Expr, bool) {
	if term.Degree(n) != 1 {
		return nil, false
	}
	coeff := term.Coeff(n, 1)
	rest := term.Coeff(n, 0)
	if !coeff.IsRationalConstant() {
		return nil, false
	}
	c := coeff.RationalValue()
	if c.Sign() == 0 {
		return nil, false
	}
	if c.IsInt() && c.Num().CmpAbs(big.NewInt(1)) == 0 {
		if c.Sign() < 0 {
			return rest, true
		}
		return expr.Neg(rest), true
	}
	if !rest.IsRationalConstant() {
		return nil, false
	}
	q := new(big.Rat).Quo(rest.RationalValue(), c)
	q.Neg(q)
	if !q.IsInt() {
		return nil, false
	}
	return expr.ConstFromRat(q), true
}
