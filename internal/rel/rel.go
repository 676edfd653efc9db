// Package rel implements Rel, a relation between two Exprs (spec.md
// §3 "Rel"), with the normalisations the acceleration calculus and
// variable eliminator depend on.
package rel

import (
	"fmt"
	"math/big"

	"github.com/loat-go/accelerate/internal/expr"
	"github.com/loat-go/accelerate/internal/vars"
)

// Op is a relational operator.
type Op int

const (
	Lt Op = iota
	Le
	Gt
	Ge
	Eq
	Ne
)

func (op Op) String() string {
	switch op {
	case Lt:
		return "<"
	case Le:
		return "<="
	case Gt:
		return ">"
	case Ge:
		return ">="
	case Eq:
		return "="
	case Ne:
		return "!="
	}
	return "?"
}

func (op Op) flip() Op {
	switch op {
	case Lt:
		return Gt
	case Le:
		return Ge
	case Gt:
		return Lt
	case Ge:
		return Le
	default:
		return op
	}
}

// Rel is l ⋈ r.
type Rel struct {
	L, R *expr.Expr
	Op   Op
}

// New builds a relation.
func New(l *expr.Expr, op Op, r *expr.Expr) Rel { return Rel{L: l, R: r, Op: op} }

func (r Rel) IsIneq() bool { return r.Op != Eq && r.Op != Ne }

func (r Rel) String() string {
	return fmt.Sprintf("%s %s %s", r.L.String(), r.Op.String(), r.R.String())
}

// Subs applies a substitution to both sides.
func (r Rel) Subs(s expr.Subs) Rel {
	return Rel{L: r.L.Subs(s), R: r.R.Subs(s), Op: r.Op}
}

// Vars returns the variables occurring in either side.
func (r Rel) Vars() map[*vars.Variable]struct{} {
	res := r.L.Vars()
	for v := range r.R.Vars() {
		res[v] = struct{}{}
	}
	return res
}

// Equal compares two relations by normalised operator + sides (after
// MakeRhsZero, so `x < y` and `x - y < 0` compare equal).
func (r Rel) Equal(o Rel) bool {
	a, b := r.MakeRhsZero(), o.MakeRhsZero()
	return a.Op == b.Op && a.L.Equal(b.L)
}

// MakeRhsZero moves the right-hand side over: l ⋈ r becomes
// (l - r) ⋈ 0 (spec.md §3).
func (r Rel) MakeRhsZero() Rel {
	if r.R.Equal(expr.Zero()) {
		return r
	}
	return Rel{L: expr.Sub(r.L, r.R), R: expr.Zero(), Op: r.Op}
}

// ToLeq requires IsIneq and rewrites any inequality to a `<=`
// relation over integer arithmetic: `<` becomes `<= r-1` (spec.md §3,
// §4.1). Rational coefficients are cleared by multiplying through by
// the LCM of denominators before the `<` rewrite, since the `-1` shift
// is only sound over the integers.
func (r Rel) ToLeq() Rel {
	if !r.IsIneq() {
		panic("rel: ToLeq requires an inequality")
	}
	z := r.MakeRhsZero()
	l := clearDenominators(z.L)
	switch z.Op {
	case Le:
		return Rel{L: l, R: expr.Zero(), Op: Le}
	case Lt:
		return Rel{L: expr.Add(l, expr.Const(1)), R: expr.Zero(), Op: Le}
	case Ge:
		return Rel{L: expr.Neg(l), R: expr.Zero(), Op: Le}
	case Gt:
		return Rel{L: expr.Add(expr.Neg(l), expr.Const(1)), R: expr.Zero(), Op: Le}
	}
	panic("unreachable")
}

// ToG orients r to use `>` (strict, greater).
func (r Rel) ToG() Rel {
	z := r.MakeRhsZero()
	switch z.Op {
	case Gt:
		return z
	case Ge:
		return Rel{L: expr.Add(z.L, expr.Const(1)), R: expr.Zero(), Op: Gt}
	case Lt:
		return Rel{L: expr.Neg(z.L), R: expr.Zero(), Op: Gt}
	case Le:
		return Rel{L: expr.Add(expr.Neg(z.L), expr.Const(1)), R: expr.Zero(), Op: Gt}
	}
	panic("rel: ToG requires an inequality")
}

// ToL orients r to use `<=` (weak, less-equal) — alias for ToLeq kept
// for readability at call sites that think in terms of L rather than
// Leq.
func (r Rel) ToL() Rel { return r.ToLeq() }

// clearDenominators multiplies e by the LCM of the denominators of its
// rational coefficients, so the result has only integer coefficients.
func clearDenominators(e *expr.Expr) *expr.Expr {
	lcm := big.NewInt(1)
	for _, d := range denominators(e) {
		g := new(big.Int).GCD(nil, nil, lcm, d)
		lcm.Mul(lcm, new(big.Int).Div(d, g))
	}
	if lcm.Cmp(big.NewInt(1)) == 0 {
		return e
	}
	num := lcm.Int64()
	return expr.Mul(expr.Const(num), e)
}

func denominators(e *expr.Expr) []*big.Int {
	var out []*big.Int
	for _, t := range expandDenoms(e) {
		out = append(out, t)
	}
	return out
}

// expandDenoms collects the denominators to clear: the denominator of
// the constant factor of every monomial in e's expanded form.
func expandDenoms(e *expr.Expr) []*big.Int {
	terms, ok := e.Expand().AsAdd()
	if !ok {
		terms = []*expr.Expr{e.Expand()}
	}
	var out []*big.Int
	for _, t := range terms {
		factors, ok := t.AsMul()
		if !ok {
			factors = []*expr.Expr{t}
		}
		for _, f := range factors {
			if f.IsRationalConstant() {
				out = append(out, f.RationalValue().Denom())
			}
		}
	}
	return out
}

// IsTriviallyTrue reports whether l-r is a rational constant that
// satisfies the relation unconditionally (spec.md §3).
func (r Rel) IsTriviallyTrue() bool {
	z := r.MakeRhsZero()
	if !z.L.IsRationalConstant() {
		return false
	}
	return evalOp(z.Op, z.L.RationalValue())
}

// IsTriviallyFalse reports whether l-r is a rational constant that
// violates the relation unconditionally.
func (r Rel) IsTriviallyFalse() bool {
	z := r.MakeRhsZero()
	if !z.L.IsRationalConstant() {
		return false
	}
	return !evalOp(z.Op, z.L.RationalValue())
}

func evalOp(op Op, v *big.Rat) bool {
	zero := big.NewRat(0, 1)
	c := v.Cmp(zero)
	switch op {
	case Lt:
		return c < 0
	case Le:
		return c <= 0
	case Gt:
		return c > 0
	case Ge:
		return c >= 0
	case Eq:
		return c == 0
	case Ne:
		return c != 0
	}
	return false
}

// SplitEquality rewrites an equality `l = r` into its two `<=` halves
// per spec.md §4 AccelerationProblem.normalize: `l <= r` and `l >= r`.
func (r Rel) SplitEquality() (le, ge Rel) {
	if r.Op != Eq {
		panic("rel: SplitEquality requires an equality")
	}
	return Rel{L: r.L, R: r.R, Op: Le}, Rel{L: r.L, R: r.R, Op: Ge}
}
