package recurrence

import (
	"math/big"

	"github.com/loat-go/accelerate/internal/expr"
)

// PolynomialOracle is the reference Oracle implementation this
// repository ships without an external CAS: it solves arithmetic
// (additive) self-referential recurrences exactly, and falls back to
// Faulhaber's formula for a forcing term that is itself a polynomial
// in n once its dependencies have been substituted in. A
// self-reference with a non-unit coefficient would need a genuinely
// exponential closed form (a^n), which falls outside this kernel's
// Pow (Const | Var | Add | Mul | Pow-by-literal-exponent only) — it,
// like any non-linear self-reference, reports TooComplex, matching
// spec.md §4.3's framing of the recurrence solver as swappable for a
// fuller CAS.
type PolynomialOracle struct{}

func NewPolynomialOracle() *PolynomialOracle { return &PolynomialOracle{} }

// SolveUpdate solves x(n) = rhs, where rhs is affine in the target
// variable with unit coefficient: rhs = x + b, b free of x. The closed
// form is the arithmetic progression x(n) = x(0) + n*b. x(0) is left
// as a symbolic reference to the target variable, since the
// recurrence is solved relative to the rule's own guard variables, not
// a numeric initial value.
func (o *PolynomialOracle) SolveUpdate(target, rhs, n *expr.Expr) Solution {
	v, ok := target.AsVar()
	if !ok {
		return Solution{Status: TooComplex}
	}
	if !rhs.IsLinear(v) {
		return Solution{Status: TooComplex}
	}
	a := rhs.Coeff(v, 1)
	b := rhs.Coeff(v, 0)
	if !a.IsRationalConstant() || a.RationalValue().Cmp(big.NewRat(1, 1)) != 0 {
		return Solution{Status: TooComplex}
	}
	closed := expr.Add(target, expr.Mul(n, b))
	return Solution{Status: Exact, Closed: closed, ValidityBound: 0}
}

// SolveCost solves c(n) = c(n-1) + e(n-1), c(0) = 0, i.e.
// c(n) = sum_{k=0}^{n-1} e(k), by recognising e as a polynomial in n
// of degree <= 3 and applying Faulhaber's formula term by term.
func (o *PolynomialOracle) SolveCost(perIterationCost, n *expr.Expr) Solution {
	nVar, ok := n.AsVar()
	if !ok {
		return Solution{Status: TooComplex}
	}
	if !perIterationCost.IsPoly() || perIterationCost.Degree(nVar) > 3 {
		return Solution{Status: TooComplex}
	}

	sum := expr.Zero()
	for d := 0; d <= perIterationCost.Degree(nVar); d++ {
		coeff := perIterationCost.Coeff(nVar, d)
		powerSum, err := faulhaber(d, n)
		if err != nil {
			return Solution{Status: LowerBound, Closed: expr.Zero(), ValidityBound: 0}
		}
		sum = expr.Add(sum, expr.Mul(coeff, powerSum))
	}
	return Solution{Status: Exact, Closed: sum, ValidityBound: 0}
}

// faulhaber returns a closed form for sum_{k=0}^{n-1} k^d, for the
// small degrees the acceleration calculus actually produces.
func faulhaber(d int, n *expr.Expr) (*expr.Expr, error) {
	switch d {
	case 0:
		// sum_{k=0}^{n-1} 1 = n
		return n, nil
	case 1:
		// sum_{k=0}^{n-1} k = n(n-1)/2
		return expr.Div(expr.Mul(n, expr.Sub(n, expr.One())), expr.Const(2))
	case 2:
		// sum_{k=0}^{n-1} k^2 = (n-1)n(2n-1)/6
		nm1 := expr.Sub(n, expr.One())
		twonm1 := expr.Sub(expr.Mul(expr.Const(2), n), expr.One())
		return expr.Div(expr.Mul(nm1, n, twonm1), expr.Const(6))
	case 3:
		// sum_{k=0}^{n-1} k^3 = (n(n-1)/2)^2
		half, err := expr.Div(expr.Mul(n, expr.Sub(n, expr.One())), expr.Const(2))
		if err != nil {
			return nil, err
		}
		return expr.Mul(half, half), nil
	}
	return nil, expr.ErrNonPolynomial
}
