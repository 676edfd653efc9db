package expr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loat-go/accelerate/internal/expr"
	"github.com/loat-go/accelerate/internal/vars"
)

func TestAddCanonicalisesConstants(t *testing.T) {
	x := expr.Var(vars.NewManager().Declare("x", vars.Int))
	sum := expr.Add(expr.Const(1), x, expr.Const(2))
	assert.True(t, sum.Equal(expr.Add(x, expr.Const(3))))
}

func TestMulZeroCollapses(t *testing.T) {
	m := vars.NewManager()
	x := expr.Var(m.Declare("x", vars.Int))
	assert.True(t, expr.Mul(x, expr.Const(0)).Equal(expr.Zero()))
}

func TestPowZeroIsOneEvenSymbolically(t *testing.T) {
	m := vars.NewManager()
	x := expr.Var(m.Declare("x", vars.Int))
	assert.True(t, expr.Pow(x, 0).Equal(expr.One()))
	assert.True(t, expr.Pow(expr.Const(0), 0).Equal(expr.One()))
}

func TestSubsTotalAndIdentityOutsideDomain(t *testing.T) {
	m := vars.NewManager()
	x := m.Declare("x", vars.Int)
	y := m.Declare("y", vars.Int)
	e := expr.Add(expr.Var(x), expr.Var(y))
	got := e.Subs(expr.Subs{x: expr.Const(5)})
	assert.True(t, got.Equal(expr.Add(expr.Const(5), expr.Var(y))))
}

func TestSubsIsParallelNotSequential(t *testing.T) {
	// {x -> y, y -> x} swaps, it does not collapse both to the same value.
	m := vars.NewManager()
	x := m.Declare("x", vars.Int)
	y := m.Declare("y", vars.Int)
	s := expr.Subs{x: expr.Var(y), y: expr.Var(x)}
	got := expr.Sub(expr.Var(x), expr.Var(y)).Subs(s)
	assert.True(t, got.Equal(expr.Sub(expr.Var(y), expr.Var(x))))
}

func TestComposeMatchesSequentialSubs(t *testing.T) {
	m := vars.NewManager()
	x := m.Declare("x", vars.Int)
	y := m.Declare("y", vars.Int)
	n := m.AddFreshTemporary("n", vars.Int)

	sigma := expr.Subs{x: expr.Var(n)}
	tau := expr.Subs{n: expr.Sub(expr.Var(n), expr.Const(1))}

	e := expr.Add(expr.Var(x), expr.Var(y))
	want := e.Subs(sigma).Subs(tau)
	got := e.Subs(expr.Compose(sigma, tau))
	assert.True(t, want.Equal(got))
}

func TestDegreeAndCoeff(t *testing.T) {
	m := vars.NewManager()
	x := m.Declare("x", vars.Int)
	e := expr.Add(expr.Mul(expr.Const(3), expr.Pow(expr.Var(x), 2)), expr.Mul(expr.Const(2), expr.Var(x)), expr.Const(1))
	assert.Equal(t, 2, e.Degree(x))
	assert.True(t, e.Coeff(x, 2).Equal(expr.Const(3)))
	assert.True(t, e.Coeff(x, 1).Equal(expr.Const(2)))
	assert.True(t, e.Coeff(x, 0).Equal(expr.Const(1)))
}

func TestIsLinearRestrictedToVarSet(t *testing.T) {
	m := vars.NewManager()
	x := m.Declare("x", vars.Int)
	y := m.Declare("y", vars.Int)
	// x*y is not linear overall, but it is linear when only x is constrained
	// (y behaves as a symbolic coefficient).
	e := expr.Mul(expr.Var(x), expr.Var(y))
	assert.False(t, e.IsLinear())
	assert.True(t, e.IsLinear(x))
}

func TestIsRationalConstantAndIsInt(t *testing.T) {
	m := vars.NewManager()
	x := m.Declare("x", vars.Int)
	c, err := expr.Div(expr.Const(4), expr.Const(2))
	require.NoError(t, err)
	assert.True(t, c.IsRationalConstant())
	assert.True(t, c.IsInt())

	half, err := expr.Div(expr.Const(1), expr.Const(2))
	require.NoError(t, err)
	assert.True(t, half.IsRationalConstant())
	assert.False(t, half.IsInt())

	assert.False(t, expr.Var(x).IsRationalConstant())
}

func TestDivByNonConstantIsNonPolynomial(t *testing.T) {
	m := vars.NewManager()
	x := m.Declare("x", vars.Int)
	y := m.Declare("y", vars.Int)
	_, err := expr.Div(expr.Var(x), expr.Var(y))
	assert.ErrorIs(t, err, expr.ErrNonPolynomial)
}

func TestEqualityByNormalForm(t *testing.T) {
	m := vars.NewManager()
	x := m.Declare("x", vars.Int)
	y := m.Declare("y", vars.Int)
	a := expr.Mul(expr.Add(expr.Var(x), expr.Var(y)), expr.Add(expr.Var(x), expr.Var(y)))
	b := expr.Add(expr.Pow(expr.Var(x), 2), expr.Mul(expr.Const(2), expr.Var(x), expr.Var(y)), expr.Pow(expr.Var(y), 2))
	assert.True(t, a.Equal(b))
}
