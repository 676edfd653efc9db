package elim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loat-go/accelerate/internal/config"
	"github.com/loat-go/accelerate/internal/expr"
	"github.com/loat-go/accelerate/internal/rel"
	"github.com/loat-go/accelerate/internal/vars"
)

func TestExtractBoundsEquality(t *testing.T) {
	m := vars.NewManager()
	n := m.AddFreshTemporary("n", vars.Int)
	guard := []rel.Rel{rel.New(expr.Var(n), rel.Eq, expr.Const(3))}
	b := ExtractBounds(guard, n)
	eq, ok := b.Eq()
	require.True(t, ok)
	assert.True(t, eq.Equal(expr.Const(3)))
}

func TestExtractBoundsClassifiesLowerAndUpper(t *testing.T) {
	m := vars.NewManager()
	n := m.AddFreshTemporary("n", vars.Int)
	x := m.Declare("x", vars.Int)
	y := m.Declare("y", vars.Int)
	guard := []rel.Rel{
		rel.New(expr.Var(n), rel.Le, expr.Var(y)),
		rel.New(expr.Var(n), rel.Ge, expr.Var(x)),
	}
	b := ExtractBounds(guard, n)
	require.Len(t, b.Upper(), 1)
	require.Len(t, b.Lower(), 1)
	assert.True(t, b.Upper()[0].Equal(expr.Var(y)))
	assert.True(t, b.Lower()[0].Equal(expr.Var(x)))
}

func TestConstantBoundsFiltersNonIntegerBound(t *testing.T) {
	m := vars.NewManager()
	n := m.AddFreshTemporary("n", vars.Int)
	y := m.Declare("y", vars.Int)
	guard := []rel.Rel{rel.New(expr.Var(n), rel.Le, expr.Var(y))}
	b := ExtractBounds(guard, n)
	assert.Empty(t, b.ConstantBounds())
}

func TestConstantBoundsAcceptsIntegerBound(t *testing.T) {
	m := vars.NewManager()
	n := m.AddFreshTemporary("n", vars.Int)
	guard := []rel.Rel{rel.New(expr.Var(n), rel.Le, expr.Const(5))}
	b := ExtractBounds(guard, n)
	require.Len(t, b.ConstantBounds(), 1)
	assert.True(t, b.ConstantBounds()[0].Equal(expr.Const(5)))
}

// TestVarEliminatorSingleUpperBound mirrors spec.md §8 S6: the
// accelerated guard only upper-bounds the counter by y-x, which is the
// single instantiation emitted.
func TestVarEliminatorSingleUpperBound(t *testing.T) {
	m := vars.NewManager()
	n := m.AddFreshTemporary("n", vars.Int)
	x := m.Declare("x", vars.Int)
	y := m.Declare("y", vars.Int)
	guard := []rel.Rel{rel.New(expr.Var(n), rel.Le, expr.Sub(expr.Var(y), expr.Var(x)))}

	ve := NewVarEliminator(guard, n)
	require.Len(t, ve.Results(), 1)
	assert.True(t, ve.Results()[0][n].Equal(expr.Sub(expr.Var(y), expr.Var(x))))
}

func TestEliminateRespectsThreshold(t *testing.T) {
	m := vars.NewManager()
	n := m.AddFreshTemporary("n", vars.Int)
	x := m.Declare("x", vars.Int)
	guard := []rel.Rel{rel.New(expr.Var(n), rel.Le, expr.Var(x))}

	cfg := config.Default()
	cfg.MaxUpperboundsForPropagation = 0
	_, ok := Eliminate(guard, n, cfg)
	assert.False(t, ok, "the single bound found exceeds a zero-instantiation threshold")
}

func TestEliminateDisabledByConfig(t *testing.T) {
	m := vars.NewManager()
	n := m.AddFreshTemporary("n", vars.Int)
	guard := []rel.Rel{rel.New(expr.Var(n), rel.Le, expr.Const(10))}

	cfg := config.Default()
	cfg.ReplaceTempVarByUpperbounds = false
	_, ok := Eliminate(guard, n, cfg)
	assert.False(t, ok)
}

// TestVarEliminatorDependencyChainRejectsNonDivisibleBound exercises
// findDependencies (n's coefficient in the first atom is the
// temporary m, so m must be instantiated before n can be solved for)
// and the conservative integer-only bound rejection: once m is fixed
// to 5, n's coefficient is 5 and its remaining term is the
// non-constant x, so no bound on n can be guaranteed integral.
func TestVarEliminatorDependencyChainRejectsNonDivisibleBound(t *testing.T) {
	vm := vars.NewManager()
	n := vm.AddFreshTemporary("n", vars.Int)
	mv := vm.AddFreshTemporary("m", vars.Int)
	x := vm.Declare("x", vars.Int)
	guard := []rel.Rel{
		rel.New(expr.Mul(expr.Var(n), expr.Var(mv)), rel.Le, expr.Var(x)),
		rel.New(expr.Var(mv), rel.Le, expr.Const(5)),
	}

	ve := NewVarEliminator(guard, n)
	assert.Empty(t, ve.Results())
}
