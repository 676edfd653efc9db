package recurrence_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loat-go/accelerate/internal/boolexpr"
	"github.com/loat-go/accelerate/internal/expr"
	"github.com/loat-go/accelerate/internal/its"
	"github.com/loat-go/accelerate/internal/recurrence"
	"github.com/loat-go/accelerate/internal/vars"
)

func TestFindOrderResolvesAcyclicDeps(t *testing.T) {
	m := vars.NewManager()
	x := m.Declare("x", vars.Int)
	y := m.Declare("y", vars.Int)
	// x' = y + 1 (needs y first), y' = y + 1 (independent)
	u := its.NewUpdate(expr.Subs{
		x: expr.Add(expr.Var(y), expr.Const(1)),
		y: expr.Add(expr.Var(y), expr.Const(1)),
	})
	order, ok := recurrence.Find(u)
	require.True(t, ok)
	assert.Equal(t, y, order[0])
	assert.Equal(t, x, order[1])
}

func TestFindOrderFailsOnMutualDependency(t *testing.T) {
	m := vars.NewManager()
	x := m.Declare("x", vars.Int)
	y := m.Declare("y", vars.Int)
	u := its.NewUpdate(expr.Subs{
		x: expr.Var(y),
		y: expr.Var(x),
	})
	_, ok := recurrence.Find(u)
	assert.False(t, ok)
}

func TestFindWithHeuristicRepairsMutualDependency(t *testing.T) {
	m := vars.NewManager()
	a := m.Declare("A", vars.Int)
	b := m.Declare("B", vars.Int)
	// A' = A+B, B' = A+B  (spec.md §4.2's worked example)
	u := its.NewUpdate(expr.Subs{
		a: expr.Add(expr.Var(a), expr.Var(b)),
		b: expr.Add(expr.Var(a), expr.Var(b)),
	})
	order, repaired, guard, ok := recurrence.FindWithHeuristic(u, boolexpr.NewGuard())
	require.True(t, ok)
	assert.Equal(t, 2, len(order))
	assert.Equal(t, 1, len(guard.Lits()))
	assert.True(t, repaired.Get(a).Equal(repaired.Get(b)))
}

func TestDriverSolvesLinearCounting(t *testing.T) {
	m := vars.NewManager()
	x := m.Declare("x", vars.Int)
	n := m.AddFreshTemporary("n", vars.Int)

	u := its.NewUpdate(expr.Subs{x: expr.Add(expr.Var(x), expr.Const(1))})
	order, ok := recurrence.Find(u)
	require.True(t, ok)

	d := recurrence.NewDriver(recurrence.NewPolynomialOracle(), n)
	res := d.Iterate(order, u, expr.Const(1), expr.Var(n))
	require.Equal(t, recurrence.ResultExact, res.Status)
	// x(n) = x + n*1 = x + n
	assert.True(t, res.Update.Get(x).Equal(expr.Add(expr.Var(x), expr.Var(n))))
	// cost(n) = sum_{k=0}^{n-1} 1 = n
	assert.True(t, res.Cost.Equal(expr.Var(n)))
}

func TestDriverTooComplexOnNonLinearSelfReference(t *testing.T) {
	m := vars.NewManager()
	x := m.Declare("x", vars.Int)
	n := m.AddFreshTemporary("n", vars.Int)

	u := its.NewUpdate(expr.Subs{x: expr.Mul(expr.Var(x), expr.Var(x))})
	order, ok := recurrence.Find(u)
	require.True(t, ok)

	d := recurrence.NewDriver(recurrence.NewPolynomialOracle(), n)
	res := d.Iterate(order, u, expr.Const(0), expr.Var(n))
	assert.Equal(t, recurrence.ResultTooComplex, res.Status)
}
