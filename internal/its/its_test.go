package its_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loat-go/accelerate/internal/boolexpr"
	"github.com/loat-go/accelerate/internal/expr"
	"github.com/loat-go/accelerate/internal/its"
	"github.com/loat-go/accelerate/internal/rel"
	"github.com/loat-go/accelerate/internal/vars"
)

func TestDummyRuleIsDummy(t *testing.T) {
	r := its.DummyRule("l0", "l1")
	assert.True(t, r.IsDummy())
	assert.True(t, r.IsLinear())
}

func TestIsSimpleLoop(t *testing.T) {
	m := vars.NewManager()
	x := m.Declare("x", vars.Int)
	up := its.NewUpdate(expr.Subs{x: expr.Add(expr.Var(x), expr.Const(1))})
	r := its.NewSimpleRule("l0", boolexpr.NewGuard(), expr.Const(1), "l0", up)
	assert.True(t, r.IsSimpleLoop())

	r2 := its.NewSimpleRule("l0", boolexpr.NewGuard(), expr.Const(1), "l1", up)
	assert.False(t, r2.IsSimpleLoop())
}

func TestNonTermCollapsesUpdate(t *testing.T) {
	m := vars.NewManager()
	x := m.Declare("x", vars.Int)
	up := its.NewUpdate(expr.Subs{x: expr.Add(expr.Var(x), expr.Const(1))})
	r := its.NewSimpleRule("l0", boolexpr.NewGuard(), its.NonTermSymbol, "l0", up)
	assert.True(t, r.Single().Update.Empty())
}

func TestSubsAppliesToGuardCostAndUpdate(t *testing.T) {
	m := vars.NewManager()
	x := m.Declare("x", vars.Int)
	g := boolexpr.NewGuard(rel.New(expr.Var(x), rel.Gt, expr.Const(0)))
	up := its.NewUpdate(expr.Subs{x: expr.Add(expr.Var(x), expr.Const(1))})
	r := its.NewSimpleRule("l0", g, expr.Var(x), "l0", up)

	got := r.Subs(expr.Subs{x: expr.Const(5)})
	assert.True(t, got.Lhs.Cost.Equal(expr.Const(5)))
	assert.Equal(t, 1, len(got.Lhs.Guard.Lits()))
}
