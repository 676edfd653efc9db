package metering

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loat-go/accelerate/internal/boolexpr"
	"github.com/loat-go/accelerate/internal/config"
	"github.com/loat-go/accelerate/internal/expr"
	"github.com/loat-go/accelerate/internal/rel"
	"github.com/loat-go/accelerate/internal/smt"
	"github.com/loat-go/accelerate/internal/vars"
)

// stubSolver always reports a preset result, for exercising Generate's
// control flow (its NonLinear, Unbounded and Unsat paths) without
// needing a real linear-arithmetic model search — finding an actual
// Farkas model needs a genuine SMT backend (see smt.ModelSolver's doc
// comment), so these tests do not solve the Farkas encoding itself.
type stubSolver struct {
	result smt.Result
}

func (s *stubSolver) Name() string                              { return "stub" }
func (s *stubSolver) Reset()                                    {}
func (s *stubSolver) Push()                                     {}
func (s *stubSolver) Pop()                                      {}
func (s *stubSolver) Add(*boolexpr.BoolExpr) error               { return nil }
func (s *stubSolver) Check(context.Context) (smt.Result, error) { return s.result, nil }
func (s *stubSolver) Model(context.Context) (smt.Model, error)  { return nil, nil }

func TestGenerateRejectsDisequality(t *testing.T) {
	m := vars.NewManager()
	x := m.Declare("x", vars.Int)
	guard := boolexpr.NewGuard(rel.New(expr.Var(x), rel.Ne, expr.Const(0)))
	out, err := Generate(context.Background(), guard, expr.Subs{}, m, &stubSolver{result: smt.Unsat}, config.Default())
	require.NoError(t, err)
	assert.Equal(t, NonLinear, out.Result)
}

func TestGenerateUnboundedWhenGuardEmpty(t *testing.T) {
	m := vars.NewManager()
	guard := boolexpr.NewGuard()
	out, err := Generate(context.Background(), guard, expr.Subs{}, m, &stubSolver{result: smt.Unsat}, config.Default())
	require.NoError(t, err)
	assert.Equal(t, Unbounded, out.Result)
}

func TestGenerateUnsatWhenSolverRefutes(t *testing.T) {
	m := vars.NewManager()
	x := m.Declare("x", vars.Int)
	guard := boolexpr.NewGuard(rel.New(expr.Var(x), rel.Le, expr.Const(10)))
	cfg := config.Default()
	cfg.FreeVarInstantiateMaxBounds = 0
	out, err := Generate(context.Background(), guard, expr.Subs{x: expr.Var(x)}, m, &stubSolver{result: smt.Unsat}, cfg)
	require.NoError(t, err)
	assert.Equal(t, Unsat, out.Result)
}

func TestLinearizerSubstitutesNonlinearMonomial(t *testing.T) {
	m := vars.NewManager()
	x := m.Declare("x", vars.Int)
	lz := newLinearizer(m)
	nonlinear := expr.Mul(expr.Const(2), expr.Pow(expr.Var(x), 2))
	out := lz.expr(nonlinear)
	assert.True(t, out.IsLinear())
	assert.Len(t, lz.reverse, 1)
}

func TestLinearizerReusesSameSubstitutionForRecurringMonomial(t *testing.T) {
	m := vars.NewManager()
	x := m.Declare("x", vars.Int)
	y := m.Declare("y", vars.Int)
	lz := newLinearizer(m)
	xy := expr.Mul(expr.Var(x), expr.Var(y))
	first := lz.expr(xy)
	second := lz.expr(expr.Mul(expr.Const(3), xy))
	assert.Len(t, lz.reverse, 1)
	_ = first
	_ = second
}

func TestExtractBoundReadsConstantBound(t *testing.T) {
	m := vars.NewManager()
	n := m.AddFreshTemporary("n", vars.Int)
	atom := rel.New(expr.Var(n), rel.Le, expr.Const(7))
	bound, ok := extractBound(atom, n)
	require.True(t, ok)
	assert.True(t, bound.Equal(expr.Const(7)))
}

func TestFindConflictVarsDetectsTwoCountingVars(t *testing.T) {
	m := vars.NewManager()
	a := m.Declare("a", vars.Int)
	b := m.Declare("b", vars.Int)
	g := &generator{
		varMan: m,
		guard: []rel.Rel{
			rel.New(expr.Var(a), rel.Lt, expr.Const(10)),
			rel.New(expr.Var(b), rel.Lt, expr.Const(10)),
		},
		update: expr.Subs{
			a: expr.Add(expr.Var(a), expr.Const(1)),
			b: expr.Add(expr.Var(b), expr.Const(1)),
		},
		varlist: []*vars.Variable{a, b},
	}
	x, y, ok := g.findConflictVars()
	require.True(t, ok)
	assert.ElementsMatch(t, []*vars.Variable{a, b}, []*vars.Variable{x, y})
}

func TestFindConflictVarsIgnoresIdentityUpdate(t *testing.T) {
	m := vars.NewManager()
	x := m.Declare("x", vars.Int)
	g := &generator{
		varMan: m,
		guard:  []rel.Rel{rel.New(expr.Var(x), rel.Lt, expr.Const(10))},
		update: expr.Subs{x: expr.Var(x)},
		varlist: []*vars.Variable{x},
	}
	_, _, ok := g.findConflictVars()
	assert.False(t, ok)
}
