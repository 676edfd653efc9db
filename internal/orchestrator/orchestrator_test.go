package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loat-go/accelerate/internal/accel"
	"github.com/loat-go/accelerate/internal/boolexpr"
	"github.com/loat-go/accelerate/internal/config"
	accerrors "github.com/loat-go/accelerate/internal/errors"
	"github.com/loat-go/accelerate/internal/expr"
	"github.com/loat-go/accelerate/internal/its"
	"github.com/loat-go/accelerate/internal/recurrence"
	"github.com/loat-go/accelerate/internal/rel"
	"github.com/loat-go/accelerate/internal/smt"
	"github.com/loat-go/accelerate/internal/vars"
)

// scriptSolver replays a fixed sequence of Check results, one per
// call, falling back to Unknown once exhausted — used to drive the
// acceleration calculus's discharge rules down an exact, hand-traced
// path without a real SMT backend.
type scriptSolver struct {
	results []smt.Result
	i       int
}

func (s *scriptSolver) Name() string { return "script" }
func (s *scriptSolver) Reset()       {}
func (s *scriptSolver) Push()        {}
func (s *scriptSolver) Pop()         {}
func (s *scriptSolver) Add(*boolexpr.BoolExpr) error { return nil }
func (s *scriptSolver) Check(context.Context) (smt.Result, error) {
	if s.i >= len(s.results) {
		return smt.Unknown, nil
	}
	r := s.results[s.i]
	s.i++
	return r, nil
}
func (s *scriptSolver) Model(context.Context) (smt.Model, error) { return nil, nil }

// linearOracle solves x' = x + 1 style recurrences as x + n and sums a
// constant per-iteration cost as n * cost, generic in the target/n
// expressions the driver passes in.
type linearOracle struct {
	updateStatus recurrence.SolveStatus
}

func (o *linearOracle) SolveUpdate(target, rhs, n *expr.Expr) recurrence.Solution {
	if o.updateStatus != recurrence.Exact {
		return recurrence.Solution{Status: o.updateStatus}
	}
	return recurrence.Solution{Status: recurrence.Exact, Closed: expr.Add(target, n), ValidityBound: 0}
}

func (o *linearOracle) SolveCost(perIterationCost, n *expr.Expr) recurrence.Solution {
	return recurrence.Solution{Status: recurrence.Exact, Closed: n, ValidityBound: 0}
}

// litsEqual compares two guards as sets of atoms, order-independent,
// the way boolexpr.BoolExpr.Equal already treats a conjunction.
func litsEqual(t *testing.T, got, want []rel.Rel) {
	t.Helper()
	require.Len(t, got, len(want))
	for _, w := range want {
		found := false
		for _, g := range got {
			if g.Equal(w) {
				found = true
				break
			}
		}
		assert.Truef(t, found, "guard atom %v not found in %v", w, got)
	}
}

func simpleCounterRule(m *vars.Manager) (its.Rule, *vars.Variable) {
	x := m.Declare("x", vars.Int)
	guard := boolexpr.NewGuard(rel.New(expr.Var(x), rel.Lt, expr.Const(10)))
	update := its.NewUpdate(expr.Subs{x: expr.Add(expr.Var(x), expr.Const(1))})
	return its.NewSimpleRule("l", guard, expr.Const(1), "l", update), x
}

func TestAccelerateRejectsNonSimpleLoop(t *testing.T) {
	m := vars.NewManager()
	x := m.Declare("x", vars.Int)
	guard := boolexpr.NewGuard(rel.New(expr.Var(x), rel.Lt, expr.Const(10)))
	update := its.NewUpdate(expr.Subs{x: expr.Add(expr.Var(x), expr.Const(1))})
	rule := its.NewSimpleRule("l", guard, expr.Const(1), "other", update)

	_, err := Accelerate(context.Background(), rule, Deps{Config: config.Default()})
	require.Error(t, err)
	var accErr *accerrors.Error
	require.ErrorAs(t, err, &accErr)
	assert.Equal(t, accerrors.KindFailure, accErr.Kind)
}

func TestAccelerateShortCircuitsUnsatGuard(t *testing.T) {
	m := vars.NewManager()
	rule, _ := simpleCounterRule(m)
	solver := &scriptSolver{results: []smt.Result{smt.Unsat}}

	out, err := Accelerate(context.Background(), rule, Deps{
		Solver: solver,
		Oracle: &linearOracle{updateStatus: recurrence.Exact},
		VarMan: m,
		Sink:   accel.NullSink{},
		Config: config.Default(),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, out.Status)
	assert.Empty(t, out.Rules)
}

func TestAccelerateDischargesGuardViaMonotonicity(t *testing.T) {
	m := vars.NewManager()
	rule, _ := simpleCounterRule(m)
	cfg := config.Default()
	cfg.ReplaceTempVarByUpperbounds = false

	solver := &scriptSolver{results: []smt.Result{
		smt.Sat,     // guard feasibility check
		smt.Unknown, // TryNonterm's Recurrence probe: not a recurrent set
		smt.Unknown, // Simplify's Recurrence probe: doesn't fire
		smt.Sat,     // Monotonicity's first query: updated atom alone
		smt.Unsat,   // Monotonicity's second query: fires
	}}

	out, err := Accelerate(context.Background(), rule, Deps{
		Solver: solver,
		Oracle: &linearOracle{updateStatus: recurrence.Exact},
		VarMan: m,
		Sink:   accel.NullSink{},
		Config: cfg,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, out.Status)
	require.Len(t, out.Rules, 1)
	assert.Len(t, out.Rules[0].Lhs.Guard.Lits(), 2)
	assert.Equal(t, "l", string(out.Rules[0].Lhs.Loc))
	assert.Len(t, out.Rules[0].Lhs.Cost.Vars(), 1)
}

func TestAccelerateDependencyOrderUnresolved(t *testing.T) {
	m := vars.NewManager()
	x := m.Declare("x", vars.Int)
	y := m.Declare("y", vars.Int)
	guard := boolexpr.NewGuard(rel.New(expr.Var(x), rel.Lt, expr.Const(10)))
	update := its.NewUpdate(expr.Subs{
		x: expr.Add(expr.Var(y), expr.Const(1)),
		y: expr.Var(x),
	})
	rule := its.NewSimpleRule("l", guard, expr.Const(1), "l", update)

	solver := &scriptSolver{results: []smt.Result{smt.Sat, smt.Unknown}}
	_, err := Accelerate(context.Background(), rule, Deps{
		Solver: solver,
		Oracle: &linearOracle{updateStatus: recurrence.Exact},
		VarMan: m,
		Sink:   accel.NullSink{},
		Config: config.Default(),
	})
	require.Error(t, err)
	var accErr *accerrors.Error
	require.ErrorAs(t, err, &accErr)
	assert.Equal(t, accerrors.KindRecurrenceTooComplex, accErr.Kind)
}

func TestAccelerateRecurrenceTooComplex(t *testing.T) {
	m := vars.NewManager()
	rule, _ := simpleCounterRule(m)
	solver := &scriptSolver{results: []smt.Result{smt.Sat, smt.Unknown}}

	_, err := Accelerate(context.Background(), rule, Deps{
		Solver: solver,
		Oracle: &linearOracle{updateStatus: recurrence.TooComplex},
		VarMan: m,
		Sink:   accel.NullSink{},
		Config: config.Default(),
	})
	require.Error(t, err)
	var accErr *accerrors.Error
	require.ErrorAs(t, err, &accErr)
	assert.Equal(t, accerrors.KindRecurrenceTooComplex, accErr.Kind)
}

// The remaining tests cover the six worked scenarios spec.md §8 walks
// through end to end (S1-S6), each driven by a scriptSolver scripted to
// take one exact, hand-traced path through accel's discharge rules, and
// each asserting the status plus the details its own comment names.

// S1: a single Monotonicity discharge over two variables, the case the
// reviewed bug hit directly (the accelerated rule kept the one-step
// x:=x+1 instead of the closed x:=x+n). y is left out of the update
// map entirely; Update.Get defaults an absent key to the identity, so
// y never reaches the oracle (avoiding driver.Iterate's "every
// variable the update's domain touches" trap for a literal v:=v).
func TestAccelerateS1MonotonicityTwoVars(t *testing.T) {
	m := vars.NewManager()
	x := m.Declare("x", vars.Int)
	y := m.Declare("y", vars.Int)
	guard := boolexpr.NewGuard(rel.New(expr.Var(x), rel.Lt, expr.Var(y)))
	update := its.NewUpdate(expr.Subs{x: expr.Add(expr.Var(x), expr.Const(1))})
	rule := its.NewSimpleRule("l", guard, expr.Const(1), "l", update)

	solver := &scriptSolver{results: []smt.Result{
		smt.Sat,     // guard feasibility check
		smt.Unknown, // TryNonterm's Recurrence probe: not a recurrent set
		smt.Unknown, // Simplify's Recurrence probe: doesn't fire
		smt.Sat,     // Monotonicity's first query: updated atom alone
		smt.Unsat,   // Monotonicity's second query: fires
	}}

	cfg := config.Default()
	cfg.ReplaceTempVarByUpperbounds = false
	out, err := Accelerate(context.Background(), rule, Deps{
		Solver: solver,
		Oracle: recurrence.NewPolynomialOracle(),
		VarMan: m,
		Sink:   accel.NullSink{},
		Config: cfg,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, out.Status)
	require.Len(t, out.Rules, 1)
	got := out.Rules[0]

	n := got.Lhs.Cost.Vars()
	require.Len(t, n, 1)
	var nVar *vars.Variable
	for v := range n {
		nVar = v
	}

	litsEqual(t, got.Lhs.Guard.Lits(), []rel.Rel{
		rel.New(expr.Var(nVar), rel.Gt, expr.Const(1)),
		rel.New(expr.Sub(expr.Add(expr.Var(x), expr.Var(nVar)), expr.Add(expr.Var(y), expr.Const(1))), rel.Lt, expr.Const(0)),
	})
	assert.True(t, got.Single().Update.Get(x).Equal(expr.Add(expr.Var(x), expr.Var(nVar))))
	assert.True(t, got.Lhs.Cost.Equal(expr.Var(nVar)))
}

// S2: Recurrence discharges the untouched-direction bound (x<=10) while
// Monotonicity discharges the moving one (x>0), with a genuine
// decrement (x:=x-1) rather than S1's increment — exercising
// recurrence.PolynomialOracle's negative-coefficient closed form.
func TestAccelerateS2RecurrenceAndMonotonicity(t *testing.T) {
	m := vars.NewManager()
	x := m.Declare("x", vars.Int)
	guard := boolexpr.NewGuard(
		rel.New(expr.Var(x), rel.Gt, expr.Const(0)),
		rel.New(expr.Var(x), rel.Le, expr.Const(10)),
	)
	update := its.NewUpdate(expr.Subs{x: expr.Sub(expr.Var(x), expr.Const(1))})
	rule := its.NewSimpleRule("l", guard, expr.Const(1), "l", update)

	solver := &scriptSolver{results: []smt.Result{
		smt.Sat,     // guard feasibility check
		smt.Unknown, // TryNonterm's Recurrence probe: not a recurrent set
		smt.Unknown, // Simplify's Recurrence probe: aborts on atom0 (x>0)
		smt.Sat,     // Monotonicity's first query on atom0: updated alone
		smt.Unsat,   // Monotonicity's second query: fires, discharges x>0
		smt.Sat,     // Simplify restarts; Recurrence's first query on x<=10
		smt.Unsat,   // Recurrence's second query: fires, discharges x<=10
	}}

	cfg := config.Default()
	cfg.ReplaceTempVarByUpperbounds = false
	out, err := Accelerate(context.Background(), rule, Deps{
		Solver: solver,
		Oracle: recurrence.NewPolynomialOracle(),
		VarMan: m,
		Sink:   accel.NullSink{},
		Config: cfg,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, out.Status)
	require.Len(t, out.Rules, 1)
	got := out.Rules[0]

	nSet := got.Lhs.Cost.Vars()
	require.Len(t, nSet, 1)
	var nVar *vars.Variable
	for v := range nSet {
		nVar = v
	}

	litsEqual(t, got.Lhs.Guard.Lits(), []rel.Rel{
		rel.New(expr.Var(nVar), rel.Gt, expr.Const(1)),
		rel.New(expr.Sub(expr.Var(x), expr.Sub(expr.Var(nVar), expr.Const(1))), rel.Gt, expr.Const(0)),
		rel.New(expr.Var(x), rel.Le, expr.Const(10)),
	})
	assert.True(t, got.Single().Update.Get(x).Equal(expr.Sub(expr.Var(x), expr.Var(nVar))))
}

// S3: accel.TryNonterm discharges the whole guard via Recurrence alone
// (the identity update never touches y, so "y>=0" is its own recurrent
// set) before the equivalence-preserving phase is ever entered — no
// closed form, no n, cost NonTermSymbol, update emptied out.
func TestAccelerateS3Nontermination(t *testing.T) {
	m := vars.NewManager()
	x := m.Declare("x", vars.Int)
	y := m.Declare("y", vars.Int)
	guard := boolexpr.NewGuard(rel.New(expr.Var(y), rel.Ge, expr.Const(0)))
	update := its.NewUpdate(expr.Subs{x: expr.Add(expr.Var(x), expr.Const(1))})
	rule := its.NewSimpleRule("l", guard, expr.Const(1), "l", update)

	solver := &scriptSolver{results: []smt.Result{
		smt.Sat,   // guard feasibility check
		smt.Sat,   // TryNonterm's Recurrence first query: y>=0 alone
		smt.Unsat, // TryNonterm's Recurrence second query: fires
	}}

	out, err := Accelerate(context.Background(), rule, Deps{
		Solver: solver,
		Oracle: recurrence.NewPolynomialOracle(),
		VarMan: m,
		Sink:   accel.NullSink{},
		Config: config.Default(),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, out.Status)
	require.Len(t, out.Rules, 1)
	got := out.Rules[0]

	assert.True(t, got.Lhs.Cost.Equal(its.NonTermSymbol))
	assert.True(t, got.Single().Update.Get(x).Equal(expr.Var(x)))
	// The recurrent-set witness accel.TryNonterm emits is whatever
	// accel.Normalize(guard) produces for "y>=0" (its Ge case routes
	// through rel.Rel.ToLeq's sign flip, not a no-op MakeRhsZero like
	// the Lt/Gt atoms the other scenarios use) — comparing against that
	// same production call sidesteps re-deriving ToLeq's exact output
	// by hand.
	litsEqual(t, got.Lhs.Guard.Lits(), accel.Normalize(guard))
}

// S4: neither atom discharges outright (every top-level discharge rule
// aborts on the first atom), so accel.Solve falls back to the split
// probe, finds a witness on a<N via EventualStrictIncrease, and
// recurses into two sub-problems that both fully solve — merging back
// into the three families calculus.go's solveDepth documents: the
// cross product (with n = nL + nR), the right branch alone, and the
// left branch alone. The split's witness and the two branches' own
// fresh n-variables make the exact merged atoms impractical to
// hand-verify atom-by-atom without executing the solver (see
// DESIGN.md); this asserts the bookkeeping spec.md §8 calls out
// instead: exactly three resulting families, all successful.
func TestAccelerateS4SplitMerge(t *testing.T) {
	m := vars.NewManager()
	a := m.Declare("a", vars.Int)
	b := m.Declare("b", vars.Int)
	n := m.Declare("n", vars.Int)
	mm := m.Declare("m", vars.Int)
	guard := boolexpr.NewGuard(
		rel.New(expr.Var(a), rel.Lt, expr.Var(n)),
		rel.New(expr.Var(b), rel.Lt, expr.Var(mm)),
	)
	update := its.NewUpdate(expr.Subs{
		a: expr.Add(expr.Var(a), expr.Const(1)),
		b: expr.Add(expr.Var(b), expr.Const(1)),
	})
	rule := its.NewSimpleRule("l", guard, expr.Const(1), "l", update)

	solver := &scriptSolver{results: []smt.Result{
		smt.Sat,     // guard feasibility check
		smt.Unknown, // TryNonterm's Recurrence probe on a<n: aborts
		smt.Unknown, // Simplify's Recurrence probe on a<n: aborts
		smt.Unknown, // Simplify's Monotonicity probe on a<n: aborts
		smt.Unknown, // Simplify's EventualStrictDecrease probe: aborts
		smt.Unknown, // Simplify's EventualWeakDecrease probe: aborts
		smt.Sat,     // EventualStrictIncrease's first query: fires probe
		smt.Unsat,   // EventualStrictIncrease's second query: witness found, splits

		// left sub-problem: discharge a<n via Monotonicity, b<m via
		// Monotonicity, then the negated witness via Recurrence.
		smt.Unknown, smt.Sat, smt.Unsat,
		smt.Unknown, smt.Sat, smt.Unsat,
		smt.Sat, smt.Unsat,

		// right sub-problem: same shape, discharging its own copies.
		smt.Unknown, smt.Sat, smt.Unsat,
		smt.Unknown, smt.Sat, smt.Unsat,
		smt.Sat, smt.Unsat,
	}}

	cfg := config.Default()
	cfg.ReplaceTempVarByUpperbounds = false
	out, err := Accelerate(context.Background(), rule, Deps{
		Solver: solver,
		Oracle: recurrence.NewPolynomialOracle(),
		VarMan: m,
		Sink:   accel.NullSink{},
		Config: cfg,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, out.Status)
	assert.Len(t, out.Rules, 3)
}

// S5: the calculus can't fully discharge the guard (Ress stays empty),
// so Accelerate falls back to Farkas metering. Finding an actual Farkas
// model needs a genuine SMT/LP backend — internal/metering/
// metering_test.go's stubSolver fixture documents the same limitation
// and scopes its own tests to the shape that doesn't need one. This
// exercises the companion path that also needs no model: the guard
// check answers Sat, so the top-level smtCheckGuard short-circuit does
// not apply; the calculus fails outright (every discharge rule and
// split probe aborts), landing in accelerateViaMetering, whose check
// answers Unsat. That outcome must surface as a typed
// NoMeteringFunction failure rather than a panic or a silently-wrong
// success.
func TestAccelerateS5MeteringFallbackNoFunction(t *testing.T) {
	m := vars.NewManager()
	x := m.Declare("x", vars.Int)
	guard := boolexpr.NewGuard(rel.New(expr.Var(x), rel.Lt, expr.Const(10)))
	update := its.NewUpdate(expr.Subs{x: expr.Add(expr.Var(x), expr.Const(1))})
	rule := its.NewSimpleRule("l", guard, expr.Const(1), "l", update)

	solver := &scriptSolver{results: []smt.Result{
		smt.Sat,     // guard feasibility check
		smt.Unknown, // TryNonterm's Recurrence probe: aborts
		smt.Unknown, // Simplify's Recurrence probe: aborts
		smt.Unknown, // Simplify's Monotonicity probe: aborts
		smt.Unknown, // Simplify's EventualStrictDecrease probe: aborts
		smt.Unknown, // Simplify's EventualWeakDecrease probe: aborts
		smt.Unknown, // EventualStrictIncrease probe: aborts, no split either
		smt.Unknown, // EventualWeakIncrease probe: aborts
		smt.Unsat,   // metering.Generate's own feasibility/LP check: no function
	}}

	_, err := Accelerate(context.Background(), rule, Deps{
		Solver: solver,
		Oracle: recurrence.NewPolynomialOracle(),
		VarMan: m,
		Sink:   accel.NullSink{},
		Config: config.Default(),
	})
	require.Error(t, err)
	var accErr *accerrors.Error
	require.ErrorAs(t, err, &accErr)
	assert.Equal(t, accerrors.KindNoMeteringFunction, accErr.Kind)
}

// S6: identical to S1's Monotonicity discharge, but with variable
// elimination switched on. The result atom x+n-(y+1) < 0 normalises
// through rel.Rel.ToLeq to x+n-y <= 0, the single upper bound
// n <= y-x, so elimination substitutes n := y-x throughout: the cost n
// becomes y-x and the closed update x := x+n becomes x := y. That also
// checks the ORDER the reviewed bug broke (update accelerated before
// elimination substitutes n through it): the pre-fix x:=x+1 kept
// verbatim would not equal y.
func TestAccelerateS6Instantiation(t *testing.T) {
	m := vars.NewManager()
	x := m.Declare("x", vars.Int)
	y := m.Declare("y", vars.Int)
	guard := boolexpr.NewGuard(rel.New(expr.Var(x), rel.Lt, expr.Var(y)))
	update := its.NewUpdate(expr.Subs{x: expr.Add(expr.Var(x), expr.Const(1))})
	rule := its.NewSimpleRule("l", guard, expr.Const(1), "l", update)

	solver := &scriptSolver{results: []smt.Result{
		smt.Sat,
		smt.Unknown,
		smt.Unknown,
		smt.Sat,
		smt.Unsat,
	}}

	cfg := config.Default()
	cfg.ReplaceTempVarByUpperbounds = true
	cfg.MaxUpperboundsForPropagation = 2
	out, err := Accelerate(context.Background(), rule, Deps{
		Solver: solver,
		Oracle: recurrence.NewPolynomialOracle(),
		VarMan: m,
		Sink:   accel.NullSink{},
		Config: cfg,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, out.Status)
	require.Len(t, out.Rules, 1)
	got := out.Rules[0]

	assert.True(t, got.Lhs.Cost.Equal(expr.Sub(expr.Var(y), expr.Var(x))))
	assert.True(t, got.Single().Update.Get(x).Equal(expr.Var(y)))
	for _, l := range got.Lhs.Guard.Lits() {
		for v := range l.Vars() {
			assert.Truef(t, v == x || v == y, "guard still mentions %s, elimination left n in", v.Name())
		}
	}
}
