// Package metering implements the Farkas-lemma linear metering
// function search (spec.md §4.5), the fallback used when the
// acceleration calculus (internal/accel) cannot discharge a rule's
// guard. Grounded on accelerate/farkas.{h,cpp}: normalise every atom to
// `linear term ≤ constant`, then apply Farkas' lemma to turn each of
// the three implications a metering function must satisfy into a
// linear-arithmetic query solvable by an SMT backend.
package metering

import (
	"context"
	"sort"

	"github.com/loat-go/accelerate/internal/accel"
	"github.com/loat-go/accelerate/internal/boolexpr"
	"github.com/loat-go/accelerate/internal/config"
	"github.com/loat-go/accelerate/internal/expr"
	"github.com/loat-go/accelerate/internal/rel"
	"github.com/loat-go/accelerate/internal/smt"
	"github.com/loat-go/accelerate/internal/vars"
)

// Result classifies Generate's outcome, grounded on
// FarkasMeterGenerator::Result.
type Result int

const (
	Unsat Result = iota
	Success
	Unbounded
	NonLinear
	ConflictVar
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case Unbounded:
		return "unbounded"
	case NonLinear:
		return "nonlinear"
	case ConflictVar:
		return "conflict-var"
	}
	return "unsat"
}

// Outcome is Generate's full result: Function is set on Success,
// ConflictA/ConflictB on ConflictVar.
type Outcome struct {
	Result               Result
	Function             *expr.Expr
	ConflictA, ConflictB *vars.Variable
}

type generator struct {
	varMan *vars.Manager
	solver smt.ModelSolver
	cfg    config.Config
	lin    *linearizer

	guard  []rel.Rel
	update expr.Subs

	varlist []*vars.Variable
	coeffs  map[*vars.Variable]*vars.Variable
	coeff0  *vars.Variable
	primed  map[*vars.Variable]*vars.Variable

	guardConstraints       []rel.Rel
	guardUpdateConstraints []rel.Rel
}

// Generate searches for an affine metering function f(x) = c0 + Σcᵢxᵢ
// for a rule with the given guard and one-step update. solver must
// support model extraction (see smt.ModelSolver) over the multi-variable
// linear constraints Farkas' lemma produces — outside what the bundled
// IntervalSolver can ever report Sat for (see its doc comment), so this
// search needs a real external SMT engine in practice.
func Generate(ctx context.Context, guard boolexpr.Guard, update expr.Subs, varMan *vars.Manager, solver smt.ModelSolver, cfg config.Config) (Outcome, error) {
	for _, lit := range guard.Lits() {
		if lit.Op == rel.Ne {
			return Outcome{Result: NonLinear}, nil
		}
	}

	g := &generator{
		varMan: varMan,
		solver: solver,
		cfg:    cfg,
		lin:    newLinearizer(varMan),
		guard:  accel.Normalize(guard),
		update: update,
	}
	return g.run(ctx)
}

func (g *generator) run(ctx context.Context) (Outcome, error) {
	g.linearize()
	g.findRelevantVariables()

	if len(g.guard) == 0 {
		return Outcome{Result: Unbounded}, nil
	}

	coeffType := vars.Int
	if g.cfg.AllowRealCoefficients {
		coeffType = vars.Real
	}
	g.createCoefficients(coeffType)
	g.buildConstraints()

	g.solver.Reset()
	if err := g.solver.Add(g.notGuardImplication()); err != nil {
		return Outcome{}, err
	}
	if err := g.solver.Add(g.updateImplication()); err != nil {
		return Outcome{}, err
	}
	if err := g.solver.Add(g.nonTrivial()); err != nil {
		return Outcome{}, err
	}
	res, err := g.solver.Check(ctx)
	if err != nil {
		return Outcome{}, err
	}

	if res != smt.Sat && g.cfg.FreeVarInstantiateMaxBounds > 0 {
		outcome, ok, err := g.tryInstantiations(ctx)
		if err != nil {
			return Outcome{}, err
		}
		if ok {
			return outcome, nil
		}
	}

	if res != smt.Sat {
		if a, b, ok := g.findConflictVars(); ok {
			return Outcome{Result: ConflictVar, ConflictA: a, ConflictB: b}, nil
		}
		return Outcome{Result: Unsat}, nil
	}

	return g.solvePositive(ctx)
}

// solvePositive tries the strict implication G ⇒ f(x) ≥ 1 first,
// falling back to the relaxed G ⇒ f(x) ≥ 0 (spec.md §4.5: "Try strict
// ... first; if unknown or unsat, relax").
func (g *generator) solvePositive(ctx context.Context) (Outcome, error) {
	g.solver.Push()
	if err := g.solver.Add(g.guardPositiveImplication(true)); err != nil {
		g.solver.Pop()
		return Outcome{}, err
	}
	res, err := g.solver.Check(ctx)
	if err != nil {
		g.solver.Pop()
		return Outcome{}, err
	}
	if res != smt.Sat {
		g.solver.Pop()
		g.solver.Push()
		if err := g.solver.Add(g.guardPositiveImplication(false)); err != nil {
			g.solver.Pop()
			return Outcome{}, err
		}
		res, err = g.solver.Check(ctx)
		if err != nil {
			g.solver.Pop()
			return Outcome{}, err
		}
	}
	if res != smt.Sat {
		g.solver.Pop()
		return Outcome{Result: Unsat}, nil
	}
	model, err := g.solver.Model(ctx)
	g.solver.Pop()
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Result: Success, Function: g.buildResult(model)}, nil
}

func (g *generator) linearize() {
	newGuard := make([]rel.Rel, len(g.guard))
	for i, a := range g.guard {
		newGuard[i] = g.lin.rel(a)
	}
	g.guard = newGuard
	newUpdate := expr.Subs{}
	for v, e := range g.update {
		newUpdate[v] = g.lin.expr(e)
	}
	g.update = newUpdate
}

// findRelevantVariables collects every variable that might influence
// the metering function: anything in the guard, and anything an
// updated variable's update expression mentions (spec.md §4.5's guard
// uses only these; this repository does not separately model "free
// variables not reachable from the guard" the way the original ITS
// representation does, so every variable the guard or update touches
// is treated as relevant).
func (g *generator) findRelevantVariables() {
	seen := map[*vars.Variable]struct{}{}
	var order []*vars.Variable
	add := func(v *vars.Variable) {
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		order = append(order, v)
	}
	for _, a := range g.guard {
		for v := range a.Vars() {
			add(v)
		}
	}
	for v, e := range g.update {
		add(v)
		for vv := range e.Vars() {
			add(vv)
		}
	}
	sort.Slice(order, func(i, j int) bool { return order[i].ID() < order[j].ID() })
	g.varlist = order
}

func (g *generator) createCoefficients(coeffSort vars.Sort) {
	g.coeffs = map[*vars.Variable]*vars.Variable{}
	for _, v := range g.varlist {
		g.coeffs[v] = g.varMan.AddFreshTemporary("c", coeffSort)
	}
	g.coeff0 = g.varMan.AddFreshTemporary("c", vars.Real)
}

// buildConstraints normalises the guard to "linear term ≤ 0" form and
// adds, for every relevant updated variable, a fresh primed symbol
// pinned to its update expression by two inequalities (pv ≤ e and
// pv ≥ e) so the update implication can refer to both the pre- and
// post-state value. Grounded on FarkasMeterGenerator::buildConstraints.
func (g *generator) buildConstraints() {
	g.guardConstraints = make([]rel.Rel, len(g.guard))
	for i, a := range g.guard {
		g.guardConstraints[i] = a.ToLeq()
	}
	g.guardUpdateConstraints = append([]rel.Rel{}, g.guardConstraints...)

	g.primed = map[*vars.Variable]*vars.Variable{}
	for v, e := range g.update {
		if _, relevant := g.coeffs[v]; !relevant {
			continue
		}
		pv := g.varMan.AddFreshTemporary(v.Name()+"_p", vars.Real)
		g.primed[v] = pv
		g.guardUpdateConstraints = append(g.guardUpdateConstraints,
			rel.New(expr.Var(pv), rel.Le, e).ToLeq(),
			rel.New(expr.Var(pv), rel.Ge, e).ToLeq(),
		)
	}
}
