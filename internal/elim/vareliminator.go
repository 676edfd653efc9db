package elim

import (
	"sort"

	"github.com/loat-go/accelerate/internal/config"
	"github.com/loat-go/accelerate/internal/expr"
	"github.com/loat-go/accelerate/internal/rel"
	"github.com/loat-go/accelerate/internal/vars"
)

// VarEliminator computes every substitution that replaces n by a
// constant bound taken from guard, instantiating n's dependencies
// first where needed. Grounded on VarEliminator.
type VarEliminator struct {
	n            *vars.Variable
	dependencies []*vars.Variable
	results      []expr.Subs
}

type branch struct {
	subs  expr.Subs
	guard []rel.Rel
}

// NewVarEliminator runs the full elimination search immediately; call
// Results to read off the substitutions it found.
func NewVarEliminator(guard []rel.Rel, n *vars.Variable) *VarEliminator {
	ve := &VarEliminator{n: n}
	ve.findDependencies(guard)
	ve.eliminate(guard)
	return ve
}

// Results returns one Subs per viable instantiation of n (and any
// dependencies that had to be instantiated along the way).
func (ve *VarEliminator) Results() []expr.Subs { return ve.results }

// findDependencies computes the fixpoint of "other temporaries whose
// coefficient on some guard atom involves n (or a variable already
// known to be a dependency)". These must be instantiated before n
// itself can be, since a bound like `n*m <= x` cannot be solved for n
// without first fixing m. Grounded on VarEliminator::findDependencies.
func (ve *VarEliminator) findDependencies(guard []rel.Rel) {
	deps := map[*vars.Variable]struct{}{ve.n: {}}
	changed := true
	for changed {
		changed = false
		current := make([]*vars.Variable, 0, len(deps))
		for v := range deps {
			current = append(current, v)
		}
		for _, v := range current {
			var found *vars.Variable
			for _, r := range guard {
				term := expr.Sub(r.L, r.R)
				if term.Degree(v) != 1 {
					continue
				}
				coeff := term.Coeff(v, 1)
				ok := true
				for x := range coeff.Vars() {
					if x.Kind() != vars.TempVar {
						ok = false
						break
					}
					if _, already := deps[x]; !already {
						found = x
					}
				}
				if !ok {
					found = nil
				}
			}
			if found != nil {
				deps[found] = struct{}{}
				changed = true
			}
		}
	}
	delete(deps, ve.n)
	ordered := make([]*vars.Variable, 0, len(deps))
	for v := range deps {
		ordered = append(ordered, v)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID() < ordered[j].ID() })
	ve.dependencies = ordered
}

// eliminate first eliminates as many dependencies as possible by
// instantiating them with constant bounds (a DFS over every
// combination, since a dependency may have several candidate bounds),
// then extracts n's own bounds on every resulting leaf.
func (ve *VarEliminator) eliminate(guard []rel.Rel) {
	stack := []branch{{subs: expr.Subs{}, guard: guard}}
	var leaves []branch
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		next, any := ve.eliminateDependency(cur)
		if !any {
			leaves = append(leaves, cur)
			continue
		}
		stack = append(stack, next...)
	}

	for _, leaf := range leaves {
		be := ExtractBounds(leaf.guard, ve.n)
		if eq, ok := be.Eq(); ok {
			ve.results = append(ve.results, expr.Compose(leaf.subs, expr.Subs{ve.n: eq}))
			continue
		}
		for _, b := range be.Upper() {
			ve.results = append(ve.results, expr.Compose(leaf.subs, expr.Subs{ve.n: b}))
		}
	}
}

// eliminateDependency instantiates the first dependency still present
// in cur.guard with each of its constant bounds, branching once per
// bound. Grounded on VarEliminator::eliminateDependency.
func (ve *VarEliminator) eliminateDependency(cur branch) ([]branch, bool) {
	present := map[*vars.Variable]struct{}{}
	for _, r := range cur.guard {
		for v := range r.Vars() {
			present[v] = struct{}{}
		}
	}
	for _, dep := range ve.dependencies {
		if _, ok := present[dep]; !ok {
			continue
		}
		be := ExtractBounds(cur.guard, dep)
		bounds := be.ConstantBounds()
		if len(bounds) == 0 {
			continue
		}
		out := make([]branch, 0, len(bounds))
		for _, b := range bounds {
			sub := expr.Subs{dep: b}
			out = append(out, branch{
				subs:  expr.Compose(cur.subs, sub),
				guard: substituteGuard(cur.guard, sub),
			})
		}
		return out, true
	}
	return nil, false
}

func substituteGuard(guard []rel.Rel, s expr.Subs) []rel.Rel {
	out := make([]rel.Rel, len(guard))
	for i, r := range guard {
		out[i] = r.Subs(s)
	}
	return out
}

// Eliminate is the orchestrator-facing entry point: it runs
// VarEliminator and applies spec.md §4.6 step 4's give-up rule — if
// elimination found nothing, or more instantiations than
// cfg.MaxUpperboundsForPropagation allows, ok is false and the caller
// should keep the rule with n unchanged.
func Eliminate(guard []rel.Rel, n *vars.Variable, cfg config.Config) ([]expr.Subs, bool) {
	if !cfg.ReplaceTempVarByUpperbounds {
		return nil, false
	}
	ve := NewVarEliminator(guard, n)
	if len(ve.results) == 0 || len(ve.results) > cfg.MaxUpperboundsForPropagation {
		return nil, false
	}
	return ve.results, true
}
