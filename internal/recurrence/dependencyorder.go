// Package recurrence implements the closed-form update/cost solver
// (spec.md §4.2, §4.3): dependency ordering over an Update so each
// variable's recurrence can be solved using only already-solved
// variables, and the Oracle/Driver contract that turns an ordered
// Update plus a cost expression into closed forms parameterised by an
// iteration count.
package recurrence

import (
	"github.com/loat-go/accelerate/internal/boolexpr"
	"github.com/loat-go/accelerate/internal/expr"
	"github.com/loat-go/accelerate/internal/its"
	"github.com/loat-go/accelerate/internal/rel"
	"github.com/loat-go/accelerate/internal/vars"
)

// Find returns a permutation of the update's domain such that every
// variable's right-hand side only mentions updated variables that
// come earlier, or ok=false when no such order exists (spec.md §4.2).
// Grounded on dependencyorder.cpp's findOrderUntilConflicting.
func Find(u its.Update) (order []*vars.Variable, ok bool) {
	ordering, _ := findOrderUntilConflicting(u)
	if len(ordering) == len(u.Map) {
		return ordering, true
	}
	return nil, false
}

func findOrderUntilConflicting(u its.Update) (ordering []*vars.Variable, ordered map[*vars.Variable]bool) {
	ordered = make(map[*vars.Variable]bool)
	changed := true
	for changed && len(ordering) < len(u.Map) {
		changed = false
		for v, rhs := range u.Map {
			if ordered[v] {
				continue
			}
			ready := true
			for dep := range rhs.Vars() {
				if dep == v {
					continue
				}
				if _, isUpdated := u.Map[dep]; isUpdated && !ordered[dep] {
					ready = false
					break
				}
			}
			if ready {
				ordered[v] = true
				ordering = append(ordering, v)
				changed = true
			}
		}
	}
	return ordering, ordered
}

// FindWithHeuristic tries Find first, then — if variables are stuck in
// a mutual-dependency cycle — attempts the forced-equality repair:
// pick one stuck variable as the target, force every other stuck
// variable equal to it (recording that equality as a new guard
// conjunct for soundness), and accept the repair only if every stuck
// right-hand side becomes syntactically equal to the target's once the
// forced equalities are substituted in (spec.md §4.2's worked example:
// A'=A+B, B'=A+B repairs to A'=A+A, B'=A+A under A==B). Grounded on
// dependencyorder.cpp's findOrderWithHeuristic.
func FindWithHeuristic(u its.Update, guard boolexpr.Guard) (order []*vars.Variable, repaired its.Update, repairedGuard boolexpr.Guard, ok bool) {
	ordering, ordered := findOrderUntilConflicting(u)
	if len(ordering) == len(u.Map) {
		return ordering, u, guard, true
	}

	var target *vars.Variable
	for v := range u.Map {
		if !ordered[v] {
			target = v
			break
		}
	}
	if target == nil {
		return nil, u, guard, false
	}
	targetRhs := u.Map[target]

	subs := expr.Subs{}
	extraLits := append([]rel.Rel{}, guard.Lits()...)
	for v := range u.Map {
		if ordered[v] || v == target {
			continue
		}
		subs[v] = expr.Var(target)
		extraLits = append(extraLits, rel.New(expr.Var(v), rel.Eq, expr.Var(target)))
	}

	targetRhsSubst := targetRhs.Subs(subs)
	newMap := expr.Subs{}
	for v, rhs := range u.Map {
		if ordered[v] {
			newMap[v] = rhs
			continue
		}
		substituted := rhs.Subs(subs)
		if !substituted.Equal(targetRhsSubst) {
			return nil, u, guard, false
		}
		newMap[v] = substituted
	}

	repairedUpdate := its.NewUpdate(newMap)
	finalOrdering, _ := findOrderUntilConflicting(repairedUpdate)
	if len(finalOrdering) != len(repairedUpdate.Map) {
		return nil, u, guard, false
	}
	return finalOrdering, repairedUpdate, boolexpr.NewGuard(extraLits...), true
}
