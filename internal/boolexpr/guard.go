package boolexpr

import (
	"strings"

	"github.com/loat-go/accelerate/internal/expr"
	"github.com/loat-go/accelerate/internal/rel"
	"github.com/loat-go/accelerate/internal/vars"
)

// Guard is an ordered conjunction of relations — the representation
// rules and acceleration subproblems carry their constraint set in
// (spec.md §3 "Guard"). Unlike BoolExpr's canonical set-based And,
// Guard preserves insertion order since diagnostics print it back in
// the order a rule's author wrote it.
type Guard struct {
	lits []rel.Rel
}

// NewGuard builds a guard from the given literals, dropping any that
// are trivially true and failing fast (returning ⊥) if any is
// trivially false.
func NewGuard(lits ...rel.Rel) Guard {
	g := Guard{}
	for _, l := range lits {
		if l.IsTriviallyFalse() {
			return Guard{lits: []rel.Rel{l}}
		}
		if l.IsTriviallyTrue() {
			continue
		}
		g.lits = append(g.lits, l)
	}
	return g
}

func (g Guard) Lits() []rel.Rel { return g.lits }

func (g Guard) IsTriviallyFalse() bool {
	for _, l := range g.lits {
		if l.IsTriviallyFalse() {
			return true
		}
	}
	return false
}

// WellFormed reports whether the guard is free of `!=` literals
// (spec.md §3: the calculus only operates on guards already split free
// of disequalities — `!=` must be case-split into `<` and `>` branches
// upstream of Guard construction).
func (g Guard) WellFormed() bool {
	for _, l := range g.lits {
		if l.Op == rel.Ne {
			return false
		}
	}
	return true
}

// ToBoolExpr flattens the guard into a BoolExpr conjunction.
func (g Guard) ToBoolExpr() *BoolExpr {
	lits := make([]*BoolExpr, len(g.lits))
	for i, l := range g.lits {
		lits[i] = Lit(l)
	}
	return And(lits...)
}

// Subs applies a substitution to every literal, preserving order.
func (g Guard) Subs(s expr.Subs) Guard {
	out := make([]rel.Rel, len(g.lits))
	for i, l := range g.lits {
		out[i] = l.Subs(s)
	}
	return Guard{lits: out}
}

// Vars returns every variable occurring in the guard.
func (g Guard) Vars() map[*vars.Variable]struct{} {
	res := make(map[*vars.Variable]struct{})
	for _, l := range g.lits {
		for v := range l.Vars() {
			res[v] = struct{}{}
		}
	}
	return res
}

// IsLinear reports whether every literal in the guard is linear.
func (g Guard) IsLinear() bool {
	for _, l := range g.lits {
		if !expr.Sub(l.L, l.R).IsLinear() {
			return false
		}
	}
	return true
}

func (g Guard) String() string {
	parts := make([]string, len(g.lits))
	for i, l := range g.lits {
		parts[i] = l.String()
	}
	return strings.Join(parts, " /\\ ")
}
