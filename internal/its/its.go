// Package its implements the Integer Transition System rule model
// (spec.md §3): Update, RuleLhs, RuleRhs, Rule. A location here is an
// opaque comparable token rather than the teacher language's full
// program-point graph — the acceleration core only ever compares
// locations for equality (IsSimpleLoop) and threads them through
// unchanged.
package its

import (
	"fmt"
	"strings"

	"github.com/loat-go/accelerate/internal/boolexpr"
	"github.com/loat-go/accelerate/internal/expr"
	"github.com/loat-go/accelerate/internal/vars"
)

// Loc identifies a program location.
type Loc string

// NonTermSymbol is the cost sentinel denoting nontermination (spec.md
// §3: "Cost ... may be the sentinel NonTermSymbol, in which case the
// update must be empty and the rule represents nontermination").
var NonTermSymbol = expr.Var(nontermVar())

func nontermVar() *vars.Variable {
	m := vars.NewManager()
	return m.Declare("NONTERM", vars.Int)
}

// IsNonTermSymbol reports whether e is the nontermination cost
// sentinel.
func IsNonTermSymbol(e *expr.Expr) bool { return e.Equal(NonTermSymbol) }

// Update is a total parallel assignment over program variables; keys
// omitted from Map denote identity (spec.md §3 "Update").
type Update struct {
	Map expr.Subs
}

func NewUpdate(m expr.Subs) Update {
	if m == nil {
		m = expr.Subs{}
	}
	return Update{Map: m}
}

func (u Update) Empty() bool { return len(u.Map) == 0 }

// Get returns the updated value of v, defaulting to v itself.
func (u Update) Get(v *vars.Variable) *expr.Expr { return u.Map.Get(v) }

// Domain returns the variables this update assigns to explicitly.
func (u Update) Domain() []*vars.Variable {
	out := make([]*vars.Variable, 0, len(u.Map))
	for v := range u.Map {
		out = append(out, v)
	}
	return out
}

// Concat composes this update with a following substitution, matching
// expr.Compose's right-to-left convention: Concat(s) is the update
// such that applying u then s equals applying the result once.
func (u Update) Concat(s expr.Subs) Update {
	return Update{Map: expr.Compose(u.Map, s)}
}

func (u Update) Vars() map[*vars.Variable]struct{} {
	res := make(map[*vars.Variable]struct{})
	for v, e := range u.Map {
		res[v] = struct{}{}
		for w := range e.Vars() {
			res[w] = struct{}{}
		}
	}
	return res
}

func (u Update) String() string {
	parts := make([]string, 0, len(u.Map))
	for v, e := range u.Map {
		parts = append(parts, fmt.Sprintf("%s := %s", v.Name(), e.String()))
	}
	return strings.Join(parts, ", ")
}

// RuleLhs is the (loc, guard, cost) of a transition.
type RuleLhs struct {
	Loc   Loc
	Guard boolexpr.Guard
	Cost  *expr.Expr
}

// RuleRhs is the (loc', update) of a transition.
type RuleRhs struct {
	Loc    Loc
	Update Update
}

// Rule is (lhs, [rhs]) — a transition with one or more nondeterministic
// right-hand sides (spec.md §3 "Rule").
type Rule struct {
	Lhs  RuleLhs
	Rhss []RuleRhs
}

// NewRule builds a rule, collapsing it to the nontermination normal
// form if its cost is the NonTerm sentinel (the constructor invariant
// spec.md §3 states and `rule.cpp`'s Rule constructors enforce: a
// nonterm rule always has exactly one rhs with an empty update).
func NewRule(lhs RuleLhs, rhss []RuleRhs) Rule {
	if len(rhss) == 0 {
		panic("its: rule must have at least one rhs")
	}
	if IsNonTermSymbol(lhs.Cost) {
		rhss = []RuleRhs{{Loc: rhss[0].Loc, Update: NewUpdate(nil)}}
	}
	return Rule{Lhs: lhs, Rhss: rhss}
}

// NewSimpleRule builds the common single-rhs case.
func NewSimpleRule(loc Loc, guard boolexpr.Guard, cost *expr.Expr, rhsLoc Loc, update Update) Rule {
	return NewRule(RuleLhs{Loc: loc, Guard: guard, Cost: cost}, []RuleRhs{{Loc: rhsLoc, Update: update}})
}

func DummyRule(lhsLoc, rhsLoc Loc) Rule {
	return NewSimpleRule(lhsLoc, boolexpr.NewGuard(), expr.Zero(), rhsLoc, NewUpdate(nil))
}

// IsLinear reports whether the rule has exactly one rhs.
func (r Rule) IsLinear() bool { return len(r.Rhss) == 1 }

// IsSimpleLoop reports whether every rhs returns to lhs's location
// (spec.md §3, §5 "Simple loop").
func (r Rule) IsSimpleLoop() bool {
	for _, rhs := range r.Rhss {
		if rhs.Loc != r.Lhs.Loc {
			return false
		}
	}
	return true
}

// IsDummy reports whether the rule is a no-op transition: guard ⊤,
// cost 0, update empty, single rhs (spec.md §3).
func (r Rule) IsDummy() bool {
	if !r.IsLinear() {
		return false
	}
	return len(r.Lhs.Guard.Lits()) == 0 && r.Lhs.Cost.Equal(expr.Zero()) && r.Rhss[0].Update.Empty()
}

// Single returns the lone rhs of a linear rule, panicking otherwise.
func (r Rule) Single() RuleRhs {
	if !r.IsLinear() {
		panic("its: Single called on a non-linear rule")
	}
	return r.Rhss[0]
}

// Vars returns every variable occurring in the guard, cost or any
// update (including update RHS-only temporaries).
func (r Rule) Vars() map[*vars.Variable]struct{} {
	res := r.Lhs.Guard.Vars()
	for v := range r.Lhs.Cost.Vars() {
		res[v] = struct{}{}
	}
	for _, rhs := range r.Rhss {
		for v := range rhs.Update.Vars() {
			res[v] = struct{}{}
		}
	}
	return res
}

// Subs applies a substitution to the guard, cost, and every update
// (the update is post-composed, matching rule.cpp's
// `rhs.getUpdate().concat(subs)`).
func (r Rule) Subs(s expr.Subs) Rule {
	newRhss := make([]RuleRhs, len(r.Rhss))
	for i, rhs := range r.Rhss {
		newRhss[i] = RuleRhs{Loc: rhs.Loc, Update: rhs.Update.Concat(s)}
	}
	return Rule{
		Lhs:  RuleLhs{Loc: r.Lhs.Loc, Guard: r.Lhs.Guard.Subs(s), Cost: r.Lhs.Cost.Subs(s)},
		Rhss: newRhss,
	}
}

func (r Rule) WithGuard(g boolexpr.Guard) Rule {
	return Rule{Lhs: RuleLhs{Loc: r.Lhs.Loc, Guard: g, Cost: r.Lhs.Cost}, Rhss: r.Rhss}
}

func (r Rule) WithCost(c *expr.Expr) Rule {
	return Rule{Lhs: RuleLhs{Loc: r.Lhs.Loc, Guard: r.Lhs.Guard, Cost: c}, Rhss: r.Rhss}
}

func (r Rule) WithUpdate(i int, u Update) Rule {
	rhss := make([]RuleRhs, len(r.Rhss))
	copy(rhss, r.Rhss)
	rhss[i] = RuleRhs{Loc: rhss[i].Loc, Update: u}
	return Rule{Lhs: r.Lhs, Rhss: rhss}
}

func (r Rule) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rule(%s | %s | %s", r.Lhs.Loc, r.Lhs.Guard.String(), r.Lhs.Cost.String())
	for _, rhs := range r.Rhss {
		fmt.Fprintf(&b, " | %s | %s", rhs.Loc, rhs.Update.String())
	}
	b.WriteString(")")
	return b.String()
}
