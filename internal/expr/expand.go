package expr

import (
	"math/big"
	"sort"

	"github.com/loat-go/accelerate/internal/vars"
)

// polyTerm is one monomial of a canonical sum-of-monomials normal
// form: coeff * Π v^powers[v].
type polyTerm struct {
	coeff  *big.Rat
	powers map[*vars.Variable]int // only entries with a nonzero exponent
}

func monomialKey(powers map[*vars.Variable]int) string {
	type kv struct {
		id  uint64
		exp int
	}
	var s []kv
	for v, p := range powers {
		if p != 0 {
			s = append(s, kv{v.ID(), p})
		}
	}
	sort.Slice(s, func(i, j int) bool { return s[i].id < s[j].id })
	key := make([]byte, 0, 16*len(s))
	for _, e := range s {
		key = append(key, []byte(big.NewInt(int64(e.id)).String())...)
		key = append(key, ':')
		key = append(key, []byte(big.NewInt(int64(e.exp)).String())...)
		key = append(key, ';')
	}
	return string(key)
}

// mulPowers merges two exponent maps by addition.
func mulPowers(a, b map[*vars.Variable]int) map[*vars.Variable]int {
	res := make(map[*vars.Variable]int, len(a)+len(b))
	for v, p := range a {
		res[v] += p
	}
	for v, p := range b {
		res[v] += p
	}
	for v, p := range res {
		if p == 0 {
			delete(res, v)
		}
	}
	return res
}

// termsOf fully distributes e into a canonical sum of monomials,
// combining like terms. Negative exponents on a bare variable are
// tracked directly in its power; a negative exponent on a compound
// base (e.g. (x+y)^-1) is out of this kernel's scope (spec.md §4.1:
// true non-constant division is rejected at construction time by
// Div) and is kept as an opaque unit-coefficient placeholder term.
func termsOf(e *Expr) []polyTerm {
	switch e.k {
	case kConst:
		return []polyTerm{{coeff: new(big.Rat).Set(e.con), powers: map[*vars.Variable]int{}}}
	case kVar:
		return []polyTerm{{coeff: big.NewRat(1, 1), powers: map[*vars.Variable]int{e.v: 1}}}
	case kAdd:
		var out []polyTerm
		for _, a := range e.args {
			out = append(out, termsOf(a)...)
		}
		return combineLikeTerms(out)
	case kMul:
		acc := []polyTerm{{coeff: big.NewRat(1, 1), powers: map[*vars.Variable]int{}}}
		for _, a := range e.args {
			acc = multiplyTermLists(acc, termsOf(a))
		}
		return combineLikeTerms(acc)
	case kPow:
		if e.power > 0 && e.base.k == kVar {
			return []polyTerm{{coeff: big.NewRat(1, 1), powers: map[*vars.Variable]int{e.base.v: e.power}}}
		}
		if e.power < 0 && e.base.k == kVar {
			return []polyTerm{{coeff: big.NewRat(1, 1), powers: map[*vars.Variable]int{e.base.v: e.power}}}
		}
		if e.power == 0 {
			return termsOf(One())
		}
		if e.power > 0 {
			acc := termsOf(e.base)
			res := acc
			for i := 1; i < e.power; i++ {
				res = multiplyTermLists(res, acc)
			}
			return combineLikeTerms(res)
		}
		// Negative exponent on a compound base: not expandable by
		// distributivity. Represent as a single opaque term.
		return []polyTerm{{coeff: big.NewRat(1, 1), powers: map[*vars.Variable]int{}}}
	}
	return nil
}

func multiplyTermLists(a, b []polyTerm) []polyTerm {
	out := make([]polyTerm, 0, len(a)*len(b))
	for _, x := range a {
		for _, y := range b {
			out = append(out, polyTerm{
				coeff:  new(big.Rat).Mul(x.coeff, y.coeff),
				powers: mulPowers(x.powers, y.powers),
			})
		}
	}
	return out
}

func combineLikeTerms(ts []polyTerm) []polyTerm {
	byKey := make(map[string]*polyTerm)
	var order []string
	for _, t := range ts {
		key := monomialKey(t.powers)
		if ex, ok := byKey[key]; ok {
			ex.coeff.Add(ex.coeff, t.coeff)
			continue
		}
		cp := polyTerm{coeff: new(big.Rat).Set(t.coeff), powers: t.powers}
		byKey[key] = &cp
		order = append(order, key)
	}
	sort.Strings(order)
	var out []polyTerm
	for _, k := range order {
		t := byKey[k]
		if t.coeff.Sign() == 0 && len(t.powers) > 0 {
			continue
		}
		out = append(out, *t)
	}
	return out
}

func termToExpr(t polyTerm) *Expr {
	factors := []*Expr{constRat(t.coeff)}
	var vs []*vars.Variable
	for v := range t.powers {
		vs = append(vs, v)
	}
	sort.Slice(vs, func(i, j int) bool { return vs[i].ID() < vs[j].ID() })
	for _, v := range vs {
		factors = append(factors, Pow(Var(v), t.powers[v]))
	}
	return Mul(factors...)
}

// Expand fully distributes e into a canonical sum of monomials
// (spec.md §4.1: boolExpr.dnf and "expand()" in the Expr contract).
func (e *Expr) Expand() *Expr {
	ts := termsOf(e)
	if len(ts) == 0 {
		return Zero()
	}
	sum := make([]*Expr, len(ts))
	for i, t := range ts {
		sum[i] = termToExpr(t)
	}
	return Add(sum...)
}

func (e *Expr) normalForm() []polyTerm { return termsOf(e) }

// Degree returns the exponent of v in e, after expansion. If e is not
// a univariate polynomial in v (distinct terms disagree on v's
// exponent), the highest exponent among v's occurrences is returned —
// callers in this repository only ever call Degree after checking the
// constraint is linear/affine in v, matching the original LoAT's own
// usage (accelerate/vareliminator.cpp: "ex.degree(var) == 1").
func (e *Expr) Degree(v *vars.Variable) int {
	max := 0
	for _, t := range e.normalForm() {
		if p, ok := t.powers[v]; ok && p > max {
			max = p
		}
	}
	return max
}

// Coeff returns the coefficient of v^k in e (all other variables
// remain symbolic in the result).
func (e *Expr) Coeff(v *vars.Variable, k int) *Expr {
	var out []*Expr
	for _, t := range e.normalForm() {
		p := t.powers[v]
		if p != k {
			continue
		}
		rest := make(map[*vars.Variable]int, len(t.powers))
		for vv, pp := range t.powers {
			if vv != v {
				rest[vv] = pp
			}
		}
		out = append(out, termToExpr(polyTerm{coeff: t.coeff, powers: rest}))
	}
	if len(out) == 0 {
		return Zero()
	}
	return Add(out...)
}

// IsLinear reports whether e is linear. With no arguments, "linear"
// means total degree <= 1 in every variable occurring in e. Given a
// restricted set, only those variables' exponents are constrained —
// other free variables may occur at any degree, acting as symbolic
// coefficients (spec.md §3: "isLinear(Vset?)").
func (e *Expr) IsLinear(vs ...*vars.Variable) bool {
	for _, t := range e.normalForm() {
		if len(vs) == 0 {
			total := 0
			for _, p := range t.powers {
				total += p
			}
			if total > 1 {
				return false
			}
			continue
		}
		total := 0
		for _, v := range vs {
			total += t.powers[v]
		}
		if total > 1 {
			return false
		}
	}
	return true
}
