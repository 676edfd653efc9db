// Package boolexpr implements BoolExpr (spec.md §3): a tree of
// literals, conjunctions, disjunctions and the constants ⊤/⊥, with
// associative/commutative flattening, structural equality, DNF
// extraction and distribution of Subs/Vars/Lits over children.
//
// Per spec.md §9's explicit redesign guidance, the teacher-language
// polymorphic BoolExpression hierarchy becomes a tagged union here:
// Lit(Rel) | And(set) | Or(set) | Const(bool).
package boolexpr

import (
	"sort"
	"strings"

	"github.com/loat-go/accelerate/internal/expr"
	"github.com/loat-go/accelerate/internal/rel"
	"github.com/loat-go/accelerate/internal/vars"
)

type kind int

const (
	kConst kind = iota
	kLit
	kAnd
	kOr
)

// BoolExpr is an immutable node. Shared-immutable, safe to copy
// (spec.md §3 lifecycle note).
type BoolExpr struct {
	k        kind
	constVal bool
	lit      rel.Rel
	children []*BoolExpr // for kAnd/kOr: flattened, canonically sorted, never contains a child of the same kind (spec.md §3: "a conjunction never has a conjunction child")
}

var (
	trueExpr  = &BoolExpr{k: kConst, constVal: true}
	falseExpr = &BoolExpr{k: kConst, constVal: false}
)

func True() *BoolExpr  { return trueExpr }
func False() *BoolExpr { return falseExpr }

// Lit builds a single-literal BoolExpr, folding trivially-true/false
// relations into the boolean constants.
func Lit(r rel.Rel) *BoolExpr {
	if r.IsTriviallyTrue() {
		return True()
	}
	if r.IsTriviallyFalse() {
		return False()
	}
	return &BoolExpr{k: kLit, lit: r}
}

func key(b *BoolExpr) string {
	switch b.k {
	case kConst:
		if b.constVal {
			return "0:T"
		}
		return "0:F"
	case kLit:
		return "1:" + b.lit.String()
	case kAnd:
		var ks []string
		for _, c := range b.children {
			ks = append(ks, key(c))
		}
		sort.Strings(ks)
		return "2:[" + strings.Join(ks, ",") + "]"
	case kOr:
		var ks []string
		for _, c := range b.children {
			ks = append(ks, key(c))
		}
		sort.Strings(ks)
		return "3:[" + strings.Join(ks, ",") + "]"
	}
	return ""
}

// And builds a flattened, deduplicated conjunction.
func And(xs ...*BoolExpr) *BoolExpr {
	var flat []*BoolExpr
	for _, x := range xs {
		if x == nil {
			continue
		}
		if x.k == kConst && !x.constVal {
			return False()
		}
		if x.k == kConst && x.constVal {
			continue
		}
		if x.k == kAnd {
			flat = append(flat, x.children...)
			continue
		}
		flat = append(flat, x)
	}
	return buildJunction(kAnd, flat)
}

// Or builds a flattened, deduplicated disjunction.
func Or(xs ...*BoolExpr) *BoolExpr {
	var flat []*BoolExpr
	for _, x := range xs {
		if x == nil {
			continue
		}
		if x.k == kConst && x.constVal {
			return True()
		}
		if x.k == kConst && !x.constVal {
			continue
		}
		if x.k == kOr {
			flat = append(flat, x.children...)
			continue
		}
		flat = append(flat, x)
	}
	return buildJunction(kOr, flat)
}

func buildJunction(k kind, flat []*BoolExpr) *BoolExpr {
	seen := make(map[string]*BoolExpr)
	var order []string
	for _, c := range flat {
		kk := key(c)
		if _, ok := seen[kk]; !ok {
			seen[kk] = c
			order = append(order, kk)
		}
	}
	if len(order) == 0 {
		if k == kAnd {
			return True()
		}
		return False()
	}
	sort.Strings(order)
	children := make([]*BoolExpr, len(order))
	for i, kk := range order {
		children[i] = seen[kk]
	}
	if len(children) == 1 {
		return children[0]
	}
	return &BoolExpr{k: k, children: children}
}

func (b *BoolExpr) IsAnd() bool           { return b.k == kAnd }
func (b *BoolExpr) IsOr() bool            { return b.k == kOr }
func (b *BoolExpr) IsConjunction() bool   { return b.k == kAnd || b.k == kLit || b.k == kConst }
func (b *BoolExpr) GetLit() (rel.Rel, bool) {
	if b.k == kLit {
		return b.lit, true
	}
	return rel.Rel{}, false
}
func (b *BoolExpr) GetConst() (bool, bool) {
	if b.k == kConst {
		return b.constVal, true
	}
	return false, false
}
func (b *BoolExpr) Children() []*BoolExpr { return b.children }

// Equal compares by set-of-children + operator + literal (spec.md §3:
// "structural equality by set of children + operator + literal").
func (b *BoolExpr) Equal(o *BoolExpr) bool { return key(b) == key(o) }

// Negation returns ¬b, pushed inward (De Morgan) down to the literals,
// where Rel negation flips the operator.
func (b *BoolExpr) Negation() *BoolExpr {
	switch b.k {
	case kConst:
		return boolOf(!b.constVal)
	case kLit:
		return Lit(negateRel(b.lit))
	case kAnd:
		neg := make([]*BoolExpr, len(b.children))
		for i, c := range b.children {
			neg[i] = c.Negation()
		}
		return Or(neg...)
	case kOr:
		neg := make([]*BoolExpr, len(b.children))
		for i, c := range b.children {
			neg[i] = c.Negation()
		}
		return And(neg...)
	}
	return b
}

func boolOf(v bool) *BoolExpr {
	if v {
		return True()
	}
	return False()
}

func negateRel(r rel.Rel) rel.Rel {
	switch r.Op {
	case rel.Lt:
		return rel.New(r.L, rel.Ge, r.R)
	case rel.Le:
		return rel.New(r.L, rel.Gt, r.R)
	case rel.Gt:
		return rel.New(r.L, rel.Le, r.R)
	case rel.Ge:
		return rel.New(r.L, rel.Lt, r.R)
	case rel.Eq:
		return rel.New(r.L, rel.Ne, r.R)
	case rel.Ne:
		return rel.New(r.L, rel.Eq, r.R)
	}
	panic("unreachable")
}

// Subs distributes a substitution over the tree.
func (b *BoolExpr) Subs(s expr.Subs) *BoolExpr {
	switch b.k {
	case kConst:
		return b
	case kLit:
		return Lit(b.lit.Subs(s))
	case kAnd:
		out := make([]*BoolExpr, len(b.children))
		for i, c := range b.children {
			out[i] = c.Subs(s)
		}
		return And(out...)
	case kOr:
		out := make([]*BoolExpr, len(b.children))
		for i, c := range b.children {
			out[i] = c.Subs(s)
		}
		return Or(out...)
	}
	return b
}

// Vars returns every variable occurring anywhere in b.
func (b *BoolExpr) Vars() map[*vars.Variable]struct{} {
	res := make(map[*vars.Variable]struct{})
	b.collectVars(res)
	return res
}

func (b *BoolExpr) collectVars(res map[*vars.Variable]struct{}) {
	switch b.k {
	case kLit:
		for v := range b.lit.Vars() {
			res[v] = struct{}{}
		}
	case kAnd, kOr:
		for _, c := range b.children {
			c.collectVars(res)
		}
	}
}

// Lits returns the set of literals occurring anywhere in b.
func (b *BoolExpr) Lits() []rel.Rel {
	var res []rel.Rel
	b.collectLits(&res)
	return res
}

func (b *BoolExpr) collectLits(res *[]rel.Rel) {
	switch b.k {
	case kLit:
		*res = append(*res, b.lit)
	case kAnd, kOr:
		for _, c := range b.children {
			c.collectLits(res)
		}
	}
}

// IsLinear reports whether every literal in b is linear.
func (b *BoolExpr) IsLinear() bool {
	for _, l := range b.Lits() {
		if !expr.Sub(l.L, l.R).IsLinear() {
			return false
		}
	}
	return true
}

// IsPolynomial reports whether every literal in b is polynomial.
func (b *BoolExpr) IsPolynomial() bool {
	for _, l := range b.Lits() {
		if !l.L.IsPoly() || !l.R.IsPoly() {
			return false
		}
	}
	return true
}

// Size returns the node count of the tree.
func (b *BoolExpr) Size() int {
	switch b.k {
	case kAnd, kOr:
		n := 1
		for _, c := range b.children {
			n += c.Size()
		}
		return n
	default:
		return 1
	}
}

func (b *BoolExpr) String() string {
	switch b.k {
	case kConst:
		if b.constVal {
			return "true"
		}
		return "false"
	case kLit:
		return b.lit.String()
	case kAnd:
		parts := make([]string, len(b.children))
		for i, c := range b.children {
			parts[i] = c.String()
		}
		return "(" + strings.Join(parts, " /\\ ") + ")"
	case kOr:
		parts := make([]string, len(b.children))
		for i, c := range b.children {
			parts[i] = c.String()
		}
		return "(" + strings.Join(parts, " \\/ ") + ")"
	}
	return "?"
}
