// Package expr implements the symbolic algebra layer (spec.md §4.1): a
// polynomial/rational expression kernel with canonicalising
// constructors, distributive substitution and equality by normal form.
//
// Per spec.md §9's explicit redesign guidance, Expr is a tagged union
// (Const | Var | Add[n] | Mul[n] | Pow) with small operand slices,
// rather than the teacher-language pattern of an open class hierarchy;
// substitution is a pure function over that union.
package expr

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/loat-go/accelerate/internal/vars"
)

// kind tags the Expr union.
type kind int

const (
	kConst kind = iota
	kVar
	kAdd
	kMul
	kPow
)

// Expr is an immutable node in the expression tree. Values are safe to
// share (spec.md §3: "Exprs ... are value-typed (shared-immutable
// inside, safe to copy)").
type Expr struct {
	k     kind
	con   *big.Rat       // kConst
	v     *vars.Variable // kVar
	args  []*Expr        // kAdd, kMul (n-ary, flattened, canonically sorted)
	base  *Expr          // kPow
	power int            // kPow, may be negative (rational function)
}

// Const builds an integer constant.
func Const(n int64) *Expr {
	return &Expr{k: kConst, con: big.NewRat(n, 1)}
}

// ConstRat builds a rational constant a/b.
func ConstRat(a, b int64) *Expr {
	return &Expr{k: kConst, con: big.NewRat(a, b)}
}

func constRat(r *big.Rat) *Expr {
	return &Expr{k: kConst, con: new(big.Rat).Set(r)}
}

// ConstFromRat builds a constant from an arbitrary-precision rational,
// for callers (e.g. internal/metering's bound extraction) that compute
// a constant via big.Rat arithmetic rather than from int64 literals.
func ConstFromRat(r *big.Rat) *Expr {
	return constRat(r)
}

// Var builds a reference to a Variable.
func Var(v *vars.Variable) *Expr {
	return &Expr{k: kVar, v: v}
}

var zero = Const(0)
var one = Const(1)

// Zero and One are the canonical additive/multiplicative identities.
func Zero() *Expr { return zero }
func One() *Expr  { return one }

// Add builds a canonicalised n-ary sum: nested Adds are flattened and
// constant summands are folded into one.
func Add(xs ...*Expr) *Expr {
	var flat []*Expr
	acc := new(big.Rat)
	for _, x := range xs {
		if x == nil {
			continue
		}
		if x.k == kAdd {
			flat = append(flat, x.args...)
			continue
		}
		flat = append(flat, x)
	}
	var kept []*Expr
	for _, x := range flat {
		if x.k == kConst {
			acc.Add(acc, x.con)
			continue
		}
		kept = append(kept, x)
	}
	sort.Slice(kept, func(i, j int) bool { return lessKey(kept[i]) < lessKey(kept[j]) })
	if acc.Sign() != 0 || len(kept) == 0 {
		kept = append(kept, constRat(acc))
	}
	if len(kept) == 1 {
		return kept[0]
	}
	return &Expr{k: kAdd, args: kept}
}

// Sub builds a-b.
func Sub(a, b *Expr) *Expr { return Add(a, Neg(b)) }

// Neg builds unary negation.
func Neg(a *Expr) *Expr { return Mul(Const(-1), a) }

// Mul builds a canonicalised n-ary product: nested Muls are flattened
// and constant factors are folded into one. A zero factor collapses
// the whole product to zero.
func Mul(xs ...*Expr) *Expr {
	var flat []*Expr
	acc := big.NewRat(1, 1)
	for _, x := range xs {
		if x == nil {
			continue
		}
		if x.k == kMul {
			flat = append(flat, x.args...)
			continue
		}
		flat = append(flat, x)
	}
	var kept []*Expr
	for _, x := range flat {
		if x.k == kConst {
			acc.Mul(acc, x.con)
			continue
		}
		kept = append(kept, x)
	}
	if acc.Sign() == 0 {
		return Zero()
	}
	if acc.Cmp(big.NewRat(1, 1)) != 0 || len(kept) == 0 {
		kept = append(kept, constRat(acc))
	}
	if len(kept) == 1 {
		return kept[0]
	}
	sort.Slice(kept, func(i, j int) bool { return lessKey(kept[i]) < lessKey(kept[j]) })
	return &Expr{k: kMul, args: kept}
}

// Div builds a/b where b must be a nonzero rational constant — per
// spec.md §4.1, "division appears only as multiplication by a
// rational constant; if the parser produces true division, fail with
// NonPolynomial." Dividing by a non-constant returns an error rather
// than constructing an Expr.
func Div(a, b *Expr) (*Expr, error) {
	if b.k != kConst || b.con.Sign() == 0 {
		return nil, ErrNonPolynomial
	}
	inv := new(big.Rat).Inv(b.con)
	return Mul(a, constRat(inv)), nil
}

// Pow builds base^n. Per spec.md §4.1 edge cases: 0^0 = 1 and x^0 = 1
// even symbolically — Pow always folds a zero exponent to the
// constant one without inspecting base.
func Pow(base *Expr, n int) *Expr {
	if n == 0 {
		return One()
	}
	if n == 1 {
		return base
	}
	if base.k == kConst {
		r := new(big.Rat).SetInt64(1)
		b := new(big.Rat).Set(base.con)
		e := n
		neg := e < 0
		if neg {
			e = -e
		}
		for i := 0; i < e; i++ {
			r.Mul(r, b)
		}
		if neg {
			r.Inv(r)
		}
		return constRat(r)
	}
	return &Expr{k: kPow, base: base, power: n}
}

// lessKey is a deterministic, structure-derived sort key used to keep
// Add/Mul argument order canonical (so structurally identical sums
// built in different orders compare pointer-free-equal after Equal's
// normal-form comparison, and so String output is stable).
func lessKey(e *Expr) string {
	switch e.k {
	case kConst:
		return "0:" + e.con.RatString()
	case kVar:
		return fmt.Sprintf("1:%020d", e.v.ID())
	case kPow:
		return "2:" + lessKey(e.base) + fmt.Sprintf("^%d", e.power)
	case kMul:
		var parts []string
		for _, a := range e.args {
			parts = append(parts, lessKey(a))
		}
		return "3:" + strings.Join(parts, "*")
	case kAdd:
		var parts []string
		for _, a := range e.args {
			parts = append(parts, lessKey(a))
		}
		return "4:" + strings.Join(parts, "+")
	}
	return "9"
}

// Vars returns the set of Variables occurring in e.
func (e *Expr) Vars() map[*vars.Variable]struct{} {
	res := make(map[*vars.Variable]struct{})
	e.collectVars(res)
	return res
}

func (e *Expr) collectVars(res map[*vars.Variable]struct{}) {
	switch e.k {
	case kVar:
		res[e.v] = struct{}{}
	case kAdd, kMul:
		for _, a := range e.args {
			a.collectVars(res)
		}
	case kPow:
		e.base.collectVars(res)
	}
}

// HasVar reports whether v occurs in e.
func (e *Expr) HasVar(v *vars.Variable) bool {
	_, ok := e.Vars()[v]
	return ok
}

// IsPoly reports whether e is a polynomial (no negative exponents
// anywhere in the tree).
func (e *Expr) IsPoly() bool {
	switch e.k {
	case kConst, kVar:
		return true
	case kAdd, kMul:
		for _, a := range e.args {
			if !a.IsPoly() {
				return false
			}
		}
		return true
	case kPow:
		return e.power >= 0 && e.base.IsPoly()
	}
	return false
}

// IsRationalConstant reports whether e evaluates to a rational
// constant (spec.md §3: "when l-r evaluates to a rational constant").
func (e *Expr) IsRationalConstant() bool {
	terms := e.Expand().normalForm()
	if len(terms) == 0 {
		return true
	}
	return len(terms) == 1 && len(terms[0].powers) == 0
}

// IsInt reports whether e is a rational constant with denominator 1.
func (e *Expr) IsInt() bool {
	if !e.IsRationalConstant() {
		return false
	}
	return e.RationalValue().IsInt()
}

// RationalValue returns the constant value of e; callers must first
// check IsRationalConstant.
func (e *Expr) RationalValue() *big.Rat {
	terms := e.Expand().normalForm()
	if len(terms) == 0 {
		return big.NewRat(0, 1)
	}
	return terms[0].coeff
}

// Equal reports structural equality by normal form (spec.md §3:
// "equality by normal form"): both sides are expanded to a canonical
// sum of monomials and compared term by term.
func (e *Expr) Equal(o *Expr) bool {
	a := e.Expand().normalForm()
	b := o.Expand().normalForm()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].coeff.Cmp(b[i].coeff) != 0 {
			return false
		}
		if len(a[i].powers) != len(b[i].powers) {
			return false
		}
		for v, p := range a[i].powers {
			if b[i].powers[v] != p {
				return false
			}
		}
	}
	return true
}

// String renders e in ordinary infix notation.
func (e *Expr) String() string {
	switch e.k {
	case kConst:
		if e.con.IsInt() {
			return e.con.Num().String()
		}
		return e.con.RatString()
	case kVar:
		return e.v.Name()
	case kPow:
		return fmt.Sprintf("%s^%d", parenIfNeeded(e.base), e.power)
	case kMul:
		parts := make([]string, len(e.args))
		for i, a := range e.args {
			parts[i] = parenIfNeeded(a)
		}
		return strings.Join(parts, "*")
	case kAdd:
		parts := make([]string, len(e.args))
		for i, a := range e.args {
			parts[i] = a.String()
		}
		return strings.Join(parts, " + ")
	}
	return "?"
}

func parenIfNeeded(e *Expr) string {
	if e.k == kAdd {
		return "(" + e.String() + ")"
	}
	return e.String()
}

// ErrNonPolynomial is returned when an operation would require true
// (non-constant) division (spec.md §4.1).
var ErrNonPolynomial = fmt.Errorf("expr: non-polynomial (true division by a non-constant)")

// AsVar exposes e's variable, for callers (e.g. the SMT bridge) that
// need to dispatch on e's shape without reaching into the union.
func (e *Expr) AsVar() (*vars.Variable, bool) {
	if e.k == kVar {
		return e.v, true
	}
	return nil, false
}

// AsAdd exposes e's summands.
func (e *Expr) AsAdd() ([]*Expr, bool) {
	if e.k == kAdd {
		return e.args, true
	}
	return nil, false
}

// AsMul exposes e's factors.
func (e *Expr) AsMul() ([]*Expr, bool) {
	if e.k == kMul {
		return e.args, true
	}
	return nil, false
}

// AsPow exposes e's base and exponent.
func (e *Expr) AsPow() (*Expr, int, bool) {
	if e.k == kPow {
		return e.base, e.power, true
	}
	return nil, 0, false
}
