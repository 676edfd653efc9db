// Package smt bridges the expr/rel/boolexpr kernel to an external SMT
// solver. It defines the wire-level Term representation, the Solver
// contract the acceleration calculus programs against, and a minimal
// reference IntervalSolver decision procedure (spec.md §6: "an SMT
// engine ... is an external collaborator").
package smt

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/loat-go/accelerate/internal/boolexpr"
	"github.com/loat-go/accelerate/internal/expr"
	"github.com/loat-go/accelerate/internal/rel"
	"github.com/loat-go/accelerate/internal/vars"
)

// Sort is the SMT-LIB sort a Variable is encoded with.
type Sort int

const (
	SortInt Sort = iota
	SortReal
)

func (s Sort) String() string {
	if s == SortReal {
		return "Real"
	}
	return "Int"
}

// Term is an S-expression: either an atom (numeral, symbol, or
// operator-applied-to-args) mirroring z3::expr's tree shape closely
// enough that String() renders valid SMT-LIB2.
type Term struct {
	atom string
	args []Term
}

func Atom(s string) Term { return Term{atom: s} }

func App(op string, args ...Term) Term { return Term{atom: op, args: args} }

func IntVal(n *big.Int) Term { return Atom(n.String()) }

func RealVal(r *big.Rat) Term {
	return App("/", Atom(r.Num().String()), Atom(r.Denom().String()))
}

func (t Term) String() string {
	if len(t.args) == 0 {
		return t.atom
	}
	parts := make([]string, len(t.args))
	for i, a := range t.args {
		parts[i] = a.String()
	}
	return "(" + t.atom + " " + strings.Join(parts, " ") + ")"
}

// Conversion is returned when an Expr/BoolExpr cannot be represented
// as a Term at all (e.g. a non-polynomial division slipped past
// construction-time checks).
type ConversionError struct {
	Expr string
}

func (e *ConversionError) Error() string { return "smt: cannot convert term: " + e.Expr }

// LargeConstant is returned when a rational constant's numerator or
// denominator overflows the solver's native numeral type (mirrors
// ginactoz3.cpp's GinacZ3LargeConstantError).
type LargeConstantError struct {
	Value *big.Rat
}

func (e *LargeConstantError) Error() string {
	return fmt.Sprintf("smt: constant too large to convert: %s", e.Value.String())
}

// Bridge converts Expr/BoolExpr into Terms against a fixed Variable ->
// Sort assignment and a bound on how large an integer power is
// unfolded into repeated multiplication before falling back to `^`
// (ginactoz3.cpp's Config::Z3::MaxExponentWithoutPow).
type Bridge struct {
	Sorts            map[*vars.Variable]Sort
	MaxExponentUnfold int
}

func NewBridge() *Bridge {
	return &Bridge{Sorts: make(map[*vars.Variable]Sort), MaxExponentUnfold: 5}
}

// SortOf returns the sort assigned to v, defaulting to Int for
// ProgramVar/TempVar kinds per spec.md §6 and assigning Real only when
// the variable's own vars.Sort says so.
func (b *Bridge) SortOf(v *vars.Variable) Sort {
	if s, ok := b.Sorts[v]; ok {
		return s
	}
	if v.Sort() == vars.Real {
		return SortReal
	}
	return SortInt
}

// Declare registers v with its native sort and returns the SMT-LIB
// declaration term for it.
func (b *Bridge) Declare(v *vars.Variable) Term {
	s := b.SortOf(v)
	b.Sorts[v] = s
	return App("declare-const", Atom(v.Name()), Atom(s.String()))
}

// ExprTerm converts e into a Term.
func (b *Bridge) ExprTerm(e *expr.Expr) (Term, error) {
	if e.IsRationalConstant() {
		r := e.RationalValue()
		if !fitsInt64(r.Num()) || !fitsInt64(r.Denom()) {
			return Term{}, &LargeConstantError{Value: r}
		}
		if r.IsInt() {
			return IntVal(r.Num()), nil
		}
		return RealVal(r), nil
	}
	if v, ok := e.AsVar(); ok {
		return Atom(v.Name()), nil
	}
	if args, ok := e.AsAdd(); ok {
		return b.nary("+", args)
	}
	if args, ok := e.AsMul(); ok {
		return b.nary("*", args)
	}
	if base, n, ok := e.AsPow(); ok {
		return b.powTerm(base, n)
	}
	return Term{}, &ConversionError{Expr: e.String()}
}

func (b *Bridge) nary(op string, args []*expr.Expr) (Term, error) {
	terms := make([]Term, len(args))
	for i, a := range args {
		t, err := b.ExprTerm(a)
		if err != nil {
			return Term{}, err
		}
		terms[i] = t
	}
	return App(op, terms...), nil
}

func (b *Bridge) powTerm(base *expr.Expr, n int) (Term, error) {
	bt, err := b.ExprTerm(base)
	if err != nil {
		return Term{}, err
	}
	if n >= 0 && n <= b.MaxExponentUnfold {
		if n == 0 {
			return Atom("1"), nil
		}
		res := bt
		for i := 1; i < n; i++ {
			res = App("*", res, bt)
		}
		return res, nil
	}
	nt, err := b.ExprTerm(expr.Const(int64(n)))
	if err != nil {
		return Term{}, err
	}
	return App("^", bt, nt), nil
}

// RelTerm converts a Rel into a Term.
func (b *Bridge) RelTerm(r rel.Rel) (Term, error) {
	l, err := b.ExprTerm(r.L)
	if err != nil {
		return Term{}, err
	}
	rr, err := b.ExprTerm(r.R)
	if err != nil {
		return Term{}, err
	}
	op := map[rel.Op]string{
		rel.Lt: "<", rel.Le: "<=", rel.Gt: ">", rel.Ge: ">=", rel.Eq: "=",
	}[r.Op]
	if r.Op == rel.Ne {
		return App("not", App("=", l, rr)), nil
	}
	return App(op, l, rr), nil
}

// BoolTerm converts a BoolExpr into a Term.
func (b *Bridge) BoolTerm(be *boolexpr.BoolExpr) (Term, error) {
	if v, ok := be.GetConst(); ok {
		if v {
			return Atom("true"), nil
		}
		return Atom("false"), nil
	}
	if l, ok := be.GetLit(); ok {
		return b.RelTerm(l)
	}
	op := "and"
	if be.IsOr() {
		op = "or"
	}
	terms := make([]Term, len(be.Children()))
	for i, c := range be.Children() {
		t, err := b.BoolTerm(c)
		if err != nil {
			return Term{}, err
		}
		terms[i] = t
	}
	return App(op, terms...), nil
}

func fitsInt64(n *big.Int) bool {
	return n.IsInt64()
}
