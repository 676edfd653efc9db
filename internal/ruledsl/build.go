package ruledsl

import (
	"fmt"
	"strconv"

	"github.com/loat-go/accelerate/internal/boolexpr"
	"github.com/loat-go/accelerate/internal/expr"
	"github.com/loat-go/accelerate/internal/its"
	"github.com/loat-go/accelerate/internal/rel"
	"github.com/loat-go/accelerate/internal/vars"
)

var relOps = map[string]rel.Op{
	"<":  rel.Lt,
	"<=": rel.Le,
	">":  rel.Gt,
	">=": rel.Ge,
	"==": rel.Eq,
	"!=": rel.Ne,
}

// Build converts a parsed File into its.Rule's data model, minting or
// reusing program variables in vm for every identifier the rule
// mentions. Grounded on the teacher's internal/semantic resolution
// pass, which turns a freshly parsed AST's names into interned symbols
// the same way, but with the Move type/scope machinery stripped down
// to "every identifier is an integer program variable".
func Build(f *File, vm *vars.Manager) (its.Rule, error) {
	rd := f.Rule
	loc := its.Loc(rd.Loc)

	var guardLits []rel.Rel
	update := expr.Subs{}
	cost := expr.Const(1)

	for _, clause := range rd.Clauses {
		switch {
		case clause.Guard != nil:
			for _, lit := range clause.Guard.Lits {
				r, err := buildRelation(lit, vm)
				if err != nil {
					return its.Rule{}, err
				}
				guardLits = append(guardLits, r)
			}
		case clause.Update != nil:
			for _, a := range clause.Update.Assigns {
				rhs, err := buildExpr(a.Value, vm)
				if err != nil {
					return its.Rule{}, err
				}
				update[resolveVar(vm, a.Var)] = rhs
			}
		case clause.Cost != nil:
			if clause.Cost.NonTerm {
				cost = its.NonTermSymbol
				continue
			}
			c, err := buildExpr(clause.Cost.Value, vm)
			if err != nil {
				return its.Rule{}, err
			}
			cost = c
		}
	}

	guard := boolexpr.NewGuard(guardLits...)
	return its.NewSimpleRule(loc, guard, cost, loc, its.NewUpdate(update)), nil
}

func buildRelation(r *Relation, vm *vars.Manager) (rel.Rel, error) {
	l, err := buildExpr(r.Left, vm)
	if err != nil {
		return rel.Rel{}, err
	}
	right, err := buildExpr(r.Right, vm)
	if err != nil {
		return rel.Rel{}, err
	}
	op, ok := relOps[r.Operator]
	if !ok {
		return rel.Rel{}, fmt.Errorf("ruledsl: unknown relation operator %q", r.Operator)
	}
	return rel.New(l, op, right), nil
}

func buildExpr(e *Expr, vm *vars.Manager) (*expr.Expr, error) {
	acc, err := buildTerm(e.Left, vm)
	if err != nil {
		return nil, err
	}
	for _, op := range e.Ops {
		rhs, err := buildTerm(op.Right, vm)
		if err != nil {
			return nil, err
		}
		switch op.Operator {
		case "+":
			acc = expr.Add(acc, rhs)
		case "-":
			acc = expr.Sub(acc, rhs)
		default:
			return nil, fmt.Errorf("ruledsl: unknown additive operator %q", op.Operator)
		}
	}
	return acc, nil
}

func buildTerm(t *Term, vm *vars.Manager) (*expr.Expr, error) {
	acc, err := buildFactor(t.Left, vm)
	if err != nil {
		return nil, err
	}
	for _, op := range t.Ops {
		rhs, err := buildFactor(op.Right, vm)
		if err != nil {
			return nil, err
		}
		switch op.Operator {
		case "*":
			acc = expr.Mul(acc, rhs)
		case "/":
			acc, err = expr.Div(acc, rhs)
			if err != nil {
				return nil, fmt.Errorf("ruledsl: %w", err)
			}
		default:
			return nil, fmt.Errorf("ruledsl: unknown multiplicative operator %q", op.Operator)
		}
	}
	return acc, nil
}

func buildFactor(f *Factor, vm *vars.Manager) (*expr.Expr, error) {
	base, err := buildUnary(f.Base, vm)
	if err != nil {
		return nil, err
	}
	if f.Pow == nil {
		return base, nil
	}
	exponent, err := buildFactor(f.Pow, vm)
	if err != nil {
		return nil, err
	}
	if !exponent.IsRationalConstant() || !exponent.RationalValue().IsInt() {
		return nil, fmt.Errorf("ruledsl: exponent must be an integer literal, got %s", exponent.String())
	}
	return expr.Pow(base, int(exponent.RationalValue().Num().Int64())), nil
}

func buildUnary(u *Unary, vm *vars.Manager) (*expr.Expr, error) {
	p, err := buildPrimary(u.Primary, vm)
	if err != nil {
		return nil, err
	}
	if u.Neg {
		return expr.Neg(p), nil
	}
	return p, nil
}

func buildPrimary(p *Primary, vm *vars.Manager) (*expr.Expr, error) {
	switch {
	case p.Number != nil:
		n, err := strconv.ParseInt(*p.Number, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ruledsl: invalid integer literal %q: %w", *p.Number, err)
		}
		return expr.Const(n), nil
	case p.Ident != nil:
		return expr.Var(resolveVar(vm, *p.Ident)), nil
	case p.Sub != nil:
		return buildExpr(p.Sub, vm)
	}
	return nil, fmt.Errorf("ruledsl: empty primary expression")
}

// resolveVar reuses a previously declared variable of the same name
// within vm (so a REPL session's later rules can refer back to
// earlier ones' variables), declaring it fresh on first mention.
func resolveVar(vm *vars.Manager, name string) *vars.Variable {
	if v, ok := vm.Lookup(name); ok {
		return v
	}
	return vm.Declare(name, vars.Int)
}
