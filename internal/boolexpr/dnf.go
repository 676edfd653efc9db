package boolexpr

// DNF rewrites b into disjunctive normal form: a set of conjunctions,
// each itself a flat set of literals (spec.md §3 "BoolExpr.dnf").
// Returned as Or(And(lits...), ...) so callers get back a *BoolExpr in
// the same representation, with the top level guaranteed to be either
// an Or of pure-literal Ands, a single pure-literal And, a single Lit,
// or a Const.
func (b *BoolExpr) DNF() *BoolExpr {
	return Or(distribute(b)...)
}

// distribute returns the conjunctive clauses of b's DNF as individual
// BoolExprs (each an And of literals, or a single Lit/Const).
func distribute(b *BoolExpr) []*BoolExpr {
	switch b.k {
	case kConst, kLit:
		return []*BoolExpr{b}
	case kOr:
		var out []*BoolExpr
		for _, c := range b.children {
			out = append(out, distribute(c)...)
		}
		return out
	case kAnd:
		clauses := []*BoolExpr{True()}
		for _, c := range b.children {
			clauses = cartesianAnd(clauses, distribute(c))
		}
		return clauses
	}
	return nil
}

func cartesianAnd(left, right []*BoolExpr) []*BoolExpr {
	out := make([]*BoolExpr, 0, len(left)*len(right))
	for _, l := range left {
		for _, r := range right {
			out = append(out, And(l, r))
		}
	}
	return out
}

// Clauses returns the DNF's top-level conjunctions as a slice (rather
// than wrapped back up in an Or).
func (b *BoolExpr) Clauses() []*BoolExpr {
	return distribute(b)
}
