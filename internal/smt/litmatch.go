package smt

import (
	"math/big"

	"github.com/loat-go/accelerate/internal/rel"
	"github.com/loat-go/accelerate/internal/vars"
)

// asVarConstLit recognises literals of the shape `var ⋈ constant` or
// `constant ⋈ var` (reporting swapped=true in the latter case, so
// callers can flip the operator to read it as var-relative-to-const).
func asVarConstLit(l rel.Rel) (v *vars.Variable, c *big.Rat, swapped bool, ok bool) {
	if lv, isVar := l.L.AsVar(); isVar && l.R.IsRationalConstant() {
		return lv, l.R.RationalValue(), false, true
	}
	if rv, isVar := l.R.AsVar(); isVar && l.L.IsRationalConstant() {
		return rv, l.L.RationalValue(), true, true
	}
	return nil, nil, false, false
}

func litOp(o rel.Op) opLike {
	switch o {
	case rel.Le:
		return opLe
	case rel.Lt:
		return opLt
	case rel.Ge:
		return opGe
	case rel.Gt:
		return opGt
	case rel.Eq:
		return opEq
	}
	panic("litOp: unreachable rel.Op, caller must filter rel.Ne before calling")
}
