package smt

import (
	"context"
	"math/big"

	"github.com/loat-go/accelerate/internal/boolexpr"
	"github.com/loat-go/accelerate/internal/rel"
	"github.com/loat-go/accelerate/internal/vars"
)

// interval is a closed [lo, hi] bound, either side possibly absent
// (unbounded).
type interval struct {
	lo, hi   *big.Rat
	hasLo    bool
	hasHi    bool
	infeasible bool
}

func unbounded() interval { return interval{} }

func (iv interval) narrowLo(v *big.Rat) interval {
	if !iv.hasLo || v.Cmp(iv.lo) > 0 {
		iv.lo, iv.hasLo = v, true
	}
	if iv.hasHi && iv.lo != nil && iv.lo.Cmp(iv.hi) > 0 {
		iv.infeasible = true
	}
	return iv
}

func (iv interval) narrowHi(v *big.Rat) interval {
	if !iv.hasHi || v.Cmp(iv.hi) < 0 {
		iv.hi, iv.hasHi = v, true
	}
	if iv.hasLo && iv.hi != nil && iv.lo.Cmp(iv.hi) > 0 {
		iv.infeasible = true
	}
	return iv
}

// IntervalSolver is a reference Solver that only reasons precisely
// about single-variable bound literals (`x <= c`, `x >= c`, `x = c`,
// conjoined) and otherwise answers Unknown rather than guessing.
// Sound — it never reports Unsat unless every scope's bound literals
// are jointly infeasible — but incomplete: it does not perform
// general linear arithmetic reasoning across variables, matching
// spec.md §6's framing of the bundled decision procedure as a stand-in
// for an external SMT engine rather than a replacement for one.
//
// Within the one class of formula it fully understands — every
// asserted literal a single-variable bound — it is also complete: the
// tracked intervals then ARE the conjunction, so a feasible interval
// for every tracked variable really is a satisfying assignment. Check
// reports Sat in that case and Model reads off a witness; as soon as
// any literal falls outside that class the understood flag for its
// scope goes false and Check falls back to Unknown, same as before.
type IntervalSolver struct {
	scopes     []map[*vars.Variable]interval
	understood []bool
}

func NewIntervalSolver() *IntervalSolver {
	s := &IntervalSolver{}
	s.Reset()
	return s
}

func (s *IntervalSolver) Name() string { return "interval-solver" }

func (s *IntervalSolver) Reset() {
	s.scopes = []map[*vars.Variable]interval{make(map[*vars.Variable]interval)}
	s.understood = []bool{true}
}

func (s *IntervalSolver) Push() {
	s.scopes = append(s.scopes, make(map[*vars.Variable]interval))
	s.understood = append(s.understood, true)
}

func (s *IntervalSolver) Pop() {
	if len(s.scopes) > 1 {
		s.scopes = s.scopes[:len(s.scopes)-1]
		s.understood = s.understood[:len(s.understood)-1]
	}
}

func (s *IntervalSolver) top() map[*vars.Variable]interval {
	return s.scopes[len(s.scopes)-1]
}

func (s *IntervalSolver) get(v *vars.Variable) interval {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if iv, ok := s.scopes[i][v]; ok {
			return iv
		}
	}
	return unbounded()
}

// Add narrows the bound of each single-variable literal found in b. A
// literal that isn't of the shape `var ⋈ constant` is ignored — it
// neither helps nor hurts the conservative Unknown fallback.
func (s *IntervalSolver) Add(b *boolexpr.BoolExpr) error {
	top := len(s.scopes) - 1
	for _, l := range b.Lits() {
		if l.Op == rel.Ne {
			// x != c is a hole, not a bound; the interval fragment has
			// no way to represent it.
			s.understood[top] = false
			continue
		}
		v, c, swapped, ok := asVarConstLit(l)
		if !ok {
			s.understood[top] = false
			continue
		}
		op := litOp(l.Op)
		if swapped {
			op = flip(op)
		}
		s.narrow(v, op, c)
	}
	return nil
}

// narrow tightens v's bound for one literal. Strict inequalities over
// an Int variable are integer-tightened to the equivalent non-strict
// bound (x < c ⟺ x ≤ c−1); over a Real variable that tightening is
// unsound (x < c does not imply x ≤ c−1 for reals), so strict bounds
// on a Real variable are left untightened and merely recorded as
// unbounded on that side — correct but, past that literal, no longer
// part of the fully-understood single-variable-bound fragment.
func (s *IntervalSolver) narrow(v *vars.Variable, op opLike, c *big.Rat) {
	iv := s.get(v)
	switch op {
	case opLe:
		iv = iv.narrowHi(c)
	case opLt:
		if v.Sort() == vars.Int {
			iv = iv.narrowHi(new(big.Rat).Sub(c, big.NewRat(1, 1)))
		} else {
			s.markUnunderstood()
		}
	case opGe:
		iv = iv.narrowLo(c)
	case opGt:
		if v.Sort() == vars.Int {
			iv = iv.narrowLo(new(big.Rat).Add(c, big.NewRat(1, 1)))
		} else {
			s.markUnunderstood()
		}
	case opEq:
		iv = iv.narrowLo(c).narrowHi(c)
	}
	s.top()[v] = iv
}

// markUnunderstood clears the current scope's understood flag, for a
// literal that was recognised as a single-variable bound but could
// not be soundly folded into the tracked interval.
func (s *IntervalSolver) markUnunderstood() {
	s.understood[len(s.understood)-1] = false
}

// Check reports Unsat if any tracked variable's bounds are empty.
// Otherwise, if every literal asserted so far was a single-variable
// bound (no scope's understood flag was ever cleared), the tracked
// intervals exactly characterise the conjunction and Check reports
// Sat; if some literal fell outside that class it reports Unknown
// rather than guessing.
func (s *IntervalSolver) Check(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Unknown, err
	}
	seen := make(map[*vars.Variable]struct{})
	for i := len(s.scopes) - 1; i >= 0; i-- {
		for v := range s.scopes[i] {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			if s.get(v).infeasible {
				return Unsat, nil
			}
		}
	}
	for _, u := range s.understood {
		if !u {
			return Unknown, nil
		}
	}
	return Sat, nil
}

// Model reads off a witness assignment from the current intervals: v
// takes its lower bound if one was asserted, else its upper bound,
// else zero. Only meaningful right after a Sat Check (the solver does
// not itself guard against calling Model after Unknown/Unsat).
func (s *IntervalSolver) Model(ctx context.Context) (Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	witness := make(map[*vars.Variable]*big.Rat)
	for i := len(s.scopes) - 1; i >= 0; i-- {
		for v := range s.scopes[i] {
			if _, ok := witness[v]; ok {
				continue
			}
			iv := s.get(v)
			switch {
			case iv.hasLo:
				witness[v] = iv.lo
			case iv.hasHi:
				witness[v] = iv.hi
			default:
				witness[v] = big.NewRat(0, 1)
			}
		}
	}
	return intervalModel{witness}, nil
}

type intervalModel struct {
	values map[*vars.Variable]*big.Rat
}

func (m intervalModel) Value(v *vars.Variable) (*big.Rat, bool) {
	r, ok := m.values[v]
	return r, ok
}

type opLike int

const (
	opLe opLike = iota
	opLt
	opGe
	opGt
	opEq
)

func flip(op opLike) opLike {
	switch op {
	case opLe:
		return opGe
	case opLt:
		return opGt
	case opGe:
		return opLe
	case opGt:
		return opLt
	default:
		return op
	}
}
