package expr

import "github.com/loat-go/accelerate/internal/vars"

// Subs is a parallel (simultaneous) substitution Variable -> Expr.
// Every entry is applied in one pass; x not in the map maps to itself
// (spec.md §3: "If x ∉ dom(σ), x[σ] = x").
type Subs map[*vars.Variable]*Expr

// Get returns σ(x), defaulting to x itself when x is not in the
// domain.
func (s Subs) Get(v *vars.Variable) *Expr {
	if e, ok := s[v]; ok {
		return e
	}
	return Var(v)
}

// With returns a copy of s extended with one more binding (used to
// build the one-off {n -> n-1} shifts the acceleration calculus needs
// without mutating a shared Subs).
func (s Subs) With(v *vars.Variable, e *Expr) Subs {
	out := make(Subs, len(s)+1)
	for k, val := range s {
		out[k] = val
	}
	out[v] = e
	return out
}

// Compose builds the substitution equivalent to first applying sigma,
// then tau — i.e. the Subs result such that for every Expr e,
// e.Subs(sigma).Subs(tau) == e.Subs(result) (spec.md §4.1: "Composition
// σ∘τ is right-to-left — expr.subs(σ).subs(τ) = expr.subs(τ∘σ)").
func Compose(sigma, tau Subs) Subs {
	out := make(Subs, len(sigma)+len(tau))
	for v, e := range sigma {
		out[v] = e.Subs(tau)
	}
	for v, e := range tau {
		if _, already := out[v]; !already {
			out[v] = e
		}
	}
	return out
}

// Subs applies s to e in a single simultaneous pass: every variable
// occurrence is replaced by its image under s (or left alone if s has
// no binding for it), and the arithmetic combinators are rebuilt via
// the canonicalising constructors so the result stays in normal form.
func (e *Expr) Subs(s Subs) *Expr {
	if len(s) == 0 {
		return e
	}
	switch e.k {
	case kConst:
		return e
	case kVar:
		return s.Get(e.v)
	case kAdd:
		args := make([]*Expr, len(e.args))
		for i, a := range e.args {
			args[i] = a.Subs(s)
		}
		return Add(args...)
	case kMul:
		args := make([]*Expr, len(e.args))
		for i, a := range e.args {
			args[i] = a.Subs(s)
		}
		return Mul(args...)
	case kPow:
		return Pow(e.base.Subs(s), e.power)
	}
	return e
}
