package errors

import "fmt"

// Common acceleration-error constructors (spec.md §7). Each mirrors
// one of the seven outcomes and fills in the code and a default help
// text; callers can still attach rule-specific notes via WithNote
// before Build, or use these directly when no extra context applies.

// Unsat reports that a rule's guard is SMT-unsat on its own.
func Unsat(loc string) *Error {
	return New(KindUnsat, CodeGuardUnsat, "guard is unsatisfiable").
		At(loc).
		WithHelp("the rule is dead code; the caller should drop it").
		Build()
}

// Unbounded reports that the reduced guard no longer constrains the
// loop, so it iterates without bound.
func Unbounded(loc string) *Error {
	return New(KindUnbounded, CodeGuardUnbounded, "reduced guard is empty, loop is unbounded").
		At(loc).
		WithHelp("cost and nontermination can still be reported for this rule").
		Build()
}

// NonLinear reports that the named expression could not be linearised
// for the SMT bridge.
func NonLinear(loc, code, expr string) *Error {
	return New(KindNonLinear, code, fmt.Sprintf("could not linearise %q", expr)).
		At(loc).
		WithHelp("the metering search's nonlinear-subexpression heuristic may still apply").
		Build()
}

// NoMeteringFunction reports that the Farkas search exhausted every
// retry without finding a certificate.
func NoMeteringFunction(loc string) *Error {
	return New(KindNoMeteringFunction, CodeNoMeteringFunction, "no linear metering function found").
		At(loc).
		WithHelp("strict and relaxed Farkas encodings, and all heuristics, were exhausted").
		Build()
}

// RecurrenceTooComplex reports that the recurrence oracle declined a
// recurrence it was asked to solve.
func RecurrenceTooComplex(loc, detail string) *Error {
	b := New(KindRecurrenceTooComplex, CodeRecurrenceTooComplex, "recurrence oracle could not solve the update").
		At(loc)
	if detail != "" {
		b = b.WithNote(detail)
	}
	return b.Build()
}

// DependencyOrderUnresolved reports that no variable ordering resolves
// the update's dependencies, even after the heuristic repair.
func DependencyOrderUnresolved(loc string) *Error {
	return New(KindRecurrenceTooComplex, CodeDependencyOrderUnresolved, "no dependency order resolves the update").
		At(loc).
		WithHelp("the mutual-dependency repair heuristic could not force the stuck variables equal").
		Build()
}

// Timeout reports that the cooperative deadline expired.
func Timeout(loc string) *Error {
	return New(KindTimeout, CodeTimeout, "cooperative deadline expired").
		At(loc).
		WithHelp("partial results already committed are kept").
		Build()
}

// Failure reports a generic failure: none of the typed branches
// applied.
func Failure(loc, reason string) *Error {
	b := New(KindFailure, CodeFailure, "acceleration failed")
	if reason != "" {
		b.err.Message = reason
	}
	return b.At(loc).Build()
}
