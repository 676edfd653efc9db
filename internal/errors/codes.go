package errors

// Error codes for the acceleration core.
//
// Error code ranges:
// A0001-A0099: guard/feasibility errors
// A0100-A0199: linearisation errors
// A0200-A0299: metering synthesis errors
// A0300-A0399: recurrence/dependency-order errors
// A0400-A0499: resource and cancellation errors
// A0900-A0999: generic, uncategorised errors

const (
	// A0001: the rule's guard is SMT-unsat on its own.
	CodeGuardUnsat = "A0001"

	// A0002: the reduced guard is empty; the loop is unbounded.
	CodeGuardUnbounded = "A0002"

	// A0100: a guard atom could not be linearised.
	CodeNonLinearGuard = "A0100"

	// A0101: an update right-hand side could not be linearised.
	CodeNonLinearUpdate = "A0101"

	// A0200: the Farkas metering search found no certificate.
	CodeNoMeteringFunction = "A0200"

	// A0300: the recurrence oracle declined the recurrence.
	CodeRecurrenceTooComplex = "A0300"

	// A0301: no variable ordering resolves the update's dependencies,
	// even after the heuristic repair.
	CodeDependencyOrderUnresolved = "A0301"

	// A0400: the cooperative deadline expired.
	CodeTimeout = "A0400"

	// A0900: none of the typed branches applied.
	CodeFailure = "A0900"
)

// description returns a human-readable explanation of an error code, for
// the reporter's help text and for documentation generation.
func description(code string) string {
	switch code {
	case CodeGuardUnsat:
		return "the rule's guard is unsatisfiable on its own"
	case CodeGuardUnbounded:
		return "the reduced guard no longer constrains the loop variable"
	case CodeNonLinearGuard:
		return "a guard atom contains a subexpression the linear bridge cannot encode"
	case CodeNonLinearUpdate:
		return "an update right-hand side contains a subexpression the linear bridge cannot encode"
	case CodeNoMeteringFunction:
		return "the Farkas search found no linear metering function, even after retries"
	case CodeRecurrenceTooComplex:
		return "the recurrence oracle could not produce a closed form"
	case CodeDependencyOrderUnresolved:
		return "the update's variables have no dependency order, even after the repair heuristic"
	case CodeTimeout:
		return "the cooperative deadline expired before the computation finished"
	case CodeFailure:
		return "none of the acceleration calculus's branches discharged this rule"
	default:
		return "unknown error code"
	}
}
