// Package config collects the knobs spec.md §6 exposes across the
// acceleration core: every subsystem that branches on a tunable reads
// it from a Config value passed in by the caller rather than from a
// package-level global.
package config

// NonTermMode selects how much of the acceleration calculus the
// orchestrator runs.
type NonTermMode int

const (
	// NonTermModeAfter is the default: the nontermination branch runs
	// first (per spec.md §4.4, "before entering the
	// equivalence-preserving loop"), and when it finds no witness the
	// equivalence-preserving calculus runs after it on the whole guard.
	NonTermModeAfter NonTermMode = iota
	// NonTermModeOnly skips the equivalence-preserving phase entirely
	// and only searches for a nontermination witness.
	NonTermModeOnly
)

// Config holds every tunable named in spec.md §6's external interface
// table. Zero value is not meaningful; use Default.
type Config struct {
	// ReplaceTempVarByUpperbounds enables §4.6 variable elimination
	// after a successful acceleration.
	ReplaceTempVarByUpperbounds bool

	// MaxUpperboundsForPropagation bounds how many instantiations §4.6
	// may produce before it gives up and returns the original rule.
	MaxUpperboundsForPropagation int

	// MaxExponentWithoutPow is an unfolding threshold for integer
	// exponents. No code reads it: the SMT bridge's own threshold is
	// set by smt.NewBridge (MaxExponentUnfold).
	MaxExponentWithoutPow int

	// AllowRealCoefficients lets Farkas metering search over
	// rationals: the coefficient variables are declared Real instead
	// of Int. The coefficients found are used as they are; they are
	// not scaled to integers and no auxiliary integer variable is
	// introduced.
	AllowRealCoefficients bool

	// TryAdditionalGuard is not read by any code: Farkas metering makes
	// a single attempt and does not retry with guard constraints
	// implied by G ∧ U, whatever its value.
	TryAdditionalGuard bool

	// NonTermMode controls whether the orchestrator also attempts the
	// equivalence-preserving calculus or only searches for
	// nontermination witnesses.
	NonTermMode NonTermMode

	// SmtTimeoutMillis is a per-query timeout in milliseconds. No code
	// reads it and smt.Solver has no timeout setting; a query is only
	// cancelled through the context passed to Check.
	SmtTimeoutMillis int

	// FreeVarInstantiateMaxBounds caps how many bound combinations
	// Farkas's free-variable instantiation heuristic tries per free
	// variable (grounded on the original's
	// FREEVAR_INSTANTIATE_MAXBOUNDS constant).
	FreeVarInstantiateMaxBounds int
}

// Default returns the configuration the orchestrator uses absent any
// caller override: the nontermination branch runs first and the full
// equivalence-preserving calculus after it, integer Farkas
// coefficients are preferred, and variable
// elimination is enabled with a conservative instantiation cap.
func Default() Config {
	return Config{
		ReplaceTempVarByUpperbounds:  true,
		MaxUpperboundsForPropagation: 20,
		MaxExponentWithoutPow:        3,
		AllowRealCoefficients:        false,
		TryAdditionalGuard:           true,
		NonTermMode:                  NonTermModeAfter,
		SmtTimeoutMillis:             10000,
		FreeVarInstantiateMaxBounds:  3,
	}
}
