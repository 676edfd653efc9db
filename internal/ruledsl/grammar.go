package ruledsl

// File is the top-level production: exactly one rule declaration.
// Grounded on the teacher's grammar.Program, shrunk from "zero or more
// source elements" to "exactly one rule" since ruledsl only ever
// describes a single self-loop.
type File struct {
	Rule *RuleDecl `@@`
}

// RuleDecl is `rule <loc> { [guard ...;] [update ...;] [cost ...;] }`.
// Guard, update and cost are each optional and may appear in any
// order, matching spec.md §3's Rule fields all being independently
// optional (an absent guard is ⊤, an absent update is identity, an
// absent cost is the constant 1).
type RuleDecl struct {
	Loc     string        `"rule" @Ident "{"`
	Clauses []*RuleClause `@@* "}"`
}

type RuleClause struct {
	Guard  *GuardClause  `  @@`
	Update *UpdateClause `| @@`
	Cost   *CostClause   `| @@`
}

// GuardClause is a comma-separated conjunction of relations.
type GuardClause struct {
	Lits []*Relation `"guard" @@ { "," @@ } ";"`
}

// UpdateClause is a comma-separated list of `var := expr` assignments.
type UpdateClause struct {
	Assigns []*Assignment `"update" @@ { "," @@ } ";"`
}

type Assignment struct {
	Var   string `@Ident ":="`
	Value *Expr  `@@`
}

// CostClause is either a symbolic expression or the `nonterm`
// sentinel keyword (spec.md §3: "Cost ... may be the sentinel
// NonTermSymbol").
type CostClause struct {
	NonTerm bool  `"cost" ( @"nonterm"`
	Value   *Expr `  | @@ ) ";"`
}

// Relation is one guard literal: `expr op expr`.
type Relation struct {
	Left     *Expr  `@@`
	Operator string `@("<=" | ">=" | "==" | "!=" | "<" | ">")`
	Right    *Expr  `@@`
}

// Expr is a sum of terms (lowest precedence).
type Expr struct {
	Left *Term    `@@`
	Ops  []*AddOp `{ @@ }`
}

type AddOp struct {
	Operator string `@("+" | "-")`
	Right    *Term  `@@`
}

// Term is a product of factors.
type Term struct {
	Left *Factor  `@@`
	Ops  []*MulOp `{ @@ }`
}

type MulOp struct {
	Operator string  `@("*" | "/")`
	Right    *Factor `@@`
}

// Factor is a unary optionally raised to an integer power, the
// highest-precedence binary operator (spec.md §4.1's Pow node).
type Factor struct {
	Base *Unary  `@@`
	Pow  *Factor `[ "^" @@ ]`
}

type Unary struct {
	Neg     bool     `[ @"-" ]`
	Primary *Primary `@@`
}

type Primary struct {
	Number *string `  @Integer`
	Ident  *string `| @Ident`
	Sub    *Expr   `| "(" @@ ")"`
}
