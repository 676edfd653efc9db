package ruledsl

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// RuleLexer tokenises the single-rule debug format: a rule declaration
// with guard/update/cost blocks over integer arithmetic and relations.
// Grounded on the teacher's grammar.KansoLexer, with the Move-language
// operator/punctuation sets pared down to what an ITS rule needs (no
// struct/module syntax, `:=` added for update assignment).
var RuleLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `//[^\n]*`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Integer", `[0-9]+`, nil},
		{"Operator", `(:=|<=|>=|==|!=|<|>|\+|-|\*|/|\^)`, nil},
		{"Punctuation", `[{}(),;]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
