package ruledsl

import (
	"fmt"
	"strings"

	"github.com/loat-go/accelerate/internal/its"
	"github.com/loat-go/accelerate/internal/rel"
)

// Format renders rule back into the ruledsl surface syntax Build
// consumes, using each field's own String() method (spec.md §3's
// Guard/Expr/Update types already print in a syntax this grammar
// accepts verbatim, except that an equality literal, which Rel.String
// prints with `=`, is written with the grammar's `==`). Grounded on the
// teacher's grammar.Program.String, which likewise reassembles a parsed AST's own node printers into one
// top-level block rather than re-deriving formatting rules of its own.
func Format(rule its.Rule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "rule %s {\n", rule.Lhs.Loc)
	if lits := rule.Lhs.Guard.Lits(); len(lits) > 0 {
		parts := make([]string, len(lits))
		for i, l := range lits {
			parts[i] = l.String()
			if l.Op == rel.Eq {
				parts[i] = fmt.Sprintf("%s == %s", l.L.String(), l.R.String())
			}
		}
		fmt.Fprintf(&b, "    guard %s;\n", strings.Join(parts, ", "))
	}
	if rule.IsLinear() {
		if u := rule.Single().Update; !u.Empty() {
			fmt.Fprintf(&b, "    update %s;\n", u.String())
		}
	}
	if its.IsNonTermSymbol(rule.Lhs.Cost) {
		b.WriteString("    cost nonterm;\n")
	} else {
		fmt.Fprintf(&b, "    cost %s;\n", rule.Lhs.Cost.String())
	}
	b.WriteString("}\n")
	return b.String()
}
