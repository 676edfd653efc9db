package ruledsl

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"
)

var parser = participle.MustBuild[File](
	participle.Lexer(RuleLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(3),
)

// Parse parses one rule declaration out of src. filename is used only
// for error position reporting.
func Parse(filename, src string) (*File, error) {
	f, err := parser.ParseString(filename, src)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// FormatParseError renders err as a caret-style message pointing at
// the offending line and column, the way the teacher's
// grammar.reportParseError does for its own parser's errors.
func FormatParseError(src string, err error) string {
	pe, ok := err.(participle.Error)
	if !ok {
		return color.RedString("unexpected error: %s", err)
	}

	pos := pe.Position()
	lines := strings.Split(src, "\n")
	if pos.Line <= 0 || pos.Line > len(lines) {
		return color.RedString("syntax error at unknown location: %s", err)
	}

	line := lines[pos.Line-1]
	caret := strings.Repeat(" ", pos.Column-1) + "^"

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", color.RedString("syntax error in %s at line %d, column %d:", pos.Filename, pos.Line, pos.Column))
	fmt.Fprintf(&b, "%s\n", line)
	fmt.Fprintf(&b, "%s\n", color.HiRedString("%s", caret))
	fmt.Fprintf(&b, "-> %s\n", pe.Message())
	return b.String()
}
