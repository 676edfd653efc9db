// Package replcore implements the read-accelerate-print loop shared by
// cmd/loat-repl. Grounded on the teacher's repl/repl.go (a bufio.Scanner
// prompt loop that parses one line and prints its AST), generalised
// from "one line, one expression" to "one rule declaration, possibly
// spanning several lines", since a ruledsl rule block is delimited by
// braces rather than newlines.
package replcore

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/loat-go/accelerate/internal/accel"
	"github.com/loat-go/accelerate/internal/config"
	"github.com/loat-go/accelerate/internal/orchestrator"
	"github.com/loat-go/accelerate/internal/recurrence"
	"github.com/loat-go/accelerate/internal/ruledsl"
	"github.com/loat-go/accelerate/internal/smt"
	"github.com/loat-go/accelerate/internal/vars"
)

// Prompt is printed before each rule, mirroring the teacher's PROMPT.
const Prompt = "loat> "

// Session bundles the collaborators a REPL run needs across rules: a
// single variable manager and solver persist across iterations so a
// later rule can refer back to an earlier one's variables.
type Session struct {
	VarMan *vars.Manager
	Solver smt.ModelSolver
	Oracle recurrence.Oracle
	Config config.Config
	Out    io.Writer
}

// NewSession builds a Session backed by this repository's bundled
// reference collaborators (internal/smt's IntervalSolver and
// internal/recurrence's PolynomialOracle), suitable for the simple-loop
// class of examples that class can fully decide; swap in an external
// SMT engine's ModelSolver for anything beyond that.
func NewSession(out io.Writer) *Session {
	return &Session{
		VarMan: vars.NewManager(),
		Solver: smt.NewIntervalSolver(),
		Oracle: recurrence.NewPolynomialOracle(),
		Config: config.Default(),
		Out:    out,
	}
}

// Start reads rule declarations from in until EOF, accelerating and
// printing each one to sess.Out.
func Start(in io.Reader, sess *Session) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(sess.Out, Prompt)
		block, ok := readRuleBlock(scanner)
		if !ok {
			return
		}
		if strings.TrimSpace(block) == "" {
			continue
		}
		runOne(block, sess)
	}
}

// readRuleBlock accumulates lines until the braces opened by a `rule
// ... {` declaration are balanced, so a rule spanning several lines is
// handed to the parser whole.
func readRuleBlock(scanner *bufio.Scanner) (string, bool) {
	var b strings.Builder
	depth := 0
	seenBrace := false
	for scanner.Scan() {
		line := scanner.Text()
		b.WriteString(line)
		b.WriteString("\n")
		for _, r := range line {
			switch r {
			case '{':
				depth++
				seenBrace = true
			case '}':
				depth--
			}
		}
		if seenBrace && depth <= 0 {
			return b.String(), true
		}
	}
	return b.String(), b.Len() > 0
}

func runOne(src string, sess *Session) {
	f, err := ruledsl.Parse("<repl>", src)
	if err != nil {
		fmt.Fprintln(sess.Out, ruledsl.FormatParseError(src, err))
		return
	}

	rule, err := ruledsl.Build(f, sess.VarMan)
	if err != nil {
		color.New(color.FgRed).Fprintf(sess.Out, "rule error: %s\n", err)
		return
	}

	deps := orchestrator.Deps{
		Solver: sess.Solver,
		Oracle: sess.Oracle,
		VarMan: sess.VarMan,
		Sink:   accel.NewWriterSink(sess.Out),
		Config: sess.Config,
	}
	result, err := orchestrator.Accelerate(context.Background(), rule, deps)
	PrintResult(sess.Out, result, err)
}
