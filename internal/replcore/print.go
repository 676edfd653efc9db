package replcore

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	accerrors "github.com/loat-go/accelerate/internal/errors"
	"github.com/loat-go/accelerate/internal/its"
	"github.com/loat-go/accelerate/internal/orchestrator"
	"github.com/loat-go/accelerate/internal/ruledsl"
)

// PrintResult renders an orchestrator.Result the way the teacher's CLI
// renders a successful parse (colored status line, then the payload),
// generalised from "print an AST" to "print the accelerated rule set
// or the typed failure reason".
func PrintResult(w io.Writer, result orchestrator.Result, err error) {
	if err != nil {
		printFailure(w, err)
		return
	}

	switch result.Status {
	case orchestrator.StatusSuccess:
		color.New(color.FgGreen, color.Bold).Fprintln(w, "accelerated:")
		printRules(w, result.Rules)
	case orchestrator.StatusPartialSuccess:
		color.New(color.FgYellow, color.Bold).Fprintln(w, "partially accelerated (original rule retained):")
		printRules(w, result.Rules)
	default:
		color.New(color.FgRed, color.Bold).Fprintln(w, "not accelerated")
	}
}

func printRules(w io.Writer, rules []its.Rule) {
	if len(rules) == 0 {
		fmt.Fprintln(w, "  (guard unsatisfiable; rule dropped)")
		return
	}
	for _, r := range rules {
		fmt.Fprint(w, ruledsl.Format(r))
	}
}

func printFailure(w io.Writer, err error) {
	var accErr *accerrors.Error
	if ok := asAccelError(err, &accErr); ok {
		color.New(color.FgRed, color.Bold).Fprintf(w, "failed [%s]: ", accErr.Kind)
		fmt.Fprintln(w, accErr.Message)
		return
	}
	color.New(color.FgRed).Fprintf(w, "error: %s\n", err)
}

func asAccelError(err error, target **accerrors.Error) bool {
	ae, ok := err.(*accerrors.Error)
	if !ok {
		return false
	}
	*target = ae
	return true
}
