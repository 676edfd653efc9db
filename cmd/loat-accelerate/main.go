// Command loat-accelerate reads a single rule declaration from a file
// and reports the accelerated rule(s) spec.md §4 would produce for it.
// Grounded on cmd/kanso-cli/main.go's read-parse-report shape, with the
// Move-language parser swapped for internal/ruledsl and the printed
// AST swapped for the orchestrator's result.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/loat-go/accelerate/internal/accel"
	"github.com/loat-go/accelerate/internal/config"
	"github.com/loat-go/accelerate/internal/orchestrator"
	"github.com/loat-go/accelerate/internal/recurrence"
	"github.com/loat-go/accelerate/internal/replcore"
	"github.com/loat-go/accelerate/internal/ruledsl"
	"github.com/loat-go/accelerate/internal/smt"
	"github.com/loat-go/accelerate/internal/vars"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: loat-accelerate <file.loat>")
		os.Exit(1)
	}

	path := os.Args[1]
	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("failed to read file: %s", err)
		os.Exit(1)
	}

	f, err := ruledsl.Parse(path, string(source))
	if err != nil {
		fmt.Println(ruledsl.FormatParseError(string(source), err))
		os.Exit(1)
	}

	varMan := vars.NewManager()
	rule, err := ruledsl.Build(f, varMan)
	if err != nil {
		color.Red("rule error: %s", err)
		os.Exit(1)
	}

	deps := orchestrator.Deps{
		Solver: smt.NewIntervalSolver(),
		Oracle: recurrence.NewPolynomialOracle(),
		VarMan: varMan,
		Sink:   accel.NewWriterSink(os.Stdout),
		Config: config.Default(),
	}

	result, err := orchestrator.Accelerate(context.Background(), rule, deps)
	replcore.PrintResult(os.Stdout, result, err)
	if err != nil || result.Status == orchestrator.StatusFailure {
		os.Exit(1)
	}
}
