// Command loat-repl is an interactive read-accelerate-print loop over
// internal/ruledsl rule declarations. Grounded on the teacher's
// repl/repl.go prompt-loop shape, retargeted from printing a parsed
// Move-language AST to running each rule through the acceleration
// orchestrator.
package main

import (
	"os"

	"github.com/loat-go/accelerate/internal/replcore"
)

func main() {
	sess := replcore.NewSession(os.Stdout)
	replcore.Start(os.Stdin, sess)
}
