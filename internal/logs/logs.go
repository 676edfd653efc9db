// Package logs centralises this repository's commonlog acquisition,
// mirroring the teacher's cmd/kanso-lsp's commonlog.Configure call so
// every binary and every package that logs (the acceleration calculus's
// proof trace, the orchestrator, the REPL) goes through one
// configuration point instead of each picking its own verbosity.
package logs

import "github.com/tliron/commonlog"

// Configure sets the process-wide commonlog verbosity. Call once, from
// a cmd/ main, before any package acquires a logger with Get.
func Configure(maxLevel int) {
	commonlog.Configure(maxLevel, nil)
}

// Get returns a named logger, the same way every component in this
// repository identifies its log output.
func Get(name string) commonlog.Logger {
	return commonlog.GetLogger(name)
}
