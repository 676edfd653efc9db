package accel

import (
	"fmt"
	"io"

	"github.com/loat-go/accelerate/internal/logs"
)

// ProofSink receives the acceleration calculus's proof trace (spec.md
// §4.4 "Observable side effects": "a textual proof trace is appended
// via a sink supplied by the caller (treat the sink as an external
// collaborator)"). Grounded on the original's global proofout stream,
// turned into an injected collaborator instead of a global.
type ProofSink interface {
	Section(title string)
	Linef(format string, args ...any)
}

// logger narrows commonlog.Logger to what LogSink actually calls.
type logger interface {
	Infof(format string, values ...any)
}

// LogSink is the default ProofSink, writing through this repository's
// commonlog wrapper.
type LogSink struct {
	log logger
}

// NewLogSink builds a ProofSink that logs under the given component
// name via internal/logs.
func NewLogSink(name string) *LogSink {
	return &LogSink{log: logs.Get(name)}
}

func (s *LogSink) Section(title string) {
	s.log.Infof("=== %s ===", title)
}

func (s *LogSink) Linef(format string, args ...any) {
	s.log.Infof(format, args...)
}

// NullSink discards the proof trace, for callers (tests, bulk batch
// runs) that don't want the noise.
type NullSink struct{}

func (NullSink) Section(string)       {}
func (NullSink) Linef(string, ...any) {}

// WriterSink writes the proof trace directly to w, for front ends
// (the CLI, the REPL) that want the trace on the terminal rather than
// routed through commonlog.
type WriterSink struct {
	w io.Writer
}

// NewWriterSink builds a ProofSink that writes through w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Section(title string) {
	fmt.Fprintf(s.w, "=== %s ===\n", title)
}

func (s *WriterSink) Linef(format string, args ...any) {
	fmt.Fprintf(s.w, format+"\n", args...)
}
