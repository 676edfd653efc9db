package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Reporter formats Errors for a terminal, in the Rust-diagnostic style
// the teacher's ErrorReporter used, minus the source-line context this
// domain has no file/line/column for — an acceleration Error points at
// an ITS location, not a span of source text.
type Reporter struct{}

// NewReporter creates a Reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Format renders err as a coloured, multi-line diagnostic.
func (r *Reporter) Format(err *Error) string {
	var result strings.Builder

	levelColor := color.New(color.FgRed, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	result.WriteString(fmt.Sprintf("%s[%s]: %s\n",
		levelColor(err.Kind.String()), err.Code, err.Message))

	if err.Loc != "" {
		result.WriteString(fmt.Sprintf("  %s %s\n", dim("-->"), err.Loc))
	}

	for _, note := range err.Notes {
		noteColor := color.New(color.FgBlue).SprintFunc()
		result.WriteString(fmt.Sprintf("  %s %s\n", noteColor("note:"), note))
	}

	if err.HelpText != "" {
		helpColor := color.New(color.FgGreen).SprintFunc()
		result.WriteString(fmt.Sprintf("  %s %s\n", helpColor("help:"), err.HelpText))
	}

	return result.String()
}

// Description returns err's error-code description, for documentation
// and for the --explain style flag a CLI might expose.
func (r *Reporter) Description(err *Error) string {
	return description(err.Code)
}
