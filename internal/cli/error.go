package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lmari-ekan/alpha-migrations/internal/amerr"
)

// FormatError formats an error for terminal display in Cargo/rustc style.
// Structured errors show their code, context pairs, and cause; anything
// else falls back to a one-line error.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	var me *amerr.Error
	if errors.As(err, &me) {
		return formatStructuredError(me)
	}

	var b strings.Builder
	b.WriteString(Error("error"))
	b.WriteString(": ")
	b.WriteString(err.Error())
	b.WriteString("\n")
	return b.String()
}

// formatStructuredError renders:
//
//	error[E3003]: rollback refused: breakpoint set
//	   | version: 20260815143000
//	   | name: add_audit_columns
//	cause: ...
func formatStructuredError(err *amerr.Error) string {
	var b strings.Builder

	b.WriteString(Error("error"))
	b.WriteString("[")
	b.WriteString(Code(string(err.GetCode())))
	b.WriteString("]: ")
	b.WriteString(err.GetMessage())
	b.WriteString("\n")

	ctx := err.GetContext()
	if len(ctx) > 0 {
		keys := make([]string, 0, len(ctx))
		for k := range ctx {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("   ")
		b.WriteString(Pipe())
		b.WriteString("\n")
		for _, k := range keys {
			b.WriteString("   ")
			b.WriteString(Pipe())
			b.WriteString(" ")
			b.WriteString(fmt.Sprintf("%s: %v", k, ctx[k]))
			b.WriteString("\n")
		}
	}

	if cause := errors.Unwrap(err); cause != nil {
		b.WriteString(Note("cause"))
		b.WriteString(": ")
		b.WriteString(cause.Error())
		b.WriteString("\n")
	}
	return b.String()
}

// FormatSuccess formats a success message.
func FormatSuccess(msg string) string {
	var b strings.Builder
	b.WriteString(Success("success"))
	b.WriteString(": ")
	b.WriteString(msg)
	b.WriteString("\n")
	return b.String()
}

// FormatNote formats a note message.
func FormatNote(msg string) string {
	var b strings.Builder
	b.WriteString(Note("note"))
	b.WriteString(": ")
	b.WriteString(msg)
	b.WriteString("\n")
	return b.String()
}

// FormatWarning formats a warning message.
func FormatWarning(msg string) string {
	var b strings.Builder
	b.WriteString(Warning("warning"))
	b.WriteString(": ")
	b.WriteString(msg)
	b.WriteString("\n")
	return b.String()
}
