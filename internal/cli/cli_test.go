package cli

import (
	"errors"
	"io"
	"testing"

	"github.com/lmari-ekan/alpha-migrations/internal/amerr"
)

// usePlainMode forces uncolored output for deterministic assertions and
// restores the detected configuration afterwards.
func usePlainMode(t *testing.T) {
	t.Helper()
	prev := Default()
	SetDefault(&Config{Mode: ModePlain, Writer: io.Discard})
	t.Cleanup(func() { SetDefault(prev) })
}

// -----------------------------------------------------------------------------
// Error formatting
// -----------------------------------------------------------------------------

func TestFormatStructuredError(t *testing.T) {
	usePlainMode(t)

	err := amerr.New(amerr.ErrBreakpointSet, "rollback refused: breakpoint set").
		WithVersion("20260815143000").
		With("name", "add_audit_columns")

	want := "error[E3003]: rollback refused: breakpoint set\n" +
		"   |\n" +
		"   | name: add_audit_columns\n" +
		"   | version: 20260815143000\n"
	if got := FormatError(err); got != want {
		t.Errorf("FormatError() = %q, want %q", got, want)
	}
}

func TestFormatErrorShowsCause(t *testing.T) {
	usePlainMode(t)

	err := amerr.Wrap(amerr.ErrSQLExecution, errors.New("near FROM: syntax error"), "statement failed")
	got := FormatError(err)

	want := "error[E4001]: statement failed\n" +
		"cause: near FROM: syntax error\n"
	if got != want {
		t.Errorf("FormatError() = %q, want %q", got, want)
	}
}

func TestFormatErrorFallsBackForPlainErrors(t *testing.T) {
	usePlainMode(t)

	got := FormatError(errors.New("something broke"))
	if want := "error: something broke\n"; got != want {
		t.Errorf("FormatError() = %q, want %q", got, want)
	}
}

func TestFormatErrorNil(t *testing.T) {
	usePlainMode(t)
	if got := FormatError(nil); got != "" {
		t.Errorf("FormatError(nil) = %q, want empty", got)
	}
}

func TestFormatMessageLabels(t *testing.T) {
	usePlainMode(t)

	if got := FormatSuccess("all migrations applied"); got != "success: all migrations applied\n" {
		t.Errorf("FormatSuccess() = %q", got)
	}
	if got := FormatNote("nothing to do"); got != "note: nothing to do\n" {
		t.Errorf("FormatNote() = %q", got)
	}
	if got := FormatWarning("dry run only"); got != "warning: dry run only\n" {
		t.Errorf("FormatWarning() = %q", got)
	}
}

// -----------------------------------------------------------------------------
// Tables
// -----------------------------------------------------------------------------

func TestTableAlignment(t *testing.T) {
	usePlainMode(t)

	tbl := NewTable("Status", "Version", "Name")
	tbl.AddRow("up", "20260815143000", "create_users")
	tbl.AddRow("down", "20260816090000", "add_index")

	want := "Status  Version         Name        \n" +
		"──────  ──────────────  ────────────\n" +
		"up      20260815143000  create_users\n" +
		"down    20260816090000  add_index   \n"
	if got := tbl.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestTablePadsShortRows(t *testing.T) {
	usePlainMode(t)

	tbl := NewTable("A", "B")
	tbl.AddRow("x")

	want := "A  B\n" +
		"─  ─\n" +
		"x   \n"
	if got := tbl.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 4); got != "ab  " {
		t.Errorf("padRight() = %q", got)
	}
	if got := padRight("abcd", 2); got != "abcd" {
		t.Errorf("padRight() = %q, want the string untouched", got)
	}
}

// -----------------------------------------------------------------------------
// Status helpers
// -----------------------------------------------------------------------------

func TestStatusBadge(t *testing.T) {
	usePlainMode(t)

	tests := []struct {
		name    string
		applied bool
		missing bool
		want    string
	}{
		{"missing wins", true, true, "** MISSING **"},
		{"applied", true, false, "up"},
		{"pending", false, false, "down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusBadge(tt.applied, tt.missing); got != tt.want {
				t.Errorf("StatusBadge(%v, %v) = %q, want %q", tt.applied, tt.missing, got, tt.want)
			}
		})
	}
}

func TestFormatCount(t *testing.T) {
	if got := FormatCount(1, "migration", "migrations"); got != "1 migration" {
		t.Errorf("FormatCount(1) = %q", got)
	}
	if got := FormatCount(3, "migration", "migrations"); got != "3 migrations" {
		t.Errorf("FormatCount(3) = %q", got)
	}
	if got := FormatCount(0, "migration", "migrations"); got != "0 migrations" {
		t.Errorf("FormatCount(0) = %q", got)
	}
}
